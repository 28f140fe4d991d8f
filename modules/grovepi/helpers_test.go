package grovepi

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tr4cks/grove/modules"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

type recordingBus struct {
	i2ctest.Record
	closed int
}

func (b *recordingBus) Close() error {
	b.closed++
	return nil
}

func (b *recordingBus) writes() [][]byte {
	b.Lock()
	defer b.Unlock()
	w := make([][]byte, 0, len(b.Ops))
	for _, op := range b.Ops {
		w = append(w, op.W)
	}
	return w
}

func (b *recordingBus) reset() {
	b.Lock()
	defer b.Unlock()
	b.Ops = nil
}

// flakyBus accepts the first n transactions and fails every later one.
type flakyBus struct {
	mu     sync.Mutex
	n      int
	txs    int
	closed bool
}

var errBus = errors.New("remote I/O error")

func (b *flakyBus) String() string { return "flaky" }

func (b *flakyBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.txs++
	if b.txs > b.n {
		return errBus
	}
	return nil
}

func (b *flakyBus) SetSpeed(f physic.Frequency) error { return nil }

func (b *flakyBus) Close() error {
	b.closed = true
	return nil
}

type opener struct {
	bus    i2c.BusCloser
	err    error
	opened []int
}

func (o *opener) open(bus int) (i2c.BusCloser, error) {
	o.opened = append(o.opened, bus)
	if o.err != nil {
		return nil, o.err
	}
	return o.bus, nil
}

type triggers struct {
	calls []string
}

func (t *triggers) trigger(output string, channel int) {
	t.calls = append(t.calls, output)
}

func newEnv(o *opener, t *triggers) modules.Env {
	env := modules.Env{Logger: zerolog.Nop(), Open: o.open}
	if t != nil {
		env.Trigger = t.trigger
	}
	return env
}

func outputConfig(kind string, options map[string]interface{}) modules.OutputConfig {
	return modules.OutputConfig{
		Name:        "test",
		Type:        kind,
		I2CBus:      1,
		I2CLocation: "0x04",
		Options:     options,
	}
}
