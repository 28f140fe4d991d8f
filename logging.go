package main

import (
	"io"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func newLogger(scope string, level zerolog.Level) zerolog.Logger {
	var outputWriter io.Writer = os.Stderr
	if gin.Mode() != gin.ReleaseMode {
		outputWriter = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return zerolog.
		New(outputWriter).
		Level(level).
		With().
		Timestamp().
		Str("scope", scope).
		Logger()
}
