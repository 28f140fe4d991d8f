package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/tr4cks/grove/modules"
	"github.com/tr4cks/grove/modules/grovepi"
	"github.com/tr4cks/grove/modules/ilo"
	"github.com/tr4cks/grove/modules/wakeonlan"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFilePath, "config", path.Join("/etc", fmt.Sprintf("%s.d", appName), "config.yaml"), "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&serverAddress, "server", "http://localhost:8080", "address of the running server, for the client commands")
}

const appName = "grove"

var (
	configFilePath string
	serverAddress  string
	rootCmd        = &cobra.Command{
		Use:     appName,
		Short:   "Output drivers for home and grow automation",
		Version: "1.0.0",
		Args:    cobra.NoArgs,
		Run:     run,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
)

type Config struct {
	Username string            `yaml:"username" validate:"required"`
	Password string            `yaml:"password" validate:"required"`
	Listen   string            `yaml:"listen"`
	LogLevel string            `yaml:"log-level"`
	Outputs  []OutputEntry     `yaml:"outputs" validate:"dive"`
	Discord  *DiscordBotConfig `yaml:"discord" validate:"omitempty"`
}

func newRegistry() *modules.Registry {
	return modules.NewRegistry(
		grovepi.GPIO,
		grovepi.GPIOOutput,
		grovepi.NeoPixel,
		wakeonlan.Definition,
		ilo.Definition,
	)
}

func parseYAMLFile(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()
	config := Config{}
	decoder := yaml.NewDecoder(file)
	err = decoder.Decode(&config)
	if err != nil {
		return nil, fmt.Errorf("error decoding YAML file %q: %w", filePath, err)
	}
	return &config, nil
}

func loadConfig(filePath string) (*Config, error) {
	config, err := parseYAMLFile(filePath)
	if err != nil {
		return nil, err
	}
	err = validator.New().Struct(config)
	if err != nil {
		return nil, fmt.Errorf("error during configuration validation: %w", err)
	}
	if config.Listen == "" {
		config.Listen = ":8080"
	}
	return config, nil
}

func parseConfigFile(filePath string) *Config {
	config, err := loadConfig(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration file %q: %s\n", filePath, err)
		os.Exit(1)
	}
	return config
}

func logLevel(config *Config) zerolog.Level {
	if config.LogLevel == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q, falling back to info\n", config.LogLevel)
		return zerolog.InfoLevel
	}
	return level
}

func run(cmd *cobra.Command, args []string) {
	config := parseConfigFile(configFilePath)
	level := logLevel(config)
	logger := newLogger("host", level)

	manager := NewManager(newRegistry(), modules.PeriphOpener, newLogger("outputs", level))
	err := manager.Load(config.Outputs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error while loading outputs: %s\n", err)
		os.Exit(1)
	}

	scheduler := NewScheduler(manager, newLogger("scheduler", level))
	for _, entry := range manager.Entries() {
		err := scheduler.Add(entry.Name, entry.Schedule)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error during scheduler initialization: %s\n", err)
			os.Exit(1)
		}
	}

	var bot *DiscordBot
	if config.Discord != nil {
		bot, err = NewDiscordBot(config.Discord, manager, newLogger("discord", level))
		if err == nil {
			err = bot.Start()
		}
		if err != nil {
			logger.Error().Err(err).Msg("Discord bot unavailable")
			bot = nil
		}
	}

	manager.Setup()
	scheduler.Start()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	RegisterMetrics(registry)

	server := &http.Server{
		Addr:    config.Listen,
		Handler: newRouter(config, manager, registry, newLogger("http", level)),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("address", config.Listen).Msg("Listening")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("HTTP server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = server.Shutdown(shutdownCtx)
	if err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}
	scheduler.Stop()
	if bot != nil {
		bot.Stop()
	}
	manager.Stop()
}

func init() {
	rootCmd.AddCommand(onCmd, offCmd, stateCmd, validateCmd, listCmd)
}

func switchCommand(state modules.State) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		config := parseConfigFile(configFilePath)
		client := NewClient(serverAddress, config.Username, config.Password)

		err := client.Switch(args[0], state)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Output switch error: %s\n", err)
			os.Exit(1)
		}
	}
}

func printJSON(value interface{}) {
	jsonString, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fmt.Println("Error during JSON conversion:", err)
		os.Exit(1)
	}
	fmt.Println(string(jsonString))
}

var (
	onCmd = &cobra.Command{
		Use:   "on <output>",
		Short: "Turn an output on",
		Args:  cobra.ExactArgs(1),
		Run:   switchCommand(modules.StateOn),
	}
	offCmd = &cobra.Command{
		Use:   "off <output>",
		Short: "Turn an output off",
		Args:  cobra.ExactArgs(1),
		Run:   switchCommand(modules.StateOff),
	}
	stateCmd = &cobra.Command{
		Use:   "state [output]",
		Short: "Fetch the state of one or every output",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			config := parseConfigFile(configFilePath)
			client := NewClient(serverAddress, config.Username, config.Password)

			var (
				value interface{}
				err   error
			)
			if len(args) == 1 {
				value, err = client.Status(args[0])
			} else {
				value, err = client.Statuses()
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to retrieve output state: %s\n", err)
				os.Exit(1)
			}
			printJSON(value)
		},
	}
	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Check the output options of the configuration file",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			config := parseConfigFile(configFilePath)
			report, err := validateOutputs(newRegistry(), config.Outputs)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			for _, name := range report.names {
				for _, msg := range report.messages[name] {
					fmt.Printf("%s: %s\n", name, msg)
				}
			}
		},
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List the available output types and their options",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printJSON(newRegistry().All())
		},
	}
)

type validationReport struct {
	names    []string
	messages map[string][]string
}

// validateOutputs collects option messages and initialization errors per
// output without touching any hardware. Only an unknown output type is an
// error.
func validateOutputs(registry *modules.Registry, entries []OutputEntry) (validationReport, error) {
	report := validationReport{messages: make(map[string][]string)}
	for _, entry := range entries {
		definition, err := registry.Lookup(entry.Type)
		if err != nil {
			return report, fmt.Errorf("output %q: %w", entry.Name, err)
		}
		report.names = append(report.names, entry.Name)
		messages := modules.CheckOptions(definition.Options, entry.Options)
		output := definition.New(modules.Env{Logger: zerolog.Nop()})
		if err := output.Init(entry.OutputConfig); err != nil {
			messages = append(messages, err.Error())
		}
		for _, schedule := range entry.Schedule {
			if _, err := ParseCron(schedule.Cron); err != nil {
				messages = append(messages, err.Error())
			}
		}
		report.messages[entry.Name] = messages
	}
	return report, nil
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
