package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/naapim/naapim/internal/api"
	"github.com/naapim/naapim/internal/email"
	"github.com/naapim/naapim/internal/genai"
	"github.com/naapim/naapim/internal/registry"
	"github.com/naapim/naapim/internal/reminder"
	"github.com/naapim/naapim/internal/store"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for naapim state data
	DefaultStateDir = "/var/lib/naapim"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "naapim.db"
	// ShutdownTimeout bounds graceful HTTP server shutdown
	ShutdownTimeout = 10 * time.Second
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	if err := run(flags); err != nil {
		slog.Error("naapim failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("naapim exited successfully")
}

func run(flags Flags) error {
	reg, err := registry.Load(*flags.registryDir)
	if err != nil {
		return err
	}

	st, err := store.NewStore(buildStoreOptions(flags)...)
	if err != nil {
		return err
	}
	defer st.Close()

	gaClient, err := genai.NewClient(buildGenAIOptions(flags)...)
	if err != nil {
		if !errors.Is(err, genai.ErrAPIKeyNotSet) {
			return err
		}
		slog.Warn("No OpenAI API key configured, classification will use fallbacks")
		gaClient = nil
	}

	var sched *reminder.Scheduler
	sender, err := email.NewClient(buildEmailOptions(flags)...)
	if err != nil {
		if !errors.Is(err, email.ErrAPIKeyNotSet) {
			return err
		}
		slog.Warn("No Resend API key configured, reminder emails disabled")
	} else {
		sched = reminder.NewScheduler(st, sender, buildReminderOptions(flags)...)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	var gaIface genai.ClientInterface
	if gaClient != nil {
		gaIface = gaClient
	}
	server := api.NewServer(reg, st, gaIface, buildAPIOptions(flags)...)

	// Shut the server down on SIGINT or SIGTERM.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-stop
		slog.Info("Shutdown signal received", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	return server.Run()
}

// Config holds environment configuration
type Config struct {
	DatabaseURL  string
	StateDir     string
	RegistryDir  string
	OpenAIKey    string
	APIAddr      string
	ResendKey    string
	ResendFrom   string
	ReminderCron string
}

// Flags holds command line flag values
type Flags struct {
	stateDir     *string
	registryDir  *string
	dbDSN        *string
	openaiKey    *string
	apiAddr      *string
	resendKey    *string
	resendFrom   *string
	reminderCron *string
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		StateDir:     os.Getenv("NAAPIM_STATE_DIR"),
		RegistryDir:  os.Getenv("NAAPIM_REGISTRY_DIR"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		APIAddr:      os.Getenv("API_ADDR"),
		ResendKey:    os.Getenv("RESEND_API_KEY"),
		ResendFrom:   os.Getenv("RESEND_FROM"),
		ReminderCron: os.Getenv("REMINDER_SCHEDULE"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No NAAPIM_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"NAAPIM_STATE_DIR", config.StateDir,
		"NAAPIM_REGISTRY_DIR", config.RegistryDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"RESEND_API_KEY_SET", config.ResendKey != "",
		"REMINDER_SCHEDULE", config.ReminderCron)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:     flag.String("state-dir", config.StateDir, "state directory for naapim data (overrides $NAAPIM_STATE_DIR)"),
		registryDir:  flag.String("registry-dir", config.RegistryDir, "directory with registry JSON overrides (overrides $NAAPIM_REGISTRY_DIR)"),
		dbDSN:        flag.String("db-dsn", config.DatabaseURL, "database DSN, SQLite path or PostgreSQL URL (overrides $DATABASE_URL)"),
		openaiKey:    flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:      flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		resendKey:    flag.String("resend-api-key", config.ResendKey, "Resend API key for reminder emails (overrides $RESEND_API_KEY)"),
		resendFrom:   flag.String("resend-from", config.ResendFrom, "sender address for reminder emails (overrides $RESEND_FROM)"),
		reminderCron: flag.String("reminder-schedule", config.ReminderCron, "cron schedule for reminder dispatch (overrides $REMINDER_SCHEDULE)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"registryDir", *flags.registryDir,
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"resendKeySet", *flags.resendKey != "",
		"reminderCron", *flags.reminderCron)

	// Follow the state directory when the DSN still points at the default SQLite file
	if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if store.DetectDSNType(*flags.dbDSN) == "sqlite" {
		stateDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
			return err
		}
	}
	return nil
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN != "" {
		slog.Debug("Configuring store", "dsn_type", store.DetectDSNType(*flags.dbDSN))
		storeOpts = append(storeOpts, store.WithDSN(*flags.dbDSN))
	} else {
		slog.Debug("No database DSN provided, will use in-memory store")
	}
	return storeOpts
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	return genaiOpts
}

// buildEmailOptions constructs email client configuration options
func buildEmailOptions(flags Flags) []email.Option {
	var emailOpts []email.Option
	if *flags.resendKey != "" {
		emailOpts = append(emailOpts, email.WithAPIKey(*flags.resendKey))
	}
	if *flags.resendFrom != "" {
		emailOpts = append(emailOpts, email.WithFrom(*flags.resendFrom))
	}
	return emailOpts
}

// buildReminderOptions constructs reminder scheduler configuration options
func buildReminderOptions(flags Flags) []reminder.Option {
	var reminderOpts []reminder.Option
	if *flags.reminderCron != "" {
		reminderOpts = append(reminderOpts, reminder.WithSchedule(*flags.reminderCron))
	}
	return reminderOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}
