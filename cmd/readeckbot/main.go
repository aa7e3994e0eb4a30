package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"readeckbot/internal/bot"
	"readeckbot/internal/bus"
	"readeckbot/internal/channel"
	"readeckbot/internal/config"
	"readeckbot/internal/history"
	"readeckbot/internal/metrics"
	"readeckbot/internal/parse"
	"readeckbot/internal/provision"
	"readeckbot/internal/readeck"
	"readeckbot/internal/store"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "readeckbot",
		Short: "readeckbot: Telegram bridge for a self-hosted Readeck instance",
		Long:  "readeckbot saves URLs sent over chat into Readeck and fetches saved articles back as markdown.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.readeckbot/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(gatewayCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(configCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config and workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("readeckbot " + version)
		},
	}
}

func gatewayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gateway",
		Short: "Start the bot (Telegram + dispatcher)",
		Long:  "Starts all enabled channels and the dispatcher. Press Ctrl+C to stop.",
		RunE:  runGateway,
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the bot from the terminal (no Telegram required)",
		RunE:  runChat,
	}
}

// logLevel maps the config log level string to a slog.Level.
func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildDispatcher wires the stores, Readeck client, and provisioner into
// a dispatcher bound to the given bus.
func buildDispatcher(cfg *config.Config, messageBus *bus.InMemoryBus) (*bot.Dispatcher, func(), error) {
	tokenStore, err := store.NewTokenStore(cfg.Store.TokensPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("token store: %w", err)
	}

	var journal bot.Journal
	var closeJournal func()
	if cfg.Store.HistoryDBPath != "" {
		hist, err := history.NewStore(cfg.Store.HistoryDBPath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("history store: %w", err)
		}
		journal = hist
		closeJournal = func() { hist.Close() }
	} else {
		closeJournal = func() {}
	}

	aliases, err := parse.LoadAliases(cfg.Store.AliasesPath, logger)
	if err != nil {
		closeJournal()
		return nil, nil, fmt.Errorf("label aliases: %w", err)
	}

	client := readeck.New(readeck.Config{
		BaseURL:     cfg.Readeck.BaseURL,
		Application: cfg.Readeck.Application,
		Timeout:     time.Duration(cfg.Readeck.TimeoutSeconds) * time.Second,
		Logger:      logger,
	})

	provisioner := provision.New(provision.Config{
		ConfigPath:  cfg.Readeck.ConfigPath,
		DockerImage: cfg.Readeck.DockerImage,
		Logger:      logger,
	})

	dispatcher := bot.New(bot.Config{
		Store:       tokenStore,
		Client:      client,
		Provisioner: provisioner,
		Journal:     journal,
		Aliases:     aliases,
		Bus:         messageBus,
		Logger:      logger,
		Concurrency: cfg.General.MaxConcurrentMessages,
	})
	return dispatcher, closeJournal, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.General.LogLevel)}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messageBus := bus.New(100, logger)
	defer messageBus.Close()

	dispatcher, cleanup, err := buildDispatcher(cfg, messageBus)
	if err != nil {
		return err
	}
	defer cleanup()

	go dispatcher.Run(ctx)

	cliCh := channel.NewCLI(channel.CLIConfig{Logger: logger})
	return cliCh.Start(ctx, messageBus)
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.General.LogLevel)}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messageBus := bus.New(100, logger)

	dispatcher, cleanup, err := buildDispatcher(cfg, messageBus)
	if err != nil {
		return err
	}
	defer cleanup()

	go dispatcher.Run(ctx)

	var telegramCh *channel.Telegram
	if cfg.Channels.Telegram.Enabled && cfg.Channels.Telegram.Token != "" {
		telegramCh = channel.NewTelegram(channel.TelegramConfig{
			Token:     cfg.Channels.Telegram.Token,
			AllowFrom: cfg.Channels.Telegram.AllowFrom,
			ParseMode: cfg.Channels.Telegram.ParseMode,
			Logger:    logger,
		})
		go func() {
			if err := telegramCh.Start(ctx, messageBus); err != nil {
				logger.Error("telegram channel error", "err", err)
			}
		}()
		logger.Info("telegram channel enabled")
	} else {
		logger.Info("telegram channel disabled")
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Collector.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			logger.Info("metrics listener started", "addr", cfg.Metrics.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics listener error", "err", err)
			}
		}()
	}

	logger.Info("gateway started. Press Ctrl+C to stop.")

	// Block until shutdown signal
	<-ctx.Done()
	logger.Info("shutting down gateway...")

	const shutdownTimeout = 10 * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		if telegramCh != nil {
			telegramCh.Stop()
		}
		if metricsSrv != nil {
			metricsSrv.Shutdown(shutdownCtx)
		}
		messageBus.Close()
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timed out, forcing exit")
		shutdownErr = fmt.Errorf("shutdown timed out")
	}

	return shutdownErr
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. readeck.baseUrl)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. readeck.baseUrl https://readeck.example.com)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			sanitized := config.Sanitize(cfg)
			data, _ := json.MarshalIndent(sanitized, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}
