package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			Workspace:             "~/.readeckbot/workspace",
			LogLevel:              "info",
			MaxConcurrentMessages: 5,
		},
		Channels: ChannelsConfig{
			Telegram: TelegramConfig{
				Enabled:   false,
				ParseMode: "Markdown",
			},
			CLI: CLIConfig{
				Enabled: true,
			},
		},
		Readeck: ReadeckConfig{
			BaseURL:        "http://localhost:8000",
			DockerImage:    "codeberg.org/readeck/readeck:latest",
			Application:    "telegram bot",
			TimeoutSeconds: 30,
		},
		Store: StoreConfig{
			TokensPath:    "~/.readeckbot/user_tokens.json",
			HistoryDBPath: "~/.readeckbot/history.db",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9090",
		},
	}
}
