package config

// createDefaultConfig creates a new Config with sensible default values
func createDefaultConfig() *Config {
	return &Config{
		Logger: Logger{
			Enabled: true,
			Level:   "info",
			Format:  "text",
		},
		Server: Server{
			PrintRoutes: false,
			Port:        3636,
		},
		Metrics: Metrics{
			Enabled: false,
			Port:    9090,
		},
		Database: Database{
			Path: "./streamvault.db",
		},
		Resolver: Resolver{
			APIURL:            "https://api.music.example.com/v1",
			APIKey:            "",
			RequestsPerSecond: 5,
			TimeoutSeconds:    15,
			BrowserTLSHosts:   []string{"open.spotify.com"},
		},
		Services: Services{
			Deezer: Deezer{
				ARL: "", // Literal cookie or an https URL serving a fresh one
			},
			Spotify: Spotify{
				SpDC:         "",
				ClientID:     "",
				ClientSecret: "",
			},
		},
	}
}
