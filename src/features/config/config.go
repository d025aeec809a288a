package config

// Config holds the application configuration.
type Config struct {
	Logger   Logger   `yaml:"logger"`
	Server   Server   `yaml:"server"`
	Metrics  Metrics  `yaml:"metrics"`
	Database Database `yaml:"database"`
	Resolver Resolver `yaml:"resolver"`
	Services Services `yaml:"services"`
}

// Server holds the configuration for the Fiber server Config
type Server struct {
	PrintRoutes bool   `yaml:"show_routes"`
	Port        uint32 `yaml:"port"`
}

// Metrics holds the configuration for the Prometheus endpoint
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Port    uint32 `yaml:"port"`
}

// Database holds the configuration for the resolution history database
type Database struct {
	Path string `yaml:"path" validate:"required"`
}

// Logger holds the configuration for the app logging
type Logger struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
}

// Resolver holds the configuration for the upstream catalogue API
type Resolver struct {
	APIURL            string   `yaml:"api_url" validate:"required,url"`
	APIKey            string   `yaml:"api_key"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	TimeoutSeconds    int      `yaml:"timeout_seconds"`
	BrowserTLSHosts   []string `yaml:"browser_tls_hosts"`
}

// Services holds per-service credential material
type Services struct {
	Deezer  Deezer  `yaml:"deezer"`
	Spotify Spotify `yaml:"spotify"`
}

// Deezer holds the arl cookie, either a literal value or an http(s) URL
// that serves a rotating one.
type Deezer struct {
	ARL string `yaml:"arl"`
}

// Spotify holds the session cookie and optional API client pair
type Spotify struct {
	SpDC         string `yaml:"sp_dc"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}
