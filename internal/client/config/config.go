package config

import (
	"time"

	"github.com/dmitrijs2005/projecthub/internal/common"
)

// Config holds runtime settings for the ProjectHub terminal client.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - AdminEmail: address that gets the admin role. Must match the server.
//   - SessionDBPath: SQLite file keeping the refresh token between runs.
//   - DownloadDir: directory, relative to the working directory, for downloads.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - RequestTimeout: deadline applied to every RPC issued by a command.
//   - LogFormat / LogLevel: see logging.New.
type Config struct {
	ServerEndpointAddr  string        `env:"PROJECTHUB_SERVER_ADDR"`
	AdminEmail          string        `env:"PROJECTHUB_ADMIN_EMAIL"`
	SessionDBPath       string        `env:"PROJECTHUB_SESSION_DB"`
	DownloadDir         string        `env:"PROJECTHUB_DOWNLOAD_DIR"`
	OnlineCheckInterval time.Duration `env:"PROJECTHUB_ONLINE_CHECK_INTERVAL"`
	RequestTimeout      time.Duration `env:"PROJECTHUB_REQUEST_TIMEOUT"`
	LogFormat           string        `env:"PROJECTHUB_LOG_FORMAT"`
	LogLevel            string        `env:"PROJECTHUB_LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.AdminEmail = common.DefaultAdminEmail
	c.SessionDBPath = "projecthub_session.db"
	c.DownloadDir = "downloads"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 15 * time.Second
	c.LogFormat = "text"
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
