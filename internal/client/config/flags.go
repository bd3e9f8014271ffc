package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/flagx"
)

var clientFlags = []string{"-a", "-m", "-s", "-d", "-i", "-t", "-f", "-v"}

// parseFlags populates Config fields from command-line flags.
//
//	-a string   address and port of the backend server
//	-m string   admin email
//	-s string   session database file
//	-d string   download directory
//	-i int      online check interval in seconds
//	-t int      request timeout in seconds
//	-f string   log format (json, text, zap)
//	-v string   log level
//
// Only the flags above are passed to the flag set, see flagx.FilterArgs.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], clientFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.AdminEmail, "m", cfg.AdminEmail, "admin email")
	fs.StringVar(&cfg.SessionDBPath, "s", cfg.SessionDBPath, "session database file")
	fs.StringVar(&cfg.DownloadDir, "d", cfg.DownloadDir, "download directory")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
