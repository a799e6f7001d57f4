package config

import (
	"flag"
	"os"
	"time"

	"github.com/okulikov/authd/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-n string   session cookie name
//	-m int      session cookie Max-Age, seconds
//	-w int      shutdown timeout, seconds
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-n", "-m", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SessionCookieName, "n", config.SessionCookieName, "session cookie name")

	cookieMaxAge := fs.Int("m", int(config.SessionCookieMaxAge.Seconds()), "session cookie Max-Age (in seconds)")
	shutdownTimeout := fs.Int("w", int(config.ShutdownTimeout.Seconds()), "shutdown timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionCookieMaxAge = time.Duration(*cookieMaxAge) * time.Second
	config.ShutdownTimeout = time.Duration(*shutdownTimeout) * time.Second
}
