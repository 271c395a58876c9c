// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string

	// DatabaseDSN holds the database connection string for the lookup
	// audit trail. Empty disables auditing.
	DatabaseDSN string

	// Config is the path to the Config file.
	Config string

	// PortalBaseURL is the root URL of the warranty portal.
	PortalBaseURL string

	// PortalUsername and PortalPassword are the portal login credentials.
	// Read from the environment; validated at the first authentication
	// attempt, not at startup.
	PortalUsername string
	PortalPassword string

	// PortalCookie, when set, is a pre-authenticated cookie string
	// ("name=value; name=value") that replaces the login protocol.
	PortalCookie string

	// PortalTimeoutSeconds bounds every portal HTTP call.
	PortalTimeoutSeconds int
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	flag.StringVar(&options.PortalBaseURL, "portal", "https://hub.fordtrucks.it/", "warranty portal base URL")
	flag.IntVar(&options.PortalTimeoutSeconds, "portal-timeout", 25, "portal request timeout in seconds")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if base := os.Getenv("PORTAL_BASE_URL"); base != "" {
		options.PortalBaseURL = base
	}
	if cookie := os.Getenv("PORTAL_COOKIE"); cookie != "" {
		options.PortalCookie = cookie
	}
	if timeout := os.Getenv("PORTAL_TIMEOUT"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil && secs > 0 {
			options.PortalTimeoutSeconds = secs
		}
	}

	options.PortalUsername = os.Getenv("FORD_USERNAME")
	options.PortalPassword = os.Getenv("FORD_PASSWORD")

	return options
}
