// Package config loads the client's connection and identity settings,
// generalizing the teacher's loadConfig() into flag + environment variable
// overrides over the same defaults-struct shape (§A).
package config

import (
	"flag"
	"os"
	"strconv"
)

// Config holds everything the CLI entrypoint needs to dial and log in.
type Config struct {
	ServerAddr   string
	PlayerName   string
	Password     string
	MachineID    uint32
	Timezone     uint16
	PermissionID uint32
	MapZone      string
	CacheDir     string
	LogLevel     string
	MetricsAddr  string

	// RegistrationRealName/Email are sent only if the server challenges an
	// unregistered account with PasswordResponse.RegistrationRequest (§4.5).
	RegistrationRealName string
	RegistrationEmail    string
}

func defaults() Config {
	return Config{
		ServerAddr:           "127.0.0.1:5000",
		PlayerName:           "guest",
		Password:             "",
		MachineID:            1,
		Timezone:             0,
		PermissionID:         0,
		MapZone:              "default",
		CacheDir:             "./mapcache",
		LogLevel:             "info",
		MetricsAddr:          "",
		RegistrationRealName: "",
		RegistrationEmail:    "",
	}
}

// envOverride replaces dst with the named environment variable's value, if set.
func envOverride(dst *string, name string) {
	if v, ok := os.LookupEnv(name); ok {
		*dst = v
	}
}

func envOverrideUint(dst *uint32, name string) {
	if v, ok := os.LookupEnv(name); ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			*dst = uint32(n)
		}
	}
}

// Load parses CLI flags over the environment-overridden defaults, matching
// the teacher's "plain struct, no config file" approach (§A) while adding
// the override layers a deployable client needs.
func Load(args []string) (Config, error) {
	c := defaults()

	envOverride(&c.ServerAddr, "SUBSPACE_SERVER_ADDR")
	envOverride(&c.PlayerName, "SUBSPACE_PLAYER_NAME")
	envOverride(&c.Password, "SUBSPACE_PASSWORD")
	envOverride(&c.MapZone, "SUBSPACE_MAP_ZONE")
	envOverride(&c.CacheDir, "SUBSPACE_CACHE_DIR")
	envOverride(&c.LogLevel, "SUBSPACE_LOG_LEVEL")
	envOverride(&c.MetricsAddr, "SUBSPACE_METRICS_ADDR")
	envOverride(&c.RegistrationRealName, "SUBSPACE_REG_REAL_NAME")
	envOverride(&c.RegistrationEmail, "SUBSPACE_REG_EMAIL")
	envOverrideUint(&c.MachineID, "SUBSPACE_MACHINE_ID")
	envOverrideUint(&c.PermissionID, "SUBSPACE_PERMISSION_ID")

	fs := flag.NewFlagSet("subspace-client", flag.ContinueOnError)
	fs.StringVar(&c.ServerAddr, "server", c.ServerAddr, "server address (host:port)")
	fs.StringVar(&c.PlayerName, "name", c.PlayerName, "player name")
	fs.StringVar(&c.Password, "password", c.Password, "account password")
	fs.StringVar(&c.MapZone, "zone", c.MapZone, "map cache zone name")
	fs.StringVar(&c.CacheDir, "cache-dir", c.CacheDir, "map cache root directory")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Prometheus metrics listen address (empty disables)")
	fs.StringVar(&c.RegistrationRealName, "reg-real-name", c.RegistrationRealName, "real name sent if the server requests registration")
	fs.StringVar(&c.RegistrationEmail, "reg-email", c.RegistrationEmail, "email sent if the server requests registration")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return c, nil
}
