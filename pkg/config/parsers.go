package config

import (
	"flag"
	"net"
	"os"
	"strconv"
	"strings"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	Mongo  string
	Config string
	Set    map[string]bool
}

// ParseCommandFlags parses command-line flags.
func ParseCommandFlags() Flags {
	addrPtr := flag.String("addr", "0.0.0.0:5001", "HTTP listen address")
	mongoPtr := flag.String("mongo", "", "MongoDB connection URL")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return Flags{Addr: *addrPtr, Mongo: *mongoPtr, Config: *cfgPtr, Set: set}
}

// ResolveConfigPath picks the config path: explicit flag wins, then the
// TICKETDB_CONFIG env var, then the flag default.
func ResolveConfigPath(flagVal string, flagSet bool) string {
	if flagSet {
		return flagVal
	}
	if v := os.Getenv("TICKETDB_CONFIG"); v != "" {
		return v
	}
	return flagVal
}

// applyEnv overlays environment variables onto cfg. The legacy names used
// by earlier deployments (MONGODB_URL, MONGODB_DB, MIN/MAX_CONNECTIONS_COUNT)
// are honored as fallbacks behind the TICKETDB_* names.
func applyEnv(cfg *Config) {
	if v := firstEnv("TICKETDB_ADDR", "TICKETDB_SERVER_ADDR"); v != "" {
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("TICKETDB_SERVER_PORT"); v != "" {
		if pi, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = pi
		}
	}
	if v := firstEnv("TICKETDB_MONGO_URL", "MONGODB_URL"); v != "" {
		cfg.Mongo.URL = v
	}
	if v := firstEnv("TICKETDB_MONGO_DB", "MONGODB_DB"); v != "" {
		cfg.Mongo.Database = v
	}
	if v := firstEnv("TICKETDB_MONGO_MIN_POOL", "MIN_CONNECTIONS_COUNT"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Mongo.MinPoolSize = n
		}
	}
	if v := firstEnv("TICKETDB_MONGO_MAX_POOL", "MAX_CONNECTIONS_COUNT"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Mongo.MaxPoolSize = n
		}
	}
	if v := os.Getenv("TICKETDB_CORS_ORIGINS"); v != "" {
		cfg.Security.CORS.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("TICKETDB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
