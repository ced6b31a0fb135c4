package internal

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

type Mode string

const (
	Periodic Mode = "Periodic"
	Once     Mode = "Once"
)

type Config struct {
	RootURL             string
	ManifestPath        string
	DataDir             string
	DataRepoURL         string
	MarkerFile          string
	RunLogFile          string
	TickIntervalSeconds int
	MaxTicks            int
	Verbose             bool
	Mode                Mode
}

func LoadConfig() *Config {
	return &Config{
		RootURL:             getEnvOrDefault("ROOT_URL", "http://wormwiring.org/"),
		ManifestPath:        getEnvOrFatal("MANIFEST_PATH"),
		DataDir:             getEnvOrDefault("DATA_DIR", "data"),
		DataRepoURL:         getEnvOrDefault("DATA_REPO_URL", ""),
		MarkerFile:          getEnvOrDefault("MARKER_FILE", "last_changed.txt"),
		RunLogFile:          getEnvOrDefault("RUN_LOG_FILE", ".ww-data/runlog.jsonl"),
		TickIntervalSeconds: getEnvAsIntOrDefault("TICK_INTERVAL_SECONDS", 3600),
		MaxTicks:            getEnvAsIntOrDefault("MAX_TICKS", -1),
		Verbose:             getEnvAsBoolOrDefault("VERBOSE", false),
		Mode:                getModeFromEnv("MODE", Once),
	}
}

func getEnvOrFatal(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Environment variable %s is not set", key)
	}
	return value
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("Environment variable %s is not a valid integer: %v", key, err)
	}
	return intValue
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "t" || value == "1"
}

func getModeFromEnv(key string, defaultValue Mode) Mode {
	value := strings.ToLower(os.Getenv(key))
	switch value {
	case "":
		return defaultValue
	case strings.ToLower(string(Once)):
		return Once
	case strings.ToLower(string(Periodic)):
		return Periodic
	default:
		panic(fmt.Sprintf("Invalid mode: %s", value))
	}
}
