package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override loaded configuration.
const (
	EnvPort           = "TXN_PORT"
	EnvUploadDir      = "TXN_UPLOAD_DIR"
	EnvMaxUploadBytes = "TXN_MAX_UPLOAD_BYTES"
	EnvLogPriority    = "TXN_LOG_PRIORITY"
)

// ApplyEnv overlays environment variables on c. When envFile is set its
// entries are used for variables the process environment does not define.
// Call Validate afterwards.
func ApplyEnv(envFile string, c *AppConfig) error {
	fileVals := map[string]string{}
	if envFile != "" {
		var err error
		if fileVals, err = godotenv.Read(envFile); err != nil {
			return fmt.Errorf("reading env file %s: %w", envFile, err)
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVals[key]
		return v, ok
	}

	if v, ok := lookup(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.AppServerPort = port
	}
	if v, ok := lookup(EnvUploadDir); ok {
		c.UploadDir = v
	}
	if v, ok := lookup(EnvMaxUploadBytes); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxUploadBytes, err)
		}
		c.MaxUploadBytes = n
	}
	if v, ok := lookup(EnvLogPriority); ok {
		c.LogPriority = v
	}
	return nil
}
