// Package config reads config.json and lets environment variables, also
// loadable from a .env file, override it.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"chatapp-client/internal/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

const (
	FileName    = "config.json"
	EnvFileName = ".env"
)

func Defaults() models.ConfigFile {
	return models.ConfigFile{
		Address:         "127.0.0.1",
		Port:            "3000",
		LogLevel:        "info",
		SelfContained:   true,
		SqlitePath:      "./database.db",
		RedisAddress:    "localhost:6379",
		CacheTTLMinutes: 15,
		PollIntervalMs:  3000,
		MessageWindow:   100,
		UploadDir:       "./public/uploads",
	}
}

// Load starts from Defaults, applies the JSON file at path if it exists,
// then the environment. A missing env file is fine.
func Load(path string, envFile string) (models.ConfigFile, error) {
	cfg := Defaults()

	bytes, err := os.ReadFile(path)
	if err == nil {
		err = json.Unmarshal(bytes, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}

	err = godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("loading %s: %w", envFile, err)
	}

	err = applyEnv(&cfg)
	if err != nil {
		return cfg, err
	}

	return cfg, Validate(cfg)
}

func applyEnv(cfg *models.ConfigFile) error {
	overrides := map[string]*string{
		"CHATAPP_ADDRESS":        &cfg.Address,
		"CHATAPP_PORT":           &cfg.Port,
		"CHATAPP_LOG_LEVEL":      &cfg.LogLevel,
		"CHATAPP_JWT_SECRET":     &cfg.JwtSecret,
		"CHATAPP_SQLITE_PATH":    &cfg.SqlitePath,
		"CHATAPP_DB_PASSWORD":    &cfg.DbPassword,
		"CHATAPP_REDIS_ADDRESS":  &cfg.RedisAddress,
		"CHATAPP_REDIS_PASSWORD": &cfg.RedisPassword,
		"CHATAPP_UPLOAD_DIR":     &cfg.UploadDir,
		"CHATAPP_ASSISTANT_URL":  &cfg.AssistantURL,
		"CHATAPP_ASSISTANT_KEY":  &cfg.AssistantKey,
	}
	for name, field := range overrides {
		if value, ok := os.LookupEnv(name); ok {
			*field = value
		}
	}

	if value, ok := os.LookupEnv("CHATAPP_SELF_CONTAINED"); ok {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("CHATAPP_SELF_CONTAINED: %w", err)
		}
		cfg.SelfContained = b
	}

	if value, ok := os.LookupEnv("CHATAPP_POLL_INTERVAL_MS"); ok {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("CHATAPP_POLL_INTERVAL_MS: %w", err)
		}
		cfg.PollIntervalMs = n
	}

	return nil
}

func Validate(cfg models.ConfigFile) error {
	var errs []error

	if cfg.PollIntervalMs <= 0 {
		errs = append(errs, errors.New("PollIntervalMs must be positive"))
	}
	if cfg.MessageWindow <= 0 {
		errs = append(errs, errors.New("MessageWindow must be positive"))
	}
	if cfg.CacheTTLMinutes <= 0 {
		errs = append(errs, errors.New("CacheTTLMinutes must be positive"))
	}
	if cfg.JwtSecret == "" {
		errs = append(errs, errors.New("JwtSecret must be set"))
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if !cfg.SelfContained && (cfg.DbAddress == "" || cfg.DbDatabase == "") {
		errs = append(errs, errors.New("DbAddress and DbDatabase are needed unless SelfContained"))
	}

	return errors.Join(errs...)
}
