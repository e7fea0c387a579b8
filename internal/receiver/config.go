package receiver

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
)

// EnvPrefix prefixes every environment variable the receiver reads, e.g.
// SPANRECEIVER_PORT.
const EnvPrefix = "SPANRECEIVER_"

// Config represents the receiver settings.
type Config struct {
	Port        string        `mapstructure:"port"`
	DSN         string        `mapstructure:"dsn"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	MaxBodySize int64         `mapstructure:"max_body_size"`
	Migrate     bool          `mapstructure:"migrate"`
}

func defaultConfig() Config {
	return Config{
		Port:        "4318",
		ReadTimeout: 10 * time.Second,
		MaxBodySize: 8 << 20,
	}
}

// LoadConfig reads the configuration from the environment. Variables in
// envFile, when it exists, are loaded first without overriding ones that
// are already set.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	values := make(map[string]string)

	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}

		values[strings.ToLower(strings.TrimPrefix(key, EnvPrefix))] = value
	}

	return decodeConfig(values)
}

func decodeConfig(values map[string]string) (*Config, error) {
	cfg := defaultConfig()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(values); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the receiver configuration is valid.
func (cfg *Config) Validate() error {
	_, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return fmt.Errorf("failed to parse port : %w", err)
	}

	if cfg.DSN == "" {
		return errors.New("dsn must be set")
	}

	if cfg.MaxBodySize < 1 {
		return errors.New("max_body_size must be greater or equal to 1")
	}

	return nil
}
