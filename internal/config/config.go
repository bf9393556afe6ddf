package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Encoding EncodingConfig `mapstructure:"encoding"`
	Models   ModelsConfig   `mapstructure:"models"`
	LogLevel string         `mapstructure:"log_level"`
}

type EncodingConfig struct {
	// Loader selects how vocabulary data is materialized: "offline" uses
	// assets embedded in the loader module, "download" fetches and caches
	// BPE files.
	Loader string `mapstructure:"loader"`
	// CacheDir overrides the download loader's cache directory.
	CacheDir string `mapstructure:"cache_dir"`
}

type ModelsConfig struct {
	// Aliases maps extra model names to encoding names, overlaying the
	// engine's built-in model table. Config-file only; maps do not bind
	// to flags.
	Aliases map[string]string `mapstructure:"aliases"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Encoding: EncodingConfig{
			Loader:   LoaderOffline,
			CacheDir: "",
		},
		Models: ModelsConfig{
			Aliases: map[string]string{},
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("encoding-loader", defaults.Encoding.Loader, "Vocabulary loader mode (offline|download)")
	fs.String("encoding-cache-dir", defaults.Encoding.CacheDir, "Cache directory for downloaded BPE files")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("TIKBRIDGE")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("encoding.cache_dir", "TIKBRIDGE_CACHE_DIR", "TIKTOKEN_CACHE_DIR"); err != nil {
		return Config{}, fmt.Errorf("bind cache env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("tikbridge")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	loader, err := NormalizeLoader(cfg.Encoding.Loader)
	if err != nil {
		return Config{}, err
	}
	cfg.Encoding.Loader = loader

	return cfg, nil
}

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("encoding.loader", c.Encoding.Loader)
	v.SetDefault("encoding.cache_dir", c.Encoding.CacheDir)
	v.SetDefault("models.aliases", c.Models.Aliases)
	v.SetDefault("log_level", c.LogLevel)
}

// bindFlags binds each registered flag to its nested config key, so flag
// values land in the same tree the config file and environment populate.
// An unchanged flag does not shadow config-file or environment values.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	bindings := map[string]string{
		"encoding.loader":    "encoding-loader",
		"encoding.cache_dir": "encoding-cache-dir",
		"log_level":          "log-level",
	}
	for key, name := range bindings {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}
