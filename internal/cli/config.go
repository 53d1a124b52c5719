package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	envPrefix      = "TEXTRES"
	configFileName = ".textres"
)

// Config is the resolved CLI configuration. Precedence: flags, TEXTRES_*
// environment variables, config file, defaults.
type Config struct {
	Manifest    string        `mapstructure:"manifest"`
	BaseDir     string        `mapstructure:"base_dir"`
	Charset     string        `mapstructure:"charset"`
	LogLevel    string        `mapstructure:"log_level"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Manifest:    "textres.yaml",
		Charset:     "UTF-8",
		LogLevel:    "warn",
		HTTPTimeout: 30 * time.Second,
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()
	v.SetDefault("manifest", d.Manifest)
	v.SetDefault("base_dir", d.BaseDir)
	v.SetDefault("charset", d.Charset)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("http_timeout", d.HTTPTimeout)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig reads the config file (explicit path or ./.textres.*) and
// unmarshals the merged settings.
func loadConfig(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &nf) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// newLogger builds a console logger on stderr at the configured level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.DisableStacktrace = true
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}
