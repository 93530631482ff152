package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "PHANTOM"

// NewViper returns a viper instance carrying the built-in defaults and
// reading PHANTOM_* environment variables.
func NewViper() *viper.Viper {
	v := viper.New()

	d := Default()
	v.SetDefault("doc_root", d.DocRoot)
	v.SetDefault("port", d.Port)
	v.SetDefault("host", d.Host)
	v.SetDefault("x_powered_by", d.XPoweredBy)
	v.SetDefault("server_name", d.ServerName)
	v.SetDefault("cache_index_file", d.CacheIndexFile)
	v.SetDefault("log_filename", d.LogFilename)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("index_file", d.IndexFile)
	v.SetDefault("home_marker", d.HomeMarker)
	v.SetDefault("compress", d.Compress)
	v.SetDefault("transport", d.Transport)
	v.SetDefault("otlp_endpoint", d.OTLPEndpoint)
	v.SetDefault("shutdown_timeout", d.ShutdownTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v
}

// Load merges the config file (when given, else ./phantom.{yaml,toml,json}
// if present), the environment and bound flags onto the defaults. The
// returned bool reports whether a config file was read.
func Load(v *viper.Viper, file string) (Config, bool, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("phantom")
		v.AddConfigPath(".")
	}

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, false, fmt.Errorf("config: read config file: %w", err)
		}
		found = false
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, found, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Headers = NewHeaders(cfg.XPoweredBy, cfg.ServerName)

	if err := cfg.Validate(); err != nil {
		return Config{}, found, err
	}

	return cfg, found, nil
}
