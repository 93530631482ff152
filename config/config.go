package config

import (
	"errors"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"time"

	"github.com/freekieb7/phantom/http"
)

const (
	TransportNative = "native"
	TransportStdlib = "stdlib"
)

var (
	ErrInvalidPort      = errors.New("config: port must be between 1 and 65535")
	ErrEmptyDocRoot     = errors.New("config: doc_root must not be empty")
	ErrUnknownTransport = errors.New("config: unknown transport")
)

// Config is built once at startup and read-only afterwards.
type Config struct {
	DocRoot        string `mapstructure:"doc_root" yaml:"doc_root"`
	Port           int    `mapstructure:"port" yaml:"port"`
	Host           string `mapstructure:"host" yaml:"host"`
	XPoweredBy     string `mapstructure:"x_powered_by" yaml:"x_powered_by"`
	ServerName     string `mapstructure:"server_name" yaml:"server_name"`
	CacheIndexFile bool   `mapstructure:"cache_index_file" yaml:"cache_index_file"`
	LogFilename    string `mapstructure:"log_filename" yaml:"log_filename"`
	LogLevel       string `mapstructure:"log_level" yaml:"log_level"`

	// IndexFile is served for the home resource, HomeMarker is the path
	// suffix that identifies it.
	IndexFile  string `mapstructure:"index_file" yaml:"index_file"`
	HomeMarker string `mapstructure:"home_marker" yaml:"home_marker"`

	Compress        bool          `mapstructure:"compress" yaml:"compress"`
	Transport       string        `mapstructure:"transport" yaml:"transport"`
	OTLPEndpoint    string        `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	Headers Headers `mapstructure:"-" yaml:"-"`
}

// Headers are the default response header sets per content category.
// Callers clone a set before modifying it.
type Headers struct {
	Default http.Header
	CSS     http.Header
	JS      http.Header
	PNG     http.Header
	JPG     http.Header
	GIF     http.Header
}

func Default() Config {
	cfg := Config{
		DocRoot:         "/var/www/public/",
		Port:            8008,
		XPoweredBy:      "Phantom API, Ltd.",
		ServerName:      "phantom-api Go/" + runtime.Version(),
		LogFilename:     "/var/www/log/phantom_api.log",
		LogLevel:        "info",
		IndexFile:       "index.html",
		HomeMarker:      "/public/",
		Transport:       TransportNative,
		ShutdownTimeout: 5 * time.Second,
	}
	cfg.Headers = NewHeaders(cfg.XPoweredBy, cfg.ServerName)
	return cfg
}

func NewHeaders(poweredBy, serverName string) Headers {
	withType := func(contentType string) http.Header {
		return http.NewHeader("X-Powered-By", poweredBy, "Server", serverName, "Content-Type", contentType)
	}

	return Headers{
		Default: http.NewHeader("X-Powered-By", poweredBy, "Server", serverName),
		CSS:     withType("text/css"),
		JS:      withType("text/javascript"),
		PNG:     withType("image/png"),
		JPG:     withType("image/jpeg"),
		GIF:     withType("image/gif"),
	}
}

// Addr is the listen address. Without a host the server accepts on any interface.
func (cfg Config) Addr() string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}

func (cfg Config) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, cfg.Port)
	}
	if cfg.DocRoot == "" {
		return ErrEmptyDocRoot
	}
	if cfg.Transport != TransportNative && cfg.Transport != TransportStdlib {
		return fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Transport)
	}
	return nil
}
