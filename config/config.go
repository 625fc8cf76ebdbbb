// Package config - file based configuration of the post processing service.
package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/nvr-ai/go-yolo/models/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`
	// MaxBodyBytes caps the size of a request body.
	MaxBodyBytes int64 `json:"maxBodyBytes" yaml:"maxBodyBytes"`
}

// Config is the top level configuration file.
//
// Example:
//
//	logLevel: debug
//	processor:
//	  name: yolov8
//	  confidenceThreshold: 0.3
//	  labelSet: coco
//	  nms:
//	    iouThreshold: 0.5
//	    classAware: true
//	server:
//	  addr: ":8080"
//	  readTimeout: 30s
type Config struct {
	LogLevel  string       `json:"logLevel" yaml:"logLevel"`
	Processor model.Config `json:"processor" yaml:"processor"`
	Server    ServerConfig `json:"server" yaml:"server"`
}

// Defaults used for unset fields.
const (
	DefaultAddr            = ":8080"
	DefaultReadTimeout     = 60 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxBodyBytes    = 64 << 20
	DefaultLogLevel        = "info"
)

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{Processor: model.Config{Name: model.ModelNameYOLOv8}}.WithDefaults()
}

// Load reads and validates a YAML configuration file.
//
// Arguments:
//   - path: The path to the file.
//
// Returns:
//   - The configuration with defaults applied.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	cfg, err := Parse(raw)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes a YAML document. Unknown fields are rejected and an empty
// document yields the defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "decode yaml")
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithDefaults returns a copy of c with every unset field filled in.
func (c Config) WithDefaults() Config {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Processor.Name == "" {
		c.Processor.Name = model.ModelNameYOLOv8
	}
	c.Processor = c.Processor.WithDefaults()

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return c
}

// Validate checks a defaulted configuration.
func (c Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "logLevel")
	}

	known := false
	for _, n := range model.Names {
		if c.Processor.Name == n {
			known = true
			break
		}
	}
	if !known {
		return errors.Errorf("processor: unknown name %q", c.Processor.Name)
	}
	if err := c.Processor.Validate(); err != nil {
		return errors.Wrap(err, "processor")
	}

	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return errors.New("server: timeouts must not be negative")
	}
	if c.Server.MaxBodyBytes < 0 {
		return errors.New("server: maxBodyBytes must not be negative")
	}
	return nil
}

// NewLogger creates the logger used by the service binaries.
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("Invalid log level %q, using %s", c.LogLevel, DefaultLogLevel)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
