package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr         = "0.0.0.0"
	LocalAddr           = "127.0.0.1"
	DefaultPort         = 3000
	DefaultWorkers      = 4
	DefaultMirrorTable  = "collated"
	DefaultMaxBodyBytes = 10 << 20
)

// Config holds the collator service configuration
type Config struct {
	ConfigFile   string
	Addr         string
	Local        bool // Bind to LocalAddr regardless of Addr
	Port         int
	InputFile    string // Seed file; also the output location
	MirrorURL    string
	MirrorTable  string
	Workers      int
	RateLimit    float64 // Submissions per second, 0 disables the limit
	MaxBodyBytes int64
	Debug        bool
	Verbose      bool
}

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		Addr:         DefaultAddr,
		Port:         DefaultPort,
		Workers:      DefaultWorkers,
		MirrorTable:  DefaultMirrorTable,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// fileConfig mirrors the YAML keys; nil fields were absent from the file.
type fileConfig struct {
	Addr         *string  `yaml:"addr"`
	Local        *bool    `yaml:"local"`
	Port         *int     `yaml:"port"`
	InputFile    *string  `yaml:"input"`
	MirrorURL    *string  `yaml:"mirror-db"`
	MirrorTable  *string  `yaml:"mirror-table"`
	Workers      *int     `yaml:"workers"`
	RateLimit    *float64 `yaml:"rate-limit"`
	MaxBodyBytes *int64   `yaml:"max-body"`
	Debug        *bool    `yaml:"debug"`
	Verbose      *bool    `yaml:"verbose"`
}

// LoadConfig reads a YAML configuration file and applies the keys it sets to
// cfg. Keys named in skip are left alone so that explicit command-line flags
// win over the file.
func LoadConfig(cfg *Config, filename string, skip ...string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	defer file.Close()

	var fc fileConfig
	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("error reading config file: %w", err)
	}

	skipped := make(map[string]bool, len(skip))
	for _, name := range skip {
		skipped[name] = true
	}
	set := func(name string, apply func()) {
		if !skipped[name] {
			apply()
		}
	}

	if fc.Addr != nil {
		set("addr", func() { cfg.Addr = *fc.Addr })
	}
	if fc.Local != nil {
		set("local", func() { cfg.Local = *fc.Local })
	}
	if fc.Port != nil {
		set("port", func() { cfg.Port = *fc.Port })
	}
	if fc.InputFile != nil {
		set("input", func() { cfg.InputFile = *fc.InputFile })
	}
	if fc.MirrorURL != nil {
		set("mirror-db", func() { cfg.MirrorURL = *fc.MirrorURL })
	}
	if fc.MirrorTable != nil {
		set("mirror-table", func() { cfg.MirrorTable = *fc.MirrorTable })
	}
	if fc.Workers != nil {
		set("workers", func() { cfg.Workers = *fc.Workers })
	}
	if fc.RateLimit != nil {
		set("rate-limit", func() { cfg.RateLimit = *fc.RateLimit })
	}
	if fc.MaxBodyBytes != nil {
		set("max-body", func() { cfg.MaxBodyBytes = *fc.MaxBodyBytes })
	}
	if fc.Debug != nil {
		set("debug", func() { cfg.Debug = *fc.Debug })
	}
	if fc.Verbose != nil {
		set("verbose", func() { cfg.Verbose = *fc.Verbose })
	}
	return nil
}

// Validate checks that the configuration can be served.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative, got %g", c.RateLimit)
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("max body size must not be negative, got %d", c.MaxBodyBytes)
	}
	if c.MirrorURL != "" && c.MirrorTable == "" {
		return fmt.Errorf("mirror table name is required with a mirror database")
	}
	return nil
}

// ListenAddr returns the host:port the server binds to.
func (c *Config) ListenAddr() string {
	host := c.Addr
	if c.Local {
		host = LocalAddr
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Port))
}
