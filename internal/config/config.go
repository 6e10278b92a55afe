// Package config loads runtime settings.
//
// Precedence, lowest first: built-in defaults, the YAML file, MINTGATE_*
// environment variables, then command-line flags (applied by the CLI).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/mintgate/internal/admission"
	"github.com/roach88/mintgate/internal/host"
	"github.com/roach88/mintgate/internal/query"
	"github.com/roach88/mintgate/internal/reply"
)

// Config holds mintgate runtime configuration.
type Config struct {
	DB         string `env:"MINTGATE_DB"          yaml:"db"`
	ChainID    string `env:"MINTGATE_CHAIN_ID"    yaml:"chain_id"`
	AddrPrefix string `env:"MINTGATE_ADDR_PREFIX" yaml:"addr_prefix"`
	MaxDepth   int    `env:"MINTGATE_MAX_DEPTH"   yaml:"max_depth"`
	LogLevel   string `env:"MINTGATE_LOG_LEVEL"   yaml:"log_level"`

	// DomainAddr is the gRPC domain service. Empty means the in-process
	// service over Fixtures.
	DomainAddr    string        `env:"MINTGATE_DOMAIN_ADDR"    yaml:"domain_addr"`
	DomainTimeout time.Duration `env:"MINTGATE_DOMAIN_TIMEOUT" yaml:"domain_timeout"`
	Fixtures      string        `env:"MINTGATE_FIXTURES"       yaml:"fixtures"`
	ListenAddr    string        `env:"MINTGATE_LISTEN_ADDR"    yaml:"listen_addr"`
	QueryShape    string        `env:"MINTGATE_QUERY_SHAPE"    yaml:"query_shape"`

	ResolvedPolicy string       `env:"MINTGATE_RESOLVED_POLICY" yaml:"resolved_policy"`
	Policy         PolicyConfig `envPrefix:"MINTGATE_POLICY_"   yaml:"policy"`
}

// PolicyConfig is the default admission policy for POAP components whose
// instantiate message carries none.
type PolicyConfig struct {
	OnAlreadyEnabled string `env:"ON_ALREADY_ENABLED" yaml:"on_already_enabled"`
	Reversible       bool   `env:"REVERSIBLE"         yaml:"reversible"`
	MintToQuota      string `env:"MINT_TO_QUOTA"      yaml:"mint_to_quota"`
}

// Default returns the built-in configuration.
func Default() Config {
	p := admission.DefaultPolicy()
	return Config{
		DB:             ":memory:",
		ChainID:        host.DefaultChainID,
		AddrPrefix:     "contract",
		MaxDepth:       host.DefaultMaxDepth,
		LogLevel:       "info",
		DomainTimeout:  5 * time.Second,
		ListenAddr:     "127.0.0.1:9090",
		QueryShape:     string(query.ShapeAuto),
		ResolvedPolicy: string(reply.PolicyReject),
		Policy: PolicyConfig{
			OnAlreadyEnabled: string(p.OnAlreadyEnabled),
			Reversible:       p.Reversible,
			MintToQuota:      string(p.MintToQuota),
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	// Unset variables leave the field untouched, so file values survive.
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks every enumerated setting.
func (c Config) Validate() error {
	var errs []error
	if c.DB == "" {
		errs = append(errs, errors.New("db must not be empty"))
	}
	if c.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Shape(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Resolved(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.AdmissionPolicy(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// Shape parses QueryShape.
func (c Config) Shape() (query.Shape, error) {
	return query.ParseShape(c.QueryShape)
}

// Resolved parses ResolvedPolicy.
func (c Config) Resolved() (reply.ResolvedPolicy, error) {
	return reply.ParseResolvedPolicy(c.ResolvedPolicy)
}

// AdmissionPolicy returns the normalized default admission policy.
func (c Config) AdmissionPolicy() (admission.Policy, error) {
	return admission.Policy{
		OnAlreadyEnabled: admission.EnablePolicy(c.Policy.OnAlreadyEnabled),
		Reversible:       c.Policy.Reversible,
		MintToQuota:      admission.QuotaPolicy(c.Policy.MintToQuota),
	}.Normalize()
}
