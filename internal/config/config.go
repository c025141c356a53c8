package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Username           string `yaml:"username"`
	Database           string `yaml:"database"`
	ManagementDatabase string `yaml:"management_database,omitempty"`
	SSLMode            string `yaml:"sslmode"`
	SSLCert            string `yaml:"sslcert,omitempty"`
	SSLKey             string `yaml:"sslkey,omitempty"`
	SSLRootCert        string `yaml:"sslrootcert,omitempty"`
	AuthMethod         string `yaml:"auth_method,omitempty"`
	AzureTenantID      string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID      string `yaml:"azure_client_id,omitempty"`
	AWSRegion          string `yaml:"aws_region,omitempty"`
	GoogleInstance     string `yaml:"google_instance,omitempty"`
}

// SchemaConfig overrides the schema names. Empty fields keep the defaults.
type SchemaConfig struct {
	Main       string `yaml:"main,omitempty"`
	Lab        string `yaml:"lab,omitempty"`
	Experiment string `yaml:"experiment,omitempty"`
}

type PopulateConfig struct {
	Order          string `yaml:"order,omitempty"`
	MaxCalls       int    `yaml:"max_calls,omitempty"`
	SuppressErrors bool   `yaml:"suppress_errors,omitempty"`
	ReserveJobs    bool   `yaml:"reserve_jobs,omitempty"`
}

type ProjectConfig struct {
	Connection            ConnectionConfig `yaml:"connection"`
	Schemas               SchemaConfig     `yaml:"schemas"`
	Populate              PopulateConfig   `yaml:"populate"`
	SkipDuplicateSessions bool             `yaml:"skip_duplicate_sessions,omitempty"`
	Timeout               string           `yaml:"timeout"`
}

// Load reads csvlab.yaml from sourcePath. Unknown keys are rejected so a
// misspelled setting does not silently fall back to its default.
func Load(sourcePath string) (*ProjectConfig, error) {
	configPath := filepath.Join(sourcePath, csvlab.ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes csvlab.yaml content and validates it.
func Parse(data []byte) (*ProjectConfig, error) {
	var cfg ProjectConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %v: %w", csvlab.ConfigFileName, err, csvlab.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that YAML decoding alone cannot.
func (c *ProjectConfig) Validate() error {
	var errs []error
	if _, err := c.TimeoutDuration(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.PopulateOptions(); err != nil {
		errs = append(errs, err)
	}
	if _, err := csvlab.ParseAuthMethod(c.Connection.AuthMethod); err != nil {
		errs = append(errs, err)
	}
	if c.Connection.Port < 0 || c.Connection.Port > 65535 {
		errs = append(errs, fmt.Errorf("connection.port %d out of range: %w", c.Connection.Port, csvlab.ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// SchemaNames overlays the configured schema names on defaults.
func (c *ProjectConfig) SchemaNames(defaults csvlab.SchemaNames) csvlab.SchemaNames {
	if c == nil {
		return defaults
	}
	if c.Schemas.Main != "" {
		defaults.Main = c.Schemas.Main
	}
	if c.Schemas.Lab != "" {
		defaults.Lab = c.Schemas.Lab
	}
	if c.Schemas.Experiment != "" {
		defaults.Experiment = c.Schemas.Experiment
	}
	return defaults
}

// PopulateOptions converts the populate section.
func (c *ProjectConfig) PopulateOptions() (csvlab.PopulateOptions, error) {
	if c == nil {
		return csvlab.PopulateOptions{}, nil
	}
	order, err := csvlab.ParsePopulateOrder(c.Populate.Order)
	if err != nil {
		return csvlab.PopulateOptions{}, err
	}
	opts := csvlab.PopulateOptions{
		Order:          order,
		MaxCalls:       c.Populate.MaxCalls,
		SuppressErrors: c.Populate.SuppressErrors,
		ReserveJobs:    c.Populate.ReserveJobs,
	}
	return opts, opts.Validate()
}

// TimeoutDuration parses the timeout setting. Zero means not set.
func (c *ProjectConfig) TimeoutDuration() (time.Duration, error) {
	if c == nil || c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("timeout %q: %v: %w", c.Timeout, err, csvlab.ErrInvalidConfig)
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout %q cannot be negative: %w", c.Timeout, csvlab.ErrInvalidConfig)
	}
	return d, nil
}
