package tui

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vvka-141/csvlab/internal/config"
	"github.com/vvka-141/csvlab/internal/tui/components"
)

var sslModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

func validatePort(s string) error {
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}

func validateSSLMode(s string) error {
	if !slices.Contains(sslModes, s) {
		return fmt.Errorf("sslmode must be one of %v", sslModes)
	}
	return nil
}

func validateTimeout(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fmt.Errorf("timeout must be a duration such as 5m or 90s")
	}
	return nil
}

func portValue(p int) string {
	if p == 0 {
		return ""
	}
	return strconv.Itoa(p)
}

// newConfigForm prefills the fields from cfg.
func newConfigForm(cfg *config.ProjectConfig) components.Form {
	c := cfg.Connection
	return components.NewForm("csvlab.yaml",
		components.NewTextField("host", "Host", "localhost").WithValue(c.Host),
		components.NewTextField("port", "Port", "5432").WithValue(portValue(c.Port)).WithValidator(validatePort),
		components.NewTextField("username", "Username", "postgres").WithValue(c.Username),
		components.NewTextField("database", "Database", "tutorial").WithValue(c.Database).WithRequired(),
		components.NewTextField("sslmode", "SSL mode", "prefer").WithValue(c.SSLMode).WithValidator(validateSSLMode),
		components.NewTextField("schemas.main", "Main schema", "tutorial").WithValue(cfg.Schemas.Main),
		components.NewTextField("schemas.lab", "Lab schema", "lab").WithValue(cfg.Schemas.Lab),
		components.NewTextField("schemas.experiment", "Experiment schema", "experiment").WithValue(cfg.Schemas.Experiment),
		components.NewTextField("timeout", "Timeout", "5m").WithValue(cfg.Timeout).WithValidator(validateTimeout),
	)
}

// applyConfigValues copies form values onto a copy of base and validates
// the result. Empty values clear the setting so the default applies.
func applyConfigValues(base *config.ProjectConfig, values map[string]string) (*config.ProjectConfig, error) {
	cfg := *base
	cfg.Connection.Host = values["host"]
	cfg.Connection.Port = 0
	if v := values["port"]; v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("port %q: %w", v, err)
		}
		cfg.Connection.Port = port
	}
	cfg.Connection.Username = values["username"]
	cfg.Connection.Database = values["database"]
	cfg.Connection.SSLMode = values["sslmode"]
	cfg.Schemas = config.SchemaConfig{
		Main:       values["schemas.main"],
		Lab:        values["schemas.lab"],
		Experiment: values["schemas.experiment"],
	}
	cfg.Timeout = values["timeout"]
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RunConfigForm edits existing in an interactive form. It returns nil
// without error when the user cancels. existing may be nil.
func RunConfigForm(existing *config.ProjectConfig) (*config.ProjectConfig, error) {
	if existing == nil {
		existing = &config.ProjectConfig{}
	}
	final, err := tea.NewProgram(newConfigForm(existing)).Run()
	if err != nil {
		return nil, fmt.Errorf("config form: %w", err)
	}
	form := final.(components.Form)
	if !form.Submitted() {
		return nil, nil
	}
	return applyConfigValues(existing, form.Values())
}
