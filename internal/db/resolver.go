package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/csvlab/internal/config"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Note: Password is NOT included as a CLI flag for security reasons.
// Use one of these methods instead:
//  1. $PGPASSWORD environment variable
//  2. .pgpass file (PostgreSQL standard)
//  3. Connection string with embedded password
type GranularConnFlags struct {
	Host        string
	Port        int
	Username    string
	Database    string
	SSLMode     string
	SSLCert     string
	SSLKey      string
	SSLRootCert string
}

// IsEmpty returns true if no connection-related granular flags were provided by the user.
// The database flag is excluded because it may override the database of a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == "" &&
		g.SSLCert == "" && g.SSLKey == "" && g.SSLRootCert == ""
}

// AzureFlags selects Azure Entra ID authentication.
// Client secret is NOT a flag; use $AZURE_CLIENT_SECRET.
type AzureFlags struct {
	Enabled  bool
	TenantID string // Overrides AZURE_TENANT_ID
	ClientID string // Overrides AZURE_CLIENT_ID
}

// IsEmpty returns true if no Azure flags were provided.
func (a *AzureFlags) IsEmpty() bool {
	return !a.Enabled && a.TenantID == "" && a.ClientID == ""
}

// AWSFlags selects AWS RDS IAM authentication.
type AWSFlags struct {
	Enabled bool
	Region  string // Overrides AWS_REGION
}

func (a *AWSFlags) IsEmpty() bool { return !a.Enabled && a.Region == "" }

// GoogleFlags selects Google Cloud SQL IAM authentication.
type GoogleFlags struct {
	Enabled  bool
	Instance string // project:region:instance
}

func (g *GoogleFlags) IsEmpty() bool { return !g.Enabled && g.Instance == "" }

// ConnectionFlags bundles every connection-related CLI flag.
type ConnectionFlags struct {
	Connection string
	Granular   GranularConnFlags
	Azure      AzureFlags
	AWS        AWSFlags
	Google     GoogleFlags
}

// EnvVars represents PostgreSQL standard environment variables plus the
// cloud SDK variables csvlab honors.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST        string
	PGPORT        string
	PGUSER        string
	PGPASSWORD    string
	PGDATABASE    string
	PGSSLMODE     string
	PGSSLCERT     string
	PGSSLKEY      string
	PGSSLROOTCERT string

	CSVLAB_CONNECTION_STRING string
	DATABASE_URL             string // Heroku/Rails convention

	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string

	AWS_REGION         string
	AWS_DEFAULT_REGION string
}

// LoadFromEnvironment loads PostgreSQL and cloud provider environment variables.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:                   os.Getenv("PGHOST"),
		PGPORT:                   os.Getenv("PGPORT"),
		PGUSER:                   os.Getenv("PGUSER"),
		PGPASSWORD:               os.Getenv("PGPASSWORD"),
		PGDATABASE:               os.Getenv("PGDATABASE"),
		PGSSLMODE:                os.Getenv("PGSSLMODE"),
		PGSSLCERT:                os.Getenv("PGSSLCERT"),
		PGSSLKEY:                 os.Getenv("PGSSLKEY"),
		PGSSLROOTCERT:            os.Getenv("PGSSLROOTCERT"),
		CSVLAB_CONNECTION_STRING: os.Getenv("CSVLAB_CONNECTION_STRING"),
		DATABASE_URL:             os.Getenv("DATABASE_URL"),
		AZURE_TENANT_ID:          os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:          os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET:      os.Getenv("AZURE_CLIENT_SECRET"),
		AWS_REGION:               os.Getenv("AWS_REGION"),
		AWS_DEFAULT_REGION:       os.Getenv("AWS_DEFAULT_REGION"),
	}
}

// connectionStringFromEnv returns the first non-empty connection string variable.
func (e *EnvVars) connectionStringFromEnv() string {
	if e.CSVLAB_CONNECTION_STRING != "" {
		return e.CSVLAB_CONNECTION_STRING
	}
	return e.DATABASE_URL
}

// ResolveConnectionParams resolves connection parameters using PostgreSQL-standard precedence:
//
//  1. Connection string flag (--connection)
//  2. $CSVLAB_CONNECTION_STRING or $DATABASE_URL, when no granular flags are given
//  3. Per parameter: granular flag > PG* environment variable > csvlab.yaml > default
//
// A -d/--database flag overrides the database of a connection string.
//
// The authentication method comes from the cloud flags (--aws, --azure, --google
// and their parameters), then from auth_method in csvlab.yaml. A client
// certificate without any of those selects certificate authentication.
//
// Returns an error wrapping csvlab.ErrInvalidConfig when --connection is combined
// with granular flags, when several cloud providers are selected, or when a
// value cannot be parsed.
func ResolveConnectionParams(
	flags *ConnectionFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*csvlab.ConnectionConfig, error) {
	if flags == nil {
		flags = &ConnectionFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}

	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	granular := &flags.Granular
	if flags.Connection != "" && !granular.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U, --ssl*)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/postgres\"\n"+
				"  2. Granular flags: -h localhost -p 5432 -U myuser -d mydb\n"+
				"  3. Environment variables: export PGHOST=localhost PGPORT=5432 PGUSER=myuser: %w",
			csvlab.ErrInvalidConfig,
		)
	}

	var cfg *csvlab.ConnectionConfig
	var err error

	switch {
	case flags.Connection != "":
		cfg, err = resolveFromConnectionString(flags.Connection, envVars)
	case granular.IsEmpty() && envVars.connectionStringFromEnv() != "":
		cfg, err = resolveFromConnectionString(envVars.connectionStringFromEnv(), envVars)
	default:
		cfg, err = resolveFromGranularParams(granular, envVars, pc)
	}
	if err != nil {
		return nil, err
	}

	if granular.Database != "" {
		cfg.Database = granular.Database
	}

	if err := applyAuthMethod(cfg, flags, envVars, pc); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ManagementConfig returns a copy of cfg pointed at the management database,
// used to create the target database when it does not exist yet.
func ManagementConfig(cfg *csvlab.ConnectionConfig, projectConfig *config.ProjectConfig) *csvlab.ConnectionConfig {
	mgmt := *cfg
	mgmt.Database = csvlab.DefaultManagementDB
	if projectConfig != nil && projectConfig.Connection.ManagementDatabase != "" {
		mgmt.Database = projectConfig.Connection.ManagementDatabase
	}
	return &mgmt
}

// applyAuthMethod picks the authentication method and attaches its parameters.
func applyAuthMethod(cfg *csvlab.ConnectionConfig, flags *ConnectionFlags, env *EnvVars, pc config.ConnectionConfig) error {
	selected := 0
	for _, empty := range []bool{flags.Azure.IsEmpty(), flags.AWS.IsEmpty(), flags.Google.IsEmpty()} {
		if !empty {
			selected++
		}
	}
	if selected > 1 {
		return fmt.Errorf("choose only one of --aws, --azure and --google: %w", csvlab.ErrInvalidConfig)
	}

	switch {
	case !flags.Azure.IsEmpty():
		cfg.AuthMethod = csvlab.AuthMethodAzureEntraID
	case !flags.AWS.IsEmpty():
		cfg.AuthMethod = csvlab.AuthMethodAWSIAM
	case !flags.Google.IsEmpty():
		cfg.AuthMethod = csvlab.AuthMethodGoogleIAM
	case pc.AuthMethod != "":
		method, err := csvlab.ParseAuthMethod(pc.AuthMethod)
		if err != nil {
			return fmt.Errorf("%s connection.auth_method: %w", csvlab.ConfigFileName, err)
		}
		cfg.AuthMethod = method
	case cfg.SSLCert != "":
		cfg.AuthMethod = csvlab.AuthMethodCertificate
	default:
		cfg.AuthMethod = csvlab.AuthMethodStandard
	}

	switch cfg.AuthMethod {
	case csvlab.AuthMethodAzureEntraID:
		cfg.AzureTenantID = firstNonEmpty(flags.Azure.TenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
		cfg.AzureClientID = firstNonEmpty(flags.Azure.ClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	case csvlab.AuthMethodAWSIAM:
		cfg.AWSRegion = firstNonEmpty(flags.AWS.Region, env.AWS_REGION, env.AWS_DEFAULT_REGION, pc.AWSRegion)
		if cfg.AWSRegion == "" {
			return fmt.Errorf("AWS IAM auth requires a region (--aws-region or $AWS_REGION): %w", csvlab.ErrInvalidConfig)
		}
	case csvlab.AuthMethodGoogleIAM:
		cfg.GoogleInstance = firstNonEmpty(flags.Google.Instance, pc.GoogleInstance)
		if cfg.GoogleInstance == "" {
			return fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", csvlab.ErrInvalidConfig)
		}
	case csvlab.AuthMethodCertificate:
		if cfg.SSLCert == "" || cfg.SSLKey == "" {
			return fmt.Errorf("certificate auth requires both --sslcert and --sslkey: %w", csvlab.ErrInvalidConfig)
		}
	}
	return nil
}

// resolveFromConnectionString parses a connection string. Environment
// variables fill the certificate paths and password the string leaves out.
func resolveFromConnectionString(connStr string, envVars *EnvVars) (*csvlab.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}

	cfg.SSLCert = firstNonEmpty(cfg.SSLCert, envVars.PGSSLCERT)
	cfg.SSLKey = firstNonEmpty(cfg.SSLKey, envVars.PGSSLKEY)
	cfg.SSLRootCert = firstNonEmpty(cfg.SSLRootCert, envVars.PGSSLROOTCERT)
	if cfg.Password == "" {
		cfg.Password = envVars.PGPASSWORD
	}
	return cfg, nil
}

// resolveFromGranularParams builds a ConnectionConfig parameter by parameter:
// CLI flag, then environment variable, then csvlab.yaml, then default.
func resolveFromGranularParams(
	flags *GranularConnFlags,
	envVars *EnvVars,
	pc config.ConnectionConfig,
) (*csvlab.ConnectionConfig, error) {
	cfg := &csvlab.ConnectionConfig{
		AuthMethod:       csvlab.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	cfg.Host = firstNonEmpty(flags.Host, envVars.PGHOST, pc.Host, "localhost")

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer: %w", envVars.PGPORT, csvlab.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = 5432
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port %d out of range: %w", cfg.Port, csvlab.ErrInvalidConfig)
	}

	cfg.Username = firstNonEmpty(flags.Username, envVars.PGUSER, pc.Username, os.Getenv("USER"), os.Getenv("USERNAME"))
	cfg.Password = envVars.PGPASSWORD
	cfg.Database = firstNonEmpty(flags.Database, envVars.PGDATABASE, pc.Database, csvlab.DefaultManagementDB)
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, envVars.PGSSLMODE, pc.SSLMode, "prefer")
	cfg.SSLCert = firstNonEmpty(flags.SSLCert, envVars.PGSSLCERT, pc.SSLCert)
	cfg.SSLKey = firstNonEmpty(flags.SSLKey, envVars.PGSSLKEY, pc.SSLKey)
	cfg.SSLRootCert = firstNonEmpty(flags.SSLRootCert, envVars.PGSSLROOTCERT, pc.SSLRootCert)

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
