package csvlab

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// Client certificate paths (mTLS), passed through as libpq parameters.
	SSLCert     string
	SSLKey      string
	SSLRootCert string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID).
	// If all three are provided, Service Principal authentication is used.
	// Otherwise the DefaultAzureCredential chain is used.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion is required for AuthMethodAWSIAM.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name (project:region:instance).
	GoogleInstance string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodCertificate                    // mTLS
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodCertificate:
		return "Certificate"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod maps the csvlab.yaml spelling of an auth method.
// An empty string means standard authentication.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "certificate", "cert", "mtls":
		return AuthMethodCertificate, nil
	case "aws", "aws-iam", "aws_iam":
		return AuthMethodAWSIAM, nil
	case "google", "google-iam", "google_iam", "gcp":
		return AuthMethodGoogleIAM, nil
	case "azure", "azure-entra-id", "azure_entra_id", "entra":
		return AuthMethodAzureEntraID, nil
	}
	return AuthMethodStandard, fmt.Errorf("auth method %q: %w", s, ErrUnsupportedAuthMethod)
}

// SchemaNames names the three schemas the tutorial touches.
type SchemaNames struct {
	// Main holds file_list, user, subject and session.
	Main string
	// Lab receives copies of user and subject rows.
	Lab string
	// Experiment receives copies of session rows.
	Experiment string
}

// DefaultSchemaNames returns the tutorial's schema names.
func DefaultSchemaNames() SchemaNames {
	return SchemaNames{
		Main:       DefaultMainSchema,
		Lab:        DefaultLabSchema,
		Experiment: DefaultExperimentSchema,
	}
}

// PopulateOrder controls the order in which pending keys are processed.
type PopulateOrder int

const (
	OrderOriginal PopulateOrder = iota // ascending by key
	OrderReverse                       // descending by key
	OrderRandom                        // shuffled
)

func (o PopulateOrder) String() string {
	switch o {
	case OrderOriginal:
		return "original"
	case OrderReverse:
		return "reverse"
	case OrderRandom:
		return "random"
	default:
		return fmt.Sprintf("Unknown(%d)", o)
	}
}

// ParsePopulateOrder parses "original", "reverse" or "random". Empty means original.
func ParsePopulateOrder(s string) (PopulateOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "original":
		return OrderOriginal, nil
	case "reverse":
		return OrderReverse, nil
	case "random":
		return OrderRandom, nil
	}
	return OrderOriginal, fmt.Errorf("populate order %q (want original, reverse or random): %w", s, ErrInvalidConfig)
}

// PopulateOptions tunes a populate call.
type PopulateOptions struct {
	Order PopulateOrder

	// MaxCalls caps the number of keys processed; 0 means no limit.
	MaxCalls int

	// SuppressErrors records per-key failures in the result and keeps going
	// instead of stopping at the first failure.
	SuppressErrors bool

	// ReserveJobs claims each key in the jobs table before processing it,
	// so concurrent populate runs skip keys another run is working on.
	ReserveJobs bool

	// RetryErrors clears error records from the jobs table before reserving,
	// so keys that failed in an earlier run are attempted again.
	RetryErrors bool

	// Progress receives per-key progress. Nil means no reporting.
	Progress ProgressReporter
}

// Validate checks option values.
func (o PopulateOptions) Validate() error {
	var errs []error
	if o.MaxCalls < 0 {
		errs = append(errs, fmt.Errorf("max calls cannot be negative: %w", ErrInvalidConfig))
	}
	if o.Order < OrderOriginal || o.Order > OrderRandom {
		errs = append(errs, fmt.Errorf("unknown populate order %d: %w", o.Order, ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// KeyError pairs a key that failed to populate with its error.
type KeyError struct {
	Key string
	Err error
}

func (e KeyError) Error() string { return fmt.Sprintf("%s: %v", e.Key, e.Err) }

func (e KeyError) Unwrap() error { return e.Err }

// PopulateResult summarizes a populate call.
type PopulateResult struct {
	// RunID identifies this populate call in the jobs table.
	RunID uuid.UUID

	// Pending is the number of keys in the key source not yet populated.
	Pending int

	// Populated counts keys whose make call committed.
	Populated int

	// Reserved counts keys skipped because another run holds their reservation.
	Reserved int

	// Skipped counts keys another run populated after this call listed them.
	Skipped int

	// Sessions, Users and Subjects count rows inserted.
	Sessions int64
	Users    int64
	Subjects int64

	// Errors holds per-key failures when errors are suppressed.
	Errors []KeyError
}

// Err folds suppressed per-key errors into a single error wrapping ErrPopulateFailed.
func (r PopulateResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Errors)+1)
	errs = append(errs, fmt.Errorf("%d key(s) failed: %w", len(r.Errors), ErrPopulateFailed))
	for _, e := range r.Errors {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

// InsertOptions mirrors the framework's bulk-insert switches.
type InsertOptions struct {
	// SkipDuplicates silently drops rows whose primary key already exists.
	SkipDuplicates bool

	// IgnoreExtraFields drops source attributes the target table does not have.
	IgnoreExtraFields bool
}

// CopyResult counts rows inserted into the target schemas.
type CopyResult struct {
	Users    int64
	Subjects int64
	Sessions int64
}

// RunConfig contains all parameters needed for a full tutorial run.
type RunConfig struct {
	// SourcePath is the directory scanned for CSV files.
	SourcePath string

	// Connection is the resolved target database connection.
	Connection *ConnectionConfig

	// CreateDatabase creates the target database through ManagementDatabase
	// when it does not exist.
	CreateDatabase     bool
	ManagementDatabase string

	Schemas  SchemaNames
	Populate PopulateOptions

	// SkipDuplicateSessions copies sessions with duplicates skipped.
	// When false a rerun fails on sessions already present in the experiment schema.
	SkipDuplicateSessions bool

	// SkipCopy stops after populate.
	SkipCopy bool

	// DeclareTargets declares the lab and experiment layouts when their
	// schemas do not exist yet. When false the copy step requires them.
	DeclareTargets bool

	// Timeout is the global timeout for the entire run.
	Timeout time.Duration

	Verbose bool
}

// Validate checks if the RunConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *RunConfig) Validate() error {
	var errs []error

	if c.SourcePath == "" {
		errs = append(errs, fmt.Errorf("SourcePath is required: %w", ErrInvalidConfig))
	}
	if c.Connection == nil {
		errs = append(errs, fmt.Errorf("Connection is required: %w", ErrInvalidConfig))
	} else if c.Connection.Database == "" {
		errs = append(errs, fmt.Errorf("database name is required: %w", ErrInvalidConfig))
	}
	if c.Schemas.Main == "" {
		errs = append(errs, fmt.Errorf("main schema name is required: %w", ErrInvalidConfig))
	}
	if !c.SkipCopy {
		if c.Schemas.Lab == "" {
			errs = append(errs, fmt.Errorf("lab schema name is required: %w", ErrInvalidConfig))
		}
		if c.Schemas.Experiment == "" {
			errs = append(errs, fmt.Errorf("experiment schema name is required: %w", ErrInvalidConfig))
		}
		if c.Schemas.Main != "" && (c.Schemas.Main == c.Schemas.Lab || c.Schemas.Main == c.Schemas.Experiment) {
			errs = append(errs, fmt.Errorf("copy targets must differ from the main schema %q: %w", c.Schemas.Main, ErrInvalidConfig))
		}
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}
	if err := c.Populate.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// FileRef is one row of the file_list lookup table.
type FileRef struct {
	// Path is the primary key: the CSV path as discovered.
	Path string

	// Checksum is the SHA-256 of the file content at discovery time.
	Checksum string

	SizeBytes int64
}

// SessionRecord is one parsed CSV row.
type SessionRecord struct {
	UserName      string
	SubjectName   string
	SessionDate   time.Time
	SessionResult int16

	// Line is the 1-based line number in the source file, header included.
	Line int
}
