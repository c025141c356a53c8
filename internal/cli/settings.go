package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/csvlab/internal/config"
	"github.com/vvka-141/csvlab/internal/db"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// loadProjectConfig loads godotenv and project configuration.
// Returns nil config if csvlab.yaml does not exist (not an error).
func loadProjectConfig(sourcePath string) (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	projectCfg, err := config.Load(sourcePath)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w", csvlab.ConfigFileName, err)
	}
	return projectCfg, nil
}

// resolveEffectiveTimeout returns the effective timeout, preferring csvlab.yaml if flag wasn't set.
func resolveEffectiveTimeout(cmd *cobra.Command, projectCfg *config.ProjectConfig, flagTimeout time.Duration) (time.Duration, error) {
	if cmd.Flags().Changed("timeout") {
		return flagTimeout, nil
	}
	fromFile, err := projectCfg.TimeoutDuration()
	if err != nil {
		return 0, err
	}
	if fromFile > 0 {
		return fromFile, nil
	}
	return flagTimeout, nil
}

// buildRunConfig assembles a RunConfig from flags, environment and csvlab.yaml.
// Command-specific switches (populate flags, copy behavior) are applied by the caller.
func buildRunConfig(cmd *cobra.Command, sourcePath string, conn *connectionFlags, schemas *schemaFlags, verbose bool) (csvlab.RunConfig, error) {
	projectCfg, err := loadProjectConfig(sourcePath)
	if err != nil {
		return csvlab.RunConfig{}, err
	}

	connConfig, err := db.ResolveConnectionParams(conn.resolverFlags(), db.LoadFromEnvironment(), projectCfg)
	if err != nil {
		return csvlab.RunConfig{}, err
	}

	timeout, err := resolveEffectiveTimeout(cmd, projectCfg, conn.timeout)
	if err != nil {
		return csvlab.RunConfig{}, err
	}

	populate, err := projectCfg.PopulateOptions()
	if err != nil {
		return csvlab.RunConfig{}, err
	}

	cfg := csvlab.RunConfig{
		SourcePath:         sourcePath,
		Connection:         connConfig,
		ManagementDatabase: db.ManagementConfig(connConfig, projectCfg).Database,
		Schemas:            csvlab.DefaultSchemaNames(),
		Populate:           populate,
		DeclareTargets:     true,
		Timeout:            timeout,
		Verbose:            verbose,
	}
	if projectCfg != nil {
		cfg.SkipDuplicateSessions = projectCfg.SkipDuplicateSessions
	}
	if schemas != nil {
		cfg.Schemas = schemas.resolve(projectCfg)
		cfg.CreateDatabase = schemas.createDatabase
	}

	if verbose {
		logConnectionVerbose(connConfig, cfg.ManagementDatabase, cfg.CreateDatabase)
	}
	return cfg, nil
}

// logConnectionVerbose logs connection details when verbose mode is enabled.
func logConnectionVerbose(connConfig *csvlab.ConnectionConfig, managementDB string, includeManagementDB bool) {
	fmt.Fprintf(os.Stderr, "[VERBOSE] Connection resolved:\n")
	fmt.Fprintf(os.Stderr, "  Host: %s\n", connConfig.Host)
	fmt.Fprintf(os.Stderr, "  Port: %d\n", connConfig.Port)
	fmt.Fprintf(os.Stderr, "  User: %s\n", connConfig.Username)
	fmt.Fprintf(os.Stderr, "  Target Database: %s\n", connConfig.Database)
	if includeManagementDB {
		fmt.Fprintf(os.Stderr, "  Management Database: %s\n", managementDB)
	}
	fmt.Fprintf(os.Stderr, "  SSL Mode: %s\n", connConfig.SSLMode)
	if connConfig.SSLCert != "" {
		fmt.Fprintf(os.Stderr, "  SSL Cert: %s\n", connConfig.SSLCert)
	}
	if connConfig.SSLRootCert != "" {
		fmt.Fprintf(os.Stderr, "  SSL Root Cert: %s\n", connConfig.SSLRootCert)
	}
	fmt.Fprintf(os.Stderr, "  Auth Method: %s\n", connConfig.AuthMethod)
}

// saveProjectConfig writes cfg to csvlab.yaml in sourcePath.
func saveProjectConfig(sourcePath string, cfg *config.ProjectConfig) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to serialize config: %w", err)
	}
	path := filepath.Join(sourcePath, csvlab.ConfigFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}
