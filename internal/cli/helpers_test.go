package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// clearConnectionEnv isolates a test from the caller's PG*, cloud and .env settings.
func clearConnectionEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PGHOST", "PGPORT", "PGUSER", "PGPASSWORD", "PGDATABASE",
		"PGSSLMODE", "PGSSLCERT", "PGSSLKEY", "PGSSLROOTCERT",
		"CSVLAB_CONNECTION_STRING", "DATABASE_URL",
		"AZURE_TENANT_ID", "AZURE_CLIENT_ID", "AZURE_CLIENT_SECRET",
		"AWS_REGION", "AWS_DEFAULT_REGION",
	} {
		t.Setenv(name, "")
	}
}

func writeProjectConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, csvlab.ConfigFileName), []byte(content), 0o644))
}

// parseFlags parses args into cmd's flags so Changed reports them.
func parseFlags(t *testing.T, cmd *cobra.Command, args ...string) {
	t.Helper()
	require.NoError(t, cmd.ParseFlags(args))
}
