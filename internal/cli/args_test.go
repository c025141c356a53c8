package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

func TestRequireSourceDir(t *testing.T) {
	cmd := &cobra.Command{Use: "run <source_dir>"}

	t.Run("returns error when no args", func(t *testing.T) {
		err := RequireSourceDir(cmd, []string{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing required argument: <source_dir>")
		assert.Contains(t, err.Error(), "Example:")
		assert.Equal(t, csvlab.ExitUsageError, csvlab.ExitCodeForError(err))
	})

	t.Run("returns nil when arg provided", func(t *testing.T) {
		assert.NoError(t, RequireSourceDir(cmd, []string{"./data"}))
	})

	t.Run("returns error when too many args", func(t *testing.T) {
		err := RequireSourceDir(cmd, []string{"a", "b"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "accepts 1 arg")
		assert.Equal(t, csvlab.ExitUsageError, csvlab.ExitCodeForError(err))
	})
}
