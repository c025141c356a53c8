package csvlab_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/csvlab/pkg/csvlab"
)

func validRunConfig() csvlab.RunConfig {
	return csvlab.RunConfig{
		SourcePath: "./data",
		Connection: &csvlab.ConnectionConfig{Host: "localhost", Port: 5432, Database: "lab"},
		Schemas:    csvlab.DefaultSchemaNames(),
		Timeout:    time.Minute,
	}
}

func TestRunConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*csvlab.RunConfig)
		wantErr bool
	}{
		{"valid", func(*csvlab.RunConfig) {}, false},
		{"missing source", func(c *csvlab.RunConfig) { c.SourcePath = "" }, true},
		{"missing connection", func(c *csvlab.RunConfig) { c.Connection = nil }, true},
		{"missing database", func(c *csvlab.RunConfig) { c.Connection.Database = "" }, true},
		{"missing main schema", func(c *csvlab.RunConfig) { c.Schemas.Main = "" }, true},
		{"missing lab schema", func(c *csvlab.RunConfig) { c.Schemas.Lab = "" }, true},
		{"lab schema not needed when copy skipped", func(c *csvlab.RunConfig) {
			c.Schemas.Lab = ""
			c.Schemas.Experiment = ""
			c.SkipCopy = true
		}, false},
		{"target equals main", func(c *csvlab.RunConfig) { c.Schemas.Lab = c.Schemas.Main }, true},
		{"negative timeout", func(c *csvlab.RunConfig) { c.Timeout = -time.Second }, true},
		{"negative max calls", func(c *csvlab.RunConfig) { c.Populate.MaxCalls = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validRunConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, csvlab.ErrInvalidConfig), "expected ErrInvalidConfig, got %v", err)
		})
	}
}

func TestRunConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := csvlab.RunConfig{}
	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "SourcePath is required")
	assert.Contains(t, msg, "Connection is required")
	assert.Contains(t, msg, "main schema name is required")
}

func TestParsePopulateOrder(t *testing.T) {
	for in, want := range map[string]csvlab.PopulateOrder{
		"":         csvlab.OrderOriginal,
		"original": csvlab.OrderOriginal,
		"Reverse":  csvlab.OrderReverse,
		" random ": csvlab.OrderRandom,
	} {
		got, err := csvlab.ParsePopulateOrder(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		if in != "" {
			assert.Equal(t, want.String(), got.String())
		}
	}

	_, err := csvlab.ParsePopulateOrder("sideways")
	assert.ErrorIs(t, err, csvlab.ErrInvalidConfig)
}

func TestParseAuthMethod(t *testing.T) {
	got, err := csvlab.ParseAuthMethod("")
	require.NoError(t, err)
	assert.Equal(t, csvlab.AuthMethodStandard, got)

	got, err = csvlab.ParseAuthMethod("AWS")
	require.NoError(t, err)
	assert.Equal(t, csvlab.AuthMethodAWSIAM, got)

	got, err = csvlab.ParseAuthMethod("azure")
	require.NoError(t, err)
	assert.Equal(t, csvlab.AuthMethodAzureEntraID, got)

	_, err = csvlab.ParseAuthMethod("kerberos")
	assert.ErrorIs(t, err, csvlab.ErrUnsupportedAuthMethod)
}

func TestAuthMethod_String(t *testing.T) {
	assert.Equal(t, "Google IAM", csvlab.AuthMethodGoogleIAM.String())
	assert.Equal(t, "Unknown(42)", csvlab.AuthMethod(42).String())
	assert.True(t, csvlab.AuthMethodCertificate.IsValid())
	assert.False(t, csvlab.AuthMethod(-1).IsValid())
}

func TestPopulateResult_Err(t *testing.T) {
	var ok csvlab.PopulateResult
	assert.NoError(t, ok.Err())

	cause := errors.New("bad date")
	res := csvlab.PopulateResult{Errors: []csvlab.KeyError{{Key: "a.csv", Err: cause}}}
	err := res.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, csvlab.ErrPopulateFailed)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "a.csv: bad date")
}
