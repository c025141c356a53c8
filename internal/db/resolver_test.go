package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/csvlab/internal/config"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

func TestGranularConnFlags_IsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		flags GranularConnFlags
		want  bool
	}{
		{"empty flags", GranularConnFlags{}, true},
		{"only host set", GranularConnFlags{Host: "localhost"}, false},
		{"only port set", GranularConnFlags{Port: 5432}, false},
		{"only username set", GranularConnFlags{Username: "u"}, false},
		{"only database set", GranularConnFlags{Database: "lab"}, true},
		{"only sslmode set", GranularConnFlags{SSLMode: "require"}, false},
		{"only sslcert set", GranularConnFlags{SSLCert: "/c.crt"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.flags.IsEmpty())
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PGHOST", "envhost")
	t.Setenv("PGPORT", "6543")
	t.Setenv("PGSSLROOTCERT", "/ca.crt")
	t.Setenv("CSVLAB_CONNECTION_STRING", "postgresql://x@y/z")
	t.Setenv("AWS_REGION", "eu-west-1")

	env := LoadFromEnvironment()

	assert.Equal(t, "envhost", env.PGHOST)
	assert.Equal(t, "6543", env.PGPORT)
	assert.Equal(t, "/ca.crt", env.PGSSLROOTCERT)
	assert.Equal(t, "postgresql://x@y/z", env.CSVLAB_CONNECTION_STRING)
	assert.Equal(t, "eu-west-1", env.AWS_REGION)
}

func TestResolveConnectionParams_ConnectionString(t *testing.T) {
	cfg, err := ResolveConnectionParams(&ConnectionFlags{
		Connection: "postgresql://user:pw@db:5433/lab",
		Granular:   GranularConnFlags{Database: "override"},
	}, &EnvVars{PGSSLCERT: "/env.crt"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "db", cfg.Host)
	assert.Equal(t, 5433, cfg.Port)
	assert.Equal(t, "override", cfg.Database)
	assert.Equal(t, "pw", cfg.Password)
	assert.Equal(t, "/env.crt", cfg.SSLCert)
}

func TestResolveConnectionParams_ConflictingFlags(t *testing.T) {
	_, err := ResolveConnectionParams(&ConnectionFlags{
		Connection: "postgresql://localhost/db",
		Granular:   GranularConnFlags{Host: "other"},
	}, nil, nil)
	assert.ErrorIs(t, err, csvlab.ErrInvalidConfig)
}

func TestResolveConnectionParams_EnvConnectionString(t *testing.T) {
	env := &EnvVars{
		CSVLAB_CONNECTION_STRING: "postgresql://a@first/one",
		DATABASE_URL:             "postgresql://b@second/two",
	}

	cfg, err := ResolveConnectionParams(nil, env, nil)
	require.NoError(t, err)
	assert.Equal(t, "first", cfg.Host)

	env.CSVLAB_CONNECTION_STRING = ""
	cfg, err = ResolveConnectionParams(nil, env, nil)
	require.NoError(t, err)
	assert.Equal(t, "second", cfg.Host)

	// Granular flags bypass the environment connection string.
	cfg, err = ResolveConnectionParams(&ConnectionFlags{Granular: GranularConnFlags{Host: "flaghost"}}, env, nil)
	require.NoError(t, err)
	assert.Equal(t, "flaghost", cfg.Host)
}

func TestResolveConnectionParams_Precedence(t *testing.T) {
	project := &config.ProjectConfig{Connection: config.ConnectionConfig{
		Host: "yamlhost", Port: 7000, Username: "yamluser", Database: "yamldb", SSLMode: "disable",
	}}

	t.Run("yaml beats defaults", func(t *testing.T) {
		cfg, err := ResolveConnectionParams(nil, &EnvVars{}, project)
		require.NoError(t, err)
		assert.Equal(t, "yamlhost", cfg.Host)
		assert.Equal(t, 7000, cfg.Port)
		assert.Equal(t, "yamluser", cfg.Username)
		assert.Equal(t, "yamldb", cfg.Database)
		assert.Equal(t, "disable", cfg.SSLMode)
	})

	t.Run("env beats yaml", func(t *testing.T) {
		cfg, err := ResolveConnectionParams(nil, &EnvVars{PGHOST: "envhost", PGPORT: "7001", PGPASSWORD: "pw"}, project)
		require.NoError(t, err)
		assert.Equal(t, "envhost", cfg.Host)
		assert.Equal(t, 7001, cfg.Port)
		assert.Equal(t, "pw", cfg.Password)
	})

	t.Run("flags beat env", func(t *testing.T) {
		flags := &ConnectionFlags{Granular: GranularConnFlags{Host: "flaghost", Port: 7002, Database: "flagdb"}}
		cfg, err := ResolveConnectionParams(flags, &EnvVars{PGHOST: "envhost", PGDATABASE: "envdb"}, project)
		require.NoError(t, err)
		assert.Equal(t, "flaghost", cfg.Host)
		assert.Equal(t, 7002, cfg.Port)
		assert.Equal(t, "flagdb", cfg.Database)
	})

	t.Run("defaults", func(t *testing.T) {
		cfg, err := ResolveConnectionParams(nil, &EnvVars{}, nil)
		require.NoError(t, err)
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, 5432, cfg.Port)
		assert.Equal(t, csvlab.DefaultManagementDB, cfg.Database)
		assert.Equal(t, "prefer", cfg.SSLMode)
		assert.Equal(t, csvlab.AuthMethodStandard, cfg.AuthMethod)
	})
}

func TestResolveConnectionParams_InvalidPGPORT(t *testing.T) {
	_, err := ResolveConnectionParams(nil, &EnvVars{PGPORT: "abc"}, nil)
	assert.ErrorIs(t, err, csvlab.ErrInvalidConfig)

	_, err = ResolveConnectionParams(&ConnectionFlags{Granular: GranularConnFlags{Port: 70000}}, nil, nil)
	assert.ErrorIs(t, err, csvlab.ErrInvalidConfig)
}

func TestResolveConnectionParams_AuthMethod(t *testing.T) {
	t.Run("certificate from flags", func(t *testing.T) {
		cfg, err := ResolveConnectionParams(&ConnectionFlags{Granular: GranularConnFlags{
			SSLCert: "/c.crt", SSLKey: "/c.key", SSLMode: "verify-full",
		}}, &EnvVars{}, nil)
		require.NoError(t, err)
		assert.Equal(t, csvlab.AuthMethodCertificate, cfg.AuthMethod)
	})

	t.Run("certificate without key", func(t *testing.T) {
		_, err := ResolveConnectionParams(&ConnectionFlags{Granular: GranularConnFlags{SSLCert: "/c.crt"}}, &EnvVars{}, nil)
		assert.ErrorIs(t, err, csvlab.ErrInvalidConfig)
	})

	t.Run("azure flag with env credentials", func(t *testing.T) {
		cfg, err := ResolveConnectionParams(&ConnectionFlags{Azure: AzureFlags{Enabled: true, TenantID: "flag-tenant"}},
			&EnvVars{AZURE_TENANT_ID: "env-tenant", AZURE_CLIENT_ID: "env-client", AZURE_CLIENT_SECRET: "s"}, nil)
		require.NoError(t, err)
		assert.Equal(t, csvlab.AuthMethodAzureEntraID, cfg.AuthMethod)
		assert.Equal(t, "flag-tenant", cfg.AzureTenantID)
		assert.Equal(t, "env-client", cfg.AzureClientID)
		assert.Equal(t, "s", cfg.AzureClientSecret)
	})

	t.Run("azure env alone keeps standard auth", func(t *testing.T) {
		cfg, err := ResolveConnectionParams(nil, &EnvVars{AZURE_TENANT_ID: "t"}, nil)
		require.NoError(t, err)
		assert.Equal(t, csvlab.AuthMethodStandard, cfg.AuthMethod)
	})

	t.Run("aws region fallbacks", func(t *testing.T) {
		cfg, err := ResolveConnectionParams(&ConnectionFlags{AWS: AWSFlags{Enabled: true}},
			&EnvVars{AWS_DEFAULT_REGION: "us-east-2"}, nil)
		require.NoError(t, err)
		assert.Equal(t, csvlab.AuthMethodAWSIAM, cfg.AuthMethod)
		assert.Equal(t, "us-east-2", cfg.AWSRegion)
	})

	t.Run("aws without region", func(t *testing.T) {
		_, err := ResolveConnectionParams(&ConnectionFlags{AWS: AWSFlags{Enabled: true}}, &EnvVars{}, nil)
		assert.ErrorIs(t, err, csvlab.ErrInvalidConfig)
	})

	t.Run("google from yaml", func(t *testing.T) {
		project := &config.ProjectConfig{Connection: config.ConnectionConfig{
			AuthMethod: "google", GoogleInstance: "p:r:i",
		}}
		cfg, err := ResolveConnectionParams(nil, &EnvVars{}, project)
		require.NoError(t, err)
		assert.Equal(t, csvlab.AuthMethodGoogleIAM, cfg.AuthMethod)
		assert.Equal(t, "p:r:i", cfg.GoogleInstance)
	})

	t.Run("unknown yaml method", func(t *testing.T) {
		project := &config.ProjectConfig{Connection: config.ConnectionConfig{AuthMethod: "kerberos"}}
		_, err := ResolveConnectionParams(nil, &EnvVars{}, project)
		assert.ErrorIs(t, err, csvlab.ErrUnsupportedAuthMethod)
	})

	t.Run("two cloud providers", func(t *testing.T) {
		_, err := ResolveConnectionParams(&ConnectionFlags{
			AWS:    AWSFlags{Enabled: true, Region: "us-east-1"},
			Google: GoogleFlags{Instance: "p:r:i"},
		}, &EnvVars{}, nil)
		assert.ErrorIs(t, err, csvlab.ErrInvalidConfig)
	})
}

func TestManagementConfig(t *testing.T) {
	cfg := &csvlab.ConnectionConfig{Host: "h", Port: 5432, Database: "lab"}

	mgmt := ManagementConfig(cfg, nil)
	assert.Equal(t, csvlab.DefaultManagementDB, mgmt.Database)
	assert.Equal(t, "lab", cfg.Database, "original is not modified")

	mgmt = ManagementConfig(cfg, &config.ProjectConfig{Connection: config.ConnectionConfig{ManagementDatabase: "template1"}})
	assert.Equal(t, "template1", mgmt.Database)
}
