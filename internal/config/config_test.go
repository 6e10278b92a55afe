package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mintgate/internal/admission"
	"github.com/roach88/mintgate/internal/query"
	"github.com/roach88/mintgate/internal/reply"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	shape, err := cfg.Shape()
	require.NoError(t, err)
	assert.Equal(t, query.ShapeAuto, shape)

	p, err := cfg.AdmissionPolicy()
	require.NoError(t, err)
	assert.Equal(t, admission.DefaultPolicy(), p)
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load("testdata/mintgate.yaml")
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/mintgate/state.db", cfg.DB)
	assert.Equal(t, "desmos", cfg.AddrPrefix)
	assert.Equal(t, "localhost:9090", cfg.DomainAddr)
	assert.Equal(t, 2*time.Second, cfg.DomainTimeout)
	assert.Equal(t, Default().ChainID, cfg.ChainID, "unset keys keep their defaults")

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	p, err := cfg.AdmissionPolicy()
	require.NoError(t, err)
	assert.Equal(t, admission.Policy{
		OnAlreadyEnabled: admission.EnableNoop,
		Reversible:       true,
		MintToQuota:      admission.QuotaBypass,
	}, p)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("MINTGATE_DB", "override.db")
	t.Setenv("MINTGATE_QUERY_SHAPE", "adjacent")
	t.Setenv("MINTGATE_POLICY_MINT_TO_QUOTA", "enforce")
	t.Setenv("MINTGATE_RESOLVED_POLICY", "keep")

	cfg, err := Load("testdata/mintgate.yaml")
	require.NoError(t, err)

	assert.Equal(t, "override.db", cfg.DB)
	assert.Equal(t, "desmos", cfg.AddrPrefix)

	shape, err := cfg.Shape()
	require.NoError(t, err)
	assert.Equal(t, query.ShapeAdjacent, shape)

	resolved, err := cfg.Resolved()
	require.NoError(t, err)
	assert.Equal(t, reply.PolicyKeep, resolved)

	p, err := cfg.AdmissionPolicy()
	require.NoError(t, err)
	assert.Equal(t, admission.QuotaEnforce, p.MintToQuota)
	assert.True(t, p.Reversible)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown key", "dbb: x\n", "dbb"},
		{"bad shape", "query_shape: sideways\n", "unknown query shape"},
		{"bad level", "log_level: loud\n", "log_level"},
		{"bad policy", "policy:\n  mint_to_quota: sometimes\n", "mint_to_quota"},
		{"bad resolved", "resolved_policy: overwrite\n", "resolved policy"},
		{"zero depth", "max_depth: 0\n", "max_depth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "mintgate.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("MINTGATE_MAX_DEPTH", "deep")
	_, err := Load("")
	assert.Error(t, err)
}
