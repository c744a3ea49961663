package config

import (
	"os"
	"path/filepath"
	"testing"

	"convtest/domain/conversion"
	"convtest/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.Experiment.TrialsA)
	assert.Equal(t, 0.05, cfg.Experiment.Alpha)
	assert.Equal(t, uint64(42), cfg.Experiment.Seed)
	assert.Equal(t, "8080", cfg.Server.Port)

	req, err := cfg.Experiment.Request()
	require.NoError(t, err)
	assert.Equal(t, conversion.Greater, req.Direction)
	assert.Equal(t, conversion.MethodWald, req.Method)
	assert.NoError(t, req.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONVTEST_TRIALS_A", "500")
	t.Setenv("CONVTEST_RATE_B", "0.3")
	t.Setenv("CONVTEST_DIRECTION", "two-sided")
	t.Setenv("CONVTEST_SEED", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Experiment.TrialsA)
	assert.Equal(t, 0.3, cfg.Experiment.RateB)
	assert.Equal(t, "two-sided", cfg.Experiment.Direction)
	assert.Equal(t, uint64(7), cfg.Experiment.Seed)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"CONVTEST_ALPHA":        "1.5",
		"CONVTEST_RATE_A":       "2",
		"CONVTEST_TRIALS_B":     "-3",
		"CONVTEST_DIRECTION":    "up",
		"CONVTEST_METHOD":       "exact",
		"CONVTEST_REPLICATIONS": "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CONVTEST_NAME_A=control\n"), 0o600))

	// Registers cleanup so the variable does not leak into other tests.
	t.Setenv("CONVTEST_NAME_A", "")
	require.NoError(t, os.Unsetenv("CONVTEST_NAME_A"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "control", os.Getenv("CONVTEST_NAME_A"))
}
