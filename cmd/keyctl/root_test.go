package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestEnvExample(t *testing.T) {
	t.Parallel()

	out, _, err := run(t, "env-example")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Automatically generated file, do not edit.\n\nREDIS_HOST=127.0.0.1\n\n"))
	assert.Contains(t, out, "# Time in seconds\n# Value 0 means no expiration check\nHCAPTCHA_EXPIRATION_CHALLENGE=0\n\n")
	assert.Contains(t, out, "POSTGRES_SETTINGS_TABLE=settings\n")
	assert.Contains(t, out, "# Time in seconds\nSESSION_TTL=3600\n\n")

	crlf, _, err := run(t, "env-example", "--crlf")
	require.NoError(t, err)
	assert.Equal(t, strings.ReplaceAll(out, "\n", "\r\n"), crlf)
}

func TestEnvExampleToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".env.example")
	out, _, err := run(t, "env-example", "--out", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "REDIS_PORT=6379\n")
}

func TestCheck(t *testing.T) {
	t.Setenv("KEYCTL_TEST_HCAPTCHA_SECRET", "s3cret")

	_, stderr, err := run(t, "check", "--prefix", "KEYCTL_TEST_")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of")
	assert.Contains(t, stderr, "POSTGRES_DSN")

	envFile := filepath.Join(t.TempDir(), "settings.env")
	require.NoError(t, os.WriteFile(envFile, []byte("POSTGRES_DSN=postgres://u:p@db/app\nHCAPTCHA_SECRET=ignored\n"), 0o600))

	_, _, err = run(t, "check", "--prefix", "KEYCTL_TEST_", "--env-file", envFile)
	require.NoError(t, err)

	t.Setenv("KEYCTL_TEST_REDIS_PORT", "99999")
	_, stderr, err = run(t, "check", "--prefix", "KEYCTL_TEST_", "--env-file", envFile, "-v")
	require.Error(t, err)
	assert.Contains(t, stderr, "REDIS_PORT")
}
