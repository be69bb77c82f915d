package main

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/nestroute/internal/errors"
)

func TestMain(m *testing.M) {
	errors.DisableColors()
	os.Exit(m.Run())
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestTree(t *testing.T) {
	out, err := run(t, "tree", "--manifest", "testdata/routes.yaml")
	require.NoError(t, err)
	golden(t).Assert(t, "tree", []byte(out))
}

func TestMatch(t *testing.T) {
	out, err := run(t, "match", "/items/7?tab=specs", "--manifest", "testdata/routes.yaml")
	require.NoError(t, err)
	golden(t).Assert(t, "match", []byte(out))
}

func TestMatchNotFound(t *testing.T) {
	out, err := run(t, "match", "/nope", "-m", "testdata/routes.yaml")
	require.Error(t, err)

	var rerr *errors.RouterdError
	require.True(t, stderrors.As(err, &rerr))
	assert.Equal(t, "R402", rerr.Code)
	golden(t).Assert(t, "match_notfound", []byte(out))
}

func TestInvalidManifestReport(t *testing.T) {
	_, err := run(t, "tree", "--manifest", "testdata/invalid.yaml")
	require.Error(t, err)

	var buf bytes.Buffer
	report(&buf, err)
	out := buf.String()
	assert.Contains(t, out, "R204")
	assert.Contains(t, out, "invalid.yaml:8")
	assert.Contains(t, out, "1 manifest problem(s) in testdata/invalid.yaml")
}

func TestMissingManifest(t *testing.T) {
	_, err := run(t, "tree", "--manifest", filepath.Join(t.TempDir(), "routes.yaml"))
	var rerr *errors.RouterdError
	require.True(t, stderrors.As(err, &rerr))
	assert.Equal(t, "R201", rerr.Code)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile("testdata/routes.yaml")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop.yaml"), data, 0o644))
	cfgPath := filepath.Join(dir, "routerd.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"manifest": {"source": "shop.yaml"}}`), 0o644))

	out, err := run(t, "match", "/cart", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, `"route": "shop.cart"`)
}

func TestInvalidConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "routerd.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"server": {"port": 70000}}`), 0o644))

	_, err := run(t, "tree", "--config", cfgPath)
	var rerr *errors.RouterdError
	require.True(t, stderrors.As(err, &rerr))
	assert.Equal(t, "R103", rerr.Code)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)

	out, err = run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "routerd dev\n"))
	assert.Contains(t, out, "Go version:")
}
