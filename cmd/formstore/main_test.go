package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arkilian/formstore/internal/config"
	ferrors "github.com/arkilian/formstore/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const visitsYAML = `
beneficiary_code:
  type: string
  elementKey: bcode
visit:
  type: object
  elementKey: visit
  properties:
    date:
      type: object
      elementType: dateTime
      elementKey: k2
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Resolve()
	require.NoError(t, cfg.Validate())
	return cfg
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func runCmd(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), cfg, zap.NewNop(), args, &out)
	return out.String(), err
}

func TestRun_Usage(t *testing.T) {
	cfg := testConfig(t)
	for _, args := range [][]string{
		nil,
		{"unknown"},
		{"flatten"},
		{"publish", "visits"},
		{"translate", "visits"},
		{"kv-get", "visits", "Table"},
	} {
		_, err := runCmd(t, cfg, args...)
		assert.Equal(t, errUsage, err, "args %v", args)
	}
}

func TestFlatten(t *testing.T) {
	cfg := testConfig(t)
	out, err := runCmd(t, cfg, "flatten", writeFile(t, "visits.yaml", visitsYAML))
	require.NoError(t, err)

	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "bcode")
	assert.Contains(t, out, "visit.date")
	assert.Contains(t, out, "fingerprint")
	// instance metadata columns are part of every model
	assert.Contains(t, out, "_id")
}

func TestFlatten_InvalidDefinition(t *testing.T) {
	cfg := testConfig(t)
	_, err := runCmd(t, cfg, "flatten", writeFile(t, "bad.yaml", "a:\n  type: string\n  elementKey: _bad\n"))
	require.Error(t, err)
	assert.True(t, ferrors.IsSchemaError(err))
}

func TestPublishTablesTranslate(t *testing.T) {
	cfg := testConfig(t)
	def := writeFile(t, "visits.yaml", visitsYAML)

	out, err := runCmd(t, cfg, "publish", "visits", def)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "published visits:"), out)

	// republishing replaces the definition under its current etag
	_, err = runCmd(t, cfg, "publish", "visits", def)
	require.NoError(t, err)

	out, err = runCmd(t, cfg, "tables")
	require.NoError(t, err)
	assert.Equal(t, "visits\n", out)

	out, err = runCmd(t, cfg, "translate", "visits", "beneficiary_code = ?")
	require.NoError(t, err)
	assert.Equal(t, "\"bcode\" = ?\n", out)

	_, err = runCmd(t, cfg, "translate", "visits", "no_such_field = ?")
	require.Error(t, err)
	assert.True(t, ferrors.IsResolutionError(err))

	_, err = runCmd(t, cfg, "translate", "missing", "a = ?")
	assert.Equal(t, ferrors.CodeObjectNotFound, ferrors.GetCode(err))
}

func TestInsertQuery(t *testing.T) {
	cfg := testConfig(t)
	_, err := runCmd(t, cfg, "publish", "visits", writeFile(t, "visits.yaml", visitsYAML))
	require.NoError(t, err)

	ids := make(map[string]string)
	for _, code := range []string{"B1", "B2"} {
		doc := `{"data": {"beneficiary_code": "` + code + `"}}`
		out, err := runCmd(t, cfg, "insert", "visits", writeFile(t, code+".json", doc))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "uuid:"), out)
		ids[code] = strings.TrimSpace(out)
	}

	out, err := runCmd(t, cfg, "query", "visits", "_id = ?", "", ids["B1"])
	require.NoError(t, err)
	assert.Contains(t, out, `"beneficiary_code":"B1"`)
	assert.NotContains(t, out, "B2")

	_, err = runCmd(t, cfg, "query", "visits", "visit = ?", "", "visit")
	assert.True(t, ferrors.IsResolutionError(err))

	out, err = runCmd(t, cfg, "query", "visits", "beneficiary_code = ?", "", "B2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)

	var got struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, "B2", got.Data["beneficiary_code"])

	out, err = runCmd(t, cfg, "query", "visits")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
}

func TestKVPutGet(t *testing.T) {
	cfg := testConfig(t)
	_, err := runCmd(t, cfg, "kv-put", "visits", "Table", "default", "showSummary", "boolean", "true")
	require.NoError(t, err)

	out, err := runCmd(t, cfg, "kv-get", "visits", "Table", "default", "showSummary")
	require.NoError(t, err)
	assert.Equal(t, "boolean\ttrue\n", out)

	_, err = runCmd(t, cfg, "kv-get", "visits", "Table", "default", "missing")
	assert.Equal(t, ferrors.CodeObjectNotFound, ferrors.GetCode(err))
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "formstore.yaml")
	require.NoError(t, os.WriteFile(file, []byte("log_level: warn\ndata_dir: "+dir+"\n"), 0644))

	cfg, err := loadConfig(file, "", "debug", "")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "rows.db"), cfg.Store.DatabasePath)

	_, err = loadConfig(file, "", "", "ftp")
	assert.Error(t, err)
}
