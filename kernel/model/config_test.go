package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openziti/foundation/v2/errorz"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`clusterId: root`))
	require.NoError(t, err)

	assert.Equal(t, "root", cfg.ClusterId)
	assert.Equal(t, DefaultPageSize, cfg.PageSize)
	assert.Equal(t, KindNode, cfg.DefaultKind)
	assert.Equal(t, BackendMemory, cfg.Backend.Type)
	assert.Equal(t, ":8080", cfg.Listen)
}

func TestParseConfig_FileBackendInferred(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
backend:
  datasetPath: /tmp/dataset.yml
`))
	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.Backend.Type)
}

func TestParseConfig_Kinds(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
kinds:
  - name: printer
    defaultSort: location:desc
    columns:
      - title: Location
        path: $.attrs.location
`))
	require.NoError(t, err)
	require.Len(t, cfg.Kinds, 1)
	assert.Equal(t, ResourceKind("printer"), cfg.Kinds[0].Name)
	assert.Equal(t, "$.attrs.location", cfg.Kinds[0].Columns[0].Path)
}

func TestParseConfig_CollectsAllErrors(t *testing.T) {
	_, err := ParseConfig([]byte(`
pageSize: 5000
backend:
  type: http
kinds:
  - name: printer
    defaultSort: location:sideways
  - name: printer
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pageSize")
	assert.Contains(t, err.Error(), "backend.url")
	assert.Contains(t, err.Error(), "sort direction")
	assert.Contains(t, err.Error(), "duplicate kind")
}

func TestParseConfig_FieldErrors(t *testing.T) {
	_, err := ParseConfig([]byte(`
pageSize: 5000
pageCacheSize: -1
`))
	require.Error(t, err)

	var cfgErrs ConfigErrors
	require.True(t, errors.As(err, &cfgErrs))
	require.Len(t, cfgErrs, 2)
	assert.Equal(t, &errorz.FieldError{Reason: "must be between 1 and 1000", FieldName: "pageSize", FieldValue: 5000}, cfgErrs[0])
	assert.Equal(t, "pageCacheSize", cfgErrs[1].FieldName)
}

func TestParseConfig_EC2MinimumPageSize(t *testing.T) {
	_, err := ParseConfig([]byte(`
pageSize: 3
backend:
  type: ec2
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 5")

	cfg, err := ParseConfig([]byte(`
pageSize: 3
backend:
  type: memory
`))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.PageSize)
}

func TestParseConfig_UnknownBackend(t *testing.T) {
	_, err := ParseConfig([]byte(`
backend:
  type: carrier-pigeon
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yml")
	require.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("pageSize: 10\ndefaultKind: windows_desktop\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, KindWindowsDesktop, cfg.DefaultKind)
}
