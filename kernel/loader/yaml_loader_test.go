package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openziti/rbrowse/kernel/model"
)

func TestLoadDataset_Basic(t *testing.T) {
	yaml := `
clusters:
  root:
    resources:
      - kind: node
        name: alpha
        labels:
          env: prod
        hostname: alpha.example.com
        addr: 10.0.0.1:3022
      - kind: windows_desktop
        name: ws-01
        addr: 10.0.1.5:3389
  leaf:
    resources:
      - kind: db
        name: orders
        protocol: postgres
        port: 5432
`
	path := writeTempYaml(t, yaml)

	ds, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("LoadDataset failed: %v", err)
	}

	if ids := ds.ClusterIds(); len(ids) != 2 || ids[0] != "leaf" || ids[1] != "root" {
		t.Fatalf("unexpected cluster ids: %v", ids)
	}

	root := ds.Clusters["root"]
	if len(root) != 2 {
		t.Fatalf("expected 2 resources in root, got %d", len(root))
	}

	node := root[0]
	if node.Kind != model.KindNode || node.Name != "alpha" {
		t.Errorf("unexpected first resource: %s", node.Key())
	}
	if node.Labels["env"] != "prod" {
		t.Errorf("expected label env=prod, got '%s'", node.Labels["env"])
	}
	if node.Attrs["hostname"] != "alpha.example.com" {
		t.Errorf("expected hostname attribute, got '%s'", node.Attrs["hostname"])
	}
	if _, ok := node.Attrs["labels"]; ok {
		t.Error("labels must not leak into attributes")
	}

	db := ds.Clusters["leaf"][0]
	if db.Attrs["port"] != "5432" {
		t.Errorf("expected numeric attribute rendered as '5432', got '%s'", db.Attrs["port"])
	}
}

func TestLoadDataset_FileNotFound(t *testing.T) {
	_, err := LoadDataset("/nonexistent/path.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestLoadDataset_RejectsInvalid(t *testing.T) {
	yaml := `
clusters:
  root:
    resources:
      - kind: node
`
	_, err := LoadDataset(writeTempYaml(t, yaml))
	if err == nil {
		t.Fatal("expected error for resource without name")
	}
	if !strings.Contains(err.Error(), "clusters.root.resources[0].name") {
		t.Errorf("expected error to name the path, got: %v", err)
	}
}

func TestSaveDataset_RoundTrip(t *testing.T) {
	ds := &Dataset{Clusters: map[string][]model.Resource{
		"root": {
			{Id: "1", Kind: model.KindNode, Name: "alpha", Labels: map[string]string{"env": "prod"}, Attrs: map[string]string{"hostname": "alpha"}},
		},
	}}
	path := filepath.Join(t.TempDir(), "dataset.yml")
	if err := SaveDataset(path, ds); err != nil {
		t.Fatalf("SaveDataset failed: %v", err)
	}

	loaded, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("LoadDataset failed: %v", err)
	}
	got := loaded.Clusters["root"]
	if len(got) != 1 || got[0].Id != "1" || got[0].Attrs["hostname"] != "alpha" || got[0].Labels["env"] != "prod" {
		t.Errorf("unexpected round trip result: %+v", got)
	}
}

func writeTempYaml(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

// Validation Tests

func TestValidateDataset_Valid(t *testing.T) {
	yaml := `
clusters:
  root:
    resources:
      - kind: node
        name: alpha
`
	result, err := ValidateDatasetBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("ValidateDatasetBytes failed: %v", err)
	}

	if !result.IsValid() {
		t.Errorf("expected valid dataset, got errors: %v", result.Errors)
	}
}

func TestValidateDataset_MissingKind(t *testing.T) {
	yaml := `
clusters:
  root:
    resources:
      - name: alpha
`
	result, err := ValidateDatasetBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("ValidateDatasetBytes failed: %v", err)
	}

	if result.IsValid() {
		t.Error("expected validation errors for missing kind")
	}

	hasError := false
	for _, e := range result.Errors {
		if e.Path == "clusters.root.resources[0].kind" {
			hasError = true
			break
		}
	}
	if !hasError {
		t.Error("expected error for clusters.root.resources[0].kind path")
	}
}

func TestValidateDataset_InvalidClusterId(t *testing.T) {
	yaml := `
clusters:
  1-root:
    resources:
      - kind: node
        name: alpha
`
	result, err := ValidateDatasetBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("ValidateDatasetBytes failed: %v", err)
	}

	if result.IsValid() {
		t.Error("expected validation errors for invalid cluster id")
	}
}

func TestValidateDataset_UnknownKindIsWarning(t *testing.T) {
	yaml := `
clusters:
  root:
    resources:
      - kind: printer
        name: lobby
`
	result, err := ValidateDatasetBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("ValidateDatasetBytes failed: %v", err)
	}

	if !result.IsValid() {
		t.Errorf("unknown kinds must not be errors, got: %v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %d", len(result.Warnings))
	}
}

func TestValidateDataset_NoClusters(t *testing.T) {
	yaml := `
clusters: {}
`
	result, err := ValidateDatasetBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("ValidateDatasetBytes failed: %v", err)
	}

	if len(result.Warnings) == 0 {
		t.Error("expected warning for empty clusters")
	}
}

func TestValidateDataset_DuplicateResources(t *testing.T) {
	yaml := `
clusters:
  root:
    resources:
      - kind: node
        name: alpha
      - kind: node
        name: alpha
      - kind: app
        name: alpha
`
	result, err := ValidateDatasetBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("ValidateDatasetBytes failed: %v", err)
	}

	if len(result.Errors) != 1 {
		t.Fatalf("expected exactly 1 duplicate error, got %v", result.Errors)
	}
	if result.Errors[0].Path != "clusters.root.resources[1]" {
		t.Errorf("unexpected error path: %s", result.Errors[0].Path)
	}
}

func TestValidateDataset_Malformed(t *testing.T) {
	_, err := ValidateDatasetBytes([]byte("clusters: [unclosed"))
	if err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
