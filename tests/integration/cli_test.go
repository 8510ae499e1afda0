package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestMain builds the tnfpkg binary once before running tests.
func TestMain(m *testing.M) {
	projectRoot, err := FindProjectRoot()
	if err != nil {
		buildErr = err
		os.Exit(1)
	}
	tmpDir, err := os.MkdirTemp("", "tnfpkg-test-*")
	if err != nil {
		buildErr = err
		os.Exit(1)
	}
	tnfpkgBin = filepath.Join(tmpDir, "tnfpkg")

	cmd := exec.Command("go", "build", "-o", tnfpkgBin, "./cmd/tnfpkg")
	cmd.Dir = projectRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		buildErr = &BuildError{Err: err, Output: string(output)}
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

func TestCreateAndInspect(t *testing.T) {
	env := NewTestEnv(t, "")
	path := env.Path("roads.gpkg")

	created := ParseJSON[Created](t, env.MustRun("create", path,
		"--srid", "3006", "--identifier", "roads-1", "--type", "updates",
		"--view-date", "2026-01-15", "--format", "json").Stdout)
	if created.SRID != 3006 || created.Identifier != "roads-1" || created.Type != "UPDATES" {
		t.Errorf("unexpected create result: %+v", created)
	}
	if created.Digest == "" {
		t.Error("expected a schema digest")
	}

	info := ParseJSON[Info](t, env.MustRun("--json", "info", path).Stdout)
	if info.SRID != 3006 {
		t.Errorf("srid = %d, want 3006", info.SRID)
	}
	if info.Digest != created.Digest {
		t.Errorf("digest changed between create and info: %s != %s", created.Digest, info.Digest)
	}
	want := map[string]string{
		"TNF_VERSION":            "1.2",
		"TNF_DATASET_IDENTIFIER": "roads-1",
		"TNF_DATASET_TYPE":       "UPDATES",
		"TNF_CRS_NAME":           "EPSG:3006",
		"TNF_VIEW_DATE":          "2026-01-15T00:00:00Z",
	}
	for k, v := range want {
		if got := info.Metadata[k]; got != v {
			t.Errorf("metadata %s = %q, want %q", k, got, v)
		}
	}

	text := env.MustRun("info", path).Stdout
	if !strings.Contains(text, "srid:      3006") || !strings.Contains(text, "TNF_DATASET_TYPE = UPDATES") {
		t.Errorf("unexpected info text:\n%s", text)
	}
}

func TestCreateUsesConfigDefaults(t *testing.T) {
	env := NewTestEnv(t, "srid: 25832\ndataset_identifier: from-config\ndataset_type: snapshot\ncoord_system: ETRS89\n")
	path := env.Path("cfg.gpkg")

	created := ParseJSON[Created](t, env.MustRun("create", path, "--format", "json").Stdout)
	if created.SRID != 25832 || created.Identifier != "from-config" || created.Type != "SNAPSHOT" {
		t.Errorf("unexpected create result: %+v", created)
	}
	info := ParseJSON[Info](t, env.MustRun("info", path, "--format", "json").Stdout)
	if info.Metadata["GT_COORD_SYSTEM_ID"] != "ETRS89" {
		t.Errorf("coord system = %q", info.Metadata["GT_COORD_SYSTEM_ID"])
	}
}

func TestCreateWritesDefaultConfig(t *testing.T) {
	env := NewTestEnv(t, "")
	path := env.Path("default.gpkg")

	created := ParseJSON[Created](t, env.MustRun("create", path, "--json").Stdout)
	if created.SRID != 4326 {
		t.Errorf("srid = %d, want 4326", created.SRID)
	}
	if created.Identifier == "" {
		t.Error("expected a generated identifier")
	}
	data, err := os.ReadFile(filepath.Join(env.Config, "config.yaml"))
	if err != nil {
		t.Fatalf("config.yaml not written: %v", err)
	}
	if !strings.Contains(string(data), "srid: 4326") {
		t.Errorf("unexpected default config:\n%s", data)
	}
}

func TestCreateRefusesExistingFile(t *testing.T) {
	env := NewTestEnv(t, "")
	path := env.Path("exists.gpkg")
	env.MustRun("create", path)

	res := env.Run("create", path)
	if res.ExitCode != 1 {
		t.Errorf("exit code = %d, want 1", res.ExitCode)
	}
	if !strings.Contains(res.Stderr, "--force") {
		t.Errorf("stderr should mention --force: %s", res.Stderr)
	}
	env.MustRun("create", path, "--force", "--srid", "3857")
	info := ParseJSON[Info](t, env.MustRun("--json", "info", path).Stdout)
	if info.SRID != 3857 {
		t.Errorf("srid = %d after --force, want 3857", info.SRID)
	}
}

func TestCreateFromTemplate(t *testing.T) {
	env := NewTestEnv(t, "")
	tmpl := env.Path("template.gpkg")
	env.MustRun("create", tmpl, "--all-tables", "--topology")

	path := env.Path("copy.gpkg")
	created := ParseJSON[Created](t, env.MustRun("--template", tmpl, "create", path, "--json").Stdout)
	if created.Template != tmpl {
		t.Errorf("template = %q, want %q", created.Template, tmpl)
	}
	info := ParseJSON[Info](t, env.MustRun("--json", "info", path).Stdout)
	if !info.HasTopologyLevel {
		t.Error("expected the template's topology-level tnf_link")
	}
	if info.Tables < 25 {
		t.Errorf("tables = %d, want every table of the template", info.Tables)
	}

	res := env.Run("--template", env.Path("absent.gpkg"), "create", env.Path("broken.gpkg"))
	if res.ExitCode != 2 {
		t.Errorf("missing template exit code = %d, want 2", res.ExitCode)
	}
}

func TestTablesCommand(t *testing.T) {
	env := NewTestEnv(t, "")
	path := env.Path("tables.gpkg")
	env.MustRun("create", path)

	present := ParseJSON[[]Table](t, env.MustRun("tables", path, "--format", "json").Stdout)
	names := make(map[string]Table, len(present))
	for _, tb := range present {
		names[tb.Name] = tb
	}
	if _, ok := names["tnf_link_sequence"]; !ok {
		t.Error("expected tnf_link_sequence")
	}
	if _, ok := names["tnf_network"]; ok {
		t.Error("tnf_network should not exist yet")
	}
	if names["tnf_metadata"].Rows != 7 {
		t.Errorf("tnf_metadata rows = %d, want 7", names["tnf_metadata"].Rows)
	}

	all := ParseJSON[[]Table](t, env.MustRun("tables", path, "--all", "--json").Stdout)
	if len(all) <= len(present) {
		t.Errorf("--all listed %d tables, present %d", len(all), len(present))
	}
	text := env.MustRun("tables", path, "--all").Stdout
	if !strings.Contains(text, "missing") {
		t.Errorf("expected missing tables in:\n%s", text)
	}
}

func TestValidateCommand(t *testing.T) {
	env := NewTestEnv(t, "")
	path := env.Path("valid.gpkg")
	env.MustRun("create", path)

	if out := env.MustRun("validate", path).Stdout; !strings.Contains(out, "ok") {
		t.Errorf("unexpected validate output: %s", out)
	}

	bad := env.Path("notes.txt")
	if err := os.WriteFile(bad, []byte("not a geopackage"), 0o644); err != nil {
		t.Fatal(err)
	}
	res := env.Run("validate", bad, "--format", "yaml")
	if res.ExitCode != 1 {
		t.Errorf("exit code = %d, want 1", res.ExitCode)
	}
	if !strings.Contains(res.Stdout, "severity: error") {
		t.Errorf("expected YAML findings:\n%s", res.Stdout)
	}

	if res := env.Run("validate", env.Path("absent.gpkg")); res.ExitCode != 1 {
		t.Errorf("missing file exit code = %d, want 1", res.ExitCode)
	}
}

func TestIndexCommand(t *testing.T) {
	env := NewTestEnv(t, "")
	path := env.Path("index.gpkg")
	env.MustRun("create", path)

	out := env.MustRun("index", path).Stdout
	if !strings.Contains(out, "indexed tnf_link_sequence.geometry") || !strings.Contains(out, "indexed tnf_node.geometry") {
		t.Errorf("unexpected index output: %s", out)
	}
	env.MustRun("index", path)

	if res := env.Run("index", path, "tnf_node", "oid"); res.ExitCode != 1 {
		t.Errorf("non-geometry column exit code = %d, want 1", res.ExitCode)
	}
	if res := env.Run("index", path, "tnf_node"); res.ExitCode != 1 {
		t.Errorf("wrong argument count exit code = %d, want 1", res.ExitCode)
	}
}

func TestUserErrors(t *testing.T) {
	env := NewTestEnv(t, "")
	tests := []struct {
		name string
		args []string
	}{
		{"bad dataset type", []string{"create", env.Path("a.gpkg"), "--type", "delta"}},
		{"bad view date", []string{"create", env.Path("b.gpkg"), "--view-date", "yesterday"}},
		{"bad log level", []string{"--log-level", "loud", "create", env.Path("c.gpkg")}},
		{"bad format", []string{"create", env.Path("d.gpkg"), "--format", "xml"}},
		{"info on missing file", []string{"info", env.Path("none.gpkg")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.Run(tt.args...)
			if res.ExitCode != 1 {
				t.Errorf("exit code = %d, want 1 (stderr: %s)", res.ExitCode, res.Stderr)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	env := NewTestEnv(t, "")
	out := env.MustRun("version").Stdout
	if !strings.HasPrefix(out, "tnfpkg v") || !strings.Contains(out, "OpenTNF 1.2") {
		t.Errorf("unexpected version output: %s", out)
	}
}
