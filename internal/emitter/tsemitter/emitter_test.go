package tsemitter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleFiles() []File {
	return []File{
		{RelPath: "user.ts", Content: []byte("export function getUsers() {}\n")},
		{RelPath: "typings/user.d.ts", Content: []byte("declare namespace API {}\n")},
		{RelPath: "api-doc.json", Content: []byte(`{"openapi":"3.0.0"}`)},
	}
}

func TestEmit_DryRun_Plan(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	res, err := Emit(context.Background(), sampleFiles(), Options{OutDir: dir, DryRun: true})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	want := []string{"api-doc.json", "typings/user.d.ts", "user.ts"}
	if len(res.Planned) != len(want) {
		t.Fatalf("planned %d files, want %d", len(res.Planned), len(want))
	}
	for i, p := range want {
		if res.Planned[i].RelPath != p {
			t.Fatalf("planned[%d] = %s, want %s", i, res.Planned[i].RelPath, p)
		}
	}
	// Dry-run should not have written files
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("expected no files written on dry-run")
	}
}

func TestEmit_WriteAndFormat(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "petstore")
	var formatted []string
	_, err := Emit(context.Background(), sampleFiles(), Options{
		OutDir: dir,
		Format: func(rel string, content []byte) ([]byte, error) {
			formatted = append(formatted, rel)
			return bytes.ToUpper(content), nil
		},
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "user.ts"))
	if err != nil {
		t.Fatalf("read user.ts: %v", err)
	}
	if !strings.Contains(string(data), "EXPORT FUNCTION GETUSERS") {
		t.Fatalf("format hook not applied: %s", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "typings", "user.d.ts")); err != nil {
		t.Fatalf("missing typings file: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "api-doc.json"))
	if err != nil {
		t.Fatalf("read api-doc.json: %v", err)
	}
	if string(raw) != `{"openapi":"3.0.0"}` {
		t.Fatalf("raw document should pass through untouched: %s", raw)
	}
	if len(formatted) != 2 {
		t.Fatalf("format called for %v, want only the .ts files", formatted)
	}
}

func TestEmit_NoForce_NonEmptyDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// create a file to make directory non-empty
	if err := os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("prewrite: %v", err)
	}
	if _, err := Emit(context.Background(), sampleFiles(), Options{OutDir: dir}); err == nil {
		t.Fatalf("expected error on non-empty dir without force")
	}
	if _, err := Emit(context.Background(), sampleFiles(), Options{OutDir: dir, Force: true}); err != nil {
		t.Fatalf("force should overwrite: %v", err)
	}
}

func TestEmit_RequiresOutDir(t *testing.T) {
	t.Parallel()
	if _, err := Emit(context.Background(), sampleFiles(), Options{}); err == nil {
		t.Fatalf("expected error without OutDir")
	}
}
