package dev

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBundler_FirstBuildListsAllModules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.js", "console.log('index')")
	writeFile(t, dir, "routes/base.js", "export const routes = []")

	b := NewBundler(BundlerConfig{AppDir: dir})
	result := b.Build(context.Background())

	if !result.Success {
		t.Fatalf("Build failed: %s", result.Output)
	}
	if result.Hash == "" {
		t.Error("Expected a build hash")
	}
	if len(result.Changed) != 2 {
		t.Errorf("Expected 2 changed modules, got %v", result.Changed)
	}
}

func TestBundler_DetectsChangedModule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.js", "console.log('v1')")
	writeFile(t, dir, "routes/base.js", "export const routes = []")

	b := NewBundler(BundlerConfig{AppDir: dir})
	first := b.Build(context.Background())
	if !first.Success {
		t.Fatalf("First build failed: %s", first.Output)
	}

	writeFile(t, dir, "index.js", "console.log('v2')")
	second := b.Build(context.Background())
	if !second.Success {
		t.Fatalf("Second build failed: %s", second.Output)
	}

	if len(second.Changed) != 1 || second.Changed[0] != "index.js" {
		t.Errorf("Expected only index.js changed, got %v", second.Changed)
	}
	if second.Hash == first.Hash {
		t.Error("Build hash should change when a module changes")
	}
}

func TestBundler_UnchangedBuildKeepsHash(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.js", "console.log('stable')")

	b := NewBundler(BundlerConfig{AppDir: dir})
	first := b.Build(context.Background())
	second := b.Build(context.Background())

	if second.Hash != first.Hash {
		t.Error("Hash should be stable across identical builds")
	}
	if len(second.Changed) != 0 {
		t.Errorf("Expected no changed modules, got %v", second.Changed)
	}
}

func TestBundler_RemovedModuleChangesHash(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.js", "console.log('index')")
	extra := writeFile(t, dir, "extra.js", "console.log('extra')")

	b := NewBundler(BundlerConfig{AppDir: dir})
	first := b.Build(context.Background())

	if err := os.Remove(extra); err != nil {
		t.Fatal(err)
	}
	second := b.Build(context.Background())

	if second.Hash == first.Hash {
		t.Error("Hash should change when a module is removed")
	}
	found := false
	for _, id := range second.Changed {
		if id == "extra.js" {
			found = true
		}
	}
	if !found {
		t.Errorf("Removed module should be reported changed, got %v", second.Changed)
	}
}

func TestBundler_EmptyGraphFails(t *testing.T) {
	dir := t.TempDir()

	b := NewBundler(BundlerConfig{AppDir: dir})
	result := b.Build(context.Background())

	if result.Success {
		t.Error("Expected failure for empty source directory")
	}
	if result.Err == nil {
		t.Error("Expected an error for empty source directory")
	}
}

func TestBundler_EntryConcatenatesScripts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.js", "var a = 1")
	writeFile(t, dir, "b.js", "var b = 2")
	writeFile(t, dir, "styles.css", "body {}")

	b := NewBundler(BundlerConfig{AppDir: dir})
	if result := b.Build(context.Background()); !result.Success {
		t.Fatalf("Build failed: %s", result.Output)
	}

	data, contentType, ok := b.Asset(EntryName)
	if !ok {
		t.Fatal("Entry asset not found")
	}
	if !strings.Contains(contentType, "javascript") {
		t.Errorf("Unexpected content type %q", contentType)
	}

	bundle := string(data)
	if !strings.Contains(bundle, "var a = 1") || !strings.Contains(bundle, "var b = 2") {
		t.Error("Entry bundle should contain all script modules")
	}
	if strings.Contains(bundle, "body {}") {
		t.Error("Entry bundle should not contain styles")
	}
	if strings.Index(bundle, "var a = 1") > strings.Index(bundle, "var b = 2") {
		t.Error("Entry bundle should concatenate modules in sorted order")
	}
}

func TestBundler_ServesIndividualModules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "styles.css", "body { margin: 0 }")

	b := NewBundler(BundlerConfig{AppDir: dir})
	if result := b.Build(context.Background()); !result.Success {
		t.Fatalf("Build failed: %s", result.Output)
	}

	data, contentType, ok := b.Asset("styles.css")
	if !ok {
		t.Fatal("styles.css not found")
	}
	if string(data) != "body { margin: 0 }" {
		t.Errorf("Unexpected content: %q", data)
	}
	if !strings.Contains(contentType, "css") {
		t.Errorf("Unexpected content type %q", contentType)
	}

	if _, _, ok := b.Asset("missing.js"); ok {
		t.Error("Missing module should not resolve")
	}
}

func TestBundler_BeforeFirstBuild(t *testing.T) {
	b := NewBundler(BundlerConfig{AppDir: t.TempDir()})

	if b.Hash() != "" {
		t.Error("Hash should be empty before the first build")
	}
	if _, _, ok := b.Asset(EntryName); ok {
		t.Error("Entry should not resolve before the first build")
	}
}
