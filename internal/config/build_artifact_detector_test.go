package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProjectFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestBuildArtifactDetector_JavaScript(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "package.json", `{
  "scripts": {"build": "tsc --outDir compiled", "bundle": "esbuild --outDir=bundle"},
  "build": {"outDir": "release"}
}`)
	writeProjectFile(t, root, "tsconfig.json", `{"compilerOptions": {"outDir": "./compiled/", "declarationDir": "types"}}`)
	writeProjectFile(t, root, "vite.config.ts", `export default { build: { outDir: 'web-dist' } }`)

	patterns := NewBuildArtifactDetector(root).DetectOutputDirectories()

	assert.ElementsMatch(t, []string{
		"**/compiled/**",
		"**/bundle/**",
		"**/release/**",
		"**/types/**",
		"**/web-dist/**",
	}, patterns)
}

func TestBuildArtifactDetector_Rust(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "Cargo.toml", `
[package]
name = "demo"

[profile.release]
target-dir = "out/release"
`)
	writeProjectFile(t, root, filepath.Join(".cargo", "config.toml"), `
[build]
target-dir = "cargo-target"
`)

	patterns := NewBuildArtifactDetector(root).DetectOutputDirectories()
	assert.ElementsMatch(t, []string{"**/out/release/**", "**/cargo-target/**"}, patterns)
}

func TestBuildArtifactDetector_Python(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "pyproject.toml", `
[tool.poetry.build]
target-dir = "wheelhouse"
`)

	patterns := NewBuildArtifactDetector(root).DetectOutputDirectories()
	assert.Equal(t, []string{"**/wheelhouse/**"}, patterns)
}

func TestBuildArtifactDetector_IgnoresUnsafeAndBrokenFiles(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "tsconfig.json", `{"compilerOptions": {"outDir": "../outside"}}`)
	writeProjectFile(t, root, "Cargo.toml", `this is not toml = [`)
	writeProjectFile(t, root, "package.json", `{"build": {"outDir": "/abs/path"}}`)

	assert.Empty(t, NewBuildArtifactDetector(root).DetectOutputDirectories())
}

func TestDeduplicatePatterns(t *testing.T) {
	assert.Equal(t,
		[]string{"a", "b", "c"},
		DeduplicatePatterns([]string{"a", "b", "a", "c", "b"}))
	assert.Empty(t, DeduplicatePatterns(nil))
}
