package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeConfigs_ExclusionsMerge(t *testing.T) {
	base := &Config{
		Exclude: []string{"**/node_modules/**", "**/vendor/**", "**/third_party/**"},
	}
	project := &Config{
		Exclude: []string{"**/dist/**", "**/vendor/**"},
	}

	merged := mergeConfigs(base, project)

	// Base first, duplicates dropped
	assert.Equal(t, []string{
		"**/node_modules/**",
		"**/vendor/**",
		"**/third_party/**",
		"**/dist/**",
	}, merged.Exclude)
}

func TestMergeConfigs_InclusionsProjectOverride(t *testing.T) {
	base := &Config{Include: []string{"*.go", "*.js"}}
	project := &Config{Include: []string{"*.py", "*.ts"}}

	merged := mergeConfigs(base, project)
	assert.Equal(t, project.Include, merged.Include)
}

func TestMergeConfigs_InclusionsUseBaseIfProjectEmpty(t *testing.T) {
	base := &Config{Include: []string{"*.go", "*.js"}}
	project := &Config{Include: []string{}}

	merged := mergeConfigs(base, project)
	assert.Equal(t, base.Include, merged.Include)
}

func TestMergeConfigs_TagFilesAccumulate(t *testing.T) {
	base := &Config{Completion: Completion{TagFiles: []string{"/home/u/stdlib.tags"}}}
	project := &Config{Completion: Completion{TagFiles: []string{"/p/tags", "/home/u/stdlib.tags"}}}

	merged := mergeConfigs(base, project)
	assert.Equal(t, []string{"/home/u/stdlib.tags", "/p/tags"}, merged.Completion.TagFiles)
}

func TestMergeConfigs_ProjectSettingsTakePrecedence(t *testing.T) {
	base := &Config{Completion: Completion{MaxCandidates: 5, MinNumChars: 1}}
	project := &Config{Completion: Completion{MaxCandidates: 20, MinNumChars: 3}}

	merged := mergeConfigs(base, project)
	assert.Equal(t, 20, merged.Completion.MaxCandidates)
	assert.Equal(t, 3, merged.Completion.MinNumChars)
	// The inputs are left alone
	assert.Equal(t, 5, base.Completion.MaxCandidates)
}

func TestLoadWithRoot_MergesGlobalAndProjectConfigs(t *testing.T) {
	tmpHome := t.TempDir()
	tmpProject := t.TempDir()
	t.Setenv("HOME", tmpHome)

	globalConfig := `
exclude {
    "**/global_exclude/**"
}
completion {
    max_candidates 7
}
`
	projectConfig := `
exclude {
    "**/dist/**"
}
completion {
    min_num_chars 3
}
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpHome, ConfigFileName), []byte(globalConfig), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpProject, ConfigFileName), []byte(projectConfig), 0644))

	cfg, err := LoadWithRoot("", tmpProject)
	require.NoError(t, err)

	assert.Contains(t, cfg.Exclude, "**/global_exclude/**")
	assert.Contains(t, cfg.Exclude, "**/dist/**")
	assert.Equal(t, 3, cfg.Completion.MinNumChars)
	assert.Equal(t, tmpProject, cfg.Project.Root)
}

func TestLoadWithRoot_ProjectConfigOnly(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tmpProject := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tmpProject, ConfigFileName),
		[]byte("project {\n    name \"only-project\"\n}\n"), 0644))

	cfg, err := LoadWithRoot("", tmpProject)
	require.NoError(t, err)
	assert.Equal(t, "only-project", cfg.Project.Name)
	assert.Equal(t, tmpProject, cfg.Project.Root)
}

func TestLoadWithRoot_GlobalConfigOnly(t *testing.T) {
	tmpHome := t.TempDir()
	tmpProject := t.TempDir()
	t.Setenv("HOME", tmpHome)

	require.NoError(t, os.WriteFile(filepath.Join(tmpHome, ConfigFileName),
		[]byte("completion {\n    max_candidates 42\n}\n"), 0644))

	cfg, err := LoadWithRoot("", tmpProject)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Completion.MaxCandidates)
	// The home directory is not the project
	assert.Equal(t, tmpProject, cfg.Project.Root)
}

func TestLoadWithRoot_DefaultConfigFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tmpProject := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpProject, "tsconfig.json"),
		[]byte(`{"compilerOptions": {"outDir": "./lib"}}`), 0644))

	cfg, err := LoadWithRoot("", tmpProject)
	require.NoError(t, err)

	assert.Equal(t, tmpProject, cfg.Project.Root)
	assert.Contains(t, cfg.Exclude, "**/node_modules/**")
	assert.Contains(t, cfg.Exclude, "**/lib/**")
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadWithRoot_ExplicitPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tmpProject := t.TempDir()
	explicit := filepath.Join(t.TempDir(), "custom.kdl")
	require.NoError(t, os.WriteFile(explicit, []byte("completion {\n    max_candidates 3\n}\n"), 0644))

	cfg, err := LoadWithRoot(explicit, tmpProject)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Completion.MaxCandidates)
	assert.Equal(t, tmpProject, cfg.Project.Root)
}
