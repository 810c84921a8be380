package config

import (
	"os"

	"github.com/standardbeagle/lcc/internal/types"
)

// ConfigFileName is the name of the KDL config file looked up in the home and
// project directories
const ConfigFileName = ".lcc.kdl"

type Config struct {
	Version     int
	Project     Project
	Index       Index
	Completion  Completion
	Performance Performance
	Server      Server
	Include     []string
	Exclude     []string
}

type Project struct {
	Root string
	Name string
}

type Index struct {
	MaxFileSize      int64
	MaxFileCount     int
	FollowSymlinks   bool
	RespectGitignore bool // Process .gitignore files for additional exclusions
	ScanOnStart      bool // Bulk ingest the project when the server starts
	WatchMode        bool // Keep the index in sync with file system changes
	WatchDebounceMs  int  // Debounce time for file change events
}

// Completion controls how completion requests are answered
type Completion struct {
	MinNumChars                   int  // Query length below which no identifier completion is offered
	MaxCandidates                 int  // Candidates returned per request
	MaxIdentifierLength           int  // Longest identifier the index will store (bytes)
	MinIdentifierCandidateChars   int  // Candidates shorter than this are dropped; 0 disables
	CollectFromCommentsAndStrings bool // Harvest words from comments and string literals too
	SyntaxKeywords                bool // Offer language keywords alongside identifiers
	SimilarityAlgorithm           string
	TagFiles                      []string // ctags files ingested at startup
}

type Performance struct {
	ParallelFileWorkers int // 0 = auto-detect (NumCPU)
	IndexingTimeoutSec  int // Timeout for the startup scan in seconds
}

// Server controls the unix socket request server
type Server struct {
	SocketPath         string // Empty = derived from the project root
	MetricsEnabled     bool
	ShutdownTimeoutSec int
}

func Load(path string) (*Config, error) {
	return LoadWithRoot(path, "")
}

// LoadWithRoot loads ~/.lcc.kdl as a base and rootDir/.lcc.kdl as overrides. With
// neither present the defaults for rootDir are returned.
func LoadWithRoot(path string, rootDir string) (*Config, error) {
	// Determine search directory for config files
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	}
	if path != "" {
		cfg, err := LoadKDLFile(path, searchDir)
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			return cfg, nil
		}
	}

	// Step 1: Load global base config from ~/.lcc.kdl (if exists)
	homeDir, err := os.UserHomeDir()
	var baseConfig *Config
	if err == nil {
		if globalCfg, err := LoadKDL(homeDir); err == nil && globalCfg != nil {
			baseConfig = globalCfg
		}
	}

	// Step 2: Load project-specific config from project directory
	var projectConfig *Config
	if kdlCfg, err := LoadKDL(searchDir); err == nil && kdlCfg != nil {
		projectConfig = kdlCfg
	} else if err != nil {
		return nil, err
	}

	// Step 3: Merge configs (project overrides base, but preserve base exclusions)
	if baseConfig != nil && projectConfig != nil {
		return mergeConfigs(baseConfig, projectConfig), nil
	} else if projectConfig != nil {
		return projectConfig, nil
	} else if baseConfig != nil {
		// Use base config but update project root
		baseConfig.Project.Root = absOrSelf(searchDir)
		baseConfig.EnrichExclusionsWithBuildArtifacts()
		return baseConfig, nil
	}

	cfg := Default(absOrSelf(searchDir))
	cfg.EnrichExclusionsWithBuildArtifacts()
	return cfg, nil
}

// Default returns the built-in configuration for a project rooted at root
func Default(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{
			Root: root,
		},
		Index: Index{
			MaxFileSize:      types.DefaultMaxFileSize,
			MaxFileCount:     types.DefaultMaxFileCount,
			FollowSymlinks:   false,
			RespectGitignore: true,
			ScanOnStart:      true,
			WatchMode:        true,
			WatchDebounceMs:  300,
		},
		Completion: Completion{
			MinNumChars:                   types.DefaultMinNumChars,
			MaxCandidates:                 types.DefaultMaxCandidates,
			MaxIdentifierLength:           types.DefaultMaxIdentifierLength,
			MinIdentifierCandidateChars:   0,
			CollectFromCommentsAndStrings: false,
			SyntaxKeywords:                true,
			SimilarityAlgorithm:           "jaro-winkler",
		},
		Performance: Performance{
			ParallelFileWorkers: 0,
			IndexingTimeoutSec:  120,
		},
		Server: Server{
			MetricsEnabled:     true,
			ShutdownTimeoutSec: 5,
		},
		Include: []string{},
		Exclude: getDefaultExclusions(),
	}
}

// mergeConfigs merges a base config with a project config
// Project config takes precedence, but base exclusions are preserved
func mergeConfigs(base, project *Config) *Config {
	// Start with a copy of the project config
	merged := *project

	// Merge exclusions: base first, then project, duplicates dropped
	if len(base.Exclude) > 0 {
		combined := make([]string, 0, len(base.Exclude)+len(project.Exclude))
		combined = append(combined, base.Exclude...)
		combined = append(combined, project.Exclude...)
		merged.Exclude = DeduplicatePatterns(combined)
	}

	// Merge inclusions: project overrides base completely if specified
	if len(project.Include) == 0 && len(base.Include) > 0 {
		merged.Include = base.Include
	}

	// Tag files accumulate like exclusions
	if len(base.Completion.TagFiles) > 0 {
		tags := append(append([]string{}, base.Completion.TagFiles...), project.Completion.TagFiles...)
		merged.Completion.TagFiles = DeduplicatePatterns(tags)
	}

	return &merged
}

// EnrichExclusionsWithBuildArtifacts detects build output directories from language configs
// and adds them to the exclusion list
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" {
		return // No project root set, skip detection
	}

	detector := NewBuildArtifactDetector(c.Project.Root)
	detectedPatterns := detector.DetectOutputDirectories()

	if len(detectedPatterns) > 0 {
		c.Exclude = DeduplicatePatterns(append(c.Exclude, detectedPatterns...))
	}
}

func getDefaultExclusions() []string {
	return []string{
		// Git metadata and other hidden directories
		"**/.git/**",
		"**/.*/**",

		// Package managers & dependencies
		"**/node_modules/**",
		"**/vendor/**",
		"**/bower_components/**",
		"**/jspm_packages/**",
		"**/site-packages/**",
		"**/venv/**",

		// Build artifacts & output
		"**/dist/**",
		"**/build/**",
		"**/out/**",
		"**/target/**", // Rust, Java
		"**/bin/**",
		"**/obj/**", // .NET
		"**/*.min.js",
		"**/*.min.css",
		"**/*.bundle.js",
		"**/*.chunk.js",
		"**/*.map",

		// Python compiled files
		"**/__pycache__/**",
		"**/*.pyc",

		// Editor temp files
		"**/*.swp",
		"**/*.swo",
		"**/*~",

		// Logs
		"**/logs/**",
		"**/*.log",
	}
}
