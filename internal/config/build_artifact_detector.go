// Build artifact detection from language-specific project files.
// Parses package.json, tsconfig.json, Cargo.toml, pyproject.toml and vite configs
// to find output directories whose generated code should stay out of the index.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// BuildArtifactDetector finds language-specific build output directories
type BuildArtifactDetector struct {
	projectRoot string
}

// NewBuildArtifactDetector creates a new build artifact detector
func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectOutputDirectories returns glob patterns such as "**/lib/**" for every
// output directory declared by the project's build files
func (bad *BuildArtifactDetector) DetectOutputDirectories() []string {
	var dirs []string
	dirs = append(dirs, bad.detectJavaScriptOutputs()...)
	dirs = append(dirs, bad.detectRustOutputs()...)
	dirs = append(dirs, bad.detectPythonOutputs()...)

	patterns := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if p := outputDirPattern(dir); p != "" {
			patterns = append(patterns, p)
		}
	}
	return DeduplicatePatterns(patterns)
}

// outputDirPattern turns "./build/js/" into "**/build/js/**". Paths escaping the
// project root are ignored.
func outputDirPattern(dir string) string {
	dir = strings.Trim(strings.TrimSpace(dir), "\"'")
	if dir == "" || filepath.IsAbs(dir) {
		return ""
	}
	dir = filepath.ToSlash(filepath.Clean(dir))
	if dir == "." || strings.HasPrefix(dir, "..") {
		return ""
	}
	return "**/" + dir + "/**"
}

var viteOutDirRegex = regexp.MustCompile(`outDir\s*:\s*['"]([^'"]+)['"]`)

func (bad *BuildArtifactDetector) detectJavaScriptOutputs() []string {
	var dirs []string

	var pkg struct {
		Scripts map[string]string `json:"scripts"`
		Build   struct {
			OutDir string `json:"outDir"`
		} `json:"build"`
	}
	if bad.readJSON("package.json", &pkg) {
		for _, script := range pkg.Scripts {
			parts := strings.Fields(script)
			for i, part := range parts {
				if (part == "--outDir" || part == "-outDir") && i+1 < len(parts) {
					dirs = append(dirs, parts[i+1])
				} else if v, ok := strings.CutPrefix(part, "--outDir="); ok {
					dirs = append(dirs, v)
				}
			}
		}
		if pkg.Build.OutDir != "" {
			dirs = append(dirs, pkg.Build.OutDir)
		}
	}

	var tsconfig struct {
		CompilerOptions struct {
			OutDir         string `json:"outDir"`
			DeclarationDir string `json:"declarationDir"`
		} `json:"compilerOptions"`
	}
	if bad.readJSON("tsconfig.json", &tsconfig) {
		dirs = append(dirs, tsconfig.CompilerOptions.OutDir, tsconfig.CompilerOptions.DeclarationDir)
	}

	for _, name := range []string{"vite.config.js", "vite.config.ts", "vite.config.mjs"} {
		data, err := os.ReadFile(filepath.Join(bad.projectRoot, name))
		if err != nil {
			continue
		}
		for _, m := range viteOutDirRegex.FindAllStringSubmatch(string(data), -1) {
			dirs = append(dirs, m[1])
		}
	}

	return dirs
}

// detectRustOutputs reads target-dir from Cargo.toml profiles and .cargo/config.toml
func (bad *BuildArtifactDetector) detectRustOutputs() []string {
	var dirs []string

	var cargo struct {
		Profile map[string]struct {
			TargetDir string `toml:"target-dir"`
		} `toml:"profile"`
	}
	if bad.readTOML("Cargo.toml", &cargo) {
		for _, profile := range cargo.Profile {
			dirs = append(dirs, profile.TargetDir)
		}
	}

	var cargoConfig struct {
		Build struct {
			TargetDir string `toml:"target-dir"`
		} `toml:"build"`
	}
	if bad.readTOML(filepath.Join(".cargo", "config.toml"), &cargoConfig) {
		dirs = append(dirs, cargoConfig.Build.TargetDir)
	}

	return dirs
}

// detectPythonOutputs reads the poetry build target from pyproject.toml
func (bad *BuildArtifactDetector) detectPythonOutputs() []string {
	var pyproject struct {
		Tool struct {
			Poetry struct {
				Build struct {
					TargetDir string `toml:"target-dir"`
				} `toml:"build"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if !bad.readTOML("pyproject.toml", &pyproject) {
		return nil
	}
	return []string{pyproject.Tool.Poetry.Build.TargetDir}
}

func (bad *BuildArtifactDetector) readJSON(name string, v interface{}) bool {
	data, err := os.ReadFile(filepath.Join(bad.projectRoot, name))
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func (bad *BuildArtifactDetector) readTOML(name string, v interface{}) bool {
	data, err := os.ReadFile(filepath.Join(bad.projectRoot, name))
	if err != nil {
		return false
	}
	return toml.Unmarshal(data, v) == nil
}

// DeduplicatePatterns removes duplicate patterns, keeping first occurrences in order
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	result := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}

	return result
}
