package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/lcc/internal/debug"
	lccerrors "github.com/standardbeagle/lcc/internal/errors"
)

// LoadKDL attempts to load configuration from the .lcc.kdl file in projectRoot.
// It returns nil, nil when the file does not exist.
func LoadKDL(projectRoot string) (*Config, error) {
	return LoadKDLFile(filepath.Join(projectRoot, ConfigFileName), projectRoot)
}

// LoadKDLFile loads an explicit config file. A relative project root in the file
// is resolved against projectRoot.
func LoadKDLFile(kdlPath, projectRoot string) (*Config, error) {
	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil // No KDL config found, use defaults
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, lccerrors.NewFileError("read", kdlPath, err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, lccerrors.NewConfigError(kdlPath, "", err)
	}

	// Resolve relative paths relative to the directory the caller searched
	if cfg.Project.Root != "" {
		root := cfg.Project.Root
		if !filepath.IsAbs(root) {
			root = filepath.Join(projectRoot, root)
		}
		cfg.Project.Root = absOrSelf(filepath.Clean(root))
	} else {
		cfg.Project.Root = absOrSelf(projectRoot)
	}

	for i, tagFile := range cfg.Completion.TagFiles {
		if !filepath.IsAbs(tagFile) {
			cfg.Completion.TagFiles[i] = filepath.Join(cfg.Project.Root, tagFile)
		}
	}

	// Enrich exclusions with language-specific build artifacts
	cfg.EnrichExclusionsWithBuildArtifacts()

	debug.Log(debug.ComponentConfig, "loaded %s (root=%s)", kdlPath, cfg.Project.Root)
	return cfg, nil
}

// parseKDL builds a Config from KDL text. Nodes that are absent keep their
// default values; an exclude block replaces the default exclusions.
func parseKDL(content string) (*Config, error) {
	cfg := Default("")

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "project":
			for _, cn := range n.Children { // project { root "." name "foo" }
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "index":
			parseIndexNode(cfg, n)
		case "completion":
			parseCompletionNode(cfg, n)
		case "performance":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "parallel_file_workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.ParallelFileWorkers = v
					}
				case "indexing_timeout_sec":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.IndexingTimeoutSec = v
					}
				}
			}
		case "server":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "socket_path":
					if s, ok := firstStringArg(cn); ok {
						cfg.Server.SocketPath = s
					}
				case "metrics_enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Server.MetricsEnabled = b
					}
				case "shutdown_timeout_sec":
					if v, ok := firstIntArg(cn); ok {
						cfg.Server.ShutdownTimeoutSec = v
					}
				}
			}
		case "include":
			cfg.Include = append(cfg.Include, collectStringArgs(n)...)
		case "exclude":
			// Replace default exclusions if exclude block is present
			cfg.Exclude = collectStringArgs(n)
		}
	}

	return cfg, nil
}

func parseIndexNode(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "max_file_size":
			if v, ok := firstIntArg(cn); ok {
				cfg.Index.MaxFileSize = int64(v)
			}
			if s, ok := firstStringArg(cn); ok {
				if sz, err := parseSize(s); err == nil {
					cfg.Index.MaxFileSize = sz
				} else {
					debug.Log(debug.ComponentConfig, "invalid max_file_size %q: %v", s, err)
				}
			}
		case "max_file_count":
			if v, ok := firstIntArg(cn); ok {
				cfg.Index.MaxFileCount = v
			}
		case "follow_symlinks":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Index.FollowSymlinks = b
			}
		case "respect_gitignore":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Index.RespectGitignore = b
			}
		case "scan_on_start":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Index.ScanOnStart = b
			}
		case "watch_mode":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Index.WatchMode = b
			}
		case "watch_debounce_ms":
			if v, ok := firstIntArg(cn); ok {
				cfg.Index.WatchDebounceMs = v
			}
		}
	}
}

func parseCompletionNode(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "min_num_chars":
			if v, ok := firstIntArg(cn); ok {
				cfg.Completion.MinNumChars = v
			}
		case "max_candidates":
			if v, ok := firstIntArg(cn); ok {
				cfg.Completion.MaxCandidates = v
			}
		case "max_identifier_length":
			if v, ok := firstIntArg(cn); ok {
				cfg.Completion.MaxIdentifierLength = v
			}
		case "min_identifier_candidate_chars":
			if v, ok := firstIntArg(cn); ok {
				cfg.Completion.MinIdentifierCandidateChars = v
			}
		case "collect_from_comments_and_strings":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Completion.CollectFromCommentsAndStrings = b
			}
		case "syntax_keywords":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Completion.SyntaxKeywords = b
			}
		case "similarity_algorithm":
			if s, ok := firstStringArg(cn); ok {
				cfg.Completion.SimilarityAlgorithm = s
			}
		case "tag_files":
			cfg.Completion.TagFiles = append(cfg.Completion.TagFiles, collectStringArgs(cn)...)
		}
	}
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case bool:
		return v, true
	case string:
		return parseBool(v), true
	default:
		return false, false
	}
}

// collectStringArgs accepts both the inline form (exclude "a" "b") and the block
// form (exclude { "a"; "b" }), where each string is a child node name.
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB"
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return 0, err
	}

	return num * multiplier, nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}

func absOrSelf(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
