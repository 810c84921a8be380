package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"

	lccerrors "github.com/standardbeagle/lcc/internal/errors"
	"github.com/standardbeagle/lcc/internal/match"
	"github.com/standardbeagle/lcc/internal/types"
)

// maxConfigurableFileSize caps index.max_file_size
const maxConfigurableFileSize = 100 * 1024 * 1024

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults
// Returns an error if validation fails
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProjectConfig(&cfg.Project); err != nil {
		return lccerrors.NewConfigError("project", cfg.Project.Root, err)
	}

	if err := v.validateIndexConfig(&cfg.Index); err != nil {
		return lccerrors.NewConfigError("index", "", err)
	}

	if err := v.validateCompletionConfig(&cfg.Completion); err != nil {
		return lccerrors.NewConfigError("completion", "", err)
	}

	if err := v.validatePerformanceConfig(&cfg.Performance); err != nil {
		return lccerrors.NewConfigError("performance", "", err)
	}

	for _, pattern := range append(append([]string{}, cfg.Include...), cfg.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return lccerrors.NewConfigError("pattern", pattern, errors.New("invalid glob pattern"))
		}
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProjectConfig(project *Project) error {
	if project.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateIndexConfig(index *Index) error {
	if index.MaxFileSize <= 0 {
		return fmt.Errorf("MaxFileSize must be positive, got %d", index.MaxFileSize)
	}

	if index.MaxFileSize > maxConfigurableFileSize {
		return fmt.Errorf("MaxFileSize should not exceed 100MB, got %d", index.MaxFileSize)
	}

	if index.MaxFileCount <= 0 {
		return fmt.Errorf("MaxFileCount must be positive, got %d", index.MaxFileCount)
	}

	if index.WatchDebounceMs < 0 {
		return fmt.Errorf("WatchDebounceMs cannot be negative, got %d", index.WatchDebounceMs)
	}

	return nil
}

func (v *Validator) validateCompletionConfig(c *Completion) error {
	if c.MinNumChars < 0 {
		return fmt.Errorf("MinNumChars cannot be negative, got %d", c.MinNumChars)
	}

	if c.MaxCandidates < 0 {
		return fmt.Errorf("MaxCandidates cannot be negative, got %d", c.MaxCandidates)
	}

	if c.MaxIdentifierLength < 0 {
		return fmt.Errorf("MaxIdentifierLength cannot be negative, got %d", c.MaxIdentifierLength)
	}

	if c.MinIdentifierCandidateChars < 0 {
		return fmt.Errorf("MinIdentifierCandidateChars cannot be negative, got %d", c.MinIdentifierCandidateChars)
	}

	switch c.SimilarityAlgorithm {
	case "", match.AlgorithmJaroWinkler, match.AlgorithmLevenshtein, match.AlgorithmNone:
	default:
		return fmt.Errorf("unknown SimilarityAlgorithm %q, expected %q, %q or %q", c.SimilarityAlgorithm,
			match.AlgorithmJaroWinkler, match.AlgorithmLevenshtein, match.AlgorithmNone)
	}

	return nil
}

func (v *Validator) validatePerformanceConfig(perf *Performance) error {
	// ParallelFileWorkers: 0 means auto-detect (will be set by smart defaults)
	if perf.ParallelFileWorkers < 0 {
		return fmt.Errorf("ParallelFileWorkers cannot be negative, got %d", perf.ParallelFileWorkers)
	}

	if perf.IndexingTimeoutSec < 0 {
		return fmt.Errorf("IndexingTimeoutSec cannot be negative, got %d", perf.IndexingTimeoutSec)
	}

	return nil
}

// setSmartDefaults fills zero values that mean "pick for me"
func (v *Validator) setSmartDefaults(cfg *Config) {
	// Leave one core free for the editor
	if cfg.Performance.ParallelFileWorkers == 0 {
		cfg.Performance.ParallelFileWorkers = max(1, runtime.NumCPU()-1)
	}

	if cfg.Completion.MaxIdentifierLength == 0 {
		cfg.Completion.MaxIdentifierLength = types.DefaultMaxIdentifierLength
	}

	if cfg.Completion.MaxCandidates == 0 {
		cfg.Completion.MaxCandidates = types.DefaultMaxCandidates
	}

	if cfg.Completion.SimilarityAlgorithm == "" {
		cfg.Completion.SimilarityAlgorithm = match.AlgorithmJaroWinkler
	}

	if cfg.Server.ShutdownTimeoutSec <= 0 {
		cfg.Server.ShutdownTimeoutSec = 5
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}
