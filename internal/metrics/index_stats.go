package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/standardbeagle/lcc/internal/core"
	"github.com/standardbeagle/lcc/internal/types"
)

// IndexStats summarises the identifier index for status reports
type IndexStats struct {
	TotalFiles        int
	TotalFiletypes    int
	IdentifierRefs    int // Sum of per-file identifier sets
	Identifiers       int // Distinct interned strings
	SyntaxFiletypes   int // Filetypes with ingested syntax keywords
	FiletypeBreakdown map[string]FiletypeStats
}

// FiletypeStats represents metrics for a specific filetype
type FiletypeStats struct {
	FileCount          int
	IdentifierRefs     int
	AverageRefsPerFile float64
}

// NewIndexStats creates an empty IndexStats
func NewIndexStats() *IndexStats {
	return &IndexStats{
		FiletypeBreakdown: make(map[string]FiletypeStats),
	}
}

// CalculateFromDatabase fills the stats from db. Synthetic syntax-keyword files
// are counted in SyntaxFiletypes rather than TotalFiles.
func (s *IndexStats) CalculateFromDatabase(db *core.IdentifierDatabase) {
	overall := db.Stats()
	s.TotalFiletypes = overall.Filetypes
	s.IdentifierRefs = overall.IdentifierRefs
	s.Identifiers = overall.Identifiers
	s.TotalFiles = 0
	s.SyntaxFiletypes = 0
	s.FiletypeBreakdown = make(map[string]FiletypeStats)

	for filetype, st := range db.StatsByFiletype() {
		files := st.Files
		if shard, ok := db.FileShard(filetype, types.SyntaxFilepathPrefix+filetype); ok && shard.Len() > 0 {
			s.SyntaxFiletypes++
			files--
		}
		fs := FiletypeStats{FileCount: files, IdentifierRefs: st.IdentifierRefs}
		if st.Files > 0 {
			fs.AverageRefsPerFile = float64(st.IdentifierRefs) / float64(st.Files)
		}
		s.FiletypeBreakdown[filetype] = fs
		s.TotalFiles += files
	}
}

// Publish copies the totals into the Prometheus gauges
func (s *IndexStats) Publish() {
	IndexedFiles.Set(float64(s.TotalFiles))
	InternedIdentifiers.Set(float64(s.Identifiers))
}

// sortedFiletypes orders filetypes by file count, then name
func (s *IndexStats) sortedFiletypes() []string {
	names := make([]string, 0, len(s.FiletypeBreakdown))
	for name := range s.FiletypeBreakdown {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := s.FiletypeBreakdown[names[i]], s.FiletypeBreakdown[names[j]]
		if a.FileCount != b.FileCount {
			return a.FileCount > b.FileCount
		}
		return names[i] < names[j]
	})
	return names
}

// FormatAsJSON returns stats formatted as JSON-serializable map
func (s *IndexStats) FormatAsJSON() map[string]interface{} {
	filetypes := make([]map[string]interface{}, 0, len(s.FiletypeBreakdown))
	for _, name := range s.sortedFiletypes() {
		st := s.FiletypeBreakdown[name]
		filetypes = append(filetypes, map[string]interface{}{
			"filetype":              name,
			"files":                 st.FileCount,
			"identifier_refs":       st.IdentifierRefs,
			"average_refs_per_file": st.AverageRefsPerFile,
		})
	}

	return map[string]interface{}{
		"summary": map[string]interface{}{
			"total_files":      s.TotalFiles,
			"total_filetypes":  s.TotalFiletypes,
			"identifier_refs":  s.IdentifierRefs,
			"identifiers":      s.Identifiers,
			"syntax_filetypes": s.SyntaxFiletypes,
		},
		"filetypes": filetypes,
	}
}

// FormatAsText returns stats formatted as human-readable text
func (s *IndexStats) FormatAsText() string {
	var sb strings.Builder

	sb.WriteString("IDENTIFIER INDEX\n")
	sb.WriteString("─────────────────────────────────────────────\n")
	sb.WriteString(fmt.Sprintf("  Files:              %d\n", s.TotalFiles))
	sb.WriteString(fmt.Sprintf("  Filetypes:          %d\n", s.TotalFiletypes))
	sb.WriteString(fmt.Sprintf("  Identifier refs:    %d\n", s.IdentifierRefs))
	sb.WriteString(fmt.Sprintf("  Distinct strings:   %d\n", s.Identifiers))
	if s.SyntaxFiletypes > 0 {
		sb.WriteString(fmt.Sprintf("  Keyword sets:       %d\n", s.SyntaxFiletypes))
	}

	if len(s.FiletypeBreakdown) == 0 {
		return sb.String()
	}

	sb.WriteString("\nBY FILETYPE\n")
	sb.WriteString("─────────────────────────────────────────────\n")
	for _, name := range s.sortedFiletypes() {
		st := s.FiletypeBreakdown[name]
		sb.WriteString(fmt.Sprintf("  %-16s %6d files  %9d refs  %7.1f/file\n",
			name+":", st.FileCount, st.IdentifierRefs, st.AverageRefsPerFile))
	}
	return sb.String()
}
