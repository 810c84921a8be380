package parser

import (
	"regexp"
	"strings"
)

// defaultIdentifierRegex matches a letter or underscore followed by letters, digits or
// underscores, Unicode aware
var defaultIdentifierRegex = regexp.MustCompile(`[\p{L}_][\p{L}\p{N}_]*`)

// Filetypes whose identifiers do not fit the default pattern. RE2 has no lookaround,
// so these are approximations of each language's lexical rules.
var filetypeIdentifierRegexes = map[string]*regexp.Regexp{
	// CSS properties and classes use hyphens: background-color, -webkit-box
	"css":  regexp.MustCompile(`-?[\p{L}_][\p{L}\p{N}_-]*`),
	"scss": regexp.MustCompile(`-?[\p{L}_][\p{L}\p{N}_-]*`),
	"less": regexp.MustCompile(`-?[\p{L}_][\p{L}\p{N}_-]*`),

	// Element and attribute names, including data-* and namespaced attributes
	"html": regexp.MustCompile(`[a-zA-Z][^\s/>='"}{.]*`),
	"xml":  regexp.MustCompile(`[a-zA-Z_][\w:.-]*`),

	// Dotted names are single identifiers in R
	"r": regexp.MustCompile(`[\p{L}.][\p{L}\p{N}._]*`),

	// Primes are legal in Haskell identifiers
	"haskell": regexp.MustCompile(`[_\p{L}][\p{L}\p{N}_']*`),

	// Lisp family: kebab-case, predicates and bangs
	"lisp":    regexp.MustCompile(`[\p{L}_*+!?<>=/-][\p{L}\p{N}_*+!?<>=/-]*`),
	"scheme":  regexp.MustCompile(`[\p{L}_*+!?<>=/-][\p{L}\p{N}_*+!?<>=/-]*`),
	"clojure": regexp.MustCompile(`[\p{L}_*+!?:.-][\p{L}\p{N}_*+!?:.-]*/?[\p{L}\p{N}_*+!?:.-]*`),

	// Namespaced TeX commands and labels: fig:overview, \begin
	"tex": regexp.MustCompile(`[\p{L}_](?:[\p{L}\p{N}_:-]*[\p{L}\p{N}_])?`),

	// Predicate and bang methods: empty?, save!
	"ruby": regexp.MustCompile(`[\p{L}_][\p{L}\p{N}_]*[?!]?`),
}

// IdentifierRegexForFiletype returns the pattern used to find identifiers in text of
// filetype
func IdentifierRegexForFiletype(filetype string) *regexp.Regexp {
	if re, ok := filetypeIdentifierRegexes[filetype]; ok {
		return re
	}
	return defaultIdentifierRegex
}

// Comment and string syntaxes. Alternatives are tried leftmost-first, so a comment
// marker inside a string literal is consumed as part of the string.
const (
	doubleQuoted   = `"(?:\\.|[^"\\\n])*"`
	singleQuoted   = `'(?:\\.|[^'\\\n])*'`
	backtickQuoted = "`[^`]*`"
	tripleDouble   = `"""(?s:.*?)"""`
	tripleSingle   = `'''(?s:.*?)'''`
	cBlockComment  = `/\*(?s:.*?)\*/`
	cLineComment   = `//[^\n]*`
	hashComment    = `#[^\n]*`
	dashComment    = `--[^\n]*`
	luaBlock       = `--\[\[(?s:.*?)\]\]`
	haskellBlock   = `\{-(?s:.*?)-\}`
	semiComment    = `;[^\n]*`
	percentComment = `%[^\n]*`
	htmlComment    = `<!--(?s:.*?)-->`
)

func alternation(parts ...string) *regexp.Regexp {
	return regexp.MustCompile(strings.Join(parts, "|"))
}

var (
	cStyleCommentsAndStrings = alternation(cBlockComment, cLineComment, doubleQuoted, singleQuoted, backtickQuoted)
	hashCommentsAndStrings   = alternation(tripleDouble, tripleSingle, doubleQuoted, singleQuoted, hashComment)
	defaultCommentsAndString = alternation(cBlockComment, cLineComment, tripleDouble, tripleSingle, doubleQuoted, singleQuoted, hashComment)

	filetypeCommentRegexes = map[string]*regexp.Regexp{
		"c":               cStyleCommentsAndStrings,
		"cpp":             cStyleCommentsAndStrings,
		"objc":            cStyleCommentsAndStrings,
		"objcpp":          cStyleCommentsAndStrings,
		"cs":              cStyleCommentsAndStrings,
		"java":            cStyleCommentsAndStrings,
		"javascript":      cStyleCommentsAndStrings,
		"typescript":      cStyleCommentsAndStrings,
		"javascriptreact": cStyleCommentsAndStrings,
		"typescriptreact": cStyleCommentsAndStrings,
		"go":              cStyleCommentsAndStrings,
		"rust":            alternation(cBlockComment, cLineComment, doubleQuoted),
		"zig":             alternation(cLineComment, doubleQuoted, singleQuoted),
		"swift":           cStyleCommentsAndStrings,
		"kotlin":          cStyleCommentsAndStrings,
		"scala":           cStyleCommentsAndStrings,
		"dart":            cStyleCommentsAndStrings,
		"proto":           cStyleCommentsAndStrings,
		"php":             alternation(cBlockComment, cLineComment, hashComment, doubleQuoted, singleQuoted),
		"css":             alternation(cBlockComment, doubleQuoted, singleQuoted),
		"scss":            alternation(cBlockComment, cLineComment, doubleQuoted, singleQuoted),
		"less":            alternation(cBlockComment, cLineComment, doubleQuoted, singleQuoted),
		"python":          hashCommentsAndStrings,
		"ruby":            hashCommentsAndStrings,
		"sh":              hashCommentsAndStrings,
		"zsh":             hashCommentsAndStrings,
		"perl":            hashCommentsAndStrings,
		"r":               hashCommentsAndStrings,
		"yaml":            hashCommentsAndStrings,
		"toml":            hashCommentsAndStrings,
		"cmake":           hashCommentsAndStrings,
		"make":            hashCommentsAndStrings,
		"dockerfile":      hashCommentsAndStrings,
		"elixir":          hashCommentsAndStrings,
		"nim":             hashCommentsAndStrings,
		"graphql":         hashCommentsAndStrings,
		"lua":             alternation(luaBlock, dashComment, doubleQuoted, singleQuoted),
		"sql":             alternation(cBlockComment, dashComment, doubleQuoted, singleQuoted),
		"haskell":         alternation(haskellBlock, dashComment, doubleQuoted),
		"lisp":            alternation(semiComment, doubleQuoted),
		"scheme":          alternation(semiComment, doubleQuoted),
		"clojure":         alternation(semiComment, doubleQuoted),
		"erlang":          alternation(percentComment, doubleQuoted),
		"tex":             alternation(percentComment),
		"vim":             alternation(`(?m)^\s*"[^\n]*`, singleQuoted),
		"html":            alternation(htmlComment, doubleQuoted, singleQuoted),
		"xml":             alternation(htmlComment, doubleQuoted, singleQuoted),
	}
)

// RemoveCommentsAndStrings blanks out comments and string literals in text. Line breaks
// inside removed regions are kept so line numbers stay stable.
func RemoveCommentsAndStrings(text, filetype string) string {
	re, ok := filetypeCommentRegexes[filetype]
	if !ok {
		re = defaultCommentsAndString
	}
	return re.ReplaceAllStringFunc(text, func(match string) string {
		newlines := strings.Count(match, "\n")
		if newlines == 0 {
			return " "
		}
		return strings.Repeat("\n", newlines)
	})
}

// ExtractIdentifiersFromText returns the distinct identifiers in text in order of first
// appearance, using the filetype's identifier pattern
func ExtractIdentifiersFromText(text, filetype string) []string {
	matches := IdentifierRegexForFiletype(filetype).FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	return dedupStrings(matches)
}

// IdentifierUnderCursor returns the identifier containing byte offset column of line, or
// the first identifier after it. Returns "" when there is none.
func IdentifierUnderCursor(line string, column int, filetype string) string {
	if column < 0 || column > len(line) {
		return ""
	}
	for _, loc := range IdentifierRegexForFiletype(filetype).FindAllStringIndex(line, -1) {
		if loc[1] > column {
			return line[loc[0]:loc[1]]
		}
	}
	return ""
}

// QueryAtCursor returns the part of the identifier that ends at byte offset column of
// line: the text the user has typed so far and wants completed.
func QueryAtCursor(line string, column int, filetype string) string {
	if column <= 0 || column > len(line) {
		return ""
	}
	for _, loc := range IdentifierRegexForFiletype(filetype).FindAllStringIndex(line[:column], -1) {
		if loc[1] == column {
			return line[loc[0]:column]
		}
	}
	return ""
}

func dedupStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
