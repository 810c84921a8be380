package parser

import (
	"path/filepath"
	"strings"
)

// Filetype names follow editor conventions so that requests carrying an editor's
// filetype and files discovered on disk land in the same index partition.
const (
	FiletypeGo              = "go"
	FiletypePython          = "python"
	FiletypeJavaScript      = "javascript"
	FiletypeJavaScriptReact = "javascriptreact"
	FiletypeTypeScript      = "typescript"
	FiletypeTypeScriptReact = "typescriptreact"
	FiletypeRust            = "rust"
	FiletypeJava            = "java"
	FiletypeC               = "c"
	FiletypeCpp             = "cpp"
	FiletypeCSharp          = "cs"
	FiletypePHP             = "php"
	FiletypeZig             = "zig"
)

var extensionFiletypes = map[string]string{
	".go":    FiletypeGo,
	".py":    FiletypePython,
	".pyi":   FiletypePython,
	".js":    FiletypeJavaScript,
	".mjs":   FiletypeJavaScript,
	".cjs":   FiletypeJavaScript,
	".jsx":   FiletypeJavaScriptReact,
	".ts":    FiletypeTypeScript,
	".mts":   FiletypeTypeScript,
	".cts":   FiletypeTypeScript,
	".tsx":   FiletypeTypeScriptReact,
	".rs":    FiletypeRust,
	".java":  FiletypeJava,
	".c":     FiletypeC,
	".h":     FiletypeC,
	".cpp":   FiletypeCpp,
	".cc":    FiletypeCpp,
	".cxx":   FiletypeCpp,
	".hpp":   FiletypeCpp,
	".hh":    FiletypeCpp,
	".hxx":   FiletypeCpp,
	".cs":    FiletypeCSharp,
	".php":   FiletypePHP,
	".phtml": FiletypePHP,
	".zig":   FiletypeZig,

	// Regex-only filetypes
	".rb":      "ruby",
	".lua":     "lua",
	".css":     "css",
	".scss":    "scss",
	".less":    "less",
	".html":    "html",
	".htm":     "html",
	".xml":     "xml",
	".sh":      "sh",
	".bash":    "sh",
	".zsh":     "zsh",
	".pl":      "perl",
	".pm":      "perl",
	".r":       "r",
	".hs":      "haskell",
	".el":      "lisp",
	".lisp":    "lisp",
	".scm":     "scheme",
	".clj":     "clojure",
	".cljs":    "clojure",
	".swift":   "swift",
	".kt":      "kotlin",
	".kts":     "kotlin",
	".scala":   "scala",
	".m":       "objc",
	".mm":      "objcpp",
	".dart":    "dart",
	".ex":      "elixir",
	".exs":     "elixir",
	".erl":     "erlang",
	".nim":     "nim",
	".tex":     "tex",
	".vim":     "vim",
	".sql":     "sql",
	".yaml":    "yaml",
	".yml":     "yaml",
	".toml":    "toml",
	".cmake":   "cmake",
	".proto":   "proto",
	".graphql": "graphql",
}

var basenameFiletypes = map[string]string{
	"Makefile":       "make",
	"makefile":       "make",
	"GNUmakefile":    "make",
	"CMakeLists.txt": "cmake",
	"Dockerfile":     "dockerfile",
	"Rakefile":       "ruby",
	"Gemfile":        "ruby",
}

// FiletypeForPath returns the filetype for path, or "" when it is not a recognised
// source file
func FiletypeForPath(path string) string {
	base := filepath.Base(path)
	if ft, ok := basenameFiletypes[base]; ok {
		return ft
	}
	return extensionFiletypes[strings.ToLower(filepath.Ext(base))]
}

// HasGrammar reports whether identifiers of filetype are extracted with a syntax tree
// rather than the regex fallback
func HasGrammar(filetype string) bool {
	_, ok := grammarForFiletype(filetype)
	return ok
}

// KnownExtensions returns every file extension FiletypeForPath recognises
func KnownExtensions() []string {
	out := make([]string, 0, len(extensionFiletypes))
	for ext := range extensionFiletypes {
		out = append(out, ext)
	}
	return out
}
