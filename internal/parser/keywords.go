package parser

import "sort"

var javascriptKeywords = []string{
	"async", "await", "break", "case", "catch", "class", "const", "continue",
	"debugger", "default", "delete", "do", "else", "export", "extends", "false",
	"finally", "for", "function", "if", "import", "in", "instanceof", "let", "new",
	"null", "return", "static", "super", "switch", "this", "throw", "true", "try",
	"typeof", "undefined", "var", "void", "while", "yield",
}

var typescriptKeywords = append(append([]string{}, javascriptKeywords...),
	"abstract", "any", "as", "boolean", "declare", "enum", "implements",
	"interface", "keyof", "namespace", "never", "number", "private", "protected",
	"public", "readonly", "string", "type", "unknown",
)

var cKeywords = []string{
	"auto", "break", "case", "char", "const", "continue", "default", "do",
	"double", "else", "enum", "extern", "float", "for", "goto", "if", "inline",
	"int", "long", "register", "restrict", "return", "short", "signed", "sizeof",
	"static", "struct", "switch", "typedef", "union", "unsigned", "void",
	"volatile", "while",
}

var cppKeywords = append(append([]string{}, cKeywords...),
	"bool", "catch", "class", "constexpr", "const_cast", "decltype", "delete",
	"dynamic_cast", "explicit", "false", "friend", "mutable", "namespace", "new",
	"noexcept", "nullptr", "operator", "override", "private", "protected",
	"public", "reinterpret_cast", "static_assert", "static_cast", "template",
	"this", "throw", "true", "try", "typename", "using", "virtual",
)

// Keyword lists offered as completions when syntax keywords are enabled
var filetypeKeywords = map[string][]string{
	FiletypeGo: {
		"break", "case", "chan", "const", "continue", "default", "defer", "else",
		"fallthrough", "for", "func", "go", "goto", "if", "import", "interface",
		"map", "package", "range", "return", "select", "struct", "switch", "type",
		"var",
	},
	FiletypePython: {
		"False", "None", "True", "and", "as", "assert", "async", "await", "break",
		"class", "continue", "def", "del", "elif", "else", "except", "finally",
		"for", "from", "global", "if", "import", "in", "is", "lambda", "nonlocal",
		"not", "or", "pass", "raise", "return", "try", "while", "with", "yield",
	},
	FiletypeJavaScript:      javascriptKeywords,
	FiletypeJavaScriptReact: javascriptKeywords,
	FiletypeTypeScript:      typescriptKeywords,
	FiletypeTypeScriptReact: typescriptKeywords,
	FiletypeRust: {
		"as", "async", "await", "break", "const", "continue", "crate", "dyn",
		"else", "enum", "extern", "false", "fn", "for", "if", "impl", "in", "let",
		"loop", "match", "mod", "move", "mut", "pub", "ref", "return", "self",
		"Self", "static", "struct", "super", "trait", "true", "type", "unsafe",
		"use", "where", "while",
	},
	FiletypeJava: {
		"abstract", "assert", "boolean", "break", "byte", "case", "catch", "char",
		"class", "continue", "default", "do", "double", "else", "enum", "extends",
		"final", "finally", "float", "for", "if", "implements", "import",
		"instanceof", "int", "interface", "long", "native", "new", "package",
		"private", "protected", "public", "return", "short", "static", "super",
		"switch", "synchronized", "this", "throw", "throws", "transient", "try",
		"void", "volatile", "while",
	},
	FiletypeC:   cKeywords,
	FiletypeCpp: cppKeywords,
	FiletypeCSharp: {
		"abstract", "as", "async", "await", "base", "bool", "break", "case",
		"catch", "class", "const", "continue", "default", "delegate", "do",
		"else", "enum", "event", "explicit", "extern", "false", "finally", "for",
		"foreach", "if", "implicit", "in", "interface", "internal", "is", "lock",
		"namespace", "new", "null", "operator", "out", "override", "params",
		"private", "protected", "public", "readonly", "ref", "return", "sealed",
		"static", "string", "struct", "switch", "this", "throw", "true", "try",
		"typeof", "using", "var", "virtual", "void", "while",
	},
	FiletypePHP: {
		"abstract", "array", "as", "break", "case", "catch", "class", "clone",
		"const", "continue", "declare", "default", "do", "echo", "else", "elseif",
		"empty", "extends", "final", "finally", "fn", "for", "foreach", "function",
		"global", "if", "implements", "include", "instanceof", "interface",
		"isset", "match", "namespace", "new", "private", "protected", "public",
		"require", "return", "static", "switch", "throw", "trait", "try", "unset",
		"use", "while", "yield",
	},
	FiletypeZig: {
		"align", "and", "anyframe", "anytype", "break", "catch", "comptime",
		"const", "continue", "defer", "else", "enum", "errdefer", "error",
		"export", "extern", "fn", "for", "if", "inline", "noalias", "or",
		"orelse", "packed", "pub", "resume", "return", "struct", "suspend",
		"switch", "test", "threadlocal", "try", "union", "unreachable",
		"usingnamespace", "var", "volatile", "while",
	},
}

// KeywordsForFiletype returns the language keywords for filetype, or nil.
// The returned slice is shared and must not be modified.
func KeywordsForFiletype(filetype string) []string {
	return filetypeKeywords[filetype]
}

// KeywordFiletypes lists the filetypes with a built-in keyword list, sorted
func KeywordFiletypes() []string {
	out := make([]string, 0, len(filetypeKeywords))
	for ft := range filetypeKeywords {
		out = append(out, ft)
	}
	sort.Strings(out)
	return out
}
