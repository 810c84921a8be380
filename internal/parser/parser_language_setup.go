package parser

import (
	"unsafe"

	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Language identifies a tree-sitter grammar. Several filetypes can share one grammar.
type Language string

const (
	LanguageGo         Language = "go"
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageTSX        Language = "tsx"
	LanguageRust       Language = "rust"
	LanguageJava       Language = "java"
	LanguageCpp        Language = "cpp"
	LanguageCSharp     Language = "csharp"
	LanguageZig        Language = "zig"
	LanguagePHP        Language = "php"
)

var filetypeGrammars = map[string]Language{
	FiletypeGo:              LanguageGo,
	FiletypePython:          LanguagePython,
	FiletypeJavaScript:      LanguageJavaScript,
	FiletypeJavaScriptReact: LanguageJavaScript,
	FiletypeTypeScript:      LanguageTypeScript,
	FiletypeTypeScriptReact: LanguageTSX,
	FiletypeRust:            LanguageRust,
	FiletypeJava:            LanguageJava,
	FiletypeC:               LanguageCpp,
	FiletypeCpp:             LanguageCpp,
	FiletypeCSharp:          LanguageCSharp,
	FiletypeZig:             LanguageZig,
	FiletypePHP:             LanguagePHP,
}

func grammarForFiletype(filetype string) (Language, bool) {
	lang, ok := filetypeGrammars[filetype]
	return lang, ok
}

// newLanguageParser creates a parser bound to the grammar behind languagePtr.
// Returns nil if the grammar version is incompatible with the runtime.
func newLanguageParser(languagePtr unsafe.Pointer) *tree_sitter.Parser {
	parser := tree_sitter.NewParser()
	if err := parser.SetLanguage(tree_sitter.NewLanguage(languagePtr)); err != nil {
		parser.Close()
		return nil
	}
	return parser
}

func setupGo() *tree_sitter.Parser {
	return newLanguageParser(tree_sitter_go.Language())
}

func setupPython() *tree_sitter.Parser {
	return newLanguageParser(tree_sitter_python.Language())
}

func setupJavaScript() *tree_sitter.Parser {
	// The JavaScript grammar covers JSX as well
	return newLanguageParser(tree_sitter_javascript.Language())
}

func setupTypeScript() *tree_sitter.Parser {
	return newLanguageParser(tree_sitter_typescript.LanguageTypescript())
}

func setupTSX() *tree_sitter.Parser {
	return newLanguageParser(tree_sitter_typescript.LanguageTSX())
}

func setupRust() *tree_sitter.Parser {
	return newLanguageParser(tree_sitter_rust.Language())
}

func setupJava() *tree_sitter.Parser {
	return newLanguageParser(tree_sitter_java.Language())
}

func setupCpp() *tree_sitter.Parser {
	// C++ grammar is a superset good enough for identifier extraction from C
	return newLanguageParser(tree_sitter_cpp.Language())
}

func setupCSharp() *tree_sitter.Parser {
	return newLanguageParser(tree_sitter_csharp.Language())
}

func setupZig() *tree_sitter.Parser {
	return newLanguageParser(tree_sitter_zig.Language())
}

func setupPHP() *tree_sitter.Parser {
	return newLanguageParser(tree_sitter_php.LanguagePHP())
}
