package parser

import (
	"context"
	"strings"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lcc/internal/debug"
	lccerrors "github.com/standardbeagle/lcc/internal/errors"
)

// Options controls what the extractor collects
type Options struct {
	// CollectFromCommentsAndStrings also harvests words found inside comments and
	// string literals
	CollectFromCommentsAndStrings bool
}

// parserPoolData encapsulates the pool and initialization for a language
type parserPoolData struct {
	pool  sync.Pool
	once  sync.Once
	setup func() *tree_sitter.Parser
}

// Language-specific parser pools. tree_sitter.Parser is not safe for concurrent use,
// so each goroutine borrows its own.
var parserPools = map[Language]*parserPoolData{
	LanguageGo:         {setup: setupGo},
	LanguagePython:     {setup: setupPython},
	LanguageJavaScript: {setup: setupJavaScript},
	LanguageTypeScript: {setup: setupTypeScript},
	LanguageTSX:        {setup: setupTSX},
	LanguageRust:       {setup: setupRust},
	LanguageJava:       {setup: setupJava},
	LanguageCpp:        {setup: setupCpp},
	LanguageCSharp:     {setup: setupCSharp},
	LanguageZig:        {setup: setupZig},
	LanguagePHP:        {setup: setupPHP},
}

// getParser returns a parser from the language-specific pool, or nil when the grammar
// could not be loaded
func getParser(language Language) *tree_sitter.Parser {
	data, exists := parserPools[language]
	if !exists {
		return nil
	}

	data.once.Do(func() {
		data.pool.New = func() any {
			return data.setup()
		}
	})

	p, _ := data.pool.Get().(*tree_sitter.Parser)
	return p
}

// releaseParser returns a parser to its language-specific pool
func releaseParser(language Language, p *tree_sitter.Parser) {
	if p == nil {
		return
	}
	if data, exists := parserPools[language]; exists {
		data.pool.Put(p)
	}
}

// Extractor turns buffer contents into the list of identifiers they contain.
// Filetypes with a tree-sitter grammar are parsed; everything else goes through the
// filetype's identifier regex. Safe for concurrent use.
type Extractor struct {
	opts Options
}

// NewExtractor creates an extractor
func NewExtractor(opts Options) *Extractor {
	return &Extractor{opts: opts}
}

// Options returns the extractor's options
func (e *Extractor) Options() Options {
	return e.opts
}

// Extract returns the distinct identifiers in content in order of first appearance.
// A grammar failure falls back to the regex path rather than failing the extraction;
// the only error returned is the context's.
func (e *Extractor) Extract(ctx context.Context, content []byte, filetype string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, nil
	}

	if lang, ok := grammarForFiletype(filetype); ok {
		identifiers, err := e.extractWithGrammar(ctx, lang, content, filetype)
		if err == nil {
			return identifiers, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		debug.Log(debug.ComponentParser, "falling back to regex for %s: %v", filetype, err)
	}

	return e.extractWithRegex(string(content), filetype), nil
}

func (e *Extractor) extractWithRegex(text, filetype string) []string {
	if !e.opts.CollectFromCommentsAndStrings {
		text = RemoveCommentsAndStrings(text, filetype)
	}
	return ExtractIdentifiersFromText(text, filetype)
}

func (e *Extractor) extractWithGrammar(ctx context.Context, lang Language, content []byte, filetype string) (identifiers []string, err error) {
	parser := getParser(lang)
	if parser == nil {
		return nil, lccerrors.NewParseError(filetype, "grammar unavailable", nil)
	}
	defer releaseParser(lang, parser)

	// Protect against tree-sitter crashes on malformed input
	defer func() {
		if r := recover(); r != nil {
			debug.Log(debug.ComponentParser, "TREE-SITTER PANIC for %s: %v\n", filetype, r)
			identifiers = nil
			err = lccerrors.NewParseError(filetype, "parser panic", nil)
		}
	}()

	// Tree-sitter mutates input buffers via CGO; parse a private copy
	parserBuffer := make([]byte, len(content))
	copy(parserBuffer, content)

	tree := parser.Parse(parserBuffer, nil)
	if tree == nil {
		return nil, lccerrors.NewParseError(filetype, "parse returned no tree", nil)
	}
	defer tree.Close()

	w := &identifierWalker{
		ctx:      ctx,
		content:  parserBuffer,
		filetype: filetype,
		collect:  e.opts.CollectFromCommentsAndStrings,
		php:      lang == LanguagePHP,
		seen:     make(map[string]struct{}),
	}
	w.walk(tree.RootNode())
	if w.err != nil {
		return nil, w.err
	}
	return w.identifiers, nil
}

// ctxCheckInterval is how many nodes the walker visits between context checks
const ctxCheckInterval = 4096

type identifierWalker struct {
	ctx      context.Context
	content  []byte
	filetype string
	collect  bool
	php      bool

	visited     int
	seen        map[string]struct{}
	identifiers []string
	err         error
}

func (w *identifierWalker) walk(node *tree_sitter.Node) {
	if node == nil || w.err != nil {
		return
	}

	w.visited++
	if w.visited%ctxCheckInterval == 0 {
		if err := w.ctx.Err(); err != nil {
			w.err = err
			return
		}
	}

	kind := node.Kind()
	if isCommentOrString(kind) {
		if w.collect {
			text := string(w.content[node.StartByte():node.EndByte()])
			for _, word := range IdentifierRegexForFiletype(w.filetype).FindAllString(text, -1) {
				w.add(word)
			}
		}
		return
	}

	count := node.ChildCount()
	if count == 0 {
		if w.isIdentifierKind(kind) {
			w.add(string(w.content[node.StartByte():node.EndByte()]))
		}
		return
	}
	for i := uint(0); i < count; i++ {
		w.walk(node.Child(i))
	}
}

func (w *identifierWalker) add(text string) {
	if text == "" {
		return
	}
	if _, dup := w.seen[text]; dup {
		return
	}
	w.seen[text] = struct{}{}
	w.identifiers = append(w.identifiers, text)
}

func (w *identifierWalker) isIdentifierKind(kind string) bool {
	if strings.HasSuffix(kind, "identifier") {
		return true
	}
	// PHP names every identifier "name"
	return w.php && kind == "name"
}

func isCommentOrString(kind string) bool {
	switch {
	case strings.Contains(kind, "comment"):
		return true
	case strings.Contains(kind, "string"):
		return true
	case kind == "char_literal", kind == "character_literal", kind == "rune_literal", kind == "heredoc", kind == "nowdoc":
		return true
	}
	return false
}
