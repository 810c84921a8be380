package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/standardbeagle/lcc/internal/completer"
	"github.com/standardbeagle/lcc/internal/config"
	lccerrors "github.com/standardbeagle/lcc/internal/errors"
	"github.com/standardbeagle/lcc/internal/indexing"
	"github.com/standardbeagle/lcc/internal/metrics"
	"github.com/standardbeagle/lcc/internal/parser"
	"github.com/standardbeagle/lcc/internal/server"
	"github.com/standardbeagle/lcc/internal/version"
	"github.com/urfave/cli/v2"
)

// buildLocalIndex scans the project into a fresh completer
func buildLocalIndex(ctx context.Context, cfg *config.Config) (*completer.IdentifierCompleter, indexing.ScanStats, error) {
	c := completer.New(cfg.Completion)
	if cfg.Completion.SyntaxKeywords {
		c.AddBuiltinKeywords(parser.KeywordFiletypes()...)
	}
	if len(cfg.Completion.TagFiles) > 0 {
		// Unreadable tag files are not fatal for a one-off query
		_ = c.AddTagFiles(cfg.Completion.TagFiles)
	}

	batch, stats, err := indexing.NewScanner(cfg, c).Scan(ctx, cfg.Project.Root)
	c.IngestBatch(batch)
	return c, stats, err
}

// completeCommand asks the running server, falling back to an in-process scan
func completeCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("complete requires exactly one query argument")
	}
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	req := completer.Request{
		Filetype:   c.String("filetype"),
		Query:      c.Args().First(),
		MaxResults: c.Int("max"),
	}

	var candidates []completer.Candidate
	if !c.Bool("local") {
		candidates, err = completeViaServer(cfg, req)
		if err != nil && !errors.Is(err, errNoServer) {
			fmt.Fprintf(c.App.ErrWriter, "Warning: %v, scanning locally\n", err)
		}
	}
	if c.Bool("local") || err != nil {
		local, _, scanErr := buildLocalIndex(c.Context, cfg)
		if scanErr != nil {
			return fmt.Errorf("scan failed: %w", scanErr)
		}
		candidates, err = local.ComputeCandidates(req)
		if err != nil {
			return err
		}
	}

	if c.Bool("json") {
		if candidates == nil {
			candidates = []completer.Candidate{}
		}
		return json.NewEncoder(c.App.Writer).Encode(candidates)
	}
	return printCandidates(c.App.Writer, candidates)
}

var errNoServer = errors.New("no server running")

func completeViaServer(cfg *config.Config, req completer.Request) ([]completer.Candidate, error) {
	client := clientFor(cfg)
	defer client.Close()
	ping, err := client.Ping()
	if err != nil {
		return nil, errNoServer
	}
	if !version.Compatible(ping.BuildID) {
		return nil, fmt.Errorf("server build %s differs from this binary, restart it with 'lcc shutdown'", ping.BuildID)
	}
	creq := server.CompletionsRequest{
		Filetype:   req.Filetype,
		Query:      req.Query,
		MaxResults: req.MaxResults,
	}
	candidates, err := client.Completions(creq)
	if errors.Is(err, lccerrors.ErrIndexNotReady) {
		if waitErr := client.WaitForReady(serverWaitTimeout); waitErr != nil {
			return nil, err
		}
		return client.Completions(creq)
	}
	return candidates, err
}

func printCandidates(w io.Writer, candidates []completer.Candidate) error {
	if len(candidates) == 0 {
		fmt.Fprintln(w, "No completions")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, cand := range candidates {
		fmt.Fprintf(tw, "%s\t%.3f\n", cand.InsertionText, cand.Score)
	}
	return tw.Flush()
}

// scanCommand indexes the project in-process and prints statistics
func scanCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	comp, scanStats, err := buildLocalIndex(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	stats := metrics.NewIndexStats()
	stats.CalculateFromDatabase(comp.Database())

	out := c.App.Writer
	if c.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"root":  cfg.Project.Root,
			"scan":  scanStats,
			"index": stats.FormatAsJSON(),
		})
	}

	fmt.Fprintf(out, "Scanned %s in %v\n", cfg.Project.Root, scanStats.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  files visited: %d, indexed: %d, skipped: %d (too large: %d, binary: %d), errors: %d\n",
		scanStats.FilesVisited, scanStats.FilesIndexed, scanStats.Skipped, scanStats.TooLarge, scanStats.Binary, scanStats.Errors)
	if scanStats.Truncated {
		fmt.Fprintf(out, "  file limit of %d reached, results truncated\n", cfg.Index.MaxFileCount)
	}
	fmt.Fprint(out, stats.FormatAsText())
	return nil
}

// tagsCommand loads ctags files and completes a query against them
func tagsCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("tags requires at least one tags file")
	}
	if c.Bool("push") {
		return pushTags(c, c.Args().Slice())
	}
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	comp := completer.New(cfg.Completion)
	loadErr := comp.AddTagFiles(c.Args().Slice())

	stats := metrics.NewIndexStats()
	stats.CalculateFromDatabase(comp.Database())
	if stats.TotalFiles == 0 && loadErr != nil {
		return loadErr
	}
	if loadErr != nil {
		fmt.Fprintf(c.App.ErrWriter, "Warning: %v\n", loadErr)
	}

	query := c.String("query")
	if query == "" {
		fmt.Fprint(c.App.Writer, stats.FormatAsText())
		return nil
	}
	if c.String("filetype") == "" {
		return fmt.Errorf("--filetype is required with --query")
	}

	candidates, err := comp.ComputeCandidates(completer.Request{
		Filetype: c.String("filetype"),
		Query:    query,
	})
	if err != nil {
		return err
	}
	return printCandidates(c.App.Writer, candidates)
}
