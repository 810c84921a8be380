package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/lcc/internal/completer"
	"github.com/standardbeagle/lcc/internal/debug"
	lccerrors "github.com/standardbeagle/lcc/internal/errors"
	"github.com/standardbeagle/lcc/internal/metrics"
	"github.com/standardbeagle/lcc/internal/parser"
	"github.com/standardbeagle/lcc/internal/version"
)

// decodeParams unmarshals tool arguments; a missing argument object is treated as empty
func decodeParams(req *mcp.CallToolRequest, v interface{}) error {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, v); err != nil {
		return lccerrors.NewRequestError("arguments", "invalid parameters", err)
	}
	return nil
}

func (s *Server) handleComplete(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params CompleteParams
	if err := decodeParams(req, &params); err != nil {
		return createErrorResponse("complete", err)
	}

	candidates, err := s.completer.ComputeCandidates(completer.Request{
		Filepath:   params.Filepath,
		Filetype:   params.Filetype,
		Contents:   params.Contents,
		LineNum:    params.LineNum,
		ColumnNum:  params.ColumnNum,
		Query:      params.Query,
		MaxResults: params.MaxResults,
	})
	if err != nil {
		return createErrorResponse("complete", err)
	}
	if candidates == nil {
		candidates = []completer.Candidate{}
	}
	debug.LogMCP("complete %q: %d candidates", params.Query, len(candidates))

	return createJSONResponse(CompleteResult{
		Completions: candidates,
		Count:       len(candidates),
		IndexReady:  s.indexReady(),
	})
}

func (s *Server) handleIngestFile(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params IngestFileParams
	if err := decodeParams(req, &params); err != nil {
		return createErrorResponse("ingest_file", err)
	}
	if params.Filepath == "" {
		return createErrorResponse("ingest_file", lccerrors.NewRequestError("filepath", "required", nil))
	}

	db := s.completer.Database()
	result := IngestFileResult{Success: true, Filepath: params.Filepath}

	switch {
	case params.Identifiers != nil:
		filetype, err := resolveFiletype(params.Filetype, params.Filepath)
		if err != nil {
			return createErrorResponse("ingest_file", err)
		}
		s.completer.IngestBuffer(params.Identifiers, filetype, params.Filepath)
		result.Filetype = filetype
		result.Source = "identifiers"

	case params.Contents != "":
		filetype, err := resolveFiletype(params.Filetype, params.Filepath)
		if err != nil {
			return createErrorResponse("ingest_file", err)
		}
		err = s.completer.OnFileReadyToParse(ctx, completer.Request{
			Filepath: params.Filepath,
			Filetype: filetype,
			Contents: params.Contents,
		})
		if err != nil {
			return createErrorResponse("ingest_file", err)
		}
		result.Filetype = filetype
		result.Source = "contents"

	default:
		path := params.Filepath
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.cfg.Project.Root, path)
		}
		filetype, ids, err := s.scanner.ExtractFile(ctx, path)
		if err != nil {
			return createErrorResponse("ingest_file", err)
		}
		if params.Filetype != "" {
			filetype = params.Filetype
		}
		db.IngestFile(ids, filetype, path)
		metrics.IngestsTotal.WithLabelValues("file").Inc()
		result.Filepath = path
		result.Filetype = filetype
		result.Source = "disk"
	}

	if shard, ok := db.FileShard(result.Filetype, result.Filepath); ok {
		result.Identifiers = shard.Len()
	}
	publishStats(s.completer)
	return createJSONResponse(result)
}

func (s *Server) handleClearFile(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ClearFileParams
	if err := decodeParams(req, &params); err != nil {
		return createErrorResponse("clear_file", err)
	}

	err := s.completer.OnBufferUnload(completer.Request{
		Filepath: params.Filepath,
		Filetype: params.Filetype,
	})
	if err != nil {
		return createErrorResponse("clear_file", err)
	}
	publishStats(s.completer)

	return createJSONResponse(map[string]interface{}{
		"success":  true,
		"filepath": params.Filepath,
	})
}

func (s *Server) handleStatus(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := metrics.NewIndexStats()
	stats.CalculateFromDatabase(s.completer.Database())

	return createJSONResponse(map[string]interface{}{
		"server_version": version.FullInfo(),
		"go_version":     runtime.Version(),
		"root":           s.cfg.Project.Root,
		"index_ready":    s.indexReady(),
		"scan":           s.scanState(),
		"index":          stats.FormatAsJSON(),
	})
}

func resolveFiletype(filetype, path string) (string, error) {
	if filetype != "" {
		return filetype, nil
	}
	if ft := parser.FiletypeForPath(path); ft != "" {
		return ft, nil
	}
	return "", lccerrors.NewRequestError("filetype", fmt.Sprintf("missing and not derivable from %s", filepath.Base(path)), nil)
}
