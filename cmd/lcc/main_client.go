package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/standardbeagle/lcc/internal/parser"
	"github.com/standardbeagle/lcc/internal/server"
	"github.com/standardbeagle/lcc/internal/tags"
	"github.com/standardbeagle/lcc/internal/types"
	"github.com/urfave/cli/v2"
)

// reindexCommand asks the running server to rescan a path
func reindexCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	client := clientFor(cfg)
	defer client.Close()

	path := c.Args().First()
	if path != "" {
		if path, err = filepath.Abs(path); err != nil {
			return fmt.Errorf("failed to resolve path: %w", err)
		}
	}
	if err := client.Reindex(path); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	if wait := c.Duration("wait"); wait > 0 {
		if err := client.WaitForReady(wait); err != nil {
			return err
		}
	}
	fmt.Fprintln(c.App.Writer, "Reindex started")
	return nil
}

// notifyCommand sends an editor event for a file on disk to the running server
func notifyCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("notify requires exactly one file argument")
	}
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	path, err := filepath.Abs(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	filetype := c.String("filetype")
	if filetype == "" {
		filetype = parser.FiletypeForPath(path)
	}
	if filetype == "" {
		return fmt.Errorf("cannot detect filetype of %s, pass --filetype", path)
	}

	req := server.EventNotificationRequest{
		EventName: c.String("event"),
		Filepath:  path,
		Filetype:  filetype,
	}
	if types.EventName(req.EventName) != types.EventBufferUnload {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		req.Contents = string(content)
		req.LineNum = c.Int("line")
		req.ColumnNum = c.Int("column")
	}

	client := clientFor(cfg)
	defer client.Close()
	if err := client.NotifyEvent(req); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s: %s (%s)\n", req.EventName, path, filetype)
	return nil
}

// pushTags sends tag files to the running server in one bulk ingest
func pushTags(c *cli.Context, paths []string) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	batch, loadErr := tags.LoadTagFiles(paths)
	if len(batch) == 0 && loadErr != nil {
		return loadErr
	}
	if loadErr != nil {
		fmt.Fprintf(c.App.ErrWriter, "Warning: %v\n", loadErr)
	}

	client := clientFor(cfg)
	defer client.Close()
	files, err := client.Ingest(batch)
	if err != nil {
		return fmt.Errorf("failed to push tags: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Pushed identifiers for %d files\n", files)
	return nil
}

// serverWaitTimeout bounds how long complete waits for a server that is still scanning
const serverWaitTimeout = 10 * time.Second
