package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/standardbeagle/lcc/internal/config"
	"github.com/standardbeagle/lcc/internal/debug"
	"github.com/standardbeagle/lcc/internal/mcp"
	"github.com/standardbeagle/lcc/internal/server"
	"github.com/urfave/cli/v2"
)

// serveCommand runs the socket server until a signal or a shutdown request
func serveCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	if c.Bool("no-scan") {
		cfg.Index.ScanOnStart = false
	}
	if c.Bool("no-watch") {
		cfg.Index.WatchMode = false
	}

	srv, err := server.NewIndexServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if socket := c.String("socket"); socket != "" {
		srv.SetSocketPath(socket)
	}

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Completion server started\n")
	fmt.Fprintf(out, "Socket: %s\n", srv.GetServerSocketPath())
	fmt.Fprintf(out, "Root: %s\n", cfg.Project.Root)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	waitChan := make(chan struct{})
	go func() {
		srv.Wait()
		close(waitChan)
	}()

	select {
	case sig := <-sigChan:
		fmt.Fprintf(out, "\nReceived signal %v, shutting down...\n", sig)
	case <-waitChan:
		fmt.Fprintln(out, "Server shutdown requested")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	<-waitChan

	fmt.Fprintln(out, "Server shut down cleanly")
	return nil
}

// clientFor returns a client for the configured server socket
func clientFor(cfg *config.Config) *server.Client {
	if cfg.Server.SocketPath != "" {
		return server.NewClientWithSocket(cfg.Server.SocketPath)
	}
	return server.NewClient(cfg.Project.Root)
}

// shutdownCommand sends a shutdown request to the running server
func shutdownCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	client := clientFor(cfg)
	defer client.Close()

	if !client.IsServerRunning() {
		return fmt.Errorf("no server is running for root: %s", cfg.Project.Root)
	}
	if err := client.Shutdown(false); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "Server shut down")
	return nil
}

// statusCommand prints the running server's status as JSON
func statusCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	client := clientFor(cfg)
	defer client.Close()

	status, err := client.GetStatus()
	if err != nil {
		return fmt.Errorf("no server is running for root %s: %w", cfg.Project.Root, err)
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(status)
}

// mcpCommand serves MCP over stdio until the client disconnects or a signal arrives
func mcpCommand(c *cli.Context) error {
	// stdout belongs to the protocol
	debug.SetMCPMode(true)

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return debug.Fatal("failed to load config: %v\n", err)
	}

	logger := mcp.NewDiagnosticLogger(true)
	defer logger.Close()

	mcpServer, err := mcp.NewServer(cfg, nil, logger)
	if err != nil {
		return debug.Fatal("failed to create MCP server: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mcpServer.Start(ctx); err != nil && ctx.Err() == nil {
		logger.Errorf("MCP server error: %v", err)
		return debug.Fatal("MCP server error: %v\n", err)
	}
	return nil
}
