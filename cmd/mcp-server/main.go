package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"overlap-chunk/internal/app"
	"overlap-chunk/internal/httputil"
	"overlap-chunk/internal/mcptools"
	"overlap-chunk/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("mcp server stopped", "err", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var stdio bool

	cmd := &cobra.Command{
		Use:           "mcp-server",
		Short:         "Serve the chunk_text tool over the Model Context Protocol",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if stdio {
				return runStdio()
			}
			return runHTTP(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&stdio, "stdio", false, "serve over stdin/stdout instead of streamable HTTP")
	return cmd
}

func runStdio() error {
	deps, err := app.BuildStderr(app.Cache)
	if err != nil {
		return err
	}
	defer deps.Cache.Close()

	s := mcptools.NewServer(newChunker(deps))
	deps.Log.Info("mcp server on stdio")
	return server.ServeStdio(s)
}

func runHTTP(parent context.Context) error {
	deps, err := app.Build(app.Cache)
	if err != nil {
		return err
	}
	defer deps.Cache.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.MCPPort),
		Handler:           newHandler(deps, mcptools.NewServer(newChunker(deps))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Log.Info("mcp server listening", "addr", srv.Addr, "endpoint", "/mcp")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newChunker(deps app.Deps) *service.Chunker {
	return service.NewChunker(deps.Log, deps.Cache, deps.Config.CacheTTL, deps.DefaultParams())
}

// newHandler serves /mcp without a request timeout so SSE streams stay open.
func newHandler(deps app.Deps, s *server.MCPServer) http.Handler {
	r := httputil.NewStreamingRouter(deps.Log)
	r.Handle("/mcp", server.NewStreamableHTTPServer(s, server.WithEndpointPath("/mcp")))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	return r
}
