package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"xp3/internal/pipeline"
	"xp3/internal/shutdown"
	"xp3/internal/web"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with websocket job progress",
		Long: `Serve starts an HTTP server that runs downloads and folder tagging as
background jobs. Progress of each job is streamed over /ws?job=<id>.
Jobs never prompt; every song is resolved non-interactively.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh := shutdown.New(cmd.Context())
			sh.Listen()
			defer sh.Stop()

			jobMgr := web.NewJobManager()
			jobMgr.StartCleanup(sh.Context())

			// One set of clients for all jobs keeps the MusicBrainz rate limit global.
			svc := ctx.services(nil)
			newRunner := func(hooks pipeline.Hooks) web.Runner {
				return pipeline.New(svc, ctx.options(true), ctx.log, hooks)
			}
			server := web.NewServer(sh.Context(), jobMgr, newRunner, ctx.log)

			httpServer := &http.Server{
				Addr:         fmt.Sprintf(":%d", port),
				Handler:      server.Router(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				ctx.log.Info("Starting web server on port %d", port)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err, ok := <-errCh:
				if ok {
					return fmt.Errorf("server error: %w", err)
				}
			case <-sh.Context().Done():
			}

			ctx.log.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				ctx.log.Error("Server shutdown error: %v", err)
			}
			server.Wait()
			ctx.log.Info("Server stopped")
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "HTTP server port")
	return cmd
}
