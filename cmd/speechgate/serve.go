package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ekisa-team/speechgate/internal/envvar"
	httpserver "github.com/ekisa-team/speechgate/internal/server/http"
	"github.com/ekisa-team/speechgate/internal/service"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long:  "Serve POST /tts, POST /translate, GET /languages and GET /health.\n\nEnvironment overrides: " + strings.Join(envvar.All, ", "),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
}


func runServe(ctx context.Context, flags *rootFlags) error {
	a, err := setup(flags, true)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.initTranslation(); err != nil {
		return err
	}
	if err := a.initModels(); err != nil {
		return err
	}

	srv := httpserver.NewServer(a.cfg.Server, version)
	httpserver.NewTTSHandler(srv.API(), service.NewTTS(a.manager))
	httpserver.NewTranslateHandler(srv.API(), a.translation)
	httpserver.NewLanguagesHandler(srv.API(), a.manager)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down", "timeout", a.cfg.Server.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
