package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	httpadapter "github.com/ctreffe/alfred/internal/adapters/http"
	"github.com/ctreffe/alfred/internal/cli"
	"github.com/ctreffe/alfred/internal/compiler"
	"github.com/ctreffe/alfred/internal/logging"
	"github.com/ctreffe/alfred/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve <outline.yaml>",
	Short: "Serve an experiment session to a browser front-end",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := logging.New(cfg.SlogLevel())

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		outline, err := compiler.Parse(data)
		if err != nil {
			return err
		}
		content, err := outline.Build()
		if err != nil {
			return err
		}

		saver, err := cli.BuildController(cfg.Saving, logger, prometheus.DefaultRegisterer)
		if err != nil {
			return err
		}
		saver.Start()

		sess := session.New(outline.Meta(), content,
			session.WithSaver(saver),
			session.WithLogger(logger),
		)

		srv := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: httpadapter.NewHandler(sess, logger),
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("serving session", "addr", cfg.HTTPAddr, "experiment", outline.Experiment.Name)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			saver.Close()
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)

		// Drain the saving queue so the final snapshot is not lost.
		saver.DrainAndWait()
		saver.Close()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
