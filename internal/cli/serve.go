package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"prodclass/internal/classifier"
	"prodclass/internal/httpapi"
	"prodclass/internal/runtime"
	"prodclass/pkg/types"
)

const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	addr        string
	maxBatch    int
	corsOrigins []string
	historyDB   string
}

func newServeCmd(a *app) *cobra.Command {
	var o serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the classifier over HTTP",
		Example: "  prodclass serve --addr :8080\n" +
			"  PRODCLASS_ADDR=127.0.0.1:9090 prodclass serve --cors-origins http://localhost:5173",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Addr = o.addr
			}
			if cmd.Flags().Changed("max-batch") {
				a.cfg.MaxBatch = o.maxBatch
			}
			if cmd.Flags().Changed("cors-origins") {
				a.cfg.CORSOrigins = o.corsOrigins
			}
			return a.serve(cmd.Context(), o.historyDB)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.addr, "addr", ":8080", "HTTP listen address (defaults PRODCLASS_ADDR or addr from config)")
	f.IntVar(&o.maxBatch, "max-batch", 50, "Largest accepted batch; 0 disables the limit")
	f.StringSliceVar(&o.corsOrigins, "cors-origins", nil, "Allowed CORS origins (comma-separated); CORS is off when empty")
	f.StringVar(&o.historyDB, "history-db", "", "SQLite file recording the runs (defaults to history_db from config)")
	return cmd
}

// service adds model listing to the classifier for the HTTP layer.
type service struct {
	*classifier.Classifier
	rt *runtime.Ollama
}

func (s service) ListModels(ctx context.Context) ([]types.Model, error) { return s.rt.List(ctx) }

func (a *app) serve(ctx context.Context, historyDB string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := a.openHistory(historyDB)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}
	c, rt := a.newClassifier(classifierOpts{publisher: a.recorder(store)})
	defer c.Close()

	httpLog := a.log.With().Str("component", "http").Logger()
	httpapi.SetLogger(httpLog)
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBatch(a.cfg.MaxBatch)
	if len(a.cfg.CORSOrigins) > 0 {
		httpapi.SetCORSOptions(a.cfg.CORSOrigins, nil, nil)
	}

	// /readyz reports 503 until the model check completes.
	loaded := make(chan struct{})
	go func() {
		defer close(loaded)
		if !c.LoadModel(ctx) {
			a.log.Error().Str("model", a.cfg.ModelName).Msg("model not available; classification requests will fail")
		}
	}()
	defer func() {
		stop()
		<-loaded
	}()

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           httpapi.NewMux(service{Classifier: c, rt: rt}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.Addr).Str("model", a.cfg.ModelName).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	a.log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		a.log.Warn().Err(err).Msg("graceful shutdown failed")
		return err
	}
	return nil
}
