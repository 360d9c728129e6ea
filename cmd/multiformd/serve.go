package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/multiform-dev/multiform"
	"github.com/multiform-dev/multiform/pkg/form"
	"github.com/multiform-dev/multiform/pkg/store"
	"github.com/multiform-dev/multiform/pkg/upload"
	"github.com/multiform-dev/multiform/pkg/web"
)

func serveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo form server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := DefaultConfig()
			if configPath != "" {
				var err error
				cfg, err = LoadConfig(configPath)
				if err != nil {
					return err
				}
			}
			return serve(cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")

	return cmd
}

func serve(cfg Config) error {
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	st, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	staging, err := upload.NewDiskStaging(cfg.Uploads.Dir, cfg.Uploads.MaxFileSize)
	if err != nil {
		return fmt.Errorf("open upload staging: %w", err)
	}

	if cfg.Metrics.Enabled {
		web.EnableMetrics()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Mount("/forms/signup", web.Routes("signup",
		signupFactory(st),
		signupModelFactory(st),
		staging,
		web.WithLogger(logger),
		web.WithMaxMemory(cfg.Uploads.MaxFileSize),
	))
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweepLoop(ctx, staging, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

// sweepLoop clears abandoned staged uploads.
func sweepLoop(ctx context.Context, staging upload.Staging, logger *slog.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := staging.Sweep(ctx, time.Hour); err != nil {
				logger.Warn("sweep staged uploads", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func newLogger(cfg LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func openStore(cfg StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return store.NewSQLiteStore(cfg.Path)
	default:
		return store.NewMemoryStore(), nil
	}
}

// signupFields describe the demo aggregate: account credentials, a
// profile, and a repeating list of addresses, saved as one unit.
var (
	userFields = []form.Field{
		{Name: "email", Required: true, Validators: []form.Validator{form.Email("")}},
		{Name: "name", Required: true, Validators: []form.Validator{form.MinLength(2, "")}},
	}
	profileFields = []form.Field{
		{Name: "bio", Widget: form.Textarea},
		{Name: "website", Validators: []form.Validator{form.URL("")}},
		{Name: "interests", Kind: form.Strings},
	}
	addressFields = []form.Field{
		{Name: "city", Required: true},
		{Name: "zip", Validators: []form.Validator{form.Numeric("")}},
	}
)

// signupClean rejects registrations whose profile website points at the
// account's own email domain, a demo of a cross-child rule.
func signupClean(mf *multiform.MultiForm, cleaned multiform.CleanedData) (multiform.CleanedData, error) {
	user, _ := cleaned["user"].(map[string]any)
	profile, _ := cleaned["profile"].(map[string]any)
	if user == nil || profile == nil {
		return nil, nil
	}
	if user["email"] == profile["website"] {
		return nil, multiform.NewValidationError("Website must not repeat the email address")
	}
	return nil, nil
}

func signupSchema(st store.Store) multiform.Schema {
	return multiform.Schema{
		{Key: "user", New: form.RecordChild(st, "user", userFields, nil)},
		{Key: "profile", New: form.RecordChild(st, "profile", profileFields, []string{"interests"})},
		{Key: "addresses", New: form.SetChildOf(1, form.RecordChild(st, "address", addressFields, nil))},
	}
}

func signupFactory(st store.Store) web.Factory {
	return func(data url.Values, files multiform.Files) (*multiform.MultiForm, error) {
		return multiform.New(signupSchema(st), multiform.Config{
			Data:  data,
			Files: files,
			Clean: signupClean,
		})
	}
}

func signupModelFactory(st store.Store) web.ModelFactory {
	return func(data url.Values, files multiform.Files) (*multiform.ModelMultiForm, error) {
		return multiform.NewModel(signupSchema(st), multiform.Config{
			Data:  data,
			Files: files,
			Clean: signupClean,
		})
	}
}
