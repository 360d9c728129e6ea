package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/multiform-dev/multiform"
	"github.com/multiform-dev/multiform/pkg/upload"
)

// Factory builds a fresh aggregate for one request. Aggregates are
// single-use, so every request constructs its own.
type Factory func(data url.Values, files multiform.Files) (*multiform.MultiForm, error)

// ModelFactory builds a fresh persisting aggregate for one request.
type ModelFactory func(data url.Values, files multiform.Files) (*multiform.ModelMultiForm, error)

type handlerConfig struct {
	logger    *slog.Logger
	maxMemory int64
}

// Option configures the HTTP handlers.
type Option func(*handlerConfig)

// WithLogger sets the handlers' logger. Default slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *handlerConfig) { c.logger = logger }
}

// WithMaxMemory sets the in-memory multipart parsing limit.
func WithMaxMemory(n int64) Option {
	return func(c *handlerConfig) { c.maxMemory = n }
}

func newHandlerConfig(opts []Option) handlerConfig {
	c := handlerConfig{
		logger:    slog.Default(),
		maxMemory: defaultMaxMemory,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// validateResponse is the JSON shape of a validation verdict.
type validateResponse struct {
	Valid   bool                  `json:"valid"`
	Errors  multiform.Errors      `json:"errors,omitempty"`
	Cleaned multiform.CleanedData `json:"cleaned,omitempty"`
}

// submitResponse is the JSON shape of a submit verdict.
type submitResponse struct {
	Valid   bool             `json:"valid"`
	Errors  multiform.Errors `json:"errors,omitempty"`
	Records map[string]any   `json:"records,omitempty"`
}

// ValidateHandler answers POSTed form data with the aggregate's verdict,
// unified errors, and cleaned values as JSON. name labels metrics and
// trace spans.
func ValidateHandler(name string, factory Factory, opts ...Option) http.Handler {
	cfg := newHandlerConfig(opts)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, files, err := DecodeRequest(r, cfg.maxMemory)
		if err != nil {
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}
		mf, err := factory(data, files)
		if err != nil {
			cfg.logger.Error("build form", "form", name, "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		start := time.Now()
		valid, _ := tracedValidate(r.Context(), name, mf)
		recordValidation(name, valid, time.Since(start).Seconds())
		errs := mf.Errors()
		if _, crossform := errs[multiform.NonFieldErrorsKey]; crossform {
			recordCrossFormRejection()
		}

		cfg.logger.Info("validated form",
			"form", name,
			"valid", valid,
			"error_keys", len(errs))

		resp := validateResponse{Valid: valid}
		if valid {
			resp.Cleaned = mf.CleanedData()
		} else {
			resp.Errors = errs
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

// SubmitHandler validates POSTed form data and, when valid, saves every
// child and runs the deferred relation phase. Invalid input answers 422
// with the unified errors.
func SubmitHandler(name string, factory ModelFactory, opts ...Option) http.Handler {
	cfg := newHandlerConfig(opts)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, files, err := DecodeRequest(r, cfg.maxMemory)
		if err != nil {
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}
		mf, err := factory(data, files)
		if err != nil {
			cfg.logger.Error("build form", "form", name, "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		start := time.Now()
		valid, spanCtx := tracedValidate(r.Context(), name, mf.MultiForm)
		recordValidation(name, valid, time.Since(start).Seconds())
		if !valid {
			errs := mf.Errors()
			if _, crossform := errs[multiform.NonFieldErrorsKey]; crossform {
				recordCrossFormRejection()
			}
			writeJSON(w, http.StatusUnprocessableEntity, submitResponse{
				Valid:  false,
				Errors: errs,
			})
			return
		}

		objects, err := tracedSave(spanCtx, name, mf)
		recordSave(name, err)
		if err != nil {
			cfg.logger.Error("save form", "form", name, "error", err)
			http.Error(w, "Save failed", http.StatusInternalServerError)
			return
		}

		cfg.logger.Info("saved form", "form", name, "children", len(objects))
		writeJSON(w, http.StatusOK, submitResponse{Valid: true, Records: objects})
	})
}

// RenderHandler answers GET with the unbound aggregate rendered as an
// HTML form posting to the submit endpoint.
func RenderHandler(name string, factory Factory, opts ...Option) http.Handler {
	cfg := newHandlerConfig(opts)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mf, err := factory(nil, nil)
		if err != nil {
			cfg.logger.Error("build form", "form", name, "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		enctype := "application/x-www-form-urlencoded"
		if mf.IsMultipart() {
			enctype = "multipart/form-data"
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<form method="post" action="submit" enctype=%q>`+"\n", enctype)
		fmt.Fprint(w, "<table>\n", mf.AsTable(), "\n</table>\n")
		fmt.Fprint(w, `<button type="submit">Submit</button>`+"\n</form>\n")
	})
}

// Routes mounts a form's endpoints on a chi router:
//
//	GET  /          the unbound form as HTML
//	POST /validate  validation verdict as JSON
//	POST /submit    validate, save, deferred relations
//	GET  /live      WebSocket draft validation
//	POST /upload    file staging (when staging is non-nil)
func Routes(name string, validate Factory, submit ModelFactory, staging upload.Staging, opts ...Option) chi.Router {
	r := chi.NewRouter()
	if validate != nil {
		r.Get("/", RenderHandler(name, validate, opts...).ServeHTTP)
		r.Post("/validate", ValidateHandler(name, validate, opts...).ServeHTTP)
		r.Get("/live", LiveHandler(name, validate, opts...).ServeHTTP)
	}
	if submit != nil {
		r.Post("/submit", SubmitHandler(name, submit, opts...).ServeHTTP)
	}
	if staging != nil {
		r.Post("/upload", upload.Handler(staging).ServeHTTP)
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
