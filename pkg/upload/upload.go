// Package upload stages file uploads ahead of form submission. A client
// posts the file first and receives a ticket; the form submission then
// carries only the ticket, and the server claims the staged file when the
// form validates. Unclaimed files are swept after an expiry.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a ticket does not match a staged file.
var ErrNotFound = errors.New("upload: staged file not found")

// ErrTooLarge is returned when a file exceeds the size limit.
var ErrTooLarge = errors.New("upload: file too large")

// Staging is the backend that holds files between staging and claim.
type Staging interface {
	// Stage stores the file and returns its ticket.
	Stage(ctx context.Context, filename, contentType string, r io.Reader) (ticket string, err error)

	// Claim retrieves a staged file and removes it from staging. A ticket
	// can be claimed once.
	Claim(ctx context.Context, ticket string) (*StagedFile, error)

	// Sweep removes staged files older than maxAge. Call it periodically.
	Sweep(ctx context.Context, maxAge time.Duration) error
}

// StagedFile is a file retrieved from staging.
type StagedFile struct {
	Ticket      string
	Filename    string
	ContentType string
	Size        int64

	// Path is set by filesystem backends.
	Path string

	// URL is a presigned fetch URL, set by remote backends.
	URL string

	// Reader streams the contents. Close it when done; filesystem
	// backends remove the staged file on close.
	Reader io.ReadCloser
}

// Close closes the contents reader if open.
func (f *StagedFile) Close() error {
	if f.Reader != nil {
		return f.Reader.Close()
	}
	return nil
}

// newTicket returns a fresh staging ticket.
func newTicket() string {
	return uuid.New().String()
}

// HandlerConfig tunes the staging endpoint.
type HandlerConfig struct {
	// MaxFileSize is the request body limit in bytes. Default 10MB.
	MaxFileSize int64

	// Logger receives one entry per staged file. Default slog.Default.
	Logger *slog.Logger
}

// Handler returns the staging endpoint with default configuration. Mount
// it on the router: r.Post("/upload", upload.Handler(staging)).
//
// It expects a multipart form with a "file" field and answers with the
// ticket:
//
//	{"ticket": "9f1c..."}
func Handler(staging Staging) http.Handler {
	return HandlerWithConfig(staging, HandlerConfig{})
}

// HandlerWithConfig returns the staging endpoint.
func HandlerWithConfig(staging Staging, cfg HandlerConfig) http.Handler {
	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Limit the body before parsing so an oversized upload cannot
		// exhaust the server.
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "No file provided", http.StatusBadRequest)
			return
		}
		defer file.Close()

		ticket, err := staging.Stage(r.Context(), header.Filename,
			header.Header.Get("Content-Type"), file)
		if err != nil {
			if errors.Is(err, ErrTooLarge) {
				http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
				return
			}
			logger.Error("stage upload", "filename", header.Filename, "error", err)
			http.Error(w, "Upload failed", http.StatusInternalServerError)
			return
		}

		logger.Info("staged upload",
			"ticket", ticket,
			"filename", header.Filename,
			"size", header.Size)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"ticket": ticket})
	})
}
