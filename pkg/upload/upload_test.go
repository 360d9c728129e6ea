package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

func newDisk(t *testing.T, maxSize int64) *DiskStaging {
	t.Helper()
	s, err := NewDiskStaging(t.TempDir(), maxSize)
	if err != nil {
		t.Fatalf("NewDiskStaging: %v", err)
	}
	return s
}

func TestDiskStageClaim(t *testing.T) {
	s := newDisk(t, 0)
	ctx := context.Background()

	ticket, err := s.Stage(ctx, "photo.png", "image/png", strings.NewReader("pixels"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if ticket == "" {
		t.Fatal("expected a ticket")
	}

	f, err := s.Claim(ctx, ticket)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if f.Filename != "photo.png" || f.ContentType != "image/png" || f.Size != 6 {
		t.Errorf("staged file = %+v", f)
	}
	body, _ := io.ReadAll(f.Reader)
	if string(body) != "pixels" {
		t.Errorf("contents = %q", body)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	// Close removes the staged file.
	if _, err := os.Stat(f.Path); !os.IsNotExist(err) {
		t.Error("staged file must be removed after close")
	}
	// A ticket claims once.
	if _, err := s.Claim(ctx, ticket); err != ErrNotFound {
		t.Errorf("second claim = %v, want ErrNotFound", err)
	}
}

func TestDiskClaimUnknownTicket(t *testing.T) {
	s := newDisk(t, 0)
	if _, err := s.Claim(context.Background(), "nope"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDiskSizeLimit(t *testing.T) {
	s := newDisk(t, 4)
	_, err := s.Stage(context.Background(), "big.bin", "application/octet-stream",
		strings.NewReader("too many bytes"))
	if err != ErrTooLarge {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
}

func TestDiskSweep(t *testing.T) {
	s := newDisk(t, 0)
	ctx := context.Background()

	old, err := s.Stage(ctx, "old.txt", "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	// Age the entry past the cutoff.
	s.mu.Lock()
	s.files[old].StagedAt = time.Now().Add(-2 * time.Hour)
	s.mu.Unlock()

	if err := s.Sweep(ctx, time.Hour); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if _, err := s.Claim(ctx, old); err != ErrNotFound {
		t.Errorf("swept ticket claim = %v, want ErrNotFound", err)
	}
}

func TestDiskMetadataSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewDiskStaging(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	ticket, err := first.Stage(ctx, "keep.txt", "text/plain", strings.NewReader("kept"))
	if err != nil {
		t.Fatal(err)
	}

	second, err := NewDiskStaging(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	f, err := second.Claim(ctx, ticket)
	if err != nil {
		t.Fatalf("Claim after restart: %v", err)
	}
	defer f.Close()
	if f.Filename != "keep.txt" {
		t.Errorf("filename = %q", f.Filename)
	}
}

func postFile(t *testing.T, h http.Handler, field, filename, contents string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(contents))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler(t *testing.T) {
	s := newDisk(t, 0)
	h := Handler(s)

	rec := postFile(t, h, "file", "doc.txt", "hello")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["ticket"] == "" {
		t.Fatalf("response = %v", resp)
	}

	f, err := s.Claim(context.Background(), resp["ticket"])
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	defer f.Close()
	if f.Filename != "doc.txt" {
		t.Errorf("filename = %q", f.Filename)
	}
}

func TestHandlerErrors(t *testing.T) {
	s := newDisk(t, 0)
	h := Handler(s)

	// Wrong method.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/upload", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d", rec.Code)
	}

	// Missing file field.
	rec = postFile(t, h, "other", "doc.txt", "hello")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing field status = %d", rec.Code)
	}
}

func TestHandlerBodyLimit(t *testing.T) {
	s := newDisk(t, 0)
	h := HandlerWithConfig(s, HandlerConfig{MaxFileSize: 16})

	rec := postFile(t, h, "file", "big.bin", strings.Repeat("x", 4096))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d", rec.Code)
	}
}
