package upload

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DiskStaging holds staged files in a local directory. Metadata lives in
// a sidecar JSON file per ticket, so staged files survive a restart.
type DiskStaging struct {
	dir     string
	maxSize int64

	mu    sync.Mutex
	files map[string]*diskMeta
}

type diskMeta struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	StagedAt    time.Time `json:"staged_at"`
}

// NewDiskStaging creates the staging directory if needed. maxSize of 0
// means no limit.
func NewDiskStaging(dir string, maxSize int64) (*DiskStaging, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &DiskStaging{
		dir:     dir,
		maxSize: maxSize,
		files:   make(map[string]*diskMeta),
	}, nil
}

// Stage writes the file under a fresh ticket.
func (s *DiskStaging) Stage(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	ticket := newTicket()
	path := filepath.Join(s.dir, ticket)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var reader io.Reader = r
	if s.maxSize > 0 {
		reader = io.LimitReader(r, s.maxSize+1) // +1 to detect overflow
	}
	written, err := io.Copy(f, reader)
	if err != nil {
		os.Remove(path)
		return "", err
	}
	if s.maxSize > 0 && written > s.maxSize {
		os.Remove(path)
		return "", ErrTooLarge
	}

	meta := &diskMeta{
		Filename:    filename,
		ContentType: contentType,
		Size:        written,
		StagedAt:    time.Now(),
	}
	s.mu.Lock()
	s.files[ticket] = meta
	s.mu.Unlock()

	if err := s.saveMeta(ticket, meta); err != nil {
		os.Remove(path)
		return "", err
	}
	return ticket, nil
}

// Claim opens a staged file and removes it from staging. The file and
// its metadata are deleted when the returned reader is closed.
func (s *DiskStaging) Claim(ctx context.Context, ticket string) (*StagedFile, error) {
	s.mu.Lock()
	meta, ok := s.files[ticket]
	delete(s.files, ticket)
	s.mu.Unlock()

	// Fall back to the sidecar for files staged by a previous process.
	if !ok {
		var err error
		meta, err = s.loadMeta(ticket)
		if err != nil {
			return nil, ErrNotFound
		}
	}

	path := filepath.Join(s.dir, ticket)
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrNotFound
	}

	return &StagedFile{
		Ticket:      ticket,
		Filename:    meta.Filename,
		ContentType: meta.ContentType,
		Size:        meta.Size,
		Path:        path,
		Reader:      &deleteOnClose{File: f, path: path, metaPath: s.metaPath(ticket)},
	}, nil
}

// Sweep removes staged files older than maxAge, including files whose
// metadata only exists on disk.
func (s *DiskStaging) Sweep(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	for ticket, meta := range s.files {
		if meta.StagedAt.Before(cutoff) {
			delete(s.files, ticket)
			os.Remove(filepath.Join(s.dir, ticket))
			os.Remove(s.metaPath(ticket))
		}
	}
	s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(s.dir, entry.Name()))
		}
	}
	return nil
}

func (s *DiskStaging) metaPath(ticket string) string {
	return filepath.Join(s.dir, ticket+".meta")
}

func (s *DiskStaging) saveMeta(ticket string, meta *diskMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(s.metaPath(ticket), data, 0644)
}

func (s *DiskStaging) loadMeta(ticket string) (*diskMeta, error) {
	data, err := os.ReadFile(s.metaPath(ticket))
	if err != nil {
		return nil, err
	}
	var meta diskMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// deleteOnClose removes the staged file once the consumer is done with it.
type deleteOnClose struct {
	*os.File
	path     string
	metaPath string
}

func (d *deleteOnClose) Close() error {
	err := d.File.Close()
	os.Remove(d.path)
	os.Remove(d.metaPath)
	return err
}
