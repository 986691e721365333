// Package storage contains the default [domain.Storage] implementation:
// append-only JSON-lines snapshot files with crash-safe rewrites.
package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dolmen-go/contextio"

	"github.com/jGRUBBS/mongomodel/domain"
	"github.com/jGRUBBS/mongomodel/internal/adapter/data"
)

// backupSuffix marks the temporary file used during crash-safe rewrites.
// Snapshot filenames must not end with it.
const backupSuffix = "~"

// Storage implements domain.Storage.
type Storage struct {
	fileMode os.FileMode
	dirMode  os.FileMode
}

// NewStorage returns a new implementation of domain.Storage.
func NewStorage(options ...domain.StorageOption) domain.Storage {
	opts := domain.StorageOptions{
		FileMode: 0o644,
		DirMode:  0o755,
	}
	for _, option := range options {
		option(&opts)
	}
	return &Storage{fileMode: opts.FileMode, dirMode: opts.DirMode}
}

// Load implements domain.Storage. Lines that cannot be parsed are skipped and
// counted; deciding whether the corruption is acceptable is the caller's
// concern.
func (s *Storage) Load(ctx context.Context, filename string) ([]domain.Document, int, error) {
	if err := checkFilename(filename); err != nil {
		return nil, 0, err
	}
	f, err := os.Open(filename)
	if os.IsNotExist(err) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var docs []domain.Document
	corrupt := 0

	scanner := bufio.NewScanner(contextio.NewReader(ctx, f))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var doc data.M
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			corrupt++
			continue
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, corrupt, err
	}
	return docs, corrupt, nil
}

// Persist implements domain.Storage. The snapshot is written to a backup file
// first and moved over the target in one rename, so a crash mid-write never
// loses the previous snapshot.
func (s *Storage) Persist(ctx context.Context, filename string, docs []domain.Document) error {
	if err := checkFilename(filename); err != nil {
		return err
	}
	if err := s.ensureParentDir(filename); err != nil {
		return err
	}

	backup := filename + backupSuffix
	f, err := os.OpenFile(backup, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, s.fileMode)
	if err != nil {
		return err
	}
	if err := writeLines(ctx, f, docs); err != nil {
		f.Close()
		os.Remove(backup)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(backup)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(backup)
		return err
	}
	return os.Rename(backup, filename)
}

// Append implements domain.Storage.
func (s *Storage) Append(ctx context.Context, filename string, docs ...domain.Document) error {
	if err := checkFilename(filename); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	if err := s.ensureParentDir(filename); err != nil {
		return err
	}

	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_APPEND, s.fileMode)
	if err != nil {
		return err
	}
	if err := writeLines(ctx, f, docs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Remove implements domain.Storage. Removes the snapshot and any leftover
// backup file.
func (s *Storage) Remove(filename string) error {
	if err := checkFilename(filename); err != nil {
		return err
	}
	if err := os.Remove(filename); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(filename + backupSuffix); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Storage) ensureParentDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, s.dirMode)
}

func writeLines(ctx context.Context, f *os.File, docs []domain.Document) error {
	w := bufio.NewWriter(contextio.NewWriter(ctx, f))
	enc := json.NewEncoder(w)
	for _, doc := range docs {
		if err := enc.Encode(asM(doc)); err != nil {
			return err
		}
	}
	return w.Flush()
}

func asM(doc domain.Document) data.M {
	if m, ok := doc.(data.M); ok {
		return m
	}
	res := make(data.M, doc.Len())
	for k, v := range doc.Iter() {
		res[k] = v
	}
	return res
}

func checkFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("storage: filename must not be empty")
	}
	if strings.HasSuffix(filename, backupSuffix) {
		return fmt.Errorf("storage: filename must not end with %q, it is reserved for the backup file", backupSuffix)
	}
	return nil
}
