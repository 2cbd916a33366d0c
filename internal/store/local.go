package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zlib"

	"github.com/ChenghaoMou/edgar-crawler/internal/model"
)

// LocalStore is the local-disk implementation of BatchStore and BlobStore.
// Batches live at <dir>/<pagekey>.jsonl, one JSON record per exhibit.
//
// Design decision: Writes go to a temp file in the destination directory and
// are renamed into place, because:
// 1. Rename within one directory is atomic on POSIX filesystems
// 2. A crash mid-write leaves a stray temp file, never a truncated batch
// 3. Skip-existing can then treat existence as completeness, with no
//    separate manifest to keep in sync
type LocalStore struct {
	dir string
}

var _ BatchStore = (*LocalStore)(nil)
var _ BlobStore = (*LocalStore)(nil)

// NewLocalStore creates a store rooted at dir, creating it if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("store directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *LocalStore) Dir() string {
	return s.dir
}

// record is the JSONL line format for one exhibit. The exhibit's own fields
// are promoted as-is; the document body travels zlib-compressed in
// doc_content, which encoding/json renders as base64.
type record struct {
	*model.Exhibit
	DocContent []byte `json:"doc_content"`
}

// batchPath returns the on-disk location for a page key.
func (s *LocalStore) batchPath(key string) string {
	return filepath.Join(s.dir, key+".jsonl")
}

// Exists reports whether a batch file is present for key.
func (s *LocalStore) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(s.batchPath(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check batch %s: %w", key, err)
}

// ReadBatch loads and decompresses the batch stored under key.
// The batch-level fields are rebuilt from the records: every record of a
// page carries the same index URL and filing dates.
func (s *LocalStore) ReadBatch(ctx context.Context, key string) (*model.Batch, error) {
	f, err := os.Open(s.batchPath(key))
	if err != nil {
		return nil, fmt.Errorf("failed to open batch %s: %w", key, err)
	}
	defer f.Close()

	batch := &model.Batch{PageKey: key}

	// json.Decoder streams concatenated values, so record size is not
	// limited by a line buffer.
	dec := json.NewDecoder(bufio.NewReader(f))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec := record{Exhibit: &model.Exhibit{}}
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode batch %s: %w", key, err)
		}

		content, err := decompress(rec.DocContent)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress record in batch %s: %w", key, err)
		}
		rec.Exhibit.Content = content
		batch.Exhibits = append(batch.Exhibits, rec.Exhibit)
	}

	if len(batch.Exhibits) > 0 {
		first := batch.Exhibits[0]
		batch.IndexHTMLURL = first.IndexHTMLURL
		batch.Metadata = model.FilingMetadata{
			FilingDate: first.FilingDate,
			ReportDate: first.ReportDate,
		}
	}
	return batch, nil
}

// WriteBatch stores the batch under key, replacing any previous file.
func (s *LocalStore) WriteBatch(ctx context.Context, key string, batch *model.Batch) error {
	dest := s.batchPath(key)

	return s.writeAtomic(dest, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		for _, ex := range batch.Exhibits {
			if err := ctx.Err(); err != nil {
				return err
			}

			compressed, err := compress(ex.Content)
			if err != nil {
				return fmt.Errorf("failed to compress %s: %w", ex.Filename, err)
			}
			if err := enc.Encode(record{Exhibit: ex, DocContent: compressed}); err != nil {
				return fmt.Errorf("failed to encode %s: %w", ex.Filename, err)
			}
		}
		return nil
	})
}

// PutObject writes data to <dir>/<name> atomically and returns the path.
// Name must be a bare file name; paths are rejected so blobs cannot land
// outside the store.
func (s *LocalStore) PutObject(_ context.Context, name string, data []byte) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	dest := filepath.Join(s.dir, name)

	err := s.writeAtomic(dest, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return "", err
	}
	return dest, nil
}

// writeAtomic runs write against a temp file in the destination directory
// and renames it into place. On any failure the temp file is removed and
// dest is left untouched.
func (s *LocalStore) writeAtomic(dest string, write func(io.Writer) error) error {
	dir := filepath.Dir(dest)

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, 0644)

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to flush %s: %w", dest, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", dest, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", dest, err)
	}
	return nil
}

// compress deflates data with zlib.
func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decompress inflates a zlib stream.
func decompress(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
