package infrastructure

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"wordbearer/domain"
)

// FilePostRecord stores, per league, a JSON array of the ISO week numbers
// whose standings were already posted.
type FilePostRecord struct {
	dir string
	mu  sync.Mutex
}

func NewFilePostRecord(dir string) (*FilePostRecord, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create messages dir: %w", err)
	}
	return &FilePostRecord{dir: dir}, nil
}

func (r *FilePostRecord) Path(league string) string {
	return filepath.Join(r.dir, domain.SanitizeName(league)+"-message-record.json")
}

func (r *FilePostRecord) Posted(league string, week int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	weeks, err := r.read(league)
	if err != nil {
		return false, err
	}
	want := strconv.Itoa(week)
	for _, w := range weeks {
		if fmt.Sprint(w) == want {
			return true, nil
		}
	}
	return false, nil
}

func (r *FilePostRecord) MarkPosted(league string, week int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	weeks, err := r.read(league)
	if err != nil {
		return err
	}
	weeks = append(weeks, week)
	return r.write(league, weeks)
}

// read creates an empty record on first use. Entries may be numbers or
// strings.
func (r *FilePostRecord) read(league string) ([]any, error) {
	path := r.Path(league)
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []any{}, r.write(league, []any{})
	}
	if err != nil {
		return nil, fmt.Errorf("read message record: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var weeks []any
	if err := dec.Decode(&weeks); err != nil {
		return nil, fmt.Errorf("decode message record %s: %w", filepath.Base(path), err)
	}
	return weeks, nil
}

func (r *FilePostRecord) write(league string, weeks []any) error {
	b, err := json.Marshal(weeks)
	if err != nil {
		return err
	}
	path := r.Path(league)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write message record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write message record: %w", err)
	}
	return nil
}
