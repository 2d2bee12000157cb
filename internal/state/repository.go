package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Repository persists the full ordered message sequence.
//
// Save rewrites the entire sequence on every call: the message board is
// small (hundreds of entries) and wholesale replacement keeps last-write-
// wins semantics trivial. Implementations must not leave partial content
// visible after a failed Save.
type Repository interface {
	// Load returns the persisted sequence in append order.
	// A missing backing store yields an empty sequence, not an error.
	Load(ctx context.Context) ([]Message, error)

	// Save replaces the persisted sequence with msgs.
	Save(ctx context.Context, msgs []Message) error

	// Close releases the backing store. Idempotent.
	Close() error
}

// messagesDoc is the on-disk JSON layout of the file backend.
type messagesDoc struct {
	Messages []Message `json:"messages"`
}

// filePermissions is the permission mode for the messages file.
const filePermissions = 0600

// FileRepository persists messages as a single JSON document.
//
// Each Save writes a temporary file in the target directory and renames it
// over the previous document, so readers never observe a torn write and a
// crash mid-write leaves the prior content intact.
type FileRepository struct {
	path string
}

// NewFileRepository creates a file-backed repository at path, creating the
// parent directory if needed.
func NewFileRepository(path string) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating messages directory: %w", err)
	}
	return &FileRepository{path: path}, nil
}

// Load reads the persisted message sequence. A missing file is an empty
// board, not an error.
func (r *FileRepository) Load(_ context.Context) ([]Message, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading messages file: %w", err)
	}

	var doc messagesDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing messages file: %w", err)
	}
	return doc.Messages, nil
}

// Save atomically replaces the messages file with the given sequence.
func (r *FileRepository) Save(_ context.Context, msgs []Message) error {
	doc := messagesDoc{Messages: msgs}
	if doc.Messages == nil {
		doc.Messages = []Message{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding messages: %w", err)
	}

	// Write-temp-then-rename: the rename is atomic on POSIX filesystems,
	// so the previous document survives any failure before it.
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".messages-*.json")
	if err != nil {
		return fmt.Errorf("creating temp messages file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()          //nolint:errcheck // Best effort cleanup on error path
		os.Remove(tmpName)   //nolint:errcheck
		return fmt.Errorf("writing temp messages file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return fmt.Errorf("closing temp messages file: %w", err)
	}
	if err := os.Chmod(tmpName, filePermissions); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return fmt.Errorf("setting messages file permissions: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return fmt.Errorf("replacing messages file: %w", err)
	}
	return nil
}

// Close implements Repository. The file backend holds no open handles.
func (r *FileRepository) Close() error {
	return nil
}
