// Package snapshot persists the resting model of a controller between runs.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Snapshot is a model stored under an id.
type Snapshot[M any] struct {
	ID      string    `json:"id" yaml:"id"`
	SavedAt time.Time `json:"saved_at" yaml:"saved_at"`
	Model   M         `json:"model" yaml:"model"`
}

// Persister saves and loads snapshots.
type Persister[M any] interface {
	Save(ctx context.Context, id string, model M) error
	Load(ctx context.Context, id string) (Snapshot[M], error)
}

// codec names a serialization format and its file extension.
type codec struct {
	ext       string
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte, any) error
}

var (
	jsonCodec = codec{
		ext:       ".json",
		marshal:   func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") },
		unmarshal: json.Unmarshal,
	}
	yamlCodec = codec{
		ext:       ".yaml",
		marshal:   yaml.Marshal,
		unmarshal: yaml.Unmarshal,
	}
)

// FilePersister stores one file per id in a directory, overwriting on Save.
type FilePersister[M any] struct {
	dir   string
	codec codec
}

// NewJSON creates a JSON FilePersister, ensuring the directory exists.
func NewJSON[M any](dir string) (*FilePersister[M], error) {
	return newFile[M](dir, jsonCodec)
}

// NewYAML creates a YAML FilePersister, ensuring the directory exists.
func NewYAML[M any](dir string) (*FilePersister[M], error) {
	return newFile[M](dir, yamlCodec)
}

// New picks the persister for format ("json" or "yaml").
func New[M any](format, dir string) (*FilePersister[M], error) {
	switch format {
	case "json":
		return NewJSON[M](dir)
	case "yaml", "yml":
		return NewYAML[M](dir)
	default:
		return nil, fmt.Errorf("unknown snapshot format %q", format)
	}
}

func newFile[M any](dir string, c codec) (*FilePersister[M], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &FilePersister[M]{dir: dir, codec: c}, nil
}

func (p *FilePersister[M]) path(id string) string {
	return filepath.Join(p.dir, id+p.codec.ext)
}

func (p *FilePersister[M]) Save(ctx context.Context, id string, model M) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" || filepath.Base(id) != id {
		return fmt.Errorf("invalid snapshot id %q", id)
	}

	data, err := p.codec.marshal(Snapshot[M]{ID: id, SavedAt: time.Now().UTC(), Model: model})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", id, err)
	}

	fn := p.path(id)
	tmp := fn + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, fn); err != nil {
		return fmt.Errorf("rename %s: %w", fn, err)
	}
	return nil
}

func (p *FilePersister[M]) Load(ctx context.Context, id string) (Snapshot[M], error) {
	if err := ctx.Err(); err != nil {
		return Snapshot[M]{}, err
	}

	fn := p.path(id)
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot[M]{}, fmt.Errorf("snapshot %q: %w", id, os.ErrNotExist)
		}
		return Snapshot[M]{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var s Snapshot[M]
	if err := p.codec.unmarshal(data, &s); err != nil {
		return Snapshot[M]{}, fmt.Errorf("unmarshal %s: %w", fn, err)
	}
	s.ID = id
	return s, nil
}
