package task

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/kazz187/tasktracker/pkg/cerr"
	"github.com/kazz187/tasktracker/pkg/storage"
)

// taskData is the structure of the YAML document
type taskData struct {
	NextID int     `yaml:"next_id"`
	Tasks  []*Task `yaml:"tasks"`
}

// YAMLRepository implements Repository with a single YAML document
type YAMLRepository struct {
	storage storage.Storage
	key     string
	strict  bool
}

type RepositoryOption func(*YAMLRepository)

// WithStrict makes Load fail with cerr.DataLoss on an unparseable document
// instead of starting from an empty collection.
func WithStrict(strict bool) RepositoryOption {
	return func(r *YAMLRepository) {
		r.strict = strict
	}
}

// NewYAMLRepository creates a repository for the document at key in s.
func NewYAMLRepository(s storage.Storage, key string, opts ...RepositoryOption) *YAMLRepository {
	r := &YAMLRepository{
		storage: s,
		key:     key,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads the document. A missing document is an empty collection. In
// lenient mode an unparseable document is also an empty collection, and
// tasks without a description are dropped; either way the stored bytes stay
// on the collection so Save can preserve them before overwriting. In strict
// mode both are cerr.DataLoss.
func (r *YAMLRepository) Load(ctx context.Context) (*Collection, error) {
	content, err := r.storage.Read(ctx, r.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewCollection(), nil
		}
		return nil, cerr.WrapStorageReadError("tasks", err)
	}

	var data taskData
	if err := yaml.Unmarshal(content, &data); err != nil {
		if r.strict {
			return nil, cerr.NewError(cerr.DataLoss, fmt.Sprintf("%s is not a valid task document", r.key), err)
		}
		slog.WarnContext(ctx, "task document could not be parsed, starting with no tasks", "error", err, "key", r.key)
		c := NewCollection()
		c.unparsed = content
		return c, nil
	}

	c, stats := Restore(data.Tasks, data.NextID)
	if stats.Dropped > 0 {
		if r.strict {
			return nil, cerr.NewError(cerr.DataLoss, fmt.Sprintf("%s has %d task(s) without a description", r.key, stats.Dropped), nil)
		}
		slog.WarnContext(ctx, "dropped tasks without a description", "count", stats.Dropped, "key", r.key)
		c.unparsed = content
	}
	if stats.Reassigned > 0 {
		slog.WarnContext(ctx, "assigned new ids to tasks with missing or duplicate ids", "count", stats.Reassigned, "key", r.key)
	}
	return c, nil
}

// Save overwrites the document with c. When c replaces a document that could
// not be loaded intact, that document is first copied to
// <key>.corrupt-<ULID>; a failed copy fails the save.
func (r *YAMLRepository) Save(ctx context.Context, c *Collection) error {
	content, err := r.Render(c)
	if err != nil {
		return err
	}
	if c.unparsed != nil {
		if err := r.preserve(ctx, c.unparsed); err != nil {
			return err
		}
		c.unparsed = nil
	}
	if err := r.storage.Write(ctx, r.key, content); err != nil {
		return cerr.WrapStorageWriteError("tasks", err)
	}
	return nil
}

func (r *YAMLRepository) preserve(ctx context.Context, content []byte) error {
	key := fmt.Sprintf("%s.corrupt-%s", r.key, ulid.Make().String())
	if err := r.storage.Write(ctx, key, content); err != nil {
		return cerr.WrapStorageWriteError("task document backup", err)
	}
	slog.WarnContext(ctx, "preserved unreadable task document", "key", r.key, "preserved_as", key)
	return nil
}

func (r *YAMLRepository) Render(c *Collection) ([]byte, error) {
	tasks := c.Tasks()
	if tasks == nil {
		tasks = []*Task{}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&taskData{NextID: c.NextID(), Tasks: tasks}); err != nil {
		return nil, cerr.NewError(cerr.Internal, "failed to encode tasks", err)
	}
	if err := enc.Close(); err != nil {
		return nil, cerr.NewError(cerr.Internal, "failed to encode tasks", err)
	}
	return buf.Bytes(), nil
}
