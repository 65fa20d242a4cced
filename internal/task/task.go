package task

import (
	"context"
	"time"
)

// Task is one unit of work. ID is a permanent handle: it is assigned from the
// collection's counter at creation and never reused after deletion.
type Task struct {
	ID          int       `yaml:"id"`
	Description string    `yaml:"description"`
	Status      Status    `yaml:"status"`
	CreatedAt   time.Time `yaml:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at"`
}

// Repository loads and saves a whole Collection.
type Repository interface {
	Load(ctx context.Context) (*Collection, error)
	Save(ctx context.Context, c *Collection) error
	// Render returns the document Save would write for c.
	Render(c *Collection) ([]byte, error)
}
