package tracker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/kazz187/tasktracker/internal/render"
	"github.com/kazz187/tasktracker/internal/task"
	"github.com/kazz187/tasktracker/pkg/cerr"
	"github.com/kazz187/tasktracker/pkg/clog"
	"github.com/kazz187/tasktracker/pkg/panicerr"
)

// Locker guards the task document for the length of one session.
// *flock.Flock satisfies it.
type Locker interface {
	TryLock() (bool, error)
	Unlock() error
}

// Runner executes one Operation as a load, apply, save transaction.
type Runner struct {
	repo   task.Repository
	out    io.Writer
	lock   Locker
	dryRun bool
	clock  func() time.Time
}

type Option func(*Runner)

// WithLock makes Run fail fast when another process holds l.
func WithLock(l Locker) Option {
	return func(r *Runner) {
		r.lock = l
	}
}

// WithDryRun makes Run print a diff of the document instead of saving it.
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) {
		r.dryRun = dryRun
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.clock = now
	}
}

func NewRunner(repo task.Repository, out io.Writer, opts ...Option) *Runner {
	r := &Runner{
		repo: repo,
		out:  out,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run loads the collection, applies op and saves the result. Output of op is
// written only after the save succeeded. A NotFound from op is returned after
// the (unchanged) collection has been saved; any other failure of op aborts
// the session without saving.
func (r *Runner) Run(ctx context.Context, op Operation) error {
	clog.AddAttribute(ctx, clog.CommandAttributeKey, op.Name)
	if op.TaskID != 0 {
		clog.AddAttribute(ctx, clog.TaskIDAttributeKey, op.TaskID)
	}

	if r.lock != nil {
		locked, err := r.lock.TryLock()
		if err != nil {
			return cerr.NewError(cerr.Unavailable, "failed to lock the task file", err)
		}
		if !locked {
			return cerr.NewError(cerr.Unavailable, "the task file is in use by another tasktracker process", nil)
		}
		defer func() {
			if err := r.lock.Unlock(); err != nil {
				slog.WarnContext(ctx, "failed to release task file lock", "error", err)
			}
		}()
	}

	c, err := r.repo.Load(ctx)
	if err != nil {
		return err
	}
	if r.clock != nil {
		c.SetClock(r.clock)
	}
	slog.DebugContext(ctx, "loaded tasks", "count", c.Len(), "next_id", c.NextID())

	var before []byte
	if r.dryRun {
		// Diff against what is stored, even when it could not be parsed.
		before = c.Unparsed()
		if before == nil {
			if before, err = r.repo.Render(c); err != nil {
				return err
			}
		}
	}

	var buf bytes.Buffer
	opErr := panicerr.Run(ctx, op.Name, func(context.Context) error {
		return op.Run(c, render.New(&buf))
	})
	if opErr != nil {
		if cerr.CodeOf(opErr) == cerr.Unknown {
			opErr = cerr.NewError(cerr.Internal, fmt.Sprintf("%s failed unexpectedly", op.Name), opErr)
		}
		if !cerr.IsCode(opErr, cerr.NotFound) {
			return opErr
		}
		slog.InfoContext(ctx, "operation skipped", "error", opErr)
	}

	if r.dryRun {
		after, err := r.repo.Render(c)
		if err != nil {
			return err
		}
		if _, err := io.Copy(r.out, &buf); err != nil {
			return cerr.NewError(cerr.Internal, "failed to write output", err)
		}
		if err := writeDiff(r.out, before, after); err != nil {
			return err
		}
		return opErr
	}

	if err := r.repo.Save(ctx, c); err != nil {
		return err
	}
	slog.DebugContext(ctx, "saved tasks", "count", c.Len())

	if _, err := io.Copy(r.out, &buf); err != nil {
		return cerr.NewError(cerr.Internal, "failed to write output", err)
	}
	return opErr
}

func writeDiff(w io.Writer, before, after []byte) error {
	if bytes.Equal(before, after) {
		_, err := fmt.Fprintln(w, "Dry run: no changes to the task file.")
		return err
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "tasks (current)",
		ToFile:   "tasks (after)",
		Context:  2,
	})
	if err != nil {
		return cerr.NewError(cerr.Internal, "failed to diff task file", err)
	}
	_, err = fmt.Fprintf(w, "Dry run: the task file would change as follows.\n%s", diff)
	return err
}
