package tracker

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/tasktracker/internal/render"
	"github.com/kazz187/tasktracker/internal/task"
	"github.com/kazz187/tasktracker/pkg/cerr"
	"github.com/kazz187/tasktracker/pkg/storage"
)

const key = "tasks.yaml"

type env struct {
	store *storage.MemoryStorage
	repo  *task.YAMLRepository
	out   *bytes.Buffer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })

	s := storage.NewMemoryStorage()
	return &env{
		store: s,
		repo:  task.NewYAMLRepository(s, key),
		out:   &bytes.Buffer{},
	}
}

func (e *env) run(t *testing.T, op Operation, opts ...Option) error {
	t.Helper()
	e.out.Reset()
	clock := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	opts = append([]Option{WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})}, opts...)
	return NewRunner(e.repo, e.out, opts...).Run(context.Background(), op)
}

func (e *env) load(t *testing.T) *task.Collection {
	t.Helper()
	c, err := e.repo.Load(context.Background())
	require.NoError(t, err)
	return c
}

func statusPtr(s task.Status) *task.Status {
	return &s
}

func TestRunner_ExampleSession(t *testing.T) {
	e := newEnv(t)

	require.NoError(t, e.run(t, Add("buy milk")))
	assert.Equal(t, "Task added successfully (ID: 1)\n", e.out.String())

	require.NoError(t, e.run(t, MarkInProgress(1)))
	assert.Equal(t, "Task 1 marked as InProgress\n", e.out.String())

	require.NoError(t, e.run(t, Add("pay bills")))
	assert.Equal(t, "Task added successfully (ID: 2)\n", e.out.String())

	require.NoError(t, e.run(t, Delete(1)))
	assert.Equal(t, "Task 1 deleted: buy milk\n", e.out.String())

	require.NoError(t, e.run(t, List(statusPtr(task.StatusTodo))))
	assert.Contains(t, e.out.String(), "2   pay bills")
	assert.NotContains(t, e.out.String(), "buy milk")

	c := e.load(t)
	assert.Equal(t, 1, c.Len())
	remaining, err := c.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "pay bills", remaining.Description)
}

func TestRunner_NotFoundStillSaves(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.run(t, Add("buy milk")))
	writes := e.store.Writes
	before := e.load(t).Tasks()[0].UpdatedAt

	for _, op := range []Operation{Update(0, "x"), Delete(2), MarkInProgress(5), MarkDone(9), Show(3)} {
		err := e.run(t, op)
		require.Error(t, err, op.Name)
		assert.True(t, cerr.IsCode(err, cerr.NotFound), op.Name)
		assert.Empty(t, e.out.String())
	}

	assert.Equal(t, writes+5, e.store.Writes)
	c := e.load(t)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "buy milk", c.Tasks()[0].Description)
	assert.Equal(t, task.StatusTodo, c.Tasks()[0].Status)
	assert.True(t, before.Equal(c.Tasks()[0].UpdatedAt))
}

func TestRunner_InvalidArgumentDoesNotSave(t *testing.T) {
	e := newEnv(t)

	err := e.run(t, Add("  "))
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
	assert.Zero(t, e.store.Writes)
}

func TestRunner_SaveFailureIsFatal(t *testing.T) {
	e := newEnv(t)
	e.store.WriteErr = errors.New("read-only file system")

	err := e.run(t, Add("buy milk"))
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.Internal))
	assert.Empty(t, e.out.String(), "nothing is reported as done when the save failed")
}

func TestRunner_PanicBecomesError(t *testing.T) {
	e := newEnv(t)

	err := e.run(t, Operation{
		Name: "explode",
		Run: func(*task.Collection, *render.Renderer) error {
			panic("boom")
		},
	})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.Internal))
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, "explode panicked", cerr.Message(err))
	assert.Zero(t, e.store.Writes)
}

func TestRunner_StrictParseFailure(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.store.Write(context.Background(), key, []byte("tasks: [")))
	e.repo = task.NewYAMLRepository(e.store, key, task.WithStrict(true))

	err := e.run(t, List(nil))
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.DataLoss))
	assert.Equal(t, 1, e.store.Writes)
}

func TestRunner_LenientParseFailureStartsEmpty(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.store.Write(context.Background(), key, []byte("tasks: [")))

	require.NoError(t, e.run(t, Add("fresh start")))
	assert.Equal(t, "Task added successfully (ID: 1)\n", e.out.String())
	assert.Len(t, e.store.Keys(), 2, "document plus preserved corrupt copy")
}

func TestRunner_DryRun(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.run(t, Add("buy milk")))
	writes := e.store.Writes

	require.NoError(t, e.run(t, MarkDone(1), WithDryRun(true)))
	out := e.out.String()
	assert.Contains(t, out, "Task 1 marked as Done\n")
	assert.Contains(t, out, "--- tasks (current)\n+++ tasks (after)\n")
	assert.Contains(t, out, "-    status: todo\n")
	assert.Contains(t, out, "+    status: done\n")
	assert.Equal(t, writes, e.store.Writes)
	assert.Equal(t, task.StatusTodo, e.load(t).Tasks()[0].Status)

	require.NoError(t, e.run(t, List(nil), WithDryRun(true)))
	assert.Contains(t, e.out.String(), "Dry run: no changes to the task file.\n")
}

func TestRunner_DryRunOnCorruptDocument(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.store.Write(context.Background(), key, []byte("tasks: [")))
	writes := e.store.Writes

	require.NoError(t, e.run(t, Add("fresh start"), WithDryRun(true)))
	out := e.out.String()
	assert.Contains(t, out, "-tasks: [\n")
	assert.Contains(t, out, "+    description: fresh start\n")
	assert.Equal(t, writes, e.store.Writes)
	assert.Equal(t, []string{key}, e.store.Keys())

	// A session that fails before saving leaves no backup behind either.
	err := e.run(t, Add("   "))
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
	assert.Equal(t, writes, e.store.Writes)
	assert.Equal(t, []string{key}, e.store.Keys())
}

func TestRunner_Lock(t *testing.T) {
	e := newEnv(t)
	lockPath := filepath.Join(t.TempDir(), "tasks.yaml.lock")

	held := flock.New(lockPath)
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	err = e.run(t, Add("buy milk"), WithLock(flock.New(lockPath)))
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.Unavailable))
	assert.Zero(t, e.store.Writes)

	require.NoError(t, held.Unlock())
	require.NoError(t, e.run(t, Add("buy milk"), WithLock(flock.New(lockPath))))
	assert.Equal(t, 1, e.store.Writes)
}

func TestRunner_RenumberAndShow(t *testing.T) {
	e := newEnv(t)
	for _, d := range []string{"a", "b", "c"} {
		require.NoError(t, e.run(t, Add(d)))
	}
	require.NoError(t, e.run(t, Delete(1)))

	require.NoError(t, e.run(t, Renumber()))
	assert.Equal(t, "Renumbered 2 of 2 tasks\n", e.out.String())

	require.NoError(t, e.run(t, Show(1)))
	assert.Contains(t, e.out.String(), "Description: b\n")

	require.NoError(t, e.run(t, Add("d")))
	assert.Equal(t, "Task added successfully (ID: 3)\n", e.out.String())
}
