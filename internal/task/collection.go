package task

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/kazz187/tasktracker/pkg/cerr"
)

// Collection is the ordered set of tasks for one invocation. Insertion order
// is display order; ids are unique and handed out from nextID, which only
// grows, so an id keeps naming the same task across deletions.
type Collection struct {
	tasks  []*Task
	nextID int
	now    func() time.Time

	// unparsed holds the stored document when it could not be loaded intact.
	unparsed []byte
}

// NewCollection returns an empty collection whose first task gets id 1.
func NewCollection() *Collection {
	return &Collection{nextID: 1, now: time.Now}
}

// RestoreStats counts the repairs Restore made to stored tasks.
type RestoreStats struct {
	Reassigned int // tasks given a fresh id
	Dropped    int // tasks without a description
}

// Restore rebuilds a collection from stored tasks. Tasks with a blank
// description are dropped. Tasks without a positive id, or repeating an
// earlier id, get fresh ids after the highest one. A task without a status
// becomes Todo.
func Restore(tasks []*Task, nextID int) (*Collection, RestoreStats) {
	c := NewCollection()
	var stats RestoreStats
	seen := make(map[int]bool, len(tasks))
	maxID := 0
	var orphans []*Task
	for _, t := range tasks {
		if t == nil {
			continue
		}
		if strings.TrimSpace(t.Description) == "" {
			stats.Dropped++
			continue
		}
		if t.Status == "" {
			t.Status = StatusTodo
		}
		if t.ID < 1 || seen[t.ID] {
			orphans = append(orphans, t)
		} else {
			seen[t.ID] = true
			maxID = max(maxID, t.ID)
		}
		c.tasks = append(c.tasks, t)
	}
	c.nextID = max(nextID, maxID+1, 1)
	for _, t := range orphans {
		t.ID = c.nextID
		c.nextID++
	}
	stats.Reassigned = len(orphans)
	return c, stats
}

// Unparsed returns the stored document this collection replaces because it
// could not be loaded intact, or nil.
func (c *Collection) Unparsed() []byte {
	return c.unparsed
}

// SetClock replaces the time source used for created_at and updated_at.
func (c *Collection) SetClock(now func() time.Time) {
	c.now = now
}

func (c *Collection) Len() int {
	return len(c.tasks)
}

// NextID is the id the next added task will receive.
func (c *Collection) NextID() int {
	return c.nextID
}

// Tasks returns the tasks in collection order. The slice is a copy; the
// tasks are shared.
func (c *Collection) Tasks() []*Task {
	return slices.Clone(c.tasks)
}

// Add appends a new Todo task and returns it.
func (c *Collection) Add(description string) (*Task, error) {
	description, err := checkDescription(description)
	if err != nil {
		return nil, err
	}
	now := c.now()
	t := &Task{
		ID:          c.nextID,
		Description: description,
		Status:      StatusTodo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.nextID++
	c.tasks = append(c.tasks, t)
	return t, nil
}

func (c *Collection) Get(id int) (*Task, error) {
	i, err := c.index(id)
	if err != nil {
		return nil, err
	}
	return c.tasks[i], nil
}

// Update replaces the description of task id.
func (c *Collection) Update(id int, description string) (*Task, error) {
	i, err := c.index(id)
	if err != nil {
		return nil, err
	}
	description, err = checkDescription(description)
	if err != nil {
		return nil, err
	}
	t := c.tasks[i]
	t.Description = description
	t.UpdatedAt = c.now()
	return t, nil
}

// Delete removes task id and returns it. Other tasks keep their ids.
func (c *Collection) Delete(id int) (*Task, error) {
	i, err := c.index(id)
	if err != nil {
		return nil, err
	}
	t := c.tasks[i]
	c.tasks = slices.Delete(c.tasks, i, i+1)
	return t, nil
}

func (c *Collection) MarkTodo(id int) (*Task, error) {
	return c.setStatus(id, StatusTodo)
}

func (c *Collection) MarkInProgress(id int) (*Task, error) {
	return c.setStatus(id, StatusInProgress)
}

// MarkDone is idempotent: marking a Done task again changes nothing.
func (c *Collection) MarkDone(id int) (*Task, error) {
	return c.setStatus(id, StatusDone)
}

func (c *Collection) setStatus(id int, status Status) (*Task, error) {
	i, err := c.index(id)
	if err != nil {
		return nil, err
	}
	t := c.tasks[i]
	if t.Status == status {
		return t, nil
	}
	t.Status = status
	t.UpdatedAt = c.now()
	return t, nil
}

// List yields the tasks whose status equals filter, or every task when
// filter is nil, in collection order. The sequence reads the collection each
// time it is ranged over.
func (c *Collection) List(filter *Status) iter.Seq[*Task] {
	return func(yield func(*Task) bool) {
		for _, t := range c.tasks {
			if filter != nil && t.Status != *filter {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

// Renumber rewrites ids to 1..n in collection order and returns how many
// tasks changed id.
func (c *Collection) Renumber() int {
	changed := 0
	for i, t := range c.tasks {
		if t.ID != i+1 {
			t.ID = i + 1
			changed++
		}
	}
	c.nextID = len(c.tasks) + 1
	return changed
}

func (c *Collection) index(id int) (int, error) {
	if id >= 1 && id < c.nextID {
		for i, t := range c.tasks {
			if t.ID == id {
				return i, nil
			}
		}
	}
	return -1, cerr.NewError(cerr.NotFound, fmt.Sprintf("task %d not found", id), nil)
}

func checkDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", cerr.NewError(cerr.InvalidArgument, "task description cannot be empty", nil)
	}
	return description, nil
}
