package tracker

import (
	"github.com/kazz187/tasktracker/internal/render"
	"github.com/kazz187/tasktracker/internal/task"
)

// Operation is one command applied to the loaded collection.
type Operation struct {
	Name   string
	TaskID int
	Run    func(c *task.Collection, out *render.Renderer) error
}

func Add(description string) Operation {
	return Operation{
		Name: "add",
		Run: func(c *task.Collection, out *render.Renderer) error {
			t, err := c.Add(description)
			if err != nil {
				return err
			}
			out.Messagef("Task added successfully (ID: %d)", t.ID)
			return nil
		},
	}
}

func Update(id int, description string) Operation {
	return Operation{
		Name:   "update",
		TaskID: id,
		Run: func(c *task.Collection, out *render.Renderer) error {
			t, err := c.Update(id, description)
			if err != nil {
				return err
			}
			out.Messagef("Task %d updated: %s", t.ID, t.Description)
			return nil
		},
	}
}

func Delete(id int) Operation {
	return Operation{
		Name:   "delete",
		TaskID: id,
		Run: func(c *task.Collection, out *render.Renderer) error {
			t, err := c.Delete(id)
			if err != nil {
				return err
			}
			out.Messagef("Task %d deleted: %s", t.ID, t.Description)
			return nil
		},
	}
}

func MarkTodo(id int) Operation {
	return mark("mark-todo", id, (*task.Collection).MarkTodo)
}

func MarkInProgress(id int) Operation {
	return mark("mark-in-progress", id, (*task.Collection).MarkInProgress)
}

func MarkDone(id int) Operation {
	return mark("mark-done", id, (*task.Collection).MarkDone)
}

func mark(name string, id int, fn func(*task.Collection, int) (*task.Task, error)) Operation {
	return Operation{
		Name:   name,
		TaskID: id,
		Run: func(c *task.Collection, out *render.Renderer) error {
			t, err := fn(c, id)
			if err != nil {
				return err
			}
			out.Messagef("Task %d marked as %s", t.ID, render.Status(t.Status))
			return nil
		},
	}
}

// List shows every task, or only those with status filter when it is non-nil.
func List(filter *task.Status) Operation {
	return Operation{
		Name: "list",
		Run: func(c *task.Collection, out *render.Renderer) error {
			out.Table(c.List(filter))
			return nil
		},
	}
}

func Show(id int) Operation {
	return Operation{
		Name:   "show",
		TaskID: id,
		Run: func(c *task.Collection, out *render.Renderer) error {
			t, err := c.Get(id)
			if err != nil {
				return err
			}
			out.Task(t)
			return nil
		},
	}
}

func Renumber() Operation {
	return Operation{
		Name: "renumber",
		Run: func(c *task.Collection, out *render.Renderer) error {
			changed := c.Renumber()
			out.Messagef("Renumbered %d of %d tasks", changed, c.Len())
			return nil
		},
	}
}
