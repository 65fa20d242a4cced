package render

import (
	"fmt"
	"io"
	"iter"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/kazz187/tasktracker/internal/task"
)

const timeLayout = "2006-01-02 15:04"

var statusColors = map[task.Status]*color.Color{
	task.StatusTodo:       color.New(color.FgYellow),
	task.StatusInProgress: color.New(color.FgCyan),
	task.StatusDone:       color.New(color.FgGreen),
}

// Renderer writes tasks and messages for a terminal.
type Renderer struct {
	w io.Writer
}

func New(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

func (r *Renderer) Messagef(format string, args ...any) {
	fmt.Fprintf(r.w, format+"\n", args...)
}

// Table writes one row per task. Status is the last column so that color
// escapes do not disturb the alignment of the others.
func (r *Renderer) Table(tasks iter.Seq[*task.Task]) int {
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	n := 0
	for t := range tasks {
		if n == 0 {
			fmt.Fprintln(tw, "ID\tDESCRIPTION\tCREATED\tUPDATED\tSTATUS")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Description, formatTime(t.CreatedAt), formatTime(t.UpdatedAt), Status(t.Status))
		n++
	}
	_ = tw.Flush()
	if n == 0 {
		fmt.Fprintln(r.w, "No tasks.")
	}
	return n
}

// Task writes every field of t, one per line.
func (r *Renderer) Task(t *task.Task) {
	fmt.Fprintf(r.w, "ID:          %d\n", t.ID)
	fmt.Fprintf(r.w, "Description: %s\n", t.Description)
	fmt.Fprintf(r.w, "Status:      %s\n", Status(t.Status))
	fmt.Fprintf(r.w, "Created:     %s\n", t.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(r.w, "Updated:     %s\n", t.UpdatedAt.Format(time.RFC3339))
}

// Status returns the colored label of s.
func Status(s task.Status) string {
	if c, ok := statusColors[s]; ok {
		return c.Sprint(s.Label())
	}
	return s.Label()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}
