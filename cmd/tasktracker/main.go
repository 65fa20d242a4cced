package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gofrs/flock"

	"github.com/kazz187/tasktracker/internal/config"
	"github.com/kazz187/tasktracker/internal/task"
	"github.com/kazz187/tasktracker/internal/tracker"
	"github.com/kazz187/tasktracker/pkg/cerr"
	"github.com/kazz187/tasktracker/pkg/clog"
	termcolor "github.com/kazz187/tasktracker/pkg/color"
	"github.com/kazz187/tasktracker/pkg/storage"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	app = kingpin.New("tasktracker", "Track personal tasks from the command line")

	fileFlag     = app.Flag("file", "Task file path (default: $TASKTRACKER_FILE or $XDG_DATA_HOME/tasktracker/tasks.yaml)").Short('f').String()
	strictFlag   = app.Flag("strict", "Fail instead of starting empty when the task file cannot be parsed").Bool()
	dryRunFlag   = app.Flag("dry-run", "Show how the task file would change without writing it").Bool()
	noColorFlag  = app.Flag("no-color", "Disable colored output").Bool()
	logLevelFlag = app.Flag("log-level", "Log level (debug, info, warn, error)").String()

	addCmd         = app.Command("add", "Add a new task")
	addDescription = addCmd.Arg("description", "Task description").Required().Strings()

	updateCmd         = app.Command("update", "Update a task's description")
	updateID          = updateCmd.Arg("id", "Task ID").Required().Int()
	updateDescription = updateCmd.Arg("description", "New description").Required().Strings()

	deleteCmd = app.Command("delete", "Delete a task")
	deleteID  = deleteCmd.Arg("id", "Task ID").Required().Int()

	markTodoCmd = app.Command("mark-todo", "Mark a task as todo again")
	markTodoID  = markTodoCmd.Arg("id", "Task ID").Required().Int()

	markInProgressCmd = app.Command("mark-in-progress", "Mark a task as in progress")
	markInProgressID  = markInProgressCmd.Arg("id", "Task ID").Required().Int()

	markDoneCmd = app.Command("mark-done", "Mark a task as done")
	markDoneID  = markDoneCmd.Arg("id", "Task ID").Required().Int()

	listCmd    = app.Command("list", "List tasks")
	listStatus = listCmd.Arg("status", "Only show tasks with this status (todo, in-progress, done)").Enum(statusNames()...)

	showCmd = app.Command("show", "Show task details")
	showID  = showCmd.Arg("id", "Task ID").Required().Int()

	renumberCmd = app.Command("renumber", "Renumber tasks to 1..n in list order")
)

func statusNames() []string {
	names := make([]string, len(task.Statuses))
	for i, s := range task.Statuses {
		names[i] = string(s)
	}
	return names
}

func main() {
	app.Version(fmt.Sprintf("tasktracker %s (commit: %s, built: %s)", version, commit, date))
	app.HelpFlag.Short('h')
	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	os.Exit(run(command))
}

func run(command string) int {
	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tasktracker: %v\n", err)
		return 1
	}
	if *logLevelFlag != "" {
		env.LogLevel = *logLevelFlag
	}
	setupLogger(env, termcolor.Setup(*noColorFlag))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = clog.ContextWithSlog(ctx)

	op, err := operation(command)
	if err != nil {
		return report(ctx, err)
	}
	runner, err := newRunner(ctx, env)
	if err != nil {
		return report(ctx, err)
	}
	return report(ctx, runner.Run(ctx, op))
}

func setupLogger(env *config.Env, colored bool) {
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level), clog.WithColor(colored))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))
}

func operation(command string) (tracker.Operation, error) {
	switch command {
	case addCmd.FullCommand():
		return tracker.Add(strings.Join(*addDescription, " ")), nil
	case updateCmd.FullCommand():
		return tracker.Update(*updateID, strings.Join(*updateDescription, " ")), nil
	case deleteCmd.FullCommand():
		return tracker.Delete(*deleteID), nil
	case markTodoCmd.FullCommand():
		return tracker.MarkTodo(*markTodoID), nil
	case markInProgressCmd.FullCommand():
		return tracker.MarkInProgress(*markInProgressID), nil
	case markDoneCmd.FullCommand():
		return tracker.MarkDone(*markDoneID), nil
	case listCmd.FullCommand():
		if *listStatus == "" {
			return tracker.List(nil), nil
		}
		status, err := task.ParseStatus(*listStatus)
		if err != nil {
			return tracker.Operation{}, cerr.NewError(cerr.InvalidArgument, err.Error(), nil)
		}
		return tracker.List(&status), nil
	case showCmd.FullCommand():
		return tracker.Show(*showID), nil
	case renumberCmd.FullCommand():
		return tracker.Renumber(), nil
	}
	return tracker.Operation{}, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unknown command %q", command), nil)
}

func newRunner(ctx context.Context, env *config.Env) (*tracker.Runner, error) {
	path := *fileFlag
	if path == "" {
		var err error
		if path, err = env.DataFile(); err != nil {
			return nil, cerr.NewError(cerr.FailedPrecondition, "cannot locate the task file", err)
		}
	}
	key := filepath.Base(path)
	opts := []tracker.Option{tracker.WithDryRun(*dryRunFlag)}

	local, err := storage.NewLocalStorage(filepath.Dir(path))
	if err != nil {
		return nil, cerr.NewError(cerr.Unavailable, "failed to set up local storage", err)
	}
	opts = append(opts, tracker.WithLock(flock.New(local.Path(key)+".lock")))
	slog.DebugContext(ctx, "using task file", "path", local.Path(key), "strict", env.Strict || *strictFlag)

	repo := task.NewYAMLRepository(local, key, task.WithStrict(env.Strict || *strictFlag))
	return tracker.NewRunner(repo, os.Stdout, opts...), nil
}

// report logs err, prints it for the user and returns the exit status.
func report(ctx context.Context, err error) int {
	if err == nil {
		return 0
	}
	code := cerr.CodeOf(err)
	msg := cerr.Message(err)
	var ce *cerr.Error
	if errors.As(err, &ce) {
		if ce.Err != nil && code.LogLevel() == slog.LevelError {
			msg = fmt.Sprintf("%s: %v", msg, ce.Err)
		}
		if ce.Stack != "" {
			clog.AddStack(ctx, ce.Stack)
		}
	}
	clog.AddError(ctx, err)
	slog.Log(ctx, code.LogLevel(), "command finished with error", "code", code.String())
	fmt.Fprintf(os.Stderr, "tasktracker: %s\n", msg)
	return code.ExitCode()
}
