package panicerr

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/panics"

	"github.com/kazz187/tasktracker/pkg/cerr"
)

// Run calls fn and returns its error. A panic inside fn comes back as a
// cerr.Internal error named after the operation, carrying the stack of the
// panicking goroutine rather than the one of the recovery site.
func Run(ctx context.Context, name string, fn func(context.Context) error) error {
	var (
		catcher panics.Catcher
		err     error
	)
	catcher.Try(func() {
		err = fn(ctx)
	})
	if r := catcher.Recovered(); r != nil {
		return &cerr.Error{
			Code:  cerr.Internal,
			Msg:   fmt.Sprintf("%s panicked", name),
			Err:   fmt.Errorf("panic: %v", r.Value),
			Stack: string(r.Stack),
		}
	}
	return err
}
