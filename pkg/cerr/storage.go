package cerr

import (
	"errors"
	"fmt"

	"github.com/kazz187/tasktracker/pkg/storage"
)

func WrapStorageReadError(target string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return NewError(NotFound, fmt.Sprintf("%s not found", target), err)
	}
	return NewError(Internal, fmt.Sprintf("failed to read %s", target), err)
}

func WrapStorageWriteError(target string, err error) error {
	return NewError(Internal, fmt.Sprintf("failed to write %s", target), err)
}
