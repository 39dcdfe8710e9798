package cerr

import (
	"errors"
	"fmt"

	"github.com/taskdeck/taskdeck/pkg/docstore"
)

// WrapStoreReadError converts a docstore read failure into a cerr.Error,
// turning missing documents into NotFound and everything else into an opaque
// Internal error. The outward message never leaks store detail.
func WrapStoreReadError(target string, err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return NewError(NotFound, fmt.Sprintf("%s not found", capitalized(target)), err)
	}
	return NewError(Internal, "Internal Server Error", fmt.Errorf("read %s: %w", target, err))
}

func WrapStoreWriteError(target string, err error) error {
	return NewError(Internal, "Internal Server Error", fmt.Errorf("write %s: %w", target, err))
}

func WrapStoreDeleteError(target string, err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return NewError(NotFound, fmt.Sprintf("%s not found", capitalized(target)), err)
	}
	return NewError(Internal, "Internal Server Error", fmt.Errorf("delete %s: %w", target, err))
}

func capitalized(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
