package edit

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"midiedit/midi"
)

// IOError reports a file that could not be read or written
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// EditError wraps every failure of a public edit operation
type EditError struct {
	Op   string
	Path string
	Err  error
}

func (e *EditError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *EditError) Unwrap() error {
	return e.Err
}

func ioError(op, path string, err error) error {
	kind := ftag.Internal
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = ftag.NotFound
	case errors.Is(err, fs.ErrPermission):
		kind = ftag.PermissionDenied
	}
	return fault.Wrap(&IOError{Op: op, Path: path, Err: err},
		fmsg.WithDesc(op+" failed", fmt.Sprintf("Could not %s %s.", op, path)),
		ftag.With(kind),
	)
}

func invalid(err error) error {
	return fault.Wrap(err,
		fmsg.WithDesc("invalid argument", err.Error()),
		ftag.With(ftag.InvalidArgument),
	)
}

// IsIO reports whether err came from reading or writing a file
func IsIO(err error) bool {
	var e *IOError
	return errors.As(err, &e)
}

// IsFormat reports whether err came from an invalid MIDI buffer
func IsFormat(err error) bool {
	var e *midi.FormatError
	return errors.As(err, &e)
}
