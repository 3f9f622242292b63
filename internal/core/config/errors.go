package config

import (
	"errors"
	"fmt"
)

// ErrDirective is wrapped by every malformed-directive failure
// (include/lazy/calc/classget/classinit).
var ErrDirective = errors.New("directive resolution failed")

// StageError wraps a loader or processor failure with the stage name and
// document path it originated from. Stage errors are fatal to pipeline
// execution; no partial configuration is left silently half-applied.
type StageError struct {
	Stage    string
	Document string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q (%s): %v", e.Stage, e.Document, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
