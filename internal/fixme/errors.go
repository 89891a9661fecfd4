package fixme

import "fmt"

// StageError attributes a fatal error to the stage that produced it.
type StageError struct {
	Stage Stage
	Pass  int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
