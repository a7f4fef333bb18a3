package timeline

import (
	"errors"
	"fmt"
)

// ErrInvalidWorkout matches every *CompilationError via errors.Is.
var ErrInvalidWorkout = errors.New("invalid workout definition")

// CompilationError reports a malformed block parameter. BlockIndex is -1 for
// errors in the compile options themselves.
type CompilationError struct {
	BlockIndex int    `json:"block_index"`
	BlockID    string `json:"block_id,omitempty"`
	Param      string `json:"param"`
	Reason     string `json:"reason"`
}

func (e *CompilationError) Error() string {
	if e.BlockIndex < 0 {
		return fmt.Sprintf("compile options: %s: %s", e.Param, e.Reason)
	}
	if e.BlockID != "" {
		return fmt.Sprintf("block %d (%s): %s: %s", e.BlockIndex, e.BlockID, e.Param, e.Reason)
	}
	return fmt.Sprintf("block %d: %s: %s", e.BlockIndex, e.Param, e.Reason)
}

func (e *CompilationError) Is(target error) bool {
	return target == ErrInvalidWorkout
}
