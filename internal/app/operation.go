package app

import (
	"strings"
	"time"
)

// opIDLayout timestamps an operation; it also tags every log line it writes.
const opIDLayout = "20060102T150405Z"

// Operation tracks one CLI invocation. It starts as a success and is marked
// failed by the caller when the command returns an error.
type Operation struct {
	ID      string
	Command string
	Args    []string
	Status  string // "success" or "error"
}

// NewOperation creates an operation for command started at now.
func NewOperation(command string, args []string, now time.Time) *Operation {
	return &Operation{
		ID:      now.UTC().Format(opIDLayout),
		Command: command,
		Args:    append([]string(nil), args...),
		Status:  "success",
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() {
	op.Status = "error"
}

// Failed reports whether the operation was marked failed.
func (op *Operation) Failed() bool {
	return op.Status == "error"
}

// String renders the command line for logs.
func (op *Operation) String() string {
	if len(op.Args) == 0 {
		return op.Command
	}
	return op.Command + " " + strings.Join(op.Args, " ")
}
