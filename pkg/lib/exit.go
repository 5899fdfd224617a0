package lib

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Exit prints the error and exits the program with Code(err).
func Exit(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(Code(err))
}

// Code is the process exit code for err: 0 for nil, 130 for an interrupted
// run, 1 otherwise.
func Code(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}
