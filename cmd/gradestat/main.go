package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess     = 0 // Command completed
	ExitCheckFailed = 1 // One or more bulletin files failed validation
	ExitError       = 2 // Configuration or runtime error
)

// CheckFailureError indicates that validation itself ran to completion,
// but one or more of the checked files is invalid.
type CheckFailureError struct {
	Message string
}

func (e *CheckFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		// Check error type to determine exit code
		var checkErr *CheckFailureError
		if errors.As(err, &checkErr) {
			os.Exit(ExitCheckFailed)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
