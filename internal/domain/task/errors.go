package task

import "errors"

// ErrInvalidStatus indicates a status outside the workflow.
var ErrInvalidStatus = errors.New("invalid task status")
