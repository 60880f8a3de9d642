package db

import "errors"

// ErrRunNotFound is returned when a selection run id is unknown
var ErrRunNotFound = errors.New("selection run not found")
