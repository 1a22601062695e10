package ports

import "errors"

// ErrNotFound is returned by stores when the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateActiveSession is returned by SessionStore.CreateSession when a
// non-terminal session already exists for the same (route, date).
var ErrDuplicateActiveSession = errors.New("active session already exists for route and date")
