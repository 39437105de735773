package models

import "errors"

// ErrNotFound is returned by stores when a row addressed by id or natural
// key does not exist.
var ErrNotFound = errors.New("not found")
