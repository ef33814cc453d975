package repository

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrInvalidTable is returned by ClearTable for tables outside the whitelist.
var ErrInvalidTable = errors.New("invalid table name")
