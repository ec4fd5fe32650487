package store

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("already exists")
	ErrUnknownEntity  = errors.New("unknown entity type")
	ErrNoTransaction  = errors.New("no transaction in progress")
)
