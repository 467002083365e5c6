package commons

import "errors"

var ErrRecordNotFound = errors.New("Record not found")
var ErrDuplicateRecord = errors.New("Record already exists")
var ErrStaleRecord = errors.New("Record was modified concurrently")
var ErrValueOutOfRange = errors.New("Record value out of range")
