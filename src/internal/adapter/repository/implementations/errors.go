package implementations

import (
	"errors"

	"github.com/lib/pq"
)

const (
	uniqueViolationCode   = "23505"
	numericOutOfRangeCode = "22003"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolationCode
	}
	return false
}

func isNumericOutOfRange(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == numericOutOfRangeCode
	}
	return false
}
