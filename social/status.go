package social

import (
	"errors"
	"net/http"

	"clipshare/db"
)

// StatusCode maps an error from this package or the store to an HTTP
// status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidUsername),
		errors.Is(err, ErrInvalidRelationship),
		errors.Is(err, ErrInvalidComment),
		errors.Is(err, db.ErrInvalidPath):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
