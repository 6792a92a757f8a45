package repository

import (
	"database/sql"
	"errors"
)

// HandleNotFound converts sql.ErrNoRows into a nil result without error.
// Find* operations use it wherever a missing row is an expected outcome
// (unknown session token, unclaimed username) rather than a failure.
//
// Usage:
//
//	var session model.Session
//	err := r.db.GetContext(ctx, &session, query, args...)
//	return HandleNotFound(&session, err)
func HandleNotFound[T any](result *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
