package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
)

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001":
			return ErrorClassSerialization
		case "40P01":
			return ErrorClassDeadlock
		case "55P03":
			return ErrorClassTransient
		case "23505", "23503", "23502", "23514":
			return ErrorClassPermanent
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrorClassPermanent
	}

	return ErrorClassPermanent
}

func IsRetryable(err error) bool {
	class := ClassifyError(err)
	return class == ErrorClassTransient ||
		class == ErrorClassDeadlock ||
		class == ErrorClassSerialization
}

// IsUniqueViolation reports whether err is a Postgres duplicate-key
// failure, used to surface duplicate emails, slugs and reviews as
// client errors instead of opaque 500s.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrReviewNotFound    = errors.New("review not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidOrderInput = errors.New("invalid order input")
	ErrEmailTaken        = errors.New("email already registered")
	ErrSlugTaken         = errors.New("slug already exists")
	ErrDuplicateReview   = errors.New("product already reviewed by this user")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrForbidden         = errors.New("operation not permitted")
	ErrOrderNotPending   = errors.New("order is not pending")
	ErrLockTimeout       = errors.New("lock timeout")
)
