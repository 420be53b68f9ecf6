package repositories

import "errors"

var (
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a uniqueness constraint was violated
	ErrDuplicate = errors.New("record already exists")

	// ErrSelfLike indicates a user tried to like their own post
	ErrSelfLike = errors.New("cannot like own post")

	// ErrTxnConflict indicates a concurrent transaction touched the same
	// records; the transaction was discarded and may be retried
	ErrTxnConflict = errors.New("transaction conflict")
)
