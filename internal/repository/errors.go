// Package repository holds the account store implementations.  Both the
// MySQL and the in-memory store return the sentinel errors below so that
// services can tell failure scenarios apart.
package repository

import "errors"

// ErrEmailExists is returned by Create when the email is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when no account matches the lookup.
var ErrNotFound = errors.New("user not found")

// ErrStaleWrite is returned by UpdatePassword when the stored hash no
// longer equals the expected old hash.
var ErrStaleWrite = errors.New("password changed concurrently")

// ErrValueTooLong is returned by Create when a value exceeds its column.
var ErrValueTooLong = errors.New("value too long for column")
