package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Sentinel errors for the gamification core. Handlers map these to HTTP
// statuses; everything else surfaces as a generic internal failure.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidXPAmount = errors.New("xp amount must be a positive integer")
)

// isDuplicateKey reports whether err is a uniqueness-constraint violation.
// Postgres reports through the GORM error translator; the sqlite driver
// used in tests surfaces the raw constraint message.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
