package testsupport

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	// Global counter for generating unique sequential IDs in tests
	testSequence uint64

	// Base timestamp to make names shorter
	baseTimestamp = time.Now().UnixNano()
)

func init() {
	// Initialize with current timestamp to ensure uniqueness across test runs
	testSequence = uint64(baseTimestamp % 1000000)
}

// NextSequence returns next unique sequence number
func NextSequence() uint64 {
	return atomic.AddUint64(&testSequence, 1)
}

// UniqueName generates a unique name with given prefix
// Example: UniqueName("applicant") -> "applicant_123456"
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, NextSequence())
}

// UniqueEmail generates a unique email address
// Example: UniqueEmail("borrower") -> "borrower_123456@test.local"
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@test.local", prefix, NextSequence())
}

// UniqueString generates a unique string identifier
// Useful when you need guaranteed uniqueness (uses UUID)
func UniqueString() string {
	return uuid.New().String()
}

// UniqueSSN generates a unique, obviously fake social security number
// for test applications. Uses the 900-999 area range reserved for testing.
func UniqueSSN() string {
	seq := NextSequence()
	return fmt.Sprintf("9%02d-%02d-%04d", seq%100, (seq/100)%100, seq%10000)
}

// UniqueLoanNumber generates a unique loan application number
// Example: UniqueLoanNumber() -> "LN-123456"
func UniqueLoanNumber() string {
	return fmt.Sprintf("LN-%d", NextSequence())
}

// UniqueEventID generates a unique event ID
func UniqueEventID() string {
	return fmt.Sprintf("event_%d_%s", NextSequence(), uuid.New().String()[:8])
}
