package password

import (
	"errors"
	"fmt"
)

// MinPasswordBytes is the shortest password accepted at signup.
const MinPasswordBytes = 10

// ErrPolicy is returned by CheckPolicy for passwords that are too short or too long.
var ErrPolicy = errors.New("password does not meet policy")

// CheckPolicy enforces the signup length rules. It is kept apart from Hash
// so the same hashers can be used for short one-time codes.
func CheckPolicy(password string, maxBytes int) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPasswordBytes
	}
	if len(password) < MinPasswordBytes {
		return fmt.Errorf("%w: must be at least %d bytes", ErrPolicy, MinPasswordBytes)
	}
	if len(password) > maxBytes {
		return fmt.Errorf("%w: must be at most %d bytes", ErrPolicy, maxBytes)
	}
	return nil
}
