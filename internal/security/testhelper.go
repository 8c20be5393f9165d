package security

import "time"

// testSecret signs tokens in unit tests only. Do not use in production.
const testSecret = "unit-test-signing-secret-do-not-use"

// NewTestTokenProvider returns a TokenProvider using the embedded test secret with a 1h lifetime.
// For unit tests only. Callers must not use in production.
func NewTestTokenProvider() *TokenProvider {
	p, err := NewTokenProvider([]byte(testSecret), time.Hour, 0)
	if err != nil {
		panic(err)
	}
	return p
}
