package security

import (
	"os"
	"strings"
)

const secretFilePrefix = "file:"

// LoadSecret resolves the signing secret. s is either the secret itself or "file:<path>",
// in which case the file content (trailing newline trimmed) is the secret. An empty result
// is ErrMissingSecret.
func LoadSecret(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrMissingSecret
	}
	if path, ok := strings.CutPrefix(s, secretFilePrefix); ok {
		b, err := os.ReadFile(strings.TrimSpace(path))
		if err != nil {
			return nil, err
		}
		b = []byte(strings.TrimRight(string(b), "\r\n"))
		if len(b) == 0 {
			return nil, ErrMissingSecret
		}
		return b, nil
	}
	return []byte(s), nil
}
