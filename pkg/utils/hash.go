package utils

import (
	"crypto/md5"
	"fmt"
)

// HashString returns the md5 hex digest of a string, used to key cache
// entries by their full parameter tuple.
func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}
