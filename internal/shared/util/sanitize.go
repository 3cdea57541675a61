package util

import (
	"errors"
	"regexp"
	"strings"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// SanitizeFileName replaces every character outside [a-zA-Z0-9.-] with an
// underscore and rejects names that would escape their directory.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(name)
	if s == "" || strings.Contains(s, "..") {
		return "", errors.New("invalid file name")
	}
	s = unsafeNameChars.ReplaceAllString(s, "_")
	if strings.Trim(s, "._") == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// CleanKey validates a relative storage key.
func CleanKey(key string) (string, error) {
	k := strings.TrimLeft(strings.TrimSpace(key), "/")
	if k == "" {
		return "", errors.New("empty storage key")
	}
	for _, part := range strings.Split(k, "/") {
		if part == ".." {
			return "", errors.New("invalid storage key")
		}
	}
	return k, nil
}
