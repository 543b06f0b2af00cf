package env

import "os"

// Get looks up an environment variable, falling back when unset or empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
