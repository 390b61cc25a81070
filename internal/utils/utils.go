// Package utils holds small helpers shared across commands and services
package utils

import (
	"strings"
	"time"

	"github.com/goombaio/namegenerator"
)

// GenerateReviewName creates a random, memorable name for a review run
// using namegenerator, e.g. "wispy-dust"
func GenerateReviewName() string {
	seed := time.Now().UTC().UnixNano()
	name := namegenerator.NewNameGenerator(seed).Generate()

	// Some names might have underscores; convert to hyphens for consistency
	return strings.ReplaceAll(name, "_", "-")
}

// TruncateString shortens s to max runes, appending an ellipsis when
// anything was cut
func TruncateString(s string, max int) string {
	if max <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= max {
		return s
	}

	if max <= 3 {
		return string(runes[:max])
	}

	return string(runes[:max-3]) + "..."
}
