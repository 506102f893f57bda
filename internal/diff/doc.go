// Package diff segments per-file unified-diff patch fragments into
// addressable change units and owns the diff-position arithmetic the
// GitHub review-comment API requires.
package diff
