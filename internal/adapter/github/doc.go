// Package github is the HTTP adapter for the GitHub pull request API:
// commit and file listings, commit comparison, and review/comment
// creation.
package github
