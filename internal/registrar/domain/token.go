package domain

import "time"

// Token is a single-use invitation secret. Once consumed it stays in the
// store as an audit record: Used flips to true exactly once, and UsedAt and
// UsedBy are set at the same moment and never change again.
type Token struct {
	ID        int64
	Value     string
	Used      bool
	CreatedAt time.Time
	UsedAt    *time.Time
	UsedBy    *string
}

// TokenFilter selects which bucket of tokens to list.
type TokenFilter string

const (
	TokenFilterAll    TokenFilter = "all"
	TokenFilterUsed   TokenFilter = "used"
	TokenFilterUnused TokenFilter = "unused"
)

// ParseTokenFilter maps a query-string value onto a filter, defaulting to all.
func ParseTokenFilter(s string) TokenFilter {
	switch TokenFilter(s) {
	case TokenFilterUsed:
		return TokenFilterUsed
	case TokenFilterUnused:
		return TokenFilterUnused
	default:
		return TokenFilterAll
	}
}

// TokenStats summarizes the token buckets for the admin UI.
type TokenStats struct {
	Total  int
	Used   int
	Unused int
}
