package service

// Persisted diagnostics are capped at 4000 characters; the interactive
// single-shot flow reports at most 1200.
const (
	maxDetailLen     = 4000
	maxSingleShotLen = 1200
)

// lastN keeps the tail of s, where the useful part of tool output ends up.
func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
