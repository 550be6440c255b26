package logutil

// TokenPrefixLen is how much of a secret token may appear in logs.
const TokenPrefixLen = 8

// TruncateForLog truncates a string to maxLen bytes, appending "..." when
// anything was cut.
func TruncateForLog(s string, maxLen int) string {
	if maxLen <= 0 {
		return "..."
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Token returns the loggable prefix of a state, transfer or provider token.
func Token(s string) string {
	if s == "" {
		return ""
	}
	return TruncateForLog(s, TokenPrefixLen)
}
