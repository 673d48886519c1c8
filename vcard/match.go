package vcard

// toUpper is ASCII-only, like toupper() in C locale.
// Bytes of multi-byte UTF-8 sequences are returned unchanged.
func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

// ContainsFold returns true if substr is within s, ignoring ASCII case.
// Unlike strings.EqualFold it doesn't do Unicode case folding so
// "ÄRGER" doesn't match "ärger". An empty substr is found in
// any non-empty s but not in an empty s.
func ContainsFold(s, substr string) bool {
	n := len(substr)
	if n == 0 {
		return len(s) > 0
	}
	last := len(s) - n
	for i := 0; i <= last; i++ {
		j := 0
		for j < n && toUpper(s[i+j]) == toUpper(substr[j]) {
			j++
		}
		if j == n {
			return true
		}
	}
	return false
}
