package statement

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCorrelative renders PREFIX-NN with at least two digits.
func FormatCorrelative(prefix string, n int) string {
	return fmt.Sprintf("%s-%02d", prefix, n)
}

// ParseCorrelative returns the numeric suffix of id when it carries prefix.
func ParseCorrelative(id, prefix string) (int, bool) {
	rest, ok := strings.CutPrefix(id, prefix+"-")
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 || strings.HasPrefix(rest, "+") {
		return 0, false
	}
	return n, true
}
