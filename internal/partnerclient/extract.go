package partnerclient

import (
	"fmt"
	"strings"
)

// extractFieldValue walks path (dot-separated keys) through nested objects
// in response. Any non-object intermediate or missing key yields "N/A"; a
// value present at the end of the path is stringified with fmt.Sprint,
// matching the source's String.valueOf(Object) behavior.
func extractFieldValue(path string, response map[string]any) (result string) {
	if path == "" || response == nil {
		return extractNotApplicable
	}

	defer func() {
		if recover() != nil {
			result = extractError
		}
	}()

	var current any = response
	for _, part := range strings.Split(path, ".") {
		asMap, ok := current.(map[string]any)
		if !ok {
			return extractNotApplicable
		}
		next, exists := asMap[part]
		if !exists || next == nil {
			return extractNotApplicable
		}
		current = next
	}

	return fmt.Sprint(current)
}

// isSuccessResponse splits successPattern on "," and reports whether status
// case-insensitively matches any trimmed token. A missing status is never
// a success.
func isSuccessResponse(successPattern, status string) bool {
	if status == "" {
		return false
	}
	for _, token := range strings.Split(successPattern, ",") {
		if strings.EqualFold(strings.TrimSpace(token), strings.TrimSpace(status)) {
			return true
		}
	}
	return false
}
