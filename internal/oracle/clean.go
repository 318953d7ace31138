package oracle

import "strings"

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the formatting instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// If there is still prose around the payload, keep only the outermost
	// array or object, whichever opens first.
	arr := strings.IndexByte(s, '[')
	obj := strings.IndexByte(s, '{')
	if obj != -1 && (arr == -1 || obj < arr) {
		if trimmed, ok := between(s, obj, '}'); ok {
			return trimmed
		}
	}
	if arr != -1 {
		if trimmed, ok := between(s, arr, ']'); ok {
			return trimmed
		}
	}
	return s
}

func between(s string, start int, closing byte) (string, bool) {
	end := strings.LastIndexByte(s, closing)
	if end <= start {
		return "", false
	}
	return strings.TrimSpace(s[start : end+1]), true
}
