package classifier

import (
	"fmt"
	"strings"
)

// ExtractJSON pulls the first JSON object out of a raw completion. Models
// occasionally wrap the object in prose or markdown fences; anything
// without an object at all is a per-subject failure for the caller.
func ExtractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return text[start : end+1], nil
}
