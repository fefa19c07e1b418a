package llm

import "strings"

// StripJSONFence removes a surrounding ```json ... ``` or ``` ... ``` code
// fence from a model response, returning the inner text untouched if no
// fence is present. Model responses are expected to be strict JSON but
// frequently arrive wrapped in markdown regardless of prompting.
func StripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		first := s[:nl]
		if first == "json" || first == "JSON" || strings.TrimSpace(first) == "" {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
