package message

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxMessages is the number of options a generation returns at most.
	MaxMessages = 3

	minProseRunes     = 20
	maxJSONCandidates = 32
)

var (
	listKeys = []string{"messages", "options", "results", "items", "data", "variations"}
	textKeys = []string{"message", "text", "content"}

	blankLinePattern  = regexp.MustCompile(`\n[ \t]*\n`)
	listMarkerPattern = regexp.MustCompile(`^(?:\d{1,2}\s*[.):-]|[-*•]|(?i:option|message)\s*\d{1,2}\s*[.):-])\s*`)
)

// ExtractMessages pulls up to MaxMessages distinct greetings out of a model reply.
// It accepts a JSON array, an object holding an array under a known key, or plain
// prose separated by blank lines. Unusable input yields an empty slice.
func ExtractMessages(raw string) []string {
	text := strings.TrimSpace(stripCodeFences(raw))
	if text == "" {
		return []string{}
	}

	if value, ok := firstJSONValue(text); ok {
		if msgs := finalise(messagesFromValue(value, 0)); len(msgs) > 0 {
			return msgs
		}
	}
	return finalise(splitProse(text))
}

// firstJSONValue decodes the first object or array that starts at a '{' or '['.
// The decoder stops at the end of the value, so trailing chatter is ignored.
func firstJSONValue(s string) (any, bool) {
	tried := 0
	for i := 0; i < len(s) && tried < maxJSONCandidates; i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		tried++
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		var v any
		if err := dec.Decode(&v); err == nil {
			switch v.(type) {
			case map[string]any, []any:
				return v, true
			}
		}
	}
	return nil, false
}

func messagesFromValue(v any, depth int) []string {
	if depth > 2 {
		return nil
	}
	switch t := v.(type) {
	case []any:
		return messagesFromArray(t)
	case map[string]any:
		for _, key := range listKeys {
			switch inner := lookup(t, key).(type) {
			case []any:
				return messagesFromArray(inner)
			case map[string]any:
				if msgs := messagesFromValue(inner, depth+1); len(msgs) > 0 {
					return msgs
				}
			}
		}
		if text := textField(t); text != "" {
			return []string{text}
		}
	}
	return nil
}

func messagesFromArray(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch e := item.(type) {
		case string:
			s := strings.TrimSpace(e)
			if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
				var nested map[string]any
				if err := json.Unmarshal([]byte(s), &nested); err == nil {
					if text := textField(nested); text != "" {
						out = append(out, text)
					}
					continue
				}
			}
			out = append(out, s)
		case map[string]any:
			if text := textField(e); text != "" {
				out = append(out, text)
				continue
			}
			if b, err := json.Marshal(e); err == nil {
				out = append(out, string(b))
			}
		}
	}
	return out
}

func lookup(m map[string]any, key string) any {
	if v, ok := m[key]; ok {
		return v
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

func textField(m map[string]any) string {
	for _, key := range textKeys {
		if s, ok := lookup(m, key).(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func splitProse(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	chunks := blankLinePattern.Split(text, -1)
	if len(chunks) == 1 {
		chunks = splitListLines(chunks[0])
	}
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		cleaned := cleanChunk(chunk)
		if utf8.RuneCountInString(cleaned) <= minProseRunes || looksLikeJSON(cleaned) {
			continue
		}
		out = append(out, cleaned)
	}
	return out
}

// splitListLines breaks a single block into lines when it reads as a numbered or bulleted list.
func splitListLines(block string) []string {
	lines := strings.Split(block, "\n")
	marked := 0
	for _, line := range lines {
		if listMarkerPattern.MatchString(strings.TrimSpace(line)) {
			marked++
		}
	}
	if marked < 2 {
		return []string{block}
	}
	return lines
}

func cleanChunk(chunk string) string {
	s := strings.TrimSpace(chunk)
	s = listMarkerPattern.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'“”")
	return strings.TrimSpace(s)
}

func looksLikeJSON(s string) bool {
	if strings.HasPrefix(s, "{") || strings.HasSuffix(s, "}") || strings.Contains(s, `":`) {
		return true
	}
	if strings.HasPrefix(s, "[") && !startsWithPlaceholder(s) {
		return true
	}
	return strings.HasSuffix(s, "]") && !endsWithPlaceholder(s)
}

func stripCodeFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// finalise trims, drops empties and duplicates, and caps the result.
func finalise(messages []string) []string {
	out := make([]string, 0, MaxMessages)
	seen := make(map[string]struct{}, len(messages))
	for _, m := range messages {
		trimmed := strings.TrimSpace(m)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
		if len(out) == MaxMessages {
			break
		}
	}
	return out
}
