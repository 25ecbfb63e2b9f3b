package message

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	RecipientToken = "[RECIPIENT]"
	SenderToken    = "[SENDER]"
)

var placeholderVariantPattern = regexp.MustCompile(`(?i)\[\s*(recipient|sender)\s*\]`)

// ToTemplate swaps whole-word, case-insensitive occurrences of the names for placeholder
// tokens. The longer name is replaced first so a name nested in the other survives.
// When both names are equal every occurrence becomes RecipientToken.
func ToTemplate(messages []string, recipient, sender string) []string {
	recipient = strings.TrimSpace(recipient)
	sender = strings.TrimSpace(sender)

	type swap struct{ name, token string }
	order := []swap{{recipient, RecipientToken}, {sender, SenderToken}}
	if utf8.RuneCountInString(sender) > utf8.RuneCountInString(recipient) {
		order[0], order[1] = order[1], order[0]
	}

	out := make([]string, len(messages))
	for i, m := range messages {
		m = CanonicalisePlaceholders(m)
		for _, s := range order {
			m = replaceWholeWord(m, s.name, s.token)
		}
		out[i] = m
	}
	return out
}

// ToPersonalized substitutes the placeholder tokens with the names in a single pass,
// so a name that itself looks like a token is never substituted again.
func ToPersonalized(messages []string, recipient, sender string) []string {
	replacer := strings.NewReplacer(RecipientToken, strings.TrimSpace(recipient), SenderToken, strings.TrimSpace(sender))
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = replacer.Replace(CanonicalisePlaceholders(m))
	}
	return out
}

// CanonicalisePlaceholders rewrites spellings such as "[recipient]" or "[ Sender ]".
func CanonicalisePlaceholders(s string) string {
	return placeholderVariantPattern.ReplaceAllStringFunc(s, func(match string) string {
		if strings.Contains(strings.ToLower(match), "recipient") {
			return RecipientToken
		}
		return SenderToken
	})
}

func replaceWholeWord(s, name, token string) string {
	if name == "" {
		return s
	}
	pattern, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(name))
	if err != nil {
		return s
	}

	matches := pattern.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	last := 0
	for _, loc := range matches {
		start, end := loc[0], loc[1]
		if !isWordBoundary(s, start, end) || insideToken(s, start, end) {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(token)
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

func isWordBoundary(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func insideToken(s string, start, end int) bool {
	if start == 0 || end >= len(s) || s[start-1] != '[' || s[end] != ']' {
		return false
	}
	token := s[start-1 : end+1]
	return token == RecipientToken || token == SenderToken
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func startsWithPlaceholder(s string) bool {
	return strings.HasPrefix(s, RecipientToken) || strings.HasPrefix(s, SenderToken)
}

func endsWithPlaceholder(s string) bool {
	return strings.HasSuffix(s, RecipientToken) || strings.HasSuffix(s, SenderToken)
}
