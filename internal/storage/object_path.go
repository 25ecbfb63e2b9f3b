package storage

import (
	"mime"
	"path"
	"strconv"
	"strings"
	"time"
)

// objectLayout turns SaveOptions into object keys of the form
// [prefix/]category/yyyy/mm/dd/base.ext. Dates are UTC.
type objectLayout struct {
	prefix string
	now    func() time.Time
}

func newObjectLayout(prefix string) objectLayout {
	return objectLayout{prefix: strings.Trim(strings.TrimSpace(prefix), "/"), now: time.Now}
}

func (l objectLayout) key(opts SaveOptions) string {
	now := time.Now
	if l.now != nil {
		now = l.now
	}
	objectPath := buildObjectPath(now(), opts.Category, opts.BaseName, opts.Extension)
	if l.prefix == "" {
		return objectPath
	}
	return path.Join(l.prefix, objectPath)
}

func buildObjectPath(now time.Time, category, baseName, ext string) string {
	now = now.UTC()
	if category = slug(category); category == "" {
		category = "misc"
	}
	base := SafeBaseName(baseName, 0)
	if base == "" {
		base = strconv.FormatInt(now.UnixNano(), 10)
	}
	return path.Join(category, now.Format("2006/01/02"), base+"."+normalizeExtension(ext))
}

// slug lowercases ASCII letters and drops anything outside [a-z0-9_-].
func slug(value string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, strings.TrimSpace(value))
}

// SafeBaseName turns free text such as a recipient name into a file name
// fragment. Spaces become dashes; maxLen <= 0 means no limit.
func SafeBaseName(value string, maxLen int) string {
	base := strings.Trim(slug(strings.ReplaceAll(strings.TrimSpace(value), " ", "-")), "-_")
	if maxLen > 0 && len(base) > maxLen {
		base = strings.TrimRight(base[:maxLen], "-_")
	}
	return base
}

func normalizeExtension(ext string) string {
	if cleaned := slug(strings.TrimPrefix(strings.TrimSpace(ext), ".")); cleaned != "" {
		return cleaned
	}
	return "bin"
}

func detectContentType(ext string) string {
	if typeName := mime.TypeByExtension("." + normalizeExtension(ext)); typeName != "" {
		return typeName
	}
	return "application/octet-stream"
}
