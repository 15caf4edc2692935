package instrument

// notes.go — legacy compact-notes notation.
//
// Early registry generations packed structured metadata into a single free
// text notes field: "location: B12 · 204 | maintainer: 'Kim' | tags: [a, b]".
// ParseCompactNotes decomposes that notation so normalization can recover
// fields that later schema generations promoted to real YAML keys.

import "strings"

// ParseCompactNotes splits a pipe-delimited "key: value | key: value" compact
// notation into a mapping. Bracketed values are parsed as string lists and
// quoted scalars are unquoted. Text containing neither a colon nor a pipe is
// passed through verbatim under the "raw" key. Blank input yields nil.
func ParseCompactNotes(notes string) map[string]any {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil
	}
	if !strings.Contains(notes, ":") && !strings.Contains(notes, "|") {
		return map[string]any{"raw": notes}
	}

	fields := make(map[string]any)
	for _, part := range strings.Split(notes, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		value = strings.TrimSpace(value)
		if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
			fields[key] = parseBracketList(value)
		} else {
			fields[key] = unquote(value)
		}
	}
	if len(fields) == 0 {
		return map[string]any{"raw": notes}
	}
	return fields
}

// parseBracketList splits "[a, b, c]" into its trimmed, unquoted items.
func parseBracketList(value string) []string {
	inner := strings.TrimSpace(value[1 : len(value)-1])
	if inner == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(inner, ",") {
		item = unquote(strings.TrimSpace(item))
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// unquote strips one matching pair of single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '\'' || first == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
