package taxonomy

import "strings"

// SplitTags splits a comma-joined tag string, trimming blanks and dropping
// empty tokens. Duplicates are kept.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}

// RenameToken replaces every token exactly equal to oldName. It reports
// whether anything changed; "art" never matches "artist".
func RenameToken(tags, oldName, newName string) (string, bool) {
	tokens := SplitTags(tags)
	changed := false
	for i, t := range tokens {
		if t == oldName {
			tokens[i] = newName
			changed = true
		}
	}
	if !changed {
		return tags, false
	}
	return JoinTags(tokens), true
}

// RemoveToken drops every token exactly equal to name.
func RemoveToken(tags, name string) (string, bool) {
	tokens := SplitTags(tags)
	kept := tokens[:0]
	for _, t := range tokens {
		if t != name {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(tokens) {
		return tags, false
	}
	return JoinTags(kept), true
}
