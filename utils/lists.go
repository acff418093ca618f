package utils

import "strings"

// ListSeparators are accepted between the values of list settings.
const ListSeparators string = "/,;"

// SplitList splits a list setting such as "fr, en" and cleans its values.
func SplitList(s string) []string {
	return CleanStringList(strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(ListSeparators, r)
	}))
}

// CleanString trims a value and collapses inner runs of white space.
func CleanString(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanStringList cleans the values, then drops empty and repeated ones.
// The order is kept.
func CleanStringList(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))

	for _, v := range list {
		v = CleanString(v)
		if len(v) < 1 {
			continue
		}

		if _, ok := seen[v]; ok {
			continue
		}

		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}
