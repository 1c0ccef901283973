package store

import (
	"strings"
)

const minGram = 2

// nameGrams returns the search grams stored with a client name: every
// edge prefix of length >= 2 plus every trigram, lower-cased. A query
// matches a name by sharing grams, so a single typo still leaves most
// trigrams intact.
func nameGrams(name string) []string {
	s := []rune(strings.ToLower(strings.TrimSpace(name)))
	if len(s) < minGram {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(g string) {
		if _, ok := seen[g]; ok {
			return
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	for i := minGram; i <= len(s); i++ {
		add(string(s[:i]))
	}
	for i := 0; i+3 <= len(s); i++ {
		add(string(s[i : i+3]))
	}
	return out
}

// queryGrams returns the grams a search query is matched with. Short
// queries only contribute their prefix.
func queryGrams(q string) []string {
	s := []rune(strings.ToLower(strings.TrimSpace(q)))
	if len(s) < minGram {
		return nil
	}
	if len(s) < 3 {
		return []string{string(s)}
	}
	seen := make(map[string]struct{})
	out := []string{string(s)}
	seen[string(s)] = struct{}{}
	for i := 0; i+3 <= len(s); i++ {
		g := string(s[i : i+3])
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}
