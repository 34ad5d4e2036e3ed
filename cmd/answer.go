package cmd

import (
	"strconv"
	"strings"

	"github.com/abhisek/practiz/internal/curriculum"
)

// parseAnswer turns a typed line into the answer shape the checker expects
// for q's type. Option letters and item numbers are resolved to their text.
func parseAnswer(q curriculum.Question, input string) any {
	input = strings.TrimSpace(input)

	switch q.Type {
	case curriculum.TypeMCQ:
		if opt, ok := resolveOption(input, q.Options); ok {
			return opt
		}
		return input
	case curriculum.TypeTrueFalse:
		switch strings.ToLower(input) {
		case "t", "y", "yes":
			return "true"
		case "f", "n", "no":
			return "false"
		}
		return input
	case curriculum.TypeOrdering:
		parts := splitTrim(input, ",")
		for i, p := range parts {
			if n, err := strconv.Atoi(p); err == nil && n >= 1 && n <= len(q.OrderingItems) {
				parts[i] = q.OrderingItems[n-1]
			}
		}
		return parts
	case curriculum.TypeMatch:
		pairs := make(map[string]string)
		for _, p := range splitTrim(input, ";") {
			left, right, ok := strings.Cut(p, "=")
			if !ok {
				continue
			}
			left, right = strings.TrimSpace(left), strings.TrimSpace(right)
			if n, err := strconv.Atoi(left); err == nil && n >= 1 && n <= len(q.MatchPairs) && !hasLeft(q.MatchPairs, left) {
				left = q.MatchPairs[n-1].Left
			}
			if opt, ok := resolveOption(right, q.Options); ok {
				right = opt
			}
			pairs[left] = right
		}
		return pairs
	default:
		return input
	}
}

// resolveOption returns the option s names. Option text wins over a
// letter or number, so options like "1".."4" are taken literally.
func resolveOption(s string, options []string) (string, bool) {
	for _, o := range options {
		if strings.EqualFold(strings.TrimSpace(o), s) {
			return o, true
		}
	}
	if i, ok := optionIndex(s, len(options)); ok {
		return options[i], true
	}
	return "", false
}

// optionIndex maps "B" or "2" to index 1 when it is within n options.
func optionIndex(s string, n int) (int, bool) {
	if len(s) == 1 {
		c := s[0] | 0x20
		if c >= 'a' && c <= 'z' {
			i := int(c - 'a')
			return i, i < n
		}
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 1 && v <= n {
		return v - 1, true
	}
	return 0, false
}

func hasLeft(pairs []curriculum.MatchPair, left string) bool {
	for _, p := range pairs {
		if strings.EqualFold(p.Left, left) {
			return true
		}
	}
	return false
}

func splitTrim(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
