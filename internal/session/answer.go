package session

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abhisek/practiz/internal/curriculum"
	"github.com/agext/levenshtein"
	"golang.org/x/text/unicode/norm"
)

// Fill-blank typo tolerance. An answer within TypoMaxDistance edits is
// accepted when the expected answer is non-numeric and longer than
// TypoMinLength runes.
const (
	TypoMinLength   = 5
	TypoMaxDistance = 1
)

// CheckAnswer reports whether userAnswer is correct for q. It never
// panics: answers of the wrong shape are simply incorrect.
func CheckAnswer(q curriculum.Question, userAnswer any) bool {
	userAnswer = unwrapAnswer(userAnswer)
	switch q.Type {
	case curriculum.TypeMCQ:
		s, ok := asString(userAnswer)
		return ok && strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(q.CorrectAnswer.Text))
	case curriculum.TypeTrueFalse:
		want, ok := parseTruth(q.CorrectAnswer.Text)
		if !ok {
			return false
		}
		got, ok := truthOf(userAnswer)
		return ok && got == want
	case curriculum.TypeFillBlank:
		s, ok := asString(userAnswer)
		return ok && fillBlankMatches(s, q.CorrectAnswer.Text)
	case curriculum.TypeOrdering:
		got, ok := asStrings(userAnswer)
		want := q.CorrectAnswer.Sequence
		if !ok || len(want) == 0 || len(got) != len(want) {
			return false
		}
		for i := range want {
			if strings.TrimSpace(got[i]) != strings.TrimSpace(want[i]) {
				return false
			}
		}
		return true
	case curriculum.TypeMatch:
		want := expectedPairs(q)
		got, ok := asPairs(userAnswer)
		if !ok || len(want) == 0 || len(got) != len(want) {
			return false
		}
		for left, right := range want {
			g, ok := got[left]
			if !ok || !strings.EqualFold(strings.TrimSpace(g), right) {
				return false
			}
		}
		return true
	}
	return false
}

func unwrapAnswer(v any) any {
	switch a := v.(type) {
	case curriculum.Answer:
		switch {
		case a.IsPairs():
			return a.Pairs
		case a.IsSequence():
			return a.Sequence
		}
		return a.Text
	case *curriculum.Answer:
		if a == nil {
			return nil
		}
		return unwrapAnswer(*a)
	}
	return v
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case fmt.Stringer:
		return s.String(), true
	}
	return "", false
}

func asStrings(v any) ([]string, bool) {
	switch xs := v.(type) {
	case []string:
		return xs, true
	case []any:
		out := make([]string, len(xs))
		for i, x := range xs {
			s, ok := x.(string)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func asPairs(v any) (map[string]string, bool) {
	switch m := v.(type) {
	case map[string]string:
		return m, true
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, x := range m {
			s, ok := x.(string)
			if !ok {
				return nil, false
			}
			out[k] = s
		}
		return out, true
	case string:
		var out map[string]string
		if err := json.Unmarshal([]byte(m), &out); err != nil {
			return nil, false
		}
		return out, true
	}
	return nil, false
}

// expectedPairs comes from match_pairs, or from a JSON object stored as
// the correct answer.
func expectedPairs(q curriculum.Question) map[string]string {
	out := make(map[string]string, len(q.MatchPairs))
	for _, p := range q.MatchPairs {
		out[p.Left] = strings.TrimSpace(p.Right)
	}
	if len(out) > 0 {
		return out
	}
	if m, ok := asPairs(unwrapAnswer(q.CorrectAnswer)); ok {
		for k, v := range m {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}

func parseTruth(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "a":
		return true, true
	case "false", "b":
		return false, true
	}
	return false, false
}

func truthOf(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		return parseTruth(b)
	}
	return false, false
}

func fillBlankMatches(got, want string) bool {
	g, w := normalizeBlank(got), normalizeBlank(want)
	if g == w {
		return true
	}
	if w == "" || !typoTolerant(w) {
		return false
	}
	return levenshtein.Distance(g, w, nil) <= TypoMaxDistance
}

func typoTolerant(s string) bool {
	if utf8.RuneCountInString(s) <= TypoMinLength {
		return false
	}
	return !strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsDigit(r) || strings.ContainsRune("+-*/=^%<>", r)
	})
}

// normalizeBlank folds case, drops apostrophes, turns hyphens into spaces,
// collapses whitespace and trims trailing punctuation.
func normalizeBlank(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\'', '’', '‘', '`':
			return -1
		case '-', '‐', '‑', '–':
			return ' '
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

// correctAnswerFor is the answer revealed after submission.
func correctAnswerFor(q curriculum.Question) curriculum.Answer {
	if q.Type != curriculum.TypeMatch || len(q.MatchPairs) == 0 {
		return q.CorrectAnswer
	}
	pairs := make([]string, 0, len(q.MatchPairs))
	for _, p := range q.MatchPairs {
		pairs = append(pairs, p.Left+" = "+p.Right)
	}
	sort.Strings(pairs)
	return curriculum.SequenceAnswer(pairs...)
}
