package curriculum

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// QuestionType selects the answer-checking rule for a question.
type QuestionType string

const (
	TypeMCQ       QuestionType = "mcq"
	TypeTrueFalse QuestionType = "true_false"
	TypeFillBlank QuestionType = "fill_blank"
	TypeOrdering  QuestionType = "ordering"
	TypeMatch     QuestionType = "match"
)

// MatchPair is one left/right pairing of a match question.
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Answer is a stored correct answer. Scalar question types use Text,
// ordering questions use Sequence and match questions use Pairs.
type Answer struct {
	Text     string
	Sequence []string
	Pairs    map[string]string // left -> right
}

// TextAnswer builds a scalar answer.
func TextAnswer(s string) Answer { return Answer{Text: s} }

// SequenceAnswer builds an ordering answer.
func SequenceAnswer(items ...string) Answer { return Answer{Sequence: items} }

// PairsAnswer builds a match answer.
func PairsAnswer(pairs map[string]string) Answer { return Answer{Pairs: pairs} }

// IsSequence reports whether the answer is an ordered list.
func (a Answer) IsSequence() bool { return a.Sequence != nil }

// IsPairs reports whether the answer is a left -> right mapping.
func (a Answer) IsPairs() bool { return a.Pairs != nil }

// IsZero reports whether no answer is stored.
func (a Answer) IsZero() bool { return a.Text == "" && a.Sequence == nil && a.Pairs == nil }

func (a Answer) MarshalJSON() ([]byte, error) {
	switch {
	case a.IsPairs():
		return json.Marshal(a.Pairs)
	case a.IsSequence():
		return json.Marshal(a.Sequence)
	}
	return json.Marshal(a.Text)
}

func (a *Answer) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = Answer{}
		return nil
	}
	if b[0] == '{' {
		var pairs map[string]string
		if err := json.Unmarshal(b, &pairs); err != nil {
			return fmt.Errorf("decode answer pairs: %w", err)
		}
		*a = Answer{Pairs: pairs}
		return nil
	}
	if b[0] == '[' {
		var seq []string
		if err := json.Unmarshal(b, &seq); err != nil {
			return fmt.Errorf("decode answer sequence: %w", err)
		}
		*a = Answer{Sequence: seq}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = Answer{Text: s}
		return nil
	}
	// Booleans and numbers are accepted and kept in their literal form.
	*a = Answer{Text: string(b)}
	return nil
}

// Question is immutable question content from the bank.
type Question struct {
	ID             string       `json:"question_id"`
	ConceptID      string       `json:"concept_id"`
	Difficulty     Difficulty   `json:"difficulty"`
	Type           QuestionType `json:"type"`
	Text           string       `json:"question_text"`
	Options        []string     `json:"options,omitempty"`
	CorrectAnswer  Answer       `json:"correct_answer"`
	MatchPairs     []MatchPair  `json:"match_pairs,omitempty"`
	OrderingItems  []string     `json:"ordering_items,omitempty"`
	CognitiveLevel string       `json:"cognitive_level,omitempty"`
	Hint           string       `json:"hint,omitempty"`
	Explanation    string       `json:"explanation,omitempty"`
}

// Redacted returns a copy safe to show before submission: the correct
// answer and explanation are removed and match pairs are reduced to their
// left keys. Right-hand choices are expected in Options.
func (q Question) Redacted() Question {
	q.CorrectAnswer = Answer{}
	q.Explanation = ""
	if len(q.MatchPairs) > 0 {
		pairs := make([]MatchPair, len(q.MatchPairs))
		for i, p := range q.MatchPairs {
			pairs[i] = MatchPair{Left: p.Left}
		}
		q.MatchPairs = pairs
	}
	return q
}

// Bank is the question bank for one topic.
type Bank struct {
	TopicID              string     `json:"topic_id"`
	Questions            []Question `json:"questions"`
	CanonicalExplanation string     `json:"canonical_explanation,omitempty"`
}
