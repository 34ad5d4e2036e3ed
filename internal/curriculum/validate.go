package curriculum

import (
	"fmt"
	"strings"
)

// ValidateCAM performs structural checks on a CAM tree.
// Returns a combined error describing all problems found, or nil if valid.
// Gaps the engine can work around, such as a concept with no difficulty
// levels, are left to CheckTopic.
func ValidateCAM(cam *CAM) error {
	var errs []string

	themeIDs := make(map[string]bool)
	topicIDs := make(map[string]bool)
	conceptIDs := make(map[string]string)

	for _, th := range cam.Themes {
		if th.ID == "" {
			errs = append(errs, "theme with empty id")
		}
		if themeIDs[th.ID] {
			errs = append(errs, fmt.Sprintf("duplicate theme ID: %q", th.ID))
		}
		themeIDs[th.ID] = true

		for _, tp := range th.Topics {
			if topicIDs[tp.ID] {
				errs = append(errs, fmt.Sprintf("duplicate topic ID: %q", tp.ID))
			}
			topicIDs[tp.ID] = true

			for _, c := range tp.Concepts {
				if owner, ok := conceptIDs[c.ID]; ok {
					errs = append(errs, fmt.Sprintf("concept %q declared in both %q and %q", c.ID, owner, tp.ID))
				}
				conceptIDs[c.ID] = tp.ID

				for _, d := range c.DifficultyLevels {
					if d.Rank() < 0 {
						errs = append(errs, fmt.Sprintf("concept %q has unknown difficulty %q", c.ID, d))
					}
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("CAM validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// Finding is a non-fatal content gap. The selector already excludes the
// affected questions, so findings are reported, not enforced.
type Finding struct {
	QuestionID string
	Problem    string
	ConceptID  string // set for concept-level findings
}

func (f Finding) String() string {
	if f.QuestionID == "" && f.ConceptID != "" {
		return fmt.Sprintf("concept %q: %s", f.ConceptID, f.Problem)
	}
	return fmt.Sprintf("question %q: %s", f.QuestionID, f.Problem)
}

// CheckTopic reports concepts that can never be practiced.
func CheckTopic(topic *Topic) []Finding {
	var out []Finding
	for _, c := range topic.Concepts {
		if len(c.DifficultyLevels) == 0 {
			out = append(out, Finding{ConceptID: c.ID, Problem: "no difficulty levels; its questions are excluded"})
		}
	}
	return out
}

// CheckBank compares a bank against its topic and returns findings for
// questions the selector would treat as ineligible, plus malformed content.
func CheckBank(bank *Bank, topic *Topic) []Finding {
	var out []Finding
	seen := make(map[string]bool, len(bank.Questions))

	for _, q := range bank.Questions {
		if seen[q.ID] {
			out = append(out, Finding{QuestionID: q.ID, Problem: "duplicate question id"})
		}
		seen[q.ID] = true

		c, ok := topic.Concept(q.ConceptID)
		switch {
		case !ok:
			out = append(out, Finding{QuestionID: q.ID, Problem: fmt.Sprintf("concept %q not in topic %q", q.ConceptID, topic.ID)})
		case !c.Allows(q.Difficulty):
			out = append(out, Finding{QuestionID: q.ID, Problem: fmt.Sprintf("difficulty %q not allowed for concept %q", q.Difficulty, c.ID)})
		}

		switch q.Type {
		case TypeMCQ:
			if len(q.Options) == 0 {
				out = append(out, Finding{QuestionID: q.ID, Problem: "mcq without options"})
			}
		case TypeOrdering:
			if !q.CorrectAnswer.IsSequence() {
				out = append(out, Finding{QuestionID: q.ID, Problem: "ordering answer must be a list"})
			}
		case TypeMatch:
			if len(q.MatchPairs) == 0 {
				out = append(out, Finding{QuestionID: q.ID, Problem: "match without pairs"})
			} else if !pairsAgree(q.MatchPairs, q.CorrectAnswer.Pairs) {
				out = append(out, Finding{QuestionID: q.ID, Problem: "correct_answer disagrees with match_pairs"})
			}
		case TypeTrueFalse, TypeFillBlank:
		default:
			out = append(out, Finding{QuestionID: q.ID, Problem: fmt.Sprintf("unknown question type %q", q.Type)})
		}
	}
	return out
}

func pairsAgree(pairs []MatchPair, answer map[string]string) bool {
	if len(pairs) != len(answer) {
		return false
	}
	for _, p := range pairs {
		if !strings.EqualFold(strings.TrimSpace(answer[p.Left]), strings.TrimSpace(p.Right)) {
			return false
		}
	}
	return true
}
