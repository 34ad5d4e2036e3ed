package curriculum

import "fmt"

// Difficulty is one of the three CAM difficulty levels.
type Difficulty string

const (
	Familiarity Difficulty = "familiarity"
	Application Difficulty = "application"
	ExamStyle   Difficulty = "exam_style"
)

// DifficultyOrder is the fixed progression order. Mastery only ever moves
// forward along it.
var DifficultyOrder = []Difficulty{Familiarity, Application, ExamStyle}

// ParseDifficulty converts a string to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case Familiarity, Application, ExamStyle:
		return Difficulty(s), nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Rank returns the position of d in DifficultyOrder, or -1 if unknown.
func (d Difficulty) Rank() int {
	for i, o := range DifficultyOrder {
		if o == d {
			return i
		}
	}
	return -1
}

// Label returns a human-readable name.
func (d Difficulty) Label() string {
	switch d {
	case Familiarity:
		return "Familiarity"
	case Application:
		return "Application"
	case ExamStyle:
		return "Exam style"
	default:
		return string(d)
	}
}

// SortDifficulties returns the members of set in fixed order, dropping
// unknown values and duplicates.
func SortDifficulties(set []Difficulty) []Difficulty {
	seen := make(map[Difficulty]bool, len(set))
	for _, d := range set {
		seen[d] = true
	}
	out := make([]Difficulty, 0, len(seen))
	for _, d := range DifficultyOrder {
		if seen[d] {
			out = append(out, d)
		}
	}
	return out
}

// NextAllowed returns the first difficulty after current (in fixed order)
// that is a member of allowed.
func NextAllowed(current Difficulty, allowed []Difficulty) (Difficulty, bool) {
	rank := current.Rank()
	for _, d := range SortDifficulties(allowed) {
		if d.Rank() > rank {
			return d, true
		}
	}
	return "", false
}
