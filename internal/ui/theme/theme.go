package theme

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/practiz/internal/curriculum"
	"github.com/abhisek/practiz/internal/proficiency"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Warning   = lipgloss.Color("#EAB308") // Amber
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Key = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
)

// Blocks
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)

// Answer feedback
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Mastered = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)
)

// Progress bar segments
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)
)

// Band returns the style for a proficiency band, cooler to warmer.
func Band(b proficiency.Band) lipgloss.Style {
	colors := map[proficiency.Band]string{
		proficiency.NotStarted:              "#94A3B8",
		proficiency.BuildingFamiliarity:     "#38BDF8",
		proficiency.GrowingConfidence:       "#14B8A6",
		proficiency.ConsistentUnderstanding: "#22C55E",
		proficiency.ExamReady:               "#F97316",
	}
	c, ok := colors[b]
	if !ok {
		c = "#94A3B8"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Bold(b == proficiency.ExamReady)
}

// Difficulty returns the style for a difficulty tag.
func Difficulty(d curriculum.Difficulty) lipgloss.Style {
	switch d {
	case curriculum.Application:
		return lipgloss.NewStyle().Foreground(Secondary)
	case curriculum.ExamStyle:
		return lipgloss.NewStyle().Foreground(Accent)
	default:
		return lipgloss.NewStyle().Foreground(TextDim)
	}
}
