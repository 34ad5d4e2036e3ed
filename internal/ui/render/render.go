// Package render formats engine state for the line-oriented terminal host.
package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/abhisek/practiz/internal/curriculum"
	"github.com/abhisek/practiz/internal/proficiency"
	"github.com/abhisek/practiz/internal/session"
	"github.com/abhisek/practiz/internal/store"
	"github.com/abhisek/practiz/internal/ui/theme"
)

// OptionLabel returns the letter shown next to the i-th option.
func OptionLabel(i int) string {
	if i < 0 || i >= 26 {
		return fmt.Sprint(i + 1)
	}
	return string(rune('A' + i))
}

// Question renders a redacted question with its position in the session.
func Question(q curriculum.Question, index, total int) string {
	var b strings.Builder

	header := fmt.Sprintf("Question %d of %d", index+1, total)
	b.WriteString(theme.Title.Render(header))
	b.WriteString("  ")
	b.WriteString(theme.Difficulty(q.Difficulty).Render("[" + q.Difficulty.Label() + "]"))
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Render(q.Text))
	b.WriteString("\n")

	switch q.Type {
	case curriculum.TypeMCQ:
		for i, opt := range q.Options {
			fmt.Fprintf(&b, "  %s  %s\n", theme.Key.Render(OptionLabel(i)), opt)
		}
	case curriculum.TypeTrueFalse:
		fmt.Fprintf(&b, "  %s  True\n  %s  False\n", theme.Key.Render("A"), theme.Key.Render("B"))
	case curriculum.TypeOrdering:
		for i, item := range q.OrderingItems {
			fmt.Fprintf(&b, "  %s  %s\n", theme.Key.Render(fmt.Sprint(i+1)), item)
		}
		b.WriteString(theme.Hint.Render("Type the items in order, separated by commas."))
		b.WriteString("\n")
	case curriculum.TypeMatch:
		for i, p := range q.MatchPairs {
			fmt.Fprintf(&b, "  %s  %s\n", theme.Key.Render(fmt.Sprint(i+1)), p.Left)
		}
		if len(q.Options) > 0 {
			b.WriteString(theme.Subtitle.Render("Choices: " + strings.Join(q.Options, ", ")))
			b.WriteString("\n")
		}
		b.WriteString(theme.Hint.Render("Type left=right pairs separated by semicolons."))
		b.WriteString("\n")
	case curriculum.TypeFillBlank:
		b.WriteString(theme.Hint.Render("Type your answer."))
		b.WriteString("\n")
	}
	return b.String()
}

// Feedback renders the result of one submitted answer.
func Feedback(out session.AnswerOutcome) string {
	var b strings.Builder
	if out.Correct {
		b.WriteString(theme.Correct.Render(fmt.Sprintf("Correct! +%d XP", out.XPEarned)))
	} else {
		b.WriteString(theme.Incorrect.Render("Not quite."))
		b.WriteString(" ")
		b.WriteString(theme.Subtitle.Render("Answer: " + AnswerText(out.CorrectAnswer)))
	}
	b.WriteString("\n")
	if out.Explanation != "" {
		b.WriteString(theme.Hint.Render(out.Explanation))
		b.WriteString("\n")
	}
	if out.MasteryAchieved {
		b.WriteString(theme.Mastered.Render("Level mastered! Next up: " + out.NewDifficulty.Label()))
		b.WriteString("\n")
	}
	return b.String()
}

// AnswerText flattens a stored answer for display.
func AnswerText(a curriculum.Answer) string {
	switch {
	case a.IsPairs():
		pairs := make([]string, 0, len(a.Pairs))
		for left, right := range a.Pairs {
			pairs = append(pairs, left+" = "+right)
		}
		sort.Strings(pairs)
		return strings.Join(pairs, "; ")
	case a.IsSequence():
		return strings.Join(a.Sequence, ", ")
	}
	return a.Text
}

// Timer renders remaining time, or elapsed time for unlimited sessions.
func Timer(p session.Progress) string {
	if p.TimeRemainingMs == nil {
		return theme.Subtitle.Render("Elapsed " + clock(p.TimeElapsedMs))
	}
	return theme.Subtitle.Render("Remaining " + clock(*p.TimeRemainingMs))
}

func clock(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// Summary renders the end-of-session card.
func Summary(sum session.Summary) string {
	var b strings.Builder

	title := "Session complete"
	switch {
	case sum.TimedOut:
		title = "Time's up"
	case sum.Status == session.StatusAbandoned:
		title = "Session ended early"
	}
	b.WriteString(theme.Title.Render(title))
	if sum.TopicName != "" {
		b.WriteString(theme.Subtitle.Render("  " + sum.TopicName))
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Answered  %d of %d (%d skipped)\n", sum.QuestionsAnswered, sum.QuestionsTotal, sum.QuestionsSkipped)
	fmt.Fprintf(&b, "Correct   %d\n", sum.QuestionsCorrect)
	b.WriteString(NewProgressBar("Accuracy", sum.Accuracy/100, true, 40).View())
	b.WriteString("\n")
	fmt.Fprintf(&b, "XP        %s\n", theme.Correct.Render(fmt.Sprintf("+%d", sum.XPEarned)))
	fmt.Fprintf(&b, "Time      %s\n", clock(sum.TimeElapsedMs))

	levels := make([]curriculum.Difficulty, 0, len(sum.ByDifficulty))
	for d := range sum.ByDifficulty {
		levels = append(levels, d)
	}
	for _, d := range curriculum.SortDifficulties(levels) {
		t := sum.ByDifficulty[d]
		fmt.Fprintf(&b, "  %s %d/%d\n", theme.Difficulty(d).Render(d.Label()), t.Correct, t.Answered)
	}
	if len(sum.MasteredConcepts) > 0 {
		b.WriteString(theme.Mastered.Render("Mastered: " + strings.Join(sum.MasteredConcepts, ", ")))
		b.WriteString("\n")
	}
	return theme.Card.Render(strings.TrimRight(b.String(), "\n"))
}

// HistoryLine renders one past session on a single line.
func HistoryLine(sum session.Summary) string {
	when := "-"
	if sum.CompletedAt != nil {
		when = sum.CompletedAt.Local().Format("2006-01-02 15:04")
	}
	status := string(sum.Status)
	if sum.TimedOut {
		status = "timed out"
	}
	return fmt.Sprintf("%s  %-20s %3d/%-3d %5.1f%%  +%d XP  %s",
		when, sum.TopicID, sum.QuestionsCorrect, sum.QuestionsAnswered, sum.Accuracy, sum.XPEarned,
		theme.Subtitle.Render(status))
}

// TopicLine renders a topic with the learner's proficiency band.
func TopicLine(topic *curriculum.Topic, tp proficiency.TopicProgress) string {
	return fmt.Sprintf("  %-24s %s  %s",
		topic.Name,
		theme.Band(tp.Band).Render(tp.Band.Label()),
		theme.Subtitle.Render(fmt.Sprintf("%d/%d concepts started, %d XP", tp.ConceptsStarted, len(topic.Concepts), tp.XPEarned)))
}

// Stats renders storage statistics.
func Stats(st store.Stats) string {
	lines := []string{
		fmt.Sprintf("Concepts tracked  %d", st.ConceptsTracked),
		fmt.Sprintf("Topics practiced  %d", st.TopicsTracked),
		fmt.Sprintf("Sessions          %d", st.SessionsCount),
		fmt.Sprintf("Total XP          %s", theme.Correct.Render(fmt.Sprint(st.TotalXP))),
	}
	return theme.Card.Render(strings.Join(lines, "\n"))
}
