package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/practiz/internal/curriculum"
)

func TestCheckAnswer_CanonicalAnswerIsCorrect(t *testing.T) {
	questions := []curriculum.Question{
		{Type: curriculum.TypeMCQ, CorrectAnswer: curriculum.TextAnswer("Mitochondria")},
		{Type: curriculum.TypeTrueFalse, CorrectAnswer: curriculum.TextAnswer("true")},
		{Type: curriculum.TypeFillBlank, CorrectAnswer: curriculum.TextAnswer("cell wall")},
		{Type: curriculum.TypeOrdering, CorrectAnswer: curriculum.SequenceAnswer("G1", "S", "G2", "M")},
		{
			Type:          curriculum.TypeMatch,
			MatchPairs:    []curriculum.MatchPair{{Left: "DNA", Right: "nucleus"}, {Left: "ATP", Right: "mitochondria"}},
			CorrectAnswer: curriculum.PairsAnswer(map[string]string{"DNA": "nucleus", "ATP": "mitochondria"}),
		},
		{Type: curriculum.TypeMatch, CorrectAnswer: curriculum.PairsAnswer(map[string]string{"DNA": "nucleus"})},
		{Type: curriculum.TypeMatch, CorrectAnswer: curriculum.TextAnswer(`{"DNA":"nucleus"}`)},
	}
	for _, q := range questions {
		t.Run(string(q.Type), func(t *testing.T) {
			assert.True(t, CheckAnswer(q, q.CorrectAnswer))
			assert.True(t, CheckAnswer(q, &q.CorrectAnswer))
		})
	}
}

func TestCheckAnswer_BundledContentRoundTrips(t *testing.T) {
	lib, err := curriculum.LoadLibrary(filepath.Join("..", "..", "content"))
	require.NoError(t, err)

	ctx := context.Background()
	checked := 0
	for _, topic := range lib.CAM().Topics() {
		bank, err := lib.Bank(ctx, topic.ID)
		require.NoError(t, err)
		for _, q := range bank.Questions {
			assert.True(t, CheckAnswer(q, q.CorrectAnswer), "question %s (%s)", q.ID, q.Type)
			checked++
		}
	}
	assert.NotZero(t, checked)
}

func TestCheckAnswer_MCQ(t *testing.T) {
	q := curriculum.Question{Type: curriculum.TypeMCQ, CorrectAnswer: curriculum.TextAnswer("Golgi body")}
	assert.True(t, CheckAnswer(q, "golgi BODY"))
	assert.True(t, CheckAnswer(q, "  Golgi body "))
	assert.False(t, CheckAnswer(q, "Golgi"))
	assert.False(t, CheckAnswer(q, 42))
	assert.False(t, CheckAnswer(q, nil))
}

func TestCheckAnswer_TrueFalse(t *testing.T) {
	q := curriculum.Question{Type: curriculum.TypeTrueFalse, CorrectAnswer: curriculum.TextAnswer("False")}
	assert.True(t, CheckAnswer(q, "false"))
	assert.True(t, CheckAnswer(q, "B"))
	assert.True(t, CheckAnswer(q, false))
	assert.False(t, CheckAnswer(q, "A"))
	assert.False(t, CheckAnswer(q, true))
	assert.False(t, CheckAnswer(q, "maybe"))
	assert.False(t, CheckAnswer(q, []string{"false"}))
}

func TestCheckAnswer_FillBlank(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		answer any
		ok     bool
	}{
		{"padding and punctuation", "answer", "  Answer.  ", true},
		{"apostrophes dropped", "newtons law", "Newton's law", true},
		{"hyphen as space", "cell membrane", "cell-membrane", true},
		{"collapsed whitespace", "cell membrane", "cell    membrane", true},
		{"one typo on long word", "chloroplast", "chloroplst", true},
		{"two typos rejected", "chloroplast", "chloroplt", false},
		{"short word exact only", "atom", "atim", false},
		{"numeric exact only", "123456", "123457", false},
		{"operator exact only", "x+y=zzz", "x+y=zzy", false},
		{"wrong type", "answer", 7, false},
		{"fullwidth folded", "abc", "ＡＢＣ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := curriculum.Question{Type: curriculum.TypeFillBlank, CorrectAnswer: curriculum.TextAnswer(tt.want)}
			assert.Equal(t, tt.ok, CheckAnswer(q, tt.answer))
		})
	}
}

func TestCheckAnswer_Ordering(t *testing.T) {
	q := curriculum.Question{Type: curriculum.TypeOrdering, CorrectAnswer: curriculum.SequenceAnswer("a", "b", "c")}
	assert.True(t, CheckAnswer(q, []string{"a", "b", "c"}))
	assert.True(t, CheckAnswer(q, []any{"a", "b", "c"}))
	assert.False(t, CheckAnswer(q, []string{"a", "c", "b"}))
	assert.False(t, CheckAnswer(q, []string{"a", "b"}))
	assert.False(t, CheckAnswer(q, []any{"a", 2, "c"}))
	assert.False(t, CheckAnswer(q, "a,b,c"))
}

func TestCheckAnswer_Match(t *testing.T) {
	q := curriculum.Question{
		Type:       curriculum.TypeMatch,
		MatchPairs: []curriculum.MatchPair{{Left: "DNA", Right: "nucleus"}, {Left: "ATP", Right: "mitochondria"}},
	}
	assert.True(t, CheckAnswer(q, map[string]any{"DNA": "Nucleus", "ATP": "mitochondria"}))
	assert.False(t, CheckAnswer(q, map[string]string{"DNA": "mitochondria", "ATP": "nucleus"}))
	assert.False(t, CheckAnswer(q, map[string]string{"DNA": "nucleus"}))
	assert.False(t, CheckAnswer(q, map[string]string{"DNA": "nucleus", "ATP": "mitochondria", "RNA": "ribosome"}))
	assert.False(t, CheckAnswer(q, map[string]any{"DNA": 1, "ATP": "mitochondria"}))
	assert.False(t, CheckAnswer(q, "not a map"))
}

func TestCheckAnswer_UnknownType(t *testing.T) {
	q := curriculum.Question{Type: "essay", CorrectAnswer: curriculum.TextAnswer("x")}
	assert.False(t, CheckAnswer(q, "x"))
}

func TestCorrectAnswerFor_Match(t *testing.T) {
	q := curriculum.Question{
		Type:       curriculum.TypeMatch,
		MatchPairs: []curriculum.MatchPair{{Left: "b", Right: "2"}, {Left: "a", Right: "1"}},
	}
	assert.Equal(t, []string{"a = 1", "b = 2"}, correctAnswerFor(q).Sequence)
}
