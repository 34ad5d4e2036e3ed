package proficiency

// Band is a topic-level proficiency label shown instead of a raw score.
type Band string

const (
	NotStarted              Band = "not_started"
	BuildingFamiliarity     Band = "building_familiarity"
	GrowingConfidence       Band = "growing_confidence"
	ConsistentUnderstanding Band = "consistent_understanding"
	ExamReady               Band = "exam_ready"
)

// Bands lists all bands from lowest to highest.
var Bands = []Band{NotStarted, BuildingFamiliarity, GrowingConfidence, ConsistentUnderstanding, ExamReady}

// Level returns the band's position (0 for not_started, 4 for exam_ready).
func (b Band) Level() int {
	for i, o := range Bands {
		if o == b {
			return i
		}
	}
	return 0
}

// Label returns the display label for a band.
func (b Band) Label() string {
	switch b {
	case NotStarted:
		return "Not started"
	case BuildingFamiliarity:
		return "Building familiarity"
	case GrowingConfidence:
		return "Growing confidence"
	case ConsistentUnderstanding:
		return "Consistent understanding"
	case ExamReady:
		return "Exam ready"
	default:
		return string(b)
	}
}
