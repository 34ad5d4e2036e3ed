package curriculum

import "slices"

// Concept is the smallest addressable unit of curriculum content.
type Concept struct {
	ID               string       `json:"concept_id"`
	Name             string       `json:"concept_name"`
	DifficultyLevels []Difficulty `json:"difficulty_levels"`
}

// Allows reports whether d is one of the concept's declared difficulty levels.
func (c Concept) Allows(d Difficulty) bool {
	return slices.Contains(c.DifficultyLevels, d)
}

// Topic groups the concepts practiced together in one session.
type Topic struct {
	ID       string    `json:"topic_id"`
	Name     string    `json:"topic_name"`
	Concepts []Concept `json:"concepts"`
}

// Concept looks up a concept in the topic by id.
func (t *Topic) Concept(id string) (Concept, bool) {
	for _, c := range t.Concepts {
		if c.ID == id {
			return c, true
		}
	}
	return Concept{}, false
}

// ConceptIDs returns the ids of the topic's concepts in declaration order.
func (t *Topic) ConceptIDs() []string {
	ids := make([]string, len(t.Concepts))
	for i, c := range t.Concepts {
		ids[i] = c.ID
	}
	return ids
}

// Theme is the top level of the CAM tree.
type Theme struct {
	ID     string  `json:"theme_id"`
	Name   string  `json:"theme_name"`
	Topics []Topic `json:"topics"`
}

// CAM is the curriculum authority tree: themes -> topics -> concepts ->
// allowed difficulties. It bounds what the engine may ever select.
type CAM struct {
	Themes []Theme `json:"themes"`
}

// Topic finds a topic anywhere in the tree.
func (c *CAM) Topic(id string) (*Topic, bool) {
	for i := range c.Themes {
		for j := range c.Themes[i].Topics {
			if c.Themes[i].Topics[j].ID == id {
				return &c.Themes[i].Topics[j], true
			}
		}
	}
	return nil, false
}

// Topics returns every topic in tree order.
func (c *CAM) Topics() []Topic {
	var out []Topic
	for _, th := range c.Themes {
		out = append(out, th.Topics...)
	}
	return out
}
