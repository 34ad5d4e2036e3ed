package curriculum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// SupportedMajor is the content pack major version this build reads.
const SupportedMajor = "v1"

var (
	ErrTopicNotFound = errors.New("curriculum: topic not found")
	ErrBankNotFound  = errors.New("curriculum: question bank not found")
)

// TopicProvider resolves CAM topics. It is the read-only CAM provider.
type TopicProvider interface {
	Topic(ctx context.Context, topicID string) (*Topic, error)
}

// BankProvider resolves the question bank for a topic.
type BankProvider interface {
	Bank(ctx context.Context, topicID string) (*Bank, error)
}

// Pack is the on-disk content pack format.
type Pack struct {
	SchemaVersion string  `json:"schema_version"`
	Themes        []Theme `json:"themes"`
	Banks         []Bank  `json:"banks,omitempty"`
}

// Library is an in-memory, file-backed content source. It implements both
// TopicProvider and BankProvider.
type Library struct {
	cam   CAM
	banks map[string]*Bank
}

// NewLibrary builds a library from already-decoded packs.
func NewLibrary(packs ...*Pack) (*Library, error) {
	lib := &Library{banks: make(map[string]*Bank)}
	for _, p := range packs {
		lib.merge(p)
	}
	if err := ValidateCAM(&lib.cam); err != nil {
		return nil, err
	}
	return lib, nil
}

// LoadLibrary reads every .json, .yaml and .yml pack under path (a file or
// a directory) and builds a library.
func LoadLibrary(path string) (*Library, error) {
	files, err := packFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no content packs found in %s", path)
	}

	var packs []*Pack
	for _, f := range files {
		p, err := LoadPack(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		packs = append(packs, p)
	}
	return NewLibrary(packs...)
}

// LoadPack reads, schema-validates and decodes one pack file.
func LoadPack(path string) (*Pack, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pack: %w", err)
	}
	if isYAML(path) {
		raw, err = yamlToJSON(raw)
		if err != nil {
			return nil, err
		}
	}
	return DecodePack(raw)
}

// DecodePack schema-validates and decodes a JSON pack.
func DecodePack(raw []byte) (*Pack, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := ValidatePackDocument(doc); err != nil {
		return nil, err
	}

	var p Pack
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode pack: %w", err)
	}
	if err := checkVersion(p.SchemaVersion); err != nil {
		return nil, err
	}
	return &p, nil
}

func checkVersion(v string) error {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid schema_version %q", v)
	}
	if semver.Major(v) != SupportedMajor {
		return fmt.Errorf("unsupported schema_version %s (want %s.x)", v, SupportedMajor)
	}
	return nil
}

func yamlToJSON(raw []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert YAML: %w", err)
	}
	return b, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func packFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat content path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (l *Library) merge(p *Pack) {
	for _, th := range p.Themes {
		idx := -1
		for i := range l.cam.Themes {
			if l.cam.Themes[i].ID == th.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			l.cam.Themes = append(l.cam.Themes, th)
			continue
		}
		l.cam.Themes[idx].Topics = append(l.cam.Themes[idx].Topics, th.Topics...)
	}

	for _, b := range p.Banks {
		b.Questions = normalizeQuestions(b.Questions)
		existing, ok := l.banks[b.TopicID]
		if !ok {
			bank := b
			l.banks[b.TopicID] = &bank
			continue
		}
		existing.Questions = append(existing.Questions, b.Questions...)
		if existing.CanonicalExplanation == "" {
			existing.CanonicalExplanation = b.CanonicalExplanation
		}
	}
}

// CAM returns the merged curriculum tree.
func (l *Library) CAM() *CAM {
	return &l.cam
}

// Topic implements TopicProvider.
func (l *Library) Topic(_ context.Context, topicID string) (*Topic, error) {
	t, ok := l.cam.Topic(topicID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTopicNotFound, topicID)
	}
	return t, nil
}

// Bank implements BankProvider.
func (l *Library) Bank(_ context.Context, topicID string) (*Bank, error) {
	b, ok := l.banks[topicID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBankNotFound, topicID)
	}
	return b, nil
}

// Findings runs CheckTopic over every topic and CheckBank over every bank
// whose topic is known, keyed by topic id.
func (l *Library) Findings() map[string][]Finding {
	out := make(map[string][]Finding)
	for _, t := range l.cam.Topics() {
		if f := CheckTopic(&t); len(f) > 0 {
			out[t.ID] = f
		}
	}
	for id, b := range l.banks {
		t, ok := l.cam.Topic(id)
		if !ok {
			out[id] = []Finding{{QuestionID: "*", Problem: "bank has no matching CAM topic"}}
			continue
		}
		if f := CheckBank(b, t); len(f) > 0 {
			out[id] = append(out[id], f...)
		}
	}
	return out
}

// normalizeQuestions gives every match question both shapes of its key:
// match_pairs for display and a pairs answer for checking. Authors may
// write either one.
func normalizeQuestions(qs []Question) []Question {
	out := make([]Question, len(qs))
	for i, q := range qs {
		if q.Type == TypeMatch {
			switch {
			case !q.CorrectAnswer.IsPairs() && len(q.MatchPairs) > 0:
				pairs := make(map[string]string, len(q.MatchPairs))
				for _, p := range q.MatchPairs {
					pairs[p.Left] = p.Right
				}
				q.CorrectAnswer = PairsAnswer(pairs)
			case q.CorrectAnswer.IsPairs() && len(q.MatchPairs) == 0:
				lefts := make([]string, 0, len(q.CorrectAnswer.Pairs))
				for left := range q.CorrectAnswer.Pairs {
					lefts = append(lefts, left)
				}
				sort.Strings(lefts)
				for _, left := range lefts {
					q.MatchPairs = append(q.MatchPairs, MatchPair{Left: left, Right: q.CorrectAnswer.Pairs[left]})
				}
			}
		}
		out[i] = q
	}
	return out
}
