package cycle

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"feedback360/internal/domain/org"
)

// Question is one item of a relationship-specific feedback form.
type Question struct {
	ID     string `json:"id" yaml:"id"`
	Text   string `json:"text" yaml:"text"`
	Type   string `json:"type" yaml:"type"` // "text" or "rating"
	Order  int    `json:"order" yaml:"order"`
	Needed bool   `json:"required" yaml:"required"`
}

const (
	QuestionTypeText   = "text"
	QuestionTypeRating = "rating"
)

// TemplateSet holds the question templates for a cycle, keyed by
// relationship type.
type TemplateSet map[org.Relationship][]Question

type templateFile struct {
	Questions map[string][]Question `yaml:"questions"`
}

// LoadTemplates reads relationship-keyed question templates from a YAML
// file. Every relationship type that can appear on a nomination must have at
// least one question.
func LoadTemplates(path string) (TemplateSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var parsed templateFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse question templates: %w", err)
	}

	set := make(TemplateSet, len(parsed.Questions))
	for key, questions := range parsed.Questions {
		rel := org.Relationship(key)
		if !rel.Valid() {
			return nil, fmt.Errorf("question templates: unknown relationship type %q", key)
		}
		if rel == org.RelationshipManager {
			return nil, fmt.Errorf("question templates: manager relationship cannot carry nominations")
		}
		for _, q := range questions {
			if q.ID == "" || q.Text == "" {
				return nil, fmt.Errorf("question templates: %s has a question without id or text", key)
			}
			if q.Type != QuestionTypeText && q.Type != QuestionTypeRating {
				return nil, fmt.Errorf("question templates: question %s has unknown type %q", q.ID, q.Type)
			}
		}
		sorted := append([]Question(nil), questions...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
		set[rel] = sorted
	}

	for _, rel := range []org.Relationship{org.RelationshipPeer, org.RelationshipInternal, org.RelationshipReportee, org.RelationshipExternal} {
		if len(set[rel]) == 0 {
			return nil, fmt.Errorf("question templates: no questions for relationship %s", rel)
		}
	}
	return set, nil
}
