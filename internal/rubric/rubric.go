// Package rubric holds the grading rubric that the checkers render into
// their prompts: canonical lesson sections, time budgets and literacy
// anchors.
package rubric

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Rubric is the full grading rubric.
type Rubric struct {
	Name               string    `yaml:"name"`
	Subject            string    `yaml:"subject"`
	LessonMinutes      int       `yaml:"lesson_minutes"`
	SectionPoints      int       `yaml:"section_points"`
	SubstanceThreshold int       `yaml:"substance_threshold"`
	Sections           []Section `yaml:"sections"`
	Literacy           Literacy  `yaml:"literacy"`
}

// Section is one canonical lesson section.
type Section struct {
	ID        string   `yaml:"id"`
	Label     string   `yaml:"label"`
	Keywords  []string `yaml:"keywords"`
	Hint      string   `yaml:"hint,omitempty"`
	Range     Range    `yaml:"range"`
	Durations []Tier   `yaml:"durations"`
}

// Range is an acceptable duration in minutes, inclusive.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d min", r.Min, r.Max)
}

// Tier is a duration heuristic for when the plan states no time.
type Tier struct {
	When    string `yaml:"when"`
	Minutes string `yaml:"minutes"`
}

// Literacy describes the anchor-comparison method.
type Literacy struct {
	Weights    AnchorWeights `yaml:"weights"`
	Dimensions []Dimension   `yaml:"dimensions"`
}

// AnchorWeights combine anchor similarities into a dimension score:
// excellent×Excellent + basic×Basic + (1 − absent)×Absent.
type AnchorWeights struct {
	Excellent float64 `yaml:"excellent"`
	Basic     float64 `yaml:"basic"`
	Absent    float64 `yaml:"absent"`
}

// Dimension is one literacy dimension with its three anchors.
type Dimension struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Excellent string `yaml:"excellent"`
	Basic     string `yaml:"basic"`
	Absent    string `yaml:"absent"`
}

var defaultRubric = sync.OnceValue(func() *Rubric {
	r, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded rubric: %v", err))
	}
	return r
})

// Default returns the embedded rubric. Callers must not modify it.
func Default() *Rubric {
	return defaultRubric()
}

// Load reads a rubric from a YAML file.
func Load(path string) (*Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rubric: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rubric %s: %w", path, err)
	}
	return r, nil
}

// Parse decodes and validates a YAML rubric. Unknown fields are rejected.
func Parse(data []byte) (*Rubric, error) {
	var r Rubric
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decode rubric: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks the rubric for internal consistency.
func (r *Rubric) Validate() error {
	var errs []error
	if r.LessonMinutes <= 0 {
		errs = append(errs, errors.New("lesson_minutes must be positive"))
	}
	if r.SectionPoints <= 0 {
		errs = append(errs, errors.New("section_points must be positive"))
	}
	if r.SubstanceThreshold < 0 {
		errs = append(errs, errors.New("substance_threshold must not be negative"))
	}
	if len(r.Sections) == 0 {
		errs = append(errs, errors.New("at least one section is required"))
	} else if r.SectionPoints > 0 && r.MaxScore() != ScoreScale {
		errs = append(errs, fmt.Errorf("sections × section_points must total %d, got %d", ScoreScale, r.MaxScore()))
	}

	seen := make(map[string]bool)
	for i, s := range r.Sections {
		switch {
		case s.ID == "":
			errs = append(errs, fmt.Errorf("sections[%d]: id is required", i))
		case seen[s.ID]:
			errs = append(errs, fmt.Errorf("sections[%d]: duplicate id %q", i, s.ID))
		}
		seen[s.ID] = true
		if len(s.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("section %q: keywords are required", s.ID))
		}
		if s.Range.Min < 0 || s.Range.Max < s.Range.Min {
			errs = append(errs, fmt.Errorf("section %q: invalid range %d-%d", s.ID, s.Range.Min, s.Range.Max))
		}
	}

	if len(r.Literacy.Dimensions) == 0 {
		errs = append(errs, errors.New("at least one literacy dimension is required"))
	}
	dims := make(map[string]bool)
	for i, d := range r.Literacy.Dimensions {
		if d.ID == "" {
			errs = append(errs, fmt.Errorf("literacy.dimensions[%d]: id is required", i))
		} else if dims[d.ID] {
			errs = append(errs, fmt.Errorf("literacy.dimensions[%d]: duplicate id %q", i, d.ID))
		}
		dims[d.ID] = true
	}
	w := r.Literacy.Weights
	if w.Excellent < 0 || w.Basic < 0 || w.Absent < 0 {
		errs = append(errs, errors.New("literacy weights must not be negative"))
	}

	return errors.Join(errs...)
}

// Section returns the section with the given id.
func (r *Rubric) Section(id string) (Section, bool) {
	for _, s := range r.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// SectionIDs returns section ids in rubric order.
func (r *Rubric) SectionIDs() []string {
	ids := make([]string, len(r.Sections))
	for i, s := range r.Sections {
		ids[i] = s.ID
	}
	return ids
}

// DimensionIDs returns literacy dimension ids in rubric order.
func (r *Rubric) DimensionIDs() []string {
	ids := make([]string, len(r.Literacy.Dimensions))
	for i, d := range r.Literacy.Dimensions {
		ids[i] = d.ID
	}
	return ids
}

// ScoreScale is the top of the 0-based range every verdict score uses. The
// composite weights assume it.
const ScoreScale = 100

// MaxScore is the completeness score of a plan with every section present.
// Valid rubrics have MaxScore equal to ScoreScale.
func (r *Rubric) MaxScore() int {
	return r.SectionPoints * len(r.Sections)
}
