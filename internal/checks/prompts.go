package checks

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/abhisek/lessondiag/internal/rubric"
)

var funcs = template.FuncMap{
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
	"half": func(n int) int { return n / 2 },
}

var completenessTemplate = template.Must(template.New("completeness").Funcs(funcs).Parse(
	`You are an expert reviewer of {{.Rubric.Subject}} lesson plans. Check whether the lesson plan below contains every required teaching section.

Sections and the keywords that identify them:
{{range .Rubric.Sections}}- {{.ID}} ({{.Label}}): {{join .Keywords " / "}}
{{end}}
Rules:
1. Scan the whole document paragraph by paragraph and merge scattered mentions of the same section.
{{- range .Rubric.Sections}}{{if .Hint}}
   For {{.ID}}: {{.Hint}}{{end}}{{end}}
2. A section has valid content when it has at least {{.Rubric.SubstanceThreshold}} characters and describes concrete activity.

Scoring: {{.Rubric.SectionPoints}} points per section. A missing section scores 0, a present but thin section (under {{.Rubric.SubstanceThreshold}} characters) scores {{half .Rubric.SectionPoints}}, a complete section scores {{.Rubric.SectionPoints}}.

Reply with JSON only, in this shape:
{
  "score": <0-{{.Rubric.MaxScore}}>,
  "details": "<what was deducted and why>",
  "missing_sections": ["<section id>", ...],
  "sections": [
{{- range $i, $s := .Rubric.Sections}}{{if $i}},{{end}}
    {"section": "{{$s.ID}}", "points": <0|{{half $.Rubric.SectionPoints}}|{{$.Rubric.SectionPoints}}>, "present": <true|false>, "valid": <true|false>, "summary": "<one line>"}
{{- end}}
  ]
}

Lesson plan:
{{.Text}}
`))

var timeTemplate = template.Must(template.New("time-allocation").Funcs(funcs).Parse(
	`You are an expert in lesson timing. Check whether the lesson plan below allocates its time sensibly.

Confirmed present sections: {{if .Present}}{{join .Present ", "}}{{else}}none confirmed{{end}}
Total lesson length: {{.Rubric.LessonMinutes}} minutes

When the plan does not state a duration, infer one from the content:
{{range .Rubric.Sections}}- {{.ID}}:{{range $i, $t := .Durations}}{{if $i}};{{end}} {{$t.When}} {{$t.Minutes}} min{{end}}
{{end}}
Acceptable ranges:
{{range .Rubric.Sections}}- {{.ID}}: {{.Range}}
{{end}}
Annotate every current_duration with its source:
- "N min[stated]" when the plan states the duration
- "N min[inferred: reason]" when you estimated it from the content
- "0[missing]" when the section is absent

Reply with JSON only, in this shape:
{
  "score": <0-{{.Rubric.MaxScore}}>,
  "details": "<assessment, including how durations were inferred>",
  "sections": [
    {"section": "<section id>", "current_duration": "5 min[stated]", "recommended_duration": "<range>", "reasonable": <true|false>},
    ...
  ]
}

Lesson plan:
{{.Text}}
`))

var literacyTemplate = template.Must(template.New("literacy").Funcs(funcs).Parse(
	`You are an expert in core-literacy assessment. Score the lesson plan below on each literacy dimension using anchor comparison.

Method: for each dimension estimate the similarity (0-1) of the plan to each anchor, then
dimension score = {{.Rubric.MaxScore}} × (excellent × {{.Rubric.Literacy.Weights.Excellent}} + basic × {{.Rubric.Literacy.Weights.Basic}} + (1 − absent) × {{.Rubric.Literacy.Weights.Absent}})

Anchors:
{{range $i, $d := .Rubric.Literacy.Dimensions}}{{inc $i}}. {{$d.ID}}: {{$d.Name}}
   - excellent: {{$d.Excellent}}
   - basic: {{$d.Basic}}
   - absent: {{$d.Absent}}
{{end}}
For every dimension give the score, the similarity calculation, the evidence quoted from the plan and a rationale.

Reply with JSON only, in this shape:
{
  "average_score": <mean of the dimension scores>,
  "dimensions": {
{{- range $i, $d := .Rubric.Literacy.Dimensions}}{{if $i}},{{end}}
    "{{$d.ID}}": {"score": <0-{{$.Rubric.MaxScore}}>, "similarity": {"excellent": <0-1>, "basic": <0-1>, "absent": <0-1>}, "evidence": ["..."], "rationale": "..."}
{{- end}}
  }
}

Lesson plan:
{{.Text}}
`))

type promptData struct {
	Rubric  *rubric.Rubric
	Text    string
	Present []string
}

func render(t *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// CompletenessPrompt renders the section-completeness prompt.
func CompletenessPrompt(r *rubric.Rubric, text string) (string, error) {
	return render(completenessTemplate, promptData{Rubric: r, Text: text})
}

// TimeAllocationPrompt renders the time-allocation prompt for the sections
// already confirmed present.
func TimeAllocationPrompt(r *rubric.Rubric, text string, present []string) (string, error) {
	return render(timeTemplate, promptData{Rubric: r, Text: text, Present: present})
}

// LiteracyPrompt renders the literacy-match prompt.
func LiteracyPrompt(r *rubric.Rubric, text string) (string, error) {
	return render(literacyTemplate, promptData{Rubric: r, Text: text})
}
