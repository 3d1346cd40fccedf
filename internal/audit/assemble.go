package audit

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleSourceSynthetic = "synthetic"
	RoleSourceLiteral   = "literal"
)

// Assembly carries everything the report is built from.
type Assembly struct {
	ID          string
	Request     Request
	ResumeText  string
	Fusion      Fusion
	Compliance  Layer
	CreatedAt   time.Time
	Diagnostics Diagnostics
}

// Assemble builds the final report. Critical failures are the compliance
// flags only; AI flags stay on their layers.
func Assemble(a Assembly) Result {
	id := a.ID
	if id == "" {
		id = uuid.NewString()
	}

	layers := make(map[LayerName]Layer, len(a.Fusion.Layers))
	for name, layer := range a.Fusion.Layers {
		layer.Flags = append([]string{}, layer.Flags...)
		layers[name] = layer
	}

	skills := append([]string{}, a.Fusion.Entities.Skills...)

	return Result{
		ID:            id,
		Links:         a.Request.Links,
		TargetRoleRaw: a.Request.TargetRole,
		ResumeTextRaw: a.ResumeText,
		ParserView: ParserView{
			ExtractedName:          a.Fusion.Entities.Name,
			ExtractedEmail:         a.Fusion.Entities.Email,
			ExtractedPhone:         a.Fusion.Entities.Phone,
			ExtractedSkills:        skills,
			RawTextDump:            a.ResumeText,
			ParsingConfidenceScore: a.Fusion.ParsingConfidence,
		},
		Scorecard: Scorecard{
			OverallScore:     a.Fusion.OverallScore,
			Layers:           layers,
			CriticalFailures: append([]string{}, a.Compliance.Flags...),
		},
		CreatedAt:   a.CreatedAt.UTC(),
		Diagnostics: a.Diagnostics,
	}
}
