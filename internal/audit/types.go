package audit

import (
	"time"
)

// LayerName identifies a scorecard layer.
type LayerName string

const (
	LayerShadowSchema     LayerName = "shadow_schema"
	LayerMatrixFiltering  LayerName = "matrix_filtering"
	LayerVersionControl   LayerName = "version_control"
	LayerContentContext   LayerName = "content_context"
	LayerComplianceGating LayerName = "compliance_gating"
)

// Links are opaque identifiers passed through to the result untouched.
type Links struct {
	UserID        string `json:"userId,omitempty"`
	ApplicationID string `json:"applicationId,omitempty"`
	JobPursuitID  string `json:"jobPursuitId,omitempty"`
}

// Layer is one bounded assessment with its supporting flags.
type Layer struct {
	Score       int      `json:"score"`
	Flags       []string `json:"flags"`
	Description string   `json:"description"`
}

// ParserView is what was actually extracted from the resume.
type ParserView struct {
	ExtractedName          *string  `json:"extractedName"`
	ExtractedEmail         *string  `json:"extractedEmail"`
	ExtractedPhone         *string  `json:"extractedPhone"`
	ExtractedSkills        []string `json:"extractedSkills"`
	RawTextDump            string   `json:"rawTextDump"`
	ParsingConfidenceScore int      `json:"parsingConfidenceScore"`
}

// Scorecard holds the overall score and the five layers.
type Scorecard struct {
	OverallScore     int                 `json:"overallScore"`
	Layers           map[LayerName]Layer `json:"layers"`
	CriticalFailures []string            `json:"criticalFailures"`
}

// Diagnostics records how the result was produced.
type Diagnostics struct {
	// RoleSource is "synthetic" or "literal".
	RoleSource string `json:"roleSource"`
	// Model is empty when the whole cascade failed.
	Model              string `json:"model,omitempty"`
	ExtractionStrategy string `json:"extractionStrategy,omitempty"`
	ExtractionFailure  string `json:"extractionFailure,omitempty"`
	ExtractionError    string `json:"extractionError,omitempty"`
}

// Result is the audit report. It is built once per Run and not modified
// afterwards.
type Result struct {
	ID string `json:"id"`
	Links
	TargetRoleRaw string      `json:"targetRoleRaw"`
	ResumeTextRaw string      `json:"resumeTextRaw"`
	ParserView    ParserView  `json:"parserView"`
	Scorecard     Scorecard   `json:"scorecard"`
	CreatedAt     time.Time   `json:"createdAt"`
	Diagnostics   Diagnostics `json:"diagnostics"`
}
