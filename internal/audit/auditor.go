// Package audit runs the candidate/role compatibility audit: extraction,
// role synthesis, compliance gating, the model cascade and fusion into one
// bounded report.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spigell/ats-auditor/internal/ai"
	"github.com/spigell/ats-auditor/internal/compliance"
	"github.com/spigell/ats-auditor/internal/extract"
	"github.com/spigell/ats-auditor/internal/fetch"
	"github.com/spigell/ats-auditor/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config wires the pipeline.
type Config struct {
	SynthesisModel string
	Models         []string
	CascadeDelay   time.Duration
	MaxLogLength   int

	Fetcher    fetch.Fetcher
	Strategies []extract.Strategy

	// Clock and NewID default to time.Now and uuid.NewString.
	Clock func() time.Time
	NewID func() string
}

// Auditor runs audits. It holds no per-request state and may be shared.
type Auditor struct {
	synthesizer *ai.Synthesizer
	extractor   *extract.Extractor
	cascade     *ai.Cascade
	clock       func() time.Time
	newID       func() string
	logger      *zap.Logger
}

// New builds an Auditor. A nil generator is ErrGeneratorRequired.
func New(generator ai.Generator, cfg Config, log *zap.Logger) (*Auditor, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	log = logger.OrNop(log)

	cascade, err := ai.NewCascade(generator, ai.CascadeConfig{
		Models:       cfg.Models,
		Delay:        cfg.CascadeDelay,
		MaxLogLength: cfg.MaxLogLength,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("build model cascade: %w", err)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	return &Auditor{
		synthesizer: ai.NewSynthesizer(generator, cfg.SynthesisModel, cfg.MaxLogLength, log),
		extractor:   extract.New(cfg.Fetcher, log, cfg.Strategies...),
		cascade:     cascade,
		clock:       clock,
		newID:       newID,
		logger:      log,
	}, nil
}

// Run audits one request. Apart from validation errors, the only error is
// ErrTimeout when ctx ends first; every other fault is folded into the
// result.
func (a *Auditor) Run(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	id := a.newID()
	log := logger.WithFields(a.logger, logger.AuditFields(id, req.Links.UserID, req.Links.ApplicationID, req.Links.JobPursuitID)...)
	log.Info("audit started")

	var (
		role    ai.EffectiveRole
		outcome extract.Outcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		role = a.synthesizer.Synthesize(gctx, req.TargetRole, req.TargetComp)
		return nil
	})
	g.Go(func() error {
		outcome = a.extractor.Extract(gctx, req.source())
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, timeout(err)
	}

	resumeText := outcome.Display()
	if !outcome.OK() {
		log.Warn("resume text unavailable, auditing placeholder", zap.String("kind", string(outcome.Failure.Kind)))
	}

	report := compliance.Check(resumeText)
	complianceLayer := Layer{Score: report.Score, Flags: report.Flags, Description: compliance.Description}
	log.Info("compliance gate", zap.Int("score", report.Score), zap.Int("flags", len(report.Flags)))

	assessment, err := a.cascade.Assess(ctx, role, resumeText)
	if err != nil {
		return Result{}, timeout(err)
	}

	var payload map[string]any
	diagnostics := Diagnostics{
		RoleSource:         RoleSourceLiteral,
		ExtractionStrategy: outcome.Strategy,
	}
	if role.Synthetic {
		diagnostics.RoleSource = RoleSourceSynthetic
	}
	if assessment != nil {
		payload = assessment.Payload
		diagnostics.Model = assessment.Model
	}
	if outcome.Failure != nil {
		diagnostics.ExtractionFailure = string(outcome.Failure.Kind)
		if outcome.Failure.Reason != nil {
			diagnostics.ExtractionError = outcome.Failure.Reason.Error()
		}
	}

	fusion := Fuse(payload, complianceLayer)

	result := Assemble(Assembly{
		ID:          id,
		Request:     req,
		ResumeText:  resumeText,
		Fusion:      fusion,
		Compliance:  complianceLayer,
		CreatedAt:   a.clock(),
		Diagnostics: diagnostics,
	})

	log.Info("audit finished",
		zap.Int("overall_score", result.Scorecard.OverallScore),
		zap.Int("parsing_confidence", result.ParserView.ParsingConfidenceScore),
		zap.String(logger.FieldModel, diagnostics.Model),
	)

	return result, nil
}

func timeout(err error) error {
	return fmt.Errorf("%w: %w", ErrTimeout, err)
}
