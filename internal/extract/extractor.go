// Package extract turns a resume source into plain text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spigell/ats-auditor/internal/fetch"
	"github.com/spigell/ats-auditor/internal/logger"
	"go.uber.org/zap"
)

// LiteralStrategy is reported for text supplied directly.
const LiteralStrategy = "literal"

var (
	errNoSource     = errors.New("no resume source provided")
	errNoStrategies = errors.New("no extraction strategies configured")
	errNoFetcher    = errors.New("no fetcher configured for resume URL")
)

// Extractor resolves a Source and runs the strategy chain over binary
// content.
type Extractor struct {
	fetcher    fetch.Fetcher
	strategies []Strategy
	logger     *zap.Logger
}

// New builds an Extractor. Without strategies, DefaultStrategies is used.
func New(fetcher fetch.Fetcher, log *zap.Logger, strategies ...Strategy) *Extractor {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Extractor{
		fetcher:    fetcher,
		strategies: strategies,
		logger:     logger.OrNop(log),
	}
}

// Strategies returns the names of the configured strategies in order.
func (e *Extractor) Strategies() []string {
	return Names(e.strategies)
}

// Extract never fails: every problem is reported through Outcome.Failure.
// Literal text is returned as supplied; parser output is normalized.
func (e *Extractor) Extract(ctx context.Context, src Source) Outcome {
	var outcome Outcome
	switch {
	case src.Text != "":
		outcome = Outcome{Text: src.Text, Strategy: LiteralStrategy}
	case len(src.Data) > 0:
		outcome = e.parse(ctx, src.Data)
	case strings.TrimSpace(src.URL) != "":
		outcome = e.download(ctx, src.URL)
	default:
		outcome = Outcome{Failure: &Failure{Kind: KindEmpty, Reason: errNoSource}}
	}

	if outcome.Failure == nil && strings.TrimSpace(outcome.Text) == "" {
		e.logger.Warn("document yielded no text", zap.String(logger.FieldStrategy, outcome.Strategy))
		outcome = Outcome{Strategy: outcome.Strategy, Failure: &Failure{Kind: KindEmpty}}
	}

	return outcome
}

func (e *Extractor) download(ctx context.Context, url string) Outcome {
	if e.fetcher == nil {
		return Outcome{Failure: &Failure{Kind: KindFetch, Reason: errNoFetcher, URL: url}}
	}

	data, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		e.logger.Error("resume download failed", zap.Error(err))
		return Outcome{Failure: &Failure{Kind: KindFetch, Reason: err, URL: url}}
	}

	return e.parse(ctx, data)
}

func (e *Extractor) parse(ctx context.Context, data []byte) Outcome {
	if len(e.strategies) == 0 {
		return Outcome{Failure: &Failure{Kind: KindParse, Reason: errNoStrategies}}
	}

	e.logger.Debug("parsing document",
		zap.Int("size", len(data)),
		zap.String("mime", mimetype.Detect(data).String()),
	)

	var (
		lastErr error
		blank   string
	)
	for _, strategy := range e.strategies {
		if err := ctx.Err(); err != nil {
			return Outcome{Failure: &Failure{Kind: KindParse, Reason: err}}
		}

		log := e.logger.With(zap.String(logger.FieldStrategy, strategy.Name()))

		text, err := attempt(ctx, strategy, data)
		if err != nil {
			log.Debug("extraction strategy failed", zap.Error(err))
			lastErr = err
			continue
		}

		normalized := Normalize(text)
		if normalized == "" {
			log.Debug("extraction strategy found no text")
			if blank == "" {
				blank = strategy.Name()
			}
			continue
		}

		log.Info("extraction strategy succeeded", zap.Int("length", len(normalized)))
		return Outcome{Text: normalized, Strategy: strategy.Name()}
	}

	if blank != "" {
		return Outcome{Strategy: blank}
	}

	e.logger.Error("all extraction strategies failed", zap.Strings("strategies", e.Strategies()), zap.Error(lastErr))
	return Outcome{Failure: &Failure{Kind: KindParse, Reason: lastErr}}
}

// attempt runs one strategy, turning a panic inside the parsing library into
// an error.
func attempt(ctx context.Context, strategy Strategy, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", strategy.Name(), r)
		}
	}()
	return strategy.Attempt(ctx, data)
}
