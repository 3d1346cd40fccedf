package extract

import (
	"context"
	"fmt"
	"slices"
)

// Strategy turns a binary document into text.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, data []byte) (string, error)
}

// DefaultStrategies returns the strategy chain in the order it is tried.
func DefaultStrategies() []Strategy {
	return []Strategy{
		PDFDocument(),
		PDFPages(),
		DOCX(),
		HTML(),
		PlainText(),
	}
}

// Names returns the names of the given strategies.
func Names(strategies []Strategy) []string {
	names := make([]string, 0, len(strategies))
	for _, s := range strategies {
		names = append(names, s.Name())
	}
	return names
}

// Without drops the named strategies from the chain. Unknown names are an
// error so that a typo in configuration does not go unnoticed.
func Without(strategies []Strategy, names ...string) ([]Strategy, error) {
	known := Names(strategies)
	for _, name := range names {
		if !slices.Contains(known, name) {
			return nil, fmt.Errorf("unknown extraction strategy %q", name)
		}
	}

	kept := make([]Strategy, 0, len(strategies))
	for _, s := range strategies {
		if slices.Contains(names, s.Name()) {
			continue
		}
		kept = append(kept, s)
	}
	return kept, nil
}
