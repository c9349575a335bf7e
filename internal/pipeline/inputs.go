package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/outreach-agent/internal/ingestion"
	"github.com/jonathan/outreach-agent/internal/types"
)

// Inputs are the read-only data a run works from.
type Inputs struct {
	Directory *types.Directory
	Documents types.DocumentSet
}

// LoadInputs reads the directory sources and the document set concurrently.
// A missing primary source or document set yields a *MissingInputError;
// missing lower-priority sources load empty.
func LoadInputs(ctx context.Context, sources []ingestion.SourceSpec, documentsPath string, logger *slog.Logger) (*Inputs, error) {
	if len(sources) == 0 {
		return nil, &MissingInputError{Input: "directory", Message: "no sources configured"}
	}

	var in Inputs
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		dir, err := ingestion.LoadDirectory(gCtx, sources, logger)
		if err != nil {
			return missing("directory", err)
		}
		in.Directory = dir
		return nil
	})

	g.Go(func() error {
		docs, err := ingestion.LoadDocuments(documentsPath)
		if err != nil {
			return missing("documents", err)
		}
		in.Documents = docs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &in, nil
}

func missing(input string, err error) error {
	return &MissingInputError{Input: input, Message: "failed to load", Cause: err}
}
