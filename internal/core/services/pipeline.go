package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/paperpost-cli/internal/core/domain"
	"github.com/custodia-labs/paperpost-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperpost-cli/internal/core/ports/driving"
	"github.com/custodia-labs/paperpost-cli/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driving.PipelineRunner = (*Pipeline)(nil)

// PipelineConfig holds the driver's paths and flags.
type PipelineConfig struct {
	// AssetDir is the prepared figure image directory.
	AssetDir string

	// WorkDir caches converted document text between runs.
	WorkDir string

	// Single makes the run process at most one unprocessed figure.
	Single bool
}

// Pipeline sequences one document run: fingerprint, convert, extract,
// ledger filter, then per figure analysis, generation, commit and
// ledger mark. Strictly sequential; external collaborator latency
// dominates, and the within-run window ordering depends on it.
type Pipeline struct {
	converter driven.DocumentConverter
	extractor *Extractor
	ledger    driven.ProcessingLedger
	generator *Generator
	router    *Router
	cfg       PipelineConfig
}

// NewPipeline creates a pipeline driver.
func NewPipeline(
	converter driven.DocumentConverter,
	extractor *Extractor,
	ledger driven.ProcessingLedger,
	generator *Generator,
	router *Router,
	cfg PipelineConfig,
) *Pipeline {
	return &Pipeline{
		converter: converter,
		extractor: extractor,
		ledger:    ledger,
		generator: generator,
		router:    router,
		cfg:       cfg,
	}
}

// Run processes all unprocessed figures of the document at docPath.
// Figure-scoped collaborator failures skip that figure (left unmarked,
// retried next run) and never abort the batch; only fingerprinting,
// conversion and extraction failures are run-fatal.
func (p *Pipeline) Run(ctx context.Context, docPath string) (*driving.RunSummary, error) {
	logger.Section("paperpost run")

	docID, err := p.fingerprint(docPath)
	if err != nil {
		return nil, err
	}
	logger.Info("document %s fingerprinted as %s", docPath, docID)

	figures, err := p.extractor.Extract(p.cfg.AssetDir, docID)
	if err != nil {
		return nil, fmt.Errorf("extracting figures: %w", err)
	}
	logger.Info("found %d valid figures", len(figures))

	summary := &driving.RunSummary{
		DocumentID:   docID,
		TotalFigures: len(figures),
	}
	if len(figures) == 0 {
		return summary, nil
	}

	pending, err := p.ledger.Unprocessed(ctx, docID, len(figures))
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	if len(pending) == 0 {
		logger.Info("all figures already processed")
		return summary, nil
	}

	if p.cfg.Single {
		pending = pending[:1]
	}

	// Converted lazily: a fully processed document never pays for
	// conversion again.
	docContext, err := p.convertCached(ctx, docPath)
	if err != nil {
		return nil, err
	}

	for _, index := range pending {
		fig := figures[index]
		logger.Info("processing figure %d: %s", fig.Index, fig.Path)

		if err := p.processFigure(ctx, fig, docContext, summary); err != nil {
			// Figure-scoped failure: the ledger stays unmarked so the
			// figure is retried on the next run.
			logger.Warn("figure %d failed, will retry next run: %v", fig.Index, err)
			summary.SkippedFigures++
			continue
		}
		summary.ProcessedFigures++
	}

	return summary, nil
}

// processFigure runs one figure end to end. The ledger is marked only
// after every surviving post has been handed to the router; a figure
// with zero surviving posts is still marked, logged as degraded, so it
// is never reprocessed forever.
func (p *Pipeline) processFigure(
	ctx context.Context,
	fig domain.FigureRef,
	docContext string,
	summary *driving.RunSummary,
) error {
	analysis, err := p.generator.AnalyzeFigure(ctx, fig)
	if err != nil {
		return err
	}

	posts, err := p.generator.PostsForFigure(ctx, fig, analysis, docContext)
	if err != nil {
		return err
	}

	if len(posts) == 0 {
		logger.Warn("figure %d produced no posts, marking processed anyway", fig.Index)
	}

	description := analysis.PlainDescription()
	for _, post := range posts {
		rec := driven.NewPostRecord(post, description, fig.Path)
		result, err := p.router.Commit(ctx, rec)
		if err != nil {
			return fmt.Errorf("committing post %s: %w", post.ID, err)
		}
		switch result.Sink {
		case driven.SinkPrimary:
			summary.CommittedPosts++
		case driven.SinkFallback:
			summary.FallbackPosts++
		}
	}

	if err := p.ledger.MarkProcessed(ctx, fig.DocumentID, fig.Index); err != nil {
		return fmt.Errorf("marking figure %d processed: %w", fig.Index, err)
	}
	return nil
}

// Status reports ledger progress for the document at docPath without
// processing anything.
func (p *Pipeline) Status(ctx context.Context, docPath string) (*driving.RunStatus, error) {
	docID, err := p.fingerprint(docPath)
	if err != nil {
		return nil, err
	}

	figures, err := p.extractor.Extract(p.cfg.AssetDir, docID)
	if err != nil {
		return nil, fmt.Errorf("extracting figures: %w", err)
	}

	processed, err := p.ledger.Processed(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}

	return &driving.RunStatus{
		DocumentID:       docID,
		TotalFigures:     len(figures),
		ProcessedFigures: len(processed),
	}, nil
}

// fingerprint computes the content identity of the document.
func (p *Pipeline) fingerprint(docPath string) (domain.DocumentID, error) {
	f, err := os.Open(docPath)
	if err != nil {
		return "", fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	return domain.Fingerprint(f)
}

// convertCached returns the document text, converting once and caching
// the result in the work directory keyed by the document slug.
func (p *Pipeline) convertCached(ctx context.Context, docPath string) (string, error) {
	slug := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
	cachePath := filepath.Join(p.cfg.WorkDir, slug+".md")

	if data, err := os.ReadFile(cachePath); err == nil {
		logger.Info("using cached document text: %s", cachePath)
		return string(data), nil
	}

	logger.Info("converting document to text: %s", cachePath)
	text, err := p.converter.Convert(ctx, docPath)
	if err != nil {
		return "", fmt.Errorf("converting document: %w", err)
	}

	if err := os.MkdirAll(p.cfg.WorkDir, 0700); err != nil {
		return "", fmt.Errorf("creating work directory: %w", err)
	}
	if err := os.WriteFile(cachePath, []byte(text), 0600); err != nil {
		// Cache write failure only costs a reconversion next run.
		logger.Warn("caching document text failed: %v", err)
	}
	return text, nil
}
