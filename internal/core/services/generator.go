package services

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/paperpost-cli/internal/core/domain"
	"github.com/custodia-labs/paperpost-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperpost-cli/internal/logger"
)

// GeneratorConfig holds the generation policy knobs. Zero values fall
// back to the domain defaults.
type GeneratorConfig struct {
	// Candidates is the number of tone variants drafted per figure.
	Candidates int

	// WindowLimit bounds the recent-post similarity window.
	WindowLimit int

	// OpeningWords is the prefix length for the opening pre-check.
	OpeningWords int

	// OpeningThreshold is the looser threshold for post openings.
	OpeningThreshold float64

	// BodyThreshold is the stricter threshold for full post bodies.
	BodyThreshold float64

	// ReportName is how posts may refer to the source report.
	ReportName string

	// ContextChars truncates the document context embedded in prompts.
	// Zero disables document context.
	ContextChars int

	// Temperature is the sampling temperature for the drafting pass.
	Temperature float64

	// RetryTemperature is used on the single regeneration pass.
	RetryTemperature float64
}

// candidate pairs a cleaned draft text with the tone it was requested
// in. Tone is best-effort: segments beyond the requested count carry
// an empty tone.
type candidate struct {
	text string
	tone domain.Tone
}

// Generator drives post generation for one figure: analysis, drafting
// with tone diversity, similarity filtering, and the single
// regeneration fallback.
type Generator struct {
	analysis   driven.AnalysisService
	generation driven.GenerationService
	recent     driven.RecentPostsReader
	rng        *rand.Rand
	now        func() time.Time
	cfg        GeneratorConfig
}

// NewGenerator creates a generator. The random source is injected so
// tests can assert deterministic tone sequences.
func NewGenerator(
	analysis driven.AnalysisService,
	generation driven.GenerationService,
	recent driven.RecentPostsReader,
	rng *rand.Rand,
	cfg GeneratorConfig,
) *Generator {
	if cfg.Candidates <= 0 {
		cfg.Candidates = domain.DefaultCandidateCount
	}
	if cfg.WindowLimit <= 0 {
		cfg.WindowLimit = domain.DefaultWindowLimit
	}
	if cfg.OpeningWords <= 0 {
		cfg.OpeningWords = domain.DefaultOpeningWords
	}
	if cfg.OpeningThreshold <= 0 {
		cfg.OpeningThreshold = domain.DefaultOpeningThreshold
	}
	if cfg.BodyThreshold <= 0 {
		cfg.BodyThreshold = domain.DefaultBodyThreshold
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Generator{
		analysis:   analysis,
		generation: generation,
		recent:     recent,
		rng:        rng,
		now:        time.Now,
		cfg:        cfg,
	}
}

// SetClock overrides the time source. Useful for testing.
func (g *Generator) SetClock(now func() time.Time) {
	g.now = now
}

// AnalyzeFigure submits the figure image to the analysis collaborator
// and tolerantly parses the reply. A malformed reply degrades to a raw
// carry-over result; only the collaborator call itself can fail.
func (g *Generator) AnalyzeFigure(ctx context.Context, fig domain.FigureRef) (domain.AnalysisResult, error) {
	image, err := os.ReadFile(fig.Path)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("reading figure %d: %w", fig.Index, err)
	}

	reply, err := g.analysis.Analyze(ctx, image)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("analyzing figure %d: %w", fig.Index, err)
	}

	result := domain.ParseAnalysis(reply)
	if !result.Structured() {
		logger.Debug("figure %d analysis reply not structured, carrying raw text", fig.Index)
	}
	return result, nil
}

// PostsForFigure drafts candidate posts for a figure, filters them
// through the similarity gate against the current recent-post window,
// and falls back to a single unconditional regeneration when every
// candidate was rejected against a non-empty window.
//
// The window is fetched fresh here, not cached across figures: posts
// committed earlier in the same run must be visible to later figures'
// similarity checks.
func (g *Generator) PostsForFigure(
	ctx context.Context,
	fig domain.FigureRef,
	analysis domain.AnalysisResult,
	docContext string,
) ([]domain.Post, error) {
	window := g.fetchWindow(ctx)

	tones := domain.PickTones(g.rng, g.cfg.Candidates)
	in := promptInput{
		analysis:      analysis,
		docContext:    truncateContext(docContext, g.cfg.ContextChars),
		tones:         tones,
		mentionReport: domain.MentionReportName(g.rng),
		reportName:    g.cfg.ReportName,
		openings:      window.Openings,
		now:           g.now(),
	}
	prompt := buildPrompt(in)

	reply, err := g.generation.Generate(ctx, draftSystemPrompt, prompt, driven.GenerateOptions{
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("drafting posts for figure %d: %w", fig.Index, err)
	}

	candidates := pairWithTones(splitPosts(reply), tones)
	surviving := g.filter(fig, candidates, window)

	// All candidates rejected against a non-empty window: one
	// regeneration with intensified novelty instructions, accepted
	// unconditionally so the pipeline always makes forward progress.
	if len(surviving) == 0 && len(candidates) > 0 && !window.Empty() {
		logger.Info("figure %d: all %d candidates too similar, regenerating once",
			fig.Index, len(candidates))

		reply, err = g.generation.Generate(ctx, retrySystemPrompt, prompt+retryInstruction,
			driven.GenerateOptions{Temperature: g.cfg.RetryTemperature})
		if err != nil {
			return nil, fmt.Errorf("regenerating posts for figure %d: %w", fig.Index, err)
		}
		surviving = pairWithTones(splitPosts(reply), tones)
	}

	posts := make([]domain.Post, 0, len(surviving))
	for _, c := range surviving {
		posts = append(posts, domain.Post{
			ID:          uuid.NewString(),
			DocumentID:  fig.DocumentID,
			FigureIndex: fig.Index,
			Tone:        c.tone,
			Text:        c.text,
			CreatedAt:   g.now(),
		})
	}
	return posts, nil
}

// fetchWindow reads the recent-post window. Read failures degrade to
// an empty window with a warning; the window only feeds similarity
// comparison and prompt guidance, never correctness of commits.
func (g *Generator) fetchWindow(ctx context.Context) domain.PostWindow {
	if g.recent == nil {
		return domain.PostWindow{}
	}

	bodies, err := g.recent.Recent(ctx, g.cfg.WindowLimit)
	if err != nil {
		logger.Warn("fetching recent posts failed, proceeding with empty window: %v", err)
		return domain.PostWindow{}
	}
	return domain.NewPostWindow(bodies, g.cfg.OpeningWords)
}

// pairWithTones aligns cleaned segments with the requested tones by
// position.
func pairWithTones(texts []string, tones []domain.Tone) []candidate {
	candidates := make([]candidate, 0, len(texts))
	for i, text := range texts {
		c := candidate{text: text}
		if i < len(tones) {
			c.tone = tones[i]
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// filter applies the similarity gate: the looser opening pre-check
// against recent openings, then the stricter full-body check.
func (g *Generator) filter(
	fig domain.FigureRef,
	candidates []candidate,
	window domain.PostWindow,
) []candidate {
	var surviving []candidate
	for _, c := range candidates {
		opening := domain.Opening(c.text, g.cfg.OpeningWords)
		if domain.TooSimilar(opening, window.Openings, g.cfg.OpeningThreshold) {
			logger.Info("figure %d: dropping candidate with familiar opening: %.50s...",
				fig.Index, c.text)
			continue
		}
		if domain.TooSimilar(c.text, window.Bodies, g.cfg.BodyThreshold) {
			logger.Info("figure %d: dropping near-duplicate candidate: %.50s...",
				fig.Index, c.text)
			continue
		}
		surviving = append(surviving, c)
	}
	return surviving
}
