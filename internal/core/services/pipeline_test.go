package services

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperpost-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/paperpost-cli/internal/core/domain"
)

type fakeConverter struct {
	text  string
	err   error
	calls int
}

func (f *fakeConverter) Convert(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

// domainFingerprint computes the document identity of a file, the same
// way the pipeline does.
func domainFingerprint(t *testing.T, path string) (domain.DocumentID, error) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return domain.Fingerprint(f)
}

type pipelineFixture struct {
	docPath  string
	ledger   *memory.Ledger
	sink     *memory.Sink
	fallback *memory.Fallback
	analysis *fakeAnalysis
	gen      *fakeGeneration
	conv     *fakeConverter
	pipeline *Pipeline
}

// newPipelineFixture builds a pipeline over temp dirs with the given
// number of real figure images and an in-memory storage stack.
func newPipelineFixture(t *testing.T, figures int, gen *fakeGeneration, single bool) *pipelineFixture {
	t.Helper()

	assetDir := t.TempDir()
	for i := 0; i < figures; i++ {
		writePNG(t, assetDir, fmt.Sprintf("images-%03d.png", i+1), 400)
	}

	docPath := filepath.Join(t.TempDir(), "whitepaper.pdf")
	require.NoError(t, os.WriteFile(docPath, []byte("document bytes"), 0600))

	f := &pipelineFixture{
		docPath:  docPath,
		ledger:   memory.NewLedger(),
		sink:     memory.NewSink(),
		fallback: memory.NewFallback(),
		analysis: &fakeAnalysis{reply: `{"title": "Chart", "key_insights": ["up"]}`},
		gen:      gen,
		conv:     &fakeConverter{text: "converted document text"},
	}

	generator := NewGenerator(f.analysis, f.gen, f.sink, rand.New(rand.NewSource(1)), GeneratorConfig{
		ReportName:       "Annual Market Report",
		Temperature:      0.8,
		RetryTemperature: 0.9,
		ContextChars:     8000,
	})
	generator.SetClock(func() time.Time {
		return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	})

	f.pipeline = NewPipeline(
		f.conv,
		NewExtractor(300),
		f.ledger,
		generator,
		NewRouter(f.sink, f.fallback),
		PipelineConfig{AssetDir: assetDir, WorkDir: t.TempDir(), Single: single},
	)
	return f
}

func TestPipeline_Run(t *testing.T) {
	gen := &fakeGeneration{replies: []string{
		"markets shifted towards renewables" + PostSeparator + "grid capacity lags demand",
		"shipping volumes tell another story" + PostSeparator + "ports report record congestion",
	}}
	f := newPipelineFixture(t, 2, gen, false)

	summary, err := f.pipeline.Run(context.Background(), f.docPath)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalFigures)
	assert.Equal(t, 2, summary.ProcessedFigures)
	assert.Equal(t, 0, summary.SkippedFigures)
	assert.Equal(t, 4, summary.CommittedPosts)
	assert.Equal(t, 0, summary.FallbackPosts)
	assert.NotEmpty(t, summary.DocumentID)

	assert.Len(t, f.sink.Records(), 4)
	assert.Empty(t, f.fallback.Records())

	processed, err := f.ledger.Processed(context.Background(), summary.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, processed)
}

func TestPipeline_Run_IdempotentRerun(t *testing.T) {
	gen := &fakeGeneration{replies: []string{
		"markets shifted towards renewables" + PostSeparator + "grid capacity lags demand",
		"shipping volumes tell another story" + PostSeparator + "ports report record congestion",
	}}
	f := newPipelineFixture(t, 2, gen, false)
	ctx := context.Background()

	_, err := f.pipeline.Run(ctx, f.docPath)
	require.NoError(t, err)

	summary, err := f.pipeline.Run(ctx, f.docPath)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalFigures)
	assert.Equal(t, 0, summary.ProcessedFigures)
	assert.Equal(t, 0, summary.CommittedPosts)

	// No new posts on the rerun.
	assert.Len(t, f.sink.Records(), 4)
}

func TestPipeline_Run_ResumesAroundProcessedFigure(t *testing.T) {
	gen := &fakeGeneration{replies: []string{
		"markets shifted towards renewables",
		"shipping volumes tell another story",
	}}
	f := newPipelineFixture(t, 3, gen, false)
	ctx := context.Background()

	docID, err := domainFingerprint(t, f.docPath)
	require.NoError(t, err)
	require.NoError(t, f.ledger.MarkProcessed(ctx, docID, 1))

	summary, err := f.pipeline.Run(ctx, f.docPath)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalFigures)
	assert.Equal(t, 2, summary.ProcessedFigures)

	processed, err := f.ledger.Processed(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, processed)
}

func TestPipeline_Run_SingleMode(t *testing.T) {
	gen := &fakeGeneration{replies: []string{"one post about energy markets"}}
	f := newPipelineFixture(t, 3, gen, true)

	summary, err := f.pipeline.Run(context.Background(), f.docPath)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalFigures)
	assert.Equal(t, 1, summary.ProcessedFigures)

	processed, err := f.ledger.Processed(context.Background(), summary.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, processed)
}

func TestPipeline_Run_FigureFailureSkipsAndContinues(t *testing.T) {
	gen := &fakeGeneration{replies: []string{"a post about markets"}}
	f := newPipelineFixture(t, 2, gen, false)
	f.analysis.err = assert.AnError

	summary, err := f.pipeline.Run(context.Background(), f.docPath)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.ProcessedFigures)
	assert.Equal(t, 2, summary.SkippedFigures)
	assert.Equal(t, 0, summary.CommittedPosts)

	// Skipped figures stay unmarked and are retried next run.
	f.analysis.err = nil
	summary, err = f.pipeline.Run(context.Background(), f.docPath)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ProcessedFigures)
	assert.Equal(t, 0, summary.SkippedFigures)
}

func TestPipeline_Run_ZeroPostsStillMarked(t *testing.T) {
	gen := &fakeGeneration{replies: []string{"   "}}
	f := newPipelineFixture(t, 1, gen, false)

	summary, err := f.pipeline.Run(context.Background(), f.docPath)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ProcessedFigures)
	assert.Equal(t, 0, summary.CommittedPosts)

	processed, err := f.ledger.Processed(context.Background(), summary.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, processed)
}

func TestPipeline_Run_UnconfiguredSinkRoutesToFallback(t *testing.T) {
	gen := &fakeGeneration{replies: []string{"a post about markets"}}
	f := newPipelineFixture(t, 1, gen, false)
	f.sink.Unconfigured = true

	summary, err := f.pipeline.Run(context.Background(), f.docPath)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ProcessedFigures)
	assert.Equal(t, 0, summary.CommittedPosts)
	assert.Equal(t, 1, summary.FallbackPosts)
	assert.Len(t, f.fallback.Records(), 1)
}

func TestPipeline_Run_FallbackFailureSkipsFigure(t *testing.T) {
	gen := &fakeGeneration{replies: []string{"a post about markets"}}
	f := newPipelineFixture(t, 1, gen, false)
	f.sink.Unconfigured = true
	f.fallback.AppendErr = assert.AnError

	summary, err := f.pipeline.Run(context.Background(), f.docPath)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SkippedFigures)
	processed, err := f.ledger.Processed(context.Background(), summary.DocumentID)
	require.NoError(t, err)
	assert.Empty(t, processed)
}

func TestPipeline_Run_NoFigures(t *testing.T) {
	gen := &fakeGeneration{replies: []string{"unused"}}
	f := newPipelineFixture(t, 0, gen, false)

	summary, err := f.pipeline.Run(context.Background(), f.docPath)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.TotalFigures)
	assert.Equal(t, 0, summary.ProcessedFigures)
	assert.Equal(t, 0, f.conv.calls)
}

func TestPipeline_Run_MissingDocument(t *testing.T) {
	gen := &fakeGeneration{replies: []string{"unused"}}
	f := newPipelineFixture(t, 1, gen, false)

	_, err := f.pipeline.Run(context.Background(), "/nonexistent/doc.pdf")
	assert.Error(t, err)
}

func TestPipeline_Run_ConversionCached(t *testing.T) {
	gen := &fakeGeneration{replies: []string{
		"markets shifted towards renewables",
		"shipping volumes tell another story",
	}}
	f := newPipelineFixture(t, 2, gen, true)
	ctx := context.Background()

	_, err := f.pipeline.Run(ctx, f.docPath)
	require.NoError(t, err)
	_, err = f.pipeline.Run(ctx, f.docPath)
	require.NoError(t, err)

	// Second run reads the cached text instead of reconverting.
	assert.Equal(t, 1, f.conv.calls)
}

func TestPipeline_Run_WindowGrowsWithinRun(t *testing.T) {
	duplicate := "identical candidate text repeated verbatim for both figures"
	gen := &fakeGeneration{replies: []string{
		duplicate,
		duplicate,
		"a completely fresh angle written at the second attempt",
	}}
	f := newPipelineFixture(t, 2, gen, false)

	summary, err := f.pipeline.Run(context.Background(), f.docPath)
	require.NoError(t, err)

	// Figure 0 commits the duplicate; figure 1's identical candidate is
	// rejected against the freshly committed post and regenerated.
	assert.Equal(t, 2, summary.ProcessedFigures)
	assert.Equal(t, 2, summary.CommittedPosts)
	assert.Len(t, gen.calls, 3)

	records := f.sink.Records()
	require.Len(t, records, 2)
	assert.Equal(t, duplicate, records[0].Text)
	assert.Equal(t, "a completely fresh angle written at the second attempt", records[1].Text)
}

func TestPipeline_Status(t *testing.T) {
	gen := &fakeGeneration{replies: []string{"a post about markets"}}
	f := newPipelineFixture(t, 3, gen, true)
	ctx := context.Background()

	status, err := f.pipeline.Status(ctx, f.docPath)
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalFigures)
	assert.Equal(t, 0, status.ProcessedFigures)

	_, err = f.pipeline.Run(ctx, f.docPath)
	require.NoError(t, err)

	status, err = f.pipeline.Status(ctx, f.docPath)
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalFigures)
	assert.Equal(t, 1, status.ProcessedFigures)
}

func TestPipeline_Run_ConverterFailureIsFatal(t *testing.T) {
	gen := &fakeGeneration{replies: []string{"unused"}}
	f := newPipelineFixture(t, 1, gen, false)
	f.conv.err = assert.AnError

	_, err := f.pipeline.Run(context.Background(), f.docPath)
	assert.Error(t, err)
}
