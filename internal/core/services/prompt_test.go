package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperpost-cli/internal/core/domain"
)

func basePromptInput() promptInput {
	return promptInput{
		analysis: domain.AnalysisResult{
			Title:       "Revenue by Region",
			KeyInsights: []string{"EMEA leads"},
		},
		tones: []domain.Tone{
			domain.ToneAnalyticalProfessional,
			domain.TonePracticalTakeaways,
		},
		reportName: "Annual Market Report",
		now:        time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestBuildPrompt_TonesAndAnalysis(t *testing.T) {
	prompt := buildPrompt(basePromptInput())

	assert.Contains(t, prompt, "generate 2 DISTINCTLY DIFFERENT")
	assert.Contains(t, prompt, "Post 1: analytical_professional")
	assert.Contains(t, prompt, "Post 2: practical_takeaways")
	assert.Contains(t, prompt, "Revenue by Region")
	assert.Contains(t, prompt, "August 2026")
	assert.Contains(t, prompt, PostSeparator)
}

func TestBuildPrompt_ReportMention(t *testing.T) {
	in := basePromptInput()
	in.mentionReport = true
	prompt := buildPrompt(in)
	assert.Contains(t, prompt, `"Annual Market Report"`)

	in.mentionReport = false
	prompt = buildPrompt(in)
	assert.NotContains(t, prompt, "Annual Market Report")
	assert.Contains(t, prompt, "Do NOT mention the specific report name")
}

func TestBuildPrompt_DocContext(t *testing.T) {
	in := basePromptInput()
	prompt := buildPrompt(in)
	assert.NotContains(t, prompt, "FULL WHITEPAPER CONTEXT")

	in.docContext = "the whitepaper body"
	prompt = buildPrompt(in)
	assert.Contains(t, prompt, "FULL WHITEPAPER CONTEXT")
	assert.Contains(t, prompt, "the whitepaper body")
}

func TestBuildPrompt_OpeningAvoidance(t *testing.T) {
	in := basePromptInput()
	prompt := buildPrompt(in)
	assert.NotContains(t, prompt, "recent post beginnings")

	in.openings = []string{"Our research shows that", "New data reveals"}
	prompt = buildPrompt(in)
	assert.Contains(t, prompt, "recent post beginnings")
	assert.Contains(t, prompt, "Our research shows that")
	assert.Contains(t, prompt, "New data reveals")
}

func TestSplitPosts(t *testing.T) {
	reply := "  first post  \n" + PostSeparator + "\nsecond—post\n" + PostSeparator + "\n   \n"

	posts := splitPosts(reply)
	require.Len(t, posts, 2)
	assert.Equal(t, "first post", posts[0])
	assert.Equal(t, "second-post", posts[1])
}

func TestSplitPosts_NoSeparator(t *testing.T) {
	posts := splitPosts("just one post")
	require.Len(t, posts, 1)
	assert.Equal(t, "just one post", posts[0])
}

func TestSplitPosts_EmptyReply(t *testing.T) {
	assert.Empty(t, splitPosts(""))
	assert.Empty(t, splitPosts("   \n  "))
}

func TestTruncateContext(t *testing.T) {
	assert.Equal(t, "", truncateContext("text", 0))
	assert.Equal(t, "", truncateContext("", 100))
	assert.Equal(t, "short", truncateContext("short", 100))

	long := strings.Repeat("a", 50)
	truncated := truncateContext(long, 10)
	assert.Equal(t, long[:10]+"...", truncated)
}
