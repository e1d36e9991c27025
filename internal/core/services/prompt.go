package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/paperpost-cli/internal/core/domain"
)

// PostSeparator is the literal marker the generation collaborator is
// instructed to place between post segments.
const PostSeparator = "---POST SEPARATOR---"

// draftSystemPrompt frames the model as the publishing organization.
const draftSystemPrompt = "You are a senior business professional writing social media posts " +
	"for your organization's research publication. Use 'our research', 'we found', etc. " +
	"Only reference data that actually appears in the chart analysis provided - never invent " +
	"statistics. Write authentically, avoiding AI-sounding language and marketing speak."

// retrySystemPrompt replaces the framing on the regeneration pass.
const retrySystemPrompt = "You are a senior business professional writing social media posts " +
	"for your organization's research publication. Use 'our research', 'we found', etc. " +
	"Only reference data that actually appears in the chart analysis provided - never invent " +
	"statistics. Focus on being distinctly different from existing content while maintaining " +
	"authenticity."

// retryInstruction is appended to the prompt on the regeneration pass.
const retryInstruction = "\n\nIMPORTANT: The previous attempt was too similar to existing " +
	"content. Be extremely creative and use completely different approaches, structures, " +
	"and vocabulary."

// promptInput carries everything the drafting prompt depends on.
type promptInput struct {
	analysis      domain.AnalysisResult
	docContext    string
	tones         []domain.Tone
	mentionReport bool
	reportName    string
	openings      []string
	now           time.Time
}

// buildPrompt assembles the drafting prompt. The exact wording is
// generation policy, kept in one place so model and prompt changes
// never touch the pipeline.
func buildPrompt(in promptInput) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Based on this specific chart analysis, generate %d DISTINCTLY DIFFERENT "+
		"social media posts with these specific tones:\n", len(in.tones))
	for i, tone := range in.tones {
		fmt.Fprintf(&sb, "Post %d: %s\n", i+1, tone)
	}

	fmt.Fprintf(&sb, "\nSPECIFIC CHART ANALYSIS (focus your posts on this): %s\n", in.analysis.JSON())

	if in.docContext != "" {
		fmt.Fprintf(&sb, "\nFULL WHITEPAPER CONTEXT (for broader understanding):\n%s\n", in.docContext)
	}

	if in.mentionReport {
		fmt.Fprintf(&sb, "\nREPORT REFERENCE: Mention the report name %q naturally in the post "+
			"(not necessarily at the beginning).\n", in.reportName)
	} else {
		sb.WriteString("\nREPORT REFERENCE: Do NOT mention the specific report name. " +
			"Use generic references like \"our research\", \"our latest study\", \"new data shows\", etc.\n")
	}

	fmt.Fprintf(&sb, "\nContext: It is currently %s. Do not reference future dates.\n",
		in.now.Format("January 2006"))

	sb.WriteString("\nTONE GUIDELINES:\n")
	for _, tone := range []domain.Tone{
		domain.ToneAnalyticalProfessional,
		domain.ToneConversationalInsights,
		domain.ToneDataStorytelling,
		domain.ToneIndustryExpert,
		domain.TonePracticalTakeaways,
	} {
		fmt.Fprintf(&sb, "- %s: %s\n", tone, tone.Guideline())
	}

	sb.WriteString(`
STRICT REQUIREMENTS:
- NO emojis whatsoever
- Break up text with line breaks for readability
- Maximum 3 hashtags, make them specific and relevant
- Never use em dashes, use other punctuation
- Write like a real person, not marketing copy
- Use concrete, specific numbers and facts from the data
- Each post must take a completely different angle on the same data
- Keep under 280 words each

VOICE AND PERSPECTIVE:
- Use first-person plural: "our research", "we found", "our data shows"
- Speak as the organization that published the research
- Use only data and insights that are actually present in the chart analysis provided

DATA ACCURACY:
- ONLY reference statistics, percentages, and findings that appear in the chart analysis provided
- Do not invent or assume data points that aren't clearly shown in the analysis
- If specific numbers aren't clear from the chart, describe trends and patterns instead

OPENING LINE VARIETY (use different approaches):
- Start with a specific statistic
- Begin with an observation or trend
- Open with a surprising finding
- Lead with a practical insight
- Start with industry context
`)

	if len(in.openings) > 0 {
		sb.WriteString("\nCRITICAL: Avoid starting posts with similar language to these recent post beginnings:\n")
		for _, opening := range in.openings {
			fmt.Fprintf(&sb, "- %q\n", opening)
		}
		sb.WriteString("\nUse completely different opening approaches that vary in tone and structure.\n")
	}

	fmt.Fprintf(&sb, "\nReturn ONLY the post content as plain text, separated by %q\n", PostSeparator)
	sb.WriteString("Do NOT use JSON format or markdown formatting.\n")

	return sb.String()
}

// splitPosts breaks a generation reply on the separator marker and
// cleans each non-empty segment.
func splitPosts(reply string) []string {
	var posts []string
	for _, segment := range strings.Split(reply, PostSeparator) {
		cleaned := domain.CleanPostText(segment)
		if cleaned != "" {
			posts = append(posts, cleaned)
		}
	}
	return posts
}

// truncateContext bounds the document context embedded in prompts.
func truncateContext(text string, limit int) string {
	if limit <= 0 || text == "" {
		return ""
	}
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
