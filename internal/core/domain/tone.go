package domain

import "math/rand"

// Tone is a stylistic policy label selected per generated candidate to
// force diversity between simultaneous drafts for the same figure.
type Tone string

// Corporate/analytical tone family.
const (
	ToneAnalyticalProfessional Tone = "analytical_professional"
	ToneDataStorytelling       Tone = "data_storytelling"
	ToneIndustryExpert         Tone = "industry_expert"
)

// Conversational tone family.
const (
	ToneConversationalInsights Tone = "conversational_insights"
	TonePracticalTakeaways     Tone = "practical_takeaways"
)

var (
	corporateTones = []Tone{
		ToneAnalyticalProfessional,
		ToneDataStorytelling,
		ToneIndustryExpert,
	}
	conversationalTones = []Tone{
		ToneConversationalInsights,
		TonePracticalTakeaways,
	}
)

// Selection policy constants. The 60/40 corporate/conversational split
// and the 30% report-name mention rate are editorial policy, not
// derived from data.
const (
	corporateWeight       = 0.6
	reportMentionChance   = 0.3
	DefaultCandidateCount = 2
)

// Guideline returns the prompt guideline text for a tone.
func (t Tone) Guideline() string {
	switch t {
	case ToneAnalyticalProfessional:
		return "Direct, data-focused, corporate but not stuffy"
	case ToneConversationalInsights:
		return "Approachable, question-based, discussion-starter"
	case ToneDataStorytelling:
		return "Narrative approach, \"what this means\" focus"
	case ToneIndustryExpert:
		return "Authoritative but accessible, implications-focused"
	case TonePracticalTakeaways:
		return "Actionable, \"here's what you can do\" approach"
	default:
		return ""
	}
}

// PickTones selects n tone variants using the weighted family split:
// 60% corporate family, 40% conversational family, uniform within the
// family. The random source is injected so tests can seed it.
func PickTones(rng *rand.Rand, n int) []Tone {
	tones := make([]Tone, 0, n)
	for i := 0; i < n; i++ {
		if rng.Float64() < corporateWeight {
			tones = append(tones, corporateTones[rng.Intn(len(corporateTones))])
		} else {
			tones = append(tones, conversationalTones[rng.Intn(len(conversationalTones))])
		}
	}
	return tones
}

// MentionReportName decides whether a draft should name the source
// report explicitly (30% of the time) or use generic references.
func MentionReportName(rng *rand.Rand) bool {
	return rng.Float64() < reportMentionChance
}
