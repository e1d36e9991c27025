package domain

import (
	"encoding/json"
	"strings"
)

// AnalysisResult is the outcome of analyzing one figure with the vision
// collaborator. Replies are structured JSON when the model cooperates;
// when parsing fails the raw reply text is carried instead, since free
// text is still usable analysis input downstream.
type AnalysisResult struct {
	Title       string     `json:"title"`
	KeyInsights stringList `json:"key_insights"`
	DataPoints  stringList `json:"data_points"`

	// Raw holds the unparsed reply when the structured parse failed.
	// Empty for well-formed replies.
	Raw string `json:"-"`
}

// Structured reports whether the result came from a well-formed reply.
func (a AnalysisResult) Structured() bool {
	return a.Raw == ""
}

// PlainDescription flattens the result to plain text for storage:
// the key insights joined by newlines, or the raw reply when the
// structured parse failed.
func (a AnalysisResult) PlainDescription() string {
	if !a.Structured() {
		return a.Raw
	}
	return strings.Join(a.KeyInsights, "\n")
}

// JSON serializes the result for embedding into prompts and records.
func (a AnalysisResult) JSON() string {
	if !a.Structured() {
		b, _ := json.Marshal(map[string]string{
			"title":        a.Title,
			"key_insights": a.Raw,
		})
		return string(b)
	}
	b, _ := json.MarshalIndent(a, "", "  ")
	return string(b)
}

// ParseAnalysis tolerantly parses a vision reply. It accepts bare JSON
// objects and JSON wrapped in markdown code fences. On any parse
// failure it degrades to a minimal result carrying the reply verbatim
// rather than failing the figure.
func ParseAnalysis(reply string) AnalysisResult {
	payload := StripCodeFence(reply)

	var result AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return AnalysisResult{Title: "Chart Analysis", Raw: reply}
	}
	return result
}

// StripCodeFence extracts the payload from a markdown ```json code
// fence if present, otherwise returns the trimmed input. Defensive
// string slicing for collaborator replies is isolated here.
func StripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	for _, fence := range []string{"```json", "```"} {
		if !strings.HasPrefix(trimmed, fence) {
			continue
		}
		body := trimmed[len(fence):]
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}
	return trimmed
}

// stringList unmarshals JSON values that may be a string, a list of
// strings, or a list of arbitrary values, normalising all of them to a
// string slice. Vision replies are not reliable about shapes.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = stringList{single}
		return nil
	}

	var many []json.RawMessage
	if err := json.Unmarshal(data, &many); err != nil {
		// Unknown shape: stringify the raw value rather than failing.
		*l = stringList{string(data)}
		return nil
	}

	out := make(stringList, 0, len(many))
	for _, raw := range many {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			out = append(out, s)
			continue
		}
		out = append(out, string(raw))
	}
	*l = out
	return nil
}

func (l stringList) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(l))
}
