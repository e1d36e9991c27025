package driven

import "context"

// AnalysisService analyzes a figure image with the external vision
// collaborator. The reply is returned verbatim; the tolerant parse
// into a structured result lives in the domain package, so replies
// wrapped in incidental formatting never fail here.
type AnalysisService interface {
	// Analyze submits a PNG image and returns the collaborator's reply.
	Analyze(ctx context.Context, image []byte) (string, error)
}
