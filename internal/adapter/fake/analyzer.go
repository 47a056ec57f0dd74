package fake

import (
	"context"
	"sync"

	"vivarium/internal/observer"
)

var _ observer.Analyzer = (*Analyzer)(nil)

// Analyzer returns a canned vision analysis.
type Analyzer struct {
	CallRecorder
	mu       sync.Mutex
	analysis string
	model    string

	AnalyzeImageErr func(ctx context.Context, image []byte, prompt string) error
}

// NewAnalyzer creates an Analyzer with a minimal well-formed analysis.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		analysis: "ACTIVITY: idle desktop\nWINDOWS: terminal\nTEXT: none\nERRORS: none",
		model:    "fake-vision",
	}
}

func (a *Analyzer) AnalyzeImage(ctx context.Context, image []byte, prompt string) (string, error) {
	a.record("AnalyzeImage", prompt)
	if a.AnalyzeImageErr != nil {
		if err := a.AnalyzeImageErr(ctx, image, prompt); err != nil {
			return "", err
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.analysis, nil
}

func (a *Analyzer) Model() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model
}

// SetAnalysis sets the text returned by AnalyzeImage.
func (a *Analyzer) SetAnalysis(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.analysis = text
}
