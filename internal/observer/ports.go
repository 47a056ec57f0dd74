package observer

import "context"

// Snapshotter captures one visual snapshot of the sandbox and returns
// the stored artifact path alongside the image bytes.
//
// Production: *ScreenCapture. Testing: fake.
type Snapshotter interface {
	Snapshot(ctx context.Context) (path string, image []byte, err error)
}

// Analyzer turns an image and a prompt into descriptive text.
//
// Production: *vision.Client. Testing: fake.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, image []byte, prompt string) (string, error)
	Model() string
}
