package core

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mocks/mock_classifier.go -package=mocks

// Classifier defines the interface for remote image classification services
type Classifier interface {
	// Classify sends the image to the remote service and returns its predictions
	Classify(ctx context.Context, file *UploadedFile) (ClassificationResult, error)

	// Model returns the identifier of the remote model
	Model() string

	// Configured reports whether the credentials needed to call the service are present
	Configured() bool
}
