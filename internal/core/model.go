package core

import (
	"time"
)

// UploadedFile is the image extracted from an inbound request
type UploadedFile struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// Prediction is a single label/score pair reported by the classifier
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ClassificationResult is the prediction list in the order the classifier
// returned it. It is not guaranteed to be sorted.
type ClassificationResult []Prediction

// AnalysisResponse is the payload returned to the caller of the gateway
type AnalysisResponse struct {
	Confidence      float64      `json:"confidence"`
	MalignancyScore float64      `json:"malignancyScore"`
	Analysis        string       `json:"analysis"`
	ProcessingTime  string       `json:"processingTime"`
	Predictions     []Prediction `json:"predictions"`

	// Fields below are for local frontends and are never serialised
	Label      string    `json:"-"`
	Malignant  bool      `json:"-"`
	ModelUsed  string    `json:"-"`
	AnalyzedAt time.Time `json:"-"`
}
