package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultClassifierTimeout bounds a single classifier call
const DefaultClassifierTimeout = 30 * time.Second

// AnalysisService is the core service for image analysis
type AnalysisService struct {
	classifier Classifier
	validator  *Validator
	logger     *zap.Logger
	timeout    time.Duration
	now        func() time.Time
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	classifier Classifier,
	validator *Validator,
	logger *zap.Logger,
	timeout time.Duration,
) *AnalysisService {
	if timeout <= 0 {
		timeout = DefaultClassifierTimeout
	}
	return &AnalysisService{
		classifier: classifier,
		validator:  validator,
		logger:     logger,
		timeout:    timeout,
		now:        time.Now,
	}
}

// Configured reports whether the classifier can be called
func (s *AnalysisService) Configured() bool {
	return s.classifier.Configured()
}

// MaxFileSize returns the upload limit enforced by the validator
func (s *AnalysisService) MaxFileSize() int64 {
	return s.validator.MaxFileSize()
}

// Analyze validates the file, classifies it and interprets the result
func (s *AnalysisService) Analyze(ctx context.Context, file *UploadedFile) (*AnalysisResponse, error) {
	if err := s.validator.Validate(file); err != nil {
		s.logger.Info("Rejected upload",
			zap.String("kind", KindOf(err).String()),
			zap.Error(err))
		return nil, err
	}

	start := s.now()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.classifier.Classify(callCtx, file)
	if err != nil {
		return nil, fmt.Errorf("classify image with %s: %w", s.classifier.Model(), err)
	}

	response, err := Interpret(result)
	if err != nil {
		return nil, err
	}

	elapsed := s.now().Sub(start)
	response.ProcessingTime = fmt.Sprintf("%.1f", elapsed.Seconds())
	response.ModelUsed = s.classifier.Model()
	response.AnalyzedAt = s.now()

	s.logger.Debug("Image analysed",
		zap.String("model", response.ModelUsed),
		zap.String("label", response.Label),
		zap.Float64("confidence", response.Confidence),
		zap.Bool("malignant", response.Malignant),
		zap.Duration("duration", elapsed))

	return response, nil
}
