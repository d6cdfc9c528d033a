package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/image-analysis-gateway/internal/allowlist"
	"github.com/mikey/image-analysis-gateway/internal/config"
	"github.com/mikey/image-analysis-gateway/internal/core"
)

// AnalysisFactory creates the analysis service from configuration
type AnalysisFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewAnalysisFactory creates a new analysis factory
func NewAnalysisFactory(cfg *config.Config, logger *zap.Logger) *AnalysisFactory {
	return &AnalysisFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateValidator creates the upload validator
func (f *AnalysisFactory) CreateValidator() *core.Validator {
	upload := f.cfg.GetUpload()
	types := upload.AllowedTypes
	if len(types) == 0 {
		types = allowlist.DefaultImageTypes
	}
	return core.NewValidator(allowlist.NewChecker(types, f.logger), upload.MaxFileBytes)
}

// CreateService creates the analysis service around classifier
func (f *AnalysisFactory) CreateService(classifier core.Classifier) *core.AnalysisService {
	return core.NewAnalysisService(
		classifier,
		f.CreateValidator(),
		f.logger,
		f.cfg.GetClassifier().Timeout,
	)
}
