package factory

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/image-analysis-gateway/internal/adapters/bedrock"
	"github.com/mikey/image-analysis-gateway/internal/adapters/gemini"
	"github.com/mikey/image-analysis-gateway/internal/adapters/huggingface"
	"github.com/mikey/image-analysis-gateway/internal/adapters/openai"
	"github.com/mikey/image-analysis-gateway/internal/config"
	"github.com/mikey/image-analysis-gateway/internal/core"
	"github.com/mikey/image-analysis-gateway/internal/utils"
)

// ClassifierFactory creates classifiers
type ClassifierFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClassifierFactory creates a new classifier factory
func NewClassifierFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *ClassifierFactory {
	return &ClassifierFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a new classifier based on the configuration
func (f *ClassifierFactory) CreateClassifier() (core.Classifier, error) {
	provider := strings.ToLower(f.cfg.GetClassifier().Provider)

	f.logger.Info("Creating classifier", zap.String("provider", provider))

	switch provider {
	case config.ProviderHuggingFace, "":
		return huggingface.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
	case config.ProviderOpenAI:
		return openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
	case config.ProviderGemini:
		return gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
	case config.ProviderBedrock:
		return bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
	default:
		return nil, fmt.Errorf("unsupported classifier provider: %s", provider)
	}
}
