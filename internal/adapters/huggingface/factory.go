package huggingface

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mikey/image-analysis-gateway/internal/config"
	"github.com/mikey/image-analysis-gateway/internal/core"
	"github.com/mikey/image-analysis-gateway/internal/utils"
)

// Factory creates new instances of HuggingFaceClient
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for HuggingFaceClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClient creates a new HuggingFaceClient. The token is looked up
// through the configuration on every call so that rotating HF_TOKEN needs no
// restart.
func (f *Factory) CreateClient() (core.Classifier, error) {
	hfCfg := f.cfg.GetHuggingFace()

	return NewHuggingFaceClient(
		&http.Client{},
		hfCfg.BaseURL,
		hfCfg.Model,
		f.cfg.HuggingFaceToken,
		f.logger,
		f.textProcessor,
	), nil
}
