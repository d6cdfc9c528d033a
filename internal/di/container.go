package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/image-analysis-gateway/internal/adapters/lambda"
	"github.com/mikey/image-analysis-gateway/internal/config"
	"github.com/mikey/image-analysis-gateway/internal/core"
	"github.com/mikey/image-analysis-gateway/internal/factory"
	"github.com/mikey/image-analysis-gateway/internal/logging"
	"github.com/mikey/image-analysis-gateway/internal/ports"
	"github.com/mikey/image-analysis-gateway/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
// for the server and Lambda entry points
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		cfg, err := config.New()
		if err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideCommon(container); err != nil {
		return nil, err
	}

	// Register HTTP frontend
	if err := container.Provide(func(f *factory.FrontendFactory) (ports.Frontend, error) {
		return f.CreateHTTPServer()
	}); err != nil {
		return nil, err
	}

	// Register Lambda handler
	if err := container.Provide(func(f *factory.FrontendFactory) *lambda.Handler {
		return f.CreateLambdaHandler()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideCommon registers everything between configuration and frontends
func provideCommon(container *dig.Container) error {
	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register factories
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewAnalysisFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewFrontendFactory); err != nil {
		return err
	}

	// Register classifier
	if err := container.Provide(func(f *factory.ClassifierFactory, logger *zap.Logger) (core.Classifier, error) {
		classifier, err := f.CreateClassifier()
		if err != nil {
			return nil, err
		}
		if !classifier.Configured() {
			logger.Warn("Classifier credentials are not configured; analysis requests will fail",
				zap.String("model", classifier.Model()))
		}
		return classifier, nil
	}); err != nil {
		return err
	}

	// Register analysis service
	return container.Provide(func(f *factory.AnalysisFactory, classifier core.Classifier) *core.AnalysisService {
		return f.CreateService(classifier)
	})
}
