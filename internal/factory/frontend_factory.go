package factory

import (
	"io"

	"go.uber.org/zap"

	"github.com/mikey/image-analysis-gateway/internal/adapters/cli"
	"github.com/mikey/image-analysis-gateway/internal/adapters/httpapi"
	"github.com/mikey/image-analysis-gateway/internal/adapters/lambda"
	"github.com/mikey/image-analysis-gateway/internal/config"
	"github.com/mikey/image-analysis-gateway/internal/core"
	"github.com/mikey/image-analysis-gateway/internal/gateway"
	"github.com/mikey/image-analysis-gateway/internal/ports"
)

// FrontendFactory creates the transports that feed the gateway
type FrontendFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.AnalysisService
}

// NewFrontendFactory creates a new frontend factory
func NewFrontendFactory(cfg *config.Config, logger *zap.Logger, service *core.AnalysisService) *FrontendFactory {
	return &FrontendFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// CreateDispatcher creates the request dispatcher
func (f *FrontendFactory) CreateDispatcher() *gateway.Dispatcher {
	return gateway.NewDispatcher(f.service, f.logger)
}

// CreateHTTPServer creates the HTTP frontend
func (f *FrontendFactory) CreateHTTPServer() (ports.Frontend, error) {
	server := f.cfg.GetServer()
	upload := f.cfg.GetUpload()

	handlers := httpapi.NewHandlers(f.CreateDispatcher(), f.logger, upload.MaxFileBytes, upload.MaxRequestBytes)
	router := httpapi.NewRouter(handlers, f.logger, server.Path, server.LegacyPath)

	return httpapi.NewServer(router, f.logger,
		httpapi.WithAddress(server.ListenAddress),
		httpapi.WithTimeouts(server.ReadTimeout, server.WriteTimeout),
		httpapi.WithShutdownTimeout(server.ShutdownTimeout),
	), nil
}

// CreateLambdaHandler creates the API Gateway proxy handler
func (f *FrontendFactory) CreateLambdaHandler() *lambda.Handler {
	return lambda.NewHandler(f.CreateDispatcher(), f.logger)
}

// CreateCLI creates the command-line analyzer
func (f *FrontendFactory) CreateCLI(out io.Writer, verbose bool) *cli.Analyzer {
	return cli.NewAnalyzer(f.service, f.logger, out, verbose)
}
