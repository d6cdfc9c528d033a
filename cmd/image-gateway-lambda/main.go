package main

import (
	"fmt"
	"os"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/mikey/image-analysis-gateway/internal/adapters/lambda"
	"github.com/mikey/image-analysis-gateway/internal/di"
)

func main() {
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(func(logger *zap.Logger, handler *lambda.Handler) {
		logger.Info("Lambda handler starting")
		// Start blocks for the lifetime of the execution environment
		awslambda.Start(handler.Handle)
	}); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}
