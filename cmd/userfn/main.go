// Command userfn is the Lambda function serving user operations and the
// table's change stream.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/jacentio/userstore/internal/app"
)

func main() {
	a, err := app.New(context.Background())
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer func() { _ = a.Logger.Sync() }()

	a.Logger.Info("Lambda function initialized",
		zap.String("region", a.Config.Region),
		zap.String("tableName", a.Config.TableName),
	)
	lambda.Start(a.Dispatcher)
}
