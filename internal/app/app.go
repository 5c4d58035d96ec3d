// Package app wires configuration, logging and the DynamoDB client into a
// ready-to-serve dispatcher. Both binaries build through it.
package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/jacentio/userstore/dispatch"
	"github.com/jacentio/userstore/internal/config"
	"github.com/jacentio/userstore/internal/logging"
	"github.com/jacentio/userstore/store"
	"github.com/jacentio/userstore/stream"
	"github.com/jacentio/userstore/user"
)

// App holds the long-lived dependencies of a process.
type App struct {
	Config     config.Config
	Logger     *zap.Logger
	Dispatcher *dispatch.Dispatcher
}

// New loads configuration from the environment and builds the App.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	client, err := NewDynamoClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:     cfg,
		Logger:     logger,
		Dispatcher: NewDispatcher(client, cfg, logger),
	}, nil
}

// NewDynamoClient creates a DynamoDB client for cfg.Region, honouring the
// optional endpoint override.
func NewDynamoClient(ctx context.Context, cfg config.Config) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// NewDispatcher wires store, service and stream handler over client.
func NewDispatcher(client store.API, cfg config.Config, logger *zap.Logger) *dispatch.Dispatcher {
	st := store.New(client, store.Config{TableName: cfg.TableName})
	svc := user.NewService(st, logger.With(zap.String("tableName", st.TableName())))
	streams := stream.NewHandler(user.KeyAttribute, logger)
	return dispatch.New(svc, streams, logger)
}
