// Command devserver serves the Lambda handler over HTTP for local use,
// typically with DYNAMODB_ENDPOINT pointing at DynamoDB Local.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jacentio/userstore/internal/app"
	"github.com/jacentio/userstore/internal/devserver"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer func() { _ = a.Logger.Sync() }()

	srv := &http.Server{
		Addr:              a.Config.HTTPAddr,
		Handler:           devserver.NewRouter(a.Dispatcher, a.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("Shutdown failed", zap.Error(err))
		}
	}()

	a.Logger.Info("Dev server listening",
		zap.String("addr", srv.Addr),
		zap.String("tableName", a.Config.TableName),
		zap.String("endpoint", a.Config.Endpoint),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.Logger.Fatal("Server failed", zap.Error(err))
	}
}
