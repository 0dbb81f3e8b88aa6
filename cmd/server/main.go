// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main is the entry point of the image labels server.
//
// The server answers upload URL requests over HTTP and labels uploaded images
// when Cloud Storage notifications arrive, either pulled from Pub/Sub or
// pushed to the events endpoint.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	"github.com/jaycherian/gcp-go-image-labels/internal/api"
	"github.com/jaycherian/gcp-go-image-labels/internal/telemetry"
)

func main() {
	telemetry.SetupLogging("info")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config, err := GetConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	telemetry.SetupLogging(config.Application.LogLevel)
	slog.Info("logging initialized", "level", config.Application.LogLevel)

	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("failed to setup OpenTelemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("failed to shutdown telemetry", "error", err)
		}
	}()

	if err := InitState(ctx, config); err != nil {
		slog.Error("failed to initialize state", "error", err)
		CloseState()
		os.Exit(1)
	}
	defer CloseState()
	slog.Info("initialized state")

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(config.Application.Name))
	r.Use(cors.Default())

	api.HealthRouter(r)
	apiV1 := r.Group("/api/v1")
	{
		api.UploadRouter(apiV1, state.uploadService)
		api.EventRouter(apiV1, state.labelWorkflow)
	}

	srv := &http.Server{
		Addr:    ":" + config.Application.Port,
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server ready", "port", config.Application.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case <-gCtx.Done():
		}
		slog.Info("shutting down server")
		// Stops the Pub/Sub listeners.
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
	}
	slog.Info("server exiting")
}
