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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jaycherian/gcp-go-image-labels/internal/cloud"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/commands"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/services"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/workflow"
)

// StateManager holds the shared components of the server.
type StateManager struct {
	config        *cloud.Config
	cloud         *cloud.ServiceClients
	closers       []func() error
	labelWorkflow *workflow.ImageLabelWorkflow
	uploadService *services.UploadService
}

var state = &StateManager{}

// SetupOS points the config loader at ./configs with the "local" runtime,
// unless the deployment already chose otherwise.
func SetupOS() error {
	if _, ok := os.LookupEnv(cloud.EnvConfigFilePrefix); !ok {
		if err := os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if _, ok := os.LookupEnv(cloud.EnvConfigRuntime); !ok {
		return os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return nil
}

// GetConfig loads TOML files and environment overrides once.
func GetConfig() (*cloud.Config, error) {
	if state.config != nil {
		return state.config, nil
	}
	if err := SetupOS(); err != nil {
		return nil, fmt.Errorf("failed to setup environment: %w", err)
	}
	config := cloud.NewConfig()
	if err := cloud.LoadConfig(config); err != nil {
		return nil, err
	}
	if err := cloud.ApplyEnvOverrides(config); err != nil {
		return nil, err
	}
	state.config = config
	return config, nil
}

// InitState creates the cloud clients and both handlers, then starts the
// Pub/Sub listeners.
func InitState(ctx context.Context, config *cloud.Config) error {
	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return err
	}
	state.cloud = cloudClients

	store, err := newLabelStore(ctx, config, cloudClients)
	if err != nil {
		return err
	}

	agent := cloudClients.AgentModels[config.LabelDetection.AgentModel]
	detector, err := cloud.NewGeminiLabelDetector(agent, config.PromptTemplates.LabelsPrompt)
	if err != nil {
		return fmt.Errorf("agent model %q: %w", config.LabelDetection.AgentModel, err)
	}

	state.labelWorkflow = workflow.NewImageLabelWorkflow(
		detector,
		store,
		cloud.NewGCSObjectReader(cloudClients.StorageClient),
		config.LabelDetection.MaxLabels)

	state.uploadService = &services.UploadService{
		Signer: cloud.NewPostPolicySigner(
			cloudClients.StorageClient,
			cloudClients.IAMClient,
			config.Application.SignerServiceAccountEmail,
			config.Upload.SignerPrivateKey,
			config.Upload.Location),
		Bucket:     config.Storage.UploadBucket,
		DefaultTTL: config.Upload.DefaultTTLSeconds,
	}

	SetupListeners(ctx, cloudClients, state.labelWorkflow)
	return nil
}

// CloseState releases every client created by InitState.
func CloseState() {
	for _, closer := range state.closers {
		if err := closer(); err != nil {
			slog.Warn("failed to close resource", "error", err)
		}
	}
	if state.cloud != nil {
		state.cloud.Close()
	}
}

func newLabelStore(ctx context.Context, config *cloud.Config, clients *cloud.ServiceClients) (commands.LabelStore, error) {
	switch config.Table.Backend {
	case cloud.TableBackendBigQuery:
		return cloud.NewBigQueryLabelStore(clients.BiqQueryClient, config.Table.Dataset, config.Table.Name), nil
	case cloud.TableBackendPostgres:
		store, err := cloud.NewPostgresLabelStore(ctx, config.Table.PostgresDSN, config.Table.Name)
		if err != nil {
			return nil, err
		}
		state.closers = append(state.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown table backend %q", config.Table.Backend)
	}
}
