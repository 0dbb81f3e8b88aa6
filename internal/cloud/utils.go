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

// Package cloud provides components for interacting with Google Cloud services.
// This file contains the configuration loaders and the helper used to call the
// generative model.
//
// Functions:
//   - LoadConfig: Reads a base TOML file and then an environment specific
//     override (e.g. .env.local.toml, .env.test.toml).
//   - ApplyEnvOverrides: Overlays the process environment on a loaded Config.
//   - GenerateResponse: Calls the model once and records token usage.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/metric"

	"github.com/BurntSushi/toml"
	"google.golang.org/genai"
)

// Cloud Constants define key strings used for configuration loading.
const (
	ConfigFileBaseName  = ".env"              // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"             // The file extension for configuration files.
	ConfigSeparator     = "."                 // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "GCP_RUNTIME"       // The environment variable for specifying the runtime context (e.g., "local", "test", "prod").
)

// Environment variables read by ApplyEnvOverrides.
const (
	EnvProject        = "GOOGLE_CLOUD_PROJECT"
	EnvLocation       = "GOOGLE_CLOUD_LOCATION"
	EnvBucketName     = "BUCKET_NAME"
	EnvTableName      = "TABLE_NAME"
	EnvDefaultTTL     = "DEFAULT_TTL"
	EnvUploadLocation = "UPLOAD_LOCATION"
	EnvPort           = "PORT"
)

// fileExists checks if a file or directory exists at the given path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig provides a hierarchical configuration loading mechanism. It first loads a
// base configuration file and then overwrites its values with an environment-specific
// configuration file. Missing files are skipped.
//
// Inputs:
//   - baseConfig: A pointer to the struct to populate.
//
// Outputs:
//   - error: An error if either file exists but cannot be decoded.
func LoadConfig(baseConfig interface{}) error {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension

	for _, fileName := range []string{baseConfigFileName, envConfigFileName} {
		if !fileExists(fileName) {
			slog.Debug("configuration file not found, skipping", "file", fileName)
			continue
		}
		if _, err := toml.DecodeFile(fileName, baseConfig); err != nil {
			return fmt.Errorf("failed to decode configuration file %s: %w", fileName, err)
		}
		slog.Debug("loaded configuration file", "file", fileName)
	}
	return nil
}

// ApplyEnvOverrides copies the deployment's environment variables over the
// values loaded from TOML. The two regions are kept apart on purpose: the
// label handler uses GOOGLE_CLOUD_LOCATION and the upload handler
// UPLOAD_LOCATION.
//
// Outputs:
//   - error: An error if DEFAULT_TTL is set but is not an integer.
func ApplyEnvOverrides(config *Config) error {
	if v, ok := os.LookupEnv(EnvProject); ok && v != "" {
		config.Application.GoogleProjectId = v
	}
	if v, ok := os.LookupEnv(EnvLocation); ok && v != "" {
		config.Application.GoogleLocation = v
	}
	if v, ok := os.LookupEnv(EnvBucketName); ok && v != "" {
		config.Storage.UploadBucket = v
	}
	if v, ok := os.LookupEnv(EnvTableName); ok && v != "" {
		config.Table.Name = v
	}
	if v, ok := os.LookupEnv(EnvUploadLocation); ok {
		config.Upload.Location = v
	}
	if v, ok := os.LookupEnv(EnvPort); ok && v != "" {
		config.Application.Port = v
	}
	if v, ok := os.LookupEnv(EnvDefaultTTL); ok && v != "" {
		ttl, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvDefaultTTL, v, err)
		}
		config.Upload.DefaultTTLSeconds = ttl
	}
	return nil
}

// GenerateResponse sends content to the model once and concatenates the text
// of every candidate. Failures are returned as they are; callers decide
// whether to retry.
//
// Inputs:
//   - ctx: The context for the request.
//   - inputTokenCounter, outputTokenCounter: OpenTelemetry counters for token usage.
//   - model: The rate-limited model to call.
//   - content: The prompt contents.
//
// Outputs:
//   - string: The response text with any Markdown JSON fence removed.
//   - error: The model error, if any.
func GenerateResponse(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	model *QuotaAwareGenerativeAIModel,
	content []*genai.Content) (value string, err error) {
	resp, err := model.GenerateContent(ctx, content)
	if err != nil {
		return "", err
	}
	if resp.UsageMetadata != nil {
		inputTokenCounter.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
		outputTokenCounter.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	value = strings.TrimSpace(sb.String())
	value = strings.TrimPrefix(value, "```json")
	value = strings.TrimSuffix(value, "```")
	return strings.TrimSpace(value), nil
}

// NewFileData references a Cloud Storage object as model input.
func NewFileData(bucket string, name string, mimeType string) *genai.FileData {
	return &genai.FileData{FileURI: fmt.Sprintf("gs://%s/%s", bucket, name), MIMEType: mimeType}
}
