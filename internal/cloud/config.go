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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files and then overridden from the process environment.
//
// Structs:
//   - Storage: The bucket clients upload into.
//   - Upload: Settings of the upload URL handler (TTL, region, signer key).
//   - LabelDetection: Settings of the label handler's detector.
//   - Table: Where label records are written.
//   - VertexAiLLMModel: Configuration for a Vertex AI model.
//   - TopicSubscription: Configuration for a single Pub/Sub subscription.
//   - Config: The top-level struct that aggregates all other configuration structs.
package cloud

import "google.golang.org/genai"

// DefaultSafetySettings disables content blocking. Label detection has to
// describe whatever was uploaded.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// Table backends.
const (
	TableBackendBigQuery = "bigquery"
	TableBackendPostgres = "postgres"
)

// Defaults applied by NewConfig.
const (
	DefaultTTLSeconds   = 300
	DefaultMaxLabels    = 5
	DefaultPort         = "8080"
	DefaultUploadTopic  = "ImageUploadTopic"
	DefaultLabelModel   = "label-flash"
	DefaultLabelsPrompt = `List the {{.MAX_LABELS}} most prominent objects, scenes or concepts visible in the attached image.
Give each label a short, capitalised English name and a confidence between 0 and 100.
Order labels by descending confidence. Answer only with JSON like this example: {{.EXAMPLE_JSON}}`
)

// Storage holds the bucket names.
type Storage struct {
	UploadBucket string `toml:"upload_bucket"` // The bucket clients upload images into.
}

// Upload configures the upload URL handler.
type Upload struct {
	DefaultTTLSeconds int    `toml:"default_ttl_seconds"` // TTL used when the request has none.
	Location          string `toml:"location"`            // Optional region; selects the regional POST endpoint.
	SignerPrivateKey  string `toml:"signer_private_key"`  // Optional PEM key. Without it, IAM SignBlob is used.
}

// LabelDetection configures the label handler's detector.
type LabelDetection struct {
	AgentModel string `toml:"agent_model"` // Key into Config.AgentModels.
	MaxLabels  int    `toml:"max_labels"`  // Upper bound on labels stored per image.
}

// Table configures where label records go.
type Table struct {
	Backend     string `toml:"backend"`      // "bigquery" or "postgres".
	Dataset     string `toml:"dataset"`      // BigQuery dataset.
	Name        string `toml:"name"`         // Table name for either backend.
	PostgresDSN string `toml:"postgres_dsn"` // lib/pq connection string.
}

// PromptTemplates holds the templates for prompts sent to the model.
type PromptTemplates struct {
	LabelsPrompt string `toml:"labels"`
}

// VertexAiLLMModel represents the configuration for a Vertex AI model.
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`
	SystemInstructions string  `toml:"system_instructions"`
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	OutputFormat       string  `toml:"output_format"`
	RateLimit          int     `toml:"rate_limit"` // Requests per second.
}

// TopicSubscription represents the configuration for a Pub/Sub subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`
	DeadLetterTopic  string `toml:"dead_letter_topic"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// Config is the root of the application configuration.
type Config struct {
	Application struct {
		Name                      string `toml:"name"`
		GoogleProjectId           string `toml:"google_project_id"`
		GoogleLocation            string `toml:"location"` // Region of the label handler's Vertex AI calls.
		Port                      string `toml:"port"`
		LogLevel                  string `toml:"log_level"`
		SignerServiceAccountEmail string `toml:"signer_service_account_email"`
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`
	Upload             Upload                       `toml:"upload"`
	LabelDetection     LabelDetection               `toml:"label_detection"`
	Table              Table                        `toml:"table"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"` // Keyed by logical name, e.g. "ImageUploadTopic".
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`        // Keyed by logical name, e.g. "label-flash".
}

// NewConfig returns a Config with its maps initialised and defaults set, so
// that partial TOML files only need to name what they change.
func NewConfig() *Config {
	c := &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]VertexAiLLMModel),
	}
	c.Application.Name = "image-labels"
	c.Application.Port = DefaultPort
	c.Application.LogLevel = "info"
	c.Upload.DefaultTTLSeconds = DefaultTTLSeconds
	c.LabelDetection.AgentModel = DefaultLabelModel
	c.LabelDetection.MaxLabels = DefaultMaxLabels
	c.Table.Backend = TableBackendBigQuery
	c.PromptTemplates.LabelsPrompt = DefaultLabelsPrompt
	return c
}
