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
// This file implements label detection on top of Gemini: the image is passed
// by its gs:// URI together with a prompt, and the model answers with JSON
// constrained by a response schema.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-image-labels/internal/core/model"
)

const labelMeterName = "github.com/jaycherian/gcp-go-image-labels/cloud"

// LabelResponseSchema constrains the model output to model.LabelDetection.
var LabelResponseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"labels": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":       {Type: genai.TypeString},
					"confidence": {Type: genai.TypeNumber},
				},
				Required: []string{"name"},
			},
		},
	},
	Required: []string{"labels"},
}

// GeminiLabelDetector asks a Gemini model for the labels of an image.
type GeminiLabelDetector struct {
	agent              *QuotaAwareGenerativeAIModel
	template           *template.Template
	exampleJSON        string
	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
}

// NewGeminiLabelDetector builds a detector from a configured agent model and
// the labels prompt template. The agent's limiter is shared; its generation
// settings are copied and forced to JSON output with LabelResponseSchema.
//
// Inputs:
//   - agent: The rate-limited model from ServiceClients.AgentModels.
//   - prompt: A text/template using {{.MAX_LABELS}} and {{.EXAMPLE_JSON}}.
//
// Outputs:
//   - *GeminiLabelDetector: The detector.
//   - error: An error if agent is nil, the template does not parse or the
//     example detection cannot be encoded.
func NewGeminiLabelDetector(agent *QuotaAwareGenerativeAIModel, prompt string) (*GeminiLabelDetector, error) {
	if agent == nil {
		return nil, fmt.Errorf("label detection model is not configured")
	}
	tmpl, err := template.New("labels-template").Parse(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse labels prompt: %w", err)
	}
	example, err := json.Marshal(model.GetExampleDetection())
	if err != nil {
		return nil, fmt.Errorf("failed to encode example detection: %w", err)
	}

	cfg := &genai.GenerateContentConfig{}
	if agent.GenerativeContentConfig != nil {
		copied := *agent.GenerativeContentConfig
		cfg = &copied
	}
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseSchema = LabelResponseSchema

	meter := otel.Meter(labelMeterName)
	inputTokens, _ := meter.Int64Counter("label-detector.gemini.token.input")
	outputTokens, _ := meter.Int64Counter("label-detector.gemini.token.output")

	return &GeminiLabelDetector{
		agent: &QuotaAwareGenerativeAIModel{
			GenerativeContentConfig: cfg,
			ModelName:               agent.ModelName,
			ModelHandle:             agent.ModelHandle,
			RateLimit:               agent.RateLimit,
		},
		template:           tmpl,
		exampleJSON:        string(example),
		inputTokenCounter:  inputTokens,
		outputTokenCounter: outputTokens,
	}, nil
}

// DetectLabels returns the labels of obj, at most maxLabels of them.
func (d *GeminiLabelDetector) DetectLabels(ctx context.Context, obj *GCSObject, maxLabels int) (*model.LabelDetection, error) {
	var buffer bytes.Buffer
	err := d.template.Execute(&buffer, map[string]interface{}{
		"MAX_LABELS":   maxLabels,
		"EXAMPLE_JSON": d.exampleJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute labels prompt: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buffer.String()},
				{FileData: NewFileData(obj.Bucket, obj.Name, obj.MIMEType)},
			},
		},
	}

	out, err := GenerateResponse(ctx, d.inputTokenCounter, d.outputTokenCounter, d.agent, contents)
	if err != nil {
		return nil, fmt.Errorf("label detection failed for %s: %w", obj, err)
	}

	detection := &model.LabelDetection{}
	if err := json.Unmarshal([]byte(out), detection); err != nil {
		return nil, fmt.Errorf("failed to parse label detection for %s: %w", obj, err)
	}
	detection.Labels = truncateLabels(detection.Labels, maxLabels)
	return detection, nil
}

func truncateLabels(labels []*model.DetectedLabel, max int) []*model.DetectedLabel {
	if max > 0 && len(labels) > max {
		return labels[:max]
	}
	return labels
}
