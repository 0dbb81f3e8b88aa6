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

package cloud_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-image-labels/internal/cloud"
)

func TestNewGeminiLabelDetector(t *testing.T) {
	agent := cloud.NewQuotaAwareModel(&genai.GenerateContentConfig{ResponseMIMEType: "text/plain"}, "gemini-2.0-flash", nil, 1)

	detector, err := cloud.NewGeminiLabelDetector(agent, cloud.DefaultLabelsPrompt)
	require.NoError(t, err)
	assert.NotNil(t, detector)
	// The agent's own settings are left alone.
	assert.Equal(t, "text/plain", agent.GenerativeContentConfig.ResponseMIMEType)
	assert.Nil(t, agent.GenerativeContentConfig.ResponseSchema)
}

func TestNewGeminiLabelDetectorErrors(t *testing.T) {
	_, err := cloud.NewGeminiLabelDetector(nil, cloud.DefaultLabelsPrompt)
	assert.Error(t, err)

	agent := cloud.NewQuotaAwareModel(&genai.GenerateContentConfig{}, "gemini-2.0-flash", nil, 1)
	_, err = cloud.NewGeminiLabelDetector(agent, "{{.MAX_LABELS")
	assert.Error(t, err)
}

func TestLabelResponseSchema(t *testing.T) {
	schema := cloud.LabelResponseSchema
	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, []string{"labels"}, schema.Required)
	require.Contains(t, schema.Properties, "labels")
	items := schema.Properties["labels"].Items
	require.NotNil(t, items)
	assert.Contains(t, items.Properties, "name")
	assert.Contains(t, items.Properties, "confidence")
}

func TestNewFileData(t *testing.T) {
	data := cloud.NewFileData("test-uploads", "my file.png", "image/png")
	assert.Equal(t, "gs://test-uploads/my file.png", data.FileURI)
	assert.Equal(t, "image/png", data.MIMEType)
}
