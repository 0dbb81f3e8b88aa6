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

	"github.com/jaycherian/gcp-go-image-labels/internal/cloud"
	test "github.com/jaycherian/gcp-go-image-labels/internal/testutil"
)

// TestLoadConfig checks that the test file overrides the base file and that
// the base file fills everything else.
func TestLoadConfig(t *testing.T) {
	config := test.GetConfig()

	assert.Equal(t, "image-labels-test", config.Application.Name)
	assert.Equal(t, "test-project", config.Application.GoogleProjectId)
	assert.Equal(t, "us-central1", config.Application.GoogleLocation)
	assert.Equal(t, "test-uploads", config.Storage.UploadBucket)
	assert.Equal(t, "test_image_labels", config.Table.Name)
	assert.Equal(t, "image_labels_ds", config.Table.Dataset)
	assert.Equal(t, cloud.TableBackendBigQuery, config.Table.Backend)
	assert.Equal(t, 300, config.Upload.DefaultTTLSeconds)
	assert.Equal(t, 5, config.LabelDetection.MaxLabels)
	assert.Equal(t, cloud.DefaultLabelModel, config.LabelDetection.AgentModel)

	require.Contains(t, config.AgentModels, cloud.DefaultLabelModel)
	assert.Equal(t, "gemini-2.0-flash", config.AgentModels[cloud.DefaultLabelModel].Model)
	assert.Equal(t, 5, config.AgentModels[cloud.DefaultLabelModel].RateLimit)
	require.Contains(t, config.TopicSubscriptions, cloud.DefaultUploadTopic)
	assert.Equal(t, "image-uploads-sub", config.TopicSubscriptions[cloud.DefaultUploadTopic].Name)
	assert.Contains(t, config.PromptTemplates.LabelsPrompt, "{{.MAX_LABELS}}")
}

func TestNewConfigDefaults(t *testing.T) {
	config := cloud.NewConfig()
	assert.Equal(t, cloud.DefaultTTLSeconds, config.Upload.DefaultTTLSeconds)
	assert.Equal(t, cloud.DefaultMaxLabels, config.LabelDetection.MaxLabels)
	assert.Equal(t, cloud.DefaultPort, config.Application.Port)
	assert.Equal(t, cloud.TableBackendBigQuery, config.Table.Backend)
	assert.NotNil(t, config.AgentModels)
	assert.NotNil(t, config.TopicSubscriptions)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(cloud.EnvProject, "env-project")
	t.Setenv(cloud.EnvLocation, "europe-west1")
	t.Setenv(cloud.EnvBucketName, "env-bucket")
	t.Setenv(cloud.EnvTableName, "env_table")
	t.Setenv(cloud.EnvDefaultTTL, "120")
	t.Setenv(cloud.EnvUploadLocation, "us-east1")
	t.Setenv(cloud.EnvPort, "9090")

	config := cloud.NewConfig()
	require.NoError(t, cloud.ApplyEnvOverrides(config))

	assert.Equal(t, "env-project", config.Application.GoogleProjectId)
	assert.Equal(t, "europe-west1", config.Application.GoogleLocation)
	assert.Equal(t, "env-bucket", config.Storage.UploadBucket)
	assert.Equal(t, "env_table", config.Table.Name)
	assert.Equal(t, 120, config.Upload.DefaultTTLSeconds)
	// The two regions stay independent.
	assert.Equal(t, "us-east1", config.Upload.Location)
	assert.Equal(t, "9090", config.Application.Port)
}

func TestApplyEnvOverridesInvalidTTL(t *testing.T) {
	t.Setenv(cloud.EnvDefaultTTL, "five minutes")
	assert.Error(t, cloud.ApplyEnvOverrides(cloud.NewConfig()))
}
