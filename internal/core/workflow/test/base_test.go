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

// Package workflow_test runs the image label workflow end to end against the
// in-memory fakes from internal/testutil.
package workflow_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/jaycherian/gcp-go-image-labels/internal/core/model"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-image-labels/internal/testutil"
)

const tName = "github.com/jaycherian/gcp-go-image-labels/tests/workflow"

var logger = otelslog.NewLogger(tName)

type fixture struct {
	detector *test.FakeLabelDetector
	store    *test.FakeLabelStore
	reader   *test.FakeObjectReader
	workflow *workflow.ImageLabelWorkflow
}

func newFixture(maxLabels int) *fixture {
	f := &fixture{
		detector: &test.FakeLabelDetector{},
		store:    &test.FakeLabelStore{},
		reader:   &test.FakeObjectReader{Default: test.PNGHead()},
	}
	f.workflow = workflow.NewImageLabelWorkflow(f.detector, f.store, f.reader, maxLabels)
	return f
}

func decodeItems(t *testing.T, resp *model.Response) []*model.LabelRecord {
	t.Helper()
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var items model.LabelItems
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &items))
	return items.Items
}

func labelNames(n int) []*model.DetectedLabel {
	out := make([]*model.DetectedLabel, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &model.DetectedLabel{Name: string(rune('A' + i)), Confidence: float64(99 - i)})
	}
	return out
}
