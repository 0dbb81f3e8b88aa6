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

// Package api_test exercises the HTTP routes with httptest.
package api_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-image-labels/internal/api"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/model"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/services"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-image-labels/internal/testutil"
)

type fixture struct {
	router *gin.Engine
	signer *test.FakeSigner
	store  *test.FakeLabelStore
	reader *test.FakeObjectReader
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{
		signer: &test.FakeSigner{},
		store:  &test.FakeLabelStore{},
		reader: &test.FakeObjectReader{Default: test.PNGHead()},
	}
	uploads := &services.UploadService{Signer: f.signer, Bucket: "test-uploads", DefaultTTL: 300}
	labels := workflow.NewImageLabelWorkflow(&test.FakeLabelDetector{}, f.store, f.reader, 5)

	f.router = gin.New()
	api.HealthRouter(f.router)
	v1 := f.router.Group("/api/v1")
	api.UploadRouter(v1, uploads)
	api.EventRouter(v1, labels)
	return f
}

func (f *fixture) do(method string, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func pushEnvelope(t *testing.T, payload string) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]interface{}{
		"message": map[string]interface{}{
			"data":      base64.StdEncoding.EncodeToString([]byte(payload)),
			"messageId": "1234",
		},
		"subscription": "projects/test-project/subscriptions/image-uploads-push",
	})
	require.NoError(t, err)
	return b
}

func TestHealth(t *testing.T) {
	w := newFixture().do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestUploadURL(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/api/v1/uploads/url?image_name=my%20file.png&ttl=60", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body model.UploadURL
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.UploadURL)
	assert.Equal(t, "my file.png", body.UploadURL.Fields["key"])
	require.Len(t, f.signer.Calls, 1)
	assert.Equal(t, "my file.png", f.signer.Calls[0].Object)
}

func TestUploadURLMissingName(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/api/v1/uploads/url", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message": "Error when generating pre-signed url"}`, w.Body.String())
	assert.Empty(t, f.signer.Calls)
}

func TestUploadURLSignerError(t *testing.T) {
	f := newFixture()
	f.signer.Err = errors.New("denied")
	w := f.do(http.MethodGet, "/api/v1/uploads/url?image_name=a.png", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message": "Error when generating pre-signed url"}`, w.Body.String())
}

func TestUploadURLInvalidTTL(t *testing.T) {
	w := newFixture().do(http.MethodGet, "/api/v1/uploads/url?image_name=a.png&ttl=abc", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestStorageEvent(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/v1/events/storage", pushEnvelope(t, test.GetTestObjectListMessageText()))

	require.Equal(t, http.StatusOK, w.Code)
	var items model.LabelItems
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	assert.Len(t, items.Items, 3)
	assert.Len(t, f.store.Records, 3)
}

func TestStorageEventFailure(t *testing.T) {
	f := newFixture()
	f.store.Err = errors.New("insert failed")
	w := f.do(http.MethodPost, "/api/v1/events/storage", pushEnvelope(t, test.GetTestImageMessageText()))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStorageEventMalformedEnvelope(t *testing.T) {
	f := newFixture()
	for name, body := range map[string][]byte{
		"not json": []byte("{"),
		"no data":  []byte(`{"message": {"messageId": "1"}}`),
	} {
		t.Run(name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/api/v1/events/storage", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, f.reader.Reads)
}

// Keeps the handler interfaces honest.
var (
	_ api.UploadHandler = (*services.UploadService)(nil)
	_ api.EventHandler  = (*workflow.ImageLabelWorkflow)(nil)
)
