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
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/jaycherian/gcp-go-image-labels/internal/cloud"
)

const signerEmail = "image-labels@test-project.iam.gserviceaccount.com"

// newPrivateKey returns a PEM key with newlines escaped the way it appears in
// an environment variable or TOML string.
func newPrivateKey(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return strings.ReplaceAll(string(pemBytes), "\n", `\n`)
}

func newStorageClient(t *testing.T) *storage.Client {
	t.Helper()
	client, err := storage.NewClient(context.Background(), option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRegionalStorageHost(t *testing.T) {
	assert.Equal(t, "", cloud.RegionalStorageHost(""))
	assert.Equal(t, "", cloud.RegionalStorageHost("  "))
	assert.Equal(t, "storage.us-east1.rep.googleapis.com", cloud.RegionalStorageHost("us-east1"))
	assert.Equal(t, "storage.europe-west4.rep.googleapis.com", cloud.RegionalStorageHost("EUROPE-WEST4"))
}

func TestSignedPostPolicyWithPrivateKey(t *testing.T) {
	signer := cloud.NewPostPolicySigner(newStorageClient(t), nil, signerEmail, newPrivateKey(t), "")

	before := time.Now()
	descriptor, err := signer.SignedPostPolicy(context.Background(), "test-uploads", "a.png", 60*time.Second)
	require.NoError(t, err)

	assert.Contains(t, descriptor.URL, "test-uploads")
	assert.Equal(t, "a.png", descriptor.Fields["key"])
	assert.NotEmpty(t, descriptor.Fields["policy"])
	assert.NotEmpty(t, descriptor.Fields["x-goog-signature"])
	assert.Contains(t, descriptor.Fields["x-goog-credential"], signerEmail)
	assert.WithinDuration(t, before.Add(60*time.Second), descriptor.ExpiresAt, 5*time.Second)
}

func TestSignedPostPolicyRegionalHost(t *testing.T) {
	signer := cloud.NewPostPolicySigner(newStorageClient(t), nil, signerEmail, newPrivateKey(t), "us-east1")

	descriptor, err := signer.SignedPostPolicy(context.Background(), "test-uploads", "a.png", 300*time.Second)
	require.NoError(t, err)
	assert.Contains(t, descriptor.URL, "storage.us-east1.rep.googleapis.com")
}

func TestSignedPostPolicyInvalidKey(t *testing.T) {
	signer := cloud.NewPostPolicySigner(newStorageClient(t), nil, signerEmail, "not a key", "")

	descriptor, err := signer.SignedPostPolicy(context.Background(), "test-uploads", "a.png", 300*time.Second)
	assert.Error(t, err)
	assert.Nil(t, descriptor)
}
