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
// This file produces V4 signed POST policies, the GCS form of a presigned
// upload: a URL plus the form fields a client must post with the file.
//
// Signing uses, in order of preference, a configured private key, the IAM
// Credentials SignBlob API for the configured service account, or whatever
// credentials the storage client detected.
package cloud

import (
	"context"
	"fmt"
	"strings"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"

	"github.com/jaycherian/gcp-go-image-labels/internal/core/model"
)

// PostPolicySigner signs upload policies for objects in a bucket.
type PostPolicySigner struct {
	client      *storage.Client
	iamClient   *credentials.IamCredentialsClient
	signerEmail string
	privateKey  []byte
	hostname    string
	now         func() time.Time
}

// NewPostPolicySigner creates a signer.
//
// Inputs:
//   - client: The storage client.
//   - iamClient: Optional IAM Credentials client used when no private key is set.
//   - signerEmail: The service account that signs.
//   - privateKey: Optional PEM key; literal "\n" sequences are turned into newlines.
//   - location: Optional region; when set the policy targets the regional endpoint.
//
// Outputs:
//   - *PostPolicySigner: The signer.
func NewPostPolicySigner(client *storage.Client, iamClient *credentials.IamCredentialsClient, signerEmail string, privateKey string, location string) *PostPolicySigner {
	s := &PostPolicySigner{
		client:      client,
		iamClient:   iamClient,
		signerEmail: signerEmail,
		hostname:    RegionalStorageHost(location),
		now:         time.Now,
	}
	if privateKey != "" {
		s.privateKey = []byte(strings.ReplaceAll(privateKey, `\n`, "\n"))
	}
	return s
}

// RegionalStorageHost returns the regional Cloud Storage endpoint for
// location, or "" (the global endpoint) when location is empty.
func RegionalStorageHost(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return ""
	}
	return fmt.Sprintf("storage.%s.rep.googleapis.com", strings.ToLower(location))
}

// SignedPostPolicy returns a descriptor allowing one upload of object into
// bucket until ttl elapses.
func (s *PostPolicySigner) SignedPostPolicy(ctx context.Context, bucket string, object string, ttl time.Duration) (*model.UploadDescriptor, error) {
	expires := s.now().Add(ttl)
	opts := &storage.PostPolicyV4Options{
		GoogleAccessID: s.signerEmail,
		Expires:        expires,
		Hostname:       s.hostname,
	}

	switch {
	case len(s.privateKey) > 0:
		opts.PrivateKey = s.privateKey
	case s.iamClient != nil && s.signerEmail != "":
		opts.SignRawBytes = func(b []byte) ([]byte, error) {
			resp, err := s.iamClient.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.signerEmail),
				Payload: b,
			})
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		}
	}

	policy, err := s.client.Bucket(bucket).GenerateSignedPostPolicyV4(object, opts)
	if err != nil {
		return nil, fmt.Errorf("Bucket(%q).GenerateSignedPostPolicyV4(%q): %w", bucket, object, err)
	}
	return &model.UploadDescriptor{URL: policy.URL, Fields: policy.Fields, ExpiresAt: expires}, nil
}
