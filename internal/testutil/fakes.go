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

package test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jaycherian/gcp-go-image-labels/internal/cloud"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/model"
)

// FakeObjectReader serves object heads from memory. Objects missing from
// Heads fall back to Default; when Default is nil they are inaccessible.
type FakeObjectReader struct {
	mu      sync.Mutex
	Heads   map[string][]byte // Keyed by "bucket/name".
	Default []byte
	Reads   []string
}

func (r *FakeObjectReader) ReadHead(_ context.Context, bucket string, name string, n int64) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fmt.Sprintf("%s/%s", bucket, name)
	r.Reads = append(r.Reads, key)

	head, ok := r.Heads[key]
	if !ok {
		head = r.Default
	}
	if head == nil {
		return nil, fmt.Errorf("%w: %s", cloud.ErrObjectInaccessible, key)
	}
	if int64(len(head)) > n {
		head = head[:n]
	}
	return head, nil
}

// FakeLabelDetector returns Labels for every image, or Err. When FailOn
// names an object ("bucket/name"), only that object fails.
type FakeLabelDetector struct {
	mu        sync.Mutex
	Labels    []*model.DetectedLabel
	Err       error
	FailOn    string
	Calls     []*cloud.GCSObject
	MaxLabels []int
}

func (d *FakeLabelDetector) DetectLabels(_ context.Context, obj *cloud.GCSObject, maxLabels int) (*model.LabelDetection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copied := *obj
	d.Calls = append(d.Calls, &copied)
	d.MaxLabels = append(d.MaxLabels, maxLabels)

	if d.Err != nil && (d.FailOn == "" || d.FailOn == obj.String()) {
		return nil, d.Err
	}
	labels := d.Labels
	if labels == nil {
		labels = model.GetExampleDetection().Labels
	}
	return &model.LabelDetection{Labels: labels}, nil
}

// FakeLabelStore keeps records in memory. Err fails every Put.
type FakeLabelStore struct {
	mu      sync.Mutex
	Records []*model.LabelRecord
	Err     error
}

func (s *FakeLabelStore) Put(_ context.Context, record *model.LabelRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Records = append(s.Records, record)
	return nil
}

// SignerCall is one recorded FakeSigner request.
type SignerCall struct {
	Bucket string
	Object string
	TTL    time.Duration
}

// FakeSigner returns a fixed descriptor, or Err.
type FakeSigner struct {
	mu    sync.Mutex
	Err   error
	Calls []SignerCall
}

func (s *FakeSigner) SignedPostPolicy(_ context.Context, bucket string, object string, ttl time.Duration) (*model.UploadDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, SignerCall{Bucket: bucket, Object: object, TTL: ttl})
	if s.Err != nil {
		return nil, s.Err
	}
	return &model.UploadDescriptor{
		URL: fmt.Sprintf("https://storage.googleapis.com/%s/", bucket),
		Fields: map[string]string{
			"key":    object,
			"policy": "eyJleHBpcmF0aW9uIjoiMjAyNC0xMC0xMVQwMzowOTowOFoifQ==",
		},
		ExpiresAt: time.Date(2024, 10, 11, 3, 9, 8, 0, time.UTC).Add(ttl),
	}, nil
}
