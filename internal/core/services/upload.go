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

// Package services contains the business logic behind the HTTP handlers.
// This file defines the UploadService, which hands clients a time-limited
// signed POST policy for uploading an image straight into the bucket.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jaycherian/gcp-go-image-labels/internal/core/model"
)

// Query parameter names read by UploadService.Handle.
const (
	ParamImageName = "image_name"
	ParamTTL       = "ttl"
)

// MaxTTLSeconds is the longest expiry a V4 signature accepts (7 days).
const MaxTTLSeconds = 7 * 24 * 60 * 60

// PostPolicySigner produces signed upload descriptors.
type PostPolicySigner interface {
	SignedPostPolicy(ctx context.Context, bucket string, object string, ttl time.Duration) (*model.UploadDescriptor, error)
}

// UploadService answers upload URL requests for a single bucket.
type UploadService struct {
	Signer     PostPolicySigner // Signs the POST policy.
	Bucket     string           // The bucket clients upload into.
	DefaultTTL int              // Seconds, used when the request has no ttl.
}

// Handle builds the response for one request.
//
// A missing image_name, a ttl above MaxTTLSeconds and a signing failure all
// produce the same 500 response. Only a non-numeric ttl is returned as an
// error.
//
// Inputs:
//   - ctx: The request context.
//   - query: The request's query parameters.
//
// Outputs:
//   - *model.Response: The response to send.
//   - error: Set when ttl is not an integer.
func (s *UploadService) Handle(ctx context.Context, query map[string]string) (*model.Response, error) {
	slog.DebugContext(ctx, "generating upload url", "query", query)
	ttl := s.DefaultTTL
	if raw, ok := query[ParamTTL]; ok {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", ParamTTL, raw, err)
		}
		ttl = parsed
	}

	var descriptor *model.UploadDescriptor
	name := query[ParamImageName]
	if ttl > MaxTTLSeconds {
		slog.ErrorContext(ctx, "ttl exceeds the signed url limit", "object", name, "ttl", ttl, "max", MaxTTLSeconds)
		name = ""
	}
	if name != "" {
		var err error
		descriptor, err = s.Signer.SignedPostPolicy(ctx, s.Bucket, name, time.Duration(ttl)*time.Second)
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate signed post policy", "bucket", s.Bucket, "object", name, "error", err)
			descriptor = nil
		}
	}

	if descriptor == nil {
		return model.NewUploadErrorResponse(), nil
	}
	slog.DebugContext(ctx, "generated upload url", "url", descriptor.URL, "expires_at", descriptor.ExpiresAt)
	return model.NewJSONResponse(http.StatusOK, &model.UploadURL{UploadURL: descriptor})
}
