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

package commands

import (
	"context"

	"github.com/jaycherian/gcp-go-image-labels/internal/cloud"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/model"
)

// ObjectReader reads the leading bytes of a stored object.
type ObjectReader interface {
	ReadHead(ctx context.Context, bucket string, name string, n int64) ([]byte, error)
}

// LabelDetector returns descriptive labels for an image.
type LabelDetector interface {
	DetectLabels(ctx context.Context, obj *cloud.GCSObject, maxLabels int) (*model.LabelDetection, error)
}

// LabelStore persists label records.
type LabelStore interface {
	Put(ctx context.Context, record *model.LabelRecord) error
}
