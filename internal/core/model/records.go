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

// Package model defines the data that flows through the label and upload
// handlers. LabelRecord is the only persisted type; everything else lives for
// a single invocation.
package model

import (
	"fmt"

	"github.com/google/uuid"
)

// LabelRecord is one row of the labels table. A new record, with a new id, is
// written for every processed object, even when the same object is seen twice.
type LabelRecord struct {
	ImageId  string   `json:"image_id" bigquery:"image_id"` // Time based UUID (v1).
	Filename string   `json:"filename" bigquery:"filename"` // "<bucket>/<decoded object name>"
	Labels   []string `json:"labels" bigquery:"labels"`     // Label names in detector order.
}

// NewLabelRecord builds a record for bucket/objectName with a fresh id.
//
// Inputs:
//   - bucket: The bucket holding the image.
//   - objectName: The already decoded object name.
//   - labels: The detected label names.
//
// Outputs:
//   - *LabelRecord: The new record.
//   - error: An error if a time based UUID could not be generated.
func NewLabelRecord(bucket string, objectName string, labels []string) (*LabelRecord, error) {
	id, err := uuid.NewUUID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate image id: %w", err)
	}
	if labels == nil {
		labels = make([]string, 0)
	}
	return &LabelRecord{
		ImageId:  id.String(),
		Filename: fmt.Sprintf("%s/%s", bucket, objectName),
		Labels:   labels,
	}, nil
}
