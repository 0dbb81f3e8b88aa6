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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that writes one label record.
package commands

import (
	"log/slog"

	"github.com/jaycherian/gcp-go-image-labels/internal/cloud"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/cor"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/model"
)

// LabelPersist builds a LabelRecord from the current object and the labels
// in its input, writes it and outputs the *model.LabelRecord.
type LabelPersist struct {
	cor.BaseCommand
	store LabelStore
}

func NewLabelPersist(name string, store LabelStore) *LabelPersist {
	return &LabelPersist{BaseCommand: *cor.NewBaseCommand(name), store: store}
}

// IsExecutable also requires the object being processed.
func (c *LabelPersist) IsExecutable(context cor.Context) bool {
	return c.BaseCommand.IsExecutable(context) && context.Get(cloud.GetGCSObjectName()) != nil
}

func (c *LabelPersist) Execute(context cor.Context) {
	obj, ok := context.Get(cloud.GetGCSObjectName()).(*cloud.GCSObject)
	if !ok {
		c.Fail(context, errUnexpectedInput(cloud.GetGCSObjectName(), "*cloud.GCSObject", context.Get(cloud.GetGCSObjectName())))
		return
	}
	labels, ok := context.Get(c.GetInputParam()).([]string)
	if !ok {
		c.Fail(context, errUnexpectedInput(c.GetInputParam(), "[]string", context.Get(c.GetInputParam())))
		return
	}

	record, err := model.NewLabelRecord(obj.Bucket, obj.Name, labels)
	if err != nil {
		c.Fail(context, err)
		return
	}
	slog.InfoContext(context.GetContext(), "storing image labels", "image_id", record.ImageId, "filename", record.Filename)

	if err := c.store.Put(context.GetContext(), record); err != nil {
		c.Fail(context, err)
		return
	}

	c.Succeed(context)
	context.Add(c.GetOutputParam(), record)
}
