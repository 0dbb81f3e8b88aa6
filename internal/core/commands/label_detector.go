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
// command that asks the label detector about one image.
package commands

import (
	"log/slog"

	"github.com/jaycherian/gcp-go-image-labels/internal/cloud"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/cor"
)

// ImageLabelDetector reads the object under cloud.GetGCSObjectName() and
// outputs the label names ([]string), at most maxLabels of them.
type ImageLabelDetector struct {
	cor.BaseCommand
	detector  LabelDetector
	maxLabels int
}

func NewImageLabelDetector(name string, detector LabelDetector, maxLabels int) *ImageLabelDetector {
	out := &ImageLabelDetector{BaseCommand: *cor.NewBaseCommand(name), detector: detector, maxLabels: maxLabels}
	out.InputParamName = cloud.GetGCSObjectName()
	return out
}

// Execute does not retry: a detector error fails the command.
func (c *ImageLabelDetector) Execute(context cor.Context) {
	obj, ok := context.Get(c.GetInputParam()).(*cloud.GCSObject)
	if !ok {
		c.Fail(context, errUnexpectedInput(c.GetInputParam(), "*cloud.GCSObject", context.Get(c.GetInputParam())))
		return
	}
	slog.InfoContext(context.GetContext(), "processing file", "object", obj.String())

	detection, err := c.detector.DetectLabels(context.GetContext(), obj, c.maxLabels)
	if err != nil {
		c.Fail(context, err)
		return
	}
	labels := detection.Names(c.maxLabels)
	slog.DebugContext(context.GetContext(), "found labels", "object", obj.String(), "labels", labels)

	c.Succeed(context)
	context.Add(c.GetOutputParam(), labels)
}
