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
// first command of the label workflow: it turns the raw Cloud Storage
// notification into decoded object references.
package commands

import (
	"log/slog"

	"github.com/jaycherian/gcp-go-image-labels/internal/cloud"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/cor"
)

// NotificationToGCSObjects parses a notification payload (string) into a
// []*cloud.GCSObject.
type NotificationToGCSObjects struct {
	cor.BaseCommand
}

func NewNotificationToGCSObjects(name string) *NotificationToGCSObjects {
	return &NotificationToGCSObjects{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute stores the objects under cloud.GetGCSObjectListName() and in the
// output parameter.
func (c *NotificationToGCSObjects) Execute(context cor.Context) {
	in, ok := context.Get(c.GetInputParam()).(string)
	if !ok {
		c.Fail(context, errUnexpectedInput(c.GetInputParam(), "string", context.Get(c.GetInputParam())))
		return
	}

	slog.DebugContext(context.GetContext(), "received storage notification", "payload", in)

	objects, err := cloud.ParseStorageNotification([]byte(in))
	if err != nil {
		c.Fail(context, err)
		return
	}

	c.Succeed(context)
	context.Add(cloud.GetGCSObjectListName(), objects)
	context.Add(c.GetOutputParam(), objects)
}
