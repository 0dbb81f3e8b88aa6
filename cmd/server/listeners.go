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

package main

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-image-labels/internal/cloud"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/cor"
)

// SetupListeners attaches the label workflow to the upload topic listener and
// starts it. Without a configured subscription only the push endpoint
// delivers notifications.
func SetupListeners(ctx context.Context, cloudClients *cloud.ServiceClients, labelWorkflow cor.Command) {
	listener, ok := cloudClients.PubSubListeners[cloud.DefaultUploadTopic]
	if !ok {
		slog.Info("no pull subscription configured", "topic", cloud.DefaultUploadTopic)
		return
	}
	listener.SetCommand(labelWorkflow)
	listener.Listen(ctx)
}
