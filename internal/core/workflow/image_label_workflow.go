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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements the
// image labeling workflow triggered by Cloud Storage notifications.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jaycherian/gcp-go-image-labels/internal/cloud"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/commands"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/cor"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/model"
)

// ImageLabelWorkflow labels every image referenced by a storage notification
// and persists one LabelRecord per image.
//
// The notification is parsed once. Each object then runs through its own
// chain (head read, label detection, persist). The first failing object stops
// the workflow, so objects after it are never processed. Records written for
// earlier objects stay written.
//
// On success the *model.Response is left under cor.CtxOut.
type ImageLabelWorkflow struct {
	cor.BaseCommand
	parser *commands.NotificationToGCSObjects
	chain  cor.Chain // Per-object chain.
}

// NewImageLabelWorkflow builds the workflow.
//
// Inputs:
//   - detector: Returns labels for one image.
//   - store: Receives one record per image.
//   - reader: Reads the head of each object for format checks.
//   - maxLabels: Upper bound on labels per record. Values <= 0 use cloud.DefaultMaxLabels.
func NewImageLabelWorkflow(
	detector commands.LabelDetector,
	store commands.LabelStore,
	reader commands.ObjectReader,
	maxLabels int) *ImageLabelWorkflow {

	if maxLabels <= 0 {
		maxLabels = cloud.DefaultMaxLabels
	}

	chain := cor.NewBaseChain("image-label-chain")
	chain.AddCommand(commands.NewImageHeadReader("image-head-reader", reader))
	chain.AddCommand(commands.NewImageLabelDetector("label-detector", detector, maxLabels))
	chain.AddCommand(commands.NewLabelPersist("label-persist", store))

	return &ImageLabelWorkflow{
		BaseCommand: *cor.NewBaseCommand("image-label-workflow"),
		parser:      commands.NewNotificationToGCSObjects("notification-reader"),
		chain:       chain,
	}
}

// Execute reads the notification payload (string) from cor.CtxIn.
func (w *ImageLabelWorkflow) Execute(chCtx cor.Context) {
	parentCtx := chCtx.GetContext()
	spanCtx, span := w.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", w.GetName()))
	defer span.End()
	chCtx.SetContext(spanCtx)
	defer chCtx.SetContext(parentCtx)

	if !w.parser.IsExecutable(chCtx) {
		w.Fail(chCtx, errors.New("missing notification payload"))
		return
	}
	w.parser.Execute(chCtx)
	chCtx.Remove(cor.CtxOut)
	if chCtx.HasErrors() {
		return
	}

	objects, _ := chCtx.Get(cloud.GetGCSObjectListName()).([]*cloud.GCSObject)
	items := make([]*model.LabelRecord, 0, len(objects))
	for _, obj := range objects {
		chCtx.Add(cloud.GetGCSObjectName(), obj)
		chCtx.Remove(cor.CtxIn)
		w.chain.Execute(chCtx)
		if chCtx.HasErrors() {
			slog.ErrorContext(spanCtx, "image labeling failed", "object", obj.String(), "error", chCtx.Err())
			return
		}
		record, ok := chCtx.Get(cor.CtxIn).(*model.LabelRecord)
		if !ok {
			w.Fail(chCtx, fmt.Errorf("no label record produced for %s", obj))
			return
		}
		items = append(items, record)
	}
	chCtx.Remove(cloud.GetGCSObjectName())
	chCtx.Remove(cor.CtxIn)

	response, err := model.NewJSONResponse(http.StatusOK, &model.LabelItems{Items: items})
	if err != nil {
		w.Fail(chCtx, err)
		return
	}
	w.Succeed(chCtx)
	chCtx.Add(cor.CtxOut, response)
}

// Handle runs the workflow for one payload outside a Pub/Sub listener.
func (w *ImageLabelWorkflow) Handle(ctx context.Context, payload string) (*model.Response, error) {
	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	chCtx.Add(cor.CtxIn, payload)

	w.Execute(chCtx)
	if chCtx.HasErrors() {
		return nil, chCtx.Err()
	}
	response, ok := chCtx.Get(cor.CtxOut).(*model.Response)
	if !ok {
		return nil, fmt.Errorf("%s produced no response", w.GetName())
	}
	return response, nil
}
