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

// Package commands_test covers the individual label workflow commands.
package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-image-labels/internal/cloud"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/commands"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/cor"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/model"
	test "github.com/jaycherian/gcp-go-image-labels/internal/testutil"
)

func newObjectContext(obj *cloud.GCSObject) cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(cloud.GetGCSObjectName(), obj)
	return ctx
}

func TestNotificationReader(t *testing.T) {
	cmd := commands.NewNotificationToGCSObjects("notification-reader")
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(cor.CtxIn, test.GetTestObjectListMessageText())

	require.True(t, cmd.IsExecutable(ctx))
	cmd.Execute(ctx)
	require.False(t, ctx.HasErrors())

	objects, ok := ctx.Get(cloud.GetGCSObjectListName()).([]*cloud.GCSObject)
	require.True(t, ok)
	assert.Len(t, objects, 3)
	assert.Equal(t, objects, ctx.Get(cor.CtxOut))
}

func TestNotificationReaderWrongInput(t *testing.T) {
	cmd := commands.NewNotificationToGCSObjects("notification-reader")
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(cor.CtxIn, 42)

	cmd.Execute(ctx)
	assert.Contains(t, ctx.GetErrors(), "notification-reader")
}

func TestImageHeadReaderKeepsNotifiedType(t *testing.T) {
	reader := &test.FakeObjectReader{Default: test.PNGHead()}
	cmd := commands.NewImageHeadReader("image-head-reader", reader)
	obj := &cloud.GCSObject{Bucket: "b", Name: "a.png", MIMEType: "image/x-custom"}
	ctx := newObjectContext(obj)

	require.True(t, cmd.IsExecutable(ctx))
	cmd.Execute(ctx)
	require.False(t, ctx.HasErrors())
	assert.Equal(t, "image/x-custom", obj.MIMEType)
	assert.Same(t, obj, ctx.Get(cor.CtxOut))
}

func TestImageHeadReaderFillsType(t *testing.T) {
	reader := &test.FakeObjectReader{Default: test.JPEGHead()}
	cmd := commands.NewImageHeadReader("image-head-reader", reader)
	obj := &cloud.GCSObject{Bucket: "b", Name: "photo"}
	ctx := newObjectContext(obj)

	cmd.Execute(ctx)
	require.False(t, ctx.HasErrors())
	assert.Equal(t, "image/jpeg", obj.MIMEType)
}

// TestImageHeadReaderReplacesGenericType covers uploads made through the
// signed POST policy, which carry no image content type.
func TestImageHeadReaderReplacesGenericType(t *testing.T) {
	for _, notified := range []string{"application/octet-stream", "binary/octet-stream", "text/plain"} {
		t.Run(notified, func(t *testing.T) {
			reader := &test.FakeObjectReader{Default: test.PNGHead()}
			cmd := commands.NewImageHeadReader("image-head-reader", reader)
			obj := &cloud.GCSObject{Bucket: "b", Name: "dog.png", MIMEType: notified}
			ctx := newObjectContext(obj)

			cmd.Execute(ctx)
			require.False(t, ctx.HasErrors())
			assert.Equal(t, "image/png", obj.MIMEType)
		})
	}
}

func TestImageHeadReaderRejectsText(t *testing.T) {
	reader := &test.FakeObjectReader{Default: test.TextHead()}
	cmd := commands.NewImageHeadReader("image-head-reader", reader)
	ctx := newObjectContext(&cloud.GCSObject{Bucket: "b", Name: "notes.png"})

	cmd.Execute(ctx)
	assert.ErrorIs(t, ctx.GetErrors()["image-head-reader"], commands.ErrUnsupportedImage)
	assert.Nil(t, ctx.Get(cor.CtxOut))
}

func TestLabelDetectorCommand(t *testing.T) {
	detector := &test.FakeLabelDetector{}
	cmd := commands.NewImageLabelDetector("label-detector", detector, 2)
	ctx := newObjectContext(&cloud.GCSObject{Bucket: "b", Name: "a.png", MIMEType: "image/png"})

	cmd.Execute(ctx)
	require.False(t, ctx.HasErrors())
	assert.Equal(t, []string{"Dog", "Pet"}, ctx.Get(cor.CtxOut))
	assert.Equal(t, []int{2}, detector.MaxLabels)
}

func TestLabelPersistCommand(t *testing.T) {
	store := &test.FakeLabelStore{}
	cmd := commands.NewLabelPersist("label-persist", store)
	ctx := newObjectContext(&cloud.GCSObject{Bucket: "b", Name: "my file.png"})
	ctx.Add(cor.CtxIn, []string{"Cat"})

	require.True(t, cmd.IsExecutable(ctx))
	cmd.Execute(ctx)
	require.False(t, ctx.HasErrors())

	record, ok := ctx.Get(cor.CtxOut).(*model.LabelRecord)
	require.True(t, ok)
	assert.Equal(t, "b/my file.png", record.Filename)
	assert.Equal(t, []string{"Cat"}, record.Labels)
	assert.Equal(t, []*model.LabelRecord{record}, store.Records)
}

func TestLabelPersistNeedsObject(t *testing.T) {
	cmd := commands.NewLabelPersist("label-persist", &test.FakeLabelStore{})
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(cor.CtxIn, []string{"Cat"})

	assert.False(t, cmd.IsExecutable(ctx))
}

func TestLabelPersistStoreError(t *testing.T) {
	boom := errors.New("table not found")
	cmd := commands.NewLabelPersist("label-persist", &test.FakeLabelStore{Err: boom})
	ctx := newObjectContext(&cloud.GCSObject{Bucket: "b", Name: "a.png"})
	ctx.Add(cor.CtxIn, []string{"Cat"})

	cmd.Execute(ctx)
	assert.ErrorIs(t, ctx.Err(), boom)
	assert.Nil(t, ctx.Get(cor.CtxOut))
}
