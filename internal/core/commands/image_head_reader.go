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
// command that checks the uploaded object before it is sent for labeling.
//
// Logic Flow:
//  1. Range-read the first bytes of the object. A missing or forbidden object
//     fails here, before any model call.
//  2. Sniff the format with h2non/filetype.
//  3. Reject anything that is not an image.
//  4. Replace the object's MIME type with the sniffed one unless the
//     notification already carried an image type.
package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/h2non/filetype"

	"github.com/jaycherian/gcp-go-image-labels/internal/cloud"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/cor"
)

// HeadSize is the number of bytes filetype needs to recognise every format it
// supports.
const HeadSize = 261

// ErrUnsupportedImage is recorded when the object is not an image.
var ErrUnsupportedImage = errors.New("unsupported image format")

// ImageHeadReader validates the object under cloud.GetGCSObjectName().
type ImageHeadReader struct {
	cor.BaseCommand
	reader ObjectReader
}

func NewImageHeadReader(name string, reader ObjectReader) *ImageHeadReader {
	out := &ImageHeadReader{BaseCommand: *cor.NewBaseCommand(name), reader: reader}
	out.InputParamName = cloud.GetGCSObjectName()
	return out
}

func (c *ImageHeadReader) Execute(context cor.Context) {
	obj, ok := context.Get(c.GetInputParam()).(*cloud.GCSObject)
	if !ok {
		c.Fail(context, errUnexpectedInput(c.GetInputParam(), "*cloud.GCSObject", context.Get(c.GetInputParam())))
		return
	}

	head, err := c.reader.ReadHead(context.GetContext(), obj.Bucket, obj.Name, HeadSize)
	if err != nil {
		c.Fail(context, err)
		return
	}

	kind, err := filetype.Match(head)
	if err != nil || !filetype.IsImage(head) {
		c.Fail(context, fmt.Errorf("%w: %s (detected %q)", ErrUnsupportedImage, obj, kind.MIME.Value))
		return
	}
	// Uploads through the signed POST policy usually arrive as
	// application/octet-stream; the model needs the real image type.
	if !strings.HasPrefix(obj.MIMEType, "image/") {
		obj.MIMEType = kind.MIME.Value
	}
	slog.DebugContext(context.GetContext(), "image format detected", "object", obj.String(), "mime", obj.MIMEType)

	c.Succeed(context)
	context.Add(c.GetOutputParam(), obj)
}
