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

// Package api contains the HTTP route definitions for the server.
//
// Functions:
//   - UploadRouter: GET /uploads/url, backed by the upload service.
//   - EventRouter: POST /events/storage, the Pub/Sub push endpoint feeding the label workflow.
//   - HealthRouter: GET /healthz.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-image-labels/internal/cloud"
	"github.com/jaycherian/gcp-go-image-labels/internal/core/model"
)

// UploadHandler answers upload URL requests from their query parameters.
type UploadHandler interface {
	Handle(ctx context.Context, query map[string]string) (*model.Response, error)
}

// EventHandler processes one storage notification payload.
type EventHandler interface {
	Handle(ctx context.Context, payload string) (*model.Response, error)
}

// UploadRouter registers the upload URL endpoint under r.
//
// The HTTP status mirrors Response.StatusCode. A handler error (a ttl that is
// not an integer) answers 500 with no body.
func UploadRouter(r *gin.RouterGroup, handler UploadHandler) {
	uploads := r.Group("/uploads")
	{
		uploads.GET("/url", func(c *gin.Context) {
			out, err := handler.Handle(c.Request.Context(), firstValues(c))
			if err != nil {
				slog.ErrorContext(c.Request.Context(), "upload url request failed", "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			writeResponse(c, out)
		})
	}
}

// EventRouter registers the Pub/Sub push endpoint under r. Any non 2xx answer
// makes Pub/Sub redeliver the message.
func EventRouter(r *gin.RouterGroup, handler EventHandler) {
	events := r.Group("/events")
	{
		events.POST("/storage", func(c *gin.Context) {
			var envelope cloud.PubSubPushEnvelope
			if err := c.ShouldBindJSON(&envelope); err != nil || len(envelope.Message.Data) == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"message": "invalid push envelope"})
				return
			}
			out, err := handler.Handle(c.Request.Context(), string(envelope.Message.Data))
			if err != nil {
				slog.ErrorContext(c.Request.Context(), "storage event failed",
					"message_id", envelope.Message.MessageID, "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			writeResponse(c, out)
		})
	}
}

// HealthRouter registers the liveness probe.
func HealthRouter(r gin.IRoutes) {
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
}

func firstValues(c *gin.Context) map[string]string {
	out := make(map[string]string)
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func writeResponse(c *gin.Context, out *model.Response) {
	if out.Body != "" {
		c.Data(out.StatusCode, "application/json; charset=utf-8", []byte(out.Body))
		return
	}
	c.JSON(out.StatusCode, gin.H{"message": out.Message})
}
