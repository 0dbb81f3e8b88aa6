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

package model

import (
	"encoding/json"
	"net/http"
	"time"
)

// UploadErrorMessage is returned whenever no upload descriptor was produced.
// A missing image name and a signing failure both end up here.
const UploadErrorMessage = "Error when generating pre-signed url"

// Response mirrors the dispatcher's HTTP-shaped result. Exactly one of Body
// (a JSON document) or Message is set.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body,omitempty"`
	Message    string `json:"message,omitempty"`
}

// UploadDescriptor is a signed POST policy: the form must be posted to URL
// with every entry of Fields, plus the file, before ExpiresAt.
type UploadDescriptor struct {
	URL       string            `json:"url"`
	Fields    map[string]string `json:"fields"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// LabelItems is the body of a successful label handler response.
type LabelItems struct {
	Items []*LabelRecord `json:"items"`
}

// UploadURL is the body of a successful upload handler response.
type UploadURL struct {
	UploadURL *UploadDescriptor `json:"upload_url"`
}

// NewJSONResponse marshals body into a Response with the given status code.
func NewJSONResponse(statusCode int, body interface{}) (*Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: statusCode, Body: string(b)}, nil
}

// NewUploadErrorResponse is the fixed 500 answer of the upload handler.
func NewUploadErrorResponse() *Response {
	return &Response{StatusCode: http.StatusInternalServerError, Message: UploadErrorMessage}
}
