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

package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// ErrObjectInaccessible marks objects that are missing or cannot be read
// with the service's credentials.
var ErrObjectInaccessible = errors.New("object is inaccessible")

// GCSObjectReader reads object prefixes from Cloud Storage.
type GCSObjectReader struct {
	Client *storage.Client
}

// NewGCSObjectReader wraps client.
func NewGCSObjectReader(client *storage.Client) *GCSObjectReader {
	return &GCSObjectReader{Client: client}
}

// ReadHead returns at most n leading bytes of gs://bucket/name.
func (r *GCSObjectReader) ReadHead(ctx context.Context, bucket string, name string, n int64) ([]byte, error) {
	reader, err := r.Client.Bucket(bucket).Object(name).NewRangeReader(ctx, 0, n)
	if err != nil {
		return nil, classifyObjectError(bucket, name, err)
	}
	defer func() { _ = reader.Close() }()

	head, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, name, err)
	}
	return head, nil
}

func classifyObjectError(bucket string, name string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("%w: gs://%s/%s does not exist: %w", ErrObjectInaccessible, bucket, name, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return fmt.Errorf("%w: gs://%s/%s returned HTTP %d: %w", ErrObjectInaccessible, bucket, name, apiErr.Code, err)
		}
	}
	return fmt.Errorf("failed to open gs://%s/%s: %w", bucket, name, err)
}
