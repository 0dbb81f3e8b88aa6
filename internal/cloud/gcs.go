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

// Package cloud contains data structures and utilities for interacting with Google Cloud services.
// This file defines the Cloud Storage notification payloads the label handler
// accepts and the simplified object reference passed between commands.
//
// Structs:
//   - GCSPubSubNotification: The object resource carried by a GCS Pub/Sub notification.
//   - GCSObjectList: An object list ("storage#objects") carrying several objects.
//   - GCSObject: The internal reference to one uploaded object.
//   - PubSubPushEnvelope: The body Pub/Sub posts to push endpoints.
//
// Functions:
//   - ParseStorageNotification: Turns a payload into decoded object references.
//   - DecodeObjectKey: Percent-decodes an object name.
package cloud

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Object resource kinds.
const (
	KindObject  = "storage#object"
	KindObjects = "storage#objects"
)

// ErrEmptyNotification is returned for payloads that reference no object.
var ErrEmptyNotification = errors.New("notification does not reference any object")

// GetGCSObjectName returns the Context key holding the *GCSObject currently
// being processed.
func GetGCSObjectName() string {
	return "__GCS__OBJ__"
}

// GetGCSObjectListName returns the Context key holding every *GCSObject of the
// notification.
func GetGCSObjectListName() string {
	return "__GCS__OBJ__LIST__"
}

// GCSPubSubNotification maps the JSON object resource that Cloud Storage
// publishes when an object is finalized.
type GCSPubSubNotification struct {
	Kind           string                 `json:"kind"`           // "storage#object".
	ID             string                 `json:"id"`             // bucket/name/generation.
	SelfLink       string                 `json:"selfLink"`       // The URI for this object.
	Name           string                 `json:"name"`           // The object name, possibly percent-encoded.
	Bucket         string                 `json:"bucket"`         // The bucket containing the object.
	Generation     string                 `json:"generation"`     // The generation number of the object's content.
	MetaGeneration string                 `json:"metageneration"` // The generation number of the object's metadata.
	ContentType    string                 `json:"contentType"`    // The MIME type, may be empty.
	TimeCreated    string                 `json:"timeCreated"`    // The creation time of the object.
	Updated        string                 `json:"updated"`        // The last modification time of the object.
	StorageClass   string                 `json:"storageClass"`   // The storage class of the object.
	Size           string                 `json:"size"`           // The size of the object in bytes.
	MD5Hash        string                 `json:"md5Hash"`        // The MD5 hash of the object's content.
	MediaLink      string                 `json:"mediaLink"`      // A link to download the object's content.
	MetaData       map[string]interface{} `json:"metadata"`       // User-provided metadata, if any.
	Crc32c         string                 `json:"crc32c"`         // The CRC32C checksum of the object's content.
	ETag           string                 `json:"etag"`           // The HTTP ETag of the object.
}

// GCSObjectList is the "storage#objects" resource. It lets one payload carry
// several uploaded objects.
type GCSObjectList struct {
	Kind  string                   `json:"kind"`
	Items []*GCSPubSubNotification `json:"items"`
}

// GCSObject is the internal reference to one uploaded object.
type GCSObject struct {
	Bucket   string // The name of the GCS bucket.
	Name     string // The decoded object name.
	MIMEType string // The MIME type, filled from the notification or by sniffing.
}

// String returns "bucket/name".
func (o *GCSObject) String() string {
	return fmt.Sprintf("%s/%s", o.Bucket, o.Name)
}

// PubSubPushEnvelope is the request body of a Pub/Sub push subscription.
type PubSubPushEnvelope struct {
	Message struct {
		Data        []byte            `json:"data"` // base64 in JSON; decoded by encoding/json.
		Attributes  map[string]string `json:"attributes"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// DecodeObjectKey decodes an object name the way form values are decoded:
// "+" becomes a space and every valid %XX escape becomes its byte. Malformed
// escapes such as "%+o" or a trailing "%2" are kept as they are, and the rest
// of the name is still decoded. Bytes that do not form valid UTF-8 after
// decoding become U+FFFD.
func DecodeObjectKey(name string) string {
	if !strings.ContainsAny(name, "%+") {
		return name
	}
	decoded := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		switch c := name[i]; {
		case c == '+':
			decoded = append(decoded, ' ')
		case c == '%' && i+2 < len(name) && isHex(name[i+1]) && isHex(name[i+2]):
			decoded = append(decoded, unhex(name[i+1])<<4|unhex(name[i+2]))
			i += 2
		default:
			decoded = append(decoded, c)
		}
	}
	if utf8.Valid(decoded) {
		return string(decoded)
	}
	var sb strings.Builder
	for len(decoded) > 0 {
		r, size := utf8.DecodeRune(decoded)
		sb.WriteRune(r)
		decoded = decoded[size:]
	}
	return sb.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// ParseStorageNotification parses a single object resource or an object list
// and returns the referenced objects in payload order, with decoded names.
//
// Inputs:
//   - data: The raw notification payload.
//
// Outputs:
//   - []*GCSObject: The objects to process.
//   - error: A decoding error, or ErrEmptyNotification.
func ParseStorageNotification(data []byte) ([]*GCSObject, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to unmarshal GCS notification: %w", err)
	}

	var items []*GCSPubSubNotification
	if probe.Kind == KindObjects {
		var list GCSObjectList
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to unmarshal GCS object list: %w", err)
		}
		items = list.Items
	} else {
		var single GCSPubSubNotification
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("failed to unmarshal GCS notification: %w", err)
		}
		items = []*GCSPubSubNotification{&single}
	}

	out := make([]*GCSObject, 0, len(items))
	for _, item := range items {
		if item == nil || item.Name == "" || item.Bucket == "" {
			return nil, fmt.Errorf("%w: missing bucket or name", ErrEmptyNotification)
		}
		out = append(out, &GCSObject{
			Bucket:   item.Bucket,
			Name:     DecodeObjectKey(item.Name),
			MIMEType: item.ContentType,
		})
	}
	if len(out) == 0 {
		return nil, ErrEmptyNotification
	}
	return out, nil
}
