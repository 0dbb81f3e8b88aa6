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

package test

import "fmt"

// TestBucket is the bucket used by every sample notification.
const TestBucket = "image_labels_uploads"

// GetObjectMessageText returns a "storage#object" notification for name.
func GetObjectMessageText(bucket string, name string, contentType string) string {
	return fmt.Sprintf(`{
  "kind": "storage#object",
  "id": "%[1]s/%[2]s/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/%[1]s/o/%[2]s",
  "name": "%[2]s",
  "bucket": "%[1]s",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "%[3]s",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "size": "48213",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "metadata": { "touch": "18" },
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
}`, bucket, name, contentType)
}

// GetTestImageMessageText returns the notification for a single PNG.
func GetTestImageMessageText() string {
	return GetObjectMessageText(TestBucket, "dog.png", "image/png")
}

// GetTestEncodedMessageText returns a notification whose object name is
// percent-encoded ("my%20file.png").
func GetTestEncodedMessageText() string {
	return GetObjectMessageText(TestBucket, "my%20file.png", "image/png")
}

// GetTestObjectListMessageText returns a "storage#objects" payload carrying
// three images. The second has no content type.
func GetTestObjectListMessageText() string {
	return fmt.Sprintf(`{
  "kind": "storage#objects",
  "items": [
    {"kind": "storage#object", "bucket": "%[1]s", "name": "a.png", "contentType": "image/png"},
    {"kind": "storage#object", "bucket": "%[1]s", "name": "b.jpg"},
    {"kind": "storage#object", "bucket": "%[1]s", "name": "c.png", "contentType": "image/png"}
  ]
}`, TestBucket)
}

// PNGHead returns the first bytes of a PNG file.
func PNGHead() []byte {
	return []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}
}

// JPEGHead returns the first bytes of a JPEG file.
func JPEGHead() []byte {
	return []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01}
}

// TextHead returns bytes no image format matches.
func TextHead() []byte {
	return []byte("hello, this is not an image")
}
