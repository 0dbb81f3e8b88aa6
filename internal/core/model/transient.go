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

// These objects only live in memory while a workflow runs.

// DetectedLabel is a single concept returned by the label detector.
type DetectedLabel struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"` // 0-100
}

// LabelDetection is the structured answer expected from the detection model.
type LabelDetection struct {
	Labels []*DetectedLabel `json:"labels"`
}

// Names returns the label names in order, keeping at most max of them.
// A non-positive max keeps everything.
func (d *LabelDetection) Names(max int) []string {
	out := make([]string, 0, len(d.Labels))
	for _, l := range d.Labels {
		if l == nil {
			continue
		}
		if max > 0 && len(out) >= max {
			break
		}
		out = append(out, l.Name)
	}
	return out
}

// GetExampleDetection is shown to the model as the output format.
func GetExampleDetection() *LabelDetection {
	return &LabelDetection{
		Labels: []*DetectedLabel{
			{Name: "Dog", Confidence: 98.1},
			{Name: "Pet", Confidence: 97.4},
			{Name: "Grass", Confidence: 88.0},
		},
	}
}
