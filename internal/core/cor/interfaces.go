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

// Package cor is a small Chain of Responsibility framework. A workflow is a
// Chain of Commands that share one Context: each Command reads its input from
// the Context, writes its output back, and records failures as errors keyed by
// its own name. Chains stop at the first recorded error unless told otherwise.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// CtxIn is the default input key. A Chain moves the previous command's
	// CtxOut value here before running the next command.
	CtxIn = "__IN__"
	// CtxOut is the default output key.
	CtxOut = "__OUT__"
)

// Context carries the state of a single workflow execution.
type Context interface {
	// SetContext sets the Go context used for cancellation and tracing.
	SetContext(context context.Context)

	// GetContext returns the Go context.
	GetContext() context.Context

	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records an error, normally keyed by the failing command's name.
	AddError(key string, err error)

	// GetErrors returns every recorded error.
	GetErrors() map[string]error

	// Err joins the recorded errors into one, or returns nil.
	Err() error

	Get(key string) interface{}

	Remove(key string)

	HasErrors() bool
}

// Executable is anything that can run against a Context.
type Executable interface {
	Execute(context Context)
}

// Command is a named unit of work inside a Chain.
type Command interface {
	Executable

	GetName() string

	// GetInputParam returns the Context key the command reads its input from.
	GetInputParam() string

	// GetOutputParam returns the Context key the command writes its output to.
	GetOutputParam() string

	// IsExecutable reports whether the Context holds what the command needs.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer

	GetMeter() metric.Meter

	GetSuccessCounter() metric.Int64Counter

	GetErrorCounter() metric.Int64Counter
}

// Chain is a Command that runs other Commands in order.
type Chain interface {
	Command

	// ContinueOnFailure controls whether later commands run after an error.
	ContinueOnFailure(bool) Chain

	AddCommand(command Command) Chain
}
