/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package jobs runs named background work with retry, constraint and replacement policies.
package jobs

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"time"
)

// State is the externally visible lifecycle of a job.
type State string

const (
	StateEnqueued  State = "ENQUEUED"
	StateRunning   State = "RUNNING"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
	StateCancelled State = "CANCELLED"
	StateBlocked   State = "BLOCKED"
)

// IsFinished reports whether s is terminal.
func (s State) IsFinished() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// ExistingWorkPolicy decides what happens when work is submitted under a name that is already in use.
type ExistingWorkPolicy int

const (
	// PolicyReplace cancels the existing job and starts the new one.
	PolicyReplace ExistingWorkPolicy = iota
	// PolicyUpdate keeps the existing job identity and swaps in the new definition.
	// A run already in flight is not interrupted.
	PolicyUpdate
	// PolicyKeep ignores the new request.
	PolicyKeep
)

func (p ExistingWorkPolicy) String() string {
	switch p {
	case PolicyReplace:
		return "replace"
	case PolicyUpdate:
		return "update"
	case PolicyKeep:
		return "keep"
	default:
		return "unknown"
	}
}

// Constraints must hold before an invocation may start.
type Constraints struct {
	RequiresNetwork bool
}

// BackoffPolicy controls execution-level retries of a single invocation.
type BackoffPolicy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

// DefaultBackoffPolicy is exponential from 30s, at most three attempts.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		InitialDelay: 30 * time.Second,
		MaxDelay:     5 * time.Minute,
		MaxAttempts:  3,
	}
}

func (b BackoffPolicy) withDefaults() BackoffPolicy {
	def := DefaultBackoffPolicy()

	if b.InitialDelay <= 0 {
		b.InitialDelay = def.InitialDelay
	}

	if b.MaxDelay < b.InitialDelay {
		b.MaxDelay = max(def.MaxDelay, b.InitialDelay)
	}

	if b.MaxAttempts <= 0 {
		b.MaxAttempts = def.MaxAttempts
	}

	return b
}

// Data is the string key/value payload passed into and out of a job.
type Data map[string]string

// String returns the value for key or "".
func (d Data) String(key string) string {
	return d[key]
}

// Bool parses the value for key, treating anything unparsable as false.
func (d Data) Bool(key string) bool {
	v, err := strconv.ParseBool(d[key])
	return err == nil && v
}

func (d Data) clone() Data {
	return maps.Clone(d)
}

// Params describes the invocation handed to a Worker.
// RunAttempt counts previous attempts of the same invocation, starting at 0.
type Params struct {
	ID         string
	Name       string
	Tags       []string
	Input      Data
	RunAttempt int
}

// HasTag reports whether the job was submitted with tag.
func (p Params) HasTag(tag string) bool {
	return slices.Contains(p.Tags, tag)
}

// ResultKind is the outcome category of one invocation.
type ResultKind int

const (
	ResultSuccess ResultKind = iota
	ResultFailure
	ResultRetry
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultFailure:
		return "failure"
	case ResultRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// Result is returned by a Worker.
type Result struct {
	Kind   ResultKind
	Output Data
}

func Success(output Data) Result { return Result{Kind: ResultSuccess, Output: output} }
func Failure(output Data) Result { return Result{Kind: ResultFailure, Output: output} }

// Retry asks the runner to run the invocation again after the backoff delay.
func Retry(output Data) Result { return Result{Kind: ResultRetry, Output: output} }

// Worker performs one invocation of a job.
type Worker interface {
	DoWork(ctx context.Context, params Params) Result
}

// WorkerFunc adapts a function to Worker.
type WorkerFunc func(ctx context.Context, params Params) Result

func (f WorkerFunc) DoWork(ctx context.Context, params Params) Result {
	return f(ctx, params)
}

// PeriodicRequest submits recurring work. The first run happens one Interval after submission.
type PeriodicRequest struct {
	Name        string
	Worker      Worker
	Interval    time.Duration
	Tags        []string
	Input       Data
	Constraints Constraints
	Backoff     BackoffPolicy
	Policy      ExistingWorkPolicy
}

// OneTimeRequest submits work that runs once, as soon as its constraints hold.
type OneTimeRequest struct {
	Name        string
	Worker      Worker
	Tags        []string
	Input       Data
	Constraints Constraints
	Backoff     BackoffPolicy
	Policy      ExistingWorkPolicy
}

// Info is a snapshot of a named job.
type Info struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Periodic bool          `json:"periodic"`
	State    State         `json:"state"`
	Tags     []string      `json:"tags,omitempty"`
	Output   Data          `json:"output,omitempty"`
	Attempt  int           `json:"attempt"`
	Interval time.Duration `json:"interval,omitempty"`
	// LastResult is the terminal state of the most recent run of a periodic job.
	LastResult State     `json:"last_result,omitempty"`
	NextRun    time.Time `json:"next_run,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}
