// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline

import "github.com/pkg/errors"

// Construction errors. All of them indicate a defect in the pipeline being
// built, not a transient condition: construction performs no I/O and nothing
// here is retryable. Errors are wrapped with context, use errors.Is against
// these sentinels to classify.
var (
	// ErrInvalidRunner indicates the runner argument at pipeline
	// construction was neither a PipelineRunner nor a registered name.
	ErrInvalidRunner = errors.New("invalid runner")

	// ErrInvalidTransform indicates Apply was handed something that is
	// neither a Transform nor an ApplyFunc.
	ErrInvalidTransform = errors.New("not a Transform or ApplyFunc")

	// ErrDuplicateLabel indicates a transform resolved to a full label
	// already applied to this pipeline. Clone the transform with a new
	// label to apply it again.
	ErrDuplicateLabel = errors.New("transform label already applied")

	// ErrInputExtraction indicates an input structure could not be reduced
	// to PValue leaves. This is a bug in the applying code or a custom
	// ExpandInputs implementation.
	ErrInputExtraction = errors.New("unable to extract input values")

	// ErrTypeCheck indicates declared and actual element types disagree.
	// Only produced when type checking is enabled.
	ErrTypeCheck = errors.New("type check failed")

	// ErrMissingOutputType indicates strict type checking is enabled but an
	// applied transform declared no output type hint.
	ErrMissingOutputType = errors.New("no output type hint declared")

	// ErrNotInPipeline indicates a traversal target value was never
	// registered with this pipeline.
	ErrNotInPipeline = errors.New("value not in pipeline")

	// ErrNoProducer indicates a value reachable during traversal has no
	// recorded producer. This is a construction time invariant violation,
	// not a user error.
	ErrNoProducer = errors.New("value has no producer")
)
