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

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// PipelineRunner materializes the semantics of a constructed DAG. Apply is
// the construction time hook invoked for every transform application; Run
// executes the finished pipeline.
type PipelineRunner interface {
	// Apply builds the output structure for one transform application.
	// Most runners delegate to the transform's own Expand.
	Apply(p *Pipeline, t Transform, input PValueish) (PValueish, error)
	// Run executes the pipeline and reports its result.
	Run(ctx context.Context, p *Pipeline) (Result, error)
}

// Result is what a runner reports for one pipeline execution.
type Result interface {
	// JobID identifies the execution.
	JobID() string
}

// RunnerBase provides the default construction time Apply, delegating output
// construction to the transform. Runners embed it and implement Run.
type RunnerBase struct{}

// Apply expands the transform.
func (RunnerBase) Apply(p *Pipeline, t Transform, input PValueish) (PValueish, error) {
	return t.Expand(p, input)
}

var (
	runnersMu sync.Mutex
	runners   = map[string]func() PipelineRunner{}
)

// RegisterRunner associates a runner factory with a name, so pipelines can
// select it with the Runner option. Registering the same name twice panics.
func RegisterRunner(name string, factory func() PipelineRunner) {
	runnersMu.Lock()
	defer runnersMu.Unlock()
	if _, ok := runners[name]; ok {
		panic("runner already registered: " + name)
	}
	runners[name] = factory
}

// CreateRunner constructs the runner registered under name. Unknown names
// fail with ErrInvalidRunner.
func CreateRunner(name string) (PipelineRunner, error) {
	runnersMu.Lock()
	factory, ok := runners[name]
	runnersMu.Unlock()
	if !ok {
		return nil, errors.Wrapf(ErrInvalidRunner, "no runner registered as %q", name)
	}
	return factory(), nil
}
