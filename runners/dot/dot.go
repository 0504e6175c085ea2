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

// Package dot is a runner that "runs" a pipeline by producing a DOT graph of
// its primitive transforms.
package dot

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"lostluck.dev/pipeline-go"
)

func init() {
	pipeline.RegisterRunner("dot", func() pipeline.PipelineRunner { return &Runner{W: os.Stdout} })
}

// Runner renders pipelines as DOT digraphs.
type Runner struct {
	pipeline.RunnerBase

	// W receives the rendered graph. Defaults to standard output when the
	// runner is created through the registry.
	W io.Writer
}

type result struct {
	jobID string
}

func (r *result) JobID() string { return r.jobID }

// Run renders the pipeline to the configured writer.
func (r *Runner) Run(ctx context.Context, p *pipeline.Pipeline) (pipeline.Result, error) {
	if err := Render(p, r.W); err != nil {
		return nil, err
	}
	return &result{jobID: uuid.NewString()}, nil
}

// Render writes the pipeline's primitive DAG as a DOT digraph. Edges connect
// a producing transform to each transform consuming one of its outputs,
// emitted in deterministic order.
func Render(p *pipeline.Pipeline, w io.Writer) error {
	c := &collector{producedBy: map[pipeline.PValue]string{}}
	if err := p.Visit(c); err != nil {
		return errors.Wrap(err, "collecting pipeline graph")
	}

	edges := map[string]bool{}
	for _, node := range c.primitives {
		// Copy before appending side inputs, not to alias the node's slice.
		deps := append([]pipeline.PValue(nil), node.Inputs()...)
		for _, si := range node.SideInputs() {
			deps = append(deps, si.Value())
		}
		for _, in := range deps {
			from, ok := c.producedBy[in]
			if !ok || from == node.FullLabel() {
				continue
			}
			edges[fmt.Sprintf("%q -> %q;", from, node.FullLabel())] = true
		}
	}

	lines := maps.Keys(edges)
	sort.Strings(lines)

	if _, err := fmt.Fprintln(w, "digraph G {"); err != nil {
		return errors.Wrap(err, "writing dot graph")
	}
	for _, node := range c.primitives {
		if _, err := fmt.Fprintf(w, "%q;\n", node.FullLabel()); err != nil {
			return errors.Wrap(err, "writing dot graph")
		}
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return errors.Wrap(err, "writing dot graph")
		}
	}
	if _, err := fmt.Fprintln(w, "}"); err != nil {
		return errors.Wrap(err, "writing dot graph")
	}
	return nil
}

type collector struct {
	pipeline.DefaultVisitor

	primitives []*pipeline.AppliedPTransform
	producedBy map[pipeline.PValue]string
}

func (c *collector) VisitTransform(node *pipeline.AppliedPTransform) {
	c.primitives = append(c.primitives, node)
}

func (c *collector) VisitValue(v pipeline.PValue, producer *pipeline.AppliedPTransform) {
	if !producer.IsComposite() {
		c.producedBy[v] = producer.FullLabel()
	}
}

var _ pipeline.PipelineRunner = (*Runner)(nil)
