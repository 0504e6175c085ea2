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

// Package plan is a runner that "runs" a pipeline by compiling its primitive
// transforms into a dependency ordered execution plan. It validates the DAG
// end to end without executing any element processing.
package plan

import (
	"context"
	"log/slog"

	"github.com/dominikbraun/graph"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"lostluck.dev/pipeline-go"
)

func init() {
	pipeline.RegisterRunner("plan", func() pipeline.PipelineRunner { return &Runner{} })
}

// Runner compiles pipelines into execution plans.
type Runner struct {
	pipeline.RunnerBase
}

// Result is the compiled plan for one pipeline.
type Result struct {
	jobID string
	order []string
}

// JobID identifies the compilation.
func (r *Result) JobID() string { return r.jobID }

// Order returns the full labels of the pipeline's primitive transforms in a
// dependency respecting order, ties broken lexicographically.
func (r *Result) Order() []string { return r.order }

// Run walks the finished DAG, builds a directed acyclic graph of its
// primitive transforms, and topologically sorts it into a plan.
func (r *Runner) Run(ctx context.Context, p *pipeline.Pipeline) (pipeline.Result, error) {
	c := &collector{producedBy: map[pipeline.PValue]*pipeline.AppliedPTransform{}}
	if err := p.Visit(c); err != nil {
		return nil, errors.Wrap(err, "collecting pipeline graph")
	}

	g := graph.New(graph.StringHash, graph.Directed(), graph.Acyclic())
	for _, node := range c.primitives {
		if err := g.AddVertex(node.FullLabel()); err != nil {
			return nil, errors.Wrapf(err, "adding %q", node.FullLabel())
		}
	}
	for _, node := range c.primitives {
		// Copy before appending side inputs, not to alias the node's slice.
		deps := append([]pipeline.PValue(nil), node.Inputs()...)
		for _, si := range node.SideInputs() {
			deps = append(deps, si.Value())
		}
		for _, in := range deps {
			producer, ok := c.producedBy[in]
			if !ok || producer == node {
				continue
			}
			err := g.AddEdge(producer.FullLabel(), node.FullLabel())
			if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, errors.Wrapf(err, "edge %q -> %q", producer.FullLabel(), node.FullLabel())
			}
		}
	}

	order, err := graph.StableTopologicalSort(g, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, errors.Wrap(err, "ordering execution plan")
	}

	res := &Result{jobID: uuid.NewString(), order: order}
	slog.InfoContext(ctx, "compiled execution plan",
		slog.String("job", res.jobID),
		slog.String("pipeline", p.Name()),
		slog.Int("transforms", len(order)))
	return res, nil
}

// collector gathers the primitive transforms and, per value, the node whose
// traversal first surfaced it. For values created by a primitive that node is
// the real producer, so edges connect primitives directly even through
// pass-through composites.
type collector struct {
	pipeline.DefaultVisitor

	primitives []*pipeline.AppliedPTransform
	producedBy map[pipeline.PValue]*pipeline.AppliedPTransform
}

func (c *collector) VisitTransform(node *pipeline.AppliedPTransform) {
	c.primitives = append(c.primitives, node)
}

func (c *collector) VisitValue(v pipeline.PValue, producer *pipeline.AppliedPTransform) {
	if !producer.IsComposite() {
		c.producedBy[v] = producer
	}
}

var _ pipeline.PipelineRunner = (*Runner)(nil)
