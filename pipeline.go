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
	"reflect"

	"github.com/pkg/errors"
	"lostluck.dev/pipeline-go/hints"
	"lostluck.dev/pipeline-go/internal/pipeopts"
)

// Pipeline owns a DAG of deferred values and the transform applications
// producing them. Conceptually the values are the DAG's edges and the
// applications its nodes, arranged in a composite tree under a root sentinel.
//
// Construction is single threaded: Apply calls nest through plain recursion
// and the construction stack is an ordinary call stack, not a concurrency
// primitive. Once construction finishes, Run and Visit treat the DAG as
// read-only, though nothing prevents further Apply calls; the registry simply
// grows.
//
// All applications of one pipeline must have distinct full labels. To apply
// the same transform instance again, clone it with a new label first.
type Pipeline struct {
	runner PipelineRunner
	opts   pipeopts.Struct

	begin *Begin

	// nodes is every value ever registered, in insertion order. nodeSet
	// backs identity membership checks.
	nodes   []PValue
	nodeSet map[PValue]bool

	// stack holds the currently open composite contexts, the innermost on
	// top. Index 0 is the root sentinel.
	stack []*AppliedPTransform

	// appliedLabels is the set of full labels claimed so far.
	appliedLabels map[string]bool
}

// NewPipeline creates an empty pipeline. A runner must be configured, either
// as an instance via WithRunner or by registered name via Runner; anything
// else fails with ErrInvalidRunner.
func NewPipeline(opts ...Options) (*Pipeline, error) {
	var opt pipeopts.Struct
	opt.Join(opts...)

	var runner PipelineRunner
	switch {
	case opt.RunnerInst != nil:
		r, ok := opt.RunnerInst.(PipelineRunner)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidRunner, "%T is not a PipelineRunner", opt.RunnerInst)
		}
		runner = r
	case opt.Runner != "":
		r, err := CreateRunner(opt.Runner)
		if err != nil {
			return nil, err
		}
		runner = r
	default:
		return nil, errors.Wrap(ErrInvalidRunner, "no runner configured")
	}

	p := &Pipeline{
		runner:        runner,
		opts:          opt,
		nodeSet:       map[PValue]bool{},
		appliedLabels: map[string]bool{},
	}
	p.begin = &Begin{pipe: p}
	p.stack = []*AppliedPTransform{{}}
	return p, nil
}

// Name returns the configured pipeline name, which may be empty.
func (p *Pipeline) Name() string { return p.opts.Name }

// Begin returns the sentinel input for root transforms.
func (p *Pipeline) Begin() *Begin { return p.begin }

// Root returns the root sentinel application enclosing all top level
// transforms.
func (p *Pipeline) Root() *AppliedPTransform { return p.stack[0] }

func (p *Pipeline) current() *AppliedPTransform { return p.stack[len(p.stack)-1] }

func (p *Pipeline) addNode(pv PValue) {
	if p.nodeSet[pv] {
		return
	}
	p.nodes = append(p.nodes, pv)
	p.nodeSet[pv] = true
}

// Apply records one application of transform to the given input structure
// and returns the transform's output structure. The transform argument is a
// Transform or an ApplyFunc; a nil input stands for the begin sentinel.
//
// Applying builds the DAG only. No element processing runs until a runner
// executes the pipeline.
func (p *Pipeline) Apply(transform any, input PValueish) (PValueish, error) {
	t, err := asTransform(transform)
	if err != nil {
		return nil, err
	}
	if input == nil {
		input = p.begin
	}

	label := t.Label()
	if label == "" {
		label = typeLabel(t)
	}
	fullLabel := label
	if prefix := p.current().fullLabel; prefix != "" {
		fullLabel = prefix + "/" + label
	}
	if p.appliedLabels[fullLabel] {
		return nil, errors.Wrapf(ErrDuplicateLabel,
			"%q: clone the transform with a new label to apply it again", fullLabel)
	}
	p.appliedLabels[fullLabel] = true

	normalized, inputs, err := t.ExpandInputs(input)
	if err != nil {
		return nil, errors.Wrapf(err, "applying %q", fullLabel)
	}

	node := &AppliedPTransform{
		parent:     p.current(),
		transform:  t,
		fullLabel:  fullLabel,
		inputs:     inputs,
		sideInputs: t.SideInputs(),
	}
	p.current().addPart(node)
	// The node encloses any transforms applied while its own output is
	// being constructed; the deferred pop guarantees the stack unwinds on
	// every exit path, including failures partway through a composite.
	p.stack = append(p.stack, node)
	defer func() {
		p.stack = p.stack[:len(p.stack)-1]
	}()

	typeCheck := !p.opts.NoTypeCheck
	if typeCheck {
		if err := t.CheckInputTypes(normalized); err != nil {
			return nil, errors.Wrapf(err, "applying %q", fullLabel)
		}
	}

	output, err := p.runner.Apply(p, t, normalized)
	if err != nil {
		return nil, errors.Wrapf(err, "applying %q", fullLabel)
	}

	if typeCheck {
		if err := t.CheckOutputTypes(output); err != nil {
			return nil, errors.Wrapf(err, "applying %q", fullLabel)
		}
	}

	results, err := flattenValues(output, false)
	if err != nil {
		return nil, errors.Wrapf(err, "output of %q", fullLabel)
	}
	for _, result := range results {
		// Only a leaf application takes ownership: a composite merely
		// forwarding an inner result keeps the real producer attributed.
		result.attachProducer(node)
		node.addOutput(result)
		if typeCheck {
			p.inferElementType(t, node, inputs, result)
		}
	}

	// Strictness is about declaring hints, not validating them, so it holds
	// even when type checking is disabled.
	if p.opts.Strictness == pipeopts.AllRequired && !t.TypeHints().HasOutputTypes() {
		return nil, errors.Wrapf(ErrMissingOutputType,
			"type checking requires output type hints, but %q declares none", fullLabel)
	}

	return output, nil
}

// inferElementType fills in a produced collection's element type when the
// transform declared no explicit one for it, by binding declared type
// variables against the single input's concrete type, or by asking the
// transform directly.
func (p *Pipeline) inferElementType(t Transform, node *AppliedPTransform, inputs []PValue, result PValue) {
	pc, ok := result.(*PCollection)
	if !ok || pc.ElementType().IsValid() {
		return
	}
	inputType := hints.Any
	if len(inputs) == 1 {
		if et := inputs[0].ElementType(); et.IsValid() {
			inputType = et
		}
	}
	th := t.TypeHints()
	declared, ok := th.SimpleOutputType(t.Label())
	if !ok {
		pc.SetElementType(t.InferOutputType(inputType))
		return
	}
	if len(th.InputTypes) > 0 && th.InputTypes[0].IsValid() {
		bindings := hints.Match(th.InputTypes[0], inputType)
		pc.SetElementType(hints.Bind(declared, bindings))
		return
	}
	pc.SetElementType(declared)
}

// Run hands the finished DAG to the configured runner for execution.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	return p.runner.Run(ctx, p)
}

// Visit traverses the whole DAG depth-first, dependencies before dependents,
// invoking the visitor's callbacks once per node and value.
func (p *Pipeline) Visit(v PipelineVisitor) error {
	visited := map[PValue]bool{}
	return p.Root().visit(v, visited)
}

// VisitValue traverses only the subgraph needed to materialize the given
// value: its producer and, transitively, the producers of every input and
// side input involved. The value must be registered with this pipeline.
func (p *Pipeline) VisitValue(v PipelineVisitor, value PValue) error {
	if !p.nodeSet[value] {
		return errors.Wrapf(ErrNotInPipeline, "%v", value)
	}
	producer := value.Producer()
	if producer == nil {
		return errors.Wrapf(ErrNoProducer, "%v", value)
	}
	visited := map[PValue]bool{}
	return producer.visit(v, visited)
}

func asTransform(transform any) (Transform, error) {
	switch t := transform.(type) {
	case Transform:
		return t, nil
	case ApplyFunc:
		return NewCallableTransform(t, ""), nil
	case func(p *Pipeline, input PValueish) (PValueish, error):
		return NewCallableTransform(t, ""), nil
	default:
		return nil, errors.Wrapf(ErrInvalidTransform, "%T", transform)
	}
}

func typeLabel(t Transform) string {
	rt := reflect.TypeOf(t)
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if name := rt.Name(); name != "" {
		return name
	}
	return "Transform"
}
