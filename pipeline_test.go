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

package pipeline_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"lostluck.dev/pipeline-go"
	"lostluck.dev/pipeline-go/hints"
)

// testRunner builds outputs by expansion and runs nothing.
type testRunner struct {
	pipeline.RunnerBase
}

func (testRunner) Run(context.Context, *pipeline.Pipeline) (pipeline.Result, error) {
	return nil, nil
}

func newTestPipeline(t *testing.T, opts ...pipeline.Options) *pipeline.Pipeline {
	t.Helper()
	opts = append([]pipeline.Options{pipeline.WithRunner(testRunner{})}, opts...)
	p, err := pipeline.NewPipeline(opts...)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	return p
}

// emitFn is a primitive producing one fresh collection.
type emitFn struct {
	pipeline.TransformBase
}

func newEmit(label string) *emitFn {
	return &emitFn{TransformBase: pipeline.TransformBase{TransformLabel: label}}
}

func (f *emitFn) Clone(label string) pipeline.Transform {
	cp := *f
	cp.TransformLabel = label
	return &cp
}

func (f *emitFn) Expand(p *pipeline.Pipeline, _ pipeline.PValueish) (pipeline.PValueish, error) {
	return pipeline.NewPCollection(p), nil
}

// passThrough returns its input unchanged.
type passThrough struct {
	pipeline.TransformBase
}

func (f *passThrough) Clone(label string) pipeline.Transform {
	cp := *f
	cp.TransformLabel = label
	return &cp
}

func (f *passThrough) Expand(_ *pipeline.Pipeline, input pipeline.PValueish) (pipeline.PValueish, error) {
	return input, nil
}

// multiOut produces a tagged bundle.
type multiOut struct {
	pipeline.TransformBase
	tags []string
}

func (f *multiOut) Clone(label string) pipeline.Transform {
	cp := *f
	cp.TransformLabel = label
	return &cp
}

func (f *multiOut) Expand(p *pipeline.Pipeline, _ pipeline.PValueish) (pipeline.PValueish, error) {
	return pipeline.NewTaggedOutputs(p, f.tags...), nil
}

// compositeFn applies an inner emit and forwards its result.
type compositeFn struct {
	pipeline.TransformBase
	inner string
}

func (f *compositeFn) Clone(label string) pipeline.Transform {
	cp := *f
	cp.TransformLabel = label
	return &cp
}

func (f *compositeFn) Expand(p *pipeline.Pipeline, input pipeline.PValueish) (pipeline.PValueish, error) {
	return p.Apply(newEmit(f.inner), input)
}

// recorder logs traversal callbacks as readable events.
type recorder struct {
	events []string
}

func (r *recorder) VisitValue(v pipeline.PValue, producer *pipeline.AppliedPTransform) {
	r.events = append(r.events, "value:"+producer.FullLabel())
}

func (r *recorder) VisitTransform(node *pipeline.AppliedPTransform) {
	r.events = append(r.events, "transform:"+node.FullLabel())
}

func (r *recorder) EnterCompositeTransform(node *pipeline.AppliedPTransform) {
	r.events = append(r.events, "enter:"+node.FullLabel())
}

func (r *recorder) LeaveCompositeTransform(node *pipeline.AppliedPTransform) {
	r.events = append(r.events, "leave:"+node.FullLabel())
}

func mustApply(t *testing.T, p *pipeline.Pipeline, tr any, in pipeline.PValueish) pipeline.PValueish {
	t.Helper()
	out, err := p.Apply(tr, in)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	return out
}

func TestApply_DuplicateLabel(t *testing.T) {
	p := newTestPipeline(t)
	first := newEmit("X")
	mustApply(t, p, first, nil)

	if _, err := p.Apply(newEmit("X"), nil); !errors.Is(err, pipeline.ErrDuplicateLabel) {
		t.Fatalf("second apply of label X: got %v, want ErrDuplicateLabel", err)
	}

	mustApply(t, p, first.Clone("X2"), nil)

	var labels []string
	for _, part := range p.Root().Parts() {
		labels = append(labels, part.FullLabel())
	}
	if d := cmp.Diff([]string{"X", "X2"}, labels); d != "" {
		t.Errorf("root parts diff (-want, +got):\n%v", d)
	}
}

func TestApply_CompositeLabelsNest(t *testing.T) {
	p := newTestPipeline(t)
	mustApply(t, p, &compositeFn{
		TransformBase: pipeline.TransformBase{TransformLabel: "Outer"},
		inner:         "Inner",
	}, nil)

	outer := p.Root().Parts()[0]
	if got, want := outer.FullLabel(), "Outer"; got != want {
		t.Errorf("outer label: got %q, want %q", got, want)
	}
	if got, want := outer.Parts()[0].FullLabel(), "Outer/Inner"; got != want {
		t.Errorf("inner label: got %q, want %q", got, want)
	}
}

func TestApply_RejectsNonTransform(t *testing.T) {
	p := newTestPipeline(t)
	if _, err := p.Apply(42, nil); !errors.Is(err, pipeline.ErrInvalidTransform) {
		t.Fatalf("got %v, want ErrInvalidTransform", err)
	}
}

func TestApply_WrapsBareFunc(t *testing.T) {
	p := newTestPipeline(t)
	out := mustApply(t, p, func(p *pipeline.Pipeline, _ pipeline.PValueish) (pipeline.PValueish, error) {
		return pipeline.NewPCollection(p), nil
	}, nil)
	if _, ok := out.(*pipeline.PCollection); !ok {
		t.Fatalf("got %T, want *PCollection", out)
	}
	if got := p.Root().Parts()[0].FullLabel(); got == "" {
		t.Error("wrapped callable has empty label")
	}
}

func TestApply_UnflattenableInput(t *testing.T) {
	p := newTestPipeline(t)
	if _, err := p.Apply(newEmit("X"), "not a pvalue"); !errors.Is(err, pipeline.ErrInputExtraction) {
		t.Fatalf("got %v, want ErrInputExtraction", err)
	}
}

func TestIsComposite_PassThrough(t *testing.T) {
	p := newTestPipeline(t)
	v := mustApply(t, p, newEmit("Src"), nil)
	mustApply(t, p, &passThrough{TransformBase: pipeline.TransformBase{TransformLabel: "Fwd"}}, v)

	fwd := p.Root().Parts()[1]
	if len(fwd.Parts()) != 0 {
		t.Fatalf("pass-through has %d parts, want 0", len(fwd.Parts()))
	}
	if !fwd.IsComposite() {
		t.Error("pass-through with zero parts classified primitive, want composite")
	}
}

func TestIsComposite_Primitive(t *testing.T) {
	p := newTestPipeline(t)
	mustApply(t, p, newEmit("Src"), nil)
	if p.Root().Parts()[0].IsComposite() {
		t.Error("output-producing leaf classified composite, want primitive")
	}
}

func TestVisit_EndToEndOrder(t *testing.T) {
	p := newTestPipeline(t)
	v1 := mustApply(t, p, newEmit("A"), nil)
	v2 := mustApply(t, p, newEmit("B"), v1)

	var r recorder
	if err := p.VisitValue(&r, v2.(pipeline.PValue)); err != nil {
		t.Fatalf("VisitValue failed: %v", err)
	}
	want := []string{"transform:A", "value:A", "transform:B", "value:B"}
	if d := cmp.Diff(want, r.events); d != "" {
		t.Errorf("traversal events diff (-want, +got):\n%v", d)
	}
}

func TestVisit_Diamond(t *testing.T) {
	p := newTestPipeline(t)
	src := mustApply(t, p, newEmit("Src"), nil)
	left := mustApply(t, p, newEmit("Left"), src)
	right := mustApply(t, p, newEmit("Right"), src)
	mustApply(t, p, newEmit("Join"), []pipeline.PValueish{left, right})

	var r recorder
	if err := p.Visit(&r); err != nil {
		t.Fatalf("Visit failed: %v", err)
	}
	want := []string{
		"enter:",
		"transform:Src", "value:Src",
		"transform:Left", "value:Left",
		"transform:Right", "value:Right",
		"transform:Join", "value:Join",
		"leave:",
	}
	if d := cmp.Diff(want, r.events); d != "" {
		t.Errorf("traversal events diff (-want, +got):\n%v", d)
	}
}

func TestVisit_CompositeCallbacks(t *testing.T) {
	p := newTestPipeline(t)
	out := mustApply(t, p, &compositeFn{
		TransformBase: pipeline.TransformBase{TransformLabel: "Outer"},
		inner:         "Inner",
	}, nil)

	var r recorder
	if err := p.VisitValue(&r, out.(pipeline.PValue)); err != nil {
		t.Fatalf("VisitValue failed: %v", err)
	}
	// The forwarded value's producer is the inner primitive, so partial
	// traversal starts there and never enters the composite.
	want := []string{"transform:Outer/Inner", "value:Outer/Inner"}
	if d := cmp.Diff(want, r.events); d != "" {
		t.Errorf("partial traversal diff (-want, +got):\n%v", d)
	}

	r = recorder{}
	if err := p.Visit(&r); err != nil {
		t.Fatalf("Visit failed: %v", err)
	}
	want = []string{
		"enter:",
		"enter:Outer",
		"transform:Outer/Inner", "value:Outer/Inner",
		"leave:Outer",
		"leave:",
	}
	if d := cmp.Diff(want, r.events); d != "" {
		t.Errorf("full traversal diff (-want, +got):\n%v", d)
	}
}

func TestVisit_TaggedOutputs(t *testing.T) {
	p := newTestPipeline(t)
	out := mustApply(t, p, &multiOut{
		TransformBase: pipeline.TransformBase{TransformLabel: "Split"},
		tags:          []string{"evens", "odds"},
	}, nil)
	bundle := out.(*pipeline.TaggedOutputs)

	node := p.Root().Parts()[0]
	if got, want := len(node.Outputs()), 1; got != want {
		t.Fatalf("outputs recorded: got %d, want %d (the bundle itself)", got, want)
	}
	if node.Outputs()[0] != pipeline.PValue(bundle) {
		t.Error("recorded output is not the bundle")
	}

	var r recorder
	if err := p.Visit(&r); err != nil {
		t.Fatalf("Visit failed: %v", err)
	}
	want := []string{"enter:", "transform:Split", "value:Split", "value:Split", "leave:"}
	if d := cmp.Diff(want, r.events); d != "" {
		t.Errorf("traversal events diff (-want, +got):\n%v", d)
	}

	// Consuming one tag reuses the already-visited subgraph.
	mustApply(t, p, newEmit("Sink"), bundle.Tag("odds"))
	r = recorder{}
	if err := p.Visit(&r); err != nil {
		t.Fatalf("Visit failed: %v", err)
	}
	want = []string{"enter:", "transform:Split", "value:Split", "value:Split", "transform:Sink", "value:Sink", "leave:"}
	if d := cmp.Diff(want, r.events); d != "" {
		t.Errorf("traversal after tag consumption diff (-want, +got):\n%v", d)
	}
}

func TestVisit_BundleAsInput(t *testing.T) {
	p := newTestPipeline(t)
	bundle := mustApply(t, p, &multiOut{
		TransformBase: pipeline.TransformBase{TransformLabel: "Split"},
		tags:          []string{"a", "b"},
	}, nil)
	sink := mustApply(t, p, newEmit("Sink"), bundle)

	// Partial traversal from the sink reaches the producer through the
	// flattened constituents of the bundle.
	var r recorder
	if err := p.VisitValue(&r, sink.(pipeline.PValue)); err != nil {
		t.Fatalf("VisitValue failed: %v", err)
	}
	want := []string{
		"transform:Split", "value:Split", "value:Split",
		"transform:Sink", "value:Sink",
	}
	if d := cmp.Diff(want, r.events); d != "" {
		t.Errorf("partial traversal diff (-want, +got):\n%v", d)
	}

	r = recorder{}
	if err := p.Visit(&r); err != nil {
		t.Fatalf("Visit failed: %v", err)
	}
	want = []string{
		"enter:",
		"transform:Split", "value:Split", "value:Split",
		"transform:Sink", "value:Sink",
		"leave:",
	}
	if d := cmp.Diff(want, r.events); d != "" {
		t.Errorf("full traversal diff (-want, +got):\n%v", d)
	}
}

func TestVisit_SideInputs(t *testing.T) {
	p := newTestPipeline(t)
	side := mustApply(t, p, newEmit("Side"), nil).(*pipeline.PCollection)
	main := mustApply(t, p, newEmit("Main"), nil)

	consumer := newEmit("Consume")
	consumer.Sides = []*pipeline.SideInput{pipeline.AsSideInput(side)}
	out := mustApply(t, p, consumer, main)

	var r recorder
	if err := p.VisitValue(&r, out.(pipeline.PValue)); err != nil {
		t.Fatalf("VisitValue failed: %v", err)
	}
	want := []string{
		"transform:Main", "value:Main",
		"transform:Side", "value:Side",
		"transform:Consume", "value:Consume",
	}
	if d := cmp.Diff(want, r.events); d != "" {
		t.Errorf("traversal events diff (-want, +got):\n%v", d)
	}
}

func TestVisitValue_NotInPipeline(t *testing.T) {
	p := newTestPipeline(t)
	other := newTestPipeline(t)
	foreign := mustApply(t, other, newEmit("X"), nil)

	var r recorder
	if err := p.VisitValue(&r, foreign.(pipeline.PValue)); !errors.Is(err, pipeline.ErrNotInPipeline) {
		t.Fatalf("got %v, want ErrNotInPipeline", err)
	}
}

func TestVisitValue_NoProducer(t *testing.T) {
	p := newTestPipeline(t)
	orphan := pipeline.NewPCollection(p)

	var r recorder
	if err := p.VisitValue(&r, orphan); !errors.Is(err, pipeline.ErrNoProducer) {
		t.Fatalf("got %v, want ErrNoProducer", err)
	}
}

func TestTypeCheck_InputMismatch(t *testing.T) {
	p := newTestPipeline(t)
	src := newEmit("Src")
	src.TypeDecls = hints.Hints{}.WithOutputTypes(hints.Named("string"))
	v := mustApply(t, p, src, nil)

	sink := newEmit("Sink")
	sink.TypeDecls = hints.Hints{}.WithInputTypes(hints.Named("int"))
	if _, err := p.Apply(sink, v); !errors.Is(err, pipeline.ErrTypeCheck) {
		t.Fatalf("got %v, want ErrTypeCheck", err)
	}
}

func TestTypeCheck_DisabledTolerates(t *testing.T) {
	p := newTestPipeline(t, pipeline.DisableTypeChecking())
	src := newEmit("Src")
	src.TypeDecls = hints.Hints{}.WithOutputTypes(hints.Named("string"))
	v := mustApply(t, p, src, nil)

	sink := newEmit("Sink")
	sink.TypeDecls = hints.Hints{}.WithInputTypes(hints.Named("int"))
	mustApply(t, p, sink, v)
}

func TestTypeCheck_GenericOutputBinding(t *testing.T) {
	p := newTestPipeline(t)
	src := newEmit("Src")
	src.TypeDecls = hints.Hints{}.WithOutputTypes(hints.Named("list", hints.Named("int")))
	v := mustApply(t, p, src, nil)

	flatten := newEmit("FlattenList")
	flatten.TypeDecls = hints.Hints{}.
		WithInputTypes(hints.Named("list", hints.Variable("T"))).
		WithOutputTypes(hints.Variable("T"))
	out := mustApply(t, p, flatten, v)

	got := out.(*pipeline.PCollection).ElementType()
	if want := hints.Named("int"); !got.Equal(want) {
		t.Errorf("bound output type: got %v, want %v", got, want)
	}
}

func TestTypeCheck_DeclaredOutputPropagates(t *testing.T) {
	p := newTestPipeline(t)
	src := newEmit("Src")
	src.TypeDecls = hints.Hints{}.WithOutputTypes(hints.Named("string"))
	v := mustApply(t, p, src, nil)

	if got, want := v.(*pipeline.PCollection).ElementType(), hints.Named("string"); !got.Equal(want) {
		t.Errorf("declared output type: got %v, want %v", got, want)
	}
}

func TestTypeCheck_StrictRequiresOutputTypes(t *testing.T) {
	p := newTestPipeline(t, pipeline.RequireOutputTypes())
	if _, err := p.Apply(newEmit("X"), nil); !errors.Is(err, pipeline.ErrMissingOutputType) {
		t.Fatalf("got %v, want ErrMissingOutputType", err)
	}

	typed := newEmit("Y")
	typed.TypeDecls = hints.Hints{}.WithOutputTypes(hints.Named("string"))
	mustApply(t, p, typed, nil)
}

func TestTypeCheck_StrictHoldsWhenCheckingDisabled(t *testing.T) {
	p := newTestPipeline(t, pipeline.DisableTypeChecking(), pipeline.RequireOutputTypes())
	if _, err := p.Apply(newEmit("X"), nil); !errors.Is(err, pipeline.ErrMissingOutputType) {
		t.Fatalf("got %v, want ErrMissingOutputType", err)
	}

	typed := newEmit("Y")
	typed.TypeDecls = hints.Hints{}.WithOutputTypes(hints.Named("string"))
	mustApply(t, p, typed, nil)
}

func TestNewPipeline_InvalidRunner(t *testing.T) {
	if _, err := pipeline.NewPipeline(); !errors.Is(err, pipeline.ErrInvalidRunner) {
		t.Fatalf("no runner: got %v, want ErrInvalidRunner", err)
	}
	if _, err := pipeline.NewPipeline(pipeline.Runner("no-such-runner")); !errors.Is(err, pipeline.ErrInvalidRunner) {
		t.Fatalf("unknown name: got %v, want ErrInvalidRunner", err)
	}
}
