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

package dot

import (
	"context"
	"strings"
	"testing"

	"lostluck.dev/pipeline-go"
)

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

func TestRender(t *testing.T) {
	p, err := pipeline.NewPipeline(pipeline.Runner("dot"))
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	v, err := p.Apply(newEmit("Src"), nil)
	if err != nil {
		t.Fatalf("Apply Src failed: %v", err)
	}
	if _, err := p.Apply(newEmit("Sink"), v); err != nil {
		t.Fatalf("Apply Sink failed: %v", err)
	}

	var sb strings.Builder
	if err := Render(p, &sb); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got := sb.String()

	if !strings.HasPrefix(got, "digraph G {") {
		t.Errorf("missing digraph header:\n%v", got)
	}
	if !strings.Contains(got, `"Src" -> "Sink";`) {
		t.Errorf("missing edge Src -> Sink:\n%v", got)
	}
	if !strings.HasSuffix(strings.TrimSpace(got), "}") {
		t.Errorf("missing closing brace:\n%v", got)
	}
}

func TestRun_WritesToConfiguredWriter(t *testing.T) {
	var sb strings.Builder
	r := &Runner{W: &sb}
	p, err := pipeline.NewPipeline(pipeline.WithRunner(r))
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	if _, err := p.Apply(newEmit("Only"), nil); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.JobID() == "" {
		t.Error("empty job id")
	}
	if !strings.Contains(sb.String(), `"Only";`) {
		t.Errorf("rendered graph missing node:\n%v", sb.String())
	}
}
