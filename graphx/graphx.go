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

// Package graphx converts a constructed pipeline DAG into a serializable
// snapshot, for debugging and display.
package graphx

import (
	"github.com/go-json-experiment/json"
	"lostluck.dev/pipeline-go"
)

// Snapshot is a flat, serializable description of a pipeline DAG.
type Snapshot struct {
	Name       string      `json:"name,omitempty"`
	Transforms []Transform `json:"transforms"`
	Values     []Value     `json:"values"`
}

// Transform describes one application in the DAG.
type Transform struct {
	FullLabel string `json:"fullLabel"`
	Composite bool   `json:"composite"`
	Inputs    []int  `json:"inputs,omitempty"`
	Outputs   []int  `json:"outputs,omitempty"`
}

// Value describes one deferred value. IDs index into Snapshot.Values.
type Value struct {
	ID          int    `json:"id"`
	Kind        string `json:"kind"`
	ElementType string `json:"elementType,omitempty"`
	Producer    string `json:"producer,omitempty"`
}

// Unmarshal decodes a snapshot previously produced by Marshal.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Marshal renders the pipeline's DAG as JSON.
func Marshal(p *pipeline.Pipeline) ([]byte, error) {
	s, err := Build(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// Build collects the pipeline's DAG into a Snapshot by traversal.
func Build(p *pipeline.Pipeline) (*Snapshot, error) {
	c := &collector{ids: map[pipeline.PValue]int{}}
	if err := p.Visit(c); err != nil {
		return nil, err
	}
	c.snap.Name = p.Name()
	return &c.snap, nil
}

type collector struct {
	pipeline.DefaultVisitor

	snap Snapshot
	ids  map[pipeline.PValue]int
}

// id interns a value, assigning IDs in first-visit order.
func (c *collector) id(v pipeline.PValue) int {
	if id, ok := c.ids[v]; ok {
		return id
	}
	id := len(c.snap.Values)
	c.ids[v] = id
	kind := "collection"
	switch v.(type) {
	case *pipeline.Begin:
		kind = "begin"
	case *pipeline.TaggedOutputs:
		kind = "tagged"
	}
	val := Value{ID: id, Kind: kind}
	if et := v.ElementType(); et.IsValid() {
		val.ElementType = et.String()
	}
	c.snap.Values = append(c.snap.Values, val)
	return id
}

func (c *collector) record(node *pipeline.AppliedPTransform, composite bool) {
	t := Transform{FullLabel: node.FullLabel(), Composite: composite}
	for _, in := range node.Inputs() {
		t.Inputs = append(t.Inputs, c.id(in))
	}
	for _, si := range node.SideInputs() {
		t.Inputs = append(t.Inputs, c.id(si.Value()))
	}
	for _, out := range node.Outputs() {
		t.Outputs = append(t.Outputs, c.id(out))
	}
	c.snap.Transforms = append(c.snap.Transforms, t)
}

func (c *collector) VisitTransform(node *pipeline.AppliedPTransform) {
	c.record(node, false)
}

func (c *collector) EnterCompositeTransform(node *pipeline.AppliedPTransform) {
	if node.Transform() == nil {
		// Root sentinel.
		return
	}
	c.record(node, true)
}

func (c *collector) VisitValue(v pipeline.PValue, producer *pipeline.AppliedPTransform) {
	id := c.id(v)
	c.snap.Values[id].Producer = producer.FullLabel()
}
