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
	"fmt"

	"lostluck.dev/pipeline-go/hints"
)

// PValueish is an arbitrarily nested arrangement of PValues: a single PValue,
// a slice, a map with PValueish values, or a *TaggedOutputs bundle.
type PValueish = any

// PValue is a deferred handle to a not-yet-materialized collection.
//
// PValues are compared by identity, never by structure: the same handle
// reached through two paths is the same node of the DAG. A PValue records the
// transform application that produces it, set exactly once, and an optional
// element type tag.
type PValue interface {
	// Producer returns the transform application producing this value, or
	// nil if none has been recorded yet.
	Producer() *AppliedPTransform
	// ElementType returns the element type tag, which may be unset.
	ElementType() hints.Type
	// SetElementType tags the value with an element type.
	SetElementType(hints.Type)

	// attachProducer records the producer. The first producer sticks: a
	// composite forwarding an inner result must not steal attribution.
	attachProducer(*AppliedPTransform)
}

// PCollection is the ordinary deferred collection node of a pipeline DAG.
type PCollection struct {
	pipe     *Pipeline
	tag      string
	producer *AppliedPTransform
	elemType hints.Type
}

// NewPCollection creates a fresh deferred collection registered with p.
// Transforms call this from Expand to create their outputs.
func NewPCollection(p *Pipeline) *PCollection {
	pc := &PCollection{pipe: p}
	p.addNode(pc)
	return pc
}

// Producer returns the transform application that produces this collection.
func (pc *PCollection) Producer() *AppliedPTransform { return pc.producer }

// ElementType returns the element type tag of this collection.
func (pc *PCollection) ElementType() hints.Type { return pc.elemType }

// SetElementType tags the collection with an element type.
func (pc *PCollection) SetElementType(t hints.Type) { pc.elemType = t }

func (pc *PCollection) attachProducer(n *AppliedPTransform) {
	if pc.producer == nil {
		pc.producer = n
	}
}

func (pc *PCollection) String() string {
	label := "?"
	if pc.producer != nil {
		label = pc.producer.FullLabel()
	}
	if pc.tag != "" {
		return fmt.Sprintf("PCollection[%s.%s]", label, pc.tag)
	}
	return fmt.Sprintf("PCollection[%s]", label)
}

// Begin is the sentinel input of root transforms. It represents "no real
// input": it has no producer and traversal never recurses into it.
type Begin struct {
	pipe *Pipeline
}

// Producer always returns nil for the begin sentinel.
func (*Begin) Producer() *AppliedPTransform { return nil }

// ElementType always returns the unset type for the begin sentinel.
func (*Begin) ElementType() hints.Type { return hints.Type{} }

// SetElementType is a no-op for the begin sentinel.
func (*Begin) SetElementType(hints.Type) {}

func (*Begin) attachProducer(*AppliedPTransform) {}

func (*Begin) String() string { return "Begin" }

// TaggedOutputs is the bundle of distinctly tagged collections produced by a
// single multi-output primitive transform. The bundle itself is recorded as
// the transform's output; traversal flattens it into its constituent values.
type TaggedOutputs struct {
	pipe     *Pipeline
	producer *AppliedPTransform
	tags     []string
	values   map[string]*PCollection
}

// NewTaggedOutputs creates a bundle with one fresh collection per tag, each
// registered with p. Tags must be distinct.
func NewTaggedOutputs(p *Pipeline, tags ...string) *TaggedOutputs {
	to := &TaggedOutputs{pipe: p, tags: tags, values: make(map[string]*PCollection, len(tags))}
	for _, tag := range tags {
		if _, ok := to.values[tag]; ok {
			panic(fmt.Sprintf("duplicate output tag %q", tag))
		}
		pc := NewPCollection(p)
		pc.tag = tag
		to.values[tag] = pc
	}
	return to
}

// Tag returns the collection reachable under the given tag. Accessing a tag
// connects the collection to the bundle's producer if it has none yet, so
// partial traversal from a tagged result finds its producing transform.
func (to *TaggedOutputs) Tag(tag string) *PCollection {
	pc, ok := to.values[tag]
	if !ok {
		panic(fmt.Sprintf("no output tagged %q", tag))
	}
	if pc.producer == nil {
		pc.producer = to.producer
	}
	return pc
}

// Tags returns the bundle's tags in declaration order.
func (to *TaggedOutputs) Tags() []string { return to.tags }

// Values returns the constituent collections in tag declaration order. Like
// Tag, access connects each collection to the bundle's producer if it has
// none yet, so input flattening and traversal find the producing transform.
func (to *TaggedOutputs) Values() []*PCollection {
	vals := make([]*PCollection, len(to.tags))
	for i, tag := range to.tags {
		pc := to.values[tag]
		if pc.producer == nil {
			pc.producer = to.producer
		}
		vals[i] = pc
	}
	return vals
}

// Producer returns the transform application that produces this bundle.
func (to *TaggedOutputs) Producer() *AppliedPTransform { return to.producer }

// ElementType always returns the unset type; element types live on the
// tagged collections themselves.
func (to *TaggedOutputs) ElementType() hints.Type { return hints.Type{} }

// SetElementType is a no-op for bundles.
func (to *TaggedOutputs) SetElementType(hints.Type) {}

func (to *TaggedOutputs) attachProducer(n *AppliedPTransform) {
	if to.producer == nil {
		to.producer = n
	}
}

func (to *TaggedOutputs) String() string {
	return fmt.Sprintf("TaggedOutputs%v", to.tags)
}

// SideInput marks a collection as an auxiliary input, consumed without being
// a primary positional input of the transform.
type SideInput struct {
	value *PCollection
}

// AsSideInput wraps a collection for use as a side input.
func AsSideInput(pc *PCollection) *SideInput {
	return &SideInput{value: pc}
}

// Value returns the wrapped collection.
func (si *SideInput) Value() *PCollection { return si.value }

var (
	_ PValue = (*PCollection)(nil)
	_ PValue = (*Begin)(nil)
	_ PValue = (*TaggedOutputs)(nil)
)
