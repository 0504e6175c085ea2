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

// AppliedPTransform is a node of the pipeline DAG, recording one application
// of a transform: its position in the composite tree, its ordered inputs,
// side inputs and outputs, and its child applications.
//
// Visitors should read labels, inputs and outputs from the node rather than
// from the Transform itself: the same Transform instance may back several
// applications (via Clone), each with its own bookkeeping.
type AppliedPTransform struct {
	parent     *AppliedPTransform
	transform  Transform
	fullLabel  string
	inputs     []PValue
	sideInputs []*SideInput
	outputs    []PValue
	parts      []*AppliedPTransform
}

// Parent returns the enclosing application. It is nil only for the root
// sentinel node.
func (n *AppliedPTransform) Parent() *AppliedPTransform { return n.parent }

// Transform returns the applied transform descriptor, nil for the root.
func (n *AppliedPTransform) Transform() Transform { return n.transform }

// FullLabel returns the hierarchically composed, pipeline unique label.
func (n *AppliedPTransform) FullLabel() string { return n.fullLabel }

// Inputs returns the ordered main input values.
func (n *AppliedPTransform) Inputs() []PValue { return n.inputs }

// SideInputs returns the ordered side inputs.
func (n *AppliedPTransform) SideInputs() []*SideInput { return n.sideInputs }

// Outputs returns the ordered outputs. An element is either a single PValue
// or a *TaggedOutputs bundle.
func (n *AppliedPTransform) Outputs() []PValue { return n.outputs }

// Parts returns the child applications in application order.
func (n *AppliedPTransform) Parts() []*AppliedPTransform { return n.parts }

func (n *AppliedPTransform) addOutput(out PValue) {
	n.outputs = append(n.outputs, out)
}

func (n *AppliedPTransform) addPart(part *AppliedPTransform) {
	n.parts = append(n.parts, part)
}

// IsComposite reports whether this application delegates to nested parts, or
// produces none of its recorded outputs itself (a pure pass-through, such as
// a transform returning one of its inputs unchanged).
//
// The classification is recomputed on every call: parts and outputs may still
// be appended while an enclosing composite is under construction, so caching
// it would go stale.
func (n *AppliedPTransform) IsComposite() bool {
	if len(n.parts) > 0 {
		return true
	}
	for _, out := range n.outputs {
		if out.Producer() == n {
			return false
		}
	}
	return true
}

// visit walks the DAG depth-first from this node, dependencies before
// dependents, sharing one visited set per traversal so every node and value
// is handled at most once.
func (n *AppliedPTransform) visit(v PipelineVisitor, visited map[PValue]bool) error {
	for _, in := range n.inputs {
		if _, isBegin := in.(*Begin); isBegin || visited[in] {
			continue
		}
		producer := in.Producer()
		if producer == nil {
			return errors.Wrapf(ErrNoProducer, "input %v of %q", in, n.fullLabel)
		}
		// Visiting the producer also visits its outputs, so the input is
		// marked visited afterwards.
		if err := producer.visit(v, visited); err != nil {
			return err
		}
	}

	for _, si := range n.sideInputs {
		pv := si.Value()
		if visited[pv] {
			continue
		}
		producer := pv.Producer()
		if producer == nil {
			return errors.Wrapf(ErrNoProducer, "side input %v of %q", pv, n.fullLabel)
		}
		if err := producer.visit(v, visited); err != nil {
			return err
		}
	}

	if n.IsComposite() {
		v.EnterCompositeTransform(n)
		for _, part := range n.parts {
			if err := part.visit(v, visited); err != nil {
				return err
			}
		}
		v.LeaveCompositeTransform(n)
	} else {
		v.VisitTransform(n)
	}

	// Tagged bundles flatten here: the bundle is the recorded output, but
	// the constituent collections must be marked visited against their
	// producer, or a later path through a tag would revisit the subgraph.
	for _, out := range n.outputs {
		vals := []PValue{out}
		if to, ok := out.(*TaggedOutputs); ok {
			vals = vals[:0]
			for _, pc := range to.Values() {
				vals = append(vals, pc)
			}
		}
		for _, val := range vals {
			if !visited[val] {
				visited[val] = true
				v.VisitValue(val, n)
			}
		}
	}
	return nil
}
