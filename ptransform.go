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
	"reflect"
	"runtime"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"lostluck.dev/pipeline-go/hints"
)

// Transform is a named, cloneable unit of deferred processing applied to
// PValues. Concrete transforms typically embed TransformBase and implement
// Expand and Clone.
//
// Expand is the construction time body: a primitive transform creates its
// output collections there, a composite transform applies further transforms
// to the pipeline and returns their results.
type Transform interface {
	// Label is the transform's own label, composed with the enclosing
	// context's label into the application's full label.
	Label() string
	// Clone returns a copy of the transform carrying a new label, so the
	// same logical transform can be applied again.
	Clone(label string) Transform
	// Expand builds the transform's output structure. It must not execute
	// any element processing.
	Expand(p *Pipeline, input PValueish) (PValueish, error)
	// SideInputs enumerates the auxiliary inputs of the transform.
	SideInputs() []*SideInput
	// ExpandInputs normalizes the input structure and flattens it into its
	// ordered PValue leaves.
	ExpandInputs(input PValueish) (PValueish, []PValue, error)
	// TypeHints returns the transform's type declarations.
	TypeHints() hints.Hints
	// CheckInputTypes validates declared input types against the actual
	// input structure.
	CheckInputTypes(input PValueish) error
	// CheckOutputTypes validates declared output types against the
	// produced structure.
	CheckOutputTypes(output PValueish) error
	// InferOutputType derives an output element type from the concrete
	// element type of the (single) input.
	InferOutputType(input hints.Type) hints.Type
}

// TransformBase provides the descriptor plumbing shared by most transforms:
// label storage, side input enumeration, reflection based input extraction,
// and hint backed type checks. Embedders implement Expand and Clone.
type TransformBase struct {
	// TransformLabel is the transform's own label. If empty, Apply derives
	// one from the transform's type name.
	TransformLabel string
	// TypeDecls are the transform's declared type hints.
	TypeDecls hints.Hints
	// Sides are the transform's side inputs.
	Sides []*SideInput
}

// Label returns the configured label.
func (b *TransformBase) Label() string { return b.TransformLabel }

// SideInputs returns the configured side inputs.
func (b *TransformBase) SideInputs() []*SideInput { return b.Sides }

// TypeHints returns the declared hints.
func (b *TransformBase) TypeHints() hints.Hints { return b.TypeDecls }

// ExpandInputs returns the input unchanged along with its PValue leaves.
func (b *TransformBase) ExpandInputs(input PValueish) (PValueish, []PValue, error) {
	leaves, err := flattenValues(input, true)
	if err != nil {
		return nil, nil, err
	}
	return input, leaves, nil
}

// CheckInputTypes validates declared input types positionally against the
// element types of the actual inputs.
func (b *TransformBase) CheckInputTypes(input PValueish) error {
	leaves, err := flattenValues(input, true)
	if err != nil {
		return err
	}
	return checkTypes(b.TypeDecls.InputTypes, leaves, "input")
}

// CheckOutputTypes validates declared output types positionally against the
// element types of the produced values.
func (b *TransformBase) CheckOutputTypes(output PValueish) error {
	leaves, err := flattenValues(output, false)
	if err != nil {
		return err
	}
	return checkTypes(b.TypeDecls.OutputTypes, leaves, "output")
}

// InferOutputType returns Any. Transforms with a more precise relationship
// between input and output element types override this.
func (b *TransformBase) InferOutputType(hints.Type) hints.Type { return hints.Any }

func checkTypes(declared []hints.Type, actual []PValue, kind string) error {
	for i, v := range actual {
		if i >= len(declared) {
			break
		}
		got := v.ElementType()
		if !hints.Compatible(declared[i], got) {
			return errors.Wrapf(ErrTypeCheck, "%s %d: declared %v, actual %v", kind, i, declared[i], got)
		}
	}
	return nil
}

// ApplyFunc is a bare function usable as a transform. Apply wraps it in a
// descriptor whose label derives from the function's name.
type ApplyFunc func(p *Pipeline, input PValueish) (PValueish, error)

type callableTransform struct {
	TransformBase
	fn ApplyFunc
}

// NewCallableTransform wraps fn as a Transform. An empty label derives the
// label from the function's name.
func NewCallableTransform(fn ApplyFunc, label string) Transform {
	if label == "" {
		label = funcLabel(fn)
	}
	return &callableTransform{TransformBase: TransformBase{TransformLabel: label}, fn: fn}
}

func (c *callableTransform) Clone(label string) Transform {
	cp := *c
	cp.TransformLabel = label
	return &cp
}

func (c *callableTransform) Expand(p *Pipeline, input PValueish) (PValueish, error) {
	return c.fn(p, input)
}

func funcLabel(fn ApplyFunc) string {
	name := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "Callable"
	}
	return name
}

// flattenValues reduces a nested input or output structure to its ordered
// PValue leaves. Inputs expand tagged bundles into their constituent
// collections; outputs keep the bundle itself as the leaf, since the bundle
// is what the producing transform records as its output.
//
// Supported shapes: nil, a PValue, a slice or array of structures, and a
// string keyed map of structures (walked in sorted key order). Anything else
// fails extraction.
func flattenValues(v PValueish, expandTagged bool) ([]PValue, error) {
	var leaves []PValue
	if err := appendLeaves(&leaves, v, expandTagged); err != nil {
		return nil, err
	}
	return leaves, nil
}

func appendLeaves(leaves *[]PValue, v PValueish, expandTagged bool) error {
	if v == nil {
		return nil
	}
	if to, ok := v.(*TaggedOutputs); ok {
		if !expandTagged {
			*leaves = append(*leaves, to)
			return nil
		}
		for _, pc := range to.Values() {
			*leaves = append(*leaves, pc)
		}
		return nil
	}
	if pv, ok := v.(PValue); ok {
		*leaves = append(*leaves, pv)
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := appendLeaves(leaves, rv.Index(i).Interface(), expandTagged); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return errors.Wrapf(ErrInputExtraction, "map keyed by %v, want string", rv.Type().Key())
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		for _, k := range keys {
			kv := reflect.ValueOf(k).Convert(rv.Type().Key())
			if err := appendLeaves(leaves, rv.MapIndex(kv).Interface(), expandTagged); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Wrapf(ErrInputExtraction, "%T is not a PValue or a structure of PValues", v)
	}
}
