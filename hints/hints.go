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

// Package hints provides element type tags for deferred collections, and the
// small matching contract pipeline construction needs: binding type variables
// declared on a transform against the concrete type of its input, and checking
// declared types against actual ones.
//
// It is deliberately not a full type inference system. Transforms declare
// types, construction matches and substitutes them, and nothing more.
package hints

import "strings"

// Type is an element type tag. The zero value is the unset type.
//
// A Type is either a type variable (Var set), or a named type with optional
// type arguments, such as "list" of "T". Any is the named type compatible
// with everything.
type Type struct {
	Name string
	Var  bool
	Args []Type
}

// Any is compatible with every type.
var Any = Type{Name: "any"}

// Named returns the named type with the given type arguments.
func Named(name string, args ...Type) Type {
	return Type{Name: name, Args: args}
}

// Variable returns a type variable with the given name.
func Variable(name string) Type {
	return Type{Name: name, Var: true}
}

// IsValid reports whether t is set.
func (t Type) IsValid() bool {
	return t.Name != ""
}

// IsAny reports whether t is the Any type.
func (t Type) IsAny() bool {
	return !t.Var && t.Name == Any.Name && len(t.Args) == 0
}

func (t Type) String() string {
	if !t.IsValid() {
		return "<unset>"
	}
	if len(t.Args) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return t.Name + "[" + strings.Join(parts, ",") + "]"
}

// Equal reports structural equality of two types.
func (t Type) Equal(o Type) bool {
	if t.Name != o.Name || t.Var != o.Var || len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// Match binds the type variables occurring in declared to the corresponding
// parts of concrete. Unmatchable structure contributes no bindings; matching
// is best effort since declared hints may be broader than the actual type.
func Match(declared, concrete Type) map[string]Type {
	bindings := map[string]Type{}
	match(declared, concrete, bindings)
	return bindings
}

func match(declared, concrete Type, bindings map[string]Type) {
	if !declared.IsValid() || !concrete.IsValid() {
		return
	}
	if declared.Var {
		if _, ok := bindings[declared.Name]; !ok {
			bindings[declared.Name] = concrete
		}
		return
	}
	if declared.Name != concrete.Name || len(declared.Args) != len(concrete.Args) {
		return
	}
	for i := range declared.Args {
		match(declared.Args[i], concrete.Args[i], bindings)
	}
}

// Bind substitutes bound type variables in t. Unbound variables are replaced
// with Any so the result is always concrete.
func Bind(t Type, bindings map[string]Type) Type {
	if !t.IsValid() {
		return t
	}
	if t.Var {
		if b, ok := bindings[t.Name]; ok {
			return b
		}
		return Any
	}
	if len(t.Args) == 0 {
		return t
	}
	args := make([]Type, len(t.Args))
	for i, a := range t.Args {
		args[i] = Bind(a, bindings)
	}
	return Type{Name: t.Name, Args: args}
}

// Compatible reports whether an actual type satisfies a declared type.
// Any on either side, unset types, and type variables match everything.
func Compatible(declared, actual Type) bool {
	if !declared.IsValid() || !actual.IsValid() {
		return true
	}
	if declared.Var || actual.Var || declared.IsAny() || actual.IsAny() {
		return true
	}
	if declared.Name != actual.Name || len(declared.Args) != len(actual.Args) {
		return false
	}
	for i := range declared.Args {
		if !Compatible(declared.Args[i], actual.Args[i]) {
			return false
		}
	}
	return true
}

// Hints carries the type declarations of one transform.
type Hints struct {
	// InputTypes are the declared types of the main inputs, positionally.
	InputTypes []Type
	// OutputTypes are the declared types of the outputs, positionally.
	OutputTypes []Type
	// LabeledOutputs maps a transform label to a declared output type,
	// taking precedence over OutputTypes for that label.
	LabeledOutputs map[string]Type
}

// WithInputTypes returns a copy of h declaring the given input types.
func (h Hints) WithInputTypes(ts ...Type) Hints {
	h.InputTypes = ts
	return h
}

// WithOutputTypes returns a copy of h declaring the given output types.
func (h Hints) WithOutputTypes(ts ...Type) Hints {
	h.OutputTypes = ts
	return h
}

// SimpleOutputType returns the single declared output type for the given
// label, if there is one.
func (h Hints) SimpleOutputType(label string) (Type, bool) {
	if t, ok := h.LabeledOutputs[label]; ok {
		return t, true
	}
	if len(h.OutputTypes) == 1 {
		return h.OutputTypes[0], true
	}
	return Type{}, false
}

// HasOutputTypes reports whether any output type was declared.
func (h Hints) HasOutputTypes() bool {
	return len(h.OutputTypes) > 0 || len(h.LabeledOutputs) > 0
}
