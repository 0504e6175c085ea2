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

package pipeopts

import "lostluck.dev/pipeline-go/internal"

// Options is the common options type shared across pipeline packages.
type Options interface {
	// PipelineOptions is exported so related packages can implement Options.
	PipelineOptions(internal.NotForPublicUse)
}

// Strictness selects how demanding pipeline type checking is.
type Strictness int

const (
	// DefaultStrictness validates declared types against actual element
	// types, but tolerates transforms without output type hints.
	DefaultStrictness Strictness = iota
	// AllRequired additionally rejects any applied transform that does not
	// declare an output type hint.
	AllRequired
)

// Struct is the combination of all options in struct form.
// This is efficient to pass down the call stack and to query.
type Struct struct {
	Name string // The configured name of the pipeline. Otherwise it's autogenerated.

	Runner     string // The registered name of the runner to construct.
	RunnerInst any    // A caller provided runner instance. Takes precedence over Runner.

	NoTypeCheck bool       // Disables construction time type checking. Checking is on by default.
	Strictness  Strictness // How strict enabled type checking is.
}

func (dst *Struct) PipelineOptions(internal.NotForPublicUse) {}

func (dst *Struct) Join(srcs ...Options) {
	for _, src := range srcs {
		switch src := src.(type) {
		case *Struct:
			if src.Name != "" {
				dst.Name = src.Name
			}
			if src.Runner != "" {
				dst.Runner = src.Runner
			}
			if src.RunnerInst != nil {
				dst.RunnerInst = src.RunnerInst
			}
			if src.NoTypeCheck {
				dst.NoTypeCheck = true
			}
			if src.Strictness != DefaultStrictness {
				dst.Strictness = src.Strictness
			}
		}
	}
}
