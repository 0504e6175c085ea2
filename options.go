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
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
	"lostluck.dev/pipeline-go/internal/pipeopts"
)

// Options configure NewPipeline. Each constructor takes a variadic list of
// options, where properties set in later options override earlier ones.
type Options = pipeopts.Options

// Name sets the name of the pipeline, typically to make it easier to refer
// to in runner output.
func Name(name string) Options {
	return &pipeopts.Struct{Name: name}
}

// Runner selects a registered runner by name. Construction fails with
// ErrInvalidRunner when no runner is registered under the name.
func Runner(name string) Options {
	return &pipeopts.Struct{Runner: name}
}

// WithRunner supplies a runner instance directly, taking precedence over a
// Runner name.
func WithRunner(r PipelineRunner) Options {
	return &pipeopts.Struct{RunnerInst: r}
}

// DisableTypeChecking turns off construction time type checking. Checking is
// enabled by default.
func DisableTypeChecking() Options {
	return &pipeopts.Struct{NoTypeCheck: true}
}

// RequireOutputTypes makes hint declaration mandatory: every applied
// transform must declare an output type hint or Apply fails. This holds even
// when type checking itself is disabled.
func RequireOutputTypes() Options {
	return &pipeopts.Struct{Strictness: pipeopts.AllRequired}
}

// optionsFile is the recognized key schema for serialized options. Unknown
// keys are rejected at load time rather than tolerated lazily.
type optionsFile struct {
	Name               string `yaml:"name"`
	Runner             string `yaml:"runner"`
	NoTypeCheck        bool   `yaml:"disable_type_checking"`
	RequireOutputTypes bool   `yaml:"require_output_types"`
}

// OptionsFromYAML decodes pipeline options from YAML. Keys outside the
// recognized schema fail decoding immediately.
func OptionsFromYAML(data []byte) (Options, error) {
	var file optionsFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, errors.Wrap(err, "decoding pipeline options")
	}
	opt := &pipeopts.Struct{
		Name:        file.Name,
		Runner:      file.Runner,
		NoTypeCheck: file.NoTypeCheck,
	}
	if file.RequireOutputTypes {
		opt.Strictness = pipeopts.AllRequired
	}
	return opt, nil
}
