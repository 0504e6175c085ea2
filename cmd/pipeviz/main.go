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

// pipeviz constructs a small demonstration pipeline and prints it, either as
// a DOT digraph or as a JSON snapshot. Nothing is executed; the tool only
// exercises deferred construction and traversal.
package main

import (
	"flag"
	"fmt"
	"os"

	"lostluck.dev/pipeline-go"
	"lostluck.dev/pipeline-go/graphx"
	"lostluck.dev/pipeline-go/hints"
	"lostluck.dev/pipeline-go/runners/dot"
	_ "lostluck.dev/pipeline-go/runners/plan"
)

// Config handles configuring the tool.
type Config struct {
	Format string
}

func initFlags() *Config {
	var cfg Config
	flag.StringVar(&cfg.Format, "format", "dot", "output format: dot or json")
	return &cfg
}

// source is a root primitive producing a collection of raw lines.
type source struct {
	pipeline.TransformBase
}

func newSource(label string) *source {
	return &source{TransformBase: pipeline.TransformBase{
		TransformLabel: label,
		TypeDecls:      hints.Hints{}.WithOutputTypes(hints.Named("string")),
	}}
}

func (s *source) Clone(label string) pipeline.Transform {
	cp := *s
	cp.TransformLabel = label
	return &cp
}

func (s *source) Expand(p *pipeline.Pipeline, _ pipeline.PValueish) (pipeline.PValueish, error) {
	return pipeline.NewPCollection(p), nil
}

// mapper is a primitive transforming one collection into another.
type mapper struct {
	pipeline.TransformBase
}

func newMapper(label string, in, out hints.Type) *mapper {
	return &mapper{TransformBase: pipeline.TransformBase{
		TransformLabel: label,
		TypeDecls:      hints.Hints{}.WithInputTypes(in).WithOutputTypes(out),
	}}
}

func (m *mapper) Clone(label string) pipeline.Transform {
	cp := *m
	cp.TransformLabel = label
	return &cp
}

func (m *mapper) Expand(p *pipeline.Pipeline, _ pipeline.PValueish) (pipeline.PValueish, error) {
	return pipeline.NewPCollection(p), nil
}

// countTerms is a composite delegating to an extract and a count step.
type countTerms struct {
	pipeline.TransformBase
}

func (c *countTerms) Clone(label string) pipeline.Transform {
	cp := *c
	cp.TransformLabel = label
	return &cp
}

func (c *countTerms) Expand(p *pipeline.Pipeline, input pipeline.PValueish) (pipeline.PValueish, error) {
	words, err := p.Apply(newMapper("Extract", hints.Named("string"), hints.Named("string")), input)
	if err != nil {
		return nil, err
	}
	return p.Apply(newMapper("Count", hints.Named("string"), hints.Named("kv", hints.Named("string"), hints.Named("int"))), words)
}

func build() (*pipeline.Pipeline, error) {
	p, err := pipeline.NewPipeline(pipeline.Name("pipeviz-demo"), pipeline.Runner("plan"))
	if err != nil {
		return nil, err
	}
	lines, err := p.Apply(newSource("ReadLines"), nil)
	if err != nil {
		return nil, err
	}
	counts, err := p.Apply(&countTerms{TransformBase: pipeline.TransformBase{TransformLabel: "CountTerms"}}, lines)
	if err != nil {
		return nil, err
	}
	format := hints.Named("kv", hints.Named("string"), hints.Named("int"))
	if _, err := p.Apply(newMapper("FormatOutput", format, hints.Named("string")), counts); err != nil {
		return nil, err
	}
	return p, nil
}

func main() {
	cfg := initFlags()
	flag.Parse()

	p, err := build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	switch cfg.Format {
	case "dot":
		if err := dot.Render(p, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "json":
		data, err := graphx.Marshal(p)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q\n", cfg.Format)
		os.Exit(1)
	}
}
