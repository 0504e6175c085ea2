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

// Package pipeline builds deferred computation graphs for distributed data
// processing. Callers describe a pipeline of transforms without executing any
// of them; the resulting directed acyclic graph is handed to a pluggable
// runner for actual execution.
//
// A Pipeline holds a DAG whose nodes are transform applications
// (AppliedPTransform) and whose edges are deferred values (PValue, usually
// PCollection). Apply records one application: it claims a unique
// hierarchical label, normalizes the input structure, delegates output
// construction to the runner's apply hook, and attributes produced values to
// their real producer. Composite transforms apply further transforms from
// their Expand bodies, nesting applications into a tree.
//
// The finished DAG is traversed depth-first through the PipelineVisitor
// protocol, dependencies before dependents, each node and value at most
// once. Traversal can cover the whole pipeline or just the subgraph needed
// to materialize one value.
//
// Construction performs no element processing and no I/O; every error it
// reports is a defect in the pipeline being built.
package pipeline
