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

// PipelineVisitor receives callbacks while a pipeline DAG is traversed
// depth-first. Embed DefaultVisitor to implement only the callbacks needed.
type PipelineVisitor interface {
	// VisitValue is called once per value, after the node producing it.
	VisitValue(value PValue, producer *AppliedPTransform)
	// VisitTransform is called once per primitive application.
	VisitTransform(node *AppliedPTransform)
	// EnterCompositeTransform is called before a composite's parts.
	EnterCompositeTransform(node *AppliedPTransform)
	// LeaveCompositeTransform is called after a composite's parts.
	LeaveCompositeTransform(node *AppliedPTransform)
}

// DefaultVisitor is a no-op PipelineVisitor for embedding.
type DefaultVisitor struct{}

func (DefaultVisitor) VisitValue(PValue, *AppliedPTransform)      {}
func (DefaultVisitor) VisitTransform(*AppliedPTransform)          {}
func (DefaultVisitor) EnterCompositeTransform(*AppliedPTransform) {}
func (DefaultVisitor) LeaveCompositeTransform(*AppliedPTransform) {}

var _ PipelineVisitor = DefaultVisitor{}
