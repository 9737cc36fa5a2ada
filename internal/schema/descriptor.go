// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the NodeDescriptor, the normalized and validated schema of
// one node exposed to the visual graph.
//
// A descriptor is derived from a discovered member and its markers by the
// Builder, and is immutable afterwards. The category index reads descriptors
// to build the editor menu; the adapter emitter reads them to generate the
// invocation binding. Neither consumer has to look at markers again.
package schema

import (
	"github.com/vk/graphbridge/internal/menupath"
	"github.com/vk/graphbridge/internal/registry"
	"github.com/vk/graphbridge/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// Well-known port names.
const (
	ReturnPortName   = "return"
	PropertyPortName = "value"
	ImplicitNextName = "next"
)

// Accessor distinguishes the get and set descriptors of a property.
type Accessor int

const (
	AccessorNone Accessor = iota
	AccessorGet
	AccessorSet
)

func (a Accessor) String() string {
	switch a {
	case AccessorGet:
		return "get"
	case AccessorSet:
		return "set"
	default:
		return "none"
	}
}

// Range is a presentation range for numeric ports. It is never enforced.
type Range struct {
	Min float64
	Max float64
}

// PortDescriptor is one input or output port.
type PortDescriptor struct {
	// Name is the binding key: the parameter name, ReturnPortName or
	// PropertyPortName.
	Name        string
	DisplayName string
	Tooltip     string
	// ValueType may be a type variable on constrained generic ports.
	ValueType valuetype.Type
	// Default is cty.NilVal when the port has no default.
	Default cty.Value
	Hidden  bool
	Range   *Range
	// Constraint is the allowed set for a generic port, nil otherwise.
	Constraint []valuetype.Type
}

// HasDefault reports whether the port declares a default value.
func (p PortDescriptor) HasDefault() bool {
	return p.Default != cty.NilVal
}

// IsGeneric reports whether the port's type depends on a type parameter.
func (p PortDescriptor) IsGeneric() bool {
	return len(p.ValueType.Vars()) > 0
}

// FlowPortDescriptor is an execution successor. Its position in
// NodeDescriptor.FlowOutputs is its dispatch index.
type FlowPortDescriptor struct {
	Name    string
	Tooltip string
}

// TypeParam is a generic parameter narrowed by a type constraint.
type TypeParam struct {
	Name    string
	Allowed []valuetype.Type
}

// Metadata is presentation data for the editor.
type Metadata struct {
	Icon           string
	Color          string
	Tooltip        string
	Category       string
	Searchable     bool
	SearchKeywords []string
	Priority       int
	Networked      bool
}

// NodeDescriptor is one exposed callable unit.
type NodeDescriptor struct {
	// ID is the descriptor identity, unique across a build. It equals the
	// member identity except for property accessors, which append "#get" or
	// "#set".
	ID          string
	MemberID    string
	MenuPath    string
	Path        menupath.Path
	DisplayName string
	Kind        registry.MemberKind
	Accessor    Accessor
	IsFlowNode  bool
	// HasReturn is true when Outputs[0] carries the primary return value.
	HasReturn   bool
	Inputs      []PortDescriptor
	Outputs     []PortDescriptor
	FlowOutputs []FlowPortDescriptor
	TypeParams  []TypeParam
	Metadata    Metadata
}

// Input finds an input port by name.
func (d *NodeDescriptor) Input(name string) (PortDescriptor, bool) {
	return findPort(d.Inputs, name)
}

// Output finds an output port by name.
func (d *NodeDescriptor) Output(name string) (PortDescriptor, bool) {
	return findPort(d.Outputs, name)
}

func findPort(ports []PortDescriptor, name string) (PortDescriptor, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}
	return PortDescriptor{}, false
}

// IsGeneric reports whether the descriptor has type parameters.
func (d *NodeDescriptor) IsGeneric() bool {
	return len(d.TypeParams) > 0
}

// BranchesOnReturn reports whether the primary return value selects the
// successor: a flow node with a numeric return and at least two declared
// flow outputs. A generic return counts as numeric when every allowed type
// is. The selected index must be whole and in range.
func (d *NodeDescriptor) BranchesOnReturn() bool {
	if !d.IsFlowNode || !d.HasReturn || len(d.FlowOutputs) < 2 {
		return false
	}
	ret := d.Outputs[0]
	if !ret.ValueType.IsVar() {
		return ret.ValueType.IsNumeric()
	}
	if len(ret.Constraint) == 0 {
		return false
	}
	for _, t := range ret.Constraint {
		if !t.IsNumeric() {
			return false
		}
	}
	return true
}

// Successors returns the execution successors of a flow node. A flow node
// without declared flow outputs has a single implicit "next" successor; a
// non-flow node has none.
func (d *NodeDescriptor) Successors() []FlowPortDescriptor {
	if !d.IsFlowNode {
		return nil
	}
	if len(d.FlowOutputs) == 0 {
		return []FlowPortDescriptor{{Name: ImplicitNextName}}
	}
	return d.FlowOutputs
}
