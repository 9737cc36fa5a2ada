// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the markers: declarative descriptors a source author
// attaches to a member (or to a parameter of a member) to expose it as a node
// in the visual graph.
//
// Markers are pure data. They carry no behavior and no validation; every rule
// about legal combinations lives in the discovery and schema packages.
package marker

import (
	"github.com/vk/graphbridge/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// DefaultPriority is the priority of a category without an explicit one.
const DefaultPriority = 100

// ReturnPort is the parameter name an Output marker uses to address the
// primary return value of a method.
const ReturnPort = "return"

// Kind identifies the concrete type of a Marker.
type Kind int

const (
	KindNode Kind = iota
	KindInput
	KindOutput
	KindFlowOutput
	KindTypeConstraint
	KindProperty
	KindEvent
	KindCategory
)

var kindNames = [...]string{"node", "input", "output", "flow_output", "type_constraint", "property", "event", "category"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Marker is implemented by every marker type in this package.
type Marker interface {
	Kind() Kind
}

// Exposing reports whether m exposes its member as a node on its own.
func Exposing(m Marker) bool {
	switch m.Kind() {
	case KindNode, KindProperty, KindEvent:
		return true
	}
	return false
}

// Node exposes a method as a node.
type Node struct {
	MenuPath string
	Icon     string
	// Flow is nil when unset; nodes are flow nodes by default.
	Flow    *bool
	Color   string
	Tooltip string
	// Category overrides the category name reported in node metadata.
	Category string
	// Searchable is nil when unset; nodes are searchable by default.
	Searchable     *bool
	SearchKeywords []string
}

func (Node) Kind() Kind { return KindNode }

// IsFlowNode reports whether the node has execution ports.
func (n Node) IsFlowNode() bool { return n.Flow == nil || *n.Flow }

// IsSearchable reports whether the node takes part in keyword search.
func (n Node) IsSearchable() bool { return n.Searchable == nil || *n.Searchable }

// Input describes the input port bound to one parameter.
type Input struct {
	Param       string
	DisplayName string
	// Default is nil when no default is declared.
	Default *cty.Value
	Hidden  bool
	Tooltip string
	// Min and Max are presentation bounds only.
	Min *float64
	Max *float64
}

func (Input) Kind() Kind { return KindInput }

// Output describes the output port bound to an out-parameter or, when Param
// is ReturnPort, to the primary return value.
type Output struct {
	Param       string
	DisplayName string
	Tooltip     string
}

func (Output) Kind() Kind { return KindOutput }

// FlowOutput declares one execution successor. Declaration order is the
// dispatch index order.
type FlowOutput struct {
	Name    string
	Tooltip string
}

func (FlowOutput) Kind() Kind { return KindFlowOutput }

// TypeConstraint narrows the type parameter Param to an ordered set of
// concrete types.
type TypeConstraint struct {
	Param string
	Types []valuetype.Type
}

func (TypeConstraint) Kind() Kind { return KindTypeConstraint }

// Property exposes a property as a get node and, unless ReadOnly, a set node.
type Property struct {
	MenuPath string
	ReadOnly bool
	Icon     string
	Tooltip  string
}

func (Property) Kind() Kind { return KindProperty }

// Event exposes an event as an entry node.
type Event struct {
	MenuPath string
	Icon     string
	Tooltip  string
	// Networked is passed through to node metadata and never interpreted.
	Networked bool
}

func (Event) Kind() Kind { return KindEvent }

// Category supplies presentation overrides for a menu path.
type Category struct {
	Path string
	Icon string
	// Priority is nil when unset; lower sorts first.
	Priority *int
}

func (Category) Kind() Kind { return KindCategory }

// EffectivePriority returns Priority or DefaultPriority when unset.
func (c Category) EffectivePriority() int {
	if c.Priority == nil {
		return DefaultPriority
	}
	return *c.Priority
}

// Ptr returns a pointer to v. It is a convenience for the optional marker
// fields.
func Ptr[T any](v T) *T {
	return &v
}
