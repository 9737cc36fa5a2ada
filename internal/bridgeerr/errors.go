// Package bridgeerr defines the error taxonomy shared by every stage of the
// bridge: discovery, schema validation, adapter binding and runtime dispatch.
//
// Build-time errors are always scoped to one member so a report can list them
// in aggregate while unrelated members keep compiling.
package bridgeerr

import (
	"fmt"
	"strings"
)

// DiscoveryError reports a member whose marker combination is conflicting or
// invalid. The member is excluded from further processing.
type DiscoveryError struct {
	Member string
	Reason string
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery: member '%s': %s", e.Member, e.Reason)
}

// Rule names a schema validation rule.
type Rule string

const (
	RuleInaccessible         Rule = "inaccessible"
	RuleUnsupportedType      Rule = "unsupported_type"
	RuleHiddenWithoutDefault Rule = "hidden_without_default"
	RuleDefaultNotAssignable Rule = "default_not_assignable"
	RuleEmptyConstraint      Rule = "empty_constraint"
	RuleUnboundConstraint    Rule = "unbound_constraint"
	RuleFlowOutputOnNonFlow  Rule = "flow_output_on_non_flow"
	RuleEmptyFlowOutputName  Rule = "empty_flow_output_name"
	RuleDuplicatePortName    Rule = "duplicate_port_name"
	RuleInvalidRange         Rule = "invalid_range"
	RuleInvalidMenuPath      Rule = "invalid_menu_path"
	RuleSignatureMismatch    Rule = "signature_mismatch"
)

// ValidationError reports a violated schema rule. The descriptor is rejected.
type ValidationError struct {
	Member string
	Rule   Rule
	// Port is the offending port, if the rule is port scoped.
	Port   string
	Detail string
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "validation: member '%s'", e.Member)
	if e.Port != "" {
		fmt.Fprintf(&sb, ", port '%s'", e.Port)
	}
	fmt.Fprintf(&sb, ": %s: %s", e.Rule, e.Detail)
	return sb.String()
}

// BindingError reports a constrained generic port bound to a type outside
// its allowed set. It is raised while selecting an adapter specialization,
// before anything executes.
type BindingError struct {
	Descriptor string
	Port       string
	Type       string
	Allowed    []string
	Detail     string
}

func (e *BindingError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("binding: node '%s', port '%s': %s", e.Descriptor, e.Port, e.Detail)
	}
	return fmt.Sprintf("binding: node '%s', port '%s': type %s is not one of [%s]",
		e.Descriptor, e.Port, e.Type, strings.Join(e.Allowed, ", "))
}

// FaultReason classifies a DispatchFault.
type FaultReason string

const (
	FaultSelectorOutOfRange FaultReason = "selector_out_of_range"
	FaultInvocationFailed   FaultReason = "invocation_failed"
	FaultMissingInput       FaultReason = "missing_input"
	FaultTypeMismatch       FaultReason = "type_mismatch"
)

// DispatchFault reports a failed execution of one node instance.
type DispatchFault struct {
	Descriptor string
	Reason     FaultReason
	Port       string
	// Selector is the returned ordinal for FaultSelectorOutOfRange.
	Selector int64
	// Successors is the number of flow outputs for FaultSelectorOutOfRange.
	Successors int
	Err        error
}

func (e *DispatchFault) Error() string {
	switch e.Reason {
	case FaultSelectorOutOfRange:
		return fmt.Sprintf("dispatch: node '%s': branch selector %d out of range [0, %d)", e.Descriptor, e.Selector, e.Successors)
	case FaultMissingInput:
		return fmt.Sprintf("dispatch: node '%s': required input '%s' is not bound", e.Descriptor, e.Port)
	case FaultTypeMismatch:
		return fmt.Sprintf("dispatch: node '%s': input '%s': %v", e.Descriptor, e.Port, e.Err)
	default:
		return fmt.Sprintf("dispatch: node '%s': %s: %v", e.Descriptor, e.Reason, e.Err)
	}
}

// Unwrap returns the underlying cause, if any.
func (e *DispatchFault) Unwrap() error {
	return e.Err
}
