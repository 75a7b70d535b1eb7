package tessera

import "fmt"

// Severity ranks a diagnostic. Severities are load-bearing: an Error
// blocks the artifact for its node, Warning and Info never do.
type Severity string

const (
	// SeverityError marks a structural violation. The affected node
	// produces no artifact; unrelated nodes are not disturbed.
	SeverityError Severity = "error"

	// SeverityWarning marks an advisory finding, typically a missing
	// role marker that suggests a forgotten declaration.
	SeverityWarning Severity = "warning"

	// SeverityInfo marks informational output such as a one-way
	// conflict declaration. Downstream tooling treats Info as
	// pass-through metadata.
	SeverityInfo Severity = "info"
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// Code identifies a diagnostic in a fixed enumerated space. Codes are
// stable across releases so hosts can filter and suppress by code.
// The leading digit groups codes into families: T1xxx structural,
// T2xxx composition, T3xxx aggregation, T4xxx ordering.
type Code string

const (
	// CodeSelfReference: a relation targets its own declaring node.
	CodeSelfReference Code = "T1001"

	// CodeTargetKind: a relation targets a node of an illegal kind.
	CodeTargetKind Code = "T1002"

	// CodeTargetUnmarked: a relation target lacks the role marker the
	// relation kind expects.
	CodeTargetUnmarked Code = "T1003"

	// CodeSourceUnmarked: a node declares relations reserved for a
	// role it is not marked with.
	CodeSourceUnmarked Code = "T1004"

	// CodeOneWayConflict: a conflict declared on one side only.
	CodeOneWayConflict Code = "T1005"

	// CodeCompositionCycle: the node is part of a composition cycle.
	CodeCompositionCycle Code = "T2001"

	// CodeFieldConflict: two sources contribute the same field name to
	// one flattened closure.
	CodeFieldConflict Code = "T2002"

	// CodeBlockedSource: the node composes from a source that cannot
	// itself be flattened.
	CodeBlockedSource Code = "T2003"

	// CodeEmptyBundle: a bundle with zero qualifying fields.
	CodeEmptyBundle Code = "T3001"

	// CodeBundleMember: a bundle field whose type is not a component.
	CodeBundleMember Code = "T3002"

	// CodeContainmentCycle: the bundle is part of an aggregation cycle.
	CodeContainmentCycle Code = "T3003"

	// CodeOrderContradiction: one node orders itself both before and
	// after the same target.
	CodeOrderContradiction Code = "T4001"
)

// EdgeRef points a diagnostic at the offending relation: its kind, its
// target identity, and its position in the node's relation list.
type EdgeRef struct {
	Kind   EdgeKind `json:"kind"`
	Target string   `json:"target"`
	Index  int      `json:"index"`
}

// Diagnostic is one finding about one node. Diagnostics are values:
// the pass collects every finding for every node into a single flat,
// deterministically ordered list and never aborts early.
type Diagnostic struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Node     string   `json:"node"`
	Edge     *EdgeRef `json:"edge,omitempty"`
	Message  string   `json:"message"`
}

// String renders the diagnostic the way the CLI prints it:
//
//	error T2001 demo/A: composition cycle: demo/A → demo/B → demo/A
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s %s: %s", d.Severity, d.Code, d.Node, d.Message)
}

// IsError reports whether the diagnostic blocks artifact emission.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// Severity is fixed per code; rule sites use the constructor matching
// the code's severity.
func errorDiag(code Code, node string, edge *EdgeRef, format string, args ...any) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: SeverityError,
		Node:     node,
		Edge:     edge,
		Message:  fmt.Sprintf(format, args...),
	}
}

func warnDiag(code Code, node string, edge *EdgeRef, format string, args ...any) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: SeverityWarning,
		Node:     node,
		Edge:     edge,
		Message:  fmt.Sprintf(format, args...),
	}
}

func infoDiag(code Code, node string, edge *EdgeRef, format string, args ...any) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: SeverityInfo,
		Node:     node,
		Edge:     edge,
		Message:  fmt.Sprintf(format, args...),
	}
}
