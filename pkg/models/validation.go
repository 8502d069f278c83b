package models

// Severity classifies a validation finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Validation finding codes.
const (
	FindingEmptyBlueprint     = "empty-blueprint"
	FindingUnknownNodeType    = "unknown-node-type"
	FindingInvalidNodeConfig  = "invalid-node-config"
	FindingUnknownEntryNode   = "unknown-entry-node"
	FindingDanglingEdge       = "dangling-edge"
	FindingDuplicateNodeID    = "duplicate-node-id"
	FindingDuplicateEdge      = "duplicate-edge"
	FindingMissingDefaultEdge = "missing-default-edge"
	FindingUnreachableNode    = "unreachable-node"
	FindingNoConditionalExit  = "no-conditional-exit"
	FindingUnknownIntegration = "unknown-integration"
)

// Finding is a single validation error or warning, attributed to a node or
// edge where possible.
type Finding struct {
	Code     string   `json:"code"`
	NodeID   string   `json:"node_id,omitempty"`
	EdgeID   string   `json:"edge_id,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// ValidationResult collects all findings for one blueprint. It is transient
// and never persisted. Valid is true iff no finding has error severity;
// warnings never block compilation.
type ValidationResult struct {
	Valid    bool      `json:"valid"`
	Findings []Finding `json:"findings"`
}

// AddError appends an error-severity finding and marks the result invalid.
func (r *ValidationResult) AddError(code, nodeID, edgeID, message string) {
	r.Valid = false
	r.Findings = append(r.Findings, Finding{
		Code:     code,
		NodeID:   nodeID,
		EdgeID:   edgeID,
		Message:  message,
		Severity: SeverityError,
	})
}

// AddWarning appends a warning-severity finding.
func (r *ValidationResult) AddWarning(code, nodeID, edgeID, message string) {
	r.Findings = append(r.Findings, Finding{
		Code:     code,
		NodeID:   nodeID,
		EdgeID:   edgeID,
		Message:  message,
		Severity: SeverityWarning,
	})
}

// Errors returns only the error-severity findings.
func (r *ValidationResult) Errors() []Finding {
	var errs []Finding

	for _, finding := range r.Findings {
		if finding.Severity == SeverityError {
			errs = append(errs, finding)
		}
	}

	return errs
}

// HasFinding reports whether any finding carries the given code.
func (r *ValidationResult) HasFinding(code string) bool {
	for _, finding := range r.Findings {
		if finding.Code == code {
			return true
		}
	}

	return false
}
