package models

import "time"

// VersionStatus represents the lifecycle state of a workflow version.
type VersionStatus string

const (
	VersionStatusDraft    VersionStatus = "draft"    // Compiled, never served
	VersionStatusActive   VersionStatus = "active"   // The single live version for the bot
	VersionStatusInactive VersionStatus = "inactive" // Demoted from active, rollback candidate
	VersionStatusArchived VersionStatus = "archived" // Removed from the rollback candidate set
)

// WorkflowVersion is one immutable, numbered compilation of a blueprint for a
// bot. The blueprint snapshot and compiled document never change after
// creation; a change always produces a new version number.
type WorkflowVersion struct {
	BotID             string            `json:"bot_id"`
	Version           int               `json:"version"`
	Status            VersionStatus     `json:"status"`
	BlueprintSnapshot *Blueprint        `json:"blueprint_snapshot"`
	CompiledDocument  *CompiledDocument `json:"compiled_document"`
	CreatedAt         time.Time         `json:"created_at"`
	ActivatedAt       *time.Time        `json:"activated_at,omitempty"`
	ArchivedAt        *time.Time        `json:"archived_at,omitempty"`
}

// WasActivated reports whether the version has ever been live.
func (v *WorkflowVersion) WasActivated() bool {
	return v.ActivatedAt != nil
}

// VersionSummary is the listing view of a version, without the blueprint and
// compiled document payloads.
type VersionSummary struct {
	BotID       string        `json:"bot_id"`
	Version     int           `json:"version"`
	Status      VersionStatus `json:"status"`
	NodeCount   int           `json:"node_count"`
	CreatedAt   time.Time     `json:"created_at"`
	ActivatedAt *time.Time    `json:"activated_at,omitempty"`
	ArchivedAt  *time.Time    `json:"archived_at,omitempty"`
}

// Summary builds the listing view for a version.
func (v *WorkflowVersion) Summary() *VersionSummary {
	summary := &VersionSummary{
		BotID:       v.BotID,
		Version:     v.Version,
		Status:      v.Status,
		CreatedAt:   v.CreatedAt,
		ActivatedAt: v.ActivatedAt,
		ArchivedAt:  v.ArchivedAt,
	}

	if v.CompiledDocument != nil {
		summary.NodeCount = len(v.CompiledDocument.Nodes)
	}

	return summary
}
