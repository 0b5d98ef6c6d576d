// internal/database/models.go
package database

import (
	"time"
)

// HealthClass is the ordered verdict vocabulary shared by all evaluators.
type HealthClass string

const (
	HealthOffline  HealthClass = "offline"
	HealthCritical HealthClass = "critical"
	HealthWarning  HealthClass = "warning"
	HealthHealthy  HealthClass = "healthy"
	HealthUnknown  HealthClass = "unknown"
)

// HeartbeatRecord is the most recent liveness signal for one component.
// It is overwritten on every signal and expires after the store's
// heartbeat TTL; absence means "no recent signal", never "healthy".
type HeartbeatRecord struct {
	ComponentID   string    `json:"component_id"`
	ProcessExists bool      `json:"process_exists"`
	ObservedAt    time.Time `json:"observed_at"`
	DeclaredLevel *int      `json:"declared_level,omitempty"`
	ReceivedAt    time.Time `json:"received_at"`
}

// FileCheckResult is the verdict for a single monitored file.
type FileCheckResult struct {
	Path               string     `json:"path"`
	Role               string     `json:"role"`
	ExpectedUpdateRule string     `json:"expected_update_rule"`
	LastModified       *time.Time `json:"last_modified,omitempty"`
	FileSize           int64      `json:"file_size"`
	IsCompliant        bool       `json:"is_compliant"`
	NextExpectedUpdate time.Time  `json:"next_expected_update"`
	Alert              *string    `json:"alert,omitempty"`
}

// FileMonitorRecord holds one tick's file verdicts for a component.
// OverallOK is always the AND of Results, recomputed each tick.
type FileMonitorRecord struct {
	ComponentID string            `json:"component_id"`
	Results     []FileCheckResult `json:"results"`
	OverallOK   bool              `json:"overall_ok"`
	CheckedAt   time.Time         `json:"checked_at"`
}

// LevelComplianceRecord holds one tick's capability-level verdict.
// Compliant is always ObservedLevel == ExpectedLevel, never set
// independently of that equality.
type LevelComplianceRecord struct {
	ComponentID     string    `json:"component_id"`
	ExpectedLevel   int       `json:"expected_level"`
	ObservedLevel   int       `json:"observed_level"`
	DeclaredLevel   *int      `json:"declared_level,omitempty"`
	Compliant       bool      `json:"compliant"`
	MatchedRuleName *string   `json:"matched_rule_name,omitempty"`
	CheckedAt       time.Time `json:"checked_at"`
}

// ComponentStatus is the aggregated view of one component. It is computed
// on read, never persisted; any of the three record fields may be nil.
type ComponentStatus struct {
	ComponentID     string                 `json:"component_id"`
	Heartbeat       *HeartbeatRecord       `json:"heartbeat,omitempty"`
	HeartbeatHealth HealthClass            `json:"heartbeat_health"`
	Files           *FileMonitorRecord     `json:"files,omitempty"`
	Level           *LevelComplianceRecord `json:"level,omitempty"`
	Overall         HealthClass            `json:"overall"`
}

// StatusCounts tallies components per overall health class.
type StatusCounts struct {
	Healthy  int `json:"healthy"`
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
	Offline  int `json:"offline"`
	Unknown  int `json:"unknown"`
}

// FleetStatus is the fleet-wide aggregation result.
type FleetStatus struct {
	Components []ComponentStatus `json:"components"`
	Counts     StatusCounts      `json:"counts"`
	TotalCount int               `json:"total_count"`
	QueriedAt  time.Time         `json:"queried_at"`
}

// AlertEvent records one overall-status transition for a component.
type AlertEvent struct {
	ID          string      `json:"id"`
	ComponentID string      `json:"component_id"`
	From        HealthClass `json:"from"`
	To          HealthClass `json:"to"`
	Message     string      `json:"message"`
	CreatedAt   time.Time   `json:"created_at"`
}
