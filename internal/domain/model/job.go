// Package model defines the core data types used throughout the reviewgate relay.
package model

import (
	"strings"
	"time"
)

// JobStatus represents the current status of a relay job.
type JobStatus string

const (
	// JobStatusPending indicates a job has been accepted but not yet submitted upstream.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates a job is being processed by the analysis service.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the analysis finished successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the analysis failed or timed out.
	JobStatusFailed JobStatus = "failed"
	// JobStatusCancelled indicates the job was cancelled by the client.
	JobStatusCancelled JobStatus = "cancelled"
)

// Valid returns true if the JobStatus is one of the known states.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s == JobStatusRunning || s == JobStatusCompleted ||
		s == JobStatusFailed || s == JobStatusCancelled
}

// Terminal returns true if no further status transition can occur.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// UnmarshalText implements encoding.TextUnmarshaler so upstream poll
// responses with unexpected casing still map onto known states.
func (s *JobStatus) UnmarshalText(text []byte) error {
	*s = JobStatus(strings.ToLower(strings.TrimSpace(string(text))))
	return nil
}

// Job is a single client-submitted unit of asynchronous analysis work.
// Records are owned by the job store for their lifetime; callers only ever
// see snapshots produced by Clone.
type Job struct {
	ID        string      `json:"job_id"`
	Status    JobStatus   `json:"status"`
	Logs      []string    `json:"logs"`
	Result    *ScanResult `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// AppendLog appends a human-readable progress line. Insertion order is
// significant; clients render logs as a progressive feed.
func (j *Job) AppendLog(line string) {
	j.Logs = append(j.Logs, line)
}

// LastLog returns the most recent log line, or "" when none exist.
func (j *Job) LastLog() string {
	if len(j.Logs) == 0 {
		return ""
	}
	return j.Logs[len(j.Logs)-1]
}

// Clone returns a deep copy safe to hand outside the store's lock.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	out.Logs = append([]string(nil), j.Logs...)
	out.Result = j.Result.Clone()
	return &out
}

// ScanResult is the analysis payload produced by the upstream service.
// The relay transports it verbatim and never interprets its contents.
type ScanResult struct {
	Findings []Finding     `json:"findings"`
	Fixes    []FixProposal `json:"fixes"`
}

// Clone returns a deep copy of the result payload.
func (r *ScanResult) Clone() *ScanResult {
	if r == nil {
		return nil
	}
	out := &ScanResult{}
	out.Findings = append([]Finding(nil), r.Findings...)
	out.Fixes = append([]FixProposal(nil), r.Fixes...)
	return out
}

// Finding is a single analysis finding reported by the upstream service.
type Finding struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	RuleID   string `json:"rule_id"`
}

// FixProposal is a proposed code change reported by the upstream service.
type FixProposal struct {
	Filename        string `json:"filename"`
	OriginalContent string `json:"original_content"`
	NewContent      string `json:"new_content"`
	UnifiedDiff     string `json:"unified_diff"`
}
