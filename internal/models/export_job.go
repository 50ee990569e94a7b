package models

import "time"

// ExportKind selects which timetable an export renders.
type ExportKind string

const (
	ExportKindGroup   ExportKind = "group"
	ExportKindTeacher ExportKind = "teacher"
)

// ExportFormat is the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus tracks an export job through its lifecycle.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "queued"
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusFinished   ExportStatus = "finished"
	ExportStatusFailed     ExportStatus = "failed"
)

// ExportJob is a queued timetable rendering. Target is a group ID for group
// exports and a teacher name for teacher exports.
type ExportJob struct {
	ID         string       `json:"id"`
	Kind       ExportKind   `json:"kind"`
	Target     string       `json:"target"`
	Format     ExportFormat `json:"format"`
	Status     ExportStatus `json:"status"`
	Progress   int          `json:"progress"`
	ResultURL  string       `json:"result_url,omitempty"`
	Error      string       `json:"error,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
}
