package domain

import (
	"fmt"
	"strings"
)

// TaskType names one of the three briefing products.
type TaskType string

const (
	TaskMorning   TaskType = "morning"
	TaskAfternoon TaskType = "afternoon"
	TaskEvening   TaskType = "evening"
)

// TaskTypes lists every known task in schedule order.
var TaskTypes = []TaskType{TaskMorning, TaskAfternoon, TaskEvening}

// ParseTaskType matches a task name case-insensitively.
func ParseTaskType(value string) (TaskType, error) {
	normalized := TaskType(strings.ToLower(strings.TrimSpace(value)))
	for _, task := range TaskTypes {
		if task == normalized {
			return task, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTask, value)
}

// Status is the lifecycle state of a content record.
type Status string

const (
	StatusPending     Status = "Pending"
	StatusApproved    Status = "Approved"
	StatusReject      Status = "Reject"
	StatusSent        Status = "Sent"
	StatusRegenerated Status = "Regenerated"
)

var knownStatuses = []Status{StatusPending, StatusApproved, StatusReject, StatusSent, StatusRegenerated}

// ParseStatus canonicalizes a status cell. Reviewers type by hand, so the
// match ignores case and surrounding whitespace; unknown values are kept
// verbatim and are never acted upon.
func ParseStatus(value string) Status {
	trimmed := strings.TrimSpace(value)
	for _, status := range knownStatuses {
		if strings.EqualFold(trimmed, string(status)) {
			return status
		}
	}
	return Status(trimmed)
}

// Terminal reports whether no further transition may leave this status.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusRegenerated
}

// SendEligible reports whether the dispatcher may deliver a record in this
// status. Pending counts: records go out unless a reviewer objects.
func (s Status) SendEligible() bool {
	return s == StatusApproved || s == StatusPending
}

// ContentRecord is one generated item staged for review and delivery.
type ContentRecord struct {
	Date    string
	Task    TaskType
	Subject string
	Body    string
	Status  Status
}

// Record columns, 1-indexed as in the sheet.
const (
	ColumnDate = iota + 1
	ColumnTask
	ColumnSubject
	ColumnBody
	ColumnStatus

	RecordColumns = ColumnStatus
)

// RecordHeader is written to an empty record sheet.
var RecordHeader = []string{"Date", "Task", "Subject", "Content", "Status"}

// Cells renders the record in sheet column order.
func (r ContentRecord) Cells() []string {
	return []string{r.Date, string(r.Task), r.Subject, r.Body, string(r.Status)}
}

// RecordFromCells parses a sheet row. Rows with fewer than five cells are
// malformed; the task column is kept lowercase but otherwise unvalidated.
func RecordFromCells(cells []string) (ContentRecord, error) {
	if len(cells) < RecordColumns {
		return ContentRecord{}, fmt.Errorf("%w: %d of %d columns", ErrMalformedRow, len(cells), RecordColumns)
	}
	return ContentRecord{
		Date:    strings.TrimSpace(cells[ColumnDate-1]),
		Task:    TaskType(strings.ToLower(strings.TrimSpace(cells[ColumnTask-1]))),
		Subject: cells[ColumnSubject-1],
		Body:    cells[ColumnBody-1],
		Status:  ParseStatus(cells[ColumnStatus-1]),
	}, nil
}
