package models

import "fmt"

// OutcomeStatus tags a MoveOutcome.
type OutcomeStatus string

const (
	StatusMoved   OutcomeStatus = "moved"
	StatusSkipped OutcomeStatus = "skipped_no_rule"
	StatusFailed  OutcomeStatus = "failed"
	StatusIgnored OutcomeStatus = "ignored"
)

// Outcome is the result of processing a single file in a batch.
//
// Moved carries Destination. SkippedNoRule carries Reason and, when a
// discriminator was present, Observed. Failed carries ErrorKind, Detail and
// the Destination that was targeted (empty when the failure happened before
// routing).
type Outcome struct {
	File        string        `json:"file"`
	Status      OutcomeStatus `json:"status"`
	Destination string        `json:"destination,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	Observed    string        `json:"observed,omitempty"`
	ErrorKind   string        `json:"error_kind,omitempty"`
	Detail      string        `json:"detail,omitempty"`
}

// Moved builds a successful outcome.
func Moved(file, destination string) Outcome {
	return Outcome{File: file, Status: StatusMoved, Destination: destination}
}

// SkippedNoRule builds an outcome for a file no routing rule applies to.
func SkippedNoRule(file, kind, reason, observed string) Outcome {
	return Outcome{File: file, Status: StatusSkipped, ErrorKind: kind, Reason: reason, Observed: observed}
}

// Failed builds an outcome for a file whose processing or move failed.
func Failed(file, kind, destination, detail string) Outcome {
	return Outcome{File: file, Status: StatusFailed, ErrorKind: kind, Destination: destination, Detail: detail}
}

// Ignored builds an outcome for a file excluded silently by configuration.
func Ignored(file string) Outcome {
	return Outcome{File: file, Status: StatusIgnored}
}

// Describe renders the report descriptor "'<file>' | <reason/target>".
func (o Outcome) Describe() string {
	switch o.Status {
	case StatusMoved:
		return fmt.Sprintf("'%s' | Moved to '%s'", o.File, o.Destination)
	case StatusSkipped:
		if o.Observed != "" {
			return fmt.Sprintf("'%s' | %s: '%s'", o.File, o.Reason, o.Observed)
		}
		return fmt.Sprintf("'%s' | %s", o.File, o.Reason)
	case StatusFailed:
		if o.Destination != "" {
			return fmt.Sprintf("'%s' | Targeted folder: '%s' (%s)", o.File, o.Destination, o.ErrorKind)
		}
		return fmt.Sprintf("'%s' | %s: %s", o.File, o.ErrorKind, o.Detail)
	default:
		return fmt.Sprintf("'%s' | ignored", o.File)
	}
}
