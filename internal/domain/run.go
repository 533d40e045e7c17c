package domain

import (
	"math"
	"time"
)

// PassThreshold is the compliance score at or above which a generated
// message is classified as Passed. Fixed policy, not configurable.
const PassThreshold = 80

// MessageStatus is the compliance classification of a generated message.
type MessageStatus string

const (
	MessagePassed MessageStatus = "Passed"
	MessageFailed MessageStatus = "Failed"
)

// ClassifyScore maps a compliance score to its status. Status is always a
// pure function of the score; it is never set independently.
func ClassifyScore(complianceScore int) MessageStatus {
	if complianceScore >= PassThreshold {
		return MessagePassed
	}
	return MessageFailed
}

// GeneratedMessage is one per-customer result of a generation run.
// RowNumber is 1-based, matches the row's position in the uploaded dataset,
// and is the identity used for lookups and edits. Only Content is mutable
// after creation (via manual edit).
type GeneratedMessage struct {
	CustomerID      string        `json:"customer_id"`
	CustomerName    string        `json:"customer_name"`
	RowNumber       int           `json:"row_number"`
	Content         string        `json:"content"`
	ComplianceScore int           `json:"compliance_score"`
	AIConfidence    int           `json:"ai_confidence"`
	Status          MessageStatus `json:"status"`
	Reasoning       string        `json:"reasoning"`
}

// RunState enumerates the lifecycle states of the generation workflow.
type RunState string

const (
	RunIdle        RunState = "idle"
	RunConfiguring RunState = "configuring"
	RunGenerating  RunState = "generating"
	RunCompleted   RunState = "completed"
	RunFailed      RunState = "failed"
)

// GenerationRun is the ordered set of results from one end-to-end execution
// of the campaign workflow. Append-only while generating; message content is
// editable after completion.
type GenerationRun struct {
	ID         string             `json:"id"`
	State      RunState           `json:"state"`
	FileName   string             `json:"file_name"`
	TotalRows  int                `json:"total_rows"`
	Messages   []GeneratedMessage `json:"messages"`
	Error      string             `json:"error,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
}

// RunSummary holds the aggregate counts shown on the review screen.
type RunSummary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	AvgScore int `json:"avg_score"`
}

// Summary computes the review counts. The average compliance score is
// rounded to the nearest integer.
func (r *GenerationRun) Summary() RunSummary {
	s := RunSummary{Total: len(r.Messages)}
	if s.Total == 0 {
		return s
	}
	sum := 0
	for _, m := range r.Messages {
		sum += m.ComplianceScore
		if m.Status == MessagePassed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	s.AvgScore = int(math.Round(float64(sum) / float64(s.Total)))
	return s
}

// MessageByRow returns the message with the given row number, or nil.
func (r *GenerationRun) MessageByRow(rowNumber int) *GeneratedMessage {
	for i := range r.Messages {
		if r.Messages[i].RowNumber == rowNumber {
			return &r.Messages[i]
		}
	}
	return nil
}
