// Package queue defines message payloads exchanged over the message broker
// and the background consumer that audits them.
package queue

import (
	"time"

	"github.com/iliyamo/agrirelief/internal/model"
)

// ReportQueueName is the durable queue carrying report lifecycle events.
const ReportQueueName = "report.lifecycle"

// EventType names a report transition.
type EventType string

const (
	EventReportSubmitted EventType = "report.submitted"
	EventReportVerified  EventType = "report.verified"
	EventReportDeleted   EventType = "report.deleted"
)

// ReportEvent is published after a report transition has been applied.
// It carries enough of the report for downstream consumers to log, notify
// the division office or update analytics without querying the database.
type ReportEvent struct {
	Type       EventType `json:"type"`
	ReportID   string    `json:"report_id"`
	FarmerID   string    `json:"farmer_id"`
	ActorUID   string    `json:"actor_uid"`
	ActorRole  string    `json:"actor_role"`
	Province   string    `json:"province"`
	District   string    `json:"district"`
	DSDivision string    `json:"ds_division"`
	DamageType string    `json:"damage_type"`
	Severity   string    `json:"severity"`
	NeedsList  []string  `json:"needs_list"`
	Urgent     bool      `json:"urgent"`
	Status     string    `json:"status"`
	OccurredAt string    `json:"occurred_at"`
}

// NewReportEvent builds the event for a transition of r performed by the
// given actor.
func NewReportEvent(t EventType, r *model.DamageReport, actorUID string, actorRole model.Role, at time.Time) ReportEvent {
	return ReportEvent{
		Type:       t,
		ReportID:   r.ReportID,
		FarmerID:   r.FarmerID,
		ActorUID:   actorUID,
		ActorRole:  string(actorRole),
		Province:   r.Province,
		District:   r.District,
		DSDivision: r.DSDivision,
		DamageType: r.DamageType,
		Severity:   r.Severity,
		NeedsList:  r.NeedsList,
		Urgent:     r.Urgent,
		Status:     string(r.Status),
		OccurredAt: at.UTC().Format(time.RFC3339),
	}
}
