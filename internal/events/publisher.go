package events

import (
	"encoding/json"
	"time"

	"bid-qualification-service/internal/models"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Subjects for opportunity lifecycle events. The CRM sync-back and export
// collaborators subscribe to these.
const (
	SubjectIngested      = "opportunity.ingested"
	SubjectAssigned      = "opportunity.assigned"
	SubjectSubmitted     = "opportunity.score_submitted"
	SubjectGateApproved  = "opportunity.gate_approved"
	SubjectGateRejected  = "opportunity.gate_rejected"
	SubjectFinalDecision = "opportunity.final_decision"
)

// OpportunityEvent is the wire payload published on every workflow change.
type OpportunityEvent struct {
	EventID        string    `json:"eventId"`
	EventType      string    `json:"eventType"`
	OpportunityID  string    `json:"opportunityId"`
	RemoteID       string    `json:"remoteId"`
	Source         string    `json:"source"`
	WorkflowStatus string    `json:"workflowStatus"`
	PreviousStatus string    `json:"previousStatus,omitempty"`
	ActorID        string    `json:"actorId,omitempty"`
	Role           string    `json:"role,omitempty"`
	Decision       string    `json:"decision,omitempty"`
	Comment        string    `json:"comment,omitempty"`
	VersionNo      int       `json:"versionNo"`
	Percentage     int       `json:"percentage,omitempty"`
	Verdict        string    `json:"verdict,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Publisher publishes opportunity events to NATS. A nil Publisher is safe to
// call; the service runs fine without a broker.
type Publisher struct {
	conn   *nats.Conn
	logger *logrus.Entry
}

// NewPublisher connects to NATS and returns a Publisher.
func NewPublisher(natsURL, name string, logger *logrus.Logger) (*Publisher, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		conn:   conn,
		logger: logger.WithField("component", "opportunity-events"),
	}, nil
}

// Close drains the NATS connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	_ = p.conn.Drain()
}

// Publish sends an opportunity event. Publishing is fire-and-forget on a
// background goroutine so workflow operations never block on the broker.
func (p *Publisher) Publish(subject string, opp *models.Opportunity, fill func(*OpportunityEvent)) {
	if p == nil || p.conn == nil {
		return
	}

	event := &OpportunityEvent{
		EventID:        uuid.New().String(),
		EventType:      subject,
		OpportunityID:  opp.ID.String(),
		RemoteID:       opp.RemoteID,
		Source:         opp.Source,
		WorkflowStatus: opp.WorkflowStatus,
		VersionNo:      opp.VersionNo,
		OccurredAt:     time.Now().UTC(),
	}
	if fill != nil {
		fill(event)
	}

	go func() {
		payload, err := json.Marshal(event)
		if err != nil {
			p.logger.WithError(err).Error("Failed to marshal opportunity event")
			return
		}
		if err := p.conn.Publish(subject, payload); err != nil {
			p.logger.WithFields(logrus.Fields{
				"subject":       subject,
				"opportunityId": event.OpportunityID,
			}).WithError(err).Error("Failed to publish opportunity event")
			return
		}
		p.logger.WithFields(logrus.Fields{
			"subject":       subject,
			"opportunityId": event.OpportunityID,
			"status":        event.WorkflowStatus,
		}).Info("Opportunity event published")
	}()
}
