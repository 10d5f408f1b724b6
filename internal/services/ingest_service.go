package services

import (
	"context"
	"errors"
	"fmt"

	"bid-qualification-service/internal/crm"
	"bid-qualification-service/internal/events"
	"bid-qualification-service/internal/models"
	"bid-qualification-service/internal/repository"
	"github.com/sirupsen/logrus"
)

// IngestSummary reports the outcome of one ingestion run.
type IngestSummary struct {
	Fetched int      `json:"fetched"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// IngestService imports CRM opportunity records. The CRM owns the commercial
// attributes; the workflow state belongs to this service and is never touched
// by a sync.
type IngestService struct {
	repo      repository.OpportunityRepositoryInterface
	publisher *events.Publisher
	logger    *logrus.Logger
}

// NewIngestService creates a new IngestService
func NewIngestService(repo repository.OpportunityRepositoryInterface, publisher *events.Publisher, logger *logrus.Logger) *IngestService {
	if logger == nil {
		logger = logrus.New()
	}
	return &IngestService{repo: repo, publisher: publisher, logger: logger}
}

// Ingest upserts a batch of CRM records keyed by (source, remote_id). New
// records enter the pipeline at NEW; known records get their commercial
// attributes refreshed and nothing else. Per-record failures never abort the
// batch.
func (s *IngestService) Ingest(ctx context.Context, source string, records []crm.Record) (*IngestSummary, error) {
	if source == "" {
		return nil, &ValidationError{Field: "source", Message: "source is required"}
	}

	summary := &IngestSummary{Fetched: len(records)}
	for _, record := range records {
		if record.RemoteID == "" {
			summary.Failed++
			summary.Errors = append(summary.Errors, "record missing opportunity_id")
			continue
		}
		created, err := s.upsert(ctx, source, record)
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", record.RemoteID, err))
			s.logger.WithFields(logrus.Fields{
				"source":   source,
				"remoteId": record.RemoteID,
			}).WithError(err).Warn("Failed to ingest CRM record")
			continue
		}
		if created {
			summary.Created++
		} else {
			summary.Updated++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"source":  source,
		"fetched": summary.Fetched,
		"created": summary.Created,
		"updated": summary.Updated,
		"failed":  summary.Failed,
	}).Info("CRM ingestion run finished")

	return summary, nil
}

func (s *IngestService) upsert(ctx context.Context, source string, record crm.Record) (created bool, err error) {
	existing, err := s.repo.GetOpportunityByRemoteID(ctx, source, record.RemoteID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return false, err
		}

		origin := record.Origin
		if origin != models.OriginSalesLed {
			origin = models.OriginPracticeLed
		}
		currency := record.Currency
		if currency == "" {
			currency = "USD"
		}
		opp := &models.Opportunity{
			RemoteID:       record.RemoteID,
			Source:         source,
			Customer:       record.Customer,
			Practice:       record.Practice,
			Region:         record.Region,
			DealValue:      record.DealValue,
			Currency:       currency,
			WinProbability: record.WinProbability,
			SalesStage:     record.SalesStage,
			CloseDate:      record.CloseDate,
			Origin:         origin,
			WorkflowStatus: models.StatusNew,
		}
		if err := s.repo.CreateOpportunity(ctx, opp); err != nil {
			return false, err
		}

		s.publisher.Publish(events.SubjectIngested, opp, nil)
		return true, nil
	}

	updates := map[string]interface{}{
		"customer":    record.Customer,
		"practice":    record.Practice,
		"region":      record.Region,
		"deal_value":  record.DealValue,
		"sales_stage": record.SalesStage,
	}
	if record.Currency != "" {
		updates["currency"] = record.Currency
	}
	if record.CloseDate != nil {
		updates["close_date"] = record.CloseDate
	}
	// The CRM's probability is only advisory before our first scored
	// submission; after that the workflow owns win_probability
	if existing.VersionNo == 0 {
		updates["win_probability"] = record.WinProbability
	}

	if err := s.repo.UpdateOpportunityFields(ctx, existing, updates); err != nil {
		return false, err
	}
	return false, nil
}
