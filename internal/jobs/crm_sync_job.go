package jobs

import (
	"context"
	"sync"
	"time"

	"bid-qualification-service/internal/crm"
	"bid-qualification-service/internal/models"
	"bid-qualification-service/internal/repository"
	"bid-qualification-service/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CRMSyncJob polls the CRM on a schedule and feeds new and changed
// opportunities into the ingestion service. Every run is recorded as a
// SyncLog row, including failed ones.
type CRMSyncJob struct {
	client   crm.Client
	ingest   *services.IngestService
	repo     repository.OpportunityRepositoryInterface
	source   string
	schedule string
	cron     *cron.Cron
	logger   *logrus.Entry

	mu      sync.Mutex
	lastRun time.Time
}

// NewCRMSyncJob creates a new CRMSyncJob
func NewCRMSyncJob(client crm.Client, ingest *services.IngestService, repo repository.OpportunityRepositoryInterface, source, schedule string, logger *logrus.Logger) *CRMSyncJob {
	return &CRMSyncJob{
		client:   client,
		ingest:   ingest,
		repo:     repo,
		source:   source,
		schedule: schedule,
		logger:   logger.WithField("component", "crm-sync-job"),
	}
}

// Start schedules the poll loop.
func (j *CRMSyncJob) Start() error {
	j.cron = cron.New()
	if _, err := j.cron.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := j.RunOnce(ctx); err != nil {
			j.logger.WithError(err).Error("CRM sync run failed")
		}
	}); err != nil {
		return err
	}
	j.cron.Start()
	j.logger.WithField("schedule", j.schedule).Info("CRM sync job started")
	return nil
}

// Stop halts the poll loop, waiting for an in-flight run to finish.
func (j *CRMSyncJob) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
	j.logger.Info("CRM sync job stopped")
}

// RunOnce executes a single fetch-and-ingest cycle.
func (j *CRMSyncJob) RunOnce(ctx context.Context) (*services.IngestSummary, error) {
	j.mu.Lock()
	since := j.lastRun
	started := time.Now()
	j.mu.Unlock()

	syncLog := &models.SyncLog{Source: j.source, StartedAt: started}
	if err := j.repo.CreateSyncLog(ctx, syncLog); err != nil {
		return nil, err
	}

	finish := func(summary *services.IngestSummary, runErr error) {
		now := time.Now()
		syncLog.FinishedAt = &now
		if summary != nil {
			syncLog.Fetched = summary.Fetched
			syncLog.Created = summary.Created
			syncLog.Updated = summary.Updated
			syncLog.Failed = summary.Failed
		}
		if runErr != nil {
			syncLog.Error = runErr.Error()
		}
		if err := j.repo.UpdateSyncLog(ctx, syncLog); err != nil {
			j.logger.WithError(err).Error("Failed to record sync outcome")
		}
	}

	records, err := j.client.FetchOpportunities(ctx, since)
	if err != nil {
		finish(nil, err)
		return nil, err
	}

	summary, err := j.ingest.Ingest(ctx, j.source, records)
	finish(summary, err)
	if err != nil {
		return nil, err
	}

	j.mu.Lock()
	j.lastRun = started
	j.mu.Unlock()

	return summary, nil
}
