// Package runner executes launched campaigns in the background
package runner

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sentinalgrid/sentinalgrid/app/services"
	"github.com/sentinalgrid/sentinalgrid/models"
	"github.com/sentinalgrid/sentinalgrid/repository"
	"github.com/sentinalgrid/sentinalgrid/utils"
)

// ModelProvider resolves the drafting model for each call
type ModelProvider interface {
	ActiveModel(ctx context.Context) string
}

// CampaignRunner drives one campaign run: draft, deliver, and persist status
// for every pending row, strictly in spreadsheet order.
type CampaignRunner struct {
	campaignRepo  repository.CampaignRepository
	rowRepo       repository.DataRowRepository
	auditRepo     repository.AuditLogRepository
	agent         services.AgentService
	messenger     services.DeliveryService
	modelProv     ModelProvider
	interRowDelay time.Duration
	logger        *log.Logger
}

// New creates a new campaign runner
func New(
	campaignRepo repository.CampaignRepository,
	rowRepo repository.DataRowRepository,
	auditRepo repository.AuditLogRepository,
	agent services.AgentService,
	messenger services.DeliveryService,
	modelProv ModelProvider,
	interRowDelay time.Duration,
	logger *log.Logger,
) *CampaignRunner {
	if interRowDelay <= 0 {
		interRowDelay = utils.InterRowDelay
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CampaignRunner{
		campaignRepo:  campaignRepo,
		rowRepo:       rowRepo,
		auditRepo:     auditRepo,
		agent:         agent,
		messenger:     messenger,
		modelProv:     modelProv,
		interRowDelay: interRowDelay,
		logger:        logger,
	}
}

// Launch starts a background run for the campaign. onDone fires after the
// run finishes, successful or not.
func (r *CampaignRunner) Launch(campaign *models.Campaign, onDone func()) {
	go func() {
		if onDone != nil {
			defer onDone()
		}
		r.Run(context.Background(), campaign)
	}()
}

// Run processes all pending rows of the campaign sequentially. Row failures
// are contained per row; the campaign always finishes as completed so the
// per-row statuses remain the source of truth for what happened.
func (r *CampaignRunner) Run(ctx context.Context, campaign *models.Campaign) {
	r.logger.Printf("campaign run started: %s (%s)", campaign.Name, campaign.UUID.String())

	rows, err := r.rowRepo.ListByStatus(ctx, campaign.ID, models.MessageStatusPending, 0, 0)
	if err != nil {
		r.logger.Printf("campaign %s: failed to snapshot pending rows: %v", campaign.UUID.String(), err)
		rows = nil
	}

	for i, row := range rows {
		r.processRow(ctx, campaign, row)

		if i < len(rows)-1 {
			select {
			case <-ctx.Done():
				r.logger.Printf("campaign %s: run canceled after %d rows", campaign.UUID.String(), i+1)
				return
			case <-time.After(r.interRowDelay):
			}
		}
	}

	if err := r.campaignRepo.UpdateStatus(ctx, campaign.ID, models.CampaignStatusCompleted); err != nil {
		r.logger.Printf("campaign %s: failed to mark completed: %v", campaign.UUID.String(), err)
		return
	}

	r.logger.Printf("campaign run finished: %s (%d rows)", campaign.UUID.String(), len(rows))
	r.recordCompletion(ctx, campaign, len(rows))
}

// processRow drafts and delivers one row. Any failure, including a panic,
// marks the row failed without aborting the batch.
func (r *CampaignRunner) processRow(ctx context.Context, campaign *models.Campaign, row *models.DataRow) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Printf("campaign %s row %d: panic: %v", campaign.UUID.String(), row.RowIndex, rec)
			r.markFailed(ctx, row)
		}
	}()

	model := r.modelProv.ActiveModel(ctx)
	message, err := r.agent.DraftMessage(ctx, campaign.MasterPrompt, row.Data, model)
	if err != nil {
		r.logger.Printf("campaign %s row %d: drafting failed: %v", campaign.UUID.String(), row.RowIndex, err)
		r.markFailed(ctx, row)
		return
	}

	row.OutboundMessage = &message
	if err := r.rowRepo.Update(ctx, *row); err != nil {
		r.logger.Printf("campaign %s row %d: failed to persist draft: %v", campaign.UUID.String(), row.RowIndex, err)
		r.markFailed(ctx, row)
		return
	}

	target := row.DeliveryTarget()
	if target == "" {
		// No deliverable contact counts as a soft success.
		r.logger.Printf("campaign %s row %d: no contact, marking sent", campaign.UUID.String(), row.RowIndex)
		r.markSent(ctx, row)
		return
	}

	subject := fmt.Sprintf("Message from %s", campaign.Name)
	if r.messenger.Deliver(ctx, target, message, row.Channel, subject) {
		r.markSent(ctx, row)
	} else {
		r.logger.Printf("campaign %s row %d: delivery failed", campaign.UUID.String(), row.RowIndex)
		r.markFailed(ctx, row)
	}
}

func (r *CampaignRunner) markSent(ctx context.Context, row *models.DataRow) {
	row.MessageStatus = models.MessageStatusSent
	row.SentAt = utils.UTCNowPtr()
	if err := r.rowRepo.Update(ctx, *row); err != nil {
		r.logger.Printf("row %d: failed to persist sent status: %v", row.RowIndex, err)
	}
}

func (r *CampaignRunner) markFailed(ctx context.Context, row *models.DataRow) {
	row.MessageStatus = models.MessageStatusFailed
	if err := r.rowRepo.Update(ctx, *row); err != nil {
		r.logger.Printf("row %d: failed to persist failed status: %v", row.RowIndex, err)
	}
}

func (r *CampaignRunner) recordCompletion(ctx context.Context, campaign *models.Campaign, rowCount int) {
	description := fmt.Sprintf("Campaign completed: %s (%d rows processed)", campaign.UUID.String(), rowCount)
	audit := &models.AuditLog{
		ActorEmail:  &campaign.OwnerEmail,
		Action:      models.AuditActionCampaignCompleted,
		Description: &description,
		Success:     utils.ToPtr(true),
	}
	if err := r.auditRepo.Save(ctx, audit); err != nil {
		r.logger.Printf("campaign %s: failed to record completion audit: %v", campaign.UUID.String(), err)
	}
}
