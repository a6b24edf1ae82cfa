// Package businessflow contains the core business logic and use cases for campaign workflows
package businessflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sentinalgrid/sentinalgrid/app/dto"
	"github.com/sentinalgrid/sentinalgrid/app/services"
	"github.com/sentinalgrid/sentinalgrid/models"
	"github.com/sentinalgrid/sentinalgrid/repository"
	"github.com/sentinalgrid/sentinalgrid/utils"
	"gorm.io/gorm"
)

// CampaignLauncher starts a background run for a launched campaign. The
// onDone callback fires exactly once when the run finishes.
type CampaignLauncher interface {
	Launch(campaign *models.Campaign, onDone func())
}

// CampaignFlow handles the campaign business logic
type CampaignFlow interface {
	CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest, metadata *ClientMetadata) (*dto.CreateCampaignResponse, error)
	ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest, metadata *ClientMetadata) (*dto.ListCampaignsResponse, error)
	GetCampaign(ctx context.Context, req *dto.GetCampaignRequest, metadata *ClientMetadata) (*dto.GetCampaignResponse, error)
	LaunchCampaign(ctx context.Context, req *dto.LaunchCampaignRequest, metadata *ClientMetadata) (*dto.LaunchCampaignResponse, error)
	ListReviewQueue(ctx context.Context, req *dto.ListReviewQueueRequest, metadata *ClientMetadata) (*dto.ListReviewQueueResponse, error)
}

// CampaignFlowImpl implements the campaign business flow
type CampaignFlowImpl struct {
	campaignRepo repository.CampaignRepository
	rowRepo      repository.DataRowRepository
	auditRepo    repository.AuditLogRepository
	spreadsheet  services.SpreadsheetService
	launcher     CampaignLauncher
	rc           *redis.Client
	db           *gorm.DB
}

// NewCampaignFlow creates a new campaign flow instance
func NewCampaignFlow(
	campaignRepo repository.CampaignRepository,
	rowRepo repository.DataRowRepository,
	auditRepo repository.AuditLogRepository,
	spreadsheet services.SpreadsheetService,
	launcher CampaignLauncher,
	rc *redis.Client,
	db *gorm.DB,
) CampaignFlow {
	return &CampaignFlowImpl{
		campaignRepo: campaignRepo,
		rowRepo:      rowRepo,
		auditRepo:    auditRepo,
		spreadsheet:  spreadsheet,
		launcher:     launcher,
		rc:           rc,
		db:           db,
	}
}

// CreateCampaign ingests an uploaded spreadsheet into a draft campaign
func (s *CampaignFlowImpl) CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest, metadata *ClientMetadata) (*dto.CreateCampaignResponse, error) {
	if req.Name == "" {
		return nil, NewBusinessError("CAMPAIGN_NAME_REQUIRED", "Campaign name is required", ErrCampaignNameRequired)
	}
	if req.MasterPrompt == "" {
		return nil, NewBusinessError("CAMPAIGN_PROMPT_REQUIRED", "Campaign master prompt is required", ErrCampaignPromptRequired)
	}

	parsed, err := s.spreadsheet.Parse(req.FileName, req.FileContent)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnsupportedFile):
			return nil, NewBusinessError("UNSUPPORTED_FILE_TYPE", "Only CSV and XLSX files are supported", ErrUnsupportedFileType)
		case errors.Is(err, services.ErrNoDataRows):
			return nil, NewBusinessError("EMPTY_SPREADSHEET", "Spreadsheet contains no data rows", ErrEmptySpreadsheet)
		default:
			return nil, NewBusinessError("SPREADSHEET_PARSE_FAILED", "Failed to parse spreadsheet", err)
		}
	}

	campaign := &models.Campaign{
		OwnerEmail:   req.OwnerEmail,
		Name:         req.Name,
		MasterPrompt: req.MasterPrompt,
		Status:       models.CampaignStatusDraft,
		SourceFile:   req.FileName,
		Columns:      pq.StringArray(parsed.Headers),
	}
	if err := campaign.BeforeCreate(); err != nil {
		return nil, NewBusinessError("CAMPAIGN_CREATION_FAILED", "Campaign creation failed", err)
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.campaignRepo.Save(txCtx, campaign); err != nil {
			return err
		}

		rows := make([]*models.DataRow, 0, len(parsed.Rows))
		for _, p := range parsed.Rows {
			row := &models.DataRow{
				CampaignID:    campaign.ID,
				RowIndex:      p.Index,
				Data:          models.RowData(p.Data),
				Channel:       utils.ChannelEmail,
				MessageStatus: models.MessageStatusPending,
			}
			if p.Email != "" {
				email := p.Email
				row.ContactEmail = &email
			}
			if p.Phone != "" {
				phone := p.Phone
				row.ContactPhone = &phone
				row.Channel = utils.ChannelWhatsApp
			}
			if err := row.BeforeCreate(); err != nil {
				return err
			}
			rows = append(rows, row)
		}

		return s.rowRepo.SaveBatch(txCtx, rows)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Campaign creation failed: %s", err.Error())
		_ = s.createAuditLog(ctx, req.OwnerEmail, models.AuditActionCampaignCreated, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("CAMPAIGN_CREATION_FAILED", "Campaign creation failed", err)
	}

	msg := fmt.Sprintf("Campaign created: %s (%d rows)", campaign.UUID.String(), len(parsed.Rows))
	_ = s.createAuditLog(ctx, req.OwnerEmail, models.AuditActionCampaignCreated, msg, true, nil, metadata)

	campaignDTO := ToCampaignDTO(*campaign)
	campaignDTO.TotalRows = int64(len(parsed.Rows))

	return &dto.CreateCampaignResponse{
		Campaign: campaignDTO,
		RowCount: len(parsed.Rows),
	}, nil
}

// ListCampaigns returns the owner's campaigns, newest first
func (s *CampaignFlowImpl) ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest, metadata *ClientMetadata) (*dto.ListCampaignsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 50
	}

	campaigns, err := s.campaignRepo.ListByOwner(ctx, req.OwnerEmail, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "Failed to list campaigns", err)
	}

	total, err := s.campaignRepo.Count(ctx, models.CampaignFilter{OwnerEmail: &req.OwnerEmail})
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_COUNT_FAILED", "Failed to count campaigns", err)
	}

	dtos := make([]dto.CampaignDTO, 0, len(campaigns))
	for _, c := range campaigns {
		d := ToCampaignDTO(*c)
		if err := s.fillRowStats(ctx, c.ID, &d); err != nil {
			return nil, NewBusinessError("CAMPAIGN_STATS_FAILED", "Failed to compute campaign stats", err)
		}
		dtos = append(dtos, d)
	}

	return &dto.ListCampaignsResponse{
		Campaigns: dtos,
		Total:     total,
	}, nil
}

// GetCampaign returns a campaign with all of its rows
func (s *CampaignFlowImpl) GetCampaign(ctx context.Context, req *dto.GetCampaignRequest, metadata *ClientMetadata) (*dto.GetCampaignResponse, error) {
	campaign, err := s.findOwnedCampaign(ctx, req.UUID, req.OwnerEmail)
	if err != nil {
		return nil, err
	}

	rows, err := s.rowRepo.ByCampaignID(ctx, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("ROW_LIST_FAILED", "Failed to list campaign rows", err)
	}

	campaignDTO := ToCampaignDTO(*campaign)
	rowDTOs := make([]dto.DataRowDTO, 0, len(rows))
	for _, row := range rows {
		campaignDTO.TotalRows++
		switch row.MessageStatus {
		case models.MessageStatusSent:
			campaignDTO.SentRows++
		case models.MessageStatusReplied:
			campaignDTO.RepliedRows++
		case models.MessageStatusReview:
			campaignDTO.ReviewRows++
		case models.MessageStatusFailed:
			campaignDTO.FailedRows++
		}
		rowDTOs = append(rowDTOs, ToDataRowDTO(*row))
	}

	return &dto.GetCampaignResponse{
		Campaign: campaignDTO,
		Rows:     rowDTOs,
	}, nil
}

// LaunchCampaign marks a draft campaign as running and hands it to the runner
func (s *CampaignFlowImpl) LaunchCampaign(ctx context.Context, req *dto.LaunchCampaignRequest, metadata *ClientMetadata) (*dto.LaunchCampaignResponse, error) {
	campaign, err := s.findOwnedCampaign(ctx, req.UUID, req.OwnerEmail)
	if err != nil {
		return nil, err
	}

	if !campaign.IsLaunchable() {
		return nil, NewBusinessError("CAMPAIGN_NOT_LAUNCHABLE", "Campaign is not in a launchable state", ErrCampaignAlreadyRunning)
	}

	release, err := s.acquireRunLock(ctx, campaign.UUID.String())
	if err != nil {
		return nil, err
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		current, err := s.campaignRepo.ByID(txCtx, campaign.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrCampaignNotFound
		}
		if !current.CanTransitionTo(models.CampaignStatusRunning) {
			return ErrCampaignAlreadyRunning
		}
		return s.campaignRepo.UpdateStatus(txCtx, campaign.ID, models.CampaignStatusRunning)
	})
	if err != nil {
		release()
		if errors.Is(err, ErrCampaignAlreadyRunning) {
			return nil, NewBusinessError("CAMPAIGN_NOT_LAUNCHABLE", "Campaign is not in a launchable state", ErrCampaignAlreadyRunning)
		}
		return nil, NewBusinessError("CAMPAIGN_LAUNCH_FAILED", "Campaign launch failed", err)
	}

	campaign.Status = models.CampaignStatusRunning
	s.launcher.Launch(campaign, release)

	msg := fmt.Sprintf("Campaign launched: %s", campaign.UUID.String())
	_ = s.createAuditLog(ctx, req.OwnerEmail, models.AuditActionCampaignLaunched, msg, true, nil, metadata)

	return &dto.LaunchCampaignResponse{
		UUID:   campaign.UUID.String(),
		Status: models.CampaignStatusRunning.String(),
	}, nil
}

// ListReviewQueue returns the rows of a campaign awaiting a human decision
func (s *CampaignFlowImpl) ListReviewQueue(ctx context.Context, req *dto.ListReviewQueueRequest, metadata *ClientMetadata) (*dto.ListReviewQueueResponse, error) {
	campaign, err := s.findOwnedCampaign(ctx, req.UUID, req.OwnerEmail)
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 50
	}

	needsReview := true
	filter := models.DataRowFilter{CampaignID: &campaign.ID, NeedsReview: &needsReview}

	rows, err := s.rowRepo.ByFilter(ctx, filter, "row_index ASC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("REVIEW_QUEUE_LIST_FAILED", "Failed to list review queue", err)
	}

	total, err := s.rowRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("REVIEW_QUEUE_COUNT_FAILED", "Failed to count review queue", err)
	}

	rowDTOs := make([]dto.DataRowDTO, 0, len(rows))
	for _, row := range rows {
		rowDTOs = append(rowDTOs, ToDataRowDTO(*row))
	}

	return &dto.ListReviewQueueResponse{
		Rows:  rowDTOs,
		Total: total,
	}, nil
}

// findOwnedCampaign fetches a campaign by UUID and verifies ownership
func (s *CampaignFlowImpl) findOwnedCampaign(ctx context.Context, rawUUID, ownerEmail string) (*models.Campaign, error) {
	if rawUUID == "" {
		return nil, NewBusinessError("CAMPAIGN_UUID_REQUIRED", "Campaign UUID is required", ErrCampaignUUIDRequired)
	}

	campaign, err := s.campaignRepo.ByUUID(ctx, rawUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}
	if campaign.OwnerEmail != ownerEmail {
		return nil, NewBusinessError("CAMPAIGN_ACCESS_DENIED", "Access denied: campaign belongs to another user", ErrCampaignAccessDenied)
	}

	return campaign, nil
}

// acquireRunLock takes the distributed launch lock (SETNX with TTL).
// Without a cache client the lock degrades to a no-op.
func (s *CampaignFlowImpl) acquireRunLock(ctx context.Context, campaignUUID string) (func(), error) {
	if s.rc == nil {
		return func() {}, nil
	}

	lockKey := utils.RedisCampaignLockPrefix + campaignUUID
	ok, err := s.rc.SetNX(ctx, lockKey, "1", utils.CampaignLockTTL).Result()
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOCK_FAILED", "Failed to acquire campaign lock", err)
	}
	if !ok {
		return nil, NewBusinessError("CAMPAIGN_LOCK_BUSY", "Campaign run already in progress", ErrCampaignLocked)
	}

	return func() {
		_ = s.rc.Del(context.Background(), lockKey).Err()
	}, nil
}

func (s *CampaignFlowImpl) fillRowStats(ctx context.Context, campaignID uint, d *dto.CampaignDTO) error {
	total, err := s.rowRepo.Count(ctx, models.DataRowFilter{CampaignID: &campaignID})
	if err != nil {
		return err
	}
	d.TotalRows = total

	counts := []struct {
		status models.MessageStatus
		dest   *int64
	}{
		{models.MessageStatusSent, &d.SentRows},
		{models.MessageStatusReplied, &d.RepliedRows},
		{models.MessageStatusReview, &d.ReviewRows},
		{models.MessageStatusFailed, &d.FailedRows},
	}
	for _, c := range counts {
		n, err := s.rowRepo.CountByStatus(ctx, campaignID, c.status)
		if err != nil {
			return err
		}
		*c.dest = n
	}

	return nil
}

// createAuditLog records an audit entry for a campaign action
func (s *CampaignFlowImpl) createAuditLog(ctx context.Context, actorEmail, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errorMsg,
	}
	if actorEmail != "" {
		audit.ActorEmail = &actorEmail
	}

	requestID := ctx.Value(utils.RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return s.auditRepo.Save(ctx, audit)
}
