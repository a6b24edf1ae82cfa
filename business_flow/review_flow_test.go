package businessflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinalgrid/sentinalgrid/app/dto"
	"github.com/sentinalgrid/sentinalgrid/models"
	"github.com/sentinalgrid/sentinalgrid/utils"
)

type reviewFlowFixture struct {
	flow      ReviewFlow
	campaigns *fakeCampaignRepo
	rows      *fakeRowRepo
	audits    *fakeAuditRepo
	campaign  *models.Campaign
}

func newReviewFlowFixture(t *testing.T) *reviewFlowFixture {
	t.Helper()
	f := &reviewFlowFixture{
		campaigns: newFakeCampaignRepo(),
		rows:      newFakeRowRepo(),
		audits:    newFakeAuditRepo(),
	}
	f.flow = NewReviewFlow(f.campaigns, f.rows, f.audits, nil)

	f.campaign = &models.Campaign{
		OwnerEmail:   "owner@example.com",
		Name:         "Q3 Outreach",
		MasterPrompt: "prompt",
		Status:       models.CampaignStatusCompleted,
	}
	require.NoError(t, f.campaign.BeforeCreate())
	require.NoError(t, f.campaigns.Save(context.Background(), f.campaign))
	return f
}

func (f *reviewFlowFixture) seedReviewRow(t *testing.T, suggested models.RowData) *models.DataRow {
	t.Helper()
	row := &models.DataRow{
		CampaignID:      f.campaign.ID,
		RowIndex:        1,
		Data:            models.RowData{"company": "Acme", "status": "contacted"},
		Channel:         utils.ChannelEmail,
		MessageStatus:   models.MessageStatusReview,
		NeedsReview:     true,
		SuggestedUpdate: suggested,
		ReplyText:       utils.ToPtr("maybe next quarter"),
	}
	require.NoError(t, row.BeforeCreate())
	require.NoError(t, f.rows.Save(context.Background(), row))
	return row
}

func TestResolveReviewApprove(t *testing.T) {
	f := newReviewFlowFixture(t)
	row := f.seedReviewRow(t, models.RowData{"status": "interested", "follow_up": "Q4"})

	resp, err := f.flow.Resolve(context.Background(), &dto.ResolveReviewRequest{
		CampaignUUID: f.campaign.UUID.String(),
		RowUUID:      row.UUID.String(),
		OwnerEmail:   "owner@example.com",
		Action:       dto.ReviewActionApprove,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.MessageStatusReplied.String(), resp.Row.MessageStatus)
	assert.False(t, resp.Row.NeedsReview)

	stored, err := f.rows.ByID(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusReplied, stored.MessageStatus)
	assert.False(t, stored.NeedsReview)
	assert.Nil(t, stored.SuggestedUpdate)
	assert.Equal(t, "interested", stored.Data["status"])
	assert.Equal(t, "Q4", stored.Data["follow_up"])
	assert.Equal(t, "Acme", stored.Data["company"])

	assert.Contains(t, f.audits.actions(), models.AuditActionReviewApproved)
}

func TestResolveReviewApproveWithoutSuggestion(t *testing.T) {
	f := newReviewFlowFixture(t)
	row := f.seedReviewRow(t, nil)

	_, err := f.flow.Resolve(context.Background(), &dto.ResolveReviewRequest{
		CampaignUUID: f.campaign.UUID.String(),
		RowUUID:      row.UUID.String(),
		OwnerEmail:   "owner@example.com",
		Action:       dto.ReviewActionApprove,
	}, nil)
	require.Error(t, err)
	assert.True(t, IsNoSuggestedUpdate(err))

	stored, err := f.rows.ByID(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusReview, stored.MessageStatus)
	assert.True(t, stored.NeedsReview)
}

func TestResolveReviewRejectWithManualUpdate(t *testing.T) {
	f := newReviewFlowFixture(t)
	row := f.seedReviewRow(t, models.RowData{"status": "interested"})

	resp, err := f.flow.Resolve(context.Background(), &dto.ResolveReviewRequest{
		CampaignUUID: f.campaign.UUID.String(),
		RowUUID:      row.UUID.String(),
		OwnerEmail:   "owner@example.com",
		Action:       dto.ReviewActionReject,
		ManualUpdate: map[string]any{"status": "declined", "notes": "called instead"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusReplied.String(), resp.Row.MessageStatus)

	stored, err := f.rows.ByID(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, "declined", stored.Data["status"])
	assert.Equal(t, "called instead", stored.Data["notes"])
	// The rejected suggestion is retained for later inspection.
	assert.Equal(t, models.RowData{"status": "interested"}, stored.SuggestedUpdate)
	assert.False(t, stored.NeedsReview)

	assert.Contains(t, f.audits.actions(), models.AuditActionReviewRejected)
}

func TestResolveReviewRejectWithoutManualUpdate(t *testing.T) {
	f := newReviewFlowFixture(t)
	row := f.seedReviewRow(t, models.RowData{"status": "interested"})

	_, err := f.flow.Resolve(context.Background(), &dto.ResolveReviewRequest{
		CampaignUUID: f.campaign.UUID.String(),
		RowUUID:      row.UUID.String(),
		OwnerEmail:   "owner@example.com",
		Action:       dto.ReviewActionReject,
	}, nil)
	require.NoError(t, err)

	stored, err := f.rows.ByID(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusReplied, stored.MessageStatus)
	assert.Equal(t, "contacted", stored.Data["status"])
	assert.Equal(t, models.RowData{"status": "interested"}, stored.SuggestedUpdate)
}

func TestResolveReviewInvalidAction(t *testing.T) {
	f := newReviewFlowFixture(t)
	row := f.seedReviewRow(t, models.RowData{"status": "interested"})

	for _, action := range []string{"", "accept", "APPROVE"} {
		_, err := f.flow.Resolve(context.Background(), &dto.ResolveReviewRequest{
			CampaignUUID: f.campaign.UUID.String(),
			RowUUID:      row.UUID.String(),
			OwnerEmail:   "owner@example.com",
			Action:       action,
		}, nil)
		require.Error(t, err)
		assert.True(t, IsInvalidReviewAction(err))
	}
}

func TestResolveReviewRowNotInReview(t *testing.T) {
	f := newReviewFlowFixture(t)
	row := f.seedReviewRow(t, models.RowData{"status": "interested"})
	row.MessageStatus = models.MessageStatusSent
	require.NoError(t, f.rows.Update(context.Background(), *row))

	_, err := f.flow.Resolve(context.Background(), &dto.ResolveReviewRequest{
		CampaignUUID: f.campaign.UUID.String(),
		RowUUID:      row.UUID.String(),
		OwnerEmail:   "owner@example.com",
		Action:       dto.ReviewActionApprove,
	}, nil)
	require.Error(t, err)
	assert.True(t, IsRowNotInReview(err))
}

func TestResolveReviewRowFromAnotherCampaign(t *testing.T) {
	f := newReviewFlowFixture(t)
	row := f.seedReviewRow(t, models.RowData{"status": "interested"})
	row.CampaignID = f.campaign.ID + 100
	require.NoError(t, f.rows.Update(context.Background(), *row))

	_, err := f.flow.Resolve(context.Background(), &dto.ResolveReviewRequest{
		CampaignUUID: f.campaign.UUID.String(),
		RowUUID:      row.UUID.String(),
		OwnerEmail:   "owner@example.com",
		Action:       dto.ReviewActionApprove,
	}, nil)
	require.Error(t, err)
	assert.True(t, IsRowNotFound(err))
}

func TestResolveReviewAccessDenied(t *testing.T) {
	f := newReviewFlowFixture(t)
	row := f.seedReviewRow(t, models.RowData{"status": "interested"})

	_, err := f.flow.Resolve(context.Background(), &dto.ResolveReviewRequest{
		CampaignUUID: f.campaign.UUID.String(),
		RowUUID:      row.UUID.String(),
		OwnerEmail:   "intruder@example.com",
		Action:       dto.ReviewActionApprove,
	}, nil)
	require.Error(t, err)
	assert.True(t, IsCampaignAccessDenied(err))
}
