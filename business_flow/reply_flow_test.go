package businessflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinalgrid/sentinalgrid/app/dto"
	"github.com/sentinalgrid/sentinalgrid/app/services"
	"github.com/sentinalgrid/sentinalgrid/models"
	"github.com/sentinalgrid/sentinalgrid/utils"
)

type replyFlowFixture struct {
	flow   ReplyFlow
	rows   *fakeRowRepo
	audits *fakeAuditRepo
	agent  *fakeAgent
}

func newReplyFlowFixture(extraction services.ExtractionResult, threshold float64) *replyFlowFixture {
	f := &replyFlowFixture{
		rows:   newFakeRowRepo(),
		audits: newFakeAuditRepo(),
		agent:  &fakeAgent{extraction: extraction},
	}
	f.flow = NewReplyFlow(f.rows, f.audits, f.agent, &fakeModelProvider{}, threshold, nil)
	return f
}

func (f *replyFlowFixture) seedSentRow(t *testing.T, phone string) *models.DataRow {
	t.Helper()
	row := &models.DataRow{
		CampaignID:      1,
		RowIndex:        1,
		Data:            models.RowData{"company": "Acme", "status": "contacted"},
		Channel:         utils.ChannelWhatsApp,
		MessageStatus:   models.MessageStatusSent,
		OutboundMessage: utils.ToPtr("Hi Ada, quick question about Acme"),
		SentAt:          utils.UTCNowPtr(),
	}
	if phone != "" {
		row.ContactPhone = &phone
	}
	require.NoError(t, row.BeforeCreate())
	require.NoError(t, f.rows.Save(context.Background(), row))
	return row
}

func TestReconcileHighConfidence(t *testing.T) {
	f := newReplyFlowFixture(services.ExtractionResult{
		Intent:     "interested",
		Updates:    map[string]any{"status": "interested", "budget": "10k"},
		Confidence: 0.9,
	}, 0.7)
	row := f.seedSentRow(t, "")

	resp, err := f.flow.Reconcile(context.Background(), &dto.InboundReplyRequest{
		RowUUID:   row.UUID.String(),
		ReplyText: "Sounds great, our budget is around 10k",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.MessageStatusReplied.String(), resp.MessageStatus)
	assert.Equal(t, "interested", resp.Intent)
	assert.InDelta(t, 0.9, resp.Confidence, 1e-9)
	assert.False(t, resp.NeedsReview)
	assert.Equal(t, map[string]any{"status": "interested", "budget": "10k"}, resp.AppliedUpdates)
	assert.Nil(t, resp.SuggestedUpdates)

	stored, err := f.rows.ByID(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusReplied, stored.MessageStatus)
	assert.False(t, stored.NeedsReview)
	assert.Nil(t, stored.SuggestedUpdate)
	assert.Equal(t, "interested", stored.Data["status"])
	assert.Equal(t, "10k", stored.Data["budget"])
	assert.Equal(t, "Acme", stored.Data["company"])
	require.NotNil(t, stored.ReplyText)
	assert.Equal(t, "Sounds great, our budget is around 10k", *stored.ReplyText)
	assert.NotNil(t, stored.RepliedAt)

	assert.Contains(t, f.audits.actions(), models.AuditActionReplyApplied)
}

func TestReconcileLowConfidenceQueuesReview(t *testing.T) {
	f := newReplyFlowFixture(services.ExtractionResult{
		Intent:     "unclear",
		Updates:    map[string]any{"status": "maybe"},
		Confidence: 0.4,
	}, 0.7)
	row := f.seedSentRow(t, "")

	resp, err := f.flow.Reconcile(context.Background(), &dto.InboundReplyRequest{
		RowUUID:   row.UUID.String(),
		ReplyText: "hmm let me think about it",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.MessageStatusReview.String(), resp.MessageStatus)
	assert.True(t, resp.NeedsReview)
	assert.Nil(t, resp.AppliedUpdates)
	assert.Equal(t, map[string]any{"status": "maybe"}, resp.SuggestedUpdates)

	stored, err := f.rows.ByID(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusReview, stored.MessageStatus)
	assert.True(t, stored.NeedsReview)
	assert.Equal(t, models.RowData{"status": "maybe"}, stored.SuggestedUpdate)
	// Row data stays untouched until a human approves.
	assert.Equal(t, "contacted", stored.Data["status"])

	assert.Contains(t, f.audits.actions(), models.AuditActionReplyQueued)
}

func TestReconcileConfidenceAtThreshold(t *testing.T) {
	f := newReplyFlowFixture(services.ExtractionResult{
		Intent:     "interested",
		Updates:    map[string]any{"status": "interested"},
		Confidence: 0.7,
	}, 0.7)
	row := f.seedSentRow(t, "")

	resp, err := f.flow.Reconcile(context.Background(), &dto.InboundReplyRequest{
		RowUUID:   row.UUID.String(),
		ReplyText: "yes",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusReplied.String(), resp.MessageStatus)
}

func TestReconcileConfidenceClamped(t *testing.T) {
	f := newReplyFlowFixture(services.ExtractionResult{
		Intent:     "interested",
		Updates:    map[string]any{"status": "interested"},
		Confidence: 1.7,
	}, 0.7)
	row := f.seedSentRow(t, "")

	resp, err := f.flow.Reconcile(context.Background(), &dto.InboundReplyRequest{
		RowUUID:   row.UUID.String(),
		ReplyText: "yes",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, resp.Confidence)

	stored, err := f.rows.ByID(context.Background(), row.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Confidence)
	assert.Equal(t, 1.0, *stored.Confidence)
}

func TestReconcileEmptyReply(t *testing.T) {
	f := newReplyFlowFixture(services.ExtractionResult{}, 0.7)
	row := f.seedSentRow(t, "")

	_, err := f.flow.Reconcile(context.Background(), &dto.InboundReplyRequest{
		RowUUID: row.UUID.String(),
	}, nil)
	require.Error(t, err)
	assert.True(t, IsEmptyReply(err))
}

func TestReconcileRowNotFound(t *testing.T) {
	f := newReplyFlowFixture(services.ExtractionResult{}, 0.7)

	_, err := f.flow.Reconcile(context.Background(), &dto.InboundReplyRequest{
		RowUUID:   "0b49e6a0-72a4-4fd2-9c24-45c0a6791f7e",
		ReplyText: "hello",
	}, nil)
	require.Error(t, err)
	assert.True(t, IsRowNotFound(err))
}

func TestReconcileRowNotAwaitingReply(t *testing.T) {
	statuses := []models.MessageStatus{
		models.MessageStatusPending,
		models.MessageStatusReplied,
		models.MessageStatusReview,
		models.MessageStatusFailed,
	}

	for _, status := range statuses {
		t.Run(status.String(), func(t *testing.T) {
			f := newReplyFlowFixture(services.ExtractionResult{}, 0.7)
			row := f.seedSentRow(t, "")
			row.MessageStatus = status
			require.NoError(t, f.rows.Update(context.Background(), *row))

			_, err := f.flow.Reconcile(context.Background(), &dto.InboundReplyRequest{
				RowUUID:   row.UUID.String(),
				ReplyText: "hello",
			}, nil)
			require.Error(t, err)
			assert.True(t, IsRowNotSent(err))
		})
	}
}

func TestReconcileRowWithoutOutboundMessage(t *testing.T) {
	f := newReplyFlowFixture(services.ExtractionResult{}, 0.7)
	row := f.seedSentRow(t, "")
	row.OutboundMessage = nil
	require.NoError(t, f.rows.Update(context.Background(), *row))

	_, err := f.flow.Reconcile(context.Background(), &dto.InboundReplyRequest{
		RowUUID:   row.UUID.String(),
		ReplyText: "hello",
	}, nil)
	require.Error(t, err)
	assert.True(t, IsRowNotSent(err))
}

func TestReconcileByPhone(t *testing.T) {
	f := newReplyFlowFixture(services.ExtractionResult{
		Intent:     "interested",
		Updates:    map[string]any{"status": "interested"},
		Confidence: 0.95,
	}, 0.7)
	row := f.seedSentRow(t, "+49 171-1234567")

	// Sender formats vary; the lookup matches on the normalized digits.
	resp, err := f.flow.ReconcileByPhone(context.Background(), "491711234567", "count me in", nil)
	require.NoError(t, err)
	assert.Equal(t, row.UUID.String(), resp.RowUUID)
	assert.Equal(t, models.MessageStatusReplied.String(), resp.MessageStatus)
}

func TestReconcileByPhoneNoMatch(t *testing.T) {
	f := newReplyFlowFixture(services.ExtractionResult{}, 0.7)
	f.seedSentRow(t, "+49 171-1234567")

	_, err := f.flow.ReconcileByPhone(context.Background(), "+1 555 000 1234", "hello", nil)
	require.Error(t, err)
	assert.True(t, IsRowNotFound(err))
}

func TestReconcileByPhoneEmptyReply(t *testing.T) {
	f := newReplyFlowFixture(services.ExtractionResult{}, 0.7)

	_, err := f.flow.ReconcileByPhone(context.Background(), "+49 171-1234567", "", nil)
	require.Error(t, err)
	assert.True(t, IsEmptyReply(err))
}
