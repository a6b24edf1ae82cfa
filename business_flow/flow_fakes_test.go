package businessflow

import (
	"context"
	"sort"
	"strings"

	"github.com/sentinalgrid/sentinalgrid/app/services"
	"github.com/sentinalgrid/sentinalgrid/models"
)

// In-memory repository fakes. The flows run with a nil *gorm.DB, which makes
// WithTransaction execute the callback directly against these.

type fakeCampaignRepo struct {
	campaigns map[uint]*models.Campaign
	nextID    uint
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: make(map[uint]*models.Campaign), nextID: 1}
}

func (r *fakeCampaignRepo) ByID(ctx context.Context, id uint) (*models.Campaign, error) {
	c, ok := r.campaigns[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCampaignRepo) ByUUID(ctx context.Context, uuid string) (*models.Campaign, error) {
	for _, c := range r.campaigns {
		if c.UUID.String() == uuid {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeCampaignRepo) ByFilter(ctx context.Context, filter models.CampaignFilter, orderBy string, limit, offset int) ([]*models.Campaign, error) {
	var out []*models.Campaign
	for _, c := range r.campaigns {
		if filter.OwnerEmail != nil && c.OwnerEmail != *filter.OwnerEmail {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeCampaignRepo) ListByOwner(ctx context.Context, ownerEmail string, limit, offset int) ([]*models.Campaign, error) {
	return r.ByFilter(ctx, models.CampaignFilter{OwnerEmail: &ownerEmail}, "", limit, offset)
}

func (r *fakeCampaignRepo) Save(ctx context.Context, c *models.Campaign) error {
	if c.ID == 0 {
		c.ID = r.nextID
		r.nextID++
	}
	cp := *c
	r.campaigns[c.ID] = &cp
	return nil
}

func (r *fakeCampaignRepo) SaveBatch(ctx context.Context, cs []*models.Campaign) error {
	for _, c := range cs {
		if err := r.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeCampaignRepo) Update(ctx context.Context, c models.Campaign) error {
	cp := c
	r.campaigns[c.ID] = &cp
	return nil
}

func (r *fakeCampaignRepo) UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus) error {
	if c, ok := r.campaigns[id]; ok {
		c.Status = status
	}
	return nil
}

func (r *fakeCampaignRepo) Count(ctx context.Context, filter models.CampaignFilter) (int64, error) {
	cs, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(cs)), nil
}

type fakeRowRepo struct {
	rows   map[uint]*models.DataRow
	nextID uint
}

func newFakeRowRepo() *fakeRowRepo {
	return &fakeRowRepo{rows: make(map[uint]*models.DataRow), nextID: 1}
}

func (r *fakeRowRepo) ByID(ctx context.Context, id uint) (*models.DataRow, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (r *fakeRowRepo) ByUUID(ctx context.Context, uuid string) (*models.DataRow, error) {
	for _, row := range r.rows {
		if row.UUID.String() == uuid {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRowRepo) ByCampaignID(ctx context.Context, campaignID uint) ([]*models.DataRow, error) {
	var out []*models.DataRow
	for _, row := range r.rows {
		if row.CampaignID == campaignID {
			cp := *row
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RowIndex < out[j].RowIndex })
	return out, nil
}

func (r *fakeRowRepo) LatestAwaitingReplyByPhone(ctx context.Context, normalizedPhone string) (*models.DataRow, error) {
	var latest *models.DataRow
	for _, row := range r.rows {
		if row.MessageStatus != models.MessageStatusSent || row.ContactPhone == nil {
			continue
		}
		stored := strings.NewReplacer("+", "", " ", "", "-", "").Replace(*row.ContactPhone)
		if stored != normalizedPhone {
			continue
		}
		if latest == nil || (row.SentAt != nil && latest.SentAt != nil && row.SentAt.After(*latest.SentAt)) {
			cp := *row
			latest = &cp
		}
	}
	return latest, nil
}

func (r *fakeRowRepo) ByFilter(ctx context.Context, filter models.DataRowFilter, orderBy string, limit, offset int) ([]*models.DataRow, error) {
	var out []*models.DataRow
	for _, row := range r.rows {
		if filter.CampaignID != nil && row.CampaignID != *filter.CampaignID {
			continue
		}
		if filter.MessageStatus != nil && row.MessageStatus != *filter.MessageStatus {
			continue
		}
		if filter.NeedsReview != nil && row.NeedsReview != *filter.NeedsReview {
			continue
		}
		cp := *row
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RowIndex < out[j].RowIndex })
	return out, nil
}

func (r *fakeRowRepo) ListByStatus(ctx context.Context, campaignID uint, status models.MessageStatus, limit, offset int) ([]*models.DataRow, error) {
	return r.ByFilter(ctx, models.DataRowFilter{CampaignID: &campaignID, MessageStatus: &status}, "", limit, offset)
}

func (r *fakeRowRepo) Save(ctx context.Context, row *models.DataRow) error {
	if row.ID == 0 {
		row.ID = r.nextID
		r.nextID++
	}
	cp := *row
	r.rows[row.ID] = &cp
	return nil
}

func (r *fakeRowRepo) SaveBatch(ctx context.Context, rows []*models.DataRow) error {
	for _, row := range rows {
		if err := r.Save(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRowRepo) Update(ctx context.Context, row models.DataRow) error {
	cp := row
	r.rows[row.ID] = &cp
	return nil
}

func (r *fakeRowRepo) Count(ctx context.Context, filter models.DataRowFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakeRowRepo) CountByStatus(ctx context.Context, campaignID uint, status models.MessageStatus) (int64, error) {
	rows, _ := r.ListByStatus(ctx, campaignID, status, 0, 0)
	return int64(len(rows)), nil
}

type fakeSettingsRepo struct {
	settings map[string]*models.PlatformSetting
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: make(map[string]*models.PlatformSetting)}
}

func (r *fakeSettingsRepo) ByID(ctx context.Context, id uint) (*models.PlatformSetting, error) {
	for _, s := range r.settings {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeSettingsRepo) ByKey(ctx context.Context, key string) (*models.PlatformSetting, error) {
	s, ok := r.settings[key]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSettingsRepo) ByFilter(ctx context.Context, filter models.PlatformSettingFilter, orderBy string, limit, offset int) ([]*models.PlatformSetting, error) {
	var out []*models.PlatformSetting
	for _, s := range r.settings {
		if filter.Key != nil && s.Key != *filter.Key {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeSettingsRepo) Save(ctx context.Context, s *models.PlatformSetting) error {
	cp := *s
	r.settings[s.Key] = &cp
	return nil
}

func (r *fakeSettingsRepo) SaveBatch(ctx context.Context, ss []*models.PlatformSetting) error {
	for _, s := range ss {
		if err := r.Save(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeSettingsRepo) Upsert(ctx context.Context, key, value string, updatedBy *string) error {
	r.settings[key] = &models.PlatformSetting{Key: key, Value: value, UpdatedBy: updatedBy}
	return nil
}

func (r *fakeSettingsRepo) Count(ctx context.Context, filter models.PlatformSettingFilter) (int64, error) {
	ss, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(ss)), nil
}

type fakeAuditRepo struct {
	logs []*models.AuditLog
}

func newFakeAuditRepo() *fakeAuditRepo { return &fakeAuditRepo{} }

func (r *fakeAuditRepo) ByID(ctx context.Context, id uint) (*models.AuditLog, error) {
	return nil, nil
}

func (r *fakeAuditRepo) ByFilter(ctx context.Context, filter models.AuditLogFilter, orderBy string, limit, offset int) ([]*models.AuditLog, error) {
	return r.logs, nil
}

func (r *fakeAuditRepo) Save(ctx context.Context, l *models.AuditLog) error {
	r.logs = append(r.logs, l)
	return nil
}

func (r *fakeAuditRepo) SaveBatch(ctx context.Context, ls []*models.AuditLog) error {
	r.logs = append(r.logs, ls...)
	return nil
}

func (r *fakeAuditRepo) Count(ctx context.Context, filter models.AuditLogFilter) (int64, error) {
	return int64(len(r.logs)), nil
}

func (r *fakeAuditRepo) actions() []string {
	var out []string
	for _, l := range r.logs {
		out = append(out, l.Action)
	}
	return out
}

// Service fakes

type fakeSpreadsheet struct {
	sheet *services.ParsedSheet
	err   error
}

func (f *fakeSpreadsheet) Parse(fileName string, content []byte) (*services.ParsedSheet, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sheet, nil
}

type fakeAgent struct {
	draft      string
	draftErr   error
	extraction services.ExtractionResult
}

func (f *fakeAgent) DraftMessage(ctx context.Context, masterPrompt string, rowData map[string]any, model string) (string, error) {
	return f.draft, f.draftErr
}

func (f *fakeAgent) ExtractReply(ctx context.Context, rowData map[string]any, outboundMessage, replyText, model string) services.ExtractionResult {
	return f.extraction
}

type fakeLauncher struct {
	launched []*models.Campaign
	released bool
}

func (f *fakeLauncher) Launch(campaign *models.Campaign, onDone func()) {
	f.launched = append(f.launched, campaign)
	if onDone != nil {
		onDone()
		f.released = true
	}
}

type fakeModelProvider struct {
	model string
}

func (f *fakeModelProvider) ActiveModel(ctx context.Context) string {
	if f.model == "" {
		return "gemini-2.0-flash"
	}
	return f.model
}
