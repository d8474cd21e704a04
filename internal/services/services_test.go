package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yoockh/bikeshop-agent/internal/agent"
	"github.com/yoockh/bikeshop-agent/internal/cache"
	"github.com/yoockh/bikeshop-agent/internal/conversation"
	"github.com/yoockh/bikeshop-agent/internal/crm"
	"github.com/yoockh/bikeshop-agent/internal/intent"
	"github.com/yoockh/bikeshop-agent/internal/logger"
	"github.com/yoockh/bikeshop-agent/internal/memory"
	"github.com/yoockh/bikeshop-agent/internal/models"
	"github.com/yoockh/bikeshop-agent/internal/prompts"
	"github.com/yoockh/bikeshop-agent/internal/rag"
	"github.com/yoockh/bikeshop-agent/internal/retrieval"
	"github.com/yoockh/bikeshop-agent/internal/session"
	"github.com/yoockh/bikeshop-agent/internal/utils"
)

type fakeArchiver struct {
	archived []string
}

func (f *fakeArchiver) Archive(_ context.Context, s *conversation.Session) error {
	f.archived = append(f.archived, s.ID)
	return nil
}

func newConversationService(t *testing.T, mem memory.Memory, arch agent.Archiver) (ConversationService, session.Store) {
	t.Helper()
	log := logger.Discard()

	idx := retrieval.NewMemoryIndex(nil)
	_ = idx.IndexProducts(context.Background(), []models.Product{
		{ID: 1, Name: "Trail Hawk", Type: "mountain", Brand: "Ridge", PriceEUR: 1200, FrameMaterial: "aluminum", Gears: 12, Brakes: "hydraulic disc", IntendedUse: []string{"trails"}},
	})
	_ = idx.IndexFAQs(context.Background(), []models.FAQEntry{{ID: 1, Question: "Do you ship?", Answer: "Yes, EU wide."}})

	store, err := session.NewStore(session.StoreTypeMemory)
	if err != nil {
		t.Fatal(err)
	}
	orch := agent.New(agent.Deps{
		Store:    store,
		Intents:  intent.NewClassifier(nil, log, 0),
		Products: rag.NewProductRAG(idx, nil, log, rag.Options{}),
		FAQs:     rag.NewFAQRAG(idx, nil, log, rag.Options{}),
		CRM:      crm.Unconfigured{},
		Log:      log,
	})
	return NewConversationService(store, orch, mem, arch, log), store
}

func TestConversationLifecycle(t *testing.T) {
	ctx := context.Background()
	arch := &fakeArchiver{}
	svc, _ := newConversationService(t, nil, arch)

	sess, greeting, err := svc.Start(ctx, "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if greeting != prompts.Greeting || sess.State != conversation.StateGreeting {
		t.Fatalf("got %q in %s", greeting, sess.State)
	}

	reply, err := svc.Send(ctx, sess.ID, "  mountain bike for trails  ")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(reply.Products) != 1 || reply.Products[0].Name != "Trail Hawk" {
		t.Errorf("products = %+v", reply.Products)
	}

	hist, err := svc.History(ctx, sess.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist.Messages) != 2 || hist.Messages[0].Content != "mountain bike for trails" {
		t.Errorf("messages = %+v", hist.Messages)
	}

	if err := svc.End(ctx, sess.ID); err != nil {
		t.Fatalf("End: %v", err)
	}
	if len(arch.archived) != 1 {
		t.Errorf("archived = %v", arch.archived)
	}
	if err := svc.End(ctx, sess.ID); !utils.IsCode(err, utils.CodeNotFound) {
		t.Errorf("second End err = %v", err)
	}
	if _, err := svc.History(ctx, sess.ID); !utils.IsCode(err, utils.CodeNotFound) {
		t.Errorf("History after End err = %v", err)
	}
}

func TestSendValidation(t *testing.T) {
	svc, _ := newConversationService(t, nil, nil)
	ctx := context.Background()

	if _, err := svc.Send(ctx, "id", "   "); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Errorf("blank message err = %v", err)
	}
	if _, err := svc.Send(ctx, "id", strings.Repeat("a", MaxMessageLength+1)); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Errorf("long message err = %v", err)
	}

	reply, err := svc.Send(ctx, "unknown", "hello")
	if !utils.IsCode(err, utils.CodeNotFound) || !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("unknown session err = %v", err)
	}
	if reply == nil || reply.Text != prompts.SessionExpired {
		t.Errorf("reply = %+v", reply)
	}
}

func TestReturningCustomerIsRecalled(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewCacheMemory(cache.NewMemoryCache(), time.Hour)
	svc, _ := newConversationService(t, mem, nil)

	first, _, err := svc.Start(ctx, "user-7")
	if err != nil {
		t.Fatal(err)
	}
	if first.Context.PriorSummary != "" {
		t.Fatalf("new customer has a summary: %q", first.Context.PriorSummary)
	}
	if _, err := svc.Send(ctx, first.ID, "mountain bike under 1500 euro"); err != nil {
		t.Fatal(err)
	}
	if err := svc.End(ctx, first.ID); err != nil {
		t.Fatal(err)
	}

	second, _, err := svc.Start(ctx, "user-7")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(second.Context.PriorSummary, "mountain") {
		t.Errorf("summary = %q", second.Context.PriorSummary)
	}
	if second.UserID != "user-7" {
		t.Errorf("user id = %q", second.UserID)
	}
}

func TestCleanupAndCount(t *testing.T) {
	svc, _ := newConversationService(t, nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, _, err := svc.Start(ctx, ""); err != nil {
			t.Fatal(err)
		}
	}
	n, err := svc.ActiveSessions(ctx)
	if err != nil || n != 3 {
		t.Fatalf("active = %d, %v", n, err)
	}
	removed, err := svc.CleanupExpired(ctx)
	if err != nil || removed != 0 {
		t.Errorf("removed = %d, %v", removed, err)
	}
}

type fakeLeadRepo struct {
	rows map[string]models.Lead
}

func newFakeLeadRepo() *fakeLeadRepo { return &fakeLeadRepo{rows: map[string]models.Lead{}} }

func (f *fakeLeadRepo) Migrate(context.Context) error { return nil }

func (f *fakeLeadRepo) Upsert(_ context.Context, l *models.Lead) error {
	if old, ok := f.rows[l.SessionID]; ok {
		l.ID = old.ID
		l.CreatedAt = old.CreatedAt
	}
	f.rows[l.SessionID] = *l
	return nil
}

func (f *fakeLeadRepo) GetBySession(_ context.Context, id string) (*models.Lead, error) {
	l, ok := f.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &l, nil
}

func (f *fakeLeadRepo) ListByStatus(_ context.Context, status string, _ int) ([]models.Lead, error) {
	var out []models.Lead
	for _, l := range f.rows {
		if l.CRMStatus == status {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLeadRepo) CountByStatus(context.Context) (map[string]int64, error) {
	out := map[string]int64{}
	for _, l := range f.rows {
		out[l.CRMStatus]++
	}
	return out, nil
}

type scriptedCRM struct {
	results []crm.Result
	calls   int
}

func (s *scriptedCRM) CreateLead(context.Context, crm.Lead) crm.Result {
	r := s.results[s.calls%len(s.results)]
	s.calls++
	return r
}

func TestLeadRecordAndResync(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLeadRepo()
	creator := &scriptedCRM{results: []crm.Result{{Success: true, LeadID: "crm-1", Attempts: 1}}}
	svc := NewLeadService(repo, creator, logger.Discard())

	budget := 1500
	c := conversation.Context{BikeType: "mountain", Budget: &budget, RecommendedProducts: []conversation.RecommendedProduct{{ID: 1, Name: "Trail Hawk"}}}
	lead := crm.Lead{Name: "Anna Berg", Email: "anna@example.com", Phone: "0612345678"}

	if err := svc.Record(ctx, "s1", lead, crm.Result{Error: crm.ErrTextUnavailable, Attempts: 3}, c); err != nil {
		t.Fatalf("Record: %v", err)
	}
	row, _ := repo.GetBySession(ctx, "s1")
	if row.CRMStatus != models.LeadStatusFailed || row.CRMError != crm.ErrTextUnavailable || row.Attempts != 3 {
		t.Fatalf("row = %+v", row)
	}
	if !strings.Contains(string(row.Metadata), `"bike_type":"mountain"`) {
		t.Errorf("metadata = %s", row.Metadata)
	}

	report, err := svc.Resync(ctx, 10)
	if err != nil {
		t.Fatalf("Resync: %v", err)
	}
	if report.Checked != 1 || report.Created != 1 || report.StillFail != 0 {
		t.Errorf("report = %+v", report)
	}
	row, _ = repo.GetBySession(ctx, "s1")
	if row.CRMStatus != models.LeadStatusCreated || row.CRMLeadID != "crm-1" || row.CRMError != "" || row.Attempts != 4 {
		t.Errorf("row after resync = %+v", row)
	}

	stats, err := svc.Stats(ctx)
	if err != nil || stats[models.LeadStatusCreated] != 1 {
		t.Errorf("stats = %v, %v", stats, err)
	}

	if err := svc.Record(ctx, "", lead, crm.Result{}, c); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Errorf("empty session err = %v", err)
	}
}

func TestToTranscript(t *testing.T) {
	s := conversation.NewSession("s1", time.Now().UTC())
	s.UserID = "u1"
	s.AddMessage(conversation.RoleUser, "hi")
	s.State = conversation.StateLeadCreated

	tr := ToTranscript(s, time.Hour)
	if tr.SessionID != "s1" || tr.UserID != "u1" || !tr.LeadCreated || len(tr.Messages) != 1 {
		t.Errorf("transcript = %+v", tr)
	}
	if tr.ExpiresAt.Sub(tr.UpdatedAt) != time.Hour {
		t.Errorf("expiry = %v", tr.ExpiresAt.Sub(tr.UpdatedAt))
	}
}
