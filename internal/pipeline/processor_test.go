package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpaulsen/apflow/internal/category"
	"github.com/kpaulsen/apflow/internal/document"
	"github.com/kpaulsen/apflow/internal/hold"
	"github.com/kpaulsen/apflow/internal/ingest"
	"github.com/kpaulsen/apflow/internal/match"
	"github.com/kpaulsen/apflow/internal/pipeline"
	"github.com/kpaulsen/apflow/internal/retry"
)

// Mock document repository
type mockDocRepo struct {
	created  []*document.Document
	statuses map[uuid.UUID]document.Status
}

func (m *mockDocRepo) CreateDocument(ctx context.Context, doc *document.Document) error {
	doc.ID = uuid.New()
	m.created = append(m.created, doc)
	return nil
}

func (m *mockDocRepo) GetDocument(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	return nil, document.ErrNotFound
}

func (m *mockDocRepo) ListDocuments(ctx context.Context, filter document.ListFilter) ([]*document.Document, error) {
	return nil, nil
}

func (m *mockDocRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status document.Status) error {
	if m.statuses == nil {
		m.statuses = make(map[uuid.UUID]document.Status)
	}
	m.statuses[id] = status
	return nil
}

// Mock dedup reserver
type mockReserver struct {
	reserved bool
	err      error
	keys     []string
}

func (m *mockReserver) Reserve(ctx context.Context, key string, receivedAt time.Time, window time.Duration) (bool, error) {
	m.keys = append(m.keys, key)
	return m.reserved, m.err
}

// Mock hold repository
type mockHoldRepo struct {
	created []*hold.Hold
}

func (m *mockHoldRepo) CreateHold(ctx context.Context, h *hold.Hold) error {
	h.ID = uuid.New()
	h.CreatedAt = time.Now()
	m.created = append(m.created, h)
	return nil
}

func (m *mockHoldRepo) GetHold(ctx context.Context, id uuid.UUID) (*hold.Hold, error) {
	return nil, hold.ErrNotFound
}

func (m *mockHoldRepo) ListHolds(ctx context.Context, filter hold.ListFilter) ([]*hold.Hold, error) {
	return nil, nil
}

func (m *mockHoldRepo) ResolveHold(ctx context.Context, id uuid.UUID, resolvedBy, resolution string) (*hold.Hold, error) {
	return nil, hold.ErrNotFound
}

// Mock PO lookup
type mockPOClient struct {
	lookupFunc func(ctx context.Context, core string, doc *document.Document) (match.POLookup, error)
	calls      int
}

func (m *mockPOClient) LookupPO(ctx context.Context, core string, doc *document.Document) (match.POLookup, error) {
	m.calls++
	if m.lookupFunc != nil {
		return m.lookupFunc(ctx, core, doc)
	}
	return match.POLookup{}, nil
}

// Mock bill creator
type mockBills struct {
	billErr   error
	attempts  int
	bills     int
	drafts    int
	lastFinal *match.Result
}

func (m *mockBills) CreateBill(ctx context.Context, doc *document.Document, res *match.Result) (string, error) {
	m.attempts++
	if m.billErr != nil {
		return "", m.billErr
	}
	m.bills++
	m.lastFinal = res
	return "bill-1", nil
}

func (m *mockBills) CreateDraft(ctx context.Context, doc *document.Document, res *match.Result) (string, error) {
	m.attempts++
	if m.billErr != nil {
		return "", m.billErr
	}
	m.drafts++
	return "draft-1", nil
}

// Mock notifier
type mockNotifier struct {
	holds  int
	drafts int
}

func (m *mockNotifier) HoldCreated(ctx context.Context, h *hold.Hold, doc *document.Document) error {
	m.holds++
	return nil
}

func (m *mockNotifier) DraftCreated(ctx context.Context, doc *document.Document, res *match.Result, billID string) error {
	m.drafts++
	return nil
}

type fixture struct {
	docs     *mockDocRepo
	reserver *mockReserver
	holdRepo *mockHoldRepo
	po       *mockPOClient
	bills    *mockBills
	notifier *mockNotifier
	proc     *pipeline.Processor
}

func newFixture() *fixture {
	f := &fixture{
		docs:     &mockDocRepo{},
		reserver: &mockReserver{reserved: true},
		holdRepo: &mockHoldRepo{},
		po:       &mockPOClient{},
		bills:    &mockBills{},
		notifier: &mockNotifier{},
	}

	f.proc = pipeline.NewProcessor(pipeline.Params{
		Config:    match.Config{ToleranceCents: 2500, DraftBandMultiplier: 2, DedupWindowDays: 90, RetentionYears: 7},
		Builder:   ingest.NewBuilder(category.NewService(nil)),
		Documents: f.docs,
		Dedup:     f.reserver,
		Holds:     hold.NewService(f.holdRepo),
		POLookup:  f.po,
		Bills:     f.bills,
		Notifier:  f.notifier,
		Retry:     retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, Multiplier: 2},
	})

	return f
}

func matchedPO() func(ctx context.Context, core string, doc *document.Document) (match.POLookup, error) {
	return func(_ context.Context, core string, doc *document.Document) (match.POLookup, error) {
		return match.POLookup{
			Found:        true,
			PONumber:     core,
			OrderedTotal: doc.Total,
			JobID:        "job-1",
			TechnicianID: "tech-1",
			VendorID:     "vend-1",
		}, nil
	}
}

func validPayload() *ingest.Payload {
	return &ingest.Payload{
		VendorName:    "Ace Supply Inc",
		InvoiceNumber: "INV-100",
		InvoiceDate:   "2024-03-15",
		Total:         "110.00",
		PONumber:      "1234567",
		ReceivedAt:    "2024-03-16T09:00:00Z",
		Lines: []ingest.PayloadLine{
			{Description: "copper pipe", Quantity: 10, LineTotal: "110.00"},
		},
	}
}

func TestProcessor_AutoFinalize(t *testing.T) {
	f := newFixture()
	f.po.lookupFunc = matchedPO()

	res, err := f.proc.Process(context.Background(), validPayload())

	require.NoError(t, err)
	assert.Equal(t, match.DispositionAutoFinalize, res.Disposition)
	assert.Equal(t, 1, f.bills.bills)
	assert.Empty(t, f.holdRepo.created)

	require.Len(t, f.docs.created, 1)
	assert.Equal(t, document.StatusFinalized, f.docs.statuses[f.docs.created[0].ID])
}

func TestProcessor_DraftThenAlert(t *testing.T) {
	f := newFixture()
	f.po.lookupFunc = func(_ context.Context, core string, doc *document.Document) (match.POLookup, error) {
		// Ordered 40 dollars less than billed: past tolerance, inside the band.
		return match.POLookup{
			Found:        true,
			PONumber:     core,
			OrderedTotal: doc.Total - 4000,
			JobID:        "job-1",
			TechnicianID: "tech-1",
		}, nil
	}

	res, err := f.proc.Process(context.Background(), validPayload())

	require.NoError(t, err)
	assert.Equal(t, match.DispositionDraftThenAlert, res.Disposition)
	assert.Equal(t, 1, f.bills.drafts)
	assert.Equal(t, 1, f.notifier.drafts)
	assert.Equal(t, document.StatusDraftPending, f.docs.statuses[f.docs.created[0].ID])
}

func TestProcessor_MissingPOHold(t *testing.T) {
	f := newFixture()

	payload := validPayload()
	payload.PONumber = ""

	res, err := f.proc.Process(context.Background(), payload)

	require.NoError(t, err)
	assert.Equal(t, match.DispositionHoldForReview, res.Disposition)
	assert.Zero(t, f.po.calls)
	assert.Equal(t, 1, f.notifier.holds)

	require.Len(t, f.holdRepo.created, 1)
	assert.Equal(t, match.ReasonMissingPO, f.holdRepo.created[0].Reason)
	assert.Equal(t, document.StatusHeld, f.docs.statuses[f.docs.created[0].ID])
}

func TestProcessor_DuplicateHold(t *testing.T) {
	f := newFixture()
	f.reserver.reserved = false
	f.po.lookupFunc = matchedPO()

	res, err := f.proc.Process(context.Background(), validPayload())

	require.NoError(t, err)
	assert.Equal(t, match.DispositionHoldForReview, res.Disposition)
	assert.True(t, res.HasReason(match.ReasonDuplicate))

	require.Len(t, f.holdRepo.created, 1)
	assert.Equal(t, match.ReasonDuplicate, f.holdRepo.created[0].Reason)
	assert.Zero(t, f.bills.bills)
}

func TestProcessor_ServiceStockHold(t *testing.T) {
	f := newFixture()

	payload := validPayload()
	payload.PONumber = ""
	payload.RawText = "TRUCK STOCK replenishment, no job"

	res, err := f.proc.Process(context.Background(), payload)

	require.NoError(t, err)
	assert.Equal(t, match.DispositionNonJobStockHold, res.Disposition)

	require.Len(t, f.holdRepo.created, 1)
	assert.Equal(t, match.ReasonServiceStock, f.holdRepo.created[0].Reason)
}

func TestProcessor_NoVendorMatchBecomesHold(t *testing.T) {
	f := newFixture()
	f.po.lookupFunc = matchedPO()
	f.bills.billErr = pipeline.ErrNoVendorMatch

	res, err := f.proc.Process(context.Background(), validPayload())

	require.NoError(t, err)
	assert.Equal(t, match.DispositionHoldForReview, res.Disposition)
	assert.True(t, res.HasReason(match.ReasonNoVendorMatch))

	// The reject is definitive; it must not burn retry attempts.
	assert.Equal(t, 1, f.bills.attempts)

	require.Len(t, f.holdRepo.created, 1)
	assert.Equal(t, match.ReasonNoVendorMatch, f.holdRepo.created[0].Reason)
	assert.Equal(t, document.StatusHeld, f.docs.statuses[f.docs.created[0].ID])
}

func TestProcessor_LookupRetriesThenSucceeds(t *testing.T) {
	f := newFixture()

	attempts := 0
	f.po.lookupFunc = func(ctx context.Context, core string, doc *document.Document) (match.POLookup, error) {
		attempts++
		if attempts == 1 {
			return match.POLookup{}, errors.New("connection reset")
		}
		return matchedPO()(ctx, core, doc)
	}

	res, err := f.proc.Process(context.Background(), validPayload())

	require.NoError(t, err)
	assert.Equal(t, match.DispositionAutoFinalize, res.Disposition)
	assert.Equal(t, 2, f.po.calls)
}

func TestProcessor_LookupFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.po.lookupFunc = func(ctx context.Context, core string, doc *document.Document) (match.POLookup, error) {
		return match.POLookup{}, errors.New("gateway timeout")
	}

	_, err := f.proc.Process(context.Background(), validPayload())

	assert.Error(t, err)
	assert.Empty(t, f.holdRepo.created)
	assert.Zero(t, f.bills.bills)
}

func TestProcessor_DedupKeyFromNormalizedVendor(t *testing.T) {
	f := newFixture()
	f.po.lookupFunc = matchedPO()

	_, err := f.proc.Process(context.Background(), validPayload())

	require.NoError(t, err)
	require.Len(t, f.reserver.keys, 1)
	assert.Equal(t, "acesupply|inv-100", f.reserver.keys[0])
}

func TestProcessor_HoldCarriesSuggestedActions(t *testing.T) {
	f := newFixture()
	f.po.lookupFunc = func(_ context.Context, core string, doc *document.Document) (match.POLookup, error) {
		return match.POLookup{
			Found: false,
			Suggestions: []match.Suggestion{
				{JobID: "job-7", Confidence: 0.8, Basis: match.BasisName},
			},
		}, nil
	}

	_, err := f.proc.Process(context.Background(), validPayload())

	require.NoError(t, err)
	require.Len(t, f.holdRepo.created, 1)

	actions := f.holdRepo.created[0].SuggestedActions
	require.NotEmpty(t, actions)
	assert.Contains(t, actions[0], "job-7")
}
