package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/m073med011/lms-api/internal/app/service/purchase"
	"github.com/m073med011/lms-api/internal/models"
	"github.com/m073med011/lms-api/pkg/types"
)

// fakeLedger mimics the store's compare-and-set contract in memory,
// including the idempotent no-op and illegal-transition classification.
type fakeLedger struct {
	mu   sync.Mutex
	byTx map[string]*models.Purchase
	// beforeCAS lets a test interleave a concurrent writer between signal
	// resolution and the conditional update.
	beforeCAS func()
}

func newFakeLedger(purchases ...*models.Purchase) *fakeLedger {
	f := &fakeLedger{byTx: map[string]*models.Purchase{}}
	for _, p := range purchases {
		f.byTx[p.TransactionID] = p
	}
	return f
}

func (f *fakeLedger) FindByTransactionID(_ context.Context, txID string) (*models.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byTx[txID]
	if !ok {
		return nil, fmt.Errorf("%w: transaction %s", purchase.ErrNotFound, txID)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeLedger) FindByID(_ context.Context, id string) (*models.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byTx {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: id %s", purchase.ErrNotFound, id)
}

func (f *fakeLedger) CompareAndTransition(_ context.Context, txID string, from, to types.PurchaseStatus) (*models.Purchase, bool, error) {
	if f.beforeCAS != nil {
		f.beforeCAS()
		f.beforeCAS = nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byTx[txID]
	if !ok {
		return nil, false, fmt.Errorf("%w: transaction %s", purchase.ErrNotFound, txID)
	}
	if p.Status == from {
		p.Status = to
		cp := *p
		return &cp, true, nil
	}
	cp := *p
	return &cp, false, purchase.ClassifyLostUpdate(p.Status, to)
}

func (f *fakeLedger) setStatus(txID string, st types.PurchaseStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byTx[txID].Status = st
}

type fakeGranter struct {
	mu      sync.Mutex
	grants  map[string]int
	retries int
	failErr error
}

func newFakeGranter() *fakeGranter { return &fakeGranter{grants: map[string]int{}} }

func (f *fakeGranter) Grant(_ context.Context, userID, courseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.grants[userID+":"+courseID]++
	return nil
}

func (f *fakeGranter) EnqueueRetry(_ context.Context, _, _, _ string, _ error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retries++
}

type fakeVerifier struct {
	paid    map[string]bool
	authErr error
}

func (f *fakeVerifier) Authenticate(context.Context) (string, error) {
	if f.authErr != nil {
		return "", f.authErr
	}
	return "auth-token", nil
}

func (f *fakeVerifier) OrderPaid(_ context.Context, _, orderID string) (bool, error) {
	return f.paid[orderID], nil
}

func pendingPurchase(txID string) *models.Purchase {
	return &models.Purchase{
		ID:            "purchase-" + txID,
		UserID:        "user-1",
		CourseID:      "course-1",
		TransactionID: txID,
		AmountCents:   5000,
		Status:        types.PurchaseStatusPending,
	}
}

func newTestEngine(ledger *fakeLedger, granter *fakeGranter, verifier *fakeVerifier) *Service {
	if verifier == nil {
		verifier = &fakeVerifier{paid: map[string]bool{}}
	}
	return &Service{
		ledger:  ledger,
		granter: granter,
		gateway: verifier,
		log:     zap.NewNop().Sugar(),
	}
}

func TestHandleWebhook_SuccessSettlesAndGrants(t *testing.T) {
	ledger := newFakeLedger(pendingPurchase("9001"))
	granter := newFakeGranter()
	eng := newTestEngine(ledger, granter, nil)

	p, err := eng.HandleWebhook(context.Background(), &WebhookSignal{TransactionID: "9001", Success: true, AmountCents: 5000})
	require.NoError(t, err)
	require.Equal(t, types.PurchaseStatusPaid, p.Status)
	require.Equal(t, 1, granter.grants["user-1:course-1"])
}

func TestHandleWebhook_DuplicateDeliveryIsIdempotent(t *testing.T) {
	ledger := newFakeLedger(pendingPurchase("9001"))
	granter := newFakeGranter()
	eng := newTestEngine(ledger, granter, nil)

	sig := &WebhookSignal{TransactionID: "9001", Success: true, AmountCents: 5000}
	_, err := eng.HandleWebhook(context.Background(), sig)
	require.NoError(t, err)

	p, err := eng.HandleWebhook(context.Background(), sig)
	require.NoError(t, err)
	require.Equal(t, types.PurchaseStatusPaid, p.Status)
	// Set membership unchanged on the second delivery.
	require.Equal(t, 1, granter.grants["user-1:course-1"])
}

func TestHandleWebhook_FailureSettlesWithoutGrant(t *testing.T) {
	ledger := newFakeLedger(pendingPurchase("9001"))
	granter := newFakeGranter()
	eng := newTestEngine(ledger, granter, nil)

	p, err := eng.HandleWebhook(context.Background(), &WebhookSignal{TransactionID: "9001", Success: false})
	require.NoError(t, err)
	require.Equal(t, types.PurchaseStatusFailed, p.Status)
	require.Empty(t, granter.grants)
}

func TestHandleWebhook_ContradictorySignalIsRejected(t *testing.T) {
	ledger := newFakeLedger(pendingPurchase("9001"))
	granter := newFakeGranter()
	eng := newTestEngine(ledger, granter, nil)

	_, err := eng.HandleWebhook(context.Background(), &WebhookSignal{TransactionID: "9001", Success: true, AmountCents: 5000})
	require.NoError(t, err)

	_, err = eng.HandleWebhook(context.Background(), &WebhookSignal{TransactionID: "9001", Success: false})
	require.True(t, errors.Is(err, purchase.ErrIllegalTransition))

	p, err := ledger.FindByTransactionID(context.Background(), "9001")
	require.NoError(t, err)
	require.Equal(t, types.PurchaseStatusPaid, p.Status)
}

func TestHandleWebhook_AmountMismatchIsRejected(t *testing.T) {
	ledger := newFakeLedger(pendingPurchase("9001"))
	granter := newFakeGranter()
	eng := newTestEngine(ledger, granter, nil)

	_, err := eng.HandleWebhook(context.Background(), &WebhookSignal{TransactionID: "9001", Success: true, AmountCents: 100})
	require.True(t, errors.Is(err, ErrAmountMismatch))

	p, _ := ledger.FindByTransactionID(context.Background(), "9001")
	require.Equal(t, types.PurchaseStatusPending, p.Status)
	require.Empty(t, granter.grants)
}

func TestHandleWebhook_UnknownTransaction(t *testing.T) {
	eng := newTestEngine(newFakeLedger(), newFakeGranter(), nil)

	_, err := eng.HandleWebhook(context.Background(), &WebhookSignal{TransactionID: "nope", Success: true})
	require.True(t, errors.Is(err, purchase.ErrNotFound))
}

func TestHandleConfirm_UnverifiedAssertionNeverPays(t *testing.T) {
	ledger := newFakeLedger(pendingPurchase("9001"))
	granter := newFakeGranter()
	verifier := &fakeVerifier{paid: map[string]bool{"9001": false}}
	eng := newTestEngine(ledger, granter, verifier)

	_, err := eng.HandleConfirm(context.Background(), &ConfirmSignal{TransactionID: "9001", ClientAssertedSuccess: true})
	require.True(t, errors.Is(err, ErrVerificationFailed))

	p, _ := ledger.FindByTransactionID(context.Background(), "9001")
	require.Equal(t, types.PurchaseStatusPending, p.Status)
	require.Empty(t, granter.grants)
}

func TestHandleConfirm_VerifiedSuccessPaysAndGrants(t *testing.T) {
	ledger := newFakeLedger(pendingPurchase("9001"))
	granter := newFakeGranter()
	verifier := &fakeVerifier{paid: map[string]bool{"9001": true}}
	eng := newTestEngine(ledger, granter, verifier)

	p, err := eng.HandleConfirm(context.Background(), &ConfirmSignal{TransactionID: "9001", ClientAssertedSuccess: true})
	require.NoError(t, err)
	require.Equal(t, types.PurchaseStatusPaid, p.Status)
	require.Equal(t, 1, granter.grants["user-1:course-1"])
}

func TestHandleConfirm_ClientReportedFailureNeedsNoVerification(t *testing.T) {
	ledger := newFakeLedger(pendingPurchase("9001"))
	granter := newFakeGranter()
	verifier := &fakeVerifier{authErr: errors.New("gateway down")}
	eng := newTestEngine(ledger, granter, verifier)

	p, err := eng.HandleConfirm(context.Background(), &ConfirmSignal{TransactionID: "9001", ClientAssertedSuccess: false})
	require.NoError(t, err)
	require.Equal(t, types.PurchaseStatusFailed, p.Status)
}

func TestHandleConfirm_RepeatOnSettledPurchaseIsAcknowledged(t *testing.T) {
	p := pendingPurchase("9001")
	p.Status = types.PurchaseStatusPaid
	ledger := newFakeLedger(p)
	granter := newFakeGranter()
	// No verifier round trip should be needed for an already settled purchase.
	verifier := &fakeVerifier{authErr: errors.New("gateway down")}
	eng := newTestEngine(ledger, granter, verifier)

	got, err := eng.HandleConfirm(context.Background(), &ConfirmSignal{TransactionID: "9001", ClientAssertedSuccess: true})
	require.NoError(t, err)
	require.Equal(t, types.PurchaseStatusPaid, got.Status)
	require.Empty(t, granter.grants)
}

func TestApply_RaceWithAgreeingWinnerIsAbsorbed(t *testing.T) {
	ledger := newFakeLedger(pendingPurchase("9001"))
	granter := newFakeGranter()
	eng := newTestEngine(ledger, granter, nil)

	// A concurrent webhook settles Paid between resolution and the CAS.
	ledger.beforeCAS = func() { ledger.setStatus("9001", types.PurchaseStatusPaid) }

	p, err := eng.HandleWebhook(context.Background(), &WebhookSignal{TransactionID: "9001", Success: true, AmountCents: 5000})
	require.NoError(t, err)
	require.Equal(t, types.PurchaseStatusPaid, p.Status)
	// The winner granted; the loser must not grant again.
	require.Empty(t, granter.grants)
}

func TestApply_RaceWithContradictingWinnerIsRejected(t *testing.T) {
	ledger := newFakeLedger(pendingPurchase("9001"))
	granter := newFakeGranter()
	eng := newTestEngine(ledger, granter, nil)

	ledger.beforeCAS = func() { ledger.setStatus("9001", types.PurchaseStatusFailed) }

	_, err := eng.HandleWebhook(context.Background(), &WebhookSignal{TransactionID: "9001", Success: true, AmountCents: 5000})
	require.True(t, errors.Is(err, purchase.ErrIllegalTransition))

	p, _ := ledger.FindByTransactionID(context.Background(), "9001")
	require.Equal(t, types.PurchaseStatusFailed, p.Status)
}

func TestGrantFailure_StatusStaysPaidAndRetryQueued(t *testing.T) {
	ledger := newFakeLedger(pendingPurchase("9001"))
	granter := newFakeGranter()
	granter.failErr = errors.New("enrollment db down")
	eng := newTestEngine(ledger, granter, nil)

	p, err := eng.HandleWebhook(context.Background(), &WebhookSignal{TransactionID: "9001", Success: true, AmountCents: 5000})
	require.NoError(t, err)
	require.Equal(t, types.PurchaseStatusPaid, p.Status)
	require.Equal(t, 1, granter.retries)
}

func TestPurchaseStatus_ReadsWithoutMutating(t *testing.T) {
	ledger := newFakeLedger(pendingPurchase("9001"))
	eng := newTestEngine(ledger, newFakeGranter(), nil)

	st, err := eng.PurchaseStatus(context.Background(), "purchase-9001")
	require.NoError(t, err)
	require.Equal(t, types.PurchaseStatusPending, st)

	_, err = eng.PurchaseStatus(context.Background(), "missing")
	require.True(t, errors.Is(err, purchase.ErrNotFound))
}
