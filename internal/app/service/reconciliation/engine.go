package reconciliation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/m073med011/lms-api/internal/app/service/enrollment"
	"github.com/m073med011/lms-api/internal/app/service/purchase"
	"github.com/m073med011/lms-api/internal/app/service/signallog"
	"github.com/m073med011/lms-api/internal/models"
	"github.com/m073med011/lms-api/internal/platform/paymob"
	"github.com/m073med011/lms-api/pkg/logctx"
	"github.com/m073med011/lms-api/pkg/metrics"
	"github.com/m073med011/lms-api/pkg/types"
)

// ErrVerificationFailed is returned when a client asserts success but the
// gateway does not report the order as paid. The purchase stays Pending.
var ErrVerificationFailed = errors.New("payment not confirmed by gateway")

// ErrAmountMismatch is returned when a webhook reports an amount different
// from the ledger snapshot. The signal is rejected without mutation.
var ErrAmountMismatch = errors.New("webhook amount does not match purchase")

// PurchaseLedger is the slice of the purchase store the engine drives.
type PurchaseLedger interface {
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Purchase, error)
	FindByID(ctx context.Context, id string) (*models.Purchase, error)
	CompareAndTransition(ctx context.Context, transactionID string, from, to types.PurchaseStatus) (*models.Purchase, bool, error)
}

// Granter applies the enrollment side effect of a paid purchase.
type Granter interface {
	Grant(ctx context.Context, userID, courseID string) error
	EnqueueRetry(ctx context.Context, userID, courseID, transactionID string, cause error)
}

// OrderVerifier answers the authoritative payment status of a gateway order.
type OrderVerifier interface {
	Authenticate(ctx context.Context) (string, error)
	OrderPaid(ctx context.Context, token, orderID string) (bool, error)
}

// SignalRecorder persists the audit trail of inbound signals.
type SignalRecorder interface {
	Save(ctx context.Context, entry *models.PaymentSignalLog)
}

// Engine converges Pending purchases to a terminal, gateway-verified status
// from out-of-order, duplicated, or contradictory inbound signals.
type Engine interface {
	HandleWebhook(ctx context.Context, sig *WebhookSignal) (*models.Purchase, error)
	HandleConfirm(ctx context.Context, sig *ConfirmSignal) (*models.Purchase, error)
	PurchaseStatus(ctx context.Context, purchaseID string) (types.PurchaseStatus, error)
}

type Service struct {
	ledger  PurchaseLedger
	granter Granter
	gateway OrderVerifier
	signals SignalRecorder
	m       *metrics.Exporter
	log     *zap.SugaredLogger
}

func NewService(store *purchase.Store, granter *enrollment.Service, gateway *paymob.Client, signals *signallog.Service, m *metrics.Exporter, log *zap.SugaredLogger) Engine {
	return &Service{ledger: store, granter: granter, gateway: gateway, signals: signals, m: m, log: log}
}

// HandleWebhook reconciles a processor-pushed result. The origin is the
// gateway itself, so no re-verification round trip is made; payload
// integrity (known transaction, matching amount) is still checked.
func (s *Service) HandleWebhook(ctx context.Context, sig *WebhookSignal) (p *models.Purchase, retErr error) {
	defer s.audit(ctx, models.SignalSourceWebhook, sig.TransactionID, sig, &p, &retErr)()

	p, retErr = s.resolve(ctx, models.SignalSourceWebhook, sig.TransactionID)
	if retErr != nil {
		return nil, retErr
	}

	target := statusFor(sig.Success)
	if done, res, err := s.terminalShortCircuit(ctx, models.SignalSourceWebhook, p, target); done {
		return res, err
	}

	if sig.Success && sig.AmountCents > 0 && sig.AmountCents != p.AmountCents {
		logctx.FromCtx(ctx, s.log).Errorw("webhook_amount_mismatch",
			"transaction_id", sig.TransactionID,
			"expected_cents", p.AmountCents, "reported_cents", sig.AmountCents)
		s.observe(models.SignalSourceWebhook, "rejected")
		return nil, fmt.Errorf("%w: expected %d got %d", ErrAmountMismatch, p.AmountCents, sig.AmountCents)
	}

	return s.apply(ctx, models.SignalSourceWebhook, p, target)
}

// HandleConfirm reconciles a client-originated result. A client-asserted
// success is only honored after the gateway independently reports the
// order as paid; a bare assertion never mints enrollment.
func (s *Service) HandleConfirm(ctx context.Context, sig *ConfirmSignal) (p *models.Purchase, retErr error) {
	defer s.audit(ctx, models.SignalSourceConfirm, sig.TransactionID, sig, &p, &retErr)()

	p, retErr = s.resolve(ctx, models.SignalSourceConfirm, sig.TransactionID)
	if retErr != nil {
		return nil, retErr
	}

	target := statusFor(sig.ClientAssertedSuccess)
	if done, res, err := s.terminalShortCircuit(ctx, models.SignalSourceConfirm, p, target); done {
		return res, err
	}

	if sig.ClientAssertedSuccess {
		token, err := s.gateway.Authenticate(ctx)
		if err != nil {
			s.observe(models.SignalSourceConfirm, "error")
			return nil, fmt.Errorf("failed to verify confirmation: %w", err)
		}
		paid, err := s.gateway.OrderPaid(ctx, token, sig.TransactionID)
		if err != nil {
			s.observe(models.SignalSourceConfirm, "error")
			return nil, fmt.Errorf("failed to verify confirmation: %w", err)
		}
		if !paid {
			logctx.FromCtx(ctx, s.log).Warnw("confirm_not_verified",
				"transaction_id", sig.TransactionID)
			s.observe(models.SignalSourceConfirm, "rejected")
			return nil, ErrVerificationFailed
		}
	}

	return s.apply(ctx, models.SignalSourceConfirm, p, target)
}

// PurchaseStatus is the read-only status query; it never mutates.
func (s *Service) PurchaseStatus(ctx context.Context, purchaseID string) (types.PurchaseStatus, error) {
	p, err := s.ledger.FindByID(ctx, purchaseID)
	if err != nil {
		return "", err
	}
	return p.Status, nil
}

func (s *Service) resolve(ctx context.Context, source models.SignalSource, transactionID string) (*models.Purchase, error) {
	p, err := s.ledger.FindByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, purchase.ErrNotFound) {
			// Unknown transaction: logged, never retried.
			logctx.FromCtx(ctx, s.log).Warnw("signal_for_unknown_transaction",
				"source", source, "transaction_id", transactionID)
			s.observe(source, "unknown")
		}
		return nil, err
	}
	return p, nil
}

// terminalShortCircuit handles signals for already-settled purchases:
// a re-delivery of the reached status acknowledges idempotently, a
// contradictory target is rejected without mutation.
func (s *Service) terminalShortCircuit(ctx context.Context, source models.SignalSource, p *models.Purchase, target types.PurchaseStatus) (bool, *models.Purchase, error) {
	if !p.Terminal() {
		return false, nil, nil
	}
	if p.Status == target {
		s.observe(source, "noop")
		return true, p, nil
	}
	logctx.FromCtx(ctx, s.log).Errorw("manual_review_required",
		"source", source, "transaction_id", p.TransactionID,
		"status", p.Status, "signal_target", target)
	s.observe(source, "rejected")
	return true, nil, fmt.Errorf("%w: %s -> %s", purchase.ErrIllegalTransition, p.Status, target)
}

func (s *Service) apply(ctx context.Context, source models.SignalSource, p *models.Purchase, target types.PurchaseStatus) (*models.Purchase, error) {
	cur, transitioned, err := s.ledger.CompareAndTransition(ctx, p.TransactionID, types.PurchaseStatusPending, target)
	if err != nil {
		if errors.Is(err, purchase.ErrStaleTransition) {
			// A concurrent signal won the race; absorb when it agreed with us.
			if cur != nil && cur.Status == target {
				s.observe(source, "noop")
				return cur, nil
			}
			logctx.FromCtx(ctx, s.log).Errorw("manual_review_required",
				"source", source, "transaction_id", p.TransactionID,
				"signal_target", target)
			s.observe(source, "rejected")
			return nil, fmt.Errorf("%w: lost race toward different status", purchase.ErrIllegalTransition)
		}
		if errors.Is(err, purchase.ErrIllegalTransition) {
			logctx.FromCtx(ctx, s.log).Errorw("manual_review_required",
				"source", source, "transaction_id", p.TransactionID,
				"signal_target", target)
			s.observe(source, "rejected")
			return nil, err
		}
		s.observe(source, "error")
		return nil, err
	}

	if !transitioned {
		s.observe(source, "noop")
		return cur, nil
	}

	s.observe(source, strings.ToLower(string(target)))
	logctx.FromCtx(ctx, s.log).Infow("purchase_settled",
		"source", source, "transaction_id", cur.TransactionID, "status", cur.Status)

	if target == types.PurchaseStatusPaid {
		if gerr := s.granter.Grant(ctx, cur.UserID, cur.CourseID); gerr != nil {
			// Paid is the source of truth for "was charged"; never rolled
			// back. The missing grant goes to the retry queue and alerts.
			logctx.FromCtx(ctx, s.log).Errorw("paid_but_not_granted",
				"transaction_id", cur.TransactionID,
				"user_id", cur.UserID, "course_id", cur.CourseID, "err", gerr)
			s.granter.EnqueueRetry(ctx, cur.UserID, cur.CourseID, cur.TransactionID, gerr)
		}
	}
	return cur, nil
}

func (s *Service) observe(source models.SignalSource, outcome string) {
	if s.m != nil {
		s.m.ObserveReconcile(string(source), outcome)
	}
}

// audit records the received signal and, via the returned closure, its
// handling result, following the notification-log pattern: one row on
// receipt, one row with the outcome.
func (s *Service) audit(ctx context.Context, source models.SignalSource, transactionID string, sig any, p **models.Purchase, retErr *error) func() {
	if s.signals == nil {
		return func() {}
	}
	var traceID string
	if v, ok := ctx.Value("traceID").(string); ok {
		traceID = v
	}
	dataBytes, _ := json.Marshal(sig)

	s.signals.Save(ctx, &models.PaymentSignalLog{
		Source:        source,
		TraceID:       traceID,
		TransactionID: transactionID,
		SignalTime:    time.Now(),
		Data:          datatypes.JSON(dataBytes),
		Status:        models.PaymentSignalLogStatusReceived,
	})

	return func() {
		resMap := map[string]any{}
		if p != nil && *p != nil {
			resMap["purchase_id"] = (*p).ID
			resMap["status"] = (*p).Status
		}
		status := models.PaymentSignalLogStatusHandled
		if retErr != nil && *retErr != nil {
			resMap["error"] = (*retErr).Error()
			status = models.PaymentSignalLogStatusHandleFailed
		}
		resBytes, _ := json.Marshal(resMap)
		s.signals.Save(ctx, &models.PaymentSignalLog{
			Source:        source,
			TraceID:       traceID,
			TransactionID: transactionID,
			SignalTime:    time.Now(),
			Data:          datatypes.JSON(dataBytes),
			Result:        func() *datatypes.JSON { j := datatypes.JSON(resBytes); return &j }(),
			Status:        status,
		})
	}
}
