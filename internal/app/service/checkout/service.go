package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/m073med011/lms-api/internal/app/service/catalog"
	"github.com/m073med011/lms-api/internal/app/service/purchase"
	"github.com/m073med011/lms-api/internal/app/service/users"
	"github.com/m073med011/lms-api/internal/models"
	"github.com/m073med011/lms-api/internal/platform/paymob"
	"github.com/m073med011/lms-api/pkg/logctx"
	"github.com/m073med011/lms-api/pkg/tool"
)

var (
	ErrAlreadyPurchased  = errors.New("course already purchased")
	ErrCourseNotSellable = errors.New("course is not available for purchase")
	ErrOwnCoursePurchase = errors.New("instructors cannot purchase their own course")
)

// CourseReader resolves the course being bought.
type CourseReader interface {
	GetCourse(ctx context.Context, id string) (*models.Course, error)
}

// BuyerReader resolves the purchasing user for billing data.
type BuyerReader interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

// Gateway is the slice of the payment gateway the checkout flow drives.
type Gateway interface {
	Authenticate(ctx context.Context) (string, error)
	CreateOrder(ctx context.Context, token string, amountCents int64, merchantOrderID string) (string, error)
	IssuePaymentKey(ctx context.Context, token, orderID string, amountCents int64, billing paymob.BillingData) (string, error)
	PaymentURL(paymentToken string) string
}

// Ledger records the Pending purchase once the gateway leg succeeds.
type Ledger interface {
	HasPaid(ctx context.Context, userID, courseID string) (bool, error)
	Create(ctx context.Context, userID, courseID, transactionID string, amountCents int64) (*models.Purchase, error)
}

// RedirectTarget is what the client needs to hand the buyer to the
// hosted payment page and to poll the purchase afterwards.
type RedirectTarget struct {
	RedirectURL string `json:"redirect_url"`
	PurchaseID  string `json:"purchase_id"`
}

type Service struct {
	courses CourseReader
	buyers  BuyerReader
	gateway Gateway
	ledger  Ledger
	log     *zap.SugaredLogger
}

func NewService(courses *catalog.Service, buyers *users.Service, gateway *paymob.Client, ledger *purchase.Store, log *zap.SugaredLogger) *Service {
	return &Service{courses: courses, buyers: buyers, gateway: gateway, ledger: ledger, log: log}
}

// InitiateCheckout runs the three-leg gateway handshake and records a
// Pending purchase keyed by the gateway order id. No purchase row is
// written when any gateway leg fails, so there is nothing to reconcile
// for checkouts that never produced an order.
func (s *Service) InitiateCheckout(ctx context.Context, userID, courseID string) (*RedirectTarget, error) {
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished {
		return nil, fmt.Errorf("%w: %s", ErrCourseNotSellable, courseID)
	}
	if course.InstructorID == userID {
		return nil, ErrOwnCoursePurchase
	}

	buyer, err := s.buyers.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	paid, err := s.ledger.HasPaid(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if paid {
		return nil, fmt.Errorf("%w: user %s course %s", ErrAlreadyPurchased, userID, courseID)
	}

	token, err := s.gateway.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	orderID, err := s.gateway.CreateOrder(ctx, token, course.PriceCents, tool.GenerateUUIDV7())
	if err != nil {
		return nil, err
	}

	paymentToken, err := s.gateway.IssuePaymentKey(ctx, token, orderID, course.PriceCents, paymob.BillingDataFor(buyer.Name, buyer.Email))
	if err != nil {
		return nil, err
	}

	p, err := s.ledger.Create(ctx, userID, courseID, orderID, course.PriceCents)
	if err != nil {
		if errors.Is(err, purchase.ErrConflict) {
			return nil, fmt.Errorf("%w: user %s course %s", ErrAlreadyPurchased, userID, courseID)
		}
		// The gateway order exists but was never recorded; it will expire
		// unpaid on the gateway side.
		logctx.FromCtx(ctx, s.log).Errorw("checkout_order_not_recorded",
			"order_id", orderID, "user_id", userID, "course_id", courseID, "err", err)
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("checkout_initiated",
		"purchase_id", p.ID, "order_id", orderID,
		"course_id", courseID, "amount_cents", course.PriceCents)

	return &RedirectTarget{
		RedirectURL: s.gateway.PaymentURL(paymentToken),
		PurchaseID:  p.ID,
	}, nil
}
