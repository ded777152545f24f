package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/shopfront/internal/coupon"
	"github.com/noah-isme/shopfront/internal/pricing"
	"github.com/noah-isme/shopfront/internal/store"
)

// Checkout steps, in the only order they may be completed.
const (
	StepInformation = "information"
	StepShipping    = "shipping"
	StepPayment     = "payment"
	StepComplete    = "complete"
)

// DefaultShippingMethod is preselected on every session so the shipping step
// never blocks on a choice.
const DefaultShippingMethod = "standard"

var (
	// ErrSessionNotFound is returned for unknown or expired sessions.
	ErrSessionNotFound = errors.New("checkout session not found")
	// ErrStepIncomplete is returned when a step is submitted before its
	// predecessor is complete.
	ErrStepIncomplete = errors.New("previous checkout step is incomplete")
	// ErrNoItems is returned when a session is opened with an empty cart.
	ErrNoItems = errors.New("checkout requires at least one item")
)

// Item is a cart line captured when the session opens; the unit price is
// frozen there and carried into the order.
type Item struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int32     `json:"quantity"`
	UnitPrice int64     `json:"unitPrice"`
}

// Information is the customer contact step.
type Information struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Shipping is the carrier choice step. Cost is minor units.
type Shipping struct {
	Method    string     `json:"method"`
	CarrierID *uuid.UUID `json:"carrierId"`
	Cost      int64      `json:"cost"`
}

// Payment records the chosen payment method and an optional coupon.
type Payment struct {
	Method     string `json:"method"`
	CouponCode string `json:"couponCode"`
}

// Session is the Redis-persisted checkout state. Step names the next step to
// complete; earlier steps keep their data when the shopper navigates back.
type Session struct {
	ID          string       `json:"id"`
	Step        string       `json:"step"`
	Items       []Item       `json:"items"`
	Information *Information `json:"information"`
	Shipping    Shipping     `json:"shipping"`
	Payment     *Payment     `json:"payment"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Draft is the order payload produced when the payment step completes. It maps
// one-to-one onto order creation.
type Draft struct {
	CustomerEmail   string
	CustomerName    string
	ShippingAddress string
	CarrierID       *uuid.UUID
	CouponID        *uuid.UUID
	Summary         pricing.Summary
	Items           []Item
}

// CouponValidator is the read-only coupon check used during the payment step.
type CouponValidator interface {
	Validate(ctx context.Context, code string) (store.Coupon, error)
}

// Service drives checkout sessions through their steps.
type Service struct {
	R       *redis.Client
	TTL     time.Duration
	TaxBps  int
	Coupons CouponValidator
}

func sessionKey(id string) string {
	return "checkout:" + id
}

// Create opens a session at the information step.
func (s *Service) Create(ctx context.Context, items []Item) (Session, error) {
	valid := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		valid = append(valid, it)
	}
	if len(valid) == 0 {
		return Session{}, ErrNoItems
	}
	sess := Session{
		ID:        uuid.NewString(),
		Step:      StepInformation,
		Items:     valid,
		Shipping:  Shipping{Method: DefaultShippingMethod},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.save(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Get loads a session.
func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	data, err := s.R.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// PutInformation records the contact step. Email and address are required;
// resubmitting later keeps the session's subsequent data intact.
func (s *Service) PutInformation(ctx context.Context, id string, info Information) (Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	info.Email = strings.TrimSpace(info.Email)
	info.Name = strings.TrimSpace(info.Name)
	info.Address = strings.TrimSpace(info.Address)
	if info.Email == "" || info.Address == "" {
		return Session{}, ErrStepIncomplete
	}
	sess.Information = &info
	if sess.Step == StepInformation {
		sess.Step = StepShipping
	}
	if err := s.save(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// PutShipping records the carrier choice. The default method stands in when
// the shopper submits nothing, so this step cannot block progression.
func (s *Service) PutShipping(ctx context.Context, id string, choice Shipping) (Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.Information == nil {
		return Session{}, ErrStepIncomplete
	}
	if strings.TrimSpace(choice.Method) == "" {
		choice.Method = DefaultShippingMethod
		choice.Cost = 0
	}
	if choice.Cost < 0 {
		choice.Cost = 0
	}
	sess.Shipping = choice
	if sess.Step == StepShipping {
		sess.Step = StepPayment
	}
	if err := s.save(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// PutPayment completes the session and returns the order draft. The coupon is
// validated here, read-only; its usage is counted only when the order persists.
func (s *Service) PutPayment(ctx context.Context, id string, payment Payment) (Session, Draft, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return Session{}, Draft{}, err
	}
	if sess.Information == nil || sess.Step == StepInformation || sess.Step == StepShipping {
		return Session{}, Draft{}, ErrStepIncomplete
	}
	var (
		discount *pricing.Discount
		couponID *uuid.UUID
	)
	if code := strings.TrimSpace(payment.CouponCode); code != "" {
		c, err := s.Coupons.Validate(ctx, code)
		if err != nil {
			return Session{}, Draft{}, err
		}
		d := coupon.ToDiscount(c)
		discount = &d
		couponID = &c.ID
		payment.CouponCode = c.Code
	}
	items := make([]pricing.Item, 0, len(sess.Items))
	for _, it := range sess.Items {
		items = append(items, pricing.Item{Qty: int(it.Quantity), UnitPrice: it.UnitPrice})
	}
	summary := pricing.Compute(items, discount, s.TaxBps, sess.Shipping.Cost)

	sess.Payment = &payment
	sess.Step = StepComplete
	if err := s.save(ctx, sess); err != nil {
		return Session{}, Draft{}, err
	}
	draft := Draft{
		CustomerEmail:   sess.Information.Email,
		CustomerName:    sess.Information.Name,
		ShippingAddress: sess.Information.Address,
		CarrierID:       sess.Shipping.CarrierID,
		CouponID:        couponID,
		Summary:         summary,
		Items:           sess.Items,
	}
	return sess, draft, nil
}

func (s *Service) save(ctx context.Context, sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.R.Set(ctx, sessionKey(sess.ID), data, s.TTL).Err()
}
