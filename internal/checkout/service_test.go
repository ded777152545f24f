package checkout_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shopfront/internal/checkout"
	"github.com/noah-isme/shopfront/internal/coupon"
	"github.com/noah-isme/shopfront/internal/store"
)

type stubCouponLookup struct {
	coupons map[string]store.Coupon
}

func (s stubCouponLookup) GetCouponByCode(_ context.Context, code string) (store.Coupon, error) {
	c, ok := s.coupons[code]
	if !ok {
		return store.Coupon{}, pgx.ErrNoRows
	}
	return c, nil
}

func newCheckoutService(t *testing.T, coupons ...store.Coupon) *checkout.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	byCode := make(map[string]store.Coupon, len(coupons))
	for _, c := range coupons {
		byCode[c.Code] = c
	}
	return &checkout.Service{
		R:       client,
		TTL:     time.Hour,
		TaxBps:  800,
		Coupons: &coupon.Service{Q: stubCouponLookup{coupons: byCode}},
	}
}

func cartItems() []checkout.Item {
	return []checkout.Item{
		{ProductID: uuid.New(), Quantity: 1, UnitPrice: 7999},
		{ProductID: uuid.New(), Quantity: 1, UnitPrice: 4999},
	}
}

func info() checkout.Information {
	return checkout.Information{Email: "jo@example.com", Name: "Jo", Address: "1 Main St"}
}

func TestSessionProgressesLinearly(t *testing.T) {
	t.Parallel()

	svc := newCheckoutService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, cartItems())
	require.NoError(t, err)
	require.Equal(t, checkout.StepInformation, sess.Step)
	require.Equal(t, checkout.DefaultShippingMethod, sess.Shipping.Method)

	sess, err = svc.PutInformation(ctx, sess.ID, info())
	require.NoError(t, err)
	require.Equal(t, checkout.StepShipping, sess.Step)

	sess, err = svc.PutShipping(ctx, sess.ID, checkout.Shipping{})
	require.NoError(t, err)
	require.Equal(t, checkout.StepPayment, sess.Step)
	require.Equal(t, checkout.DefaultShippingMethod, sess.Shipping.Method)

	sess, draft, err := svc.PutPayment(ctx, sess.ID, checkout.Payment{Method: "card"})
	require.NoError(t, err)
	require.Equal(t, checkout.StepComplete, sess.Step)
	require.Equal(t, int64(12998), draft.Summary.Subtotal)
	require.Equal(t, int64(1039), draft.Summary.Tax)
	require.Equal(t, int64(14037), draft.Summary.Total)
}

func TestStepsCannotRunAhead(t *testing.T) {
	t.Parallel()

	svc := newCheckoutService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, cartItems())
	require.NoError(t, err)

	_, err = svc.PutShipping(ctx, sess.ID, checkout.Shipping{Method: "express", Cost: 1500})
	require.ErrorIs(t, err, checkout.ErrStepIncomplete)

	_, _, err = svc.PutPayment(ctx, sess.ID, checkout.Payment{Method: "card"})
	require.ErrorIs(t, err, checkout.ErrStepIncomplete)
}

func TestBackNavigationKeepsData(t *testing.T) {
	t.Parallel()

	svc := newCheckoutService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, cartItems())
	require.NoError(t, err)
	_, err = svc.PutInformation(ctx, sess.ID, info())
	require.NoError(t, err)
	_, err = svc.PutShipping(ctx, sess.ID, checkout.Shipping{Method: "express", Cost: 1500})
	require.NoError(t, err)

	// Going back to edit contact details must not wipe the shipping choice
	// or regress the step.
	updated := info()
	updated.Name = "Joanna"
	sess, err = svc.PutInformation(ctx, sess.ID, updated)
	require.NoError(t, err)
	require.Equal(t, checkout.StepPayment, sess.Step)
	require.Equal(t, "express", sess.Shipping.Method)
	require.Equal(t, "Joanna", sess.Information.Name)
}

func TestPaymentValidatesCouponWithoutCountingUsage(t *testing.T) {
	t.Parallel()

	save10 := store.Coupon{ID: uuid.New(), Code: "SAVE10", DiscountType: "percentage", DiscountValue: 1000, IsActive: true, UsageCount: 3}
	svc := newCheckoutService(t, save10)
	ctx := context.Background()

	sess, err := svc.Create(ctx, cartItems())
	require.NoError(t, err)
	_, err = svc.PutInformation(ctx, sess.ID, info())
	require.NoError(t, err)
	_, err = svc.PutShipping(ctx, sess.ID, checkout.Shipping{})
	require.NoError(t, err)

	_, draft, err := svc.PutPayment(ctx, sess.ID, checkout.Payment{Method: "card", CouponCode: "save10"})
	require.NoError(t, err)
	require.Equal(t, int64(1299), draft.Summary.Discount)
	require.Equal(t, int64(12738), draft.Summary.Total)
	require.NotNil(t, draft.CouponID)
	require.Equal(t, save10.ID, *draft.CouponID)
}

func TestPaymentRejectsInvalidCoupon(t *testing.T) {
	t.Parallel()

	svc := newCheckoutService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, cartItems())
	require.NoError(t, err)
	_, err = svc.PutInformation(ctx, sess.ID, info())
	require.NoError(t, err)
	_, err = svc.PutShipping(ctx, sess.ID, checkout.Shipping{})
	require.NoError(t, err)

	_, _, err = svc.PutPayment(ctx, sess.ID, checkout.Payment{Method: "card", CouponCode: "NOPE"})
	require.ErrorIs(t, err, coupon.ErrCouponInvalid)
}

func TestUnknownSession(t *testing.T) {
	t.Parallel()

	svc := newCheckoutService(t)
	_, err := svc.Get(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, checkout.ErrSessionNotFound)
}

func TestCreateRequiresItems(t *testing.T) {
	t.Parallel()

	svc := newCheckoutService(t)
	_, err := svc.Create(context.Background(), []checkout.Item{{ProductID: uuid.New(), Quantity: 0, UnitPrice: 100}})
	require.ErrorIs(t, err, checkout.ErrNoItems)
}

func TestSessionExpires(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := &checkout.Service{R: client, TTL: time.Minute, TaxBps: 800}

	sess, err := svc.Create(context.Background(), cartItems())
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = svc.Get(context.Background(), sess.ID)
	require.ErrorIs(t, err, checkout.ErrSessionNotFound)
}
