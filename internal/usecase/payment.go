package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ebook_checkout/internal/domain"
	"ebook_checkout/internal/events"
	"ebook_checkout/internal/gateway"
	"ebook_checkout/internal/repository"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

type Store interface {
	Get(ctx context.Context, ref string) (*domain.Transaction, error)
	Upsert(ctx context.Context, t *domain.Transaction) error
	UpdateStatus(ctx context.Context, ref string, status domain.TxStatus, at time.Time) (*domain.Transaction, bool, error)
	List(ctx context.Context, f repository.TxFilter, limit, offset int) ([]domain.Transaction, error)
}

type Gateway interface {
	InitiatePayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.PaymentResponse, error)
	PaymentStatus(ctx context.Context, orderID string) (*gateway.StatusResponse, error)
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, v any) error
}

// Strategy selects where CheckStatus gets its answer.
type Strategy int

const (
	// StrategyGateway asks the gateway while the local record is still pending.
	StrategyGateway Strategy = iota
	// StrategyLocal answers from the store only.
	StrategyLocal
)

// ErrorPolicy decides what pollers see when the gateway status query
// fails for a reason other than 404.
type ErrorPolicy int

const (
	PolicyStrict  ErrorPolicy = iota // report ERROR
	PolicyLenient                    // report PENDING so pollers keep retrying
)

type Options struct {
	Price       int64
	Prefix      string
	Strategy    Strategy
	ErrorPolicy ErrorPolicy
	CacheSize   int
	Now         func() time.Time
}

type InitiateResult struct {
	Reference string
	Accepted  bool
}

type PaymentUsecase struct {
	store   Store
	gw      Gateway
	events  Publisher
	opts    Options
	refs    *ReferenceGenerator
	settled *lru.Cache[string, domain.TxStatus]

	// settleMu serializes terminal caching with Confirm.
	settleMu sync.Mutex
}

func NewPaymentUsecase(store Store, gw Gateway, pub Publisher, opts Options) (*PaymentUsecase, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if gw == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if opts.Price <= 0 {
		return nil, fmt.Errorf("price must be > 0")
	}
	if opts.Prefix == "" {
		opts.Prefix = "EBOOK"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1024
	}

	cache, err := lru.New[string, domain.TxStatus](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("status cache: %w", err)
	}

	return &PaymentUsecase{
		store:   store,
		gw:      gw,
		events:  pub,
		opts:    opts,
		refs:    NewReferenceGenerator(opts.Prefix, opts.Now),
		settled: cache,
	}, nil
}

// Initiate validates the phone, asks the gateway to push a payment prompt
// and records the transaction as PENDING once the gateway accepts it.
// Failures are *domain.Error values carrying a buyer-safe message.
func (u *PaymentUsecase) Initiate(ctx context.Context, phone string) (*InitiateResult, error) {
	if !domain.ValidPhone(phone) {
		return nil, domain.NewError(domain.CodeValidation, domain.MsgInvalidPhone, nil)
	}

	ref := u.refs.Next()
	req := gateway.PaymentRequest{
		OrderID:    ref,
		BuyerName:  phone,
		BuyerEmail: domain.PlaceholderEmail(phone),
		BuyerPhone: phone,
		Amount:     u.opts.Price,
	}

	resp, err := u.gw.InitiatePayment(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("reference", ref).Msg("payment initiation failed")
		return nil, domain.NewError(domain.CodeTransport, domain.MsgSystemError, err)
	}

	if !resp.Accepted() {
		msg := resp.Message
		if msg == "" {
			msg = domain.MsgGatewayRejected
		}
		log.Warn().Str("reference", ref).Str("gateway_status", resp.Status).Str("gateway_message", resp.Message).Msg("payment rejected by gateway")
		return nil, domain.NewError(domain.CodeGatewayRejected, msg, nil)
	}

	now := u.opts.Now()
	tx := &domain.Transaction{
		Reference: ref,
		Phone:     phone,
		Amount:    u.opts.Price,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.store.Upsert(ctx, tx); err != nil {
		if u.opts.Strategy == StrategyLocal {
			// Local pollers could never find this reference.
			log.Error().Err(err).Str("reference", ref).Msg("record pending transaction; reference not pollable")
			return nil, domain.NewError(domain.CodeTransport, domain.MsgSystemError, err)
		}
		// The buyer already has the prompt; the gateway answers status polls.
		log.Warn().Err(err).Str("reference", ref).Msg("record pending transaction; status served by gateway only")
	}

	u.publish(ctx, events.KeyInitiated, events.PaymentInitiated{
		Reference: ref,
		Phone:     phone,
		Amount:    u.opts.Price,
		At:        now,
	})

	log.Info().Str("reference", ref).Int64("amount", u.opts.Price).Msg("payment initiated")
	return &InitiateResult{Reference: ref, Accepted: true}, nil
}

// CheckStatus reconciles a reference into the status reported to pollers.
// It never mutates the stored transaction.
func (u *PaymentUsecase) CheckStatus(ctx context.Context, ref string) domain.CheckStatus {
	if ref == "" {
		return domain.CheckInvalidReference
	}

	if s, ok := u.settled.Get(ref); ok {
		return domain.CheckFromTx(s)
	}

	tx, err := u.store.Get(ctx, ref)
	switch {
	case err == nil:
		if tx.Status.Terminal() || u.opts.Strategy == StrategyLocal {
			return domain.CheckFromTx(tx.Status)
		}
	case errors.Is(err, repository.ErrNotFound):
		if u.opts.Strategy == StrategyLocal {
			return domain.CheckNotFound
		}
	default:
		log.Error().Err(err).Str("reference", ref).Msg("status lookup failed")
		if u.opts.Strategy == StrategyLocal {
			return domain.CheckError
		}
	}

	return u.checkGateway(ctx, ref)
}

func (u *PaymentUsecase) checkGateway(ctx context.Context, ref string) domain.CheckStatus {
	resp, err := u.gw.PaymentStatus(ctx, ref)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			// Freshly created orders may not be indexed yet.
			log.Debug().Str("reference", ref).Msg("gateway has no record yet")
			return domain.CheckPending
		}
		log.Error().Err(err).Str("reference", ref).Msg("status check error")
		if u.opts.ErrorPolicy == PolicyLenient {
			return domain.CheckPending
		}
		return domain.CheckError
	}

	if resp.Status == "" {
		return domain.CheckNotFound
	}

	s := domain.NormalizeGatewayStatus(resp.Status)
	if s.Terminal() {
		s = u.settle(ref, s)
	}
	return domain.CheckFromTx(s)
}

// settle caches s as the terminal status of ref unless one is already
// cached, and returns the cached value.
func (u *PaymentUsecase) settle(ref string, s domain.TxStatus) domain.TxStatus {
	u.settleMu.Lock()
	defer u.settleMu.Unlock()

	if found, _ := u.settled.ContainsOrAdd(ref, s); found {
		if cached, ok := u.settled.Peek(ref); ok {
			return cached
		}
	}
	return s
}

// Confirm applies an external confirmation (the gateway webhook) to the
// stored transaction. Applying the current status again is a no-op.
func (u *PaymentUsecase) Confirm(ctx context.Context, ref string, status domain.TxStatus) (*domain.Transaction, error) {
	if ref == "" {
		return nil, domain.NewError(domain.CodeInvalidReference, "reference is required", nil)
	}

	u.settleMu.Lock()
	defer u.settleMu.Unlock()

	// Pollers may already have been told a terminal status by the gateway.
	if cached, ok := u.settled.Peek(ref); ok && status.Terminal() && cached != status {
		log.Warn().Str("reference", ref).Str("reported", string(cached)).Str("status", string(status)).Msg("confirmation contradicts reported status")
		return nil, fmt.Errorf("%w: %s already reported %s", domain.ErrInvalidTransition, ref, cached)
	}

	now := u.opts.Now()
	tx, changed, err := u.store.UpdateStatus(ctx, ref, status, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewError(domain.CodeNotFound, "transaction not found", err)
		}
		return tx, err
	}

	if tx.Status.Terminal() {
		u.settled.ContainsOrAdd(ref, tx.Status)
	}

	if changed {
		key := events.KeyPaid
		if tx.Status == domain.StatusFailed {
			key = events.KeyFailed
		}
		u.publish(ctx, key, events.PaymentSettled{
			Reference: ref,
			Status:    string(tx.Status),
			At:        now,
		})
		log.Info().Str("reference", ref).Str("status", string(tx.Status)).Msg("payment settled")
	}

	return tx, nil
}

func (u *PaymentUsecase) Get(ctx context.Context, ref string) (*domain.Transaction, error) {
	return u.store.Get(ctx, ref)
}

func (u *PaymentUsecase) List(ctx context.Context, f repository.TxFilter, limit, offset int) ([]domain.Transaction, error) {
	return u.store.List(ctx, f, limit, offset)
}

func (u *PaymentUsecase) publish(ctx context.Context, key string, v any) {
	if u.events == nil {
		return
	}
	if err := u.events.Publish(ctx, key, v); err != nil {
		log.Error().Err(err).Str("routing_key", key).Msg("publish event")
	}
}
