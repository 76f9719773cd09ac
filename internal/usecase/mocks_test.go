package usecase

import (
	"context"
	"sync"
	"sync/atomic"

	"ebook_checkout/internal/domain"
	"ebook_checkout/internal/gateway"
	"ebook_checkout/internal/repository"
)

type MockGateway struct {
	InitiateFunc func(ctx context.Context, req gateway.PaymentRequest) (*gateway.PaymentResponse, error)
	StatusFunc   func(ctx context.Context, orderID string) (*gateway.StatusResponse, error)

	initiateCalls atomic.Int32
	statusCalls   atomic.Int32
}

func (m *MockGateway) InitiatePayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.PaymentResponse, error) {
	m.initiateCalls.Add(1)
	if m.InitiateFunc != nil {
		return m.InitiateFunc(ctx, req)
	}
	return &gateway.PaymentResponse{Status: "success"}, nil
}

func (m *MockGateway) PaymentStatus(ctx context.Context, orderID string) (*gateway.StatusResponse, error) {
	m.statusCalls.Add(1)
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, orderID)
	}
	return &gateway.StatusResponse{Status: "Pending", OrderID: orderID}, nil
}

type published struct {
	key string
	v   any
}

type MockPublisher struct {
	mu   sync.Mutex
	msgs []published
}

func (m *MockPublisher) Publish(ctx context.Context, key string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, published{key: key, v: v})
	return nil
}

func (m *MockPublisher) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.msgs))
	for _, p := range m.msgs {
		out = append(out, p.key)
	}
	return out
}

// brokenStore fails every Upsert.
type brokenStore struct {
	*repository.MemoryRepo
	err error
}

func (s *brokenStore) Upsert(ctx context.Context, t *domain.Transaction) error {
	return s.err
}
