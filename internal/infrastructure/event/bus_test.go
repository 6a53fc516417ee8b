package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fintrack/backend/internal/domain/payment"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	mu     sync.Mutex
	types  []string
	seen   []string
	failOn string
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, event.EventType())
	if h.failOn != "" && event.EventType() == h.failOn {
		return errors.New("handler failure")
	}
	return nil
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func (h *recordingHandler) Seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.seen...)
}

func newPaymentEvent(t *testing.T) shared.DomainEvent {
	t.Helper()
	p, err := payment.NewPayment("FAT-2025-010", "Servicos", valueobject.NewMoneyEURFromFloat(100),
		time.Now().AddDate(0, 1, 0), payment.PaymentMethodBankTransfer, uuid.New())
	require.NoError(t, err)
	events := p.GetDomainEvents()
	require.NotEmpty(t, events)
	return events[0]
}

func TestInMemoryEventBus_PublishToSubscribedHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{"PaymentCreated"}}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newPaymentEvent(t)))
	assert.Equal(t, []string{"PaymentCreated"}, handler.Seen())
}

func TestInMemoryEventBus_WildcardHandlerReceivesEverything(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	wildcard := &recordingHandler{}
	bus.Subscribe(wildcard)

	require.NoError(t, bus.Publish(context.Background(), newPaymentEvent(t)))
	assert.Len(t, wildcard.Seen(), 1)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &recordingHandler{types: []string{"PaymentCreated"}, failOn: "PaymentCreated"}
	healthy := &recordingHandler{types: []string{"PaymentCreated"}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newPaymentEvent(t)))
	assert.Len(t, failing.Seen(), 1)
	assert.Len(t, healthy.Seen(), 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{"PaymentCreated"}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newPaymentEvent(t)))
	assert.Empty(t, handler.Seen())
}

func TestLoggingHandler_AcceptsAnyEvent(t *testing.T) {
	handler := NewLoggingHandler(zap.NewNop())
	assert.Empty(t, handler.EventTypes())
	require.NoError(t, handler.Handle(context.Background(), newPaymentEvent(t)))
}
