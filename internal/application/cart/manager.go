package cart

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/trendstep/storefront/internal/domain/cart"
	"github.com/trendstep/storefront/internal/domain/shared"
	"github.com/trendstep/storefront/internal/domain/shared/valueobject"
)

const lockStripes = 64

// Manager opens per-session cart stores over one storage backend.
// Stores for the same key share a lock, so mutations of one cart are
// serialized within the process.
type Manager struct {
	storage   cart.Storage
	publisher shared.EventPublisher
	ids       cart.IDGenerator
	fee       valueobject.Money
	keyPrefix string
	now       func() time.Time
	logger    *zap.Logger

	locks [lockStripes]sync.Mutex
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithPublisher sets the event publisher
func WithPublisher(p shared.EventPublisher) ManagerOption {
	return func(m *Manager) {
		if p != nil {
			m.publisher = p
		}
	}
}

// WithIDGenerator sets the strategy used for cards without an ID
func WithIDGenerator(g cart.IDGenerator) ManagerOption {
	return func(m *Manager) {
		if g != nil {
			m.ids = g
		}
	}
}

// WithShippingFee sets the flat shipping fee
func WithShippingFee(fee valueobject.Money) ManagerOption {
	return func(m *Manager) {
		m.fee = fee
	}
}

// WithKeyPrefix sets the storage key prefix
func WithKeyPrefix(prefix string) ManagerOption {
	return func(m *Manager) {
		if prefix != "" {
			m.keyPrefix = prefix
		}
	}
}

// WithClock overrides the receipt clock
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a Manager
func NewManager(storage cart.Storage, opts ...ManagerOption) *Manager {
	m := &Manager{
		storage:   storage,
		publisher: shared.NopPublisher{},
		ids:       cart.RandomIDGenerator{},
		fee:       cart.DefaultShippingFee,
		keyPrefix: cart.DefaultStorageKey,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ShippingFee returns the configured fee
func (m *Manager) ShippingFee() valueobject.Money {
	return m.fee
}

// Open returns the store for a session with its cart already loaded
func (m *Manager) Open(ctx context.Context, sessionID string) *Store {
	key := cart.StorageKey(m.keyPrefix, sessionID)
	s := &Store{
		key:       key,
		sessionID: sessionID,
		storage:   m.storage,
		publisher: m.publisher,
		ids:       m.ids,
		fee:       m.fee,
		lock:      m.lockFor(key),
		now:       m.now,
		logger:    m.logger.With(zap.String("session_id", sessionID)),
	}
	s.Load(ctx)
	return s
}

func (m *Manager) lockFor(key string) sync.Locker {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &m.locks[h.Sum32()%lockStripes]
}
