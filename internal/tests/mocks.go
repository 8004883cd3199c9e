package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"charter/internal/domain"
	"charter/internal/redis"
	"charter/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	// Counters for verification
	CreateCallCount        int32
	UpdateCallCount        int32
	FlagForReviewCallCount int32

	// Error injection
	CreateError error
	UpdateError error
	GetError    error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// AddBooking adds a booking to the mock repository.
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.Reference] = booking
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.Reference] = booking
	return nil
}

func (m *MockBookingRepository) GetByReference(ctx context.Context, ref string) (*domain.Booking, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[ref]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *booking
	return &copy, nil
}

func (m *MockBookingRepository) GetByNumber(ctx context.Context, number string) (*domain.Booking, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.bookings {
		if b.Number == number {
			copy := *b
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[booking.Reference]; !ok {
		return repository.ErrNotFound
	}
	copy := *booking
	m.bookings[booking.Reference] = &copy
	return nil
}

func (m *MockBookingRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		copy := *b
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockBookingRepository) FlagForReview(ctx context.Context, ref string, reason string) error {
	atomic.AddInt32(&m.FlagForReviewCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[ref]
	if !ok {
		return repository.ErrNotFound
	}
	booking.NeedsReview = true
	booking.ReviewReason = reason
	return nil
}

// GetBooking returns the stored booking for test assertions.
func (m *MockBookingRepository) GetBooking(ref string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bookings[ref]
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	// Counters for verification
	CreateCallCount        int32
	MarkCompletedCallCount int32
	MarkFailedCallCount    int32
	MarkCancelledCallCount int32

	// Error injection
	CreateError        error
	MarkCompletedError error
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

// AddPayment adds a payment to the mock repository.
func (m *MockPaymentRepository) AddPayment(payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.TransactionID] = payment
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *payment
	m.payments[payment.TransactionID] = &copy
	return nil
}

func (m *MockPaymentRepository) GetByTransactionID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *payment
	return &copy, nil
}

func (m *MockPaymentRepository) GetByOrderNo(ctx context.Context, orderNo string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.OrderNo == orderNo {
			copy := *p
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepository) GetLatestByBookingAndType(ctx context.Context, bookingRef string, ptype domain.PaymentType) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.Payment
	for _, p := range m.payments {
		if p.BookingID != bookingRef || p.Type != ptype {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	copy := *latest
	return &copy, nil
}

func (m *MockPaymentRepository) MarkCompleted(ctx context.Context, transactionID, externalID, authCode string, amount float64, confirmedAt time.Time) error {
	atomic.AddInt32(&m.MarkCompletedCallCount, 1)
	if m.MarkCompletedError != nil {
		return m.MarkCompletedError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[transactionID]
	if !ok {
		return repository.ErrNotFound
	}
	payment.Status = domain.PaymentStatusCompleted
	payment.ExternalTransactionID = externalID
	payment.AuthCode = authCode
	payment.Amount = amount
	payment.ConfirmedAt = confirmedAt
	return nil
}

func (m *MockPaymentRepository) MarkFailed(ctx context.Context, transactionID, reason string) error {
	atomic.AddInt32(&m.MarkFailedCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[transactionID]
	if !ok {
		return repository.ErrNotFound
	}
	payment.Status = domain.PaymentStatusFailed
	payment.FailureReason = reason
	return nil
}

func (m *MockPaymentRepository) MarkCancelled(ctx context.Context, transactionID string) error {
	atomic.AddInt32(&m.MarkCancelledCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[transactionID]
	if !ok {
		return repository.ErrNotFound
	}
	payment.Status = domain.PaymentStatusCancelled
	return nil
}

// GetPayment returns the stored payment for test assertions.
func (m *MockPaymentRepository) GetPayment(transactionID string) *domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.payments[transactionID]
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32
	IncrementCallCount    int32

	// Error injection
	CreateError       error
	UpdateStatusError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetByPhone(ctx context.Context, phone string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.Phone == phone {
			copy := *d
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDriverRepository) ListAvailable(ctx context.Context) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		if d.Status != domain.DriverStatusAvailable {
			continue
		}
		copy := *d
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CompletedTrips < result[j].CompletedTrips
	})
	return result, nil
}

func (m *MockDriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Status = status
	return nil
}

func (m *MockDriverRepository) IncrementCompletedTrips(ctx context.Context, id string) error {
	atomic.AddInt32(&m.IncrementCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.CompletedTrips++
	return nil
}

// GetDriver returns the stored driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

// ──────────────────────────────────────────────
// MOCK COMMISSION / PROMO REPOSITORIES
// ──────────────────────────────────────────────

// MockCommissionRepository is a mock implementation of CommissionRepository.
type MockCommissionRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.CommissionRecord

	CreateCallCount int32
	CreateError     error
}

// NewMockCommissionRepository creates a new mock commission repository.
func NewMockCommissionRepository() *MockCommissionRepository {
	return &MockCommissionRepository{
		records: make(map[string]*domain.CommissionRecord),
	}
}

func (m *MockCommissionRepository) Create(ctx context.Context, record *domain.CommissionRecord) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.BookingID] = record
	return nil
}

func (m *MockCommissionRepository) GetByBookingID(ctx context.Context, bookingRef string) (*domain.CommissionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[bookingRef]
	if !ok {
		return nil, nil
	}
	copy := *record
	return &copy, nil
}

// MockPromoRepository is a mock implementation of PromoRepository.
type MockPromoRepository struct {
	mu     sync.RWMutex
	promos map[string]*domain.PromoCode
}

// NewMockPromoRepository creates a new mock promo repository.
func NewMockPromoRepository() *MockPromoRepository {
	return &MockPromoRepository{
		promos: make(map[string]*domain.PromoCode),
	}
}

// AddPromo adds a promo code to the mock repository.
func (m *MockPromoRepository) AddPromo(promo *domain.PromoCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promos[promo.Code] = promo
}

func (m *MockPromoRepository) GetByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	promo, ok := m.promos[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *promo
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	// Counters for verification
	AcquireCallCount int32
	ReleaseCallCount int32

	// Behavior injection
	AcquireError  error
	FailToAcquire bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) acquire(key string) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.FailToAcquire {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *MockLockStore) release(key string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

func (m *MockLockStore) AcquireBookingLock(ctx context.Context, bookingRef string, ttl time.Duration) (bool, error) {
	return m.acquire("booking:" + bookingRef)
}

func (m *MockLockStore) ReleaseBookingLock(ctx context.Context, bookingRef string) error {
	return m.release("booking:" + bookingRef)
}

func (m *MockLockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	return m.acquire("driver:" + driverID)
}

func (m *MockLockStore) ReleaseDriverLock(ctx context.Context, driverID string) error {
	return m.release("driver:" + driverID)
}

// ──────────────────────────────────────────────
// MOCK MESSAGE STORE
// ──────────────────────────────────────────────

// MockMessageStore is a mock implementation of MessageStoreInterface.
type MockMessageStore struct {
	mu       sync.RWMutex
	messages map[string][]*redis.SystemMessage

	AppendCallCount int32
	AppendError     error
}

// NewMockMessageStore creates a new mock message store.
func NewMockMessageStore() *MockMessageStore {
	return &MockMessageStore{
		messages: make(map[string][]*redis.SystemMessage),
	}
}

func (m *MockMessageStore) Append(ctx context.Context, msg *redis.SystemMessage) error {
	atomic.AddInt32(&m.AppendCallCount, 1)
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.BookingID] = append(m.messages[msg.BookingID], msg)
	return nil
}

func (m *MockMessageStore) List(ctx context.Context, bookingRef string, limit int) ([]*redis.SystemMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[bookingRef]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (m *MockMessageStore) Delete(ctx context.Context, bookingRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.messages, bookingRef)
	return nil
}

// Interface conformance checks.
var (
	_ repository.BookingRepository    = (*MockBookingRepository)(nil)
	_ repository.PaymentRepository    = (*MockPaymentRepository)(nil)
	_ repository.DriverRepository     = (*MockDriverRepository)(nil)
	_ repository.CommissionRepository = (*MockCommissionRepository)(nil)
	_ repository.PromoRepository      = (*MockPromoRepository)(nil)
	_ redis.LockStoreInterface        = (*MockLockStore)(nil)
	_ redis.MessageStoreInterface     = (*MockMessageStore)(nil)
)
