package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"busbook/internal/domain"
	"busbook/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
	GetError    error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Trip, 0, len(m.trips))
	for _, t := range m.trips {
		copy := *t
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK ROUTE REPOSITORY
// ──────────────────────────────────────────────

// MockRouteRepository is a mock implementation of RouteRepository.
type MockRouteRepository struct {
	mu     sync.RWMutex
	routes map[string]*domain.Route
}

// NewMockRouteRepository creates a new mock route repository.
func NewMockRouteRepository() *MockRouteRepository {
	return &MockRouteRepository{
		routes: make(map[string]*domain.Route),
	}
}

// AddRoute adds a route to the mock repository.
func (m *MockRouteRepository) AddRoute(route *domain.Route) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[route.ID] = route
}

func (m *MockRouteRepository) Create(ctx context.Context, route *domain.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[route.ID] = route
	return nil
}

func (m *MockRouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	route, ok := m.routes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *route
	return &copy, nil
}

func (m *MockRouteRepository) GetAll(ctx context.Context) ([]*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Route, 0, len(m.routes))
	for _, r := range m.routes {
		copy := *r
		out = append(out, &copy)
	}
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK VEHICLE REPOSITORY
// ──────────────────────────────────────────────

// MockVehicleRepository is a mock implementation of VehicleRepository.
type MockVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle
}

// NewMockVehicleRepository creates a new mock vehicle repository.
func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{
		vehicles: make(map[string]*domain.Vehicle),
	}
}

// AddVehicle adds a vehicle to the mock repository.
func (m *MockVehicleRepository) AddVehicle(vehicle *domain.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
}

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
	return nil
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *vehicle
	return &copy, nil
}

func (m *MockVehicleRepository) GetAll(ctx context.Context) ([]*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		copy := *v
		out = append(out, &copy)
	}
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK CUSTOMER REPOSITORY
// ──────────────────────────────────────────────

// MockCustomerRepository is a mock implementation of CustomerRepository.
type MockCustomerRepository struct {
	mu        sync.RWMutex
	customers map[string]*domain.Customer
}

// NewMockCustomerRepository creates a new mock customer repository.
func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{
		customers: make(map[string]*domain.Customer),
	}
}

// AddCustomer adds a customer to the mock repository.
func (m *MockCustomerRepository) AddCustomer(customer *domain.Customer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[customer.ID] = customer
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[customer.ID] = customer
	return nil
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	customer, ok := m.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *customer
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK RESERVATION REPOSITORY
// ──────────────────────────────────────────────

// MockReservationRepository is a mock implementation of ReservationRepository.
// UpdateStatusIf performs a real compare-and-swap under the repository mutex
// so concurrent transition races behave like the database implementation.
type MockReservationRepository struct {
	mu           sync.RWMutex
	reservations map[string]*domain.Reservation

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error
}

// NewMockReservationRepository creates a new mock reservation repository.
func NewMockReservationRepository() *MockReservationRepository {
	return &MockReservationRepository{
		reservations: make(map[string]*domain.Reservation),
	}
}

// AddReservation adds a reservation to the mock repository.
func (m *MockReservationRepository) AddReservation(r *domain.Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *r
	m.reservations[r.ID] = &copy
}

// GetReservation returns the stored reservation without error translation.
// Test helper, not part of the repository interface.
func (m *MockReservationRepository) GetReservation(id string) *domain.Reservation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reservations[id]
	if !ok {
		return nil
	}
	copy := *r
	return &copy
}

// CountReservations returns the number of stored reservations.
func (m *MockReservationRepository) CountReservations() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reservations)
}

func (m *MockReservationRepository) Create(ctx context.Context, r *domain.Reservation) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *r
	m.reservations[r.ID] = &copy
	return nil
}

func (m *MockReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *r
	return &copy, nil
}

func (m *MockReservationRepository) GetByCustomerID(ctx context.Context, customerID string) ([]*domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Reservation
	for _, r := range m.reservations {
		if r.CustomerID == customerID {
			copy := *r
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockReservationRepository) UpdateStatusIf(ctx context.Context, id string, prev, next domain.ReservationStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return repository.ErrNotFound
	}
	if r.Status != prev {
		return repository.ErrStaleState
	}
	r.Status = next
	return nil
}

func (m *MockReservationRepository) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Reservation
	for _, r := range m.reservations {
		if r.Status == domain.ReservationStatusPendingPayment && !r.ExpiresAt.After(now) {
			copy := *r
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK CAPACITY REPOSITORY
// ──────────────────────────────────────────────

// MockCapacityRepository is a mock implementation of CapacityRepository.
// All counter mutations happen under the repository mutex, matching the
// atomicity the single-row conditional updates provide in Postgres.
type MockCapacityRepository struct {
	mu      sync.Mutex
	entries map[string]*domain.CapacityEntry

	// Counters for verification
	TryHoldCallCount     int32
	CommitHoldCallCount  int32
	ReleaseHoldCallCount int32

	// Error injection
	TryHoldError     error
	CommitHoldError  error
	ReleaseHoldError error
}

// NewMockCapacityRepository creates a new mock capacity repository.
func NewMockCapacityRepository() *MockCapacityRepository {
	return &MockCapacityRepository{
		entries: make(map[string]*domain.CapacityEntry),
	}
}

// Entry returns a copy of the ledger entry for inspection in tests.
func (m *MockCapacityRepository) Entry(tripID string) *domain.CapacityEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[tripID]
	if !ok {
		return nil
	}
	copy := *e
	return &copy
}

// Corrupt overwrites the held counter directly, bypassing the guarded
// operations. Used to simulate a broken ledger.
func (m *MockCapacityRepository) Corrupt(tripID string, held int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[tripID]; ok {
		e.Held = held
	}
}

func (m *MockCapacityRepository) Init(ctx context.Context, tripID string, total int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[tripID] = &domain.CapacityEntry{TripID: tripID, Total: total}
	return nil
}

func (m *MockCapacityRepository) Get(ctx context.Context, tripID string) (*domain.CapacityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[tripID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *e
	return &copy, nil
}

func (m *MockCapacityRepository) Available(ctx context.Context, tripID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[tripID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return e.Available(), nil
}

func (m *MockCapacityRepository) TryHold(ctx context.Context, tripID string, qty int) error {
	atomic.AddInt32(&m.TryHoldCallCount, 1)
	if m.TryHoldError != nil {
		return m.TryHoldError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[tripID]
	if !ok {
		return repository.ErrNotFound
	}
	if e.Available() < qty {
		return repository.ErrInsufficientCapacity
	}
	e.Held += qty
	return nil
}

func (m *MockCapacityRepository) CommitHold(ctx context.Context, tripID string, qty int) error {
	atomic.AddInt32(&m.CommitHoldCallCount, 1)
	if m.CommitHoldError != nil {
		return m.CommitHoldError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[tripID]
	if !ok {
		return repository.ErrNotFound
	}
	if e.Held < qty {
		return repository.ErrLedgerViolation
	}
	e.Held -= qty
	e.Committed += qty
	return nil
}

func (m *MockCapacityRepository) ReleaseHold(ctx context.Context, tripID string, qty int) error {
	atomic.AddInt32(&m.ReleaseHoldCallCount, 1)
	if m.ReleaseHoldError != nil {
		return m.ReleaseHoldError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[tripID]
	if !ok {
		return repository.ErrNotFound
	}
	if e.Held < qty {
		return repository.ErrLedgerViolation
	}
	e.Held -= qty
	return nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
// Create enforces external transaction ID uniqueness under the repository
// mutex, matching the unique index in Postgres.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	attempts map[string]*domain.PaymentAttempt
	byTxn    map[string]string // external txn id -> attempt id

	// Counters for verification
	CreateCallCount int32
	SettleCallCount int32

	// Error injection
	CreateError error
	SettleError error
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		attempts: make(map[string]*domain.PaymentAttempt),
		byTxn:    make(map[string]string),
	}
}

// CountAttempts returns the number of stored payment attempts.
func (m *MockPaymentRepository) CountAttempts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.attempts)
}

func (m *MockPaymentRepository) Create(ctx context.Context, attempt *domain.PaymentAttempt) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byTxn[attempt.ExternalTxnID]; exists {
		return repository.ErrDuplicateTxn
	}
	copy := *attempt
	m.attempts[attempt.ID] = &copy
	m.byTxn[attempt.ExternalTxnID] = attempt.ID
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.PaymentAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *a
	return &copy, nil
}

func (m *MockPaymentRepository) GetByExternalTxnID(ctx context.Context, txnID string) (*domain.PaymentAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byTxn[txnID]
	if !ok {
		return nil, nil
	}
	copy := *m.attempts[id]
	return &copy, nil
}

func (m *MockPaymentRepository) GetByReservationID(ctx context.Context, reservationID string) (*domain.PaymentAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.PaymentAttempt
	for _, a := range m.attempts {
		if a.ReservationID != reservationID {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, nil
	}
	copy := *latest
	return &copy, nil
}

func (m *MockPaymentRepository) Settle(ctx context.Context, id string, status domain.PaymentStatus, reason string) error {
	atomic.AddInt32(&m.SettleCallCount, 1)
	if m.SettleError != nil {
		return m.SettleError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if a.Status != domain.PaymentStatusPending {
		return repository.ErrNotFound
	}
	a.Status = status
	a.FailureReason = reason
	a.SettledAt = time.Now()
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu     sync.Mutex
	holder string

	// Counters for verification
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{}
}

func (m *MockLockStore) AcquireSweepLock(ctx context.Context, instanceID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.holder != "" && m.holder != instanceID {
		return false, nil
	}
	m.holder = instanceID
	return true, nil
}

func (m *MockLockStore) ReleaseSweepLock(ctx context.Context, instanceID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.holder == instanceID {
		m.holder = ""
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK AVAILABILITY CACHE
// ──────────────────────────────────────────────

// MockAvailabilityCache is a mock implementation of AvailabilityCache.
type MockAvailabilityCache struct {
	mu     sync.Mutex
	values map[string]int

	// Counters for verification
	SetCallCount        int32
	InvalidateCallCount int32
}

// NewMockAvailabilityCache creates a new mock availability cache.
func NewMockAvailabilityCache() *MockAvailabilityCache {
	return &MockAvailabilityCache{
		values: make(map[string]int),
	}
}

func (m *MockAvailabilityCache) GetAvailability(ctx context.Context, tripID string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[tripID]
	return v, ok, nil
}

func (m *MockAvailabilityCache) SetAvailability(ctx context.Context, tripID string, available int) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[tripID] = available
	return nil
}

func (m *MockAvailabilityCache) InvalidateAvailability(ctx context.Context, tripID string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, tripID)
	return nil
}
