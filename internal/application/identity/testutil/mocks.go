// Package testutil provides in-memory collaborators for identity use case tests.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/orris-inc/lineconnect/internal/domain/account"
	"github.com/orris-inc/lineconnect/internal/domain/identity"
	"github.com/orris-inc/lineconnect/internal/domain/shared/events"
	apperrors "github.com/orris-inc/lineconnect/internal/shared/errors"
)

// MockBindingRepository is an in-memory identity.Repository with the same
// conflict rules as the database implementation.
type MockBindingRepository struct {
	mu       sync.Mutex
	nextID   uint64
	bindings map[uint64]*identity.Binding // keyed by local user ID

	// BeforeLink runs before each Link with the lock released. Tests use it
	// to slip a competing binding in ahead of the caller.
	BeforeLink func(localUserID uint64, profile identity.ExternalProfile)

	FindErr    error
	LinkErr    error
	RefreshErr error

	LinkCalls    int
	RefreshCalls int
}

func NewMockBindingRepository() *MockBindingRepository {
	return &MockBindingRepository{bindings: make(map[uint64]*identity.Binding)}
}

// Seed stores a binding as if it had been linked earlier.
func (m *MockBindingRepository) Seed(localUserID uint64, externalUID string) *identity.Binding {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, _ := identity.NewBinding(localUserID, identity.ExternalProfile{UID: externalUID, DisplayName: "seeded"}, identity.ProviderTokens{})
	m.nextID++
	b.ID = m.nextID
	m.bindings[localUserID] = b
	return clone(b)
}

// Count returns the number of active bindings.
func (m *MockBindingRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bindings)
}

func (m *MockBindingRepository) FindByExternalUID(_ context.Context, externalUID string) (*identity.Binding, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if b := m.byUIDLocked(externalUID); b != nil {
		return clone(b), nil
	}
	return nil, nil
}

func (m *MockBindingRepository) FindByLocalUserID(_ context.Context, localUserID uint64) (*identity.Binding, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bindings[localUserID]; ok {
		return clone(b), nil
	}
	return nil, nil
}

func (m *MockBindingRepository) Link(_ context.Context, localUserID uint64, profile identity.ExternalProfile, tokens identity.ProviderTokens, isFriend *bool) (*identity.Binding, error) {
	if m.BeforeLink != nil {
		m.BeforeLink(localUserID, profile)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.LinkCalls++
	if m.LinkErr != nil {
		return nil, m.LinkErr
	}

	if other := m.byUIDLocked(profile.UID); other != nil && !other.BelongsTo(localUserID) {
		return nil, apperrors.NewConflictError(identity.ConflictLinkedElsewhere)
	}
	if current, ok := m.bindings[localUserID]; ok {
		if current.ExternalUID != profile.UID {
			return nil, apperrors.NewConflictError(identity.ConflictAlreadyLinked)
		}
		current.ApplyProfile(profile, tokens)
		current.SetFriendship(isFriend)
		return clone(current), nil
	}

	b, err := identity.NewBinding(localUserID, profile, tokens)
	if err != nil {
		return nil, err
	}
	b.SetFriendship(isFriend)
	m.nextID++
	b.ID = m.nextID
	m.bindings[localUserID] = b
	return clone(b), nil
}

func (m *MockBindingRepository) RefreshProfile(_ context.Context, binding *identity.Binding, profile identity.ExternalProfile, tokens identity.ProviderTokens, isFriend *bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefreshCalls++
	if m.RefreshErr != nil {
		return m.RefreshErr
	}
	binding.ApplyProfile(profile, tokens)
	binding.SetFriendship(isFriend)
	if stored, ok := m.bindings[binding.LocalUserID]; ok {
		stored.ApplyProfile(profile, tokens)
		stored.SetFriendship(isFriend)
	}
	return nil
}

func (m *MockBindingRepository) Unlink(_ context.Context, localUserID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bindings[localUserID]; !ok {
		return apperrors.NewNotFoundError("no LINE account is linked")
	}
	delete(m.bindings, localUserID)
	return nil
}

func (m *MockBindingRepository) byUIDLocked(externalUID string) *identity.Binding {
	for _, b := range m.bindings {
		if b.ExternalUID == externalUID && b.IsActive() {
			return b
		}
	}
	return nil
}

func clone(b *identity.Binding) *identity.Binding {
	c := *b
	return &c
}

// MockAccounts implements account.Directory and account.Provisioner.
type MockAccounts struct {
	mu       sync.Mutex
	nextID   uint64
	accounts map[uint64]*account.Account

	// CreateErrs are returned by successive CreateAccount calls before any
	// account is stored.
	CreateErrs []error
	FindErr    error

	Created []account.NewAccount
	Removed []uint64
}

func NewMockAccounts() *MockAccounts {
	return &MockAccounts{nextID: 100, accounts: make(map[uint64]*account.Account)}
}

func (m *MockAccounts) AddAccount(id uint64, username, email string) *account.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc := &account.Account{ID: id, Username: username, Email: email, CreatedAt: time.Now().UTC()}
	m.accounts[id] = acc
	if id > m.nextID {
		m.nextID = id
	}
	return acc
}

func (m *MockAccounts) Exists(id uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.accounts[id]
	return ok
}

func (m *MockAccounts) FindByEmail(_ context.Context, email string) (*account.Account, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *account.Account
	for _, acc := range m.accounts {
		if strings.EqualFold(acc.Email, email) && (found == nil || acc.ID < found.ID) {
			found = acc
		}
	}
	return found, nil
}

func (m *MockAccounts) GetByID(_ context.Context, id uint64) (*account.Account, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id], nil
}

func (m *MockAccounts) UsernameExists(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usernameTakenLocked(username), nil
}

func (m *MockAccounts) CreateAccount(_ context.Context, acc account.NewAccount) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.CreateErrs) > 0 {
		err := m.CreateErrs[0]
		m.CreateErrs = m.CreateErrs[1:]
		return 0, err
	}
	if m.usernameTakenLocked(acc.Username) {
		return 0, apperrors.NewConflictError("username already taken")
	}

	m.nextID++
	m.accounts[m.nextID] = &account.Account{
		ID:          m.nextID,
		Username:    acc.Username,
		Email:       acc.Email,
		DisplayName: acc.DisplayName,
		CreatedAt:   time.Now().UTC(),
	}
	m.Created = append(m.Created, acc)
	return m.nextID, nil
}

func (m *MockAccounts) RemoveAccount(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, id)
	m.Removed = append(m.Removed, id)
	return nil
}

func (m *MockAccounts) usernameTakenLocked(username string) bool {
	for _, acc := range m.accounts {
		if acc.Username == username {
			return true
		}
	}
	return false
}

// MockLegacySource maps external UIDs to local user IDs.
type MockLegacySource struct {
	Entries map[string]uint64
	Err     error
}

func (m *MockLegacySource) Name() string { return "mock" }

func (m *MockLegacySource) FindByExternalUID(_ context.Context, externalUID string) (uint64, bool, error) {
	if m.Err != nil {
		return 0, false, m.Err
	}
	id, ok := m.Entries[externalUID]
	return id, ok, nil
}

// MockEventPublisher records published events.
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []events.Event
	Err    error
}

func (m *MockEventPublisher) Publish(_ context.Context, event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, event)
	return nil
}

// SessionEvents returns the SessionEstablished events published so far.
func (m *MockEventPublisher) SessionEvents() []*identity.SessionEstablishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*identity.SessionEstablishedEvent
	for _, e := range m.Events {
		if se, ok := e.(*identity.SessionEstablishedEvent); ok {
			out = append(out, se)
		}
	}
	return out
}
