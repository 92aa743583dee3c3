package mock

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sampark/sampark/internal/database"
)

// MockDB is an in-memory implementation of database.DB for testing.
type MockDB struct {
	mu sync.RWMutex

	// User storage
	users      map[uint]*database.User
	nextUserID uint
	regSeq     int

	// Theme storage
	themes      []database.Theme
	nextThemeID uint

	// Connection storage
	connections      []database.Connection
	nextConnectionID uint

	// History storage
	history       []database.HistoryEvent
	nextHistoryID uint

	// Error simulation
	CreateUserError           error
	RegisterUserError         error
	GetUserByIDError          error
	GetUserByRegNumberError   error
	GetUsersByStatusError     error
	ApproveUserError          error
	SetUserStatusError        error
	UpdateUserProfileError    error
	DeleteUserError           error
	CountUsersByStatusError   error
	CountThemesError          error
	CreateConnectionPairError error
	GetConnectionsError       error
	CreateHistoryEventError   error
}

var _ database.DB = (*MockDB)(nil)

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	m := &MockDB{}
	m.Reset()
	return m
}

// Reset clears all data and errors from the mock database.
func (m *MockDB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = make(map[uint]*database.User)
	m.nextUserID = 1
	m.regSeq = 0
	m.themes = nil
	m.nextThemeID = 1
	m.connections = nil
	m.nextConnectionID = 1
	m.history = nil
	m.nextHistoryID = 1

	m.CreateUserError = nil
	m.RegisterUserError = nil
	m.GetUserByIDError = nil
	m.GetUserByRegNumberError = nil
	m.GetUsersByStatusError = nil
	m.ApproveUserError = nil
	m.SetUserStatusError = nil
	m.UpdateUserProfileError = nil
	m.DeleteUserError = nil
	m.CountUsersByStatusError = nil
	m.CountThemesError = nil
	m.CreateConnectionPairError = nil
	m.GetConnectionsError = nil
	m.CreateHistoryEventError = nil
}

// User operations

func (m *MockDB) CreateUser(ctx context.Context, user *database.User) error {
	if m.CreateUserError != nil {
		return m.CreateUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email || u.RegistrationNumber == user.RegistrationNumber {
			return database.ErrAlreadyExists
		}
	}
	m.insertUserLocked(user)
	return nil
}

func (m *MockDB) RegisterUser(ctx context.Context, user *database.User, prefix string) error {
	if m.RegisterUserError != nil {
		return m.RegisterUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return database.ErrDuplicateEmail
		}
	}
	user.RegistrationNumber = m.nextRegistrationNumberLocked(prefix)
	m.insertUserLocked(user)
	return nil
}

func (m *MockDB) insertUserLocked(user *database.User) {
	now := time.Now()
	user.ID = m.nextUserID
	m.nextUserID++
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	stored.Themes = nil
	m.users[user.ID] = &stored
	for _, t := range user.Themes {
		m.addThemeLocked(user.ID, t.Name)
	}
}

func (m *MockDB) nextRegistrationNumberLocked(prefix string) string {
	m.regSeq++
	return fmt.Sprintf("%s%d%04d", prefix, time.Now().Year(), m.regSeq)
}

func (m *MockDB) GenerateRegistrationNumber(ctx context.Context, prefix string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("%s%d%04d", prefix, time.Now().Year(), m.regSeq+1), nil
}

func (m *MockDB) GetUserByID(ctx context.Context, id uint) (*database.User, error) {
	if m.GetUserByIDError != nil {
		return nil, m.GetUserByIDError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return m.withThemesLocked(u), nil
}

func (m *MockDB) GetUserByEmail(ctx context.Context, email string) (*database.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return m.withThemesLocked(u), nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *MockDB) GetUserByRegistrationNumber(ctx context.Context, registrationNumber string) (*database.User, error) {
	if m.GetUserByRegNumberError != nil {
		return nil, m.GetUserByRegNumberError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.RegistrationNumber == registrationNumber {
			return m.withThemesLocked(u), nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *MockDB) GetUsersByStatus(ctx context.Context, status database.UserStatus) ([]database.User, error) {
	if m.GetUsersByStatusError != nil {
		return nil, m.GetUsersByStatusError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var users []database.User
	for _, id := range m.sortedIDsLocked() {
		if u := m.users[id]; u.Status == status {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (m *MockDB) GetAllUsers(ctx context.Context) ([]database.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]database.User, 0, len(m.users))
	for _, id := range m.sortedIDsLocked() {
		users = append(users, *m.users[id])
	}
	return users, nil
}

func (m *MockDB) ApproveUser(ctx context.Context, id uint, passwordHash string) (*database.User, error) {
	if m.ApproveUserError != nil {
		return nil, m.ApproveUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.Status = database.UserStatusApproved
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (m *MockDB) SetUserStatus(ctx context.Context, id uint, status database.UserStatus) (*database.User, error) {
	if m.SetUserStatusError != nil {
		return nil, m.SetUserStatusError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	u.Status = status
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (m *MockDB) UpdateUserProfile(ctx context.Context, id uint, update database.ProfileUpdate) (*database.User, error) {
	if m.UpdateUserProfileError != nil {
		return nil, m.UpdateUserProfileError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if update.Bio != nil {
		u.Bio = *update.Bio
	}
	if update.Interests != nil {
		u.Interests = *update.Interests
	}
	if update.LinkedIn != nil {
		u.LinkedIn = *update.LinkedIn
	}
	if update.Twitter != nil {
		u.Twitter = *update.Twitter
	}
	if update.Themes != nil {
		m.themes = slices.DeleteFunc(m.themes, func(t database.Theme) bool { return t.UserID == id })
		seen := map[string]bool{}
		for _, name := range *update.Themes {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			m.addThemeLocked(id, name)
		}
	}
	u.UpdatedAt = time.Now()
	return m.withThemesLocked(u), nil
}

func (m *MockDB) DeleteUser(ctx context.Context, id uint) (*database.User, error) {
	if m.DeleteUserError != nil {
		return nil, m.DeleteUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	delete(m.users, id)
	m.themes = slices.DeleteFunc(m.themes, func(t database.Theme) bool { return t.UserID == id })
	m.connections = slices.DeleteFunc(m.connections, func(c database.Connection) bool {
		return c.UserID == id || c.ConnectedUserID == id
	})
	return u, nil
}

func (m *MockDB) CountUsersByStatus(ctx context.Context) (map[database.UserStatus]int64, error) {
	if m.CountUsersByStatusError != nil {
		return nil, m.CountUsersByStatusError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := map[database.UserStatus]int64{
		database.UserStatusPending:  0,
		database.UserStatusApproved: 0,
		database.UserStatusRejected: 0,
	}
	for _, u := range m.users {
		counts[u.Status]++
	}
	return counts, nil
}

// Theme operations

func (m *MockDB) addThemeLocked(userID uint, name string) {
	m.themes = append(m.themes, database.Theme{
		ID:        m.nextThemeID,
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now(),
	})
	m.nextThemeID++
}

func (m *MockDB) GetThemesByUser(ctx context.Context, userID uint) ([]database.Theme, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var themes []database.Theme
	for _, t := range m.themes {
		if t.UserID == userID {
			themes = append(themes, t)
		}
	}
	return themes, nil
}

func (m *MockDB) GetThemesByName(ctx context.Context, name string) ([]database.Theme, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var themes []database.Theme
	for _, t := range m.themes {
		if t.Name != name {
			continue
		}
		if u, ok := m.users[t.UserID]; ok {
			cp := *u
			t.User = &cp
		}
		themes = append(themes, t)
	}
	return themes, nil
}

func (m *MockDB) CountThemes(ctx context.Context) ([]database.ThemeCount, error) {
	if m.CountThemesError != nil {
		return nil, m.CountThemesError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	byName := map[string]int64{}
	for _, t := range m.themes {
		byName[t.Name]++
	}
	counts := make([]database.ThemeCount, 0, len(byName))
	for name, n := range byName {
		counts = append(counts, database.ThemeCount{Name: name, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Name < counts[j].Name })
	return counts, nil
}

// Connection operations

func (m *MockDB) ConnectionExists(ctx context.Context, userID, otherID uint) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connectionExistsLocked(userID, otherID), nil
}

func (m *MockDB) connectionExistsLocked(userID, otherID uint) bool {
	for _, c := range m.connections {
		if (c.UserID == userID && c.ConnectedUserID == otherID) ||
			(c.UserID == otherID && c.ConnectedUserID == userID) {
			return true
		}
	}
	return false
}

func (m *MockDB) CreateConnectionPair(ctx context.Context, userID, otherID uint, notes string) (bool, error) {
	if m.CreateConnectionPairError != nil {
		return false, m.CreateConnectionPairError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connectionExistsLocked(userID, otherID) {
		return false, nil
	}
	now := time.Now()
	m.connections = append(m.connections,
		database.Connection{ID: m.nextConnectionID, UserID: userID, ConnectedUserID: otherID, Notes: notes, ConnectedAt: now},
		database.Connection{ID: m.nextConnectionID + 1, UserID: otherID, ConnectedUserID: userID, ConnectedAt: now},
	)
	m.nextConnectionID += 2
	return true, nil
}

func (m *MockDB) GetConnectionsByUser(ctx context.Context, userID uint) ([]database.Connection, error) {
	if m.GetConnectionsError != nil {
		return nil, m.GetConnectionsError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var connections []database.Connection
	for i := len(m.connections) - 1; i >= 0; i-- {
		c := m.connections[i]
		if c.UserID != userID {
			continue
		}
		if u, ok := m.users[c.ConnectedUserID]; ok {
			c.ConnectedUser = *m.withThemesLocked(u)
		}
		connections = append(connections, c)
	}
	return connections, nil
}

func (m *MockDB) CountConnectionsByUser(ctx context.Context, userID uint) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, c := range m.connections {
		if c.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *MockDB) CountConnections(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.connections)), nil
}

// History operations

func (m *MockDB) CreateHistoryEvent(ctx context.Context, event database.HistoryEvent) error {
	if m.CreateHistoryEventError != nil {
		return m.CreateHistoryEventError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	event.ID = m.nextHistoryID
	m.nextHistoryID++
	event.CreatedAt = time.Now()
	m.history = append(m.history, event)
	return nil
}

func (m *MockDB) GetHistory(ctx context.Context, limit int) ([]database.HistoryEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]database.HistoryEvent, 0, len(m.history))
	for i := len(m.history) - 1; i >= 0; i-- {
		events = append(events, m.history[i])
		if limit > 0 && len(events) == limit {
			break
		}
	}
	return events, nil
}

func (m *MockDB) Close() error {
	return nil
}

func (m *MockDB) withThemesLocked(u *database.User) *database.User {
	cp := *u
	cp.Themes = nil
	for _, t := range m.themes {
		if t.UserID == u.ID {
			cp.Themes = append(cp.Themes, t)
		}
	}
	return &cp
}

func (m *MockDB) sortedIDsLocked() []uint {
	ids := make([]uint, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
