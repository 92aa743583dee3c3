package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sampark/sampark/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type DatabaseTestSuite struct {
	suite.Suite
	client *Client
	ctx    context.Context
}

func TestDatabaseTestSuite(t *testing.T) {
	suite.Run(t, new(DatabaseTestSuite))
}

func (s *DatabaseTestSuite) SetupTest() {
	client, err := New(&config.DatabaseConfig{
		Driver: config.DatabaseDriverSQLite,
		Path:   filepath.Join(s.T().TempDir(), "sampark.db"),
	})
	s.Require().NoError(err)
	client.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	s.client = client
	s.ctx = context.Background()
}

func (s *DatabaseTestSuite) TearDownTest() {
	s.NoError(s.client.Close())
}

func (s *DatabaseTestSuite) register(name, email string) *User {
	u := &User{Name: name, Email: email, Status: UserStatusPending}
	s.Require().NoError(s.client.RegisterUser(s.ctx, u, "SAMP"))
	return u
}

func (s *DatabaseTestSuite) TestRegisterUserAssignsSequentialNumbers() {
	first := s.register("Alice", "alice@example.com")
	second := s.register("Bob", "bob@example.com")

	s.Equal("SAMP20250001", first.RegistrationNumber)
	s.Equal("SAMP20250002", second.RegistrationNumber)
	s.NotZero(first.ID)
	s.Empty(first.PasswordHash)
}

func (s *DatabaseTestSuite) TestRegisterUserDuplicateEmail() {
	s.register("Alice", "alice@example.com")

	err := s.client.RegisterUser(s.ctx, &User{Name: "Other", Email: "alice@example.com", Status: UserStatusPending}, "SAMP")
	s.ErrorIs(err, ErrDuplicateEmail)

	users, err := s.client.GetAllUsers(s.ctx)
	s.Require().NoError(err)
	s.Len(users, 1)
}

func (s *DatabaseTestSuite) TestGenerateRegistrationNumberPastFourDigits() {
	s.Require().NoError(s.client.CreateUser(s.ctx, &User{
		Name: "Nine", Email: "nine@example.com", RegistrationNumber: "SAMP20259999", Status: UserStatusApproved,
	}))
	s.Require().NoError(s.client.CreateUser(s.ctx, &User{
		Name: "Ten", Email: "ten@example.com", RegistrationNumber: "SAMP202510000", Status: UserStatusApproved,
	}))

	number, err := s.client.GenerateRegistrationNumber(s.ctx, "SAMP")
	s.Require().NoError(err)
	s.Equal("SAMP202510001", number)
}

func (s *DatabaseTestSuite) TestGenerateRegistrationNumberIgnoresOtherYears() {
	s.Require().NoError(s.client.CreateUser(s.ctx, &User{
		Name: "Old", Email: "old@example.com", RegistrationNumber: "SAMP20240042", Status: UserStatusApproved,
	}))

	number, err := s.client.GenerateRegistrationNumber(s.ctx, "SAMP")
	s.Require().NoError(err)
	s.Equal("SAMP20250001", number)
}

// seedNumbers inserts approved users holding the given registration numbers.
func (s *DatabaseTestSuite) seedNumbers(numbers ...string) {
	users := make([]User, 0, len(numbers))
	for _, n := range numbers {
		users = append(users, User{
			Name:               "Seed",
			Email:              strings.ToLower(n) + "@example.com",
			RegistrationNumber: n,
			Status:             UserStatusApproved,
		})
	}
	s.Require().NoError(s.client.db.CreateInBatches(&users, 50).Error)
}

func sequence(from, to int) []string {
	numbers := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		numbers = append(numbers, formatRegistrationNumber("SAMP2025", i))
	}
	return numbers
}

func (s *DatabaseTestSuite) TestGenerateRegistrationNumberSkipsNonNumericSuffix() {
	s.seedNumbers("SAMP2025ADMIN")
	s.seedNumbers(sequence(1, 100)...)

	number, err := s.client.GenerateRegistrationNumber(s.ctx, "SAMP")
	s.Require().NoError(err)
	s.Equal("SAMP20250101", number)
}

func (s *DatabaseTestSuite) TestRegisterUserAfterHandMadeAdminNumber() {
	s.seedNumbers("SAMP2025ADMIN001", "SAMP2025+999")
	first := s.register("Alice", "alice@example.com")
	second := s.register("Bob", "bob@example.com")

	s.Equal("SAMP20250001", first.RegistrationNumber)
	s.Equal("SAMP20250002", second.RegistrationNumber)
}

func (s *DatabaseTestSuite) TestNextFreeRegistrationNumberRechecksExisting() {
	s.seedNumbers(sequence(1, 5)...)

	number, err := s.client.nextFreeRegistrationNumber(s.ctx, "SAMP2025", 1)
	s.Require().NoError(err)
	s.Equal("SAMP20250006", number)
}

func (s *DatabaseTestSuite) TestNextFreeRegistrationNumberFallsBackToClock() {
	// 10:00:05.042 yields a clock suffix of 5042.
	s.client.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 5, 42_000_000, time.UTC) }
	s.seedNumbers(sequence(1, 100)...)

	number, err := s.client.nextFreeRegistrationNumber(s.ctx, "SAMP2025", 1)
	s.Require().NoError(err)
	s.Equal("SAMP20255042", number)
}

func (s *DatabaseTestSuite) TestNextFreeRegistrationNumberFallbackSkipsTaken() {
	s.client.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 5, 42_000_000, time.UTC) }
	s.seedNumbers(sequence(1, 100)...)
	s.seedNumbers(sequence(5042, 5043)...)

	number, err := s.client.nextFreeRegistrationNumber(s.ctx, "SAMP2025", 1)
	s.Require().NoError(err)
	s.Equal("SAMP20255044", number)
}

func (s *DatabaseTestSuite) TestNextFreeRegistrationNumberExhausted() {
	s.client.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 5, 42_000_000, time.UTC) }
	s.seedNumbers(sequence(1, 100)...)
	s.seedNumbers(sequence(5042, 5141)...)

	_, err := s.client.nextFreeRegistrationNumber(s.ctx, "SAMP2025", 1)
	s.ErrorIs(err, ErrRegistrationNumbersExhausted)
}

func TestParseSequence(t *testing.T) {
	tests := []struct {
		suffix string
		want   int
		ok     bool
	}{
		{"0001", 1, true},
		{"10000", 10000, true},
		{"", 0, false},
		{"ADMIN", 0, false},
		{"+12", 0, false},
		{"-1", 0, false},
		{"12a", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.suffix, func(t *testing.T) {
			got, ok := parseSequence(tt.suffix)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func (s *DatabaseTestSuite) TestConcurrentRegistrationsGetDistinctNumbers() {
	const n = 4
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := &User{Name: "User", Email: fmt.Sprintf("user%d@example.com", i), Status: UserStatusPending}
			errs <- s.client.RegisterUser(s.ctx, u, "SAMP")
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.NoError(err)
	}

	users, err := s.client.GetAllUsers(s.ctx)
	s.Require().NoError(err)
	seen := map[string]bool{}
	for _, u := range users {
		s.False(seen[u.RegistrationNumber], "duplicate registration number %s", u.RegistrationNumber)
		seen[u.RegistrationNumber] = true
	}
}

func (s *DatabaseTestSuite) TestApproveAndReject() {
	u := s.register("Alice", "alice@example.com")

	approved, err := s.client.ApproveUser(s.ctx, u.ID, "hash")
	s.Require().NoError(err)
	s.Equal(UserStatusApproved, approved.Status)
	s.Equal("hash", approved.PasswordHash)

	rejected, err := s.client.SetUserStatus(s.ctx, u.ID, UserStatusRejected)
	s.Require().NoError(err)
	s.Equal(UserStatusRejected, rejected.Status)

	_, err = s.client.ApproveUser(s.ctx, 999, "hash")
	s.ErrorIs(err, ErrNotFound)
	_, err = s.client.SetUserStatus(s.ctx, 999, UserStatusRejected)
	s.ErrorIs(err, ErrNotFound)
}

func (s *DatabaseTestSuite) TestUpdateUserProfileReplacesThemes() {
	u := s.register("Alice", "alice@example.com")
	bio := "hello"
	themes := []string{"AI", "Climate", "AI", " "}

	updated, err := s.client.UpdateUserProfile(s.ctx, u.ID, ProfileUpdate{Bio: &bio, Themes: &themes})
	s.Require().NoError(err)
	s.Equal("hello", updated.Bio)
	s.Equal([]string{"AI", "Climate"}, updated.ThemeNames())

	twitter := "@alice"
	updated, err = s.client.UpdateUserProfile(s.ctx, u.ID, ProfileUpdate{Twitter: &twitter})
	s.Require().NoError(err)
	s.Equal("hello", updated.Bio)
	s.Equal("@alice", updated.Twitter)
	s.Equal([]string{"AI", "Climate"}, updated.ThemeNames(), "themes untouched when not provided")

	empty := []string{}
	updated, err = s.client.UpdateUserProfile(s.ctx, u.ID, ProfileUpdate{Themes: &empty})
	s.Require().NoError(err)
	s.Empty(updated.Themes)

	_, err = s.client.UpdateUserProfile(s.ctx, 999, ProfileUpdate{Bio: &bio})
	s.ErrorIs(err, ErrNotFound)
}

func (s *DatabaseTestSuite) TestThemeQueries() {
	alice := s.register("Alice", "alice@example.com")
	bob := s.register("Bob", "bob@example.com")
	a := []string{"AI", "Health"}
	b := []string{"AI"}
	_, err := s.client.UpdateUserProfile(s.ctx, alice.ID, ProfileUpdate{Themes: &a})
	s.Require().NoError(err)
	_, err = s.client.UpdateUserProfile(s.ctx, bob.ID, ProfileUpdate{Themes: &b})
	s.Require().NoError(err)

	counts, err := s.client.CountThemes(s.ctx)
	s.Require().NoError(err)
	s.Equal([]ThemeCount{{Name: "AI", Count: 2}, {Name: "Health", Count: 1}}, counts)

	themes, err := s.client.GetThemesByName(s.ctx, "AI")
	s.Require().NoError(err)
	s.Require().Len(themes, 2)
	s.Equal("Alice", themes[0].User.Name)
	s.Equal("Bob", themes[1].User.Name)

	none, err := s.client.GetThemesByName(s.ctx, "Nothing")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *DatabaseTestSuite) TestCreateConnectionPair() {
	alice := s.register("Alice", "alice@example.com")
	bob := s.register("Bob", "bob@example.com")

	created, err := s.client.CreateConnectionPair(s.ctx, alice.ID, bob.ID, "met at keynote")
	s.Require().NoError(err)
	s.True(created)

	created, err = s.client.CreateConnectionPair(s.ctx, bob.ID, alice.ID, "")
	s.Require().NoError(err)
	s.False(created, "reverse direction counts as existing")

	exists, err := s.client.ConnectionExists(s.ctx, bob.ID, alice.ID)
	s.Require().NoError(err)
	s.True(exists)

	total, err := s.client.CountConnections(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(2, total)

	aliceConns, err := s.client.GetConnectionsByUser(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Require().Len(aliceConns, 1)
	s.Equal("Bob", aliceConns[0].ConnectedUser.Name)
	s.Equal("met at keynote", aliceConns[0].Notes)

	bobConns, err := s.client.GetConnectionsByUser(s.ctx, bob.ID)
	s.Require().NoError(err)
	s.Require().Len(bobConns, 1)
	s.Equal("Alice", bobConns[0].ConnectedUser.Name)
	s.Empty(bobConns[0].Notes)
}

func (s *DatabaseTestSuite) TestDeleteUserCascades() {
	alice := s.register("Alice", "alice@example.com")
	bob := s.register("Bob", "bob@example.com")
	themes := []string{"AI"}
	_, err := s.client.UpdateUserProfile(s.ctx, alice.ID, ProfileUpdate{Themes: &themes})
	s.Require().NoError(err)
	_, err = s.client.CreateConnectionPair(s.ctx, alice.ID, bob.ID, "")
	s.Require().NoError(err)

	deleted, err := s.client.DeleteUser(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal("Alice", deleted.Name)

	total, err := s.client.CountConnections(s.ctx)
	s.Require().NoError(err)
	s.Zero(total)

	counts, err := s.client.CountThemes(s.ctx)
	s.Require().NoError(err)
	s.Empty(counts)

	_, err = s.client.GetUserByID(s.ctx, alice.ID)
	s.ErrorIs(err, ErrNotFound)

	_, err = s.client.DeleteUser(s.ctx, alice.ID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *DatabaseTestSuite) TestCountUsersByStatus() {
	a := s.register("Alice", "alice@example.com")
	s.register("Bob", "bob@example.com")
	_, err := s.client.ApproveUser(s.ctx, a.ID, "hash")
	s.Require().NoError(err)

	counts, err := s.client.CountUsersByStatus(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(1, counts[UserStatusApproved])
	s.EqualValues(1, counts[UserStatusPending])
	s.EqualValues(0, counts[UserStatusRejected])
}

func (s *DatabaseTestSuite) TestHistory() {
	actor := uint(1)
	s.Require().NoError(s.client.CreateHistoryEvent(s.ctx, HistoryEvent{EventType: HistoryEventRegistered, UserID: 2}))
	s.Require().NoError(s.client.CreateHistoryEvent(s.ctx, HistoryEvent{EventType: HistoryEventApproved, UserID: 2, ActorID: &actor}))

	events, err := s.client.GetHistory(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(HistoryEventApproved, events[0].EventType)
	s.Equal(HistoryEventRegistered, events[1].EventType)

	events, err = s.client.GetHistory(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(assert.AnError))
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(errors.New("UNIQUE constraint failed: users.email")))
	assert.True(t, isUniqueViolation(errors.New("Error 1062: Duplicate entry 'x' for key 'email'")))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", errors.New(`duplicate key value violates unique constraint "idx_users_email"`))))
}
