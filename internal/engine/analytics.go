package engine

import (
	"context"
	"fmt"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/sampark/sampark/internal/cache"
	"github.com/sampark/sampark/internal/database"
	"golang.org/x/sync/errgroup"
)

// UserStats summarizes the caller's participation.
type UserStats struct {
	TotalConnections   int
	RegistrationNumber string
	Themes             []string
}

// Overview is the admin dashboard summary.
type Overview struct {
	Pending        int64
	Approved       int64
	Rejected       int64
	Themes         []database.ThemeCount
	Relationships  int64
	ConnectionRows int64
}

// ThemeCounts returns how many participants picked each theme.
func (e *Engine) ThemeCounts(ctx context.Context) ([]database.ThemeCount, error) {
	if cached, err := e.cache.ThemeCounts.Get(ctx, cache.ThemeCountsKey); err == nil {
		return cached, nil
	}

	counts, err := e.db.CountThemes(ctx)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []database.ThemeCount{}
	}

	if err := e.cache.ThemeCounts.Set(ctx, cache.ThemeCountsKey, counts); err != nil {
		log.Debug("failed to cache theme counts", "error", err)
	}
	return counts, nil
}

// ThemeParticipants returns the participants that picked the given theme.
func (e *Engine) ThemeParticipants(ctx context.Context, theme string) ([]database.User, error) {
	themes, err := e.db.GetThemesByName(ctx, theme)
	if err != nil {
		return nil, err
	}
	return lo.FilterMap(themes, func(t database.Theme, _ int) (database.User, bool) {
		if t.User == nil {
			return database.User{}, false
		}
		return *t.User, true
	}), nil
}

// Stats returns the connection count, registration number and themes of the caller.
func (e *Engine) Stats(ctx context.Context, userID uint) (*UserStats, error) {
	user, err := e.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}

	count, err := e.db.CountConnectionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, err := safecast.Convert[int](count)
	if err != nil {
		return nil, fmt.Errorf("connection count out of range: %w", err)
	}

	return &UserStats{
		TotalConnections:   total,
		RegistrationNumber: user.RegistrationNumber,
		Themes:             user.ThemeNames(),
	}, nil
}

// Overview gathers the admin dashboard numbers concurrently.
func (e *Engine) Overview(ctx context.Context) (*Overview, error) {
	var (
		statusCounts map[database.UserStatus]int64
		themes       []database.ThemeCount
		rows         int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		statusCounts, err = e.db.CountUsersByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		themes, err = e.ThemeCounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = e.db.CountConnections(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Overview{
		Pending:        statusCounts[database.UserStatusPending],
		Approved:       statusCounts[database.UserStatusApproved],
		Rejected:       statusCounts[database.UserStatusRejected],
		Themes:         themes,
		Relationships:  rows / 2,
		ConnectionRows: rows,
	}, nil
}
