package models

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mergestat/timediff"
	"github.com/samber/lo"
	"github.com/sampark/sampark/internal/config"
	"github.com/sampark/sampark/internal/database"
	"github.com/sampark/sampark/internal/engine"
	"github.com/sampark/sampark/internal/gravatar"
)

// ToUser converts a database user to its public JSON shape.
func ToUser(u *database.User, cfg *config.GravatarConfig) User {
	return User{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Phone:              u.Phone,
		Organization:       u.Organization,
		RegistrationNumber: u.RegistrationNumber,
		Bio:                u.Bio,
		Interests:          u.Interests,
		LinkedIn:           u.LinkedIn,
		Twitter:            u.Twitter,
		Status:             string(u.Status),
		IsAdmin:            u.IsAdmin,
		IsDignitary:        u.IsDignitary,
		CreatedAt:          u.CreatedAt,
		AvatarURL:          gravatar.AvatarURL(u.Email, cfg),
	}
}

// ToUsers converts a list of users without their themes.
func ToUsers(users []database.User, cfg *config.GravatarConfig) []User {
	return lo.Map(users, func(u database.User, _ int) User {
		return ToUser(&u, cfg)
	})
}

// ToProfile converts a user including its theme names.
func ToProfile(u *database.User, cfg *config.GravatarConfig) Profile {
	return Profile{
		User:   ToUser(u, cfg),
		Themes: u.ThemeNames(),
	}
}

// ToConnections converts the caller's edges. now is used for the relative timestamp.
func ToConnections(conns []database.Connection, cfg *config.GravatarConfig, now time.Time) []Connection {
	return lo.Map(conns, func(c database.Connection, _ int) Connection {
		return Connection{
			ID:           c.ID,
			ConnectedAt:  c.ConnectedAt,
			ConnectedAgo: timediff.TimeDiff(c.ConnectedAt, timediff.WithStartTime(now)),
			Notes:        c.Notes,
			User:         ToProfile(&c.ConnectedUser, cfg),
		}
	})
}

func ToThemeCounts(counts []database.ThemeCount) []ThemeCount {
	return lo.Map(counts, func(t database.ThemeCount, _ int) ThemeCount {
		return ThemeCount{Name: t.Name, Count: t.Count}
	})
}

func ToStats(s *engine.UserStats) Stats {
	return Stats{
		TotalConnections:   s.TotalConnections,
		RegistrationNumber: s.RegistrationNumber,
		Themes:             s.Themes,
	}
}

func ToOverview(o *engine.Overview) Overview {
	return Overview{
		Users: UserCounts{
			Pending:  o.Pending,
			Approved: o.Approved,
			Rejected: o.Rejected,
			Total:    o.Pending + o.Approved + o.Rejected,
		},
		Themes:         ToThemeCounts(o.Themes),
		Connections:    o.Relationships,
		ConnectionRows: o.ConnectionRows,
	}
}

func ToHistory(events []database.HistoryEvent) []HistoryEvent {
	return lo.Map(events, func(e database.HistoryEvent, _ int) HistoryEvent {
		return HistoryEvent{
			ID:         e.ID,
			EventType:  string(e.EventType),
			UserID:     e.UserID,
			ActorID:    e.ActorID,
			Details:    e.Details,
			CreatedAt:  e.CreatedAt,
			CreatedAgo: humanize.Time(e.CreatedAt),
		}
	})
}
