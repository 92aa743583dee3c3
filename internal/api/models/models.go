package models

import "time"

// User is the JSON shape of a participant. The password hash is never exposed.
type User struct {
	ID                 uint      `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	Organization       string    `json:"organization"`
	RegistrationNumber string    `json:"registration_number"`
	Bio                string    `json:"bio"`
	Interests          string    `json:"interests"`
	LinkedIn           string    `json:"linkedin"`
	Twitter            string    `json:"twitter"`
	Status             string    `json:"status"`
	IsAdmin            bool      `json:"is_admin"`
	IsDignitary        bool      `json:"is_dignitary"`
	CreatedAt          time.Time `json:"created_at"`
	AvatarURL          string    `json:"avatar_url,omitempty"`
}

// Profile is a User together with its theme names.
type Profile struct {
	User
	Themes []string `json:"themes"`
}

// Connection is one edge owned by the caller.
type Connection struct {
	ID           uint      `json:"id"`
	ConnectedAt  time.Time `json:"connected_at"`
	ConnectedAgo string    `json:"connected_ago"`
	Notes        string    `json:"notes,omitempty"`
	User         Profile   `json:"user"`
}

type ThemeCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type ThemeParticipants struct {
	Theme        string `json:"theme"`
	Participants []User `json:"participants"`
}

type Stats struct {
	TotalConnections   int      `json:"total_connections"`
	RegistrationNumber string   `json:"registration_number"`
	Themes             []string `json:"themes"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type UserCounts struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Total    int64 `json:"total"`
}

// Overview is the admin dashboard summary.
type Overview struct {
	Users          UserCounts   `json:"users"`
	Themes         []ThemeCount `json:"themes"`
	Connections    int64        `json:"connections"`
	ConnectionRows int64        `json:"connection_rows"`
}

type HistoryEvent struct {
	ID         uint      `json:"id"`
	EventType  string    `json:"event_type"`
	UserID     uint      `json:"user_id"`
	ActorID    *uint     `json:"actor_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	CreatedAgo string    `json:"created_ago"`
}
