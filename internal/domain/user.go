package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type Preferences struct {
	Theme         Theme  `json:"theme"`
	Notifications bool   `json:"notifications"`
	Language      string `json:"language"`
}

type Stats struct {
	ProjectsCreated int `json:"projectsCreated"`
	TasksCompleted  int `json:"tasksCompleted"`
	HoursLogged     int `json:"hoursLogged"`
}

type User struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Avatar      string      `json:"avatar"`
	Role        Role        `json:"role"`
	Status      Status      `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	LastLogin   time.Time   `json:"lastLogin"`
	Preferences Preferences `json:"preferences"`
	Stats       Stats       `json:"stats"`
}

// NewUser is the create payload: every field except id and createdAt.
type NewUser struct {
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Avatar      string      `json:"avatar"`
	Role        Role        `json:"role"`
	Status      Status      `json:"status"`
	LastLogin   time.Time   `json:"lastLogin"`
	Preferences Preferences `json:"preferences"`
	Stats       Stats       `json:"stats"`
}

// UserPatch carries merge-patch fields; nil means "keep the current value".
// Nested records are replaced whole, not merged.
type UserPatch struct {
	Name        *string      `json:"name,omitempty"`
	Email       *string      `json:"email,omitempty"`
	Avatar      *string      `json:"avatar,omitempty"`
	Role        *Role        `json:"role,omitempty"`
	Status      *Status      `json:"status,omitempty"`
	CreatedAt   *time.Time   `json:"createdAt,omitempty"`
	LastLogin   *time.Time   `json:"lastLogin,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
	Stats       *Stats       `json:"stats,omitempty"`
}

// Apply returns u with every non-nil patch field written over it.
func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	if p.CreatedAt != nil {
		u.CreatedAt = *p.CreatedAt
	}
	if p.LastLogin != nil {
		u.LastLogin = *p.LastLogin
	}
	if p.Preferences != nil {
		u.Preferences = *p.Preferences
	}
	if p.Stats != nil {
		u.Stats = *p.Stats
	}
	return u
}

type ByRole struct {
	Admin []User `json:"admin"`
	User  []User `json:"user"`
}

// Result mirrors the mock API's {success, user?} reply.
type Result struct {
	Success bool  `json:"success"`
	User    *User `json:"user,omitempty"`
}

type UserStore interface {
	FetchUsers(ctx context.Context) error
	CreateUser(ctx context.Context, in NewUser) (Result, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (Result, error)
	DeleteUser(ctx context.Context, id string) (Result, error)
	GetUser(id string) (User, bool)
	Users() []User
	ActiveUsers() []User
	UsersByRole() ByRole
}
