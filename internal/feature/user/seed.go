package user

import (
	"time"

	"go-gin-mock-users/internal/domain"
)

// SeedUsers returns a fresh copy of the three sample records every store starts with.
func SeedUsers() []domain.User {
	return []domain.User{
		{
			ID:        "usr_001",
			Name:      "Alex Chen",
			Email:     "alex.chen@example.com",
			Avatar:    "https://i.pravatar.cc/150?img=1",
			Role:      domain.RoleAdmin,
			Status:    domain.StatusActive,
			CreatedAt: ts("2024-01-15T10:30:00Z"),
			LastLogin: ts("2024-12-05T08:45:00Z"),
			Preferences: domain.Preferences{
				Theme: domain.ThemeDark, Notifications: true, Language: "en",
			},
			Stats: domain.Stats{ProjectsCreated: 12, TasksCompleted: 89, HoursLogged: 156},
		},
		{
			ID:        "usr_002",
			Name:      "Jordan Taylor",
			Email:     "jordan.taylor@example.com",
			Avatar:    "https://i.pravatar.cc/150?img=2",
			Role:      domain.RoleUser,
			Status:    domain.StatusActive,
			CreatedAt: ts("2024-02-20T14:45:00Z"),
			LastLogin: ts("2024-12-04T16:20:00Z"),
			Preferences: domain.Preferences{
				Theme: domain.ThemeLight, Notifications: false, Language: "en",
			},
			Stats: domain.Stats{ProjectsCreated: 5, TasksCompleted: 34, HoursLogged: 67},
		},
		{
			ID:        "usr_003",
			Name:      "Sam Rivera",
			Email:     "sam.rivera@example.com",
			Avatar:    "https://i.pravatar.cc/150?img=3",
			Role:      domain.RoleUser,
			Status:    domain.StatusInactive,
			CreatedAt: ts("2024-03-10T09:15:00Z"),
			LastLogin: ts("2024-11-28T11:30:00Z"),
			Preferences: domain.Preferences{
				Theme: domain.ThemeDark, Notifications: true, Language: "es",
			},
			Stats: domain.Stats{ProjectsCreated: 2, TasksCompleted: 15, HoursLogged: 23},
		},
	}
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}
