package models

import "time"

// User represents a principal known to the platform.
//
// ID is the stable internal identity. DiscordID is the identity provider's
// id and is unique. RoleIDs is a denormalized copy of the user_roles edge
// table; only the membership sync is allowed to write both.
type User struct {
	ID        int            `json:"id"`
	DiscordID string         `json:"discordId"`
	Username  string         `json:"username"`
	Avatar    string         `json:"avatar"`
	IsAdmin   bool           `json:"isAdmin"`
	RoleIDs   []string       `json:"roleIds"`
	Settings  map[string]any `json:"settings,omitempty"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
}

// HasRole checks if the user holds the given Discord role
func (u *User) HasRole(roleID string) bool {
	for _, id := range u.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// LiveMembership is the current guild membership as reported by Discord.
// A user unknown to the guild is represented by an empty role list.
type LiveMembership struct {
	Username string   `json:"username"`
	RoleIDs  []string `json:"roleIds"`
}
