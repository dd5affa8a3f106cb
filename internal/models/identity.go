package models

// Identity is the normalized payload returned by the token verification
// gateway after a successful validation. Avatar is always a full CDN URL;
// a bare hash from the provider is expanded before the identity is handed
// to storage.
type Identity struct {
	DiscordID string   `json:"discordId"`
	Username  string   `json:"username"`
	Avatar    string   `json:"avatar"`
	RoleIDs   []string `json:"roleIds"`
	IsAdmin   bool     `json:"isAdmin"`
}
