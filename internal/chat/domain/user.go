package domain

// User internal user record, upserted from the identity-provider profile
type User struct {
	ID          int64  `json:"-"`
	UserID      string `json:"user_id"`
	ExternalID  string `json:"external_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url"`
}

// UserWithPresence user joined with its presence row for the people list
type UserWithPresence struct {
	User
	IsOnline bool  `json:"is_online"`
	LastSeen int64 `json:"last_seen"`
}

// UserQuery join conditions are used to query users
type UserQuery struct {
	ID         *int64  `db:"id"`
	UserID     *string `db:"user_id"`
	ExternalID *string `db:"external_id"`
}
