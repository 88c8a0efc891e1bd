package model

// UserSummary is a user as returned by Store.ListUsers and the users API.
// A user owns zero or more movies.
//
// Fields:
//
//	ID       – user.user_id, assigned by the store.
//	Username – display name, non-empty and at most MaxUsernameLen chars.
type UserSummary struct {
	ID       uint64 `json:"user_id"`
	Username string `json:"username"`
}

// MaxUsernameLen mirrors the width of the user.username column.
const MaxUsernameLen = 50
