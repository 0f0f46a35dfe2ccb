package model

// Session is the identity of the currently authenticated user.
// It is derived state: held in memory and mirrored to the persistent
// store so a restart resumes the same identity. A nil *Session means
// the viewer is anonymous.
type Session struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}
