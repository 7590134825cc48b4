package models

// User is a single record of the users collection. ID is assigned by the
// server on creation and never changes afterwards.
type User struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Age      int      `json:"age"`
	Hobbies  []string `json:"hobbies"`
}

// Normalize makes sure Hobbies encodes as an array rather than null.
func (u User) Normalize() User {
	if u.Hobbies == nil {
		u.Hobbies = []string{}
	}
	return u
}
