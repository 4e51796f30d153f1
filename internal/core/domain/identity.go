package domain

type Identity struct {
	UserID string
	Email  string
}

// SignedIn reports whether id refers to an authenticated user.
func (id *Identity) SignedIn() bool {
	return id != nil && id.UserID != ""
}
