package auth

// User is the acting user of a status change. A nil *User means a system-triggered change.
type User struct {
	ID        uint
	Email     string
	FirstName string
	LastName  string
}

func (u *User) EmailAddress() *string {
	if u == nil || u.Email == "" {
		return nil
	}
	return &u.Email
}

func (u *User) GivenName() *string {
	if u == nil || u.FirstName == "" {
		return nil
	}
	return &u.FirstName
}

func (u *User) FamilyName() *string {
	if u == nil || u.LastName == "" {
		return nil
	}
	return &u.LastName
}
