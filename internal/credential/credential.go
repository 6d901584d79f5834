// Package credential persists the set of known user credentials and the
// currently selected one in encrypted local storage.
package credential

import "strings"

// Credential is a locally remembered user identity and its token pair.
// Passwords are never part of a credential.
type Credential struct {
	Email        string `json:"email"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	AccessToken  string `json:"jwtToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Authenticated reports whether the credential carries an access token.
func (c Credential) Authenticated() bool {
	return c.AccessToken != ""
}

// WithTokens returns a copy of c carrying the given token pair.
func (c Credential) WithTokens(access, refresh string) Credential {
	c.AccessToken = access
	c.RefreshToken = refresh
	return c
}

// ClearTokens returns a copy of c without tokens.
func (c Credential) ClearTokens() Credential {
	return c.WithTokens("", "")
}

// DisplayName is "First Last", falling back to the email when both are empty.
func (c Credential) DisplayName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return c.Email
	}
	return name
}

// Set is the persisted collection of credentials plus the current pointer.
type Set struct {
	Users   []Credential `json:"allUsers"`
	Current *Credential  `json:"currentUser,omitempty"`
}

// Find returns the credential for email.
func (s Set) Find(email string) (Credential, bool) {
	if i := s.index(email); i >= 0 {
		return s.Users[i], true
	}
	return Credential{}, false
}

// Upsert replaces the credential with the same email or appends it.
func (s *Set) Upsert(c Credential) {
	if i := s.index(c.Email); i >= 0 {
		s.Users[i] = c
		return
	}
	s.Users = append(s.Users, c)
}

func (s Set) index(email string) int {
	for i, u := range s.Users {
		if u.Email == email {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of s.
func (s Set) Clone() Set {
	out := Set{Users: append([]Credential(nil), s.Users...)}
	if s.Current != nil {
		cur := *s.Current
		out.Current = &cur
	}
	return out
}
