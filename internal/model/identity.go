package model

// Identity is the typed result of resolving a session token. A zero
// Identity is the guest.
type Identity struct {
	UserID      int64  `json:"userId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	NameColor   string `json:"nameColor,omitempty"`
	LoggedIn    bool   `json:"loggedIn"`
}

func Guest() Identity {
	return Identity{}
}

func Authenticated(userID int64, displayName, nameColor string) Identity {
	return Identity{
		UserID:      userID,
		DisplayName: displayName,
		NameColor:   nameColor,
		LoggedIn:    true,
	}
}

func (i Identity) IsAuthenticated() bool {
	return i.LoggedIn
}
