package session

// Decision is the route guard's verdict for a protected view.
type Decision int

const (
	// Pending means auth state is still unknown; render nothing and make
	// no redirect decision yet.
	Pending Decision = iota
	// RedirectLogin means the user is resolved and absent.
	RedirectLogin
	// Allow means the user is resolved and present.
	Allow
)

// Decide is the single shared guard for every protected view. While loading
// it always returns Pending, regardless of user, so a slow hydrate can never
// cause a redirect flicker.
func Decide(loading bool, user *User) Decision {
	if loading {
		return Pending
	}
	if user == nil {
		return RedirectLogin
	}
	return Allow
}

// Guard evaluates Decide against a manager's current state.
func Guard(m *Manager) Decision {
	if m.Loading() {
		return Pending
	}
	if _, ok := m.User(); !ok {
		return RedirectLogin
	}
	return Allow
}
