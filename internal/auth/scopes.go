package auth

const (
	ScopeOpenID    = "openid"
	ScopeProfile   = "profile"
	ScopeEmail     = "email"
	ScopeDeckRead  = "deck:read"
	ScopeDeckWrite = "deck:write"
)

// AllScopes defines the full set of scopes used by the frontend
var AllScopes = []string{
	ScopeOpenID,
	ScopeProfile,
	ScopeEmail,
	ScopeDeckRead,
	ScopeDeckWrite,
}
