package domain

// Reason is a terminal, user-visible rejection. The zero value means accepted.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonInvalidCredentials Reason = "invalid_credentials"
	ReasonInvalidToken       Reason = "invalid_token"
	ReasonTokenExpired       Reason = "token_expired"
	ReasonTokenRevoked       Reason = "token_revoked"
	ReasonNoToken            Reason = "no_token"
	ReasonInactive           Reason = "inactive"
)

// Rejected reports whether r is a rejection.
func (r Reason) Rejected() bool {
	return r != ReasonNone
}

// Message is the client-facing text for a rejection.
func (r Reason) Message() string {
	switch r {
	case ReasonInvalidCredentials:
		return "Credentials are not valid"
	case ReasonInvalidToken:
		return "Token not valid"
	case ReasonTokenExpired:
		return "Token has expired"
	case ReasonTokenRevoked:
		return "Token has been revoked"
	case ReasonNoToken:
		return "Token not provided"
	case ReasonInactive:
		return "User not active"
	}
	return ""
}
