package model

// RegisterParams are the inputs of an email and password registration.
type RegisterParams struct {
	Email       string
	DisplayName string
	Password    string
}

// LoginParams are the inputs of an email and password login.
type LoginParams struct {
	Email    string
	Password string
	ClientIP string
}

// ExternalIdentity is an identity already verified by an external provider.
type ExternalIdentity struct {
	GoogleID      string
	Email         string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
}

// Session is the result of a successful sign in.
type Session struct {
	User         User
	AccessToken  string
	RefreshToken string
}
