package domain

// TokenPair is what a successful login, OTP verification or refresh returns:
// the short-lived access token and the rotating refresh token, both JWTs.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    int64  `json:"expires_in"`           // seconds until access expiry
}

// DeliveryReport summarizes a notification fan-out: how many recipients were
// resolved and how each attempt went. Failures are collected, never raised.
type DeliveryReport struct {
	Recipients int
	Delivered  int
	Failed     int
}
