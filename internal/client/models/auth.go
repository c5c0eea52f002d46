package models

// AuthResult bundles what signup, login and OAuth exchange return.
type AuthResult struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// TokenRefresh is the result of POST /auth/refresh. RefreshToken is only
// set when the authority rotates refresh tokens.
type TokenRefresh struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// ShopType enumerates the salon categories accepted at signup.
// SignupRequest's validate tag lists the same values.
type ShopType string

const (
	ShopTypeNail ShopType = "nail"
	ShopTypeHair ShopType = "hair"
	ShopTypeSkin ShopType = "skin"
	ShopTypeLash ShopType = "lash"
)

type SignupRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	Name     string   `json:"name" validate:"required,min=1"`
	ShopName string   `json:"shopName,omitempty" validate:"omitempty,max=100"`
	ShopType ShopType `json:"shopType,omitempty" validate:"omitempty,oneof=nail hair skin lash"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type OAuthCallbackRequest struct {
	Code  string `json:"code" validate:"required"`
	State string `json:"state" validate:"required"`
}

type OAuthURL struct {
	AuthURL string `json:"authUrl"`
}

type OAuthProviders struct {
	Providers []string `json:"providers"`
}

// Message is a plain acknowledgement body.
type Message struct {
	Message string `json:"message"`
}

// OAuthExchange is the ephemeral input of one OAuth callback landing.
// It is consumed exactly once and never retried.
type OAuthExchange struct {
	Provider string
	Code     string
	State    string
}

// Complete reports whether both code and state were present in the redirect.
func (e OAuthExchange) Complete() bool {
	return e.Code != "" && e.State != ""
}
