package partner

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// AuthenticationType selects how the gateway authenticates to a partner.
type AuthenticationType string

const (
	AuthNone   AuthenticationType = "NONE"
	AuthAPIKey AuthenticationType = "API_KEY"
	AuthBearer AuthenticationType = "BEARER"
	AuthBasic  AuthenticationType = "BASIC"
)

// RequestFormat selects the outbound request body encoding.
type RequestFormat string

const (
	FormatJSON RequestFormat = "JSON"
	FormatXML  RequestFormat = "XML"
	FormatForm RequestFormat = "FORM_DATA"
)

// RequestMethod is reserved for future widening; only POST is used today.
type RequestMethod string

const (
	MethodPOST RequestMethod = "POST"
)

const (
	DefaultTimeoutMs           = 5000
	DefaultUIDFieldName        = "uid"
	DefaultSuccessPattern      = "success"
	DefaultResponseStatusPath  = "status"
	DefaultResponseMessagePath = "message"
)

// Record is the immutable, decrypted partner configuration consumed by the
// broadcast path. It never carries the encrypted form of APIKey — that
// conversion happens once, in the cache's write-through path.
type Record struct {
	ID                    string
	Name                  string
	BaseURL               string
	StartChargingEndpoint string
	HTTPMethod            RequestMethod
	AuthenticationType    AuthenticationType
	APIKey                string
	RequestFormat         RequestFormat
	UIDFieldName          string
	SuccessStatusPattern  string
	ResponseStatusPath    string
	ResponseMessagePath   string
	TimeoutMs             int
	CustomHeaders         map[string]string
	Enabled               bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// RequestURL concatenates BaseURL and StartChargingEndpoint verbatim, with
// no path normalization, matching the source system's behavior.
func (p Record) RequestURL() string {
	return p.BaseURL + p.StartChargingEndpoint
}

// Timeout returns TimeoutMs as a time.Duration, clamped to at least 1ms.
func (p Record) Timeout() time.Duration {
	ms := p.TimeoutMs
	if ms < 1 {
		ms = 1
	}
	return time.Duration(ms) * time.Millisecond
}

// WithDefaults returns a copy of p with zero-valued optional fields filled
// in from the documented defaults (mirrors the Java source's @Builder.Default
// fields on Partner/PartnerConfigEntity).
func (p Record) WithDefaults() Record {
	if p.HTTPMethod == "" {
		p.HTTPMethod = MethodPOST
	}
	if p.RequestFormat == "" {
		p.RequestFormat = FormatJSON
	}
	if p.SuccessStatusPattern == "" {
		p.SuccessStatusPattern = DefaultSuccessPattern
	}
	if p.UIDFieldName == "" {
		p.UIDFieldName = DefaultUIDFieldName
	}
	if p.ResponseStatusPath == "" {
		p.ResponseStatusPath = DefaultResponseStatusPath
	}
	if p.ResponseMessagePath == "" {
		p.ResponseMessagePath = DefaultResponseMessagePath
	}
	if p.TimeoutMs == 0 {
		p.TimeoutMs = DefaultTimeoutMs
	}
	return p
}

// Validate enforces the invariants listed in spec §3. It is applied on the
// cache's write path (Create/Update) — the read path never rejects an
// already-stored record, since the source never validates on load either.
func (p Record) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required),
		validation.Field(&p.BaseURL, validation.Required),
		validation.Field(&p.StartChargingEndpoint, validation.Required),
		validation.Field(&p.TimeoutMs, validation.Required, validation.Min(1)),
		validation.Field(&p.AuthenticationType, validation.Required, validation.By(p.validateAPIKey)),
		validation.Field(&p.RequestFormat, validation.Required, validation.In(FormatJSON, FormatXML, FormatForm)),
	)
}

// validateAPIKey checks APIKey against the rules implied by
// AuthenticationType. It is bound as a validation.By rule on the
// AuthenticationType field so its error attaches to that field.
func (p Record) validateAPIKey(value interface{}) error {
	authType, _ := value.(AuthenticationType)
	switch authType {
	case AuthNone:
		return nil
	case AuthAPIKey, AuthBearer:
		return validation.Validate(p.APIKey, validation.Required)
	case AuthBasic:
		if strings.Count(p.APIKey, ":") != 1 {
			return validation.NewError("validation_invalid_basic_api_key", `BASIC api_key must be exactly one "user:password" pair`)
		}
		return nil
	default:
		return validation.NewError("validation_invalid_authentication_type", "unknown authentication_type")
	}
}

// BasicCredentials splits APIKey on the first ":" into user/password. It
// reports ok=false when the separator is missing, mirroring the source's
// "skip the auth header and warn" behavior rather than failing the call.
func (p Record) BasicCredentials() (user, password string, ok bool) {
	idx := strings.Index(p.APIKey, ":")
	if idx < 0 {
		return "", "", false
	}
	return p.APIKey[:idx], p.APIKey[idx+1:], true
}
