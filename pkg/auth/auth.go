package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/srand/hookd/pkg/log"
	"github.com/srand/hookd/pkg/utils"
)

// Header carrying the request body signature, unless configured otherwise.
const DefaultSignatureHeader = "X-Hub-Signature-256"

const signaturePrefix = "sha256="

type BasicAuthConfig struct {
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
}

type Config struct {
	// Shared secret used to sign request bodies.
	Secret string `mapstructure:"secret" yaml:"secret"`

	// Name of the header carrying the signature.
	SignatureHeader string `mapstructure:"signature_header" yaml:"signature_header"`

	BasicAuth BasicAuthConfig `mapstructure:"basic_auth" yaml:"basic_auth"`
}

func (c *Config) SetDefaults() {
	if c.SignatureHeader == "" {
		c.SignatureHeader = DefaultSignatureHeader
	}
}

// Verifies request credentials.
// Every configured method must accept the request.
type Authenticator struct {
	secret   []byte
	header   string
	user     string
	password string
}

func NewAuthenticator(config Config) (*Authenticator, error) {
	config.SetDefaults()

	if config.Secret == "" && config.BasicAuth.User == "" {
		return nil, fmt.Errorf("no authentication method configured, set a secret or basic auth credentials")
	}

	if config.BasicAuth.User == "" && config.BasicAuth.Password != "" {
		return nil, fmt.Errorf("basic auth password configured without user")
	}

	return &Authenticator{
		secret:   []byte(config.Secret),
		header:   config.SignatureHeader,
		user:     config.BasicAuth.User,
		password: config.BasicAuth.Password,
	}, nil
}

// Name of the signature header.
func (a *Authenticator) Header() string {
	return a.header
}

// Check the request credentials against the body.
func (a *Authenticator) Verify(req *http.Request, body []byte) error {
	if len(a.secret) > 0 {
		if err := a.verifySignature(req.Header.Get(a.header), body); err != nil {
			return err
		}
	}

	if a.user != "" {
		if err := a.verifyBasicAuth(req); err != nil {
			return err
		}
	}

	return nil
}

func (a *Authenticator) verifySignature(value string, body []byte) error {
	if value == "" {
		return fmt.Errorf("%w: missing %s header", utils.ErrUnauthorized, a.header)
	}

	signature, err := hex.DecodeString(strings.TrimPrefix(value, signaturePrefix))
	if err != nil {
		return fmt.Errorf("%w: malformed signature", utils.ErrUnauthorized)
	}

	if !hmac.Equal(signature, digest(a.secret, body)) {
		return fmt.Errorf("%w: signature mismatch", utils.ErrUnauthorized)
	}

	return nil
}

func (a *Authenticator) verifyBasicAuth(req *http.Request) error {
	user, password, ok := req.BasicAuth()
	if !ok {
		return fmt.Errorf("%w: missing credentials", utils.ErrUnauthorized)
	}

	userOk := subtle.ConstantTimeCompare([]byte(user), []byte(a.user)) == 1
	passwordOk := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	if !userOk || !passwordOk {
		return fmt.Errorf("%w: invalid credentials", utils.ErrUnauthorized)
	}

	return nil
}

// Log the enabled authentication methods.
func (a *Authenticator) Log() {
	if len(a.secret) > 0 {
		log.Info("Request signatures required in header", a.header)
	}
	if a.user != "" {
		log.Info("Basic authentication required for user", a.user)
	}
}

func digest(secret, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil)
}

// Returns the signature header value for the body.
func Sign(secret string, body []byte) string {
	return signaturePrefix + hex.EncodeToString(digest([]byte(secret), body))
}
