// FILE: src/internal/admin/auth.go
package admin

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lixenwraith/log"
	"golang.org/x/crypto/argon2"

	"logroute/src/internal/core"
)

// hashedToken is one accepted static bearer token, stored as an
// argon2id digest so the plaintext never stays resident.
type hashedToken struct {
	salt []byte
	hash []byte
}

// TokenVault validates admin bearer credentials: static tokens hashed
// with argon2id, plus optional JWT validation when a signing key is
// configured. A nil vault accepts everything.
type TokenVault struct {
	tokens     []hashedToken
	jwtParser  *jwt.Parser
	jwtKeyFunc jwt.Keyfunc
	logger     *log.Logger
}

// NewTokenVault hashes the given static tokens and, when signingKey is
// non-empty, enables HS256-family JWT validation. Nil is returned when
// neither is configured, disabling auth.
func NewTokenVault(staticTokens []string, signingKey string, logger *log.Logger) (*TokenVault, error) {
	if len(staticTokens) == 0 && signingKey == "" {
		return nil, nil
	}

	v := &TokenVault{logger: logger}
	for _, t := range staticTokens {
		if t == "" {
			return nil, fmt.Errorf("empty bearer token configured")
		}
		salt := make([]byte, core.Argon2SaltLen)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("failed to generate token salt: %w", err)
		}
		v.tokens = append(v.tokens, hashedToken{
			salt: salt,
			hash: hashToken(t, salt),
		})
	}

	if signingKey != "" {
		key := []byte(signingKey)
		v.jwtParser = jwt.NewParser(
			jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
			jwt.WithLeeway(5*time.Second),
			jwt.WithExpirationRequired(),
		)
		v.jwtKeyFunc = func(token *jwt.Token) (any, error) {
			return key, nil
		}
	}

	logger.Info("msg", "Admin token vault initialized",
		"component", "admin",
		"static_tokens", len(v.tokens),
		"jwt", v.jwtParser != nil)
	return v, nil
}

// Authorize checks one Authorization header value. A nil vault reports
// success unconditionally.
func (v *TokenVault) Authorize(authHeader string) error {
	if v == nil {
		return nil
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return fmt.Errorf("missing bearer credentials")
	}
	credential := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
	if credential == "" {
		return fmt.Errorf("empty bearer credentials")
	}

	for _, t := range v.tokens {
		candidate := hashToken(credential, t.salt)
		if subtle.ConstantTimeCompare(candidate, t.hash) == 1 {
			return nil
		}
	}

	// JWTs are three dot-separated segments; anything else already
	// failed the static comparison above.
	if v.jwtParser != nil && strings.Count(credential, ".") == 2 {
		token, err := v.jwtParser.Parse(credential, v.jwtKeyFunc)
		if err != nil {
			return fmt.Errorf("invalid JWT: %w", err)
		}
		if token.Valid {
			return nil
		}
	}

	return fmt.Errorf("unrecognized credentials")
}

func hashToken(token string, salt []byte) []byte {
	return argon2.IDKey([]byte(token), salt,
		core.Argon2Time, core.Argon2Memory, core.Argon2Threads, core.Argon2KeyLen)
}

// GenerateToken produces a random url-safe admin token.
func GenerateToken() (string, error) {
	raw := make([]byte, core.DefaultTokenLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
