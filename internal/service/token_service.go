package service

import (
	"crypto/rsa"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")

	// ErrEmptySubject es un error del emisor, no del verificador.
	ErrEmptySubject = errors.New("token subject must not be empty")
)

// IssuedToken es el resultado de emitir un token de autenticación.
// Token incluye el prefijo "Bearer "; ExpiresAt se deriva del claim exp
// firmado, que es la única fuente de verdad para la expiración.
type IssuedToken struct {
	Token     string    `json:"authenticationToken"`
	ExpiresAt time.Time `json:"authenticationTokenExpirationDate"`
}

// TokenClaims son los claims firmados de un token de autenticación.
type TokenClaims struct {
	jwt.RegisteredClaims
}

// TokenIssuer firma tokens RS256 con la clave privada del despliegue.
type TokenIssuer struct {
	key    *rsa.PrivateKey
	ttl    time.Duration
	issuer string
}

// TokenVerifier valida tokens con la clave pública. Nunca tiene acceso
// a la clave privada.
type TokenVerifier struct {
	key    *rsa.PublicKey
	issuer string
}

const defaultTokenIssuer = "account-api"

// NewTokenIssuer crea un emisor de tokens con vigencia ttl.
func NewTokenIssuer(key *rsa.PrivateKey, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenIssuer{key: key, ttl: ttl, issuer: defaultTokenIssuer}
}

// NewTokenVerifier crea un verificador a partir de la clave pública.
func NewTokenVerifier(key *rsa.PublicKey) *TokenVerifier {
	return &TokenVerifier{key: key, issuer: defaultTokenIssuer}
}

// Issue emite un token firmado para el usuario indicado.
func (i *TokenIssuer) Issue(userID string) (IssuedToken, error) {
	if i.key == nil {
		return IssuedToken{}, errors.New("token issuer: private key not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return IssuedToken{}, ErrEmptySubject
	}
	now := time.Now().UTC()
	expiresAt := now.Add(i.ttl)
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(i.key)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{
		Token:     bearerPrefix + signed,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify valida estructura, firma y expiración del token y devuelve sus
// claims. Acepta el token con o sin el prefijo "Bearer ".
func (v *TokenVerifier) Verify(token string) (TokenClaims, error) {
	if v.key == nil {
		return TokenClaims{}, errors.New("token verifier: public key not configured")
	}
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), bearerPrefix))
	if raw == "" {
		return TokenClaims{}, ErrTokenMalformed
	}

	var claims TokenClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	_, err := parser.ParseWithClaims(raw, &claims, func(_ *jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return TokenClaims{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return TokenClaims{}, ErrTokenMalformed
		default:
			return TokenClaims{}, ErrTokenInvalid
		}
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.Issuer != v.issuer {
		return TokenClaims{}, ErrTokenInvalid
	}
	return claims, nil
}

// LoadPrivateKey lee una clave privada RSA en formato PEM.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
}

// LoadPublicKey lee una clave pública RSA en formato PEM.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jwt.ParseRSAPublicKeyFromPEM(pemBytes)
}
