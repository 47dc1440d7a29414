package handler

import (
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"net/http"

	"github.com/labstack/echo/v4"
)

// jwk is a single RSA signing key in JWK form.
type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksDoc struct {
	Keys []jwk `json:"keys"`
}

// JWKS serves the RS256 public key under /.well-known/jwks.json for
// OIDC-style discovery.  The document is computed once at wiring time from
// the same key the token service signs with, so the served kid always
// matches issued token headers.
func JWKS(pub *rsa.PublicKey, kid string) echo.HandlerFunc {
	doc := jwksDoc{Keys: []jwk{{
		Kty: "RSA",
		Use: "sig",
		Alg: "RS256",
		Kid: kid,
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}}
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, doc)
	}
}
