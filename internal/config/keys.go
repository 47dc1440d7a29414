package config

// keys.go selects the signing-key source for access token verification.  The
// service always signs access tokens with a local RS256 private key, but
// verification can either use a static public key (tests, single-node
// deployments) or an OIDC-style JWKS endpoint with cached, rate-limited
// fetches.  The strategy is chosen once at startup via AUTH_KEY_SOURCE
// rather than branched on an ambient environment flag at call time.

import (
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"log"
	"os"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// KeySource identifies where access-token verification keys come from.
type KeySource string

const (
	// KeySourceStatic verifies against a PEM-encoded RSA public key file.
	KeySourceStatic KeySource = "static"
	// KeySourceJWKS verifies against a remote JWKS document.
	KeySourceJWKS KeySource = "jwks"
)

// KeyConfig carries the signing-key material locations.
type KeyConfig struct {
	Source         KeySource // verification strategy
	PrivateKeyFile string    // PEM file holding the RS256 private key
	PublicKeyFile  string    // PEM file holding the RS256 public key (static source)
	JWKSURI        string    // JWKS endpoint URL (jwks source)
}

// loadKeyConfig reads the key-related environment variables.  The private
// key file is always required; the public key file and JWKS URI are only
// required for their respective strategies.
func loadKeyConfig() KeyConfig {
	src := KeySource(getenv("AUTH_KEY_SOURCE", string(KeySourceStatic)))
	kc := KeyConfig{
		Source:         src,
		PrivateKeyFile: must("PRIVATE_KEY_FILE"),
	}
	switch src {
	case KeySourceStatic:
		kc.PublicKeyFile = must("PUBLIC_KEY_FILE")
	case KeySourceJWKS:
		kc.JWKSURI = must("JWKS_URI")
	default:
		log.Fatalf("unknown AUTH_KEY_SOURCE: %q (want %q or %q)", src, KeySourceStatic, KeySourceJWKS)
	}
	return kc
}

// LoadPrivateKey reads and parses the RS256 private key.  A missing or
// unreadable key is a fatal configuration error for the token service, so
// callers are expected to abort startup on failure.
func (kc KeyConfig) LoadPrivateKey() (*rsa.PrivateKey, error) {
	pem, err := os.ReadFile(kc.PrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("private key is not configured correctly: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("private key is not configured correctly: %w", err)
	}
	return key, nil
}

// VerifyKeyfunc builds the jwt.Keyfunc used by the authentication middleware
// according to the configured source.  For the JWKS source the returned
// function transparently caches the remote key set and rate-limits refresh
// requests.  The provided context bounds the lifetime of the background
// JWKS refresher.
func (kc KeyConfig) VerifyKeyfunc(ctx context.Context) (jwt.Keyfunc, error) {
	switch kc.Source {
	case KeySourceJWKS:
		kf, err := keyfunc.NewDefaultCtx(ctx, []string{kc.JWKSURI})
		if err != nil {
			return nil, fmt.Errorf("loading JWKS from %s: %w", kc.JWKSURI, err)
		}
		return kf.Keyfunc, nil
	default:
		pem, err := os.ReadFile(kc.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("public key is not configured correctly: %w", err)
		}
		pub, err := jwt.ParseRSAPublicKeyFromPEM(pem)
		if err != nil {
			return nil, fmt.Errorf("public key is not configured correctly: %w", err)
		}
		return func(*jwt.Token) (interface{}, error) { return pub, nil }, nil
	}
}

// KeyID derives a stable identifier for an RSA public key.  It is embedded
// in the "kid" header of issued access tokens and in the served JWKS
// document so JWKS-based verifiers can match tokens to keys.
func KeyID(pub *rsa.PublicKey) string {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:8])
}
