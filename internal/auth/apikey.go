package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Gateway tokens look like llmgw-<env>-<32 lowercase base32 chars>. Only
// their SHA-256 hashes are kept in config.
const (
	tokenScheme    = "llmgw"
	tokenSecretLen = 32
	prefixShown    = 8
)

// GenerateToken returns a fresh gateway token for env. env must be
// lowercase letters and digits so the token splits cleanly on dashes.
func GenerateToken(env string) (string, error) {
	if env == "" || strings.TrimLeft(env, "abcdefghijklmnopqrstuvwxyz0123456789") != "" {
		return "", fmt.Errorf("token environment %q must be lowercase letters and digits", env)
	}
	var secret strings.Builder
	for secret.Len() < tokenSecretLen {
		secret.WriteString(strings.ToLower(rand.Text()))
	}
	return tokenScheme + "-" + env + "-" + secret.String()[:tokenSecretLen], nil
}

// HashToken is the form a token is stored and looked up in.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TokenPrefix is the scheme, environment and first characters of the secret,
// enough to tell tokens apart in logs. Strings that are not tokens come back
// unchanged.
func TokenPrefix(token string) string {
	parts := strings.SplitN(token, "-", 3)
	if len(parts) != 3 || parts[0] != tokenScheme {
		return token
	}
	secret := parts[2]
	if len(secret) > prefixShown {
		secret = secret[:prefixShown]
	}
	return parts[0] + "-" + parts[1] + "-" + secret
}

// Redact shortens a gateway token or LockLLM API key for logging.
func Redact(secret string) string {
	secret = strings.TrimSpace(secret)
	switch {
	case strings.HasPrefix(secret, tokenScheme+"-"):
		return TokenPrefix(secret) + "..."
	case len(secret) > prefixShown:
		return secret[:prefixShown] + "..."
	}
	return "***"
}
