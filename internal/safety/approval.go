package safety

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoApprovalSecret  = errors.New("approval secret is empty")
	ErrMalformedToken    = errors.New("malformed approval token")
	ErrBadTokenSignature = errors.New("approval token signature mismatch")
	ErrTokenAction       = errors.New("approval token issued for another action")
	ErrTokenExpired      = errors.New("approval token expired")
)

const defaultApprovalTTL = 5 * time.Minute

var tokenEncoding = base64.RawURLEncoding

// approvalClaims are signed into every token. ID keeps two tokens issued in
// the same second distinct.
type approvalClaims struct {
	Action    string `json:"act"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
	ID        string `json:"jti"`
}

// now is replaced in tests.
var now = time.Now

// GenerateApprovalToken signs a token allowing action until ttl elapses.
// The token is "<claims>.<hmac-sha256>", both parts unpadded base64url.
func GenerateApprovalToken(secret, action string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrNoApprovalSecret
	}
	if ttl <= 0 {
		ttl = defaultApprovalTTL
	}
	id := make([]byte, 12)
	if _, err := rand.Read(id); err != nil {
		return "", fmt.Errorf("token id: %w", err)
	}
	t := now()
	claims, err := json.Marshal(approvalClaims{
		Action:    action,
		IssuedAt:  t.Unix(),
		ExpiresAt: t.Add(ttl).Unix(),
		ID:        tokenEncoding.EncodeToString(id),
	})
	if err != nil {
		return "", err
	}
	return tokenEncoding.EncodeToString(claims) + "." + tokenEncoding.EncodeToString(mac(secret, claims)), nil
}

// ValidateApprovalToken checks signature, action and expiry, in that order.
func ValidateApprovalToken(secret, action, token string) error {
	if secret == "" {
		return ErrNoApprovalSecret
	}
	rawClaims, rawSig, ok := bytes.Cut([]byte(token), []byte("."))
	if !ok {
		return ErrMalformedToken
	}
	claims, err := tokenEncoding.DecodeString(string(rawClaims))
	if err != nil {
		return ErrMalformedToken
	}
	sig, err := tokenEncoding.DecodeString(string(rawSig))
	if err != nil {
		return ErrMalformedToken
	}
	if !hmac.Equal(sig, mac(secret, claims)) {
		return ErrBadTokenSignature
	}
	var c approvalClaims
	if err := json.Unmarshal(claims, &c); err != nil {
		return ErrMalformedToken
	}
	if c.Action != action {
		return ErrTokenAction
	}
	if now().Unix() > c.ExpiresAt {
		return ErrTokenExpired
	}
	return nil
}

func mac(secret string, msg []byte) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(msg)
	return h.Sum(nil)
}
