// Package webhook authenticates catalog notifications and guarantees each
// delivery id is applied at most once.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// Header names set by the catalog on every delivery.
const (
	HeaderSignature  = "X-Shopify-Hmac-SHA256"
	HeaderTopic      = "X-Shopify-Topic"
	HeaderShopDomain = "X-Shopify-Shop-Domain"
	HeaderWebhookID  = "X-Shopify-Webhook-Id"
)

// Verify reports whether signature is the base64 HMAC-SHA256 of body under
// secret. Empty inputs, undecodable signatures and panics all count as
// invalid.
func Verify(body []byte, signature, secret string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	if len(body) == 0 || secret == "" {
		return false
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return false
	}
	given, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), given)
}

// Sign returns the signature Verify expects. Used by tests and tooling.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// DeliveryID returns the catalog's webhook id, or a digest of topic and
// body when the header is missing so that replays still collide.
func DeliveryID(headerID, topic string, body []byte) string {
	if id := strings.TrimSpace(headerID); id != "" {
		return id
	}
	h := sha256.New()
	h.Write([]byte(topic))
	h.Write([]byte{0})
	h.Write(body)
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}
