package service

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"charter/internal/config"
)

// defaultSendType is assumed when the gateway omits Send_Type from a
// callback; it matches the value the outbound link always carries.
const defaultSendType = "0"

// ComputeCheckValue computes the gateway's check value:
// upper-hex MD5 over merchantID ++ orderNo ++ amount ++ sendType ++ secret.
// The concatenation order is the gateway's wire contract and is identical
// for outbound links and inbound callbacks.
func ComputeCheckValue(merchantID, orderNo, amount, sendType, secret string) string {
	sum := md5.Sum([]byte(merchantID + orderNo + amount + sendType + secret))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Authenticator signs outbound payment links and verifies inbound callback
// check values against the merchant secret.
type Authenticator struct {
	cfg config.GatewayConfig
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(cfg config.GatewayConfig) *Authenticator {
	return &Authenticator{cfg: cfg}
}

// Sign computes the check value for an outbound payment-initiation link.
func (a *Authenticator) Sign(orderNo, amount, sendType string) string {
	return ComputeCheckValue(a.cfg.MerchantID, orderNo, amount, sendType, a.cfg.Secret)
}

// VerifyCallback verifies an inbound callback's str_check field.
//
// An empty check value fails unless AllowUnsignedCallbacks is set; a
// present one must match the value computed with the same concatenation
// order, using the sendType echoed by the gateway (defaulting to "0").
func (a *Authenticator) VerifyCallback(orderNo, amount, sendType, check string) error {
	if check == "" {
		if a.cfg.AllowUnsignedCallbacks {
			return nil
		}
		return ErrSignatureMismatch
	}

	if sendType == "" {
		sendType = defaultSendType
	}

	expected := ComputeCheckValue(a.cfg.MerchantID, orderNo, amount, sendType, a.cfg.Secret)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToUpper(check))) != 1 {
		return ErrSignatureMismatch
	}

	return nil
}
