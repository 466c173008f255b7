package providerauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/kachence/sols.bet-sub002/internal/domain"
	"github.com/kachence/sols.bet-sub002/pkg/config"
)

// Authenticator validates inbound game-provider callbacks: HMAC signature
// over the canonicalized request fields, timestamp freshness, and an
// optional source-IP allow-list. It is pure validation and never mutates
// state.
type Authenticator struct {
	secret  string
	window  time.Duration
	allowed []*net.IPNet
	now     func() time.Time
}

func New(cfg config.ProviderConfig) *Authenticator {
	window := cfg.TimestampWindow
	if window <= 0 {
		window = 5 * time.Minute
	}

	var allowed []*net.IPNet
	for _, entry := range cfg.AllowedIPs {
		if !strings.Contains(entry, "/") {
			if ip := net.ParseIP(entry); ip != nil {
				bits := 32
				if ip.To4() == nil {
					bits = 128
				}
				entry = entry + "/" + strconv.Itoa(bits)
			}
		}
		if _, network, err := net.ParseCIDR(entry); err == nil {
			allowed = append(allowed, network)
		}
	}

	return &Authenticator{
		secret:  cfg.Secret,
		window:  window,
		allowed: allowed,
		now:     time.Now,
	}
}

// Canonicalize builds the string the provider signs. Field order is part of
// the shared-secret contract.
func Canonicalize(req domain.ProviderBalanceRequest) string {
	return strings.Join([]string{req.Command, req.UserID, req.Login, req.Timestamp}, "|")
}

// Sign computes the expected signature for a request. Exported so tests and
// outbound tooling share one definition with verification.
func Sign(secret string, req domain.ProviderBalanceRequest) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(Canonicalize(req)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the signature and compares in constant time.
// A missing secret is a configuration failure, never a skipped check.
func (a *Authenticator) VerifySignature(req domain.ProviderBalanceRequest) error {
	if a.secret == "" {
		return domain.ErrSecretUnconfigured
	}

	expected := Sign(a.secret, req)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(req.Signature))) {
		return domain.ErrInvalidSignature
	}
	return nil
}

// VerifyTimestamp accepts unix-seconds timestamps within the configured
// window of now, in either direction.
func (a *Authenticator) VerifyTimestamp(timestamp string) error {
	seconds, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return domain.ErrStaleTimestamp
	}

	drift := a.now().Sub(time.Unix(seconds, 0))
	if drift < 0 {
		drift = -drift
	}
	if drift > a.window {
		return domain.ErrStaleTimestamp
	}
	return nil
}

// VerifyIP checks the caller against the allow-list. An empty allow-list
// disables this gate; the signature and timestamp gates still apply.
func (a *Authenticator) VerifyIP(remoteIP string) error {
	if len(a.allowed) == 0 {
		return nil
	}

	ip := net.ParseIP(remoteIP)
	if ip == nil {
		return domain.ErrIPNotAllowed
	}

	for _, network := range a.allowed {
		if network.Contains(ip) {
			return nil
		}
	}
	return domain.ErrIPNotAllowed
}
