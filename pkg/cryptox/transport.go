package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// ErrTransportDecryption is returned for every ciphertext that cannot be
// opened. Callers treat it exactly like a failed login.
var ErrTransportDecryption = errors.New("cryptox: transport decryption failed")

// TransportDelimiter separates the hex IV from the hex cipher output.
const TransportDelimiter = ":"

// KDFParams pins the key derivation used by the transport codec. Both ends
// must agree on every field, so a parameter set is never edited in place:
// add a new version and pass the old one as a fallback while clients move.
type KDFParams struct {
	Version    string
	Salt       []byte
	Iterations int
	KeyLen     int
}

// TransportParamsV1 is the current transport contract.
var TransportParamsV1 = KDFParams{
	Version:    "v1",
	Salt:       []byte("gatehouse/transport/v1"),
	Iterations: 100_000,
	KeyLen:     32,
}

func (p KDFParams) validate() error {
	if len(p.Salt) == 0 {
		return fmt.Errorf("cryptox: kdf %s: empty salt", p.Version)
	}
	if p.Iterations <= 0 {
		return fmt.Errorf("cryptox: kdf %s: iterations must be positive", p.Version)
	}
	switch p.KeyLen {
	case 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("cryptox: kdf %s: key length %d is not an AES key size", p.Version, p.KeyLen)
	}
}

// TransportCodec encrypts credentials for the hop between the client and the
// login endpoint with AES-GCM. Ciphertexts look like hex(iv):hex(sealed).
type TransportCodec struct {
	// aeads[0] encrypts; all of them are tried on decrypt.
	aeads []cipher.AEAD
}

// NewTransportCodec derives the codec key from secret with PBKDF2-SHA256.
// Ciphertexts are always produced with current; previous parameter sets are
// only used to open ciphertexts minted before a contract change.
func NewTransportCodec(secret string, current KDFParams, previous ...KDFParams) (*TransportCodec, error) {
	if secret == "" {
		return nil, errors.New("cryptox: transport secret is empty")
	}

	c := &TransportCodec{}
	for _, p := range append([]KDFParams{current}, previous...) {
		if err := p.validate(); err != nil {
			return nil, err
		}

		key := pbkdf2.Key([]byte(secret), p.Salt, p.Iterations, p.KeyLen, sha256.New)
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("cryptox: create cipher: %w", err)
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("cryptox: create GCM: %w", err)
		}
		c.aeads = append(c.aeads, gcm)
	}
	return c, nil
}

// Encrypt seals plaintext under a fresh random IV.
func (c *TransportCodec) Encrypt(plaintext string) (string, error) {
	aead := c.aeads[0]

	iv := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("cryptox: generate iv: %w", err)
	}

	sealed := aead.Seal(nil, iv, []byte(plaintext), nil)
	return hex.EncodeToString(iv) + TransportDelimiter + hex.EncodeToString(sealed), nil
}

// Decrypt opens a ciphertext produced by Encrypt. Any structural problem or
// authentication failure yields ErrTransportDecryption; the input is never
// handed back as if it were plaintext.
func (c *TransportCodec) Decrypt(ciphertext string) (string, error) {
	parts := strings.Split(ciphertext, TransportDelimiter)
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: expected 2 segments, got %d", ErrTransportDecryption, len(parts))
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: iv is not hex", ErrTransportDecryption)
	}
	sealed, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: payload is not hex", ErrTransportDecryption)
	}

	for _, aead := range c.aeads {
		if len(iv) != aead.NonceSize() || len(sealed) < aead.Overhead() {
			continue
		}
		if plain, err := aead.Open(nil, iv, sealed, nil); err == nil {
			return string(plain), nil
		}
	}
	return "", fmt.Errorf("%w: authentication failed", ErrTransportDecryption)
}
