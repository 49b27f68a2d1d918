// Package codec seals short text values (note bodies, stored passwords,
// one-time codes) into self-contained strings that can be stored in a
// plain text column, keyed by the owning account's identifier.
//
// The key material is the account id, so anyone holding both the id and a
// sealed value can open it unless a deployment-wide pepper is configured.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

var (
	// ErrEmptyKey is returned when no key material is supplied.
	ErrEmptyKey = errors.New("codec: empty key material")
	// ErrMalformed is returned for input that is not a sealed value.
	ErrMalformed = errors.New("codec: malformed ciphertext")
	// ErrDecrypt is returned when a sealed value cannot be opened with the
	// given key, either because the key is wrong or the value is damaged.
	ErrDecrypt = errors.New("codec: decryption failed")
)

// Format names a ciphertext layout.
type Format string

const (
	// FormatV2 is AES-256-GCM with an HKDF-SHA256 derived key.
	FormatV2 Format = "v2"
	// FormatLegacy is the OpenSSL "Salted__" passphrase format written by
	// the browser client (AES-256-CBC, EVP_BytesToKey with MD5).
	FormatLegacy Format = "legacy"
)

const (
	v2Prefix = "v2."
	saltSize = 16
	keySize  = 32
	hkdfInfo = "my-notes/codec/v2"
)

// ParseFormat maps a configuration string to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatV2:
		return FormatV2, nil
	case FormatLegacy:
		return FormatLegacy, nil
	default:
		return "", fmt.Errorf("unknown codec format %q", s)
	}
}

// Codec seals and unseals values. The zero value is not usable; build one
// with New. A Codec is safe for concurrent use.
type Codec struct {
	pepper []byte
	format Format
	rand   io.Reader
}

// Option configures a Codec.
type Option func(*Codec)

// WithPepper mixes a deployment-wide secret into every v2 key. Values
// sealed with one pepper do not open under another.
func WithPepper(pepper []byte) Option {
	return func(c *Codec) {
		c.pepper = append([]byte(nil), pepper...)
	}
}

// WithFormat selects the format Seal writes. Unseal always reads both.
func WithFormat(f Format) Option {
	return func(c *Codec) {
		c.format = f
	}
}

// New returns a Codec writing FormatV2 with no pepper unless configured
// otherwise.
func New(opts ...Option) *Codec {
	c := &Codec{format: FormatV2, rand: rand.Reader}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Format reports the format Seal writes.
func (c *Codec) Format() Format {
	return c.format
}

// Seal encrypts plaintext under keyMaterial. Every call uses a fresh salt,
// so sealing the same value twice gives different strings. The empty
// string seals to a non-empty value.
func (c *Codec) Seal(plaintext, keyMaterial string) (string, error) {
	if keyMaterial == "" {
		return "", ErrEmptyKey
	}
	if c.format == FormatLegacy {
		return sealLegacy(c.rand, plaintext, keyMaterial)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(c.rand, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	aead, err := c.aead(keyMaterial, salt)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	// salt || nonce || ciphertext+tag
	out := make([]byte, 0, saltSize+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, []byte(plaintext), nil)

	return v2Prefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Unseal reverses Seal. It returns ErrMalformed for input that is not a
// sealed value and ErrDecrypt when keyMaterial does not open it; it never
// returns garbage plaintext.
func (c *Codec) Unseal(ciphertext, keyMaterial string) (string, error) {
	if keyMaterial == "" {
		return "", ErrEmptyKey
	}

	switch {
	case strings.HasPrefix(ciphertext, v2Prefix):
		return c.unsealV2(strings.TrimPrefix(ciphertext, v2Prefix), keyMaterial)
	case strings.HasPrefix(ciphertext, legacyPrefix):
		return openLegacy(ciphertext, keyMaterial)
	default:
		return "", ErrMalformed
	}
}

func (c *Codec) unsealV2(encoded, keyMaterial string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrMalformed
	}
	if len(raw) < saltSize {
		return "", ErrMalformed
	}

	aead, err := c.aead(keyMaterial, raw[:saltSize])
	if err != nil {
		return "", err
	}
	rest := raw[saltSize:]
	if len(rest) < aead.NonceSize()+aead.Overhead() {
		return "", ErrMalformed
	}

	nonce, sealed := rest[:aead.NonceSize()], rest[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

// aead derives the per-value key from pepper||keyMaterial and salt.
func (c *Codec) aead(keyMaterial string, salt []byte) (cipher.AEAD, error) {
	ikm := make([]byte, 0, len(c.pepper)+len(keyMaterial))
	ikm = append(ikm, c.pepper...)
	ikm = append(ikm, keyMaterial...)

	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, salt, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create AEAD: %w", err)
	}
	return aead, nil
}
