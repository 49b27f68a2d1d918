package codec

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"io"
	"unicode/utf8"
)

const (
	legacyMagic = "Salted__"
	// base64 of legacyMagic; every legacy value starts with it.
	legacyPrefix   = "U2FsdGVkX1"
	legacySaltSize = 8
)

func sealLegacy(rnd io.Reader, plaintext, passphrase string) (string, error) {
	salt := make([]byte, legacySaltSize)
	if _, err := io.ReadFull(rnd, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key, iv := evpBytesToKey([]byte(passphrase), salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(legacyMagic)+legacySaltSize+len(padded))
	copy(out, legacyMagic)
	copy(out[len(legacyMagic):], salt)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[len(legacyMagic)+legacySaltSize:], padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

func openLegacy(encoded, passphrase string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrMalformed
	}
	header := len(legacyMagic) + legacySaltSize
	if len(raw) < header+aes.BlockSize || (len(raw)-header)%aes.BlockSize != 0 {
		return "", ErrMalformed
	}
	if !bytes.Equal(raw[:len(legacyMagic)], []byte(legacyMagic)) {
		return "", ErrMalformed
	}

	key, iv := evpBytesToKey([]byte(passphrase), raw[len(legacyMagic):header])
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	plain := make([]byte, len(raw)-header)
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, raw[header:])

	// CBC has no authentication; a wrong key shows up as bad padding or,
	// rarely, as bytes that are not text.
	plain, ok := pkcs7Unpad(plain, aes.BlockSize)
	if !ok || !utf8.Valid(plain) {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

// evpBytesToKey is OpenSSL's EVP_BytesToKey with MD5 and one iteration,
// producing an AES-256 key and a CBC IV.
func evpBytesToKey(passphrase, salt []byte) (key, iv []byte) {
	const need = keySize + aes.BlockSize

	var out, prev []byte
	for len(out) < need {
		h := md5.New()
		h.Write(prev)
		h.Write(passphrase)
		h.Write(salt)
		prev = h.Sum(nil)
		out = append(out, prev...)
	}
	return out[:keySize], out[keySize:need]
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	return append(append([]byte(nil), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, bool) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize {
		return nil, false
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}
