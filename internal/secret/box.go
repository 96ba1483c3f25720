package secret

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Prefix 加密字段的存储前缀
const Prefix = "enc:"

const hkdfInfo = "carrierpay/settings/v1"

var (
	ErrKeyMissing   = errors.New("secret key missing")
	ErrCipherBroken = errors.New("secret cipher text invalid")
)

// Box 对配置中的敏感字段加解密
type Box struct {
	aead cipher.AEAD
}

// NewBox 由 security.secret_key 派生 XChaCha20-Poly1305 密钥
func NewBox(secretKey string) (*Box, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, ErrKeyMissing
	}
	key := make([]byte, chacha20poly1305.KeySize)
	reader := hkdf.New(sha256.New, []byte(secretKey), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &Box{aead: aead}, nil
}

// IsSealed 是否为加密存储的值
func IsSealed(value string) bool {
	return strings.HasPrefix(value, Prefix)
}

// Encrypt 加密并返回带前缀的 base64 文本
func (b *Box) Encrypt(plain string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize(), b.aead.NonceSize()+len(plain)+b.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plain), nil)
	return Prefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt 解密带前缀的值；不带前缀的值按明文原样返回
func (b *Box) Decrypt(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, Prefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCipherBroken, err)
	}
	nonceSize := b.aead.NonceSize()
	if len(raw) < nonceSize+b.aead.Overhead() {
		return "", ErrCipherBroken
	}
	plain, err := b.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", ErrCipherBroken
	}
	return string(plain), nil
}
