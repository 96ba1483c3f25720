package dimoco

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign 计算 HMAC-SHA256 签名（小写十六进制）
func Sign(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify 校验原始报文的签名，大小写不敏感，常量时间比较
func Verify(body, digest, secret string) bool {
	digest = strings.TrimSpace(digest)
	if digest == "" || secret == "" {
		return false
	}
	provided, err := hex.DecodeString(digest)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hmac.Equal(mac.Sum(nil), provided)
}

// SignParams 对参数签名并在末尾追加 digest 参数
func SignParams(params *Params, secret string) (string, error) {
	payload, err := CanonicalPayload(params)
	if err != nil {
		return "", err
	}
	digest := Sign(payload, secret)
	params.Add(ParamDigest, digest)
	return digest, nil
}
