package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id参数，修改后旧哈希仍可验证（参数编码在哈希串里）
const (
	argonTime    uint32 = 2
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16
)

var (
	ErrMalformedHash      = errors.New("密码哈希格式错误")
	ErrUnsupportedVariant = errors.New("不支持的哈希算法变体")
)

// HashPassword 生成Argon2id密码哈希，格式:
// $argon2id$v=19$m=65536,t=2,p=4$<salt>$<hash>
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("生成盐失败: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// VerifyPassword 按哈希串内编码的参数重算并恒定时间比较
func VerifyPassword(password, encoded string) (bool, error) {
	salt, key, time, memory, threads, err := parseArgonHash(encoded)
	if err != nil {
		return false, err
	}

	probe := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, probe) == 1, nil
}

func parseArgonHash(encoded string) (salt, key []byte, time, memory uint32, threads uint8, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, nil, 0, 0, 0, ErrMalformedHash
	}
	if parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, ErrUnsupportedVariant
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, 0, 0, 0, ErrMalformedHash
	}
	if version != argon2.Version {
		return nil, nil, 0, 0, 0, fmt.Errorf("argon2版本不兼容: %d", version)
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, nil, 0, 0, 0, ErrMalformedHash
	}

	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, nil, 0, 0, 0, ErrMalformedHash
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, nil, 0, 0, 0, ErrMalformedHash
	}
	return salt, key, time, memory, threads, nil
}

// GenerateSessionID 生成32字符的URL安全会话ID
func GenerateSessionID() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}
