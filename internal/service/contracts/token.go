package contracts

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes длина токена в байтах (64 hex-символа)
const tokenBytes = 32

// HexTokenGenerator генератор непредсказуемых токенов на crypto/rand
type HexTokenGenerator struct{}

// Generate возвращает криптографически случайный hex-токен
func (g *HexTokenGenerator) Generate() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
