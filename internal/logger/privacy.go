package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

var hashSalt = loadSalt()

func loadSalt() string {
	if s := os.Getenv("LOG_HASH_SALT"); s != "" {
		return s
	}
	return "famcoin-default-salt"
}

// InitHashSaltForTesting pins the salt so hashes are stable in tests.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}

func hash(value string) string {
	sum := sha256.Sum256([]byte(value + ":" + hashSalt))
	return hex.EncodeToString(sum[:])[:8]
}

// HashMemberID hides a member id in logs while keeping it correlatable.
func HashMemberID(memberID string) string {
	return hash("member:" + memberID)
}

// HashUserID hides a Telegram user id in logs.
func HashUserID(userID int64) string {
	return hash(fmt.Sprintf("user:%d", userID))
}

// SanitizeText redacts free text such as item names and denial reasons,
// keeping a short prefix and the length for debugging.
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)
	switch {
	case n == 0:
		return "<empty>"
	case n <= 10:
		return fmt.Sprintf("<%d chars>", n)
	}
	runes := []rune(text)
	return fmt.Sprintf("%s...<%d chars>", string(runes[:3]), n)
}
