package utils

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// GenerateSessionID derives a client session identifier from request
// fingerprint data. It rotates every hour.
func GenerateSessionID(input string) string {
	hash := md5.Sum([]byte(input + fmt.Sprintf("%d", time.Now().Unix()/3600)))
	return hex.EncodeToString(hash[:])[:16]
}

func MD5Hash(input string) string {
	hash := md5.Sum([]byte(input))
	return hex.EncodeToString(hash[:])
}

// NormalizeKey lower-cases and trims a free-text query so that inputs the
// backend matches case-insensitively share a cache entry.
func NormalizeKey(input string) string {
	return MD5Hash(strings.ToLower(strings.TrimSpace(input)))
}

// ExactKey only trims. Titles are looked up case-sensitively upstream, so
// "Heat (1995)" and "heat (1995)" must not share a cache entry.
func ExactKey(input string) string {
	return MD5Hash(strings.TrimSpace(input))
}

// GenerateRandomID returns length random hex characters.
func GenerateRandomID(length int) string {
	bytes := make([]byte, (length+1)/2)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)[:length]
}

// ValidateSessionID accepts the 16 hex character IDs GenerateSessionID
// produces.
func ValidateSessionID(sessionID string) bool {
	if len(sessionID) != 16 {
		return false
	}

	_, err := hex.DecodeString(sessionID)
	return err == nil
}
