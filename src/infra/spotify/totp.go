package spotify

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TransformSecret reverses the obfuscation the client bundle applies to the
// raw secret array: a per-index XOR cipher. The transform is its own inverse.
func TransformSecret(raw []byte) []byte {
	transformed := make([]byte, len(raw))
	for i, b := range raw {
		transformed[i] = b ^ byte((i%33)+9)
	}
	return transformed
}

// KeyMaterial re-encodes the transformed secret the way the token endpoint
// expects: each byte as its decimal string, joined, then the UTF-8 bytes of
// that string hex-encoded.
func KeyMaterial(transformed []byte) string {
	var joined strings.Builder
	for _, b := range transformed {
		joined.WriteString(strconv.Itoa(int(int8(b))))
	}
	return hex.EncodeToString([]byte(joined.String()))
}

// GenerateTOTP computes the current time-based one-time code for the
// hex-encoded key.
func GenerateTOTP(hexKey string, period, digits int) (string, error) {
	return GenerateTOTPAt(hexKey, time.Now(), period, digits)
}

// GenerateTOTPAt computes the code for a specific instant: the Unix time
// divided by the period, packed as an 8-byte big-endian counter, HMAC-SHA1
// signed, dynamically truncated, masked to 31 bits and reduced mod 10^digits.
func GenerateTOTPAt(hexKey string, at time.Time, period, digits int) (string, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return "", fmt.Errorf("invalid totp key material: %w", err)
	}
	counter := uint64(at.Unix() / int64(period))
	var counterBytes [8]byte
	binary.BigEndian.PutUint64(counterBytes[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(counterBytes[:])
	hash := mac.Sum(nil)

	offset := hash[len(hash)-1] & 0x0F
	binaryCode := (uint32(hash[offset]&0x7F) << 24) |
		(uint32(hash[offset+1]) << 16) |
		(uint32(hash[offset+2]) << 8) |
		uint32(hash[offset+3])
	otp := binaryCode % uint32(math.Pow10(digits))
	return fmt.Sprintf("%0*d", digits, otp), nil
}
