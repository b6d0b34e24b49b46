package crypto

import (
	"crypto/rand"
	"math/big"
)

const (
	tokenChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// ShareTokenPrefix marks share tokens so they are recognisable in URLs and logs.
	ShareTokenPrefix = "share_"

	// ShareTokenLength is the number of random characters after the prefix.
	// 24 characters from a 62-symbol alphabet carry about 142 bits.
	ShareTokenLength = 24
)

// GenerateShareToken returns a fresh unguessable share token.
func GenerateShareToken() (string, error) {
	body, err := randomString(tokenChars, ShareTokenLength)
	if err != nil {
		return "", err
	}
	return ShareTokenPrefix + body, nil
}

// randomString builds a string of n characters drawn uniformly from charset.
func randomString(charset string, n int) (string, error) {
	result := make([]byte, n)
	for i := range result {
		ch, err := randChar(charset)
		if err != nil {
			return "", err
		}
		result[i] = ch
	}
	return string(result), nil
}

// randChar picks a random character from charset using crypto/rand.
func randChar(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, err
	}
	return charset[n.Int64()], nil
}
