package util

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"m3u8dl/models"

	"github.com/pkg/errors"
)

// decrypts a byte slice representing a single segment
// using AES-128-CBC and strips the PKCS#7 trailer
func DecryptSegmentBytes(encryptedData []byte, key []byte, iv []byte) ([]byte, error) {
	if !IsValidAESKey(key) {
		return nil, fmt.Errorf("%w: expected 16 bytes key, got %d", ErrKeyFormat, len(key))
	}
	if !IsValidIV(iv) {
		return nil, fmt.Errorf("%w: expected 16 bytes IV, got %d", ErrKeyFormat, len(iv))
	}
	if len(encryptedData) == 0 {
		return nil, fmt.Errorf("%w: no data to decrypt", ErrPadding)
	}
	if len(encryptedData)%aes.BlockSize != 0 {
		return nil, fmt.Errorf(
			"%w: encrypted data length %d is not a multiple of block size",
			ErrPadding, len(encryptedData),
		)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	mode := cipher.NewCBCDecrypter(block, iv)
	decryptedData := make([]byte, len(encryptedData))
	mode.CryptBlocks(decryptedData, encryptedData)
	unpaddedData, err := removePKCS7Padding(decryptedData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPadding, err)
	}

	return unpaddedData, nil
}

func DecryptWithKey(encryptedData []byte, key *models.DecryptionKey) ([]byte, error) {
	if key == nil {
		return nil, errors.New("decryption key is nil")
	}
	return DecryptSegmentBytes(encryptedData, key.Key, key.IV)
}

// removes PKCS#7 padding from decrypted data
func removePKCS7Padding(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("data is empty")
	}
	paddingLength := int(data[len(data)-1])
	if paddingLength == 0 || paddingLength > aes.BlockSize {
		return nil, fmt.Errorf("invalid padding length: %d", paddingLength)
	}
	if paddingLength > len(data) {
		return nil, fmt.Errorf("padding length (%d) exceeds data length (%d)", paddingLength, len(data))
	}
	for i := len(data) - paddingLength; i < len(data); i++ {
		if data[i] != byte(paddingLength) {
			return nil, fmt.Errorf("invalid padding at position %d", i)
		}
	}
	return data[:len(data)-paddingLength], nil
}

func IsValidAESKey(key []byte) bool {
	return len(key) == 16
}

func IsValidIV(iv []byte) bool {
	return len(iv) == 16
}
