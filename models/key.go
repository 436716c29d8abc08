package models

import "m3u8dl/enums"

// KeyDescriptor is the raw content of an #EXT-X-KEY directive.
type KeyDescriptor struct {
	Method enums.KeyMethod
	URI    string // inline hex string or key URL
	IV     string // 0x-prefixed hex, empty when absent
}

type DecryptionKey struct {
	Key    []byte          `json:"key"`    // raw key for AES decryption
	IV     []byte          `json:"iv"`     // initialization vector for AES decryption
	Method enums.KeyMethod `json:"method"` // e.g., "AES-128"
}
