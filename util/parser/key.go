package parser

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"m3u8dl/enums"
	"m3u8dl/models"
	"m3u8dl/util"

	"go.uber.org/zap"
)

// ResolveKey obtains the raw key and IV for a key directive.
// without an explicit IV the key bytes double as the IV.
func ResolveKey(
	ctx context.Context,
	client models.HTTPClient,
	descriptor *models.KeyDescriptor,
	config *models.DownloadConfig,
) (*models.DecryptionKey, error) {
	config = models.GetDownloadConfig(config)

	var key []byte
	var err error
	if isNetworkURL(descriptor.URI) {
		key, err = fetchContentWithContext(ctx, client, descriptor.URI, config)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", util.ErrKeyFetch, err)
		}
	} else {
		key, err = hex.DecodeString(descriptor.URI)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", util.ErrKeyFormat, err)
		}
	}
	if !util.IsValidAESKey(key) {
		return nil, fmt.Errorf("%w: expected 16 bytes key, got %d", util.ErrKeyFormat, len(key))
	}

	iv := key
	if strings.HasPrefix(strings.ToLower(descriptor.IV), "0x") {
		iv, err = hex.DecodeString(descriptor.IV[2:])
		if err != nil {
			return nil, fmt.Errorf("%w: invalid IV: %v", util.ErrKeyFormat, err)
		}
		if !util.IsValidIV(iv) {
			return nil, fmt.Errorf("%w: expected 16 bytes IV, got %d", util.ErrKeyFormat, len(iv))
		}
	}

	zap.S().Infof("resolved key=%x iv=%x", key, iv)
	return &models.DecryptionKey{
		Key:    key,
		IV:     iv,
		Method: enums.KeyMethodAES128,
	}, nil
}
