package util

import (
	"fmt"
	"net/http"
	"os"

	"github.com/aki237/nscjar"
	"github.com/bytedance/sonic"
)

// loads custom HTTP headers from a JSON object file
func LoadHeaders(fileName string) (map[string]string, error) {
	if fileName == "" {
		return nil, nil
	}
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to read headers file: %w", err)
	}
	var headers map[string]string
	if err := sonic.ConfigFastest.Unmarshal(data, &headers); err != nil {
		return nil, fmt.Errorf("failed to parse headers file: %w", err)
	}
	return headers, nil
}

// parses a netscape cookie file
func ParseCookieFile(fileName string) ([]*http.Cookie, error) {
	if fileName == "" {
		return nil, nil
	}
	cookieFile, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to open cookie file: %w", err)
	}
	defer cookieFile.Close()

	var parser nscjar.Parser
	cookies, err := parser.Unmarshal(cookieFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cookie file: %w", err)
	}
	return cookies, nil
}
