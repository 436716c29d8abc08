package enums

import "strings"

type KeyMethod string

const (
	KeyMethodNone   KeyMethod = "NONE"
	KeyMethodAES128 KeyMethod = "AES-128"
)

func ParseKeyMethod(value string) KeyMethod {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "NONE":
		return KeyMethodNone
	default:
		// the only cipher this tool speaks; a missing
		// METHOD attribute is treated the same way
		return KeyMethodAES128
	}
}
