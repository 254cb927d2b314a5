// Package privacy masks personal data before it reaches logs.
package privacy

import (
	"fmt"
	"net"
)

// AnonymizeIP keeps only the network portion of an address: the /24 for IPv4
// and the /48 for IPv6. It returns "unknown" for empty input and "invalid"
// for anything that does not parse.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}

	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}

	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(email string) string {
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			if i == 0 {
				return "***" + email[i:]
			}
			return email[:1] + "***" + email[i:]
		}
	}
	if email == "" {
		return ""
	}
	return "***"
}
