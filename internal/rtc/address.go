package rtc

import (
	"fmt"
	"strconv"
	"strings"
)

// IPStrToInt packs a dotted IPv4 address the way the card firmware stores
// it: the first octet occupies the least significant byte.
func IPStrToInt(s string) (uint32, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 4 {
		return 0, fmt.Errorf("invalid IPv4 address %q", s)
	}
	var ip uint32
	for i, p := range parts {
		octet, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid IPv4 address %q: octet %d: %w", s, i+1, err)
		}
		ip |= uint32(octet) << (8 * i)
	}
	return ip, nil
}

// IPIntToStr is the inverse of IPStrToInt.
func IPIntToStr(ip uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", ip&0xff, (ip>>8)&0xff, (ip>>16)&0xff, ip>>24)
}
