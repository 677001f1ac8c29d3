package chain

import (
	"fmt"
	"math/big"
	"strings"
)

// units in suffix match order: "gwei" before "wei", "ether" before "eth".
var units = []struct {
	suffix   string
	decimals int
}{
	{"gwei", 9},
	{"wei", 0},
	{"ether", 18},
	{"eth", 18},
}

// ParseValue parses an amount such as "1.5eth", "20 gwei" or "1000" (wei)
// into wei. Decimals beyond the unit's precision are rejected rather than
// rounded.
func ParseValue(s string) (*big.Int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	num, decimals := s, 0
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			num, decimals = strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), u.decimals
			break
		}
	}
	if num == "" {
		return nil, fmt.Errorf("invalid value %q", s)
	}
	if strings.HasPrefix(num, "0x") && decimals == 0 {
		hex := num[2:]
		if hex == "" || strings.Trim(hex, "0123456789abcdef") != "" {
			return nil, fmt.Errorf("invalid value %q", s)
		}
		v, ok := new(big.Int).SetString(hex, 16)
		if !ok {
			return nil, fmt.Errorf("invalid value %q", s)
		}
		return v, nil
	}
	return parseDecimal(num, decimals)
}

// parseDecimal scales a non-negative decimal string by 10^decimals.
func parseDecimal(num string, decimals int) (*big.Int, error) {
	whole, frac, _ := strings.Cut(num, ".")
	if len(frac) > decimals {
		return nil, fmt.Errorf("invalid value %q: more than %d decimals", num, decimals)
	}
	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	if digits == "" || strings.ContainsAny(digits, "+-") {
		return nil, fmt.Errorf("invalid value %q", num)
	}
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid value %q", num)
	}
	return v, nil
}

// FormatUnits renders raw with decimals places, trimming trailing zeros.
func FormatUnits(raw *big.Int, decimals int) string {
	if raw == nil {
		return "0"
	}
	if decimals <= 0 {
		return raw.String()
	}
	neg := raw.Sign() < 0
	s := new(big.Int).Abs(raw).String()
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}
	whole, frac := s[:len(s)-decimals], strings.TrimRight(s[len(s)-decimals:], "0")
	if frac != "" {
		whole += "." + frac
	}
	if neg {
		return "-" + whole
	}
	return whole
}

// WeiToETH renders wei as an ETH amount.
func WeiToETH(wei *big.Int) string { return FormatUnits(wei, 18) }

// WeiToGwei renders wei as a gwei amount.
func WeiToGwei(wei *big.Int) string { return FormatUnits(wei, 9) }
