package codec

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Format renders a decoded value for display: integers in decimal, addresses
// checksummed, bytes as 0x hex and composites as bracketed lists.
func Format(v any) string {
	return format(v, false)
}

func format(v any, nested bool) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case *big.Int:
		return x.String()
	case common.Address:
		return x.Hex()
	case common.Hash:
		return x.Hex()
	case []byte:
		return hexutil.Encode(x)
	case string:
		if nested {
			return strconv.Quote(x)
		}
		return x
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = format(e, true)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprint(v)
}
