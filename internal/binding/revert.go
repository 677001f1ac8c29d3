package binding

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/Mohsinsiddi/w3bind/internal/codec"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	errorStringSelector = []byte{0x08, 0xc3, 0x79, 0xa0} // Error(string)
	panicSelector       = []byte{0x4e, 0x48, 0x7b, 0x71} // Panic(uint256)

	stringParams = []abi.Param{{Type: abi.MustNewType("string")}}
	uint256Param = []abi.Param{{Type: abi.MustNewType("uint256")}}
)

// Solidity panic codes.
var panicReasons = map[uint64]string{
	0x00: "generic panic",
	0x01: "assert(false)",
	0x11: "arithmetic underflow or overflow",
	0x12: "division or modulo by zero",
	0x21: "enum overflow",
	0x22: "invalid encoded storage byte array accessed",
	0x31: "out-of-bounds array access; popping on an empty array",
	0x32: "out-of-bounds access of an array or bytesN",
	0x41: "out of memory",
	0x51: "uninitialized function",
}

// RevertError describes a call the target contract rejected.
type RevertError struct {
	Reason    string     // Error(string) message, panic description or node message
	Data      []byte     // raw revert data, if the node returned any
	PanicCode *big.Int   // set for Panic(uint256)
	Custom    *abi.Entry // custom error declared in the ABI, if recognised
	Args      []any      // decoded arguments of Custom
}

func (e *RevertError) Error() string {
	switch {
	case e.Custom != nil:
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			parts[i] = codec.Format(a)
		}
		return fmt.Sprintf("execution reverted: %s(%s)", e.Custom.Name, strings.Join(parts, ", "))
	case e.Reason != "":
		return "execution reverted: " + e.Reason
	}
	return "execution reverted"
}

// Selector returns the first four bytes of the revert data.
func (e *RevertError) Selector() ([4]byte, bool) {
	var sel [4]byte
	if len(e.Data) < 4 {
		return sel, false
	}
	copy(sel[:], e.Data[:4])
	return sel, true
}

// DecodeRevert interprets revert data against the standard Error(string) and
// Panic(uint256) forms and the custom errors declared in contractABI.
func DecodeRevert(contractABI *abi.ABI, data []byte) *RevertError {
	re := &RevertError{Data: data}
	if len(data) < 4 {
		return re
	}
	sel, body := data[:4], data[4:]

	switch {
	case bytes.Equal(sel, errorStringSelector):
		if vals, err := codec.DecodeArgs(stringParams, body); err == nil {
			re.Reason = vals[0].(string)
			return re
		}
	case bytes.Equal(sel, panicSelector):
		if vals, err := codec.DecodeArgs(uint256Param, body); err == nil {
			code := vals[0].(*big.Int)
			re.PanicCode = code
			re.Reason = fmt.Sprintf("panic 0x%x", code)
			if code.IsUint64() {
				if desc, ok := panicReasons[code.Uint64()]; ok {
					re.Reason += " (" + desc + ")"
				}
			}
			return re
		}
	}

	if contractABI != nil {
		var s [4]byte
		copy(s[:], sel)
		if entry, ok := contractABI.ErrorBySelector(s); ok {
			if args, err := codec.DecodeArgs(entry.Inputs, body); err == nil {
				re.Custom = &entry
				re.Args = args
				return re
			}
		}
	}
	re.Reason = "unrecognised revert data " + hexutil.Encode(data)
	return re
}

// revertFromError recognises a node error that means the call reverted. Such
// errors carry the revert data (rpc.DataError), use JSON-RPC code 3, or say
// "execution reverted".
func revertFromError(contractABI *abi.ABI, err error) (*RevertError, bool) {
	if err == nil {
		return nil, false
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if raw, ok := dataErr.ErrorData().(string); ok {
			if data, decErr := hexutil.Decode(raw); decErr == nil && len(data) > 0 {
				return DecodeRevert(contractABI, data), true
			}
		}
	}

	var codeErr rpc.Error
	isRevert := errors.As(err, &codeErr) && codeErr.ErrorCode() == 3
	msg := err.Error()
	if !isRevert && !strings.Contains(strings.ToLower(msg), "execution reverted") {
		return nil, false
	}
	return &RevertError{Reason: revertReason(msg)}, true
}

// revertReason pulls the human readable part out of a node message such as
// "execution reverted: Pausable: paused".
func revertReason(msg string) string {
	if idx := strings.Index(msg, "execution reverted:"); idx >= 0 {
		return strings.TrimSpace(msg[idx+len("execution reverted:"):])
	}
	return ""
}
