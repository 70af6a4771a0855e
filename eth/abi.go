package eth

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

//go:embed ABI/ERC20.json
var ERC20_ABI_JSON []byte
var ERC20 = MustABI(string(ERC20_ABI_JSON))

// MustABI parses an ABI JSON document, panicking on malformed input.
// It is meant for package level ABIs only.
func MustABI(s string) abi.ABI {
	var a abi.ABI
	if err := json.Unmarshal([]byte(s), &a); err != nil {
		panic(fmt.Sprintf("bad ABI: %v", err))
	}
	return a
}

// Fragment parses an inline ABI fragment. Panics like MustABI.
func Fragment(s string) abi.ABI {
	a, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("bad ABI fragment: %v", err))
	}
	return a
}

func UnpackUint256(a abi.ABI, method string, data []byte) (*big.Int, error) {
	out, err := a.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected result type %T", method, out[0])
	}
	return v, nil
}

func UnpackAddress(a abi.ABI, method string, data []byte) (common.Address, error) {
	out, err := a.Unpack(method, data)
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", method, err)
	}
	if len(out) == 0 {
		return common.Address{}, fmt.Errorf("%s: empty result", method)
	}
	v, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s: unexpected result type %T", method, out[0])
	}
	return v, nil
}

func UnpackString(a abi.ABI, method string, data []byte) (string, error) {
	out, err := a.Unpack(method, data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", method, err)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("%s: empty result", method)
	}
	v, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("%s: unexpected result type %T", method, out[0])
	}
	return v, nil
}

// ApproveCall grants spender exactly amount of token.
func ApproveCall(token, spender common.Address, amount *big.Int) (Call, error) {
	data, err := ERC20.Pack("approve", spender, amount)
	if err != nil {
		return Call{}, err
	}
	return Call{To: token, Data: data, Method: "approve"}, nil
}
