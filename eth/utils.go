package eth

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var ErrRejected = errors.New("rejected by user")
var ErrNoBackend = errors.New("no rpc backend")

// RevertError is a call or gas estimation that the contract rejected.
type RevertError struct {
	Reason string
	Err    error
}

func (e *RevertError) Error() string { return e.Err.Error() }
func (e *RevertError) Unwrap() error { return e.Err }

func (e *RevertError) ShortMessage() string {
	if e.Reason != "" {
		return e.Reason
	}
	return "execution reverted"
}

// wrapRevert turns "execution reverted" rpc errors into a RevertError,
// decoding the Error(string) payload when the node returns one.
func wrapRevert(err error) error {
	if err == nil || !strings.Contains(err.Error(), "execution reverted") {
		return err
	}

	re := &RevertError{Err: err}

	var de rpc.DataError
	if errors.As(err, &de) {
		if s, ok := de.ErrorData().(string); ok {
			if data, derr := hexutil.Decode(s); derr == nil {
				if reason, uerr := abi.UnpackRevert(data); uerr == nil {
					re.Reason = reason
				}
			}
		}
	}

	if re.Reason == "" {
		if _, after, ok := strings.Cut(err.Error(), "execution reverted:"); ok {
			re.Reason = strings.TrimSpace(after)
		}
	}
	return re
}
