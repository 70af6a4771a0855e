package eth

import (
	"context"
	"errors"

	"github.com/AlexNa-Holdings/memestake/bus"
)

func (s *Server) signTypedDataV4(ctx context.Context, msg *bus.Message) ([]byte, error) {
	req, ok := msg.Data.(*bus.B_EthSignTypedData_v4)
	if !ok {
		return nil, bus.ErrInvalidMessageData
	}

	res := s.bus.Fetch(ctx, "signer", "sign-typed-data-v4", &bus.B_SignerSignTypedData_v4{
		Address:   req.Address,
		TypedData: req.TypedData,
	})
	if res.Error != nil {
		return nil, res.Error
	}

	sig, ok := res.Data.([]byte)
	if !ok || len(sig) != 65 {
		return nil, errors.New("signer returned a malformed signature")
	}
	return sig, nil
}
