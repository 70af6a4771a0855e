package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// HTTPProvider is a client for an embedded wallet service that logs users
// in by email code and signs on their behalf.
type HTTPProvider struct {
	baseURL    string
	httpClient *http.Client
}

// ProviderOption configures an HTTPProvider
type ProviderOption func(*HTTPProvider)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *HTTPProvider) {
		p.httpClient = c
	}
}

func NewHTTPProvider(baseURL string, opts ...ProviderOption) *HTTPProvider {
	p := &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProviderError is an error response of the wallet service.
type ProviderError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Short   string `json:"short_message"`
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *ProviderError) ShortMessage() string { return e.Short }

type verifyResponse struct {
	Token   string         `json:"token"`
	Address common.Address `json:"address"`
}

func (p *HTTPProvider) SendCode(ctx context.Context, email string) error {
	return p.post(ctx, "/auth/email/code", "", map[string]string{"email": email}, nil)
}

func (p *HTTPProvider) VerifyCode(ctx context.Context, email, code string) (Account, error) {
	var resp verifyResponse
	err := p.post(ctx, "/auth/email/verify", "", map[string]string{"email": email, "code": code}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.Address == (common.Address{}) {
		return nil, fmt.Errorf("wallet service returned an incomplete session")
	}
	return &remoteAccount{provider: p, token: resp.Token, address: resp.Address}, nil
}

func (p *HTTPProvider) signTx(ctx context.Context, token string, chainID *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, err
	}

	var resp struct {
		Signed string `json:"signed"`
	}
	err = p.post(ctx, "/wallet/sign-transaction", token, map[string]string{
		"chain_id": chainID.String(),
		"tx":       hexutil.Encode(raw),
	}, &resp)
	if err != nil {
		return nil, err
	}

	signedRaw, err := hexutil.Decode(resp.Signed)
	if err != nil {
		return nil, fmt.Errorf("decoding signed transaction: %w", err)
	}
	signed := new(types.Transaction)
	if err := signed.UnmarshalBinary(signedRaw); err != nil {
		return nil, fmt.Errorf("decoding signed transaction: %w", err)
	}
	if signed.Hash() == tx.Hash() {
		return nil, fmt.Errorf("wallet service returned an unsigned transaction")
	}
	return signed, nil
}

func (p *HTTPProvider) signTypedData(ctx context.Context, token string, td apitypes.TypedData) ([]byte, error) {
	var resp struct {
		Signature string `json:"signature"`
	}
	err := p.post(ctx, "/wallet/sign-typed-data", token, map[string]interface{}{"typed_data": td}, &resp)
	if err != nil {
		return nil, err
	}
	sig, err := hexutil.Decode(resp.Signature)
	if err != nil {
		return nil, fmt.Errorf("decoding signature: %w", err)
	}
	if len(sig) != 65 {
		return nil, fmt.Errorf("signature has %d bytes", len(sig))
	}
	return sig, nil
}

func (p *HTTPProvider) post(ctx context.Context, path, token string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var wrapped struct {
			Error ProviderError `json:"error"`
		}
		if json.Unmarshal(respBody, &wrapped) != nil || wrapped.Error.Message == "" {
			wrapped.Error.Message = strings.TrimSpace(string(respBody))
			if wrapped.Error.Message == "" {
				wrapped.Error.Message = resp.Status
			}
		}
		wrapped.Error.Status = resp.StatusCode
		return &wrapped.Error
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

type remoteAccount struct {
	provider *HTTPProvider
	token    string
	address  common.Address
}

func (a *remoteAccount) Address() common.Address { return a.address }

func (a *remoteAccount) SignTx(ctx context.Context, chainID *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	return a.provider.signTx(ctx, a.token, chainID, tx)
}

func (a *remoteAccount) SignTypedData(ctx context.Context, td apitypes.TypedData) ([]byte, error) {
	return a.provider.signTypedData(ctx, a.token, td)
}
