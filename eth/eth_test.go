package eth

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/AlexNa-Holdings/memestake/bus"
	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu          sync.Mutex
	callResult  []byte
	callErr     error
	balance     *big.Int
	block       uint64
	baseFee     *big.Int
	tip         *big.Int
	estimateErr error
	notFound    int // receipt lookups answered with NotFound first
	status      uint64
	sent        []*types.Transaction
	calls       []ethereum.CallMsg
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		balance: big.NewInt(1000),
		block:   42,
		baseFee: big.NewInt(100),
		tip:     big.NewInt(2),
		status:  types.ReceiptStatusSuccessful,
	}
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) { return big.NewInt(1337), nil }

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msg)
	return f.callResult, f.callErr
}

func (f *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeBackend) BlockNumber(context.Context) (uint64, error) { return f.block, nil }

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: new(big.Int).SetUint64(f.block), BaseFee: f.baseFee}, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) { return 7, nil }

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 21000, f.estimateErr
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) { return big.NewInt(50), nil }
func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) { return f.tip, nil }

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, h common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notFound > 0 {
		f.notFound--
		return nil, ethereum.NotFound
	}
	return &types.Receipt{TxHash: h, Status: f.status, BlockNumber: big.NewInt(43), GasUsed: 21000}, nil
}

// keySigner answers "signer" requests with a fixed key.
func keySigner(t *testing.T, b *bus.Bus, key *ecdsa.PrivateKey) {
	t.Helper()
	ch := b.Subscribe("signer")
	t.Cleanup(func() { b.Unsubscribe(ch) })
	go func() {
		for msg := range ch {
			if msg.RespondTo != 0 {
				continue
			}
			req, ok := msg.Data.(*bus.B_SignerSignTx)
			if !ok {
				msg.Respond(nil, bus.ErrInvalidMessageData)
				continue
			}
			signed, err := types.SignTx(req.Tx, types.LatestSignerForChainID(req.ChainID), key)
			msg.Respond(signed, err)
		}
	}()
}

func setup(t *testing.T, opts Options) (*bus.Bus, *fakeBackend, *BusClient) {
	t.Helper()
	b := bus.New()
	b.Timeout = 5 * time.Second
	t.Cleanup(b.Close)

	fb := newFakeBackend()
	if opts.ChainID == nil {
		opts.ChainID = big.NewInt(1337)
	}
	if opts.ReceiptPoll == 0 {
		opts.ReceiptPoll = 5 * time.Millisecond
	}
	s := NewServer(b, fb, opts)
	s.Init()
	t.Cleanup(s.Stop)

	return b, fb, NewBusClient(b)
}

func TestCallAndReads(t *testing.T) {
	_, fb, c := setup(t, Options{})
	ctx := context.Background()

	fb.callResult = common.LeftPadBytes(big.NewInt(95).Bytes(), 32)
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	out, err := c.Call(ctx, to, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, fb.callResult, out)
	require.Len(t, fb.calls, 1)
	assert.Equal(t, to, *fb.calls[0].To)

	bal, err := c.Balance(ctx, to)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), bal.Int64())

	n, err := c.BlockNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), n)
}

func TestSendAndWait(t *testing.T) {
	b, fb, c := setup(t, Options{})
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	keySigner(t, b, key)
	from := crypto.PubkeyToAddress(key.PublicKey)

	events := b.Subscribe("tx")
	defer b.Unsubscribe(events)

	to := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	hash, err := c.Send(context.Background(), from, Call{To: to, Value: big.NewInt(10), Data: []byte{0xde, 0xad}}, "stake", "run-1")
	require.NoError(t, err)

	require.Len(t, fb.sent, 1)
	tx := fb.sent[0]
	assert.Equal(t, hash, tx.Hash())
	assert.Equal(t, to, *tx.To())
	assert.Equal(t, int64(10), tx.Value().Int64())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, int64(204), tx.GasFeeCap().Int64(), "(base + tip) * 2")
	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(1337)), tx)
	require.NoError(t, err)
	assert.Equal(t, from, sender)

	fb.notFound = 2
	r, err := c.WaitMined(context.Background(), hash, "stake", "run-1")
	require.NoError(t, err)
	assert.True(t, r.Succeeded())
	assert.Equal(t, uint64(43), r.BlockNumber)

	seen := map[string]bool{}
	timeout := time.After(time.Second)
	for !seen["mined"] {
		select {
		case msg := <-events:
			seen[msg.Type] = true
		case <-timeout:
			t.Fatalf("events seen: %v", seen)
		}
	}
	assert.True(t, seen["sent"])
}

func TestRevertedReceipt(t *testing.T) {
	_, fb, c := setup(t, Options{})
	fb.status = types.ReceiptStatusFailed

	r, err := c.WaitMined(context.Background(), common.HexToHash("0x01"), "stake", "")
	require.NoError(t, err)
	assert.False(t, r.Succeeded())
}

func TestLegacyGasWithoutBaseFee(t *testing.T) {
	b, fb, c := setup(t, Options{})
	fb.baseFee = nil
	key, _ := crypto.GenerateKey()
	keySigner(t, b, key)

	_, err := c.Send(context.Background(), crypto.PubkeyToAddress(key.PublicKey), Call{To: common.Address{1}}, "x", "")
	require.NoError(t, err)
	require.Len(t, fb.sent, 1)
	assert.Equal(t, uint8(types.LegacyTxType), fb.sent[0].Type())
	assert.Equal(t, int64(50), fb.sent[0].GasPrice().Int64())
}

func TestConfirmRejected(t *testing.T) {
	b, fb, c := setup(t, Options{Confirm: true})
	key, _ := crypto.GenerateKey()
	keySigner(t, b, key)

	ui := b.Subscribe("ui")
	defer b.Unsubscribe(ui)
	go func() {
		for msg := range ui {
			if msg.Type == "confirm-tx" && msg.RespondTo == 0 {
				msg.Respond(false, nil)
			}
		}
	}()

	_, err := c.Send(context.Background(), crypto.PubkeyToAddress(key.PublicKey), Call{To: common.Address{1}}, "stake", "")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Empty(t, fb.sent)
}

func TestEstimateRevertIsShortened(t *testing.T) {
	b, fb, c := setup(t, Options{})
	key, _ := crypto.GenerateKey()
	keySigner(t, b, key)
	fb.estimateErr = errors.New("execution reverted: insufficient allowance")

	_, err := c.Send(context.Background(), crypto.PubkeyToAddress(key.PublicKey), Call{To: common.Address{1}}, "deposit", "")
	require.Error(t, err)

	var re *RevertError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "insufficient allowance", cmn.ErrorText(err))
	assert.Contains(t, err.Error(), "execution reverted")
}

type dataErr struct {
	msg  string
	data string
}

func (e dataErr) Error() string          { return e.msg }
func (e dataErr) ErrorCode() int         { return 3 }
func (e dataErr) ErrorData() interface{} { return e.data }

func TestWrapRevertDecodesReason(t *testing.T) {
	stringType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: stringType}}.Pack("shares below minimum")
	require.NoError(t, err)
	payload := append([]byte{0x08, 0xc3, 0x79, 0xa0}, packed...)

	err = wrapRevert(dataErr{msg: "execution reverted", data: hexutil.Encode(payload)})
	assert.Equal(t, "shares below minimum", cmn.ErrorText(err))

	plain := errors.New("connection refused")
	assert.Same(t, plain, wrapRevert(plain))
}

func TestLimiterBackoff(t *testing.T) {
	l := newLimiter(4)
	l.onRateLimitError()
	assert.Equal(t, 2, l.currentRate())
	assert.True(t, time.Until(l.backoffUntil) > 0)

	l.onSuccess()
	assert.Equal(t, 2, l.currentRate(), "no increase right after a 429")

	l.lastChange = time.Now().Add(-2 * increaseInterval)
	l.onSuccess()
	assert.Equal(t, 3, l.currentRate())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.wait(ctx))
}

func TestRateLimitErrorDetection(t *testing.T) {
	assert.True(t, isRateLimitError(errors.New("429 Too Many Requests")))
	assert.False(t, isRateLimitError(errors.New("nonce too low")))
	assert.True(t, isGatewayError(errors.New("502 Bad Gateway")))
}
