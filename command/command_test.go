package command

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// answer makes readPassword return the given lines in order.
func answer(t *testing.T, lines ...string) {
	t.Helper()
	prev := readPassword
	readPassword = func(string) (string, error) {
		require.NotEmpty(t, lines, "unexpected prompt")
		l := lines[0]
		lines = lines[1:]
		return l, nil
	}
	t.Cleanup(func() { readPassword = prev })
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd("test")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--data", dir}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd("test")
	for _, path := range [][]string{
		{"wallet", "create"},
		{"wallet", "restore"},
		{"wallet", "list"},
		{"wallet", "addresses"},
		{"login", "email"},
		{"balance"},
		{"stake"},
		{"unstake"},
		{"earn", "deposit"},
		{"earn", "request"},
		{"earn", "complete"},
		{"earn", "status"},
		{"simulate"},
		{"config", "show"},
		{"config", "set"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	for _, f := range []string{"data", "wallet", "rpc", "yes", "verbosity"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(f), f)
	}
	unstake, _, _ := root.Find([]string{"unstake"})
	assert.NotNil(t, unstake.Flags().Lookup("assets"))
	deposit, _, _ := root.Find([]string{"earn", "deposit"})
	assert.NotNil(t, deposit.Flags().Lookup("permit"))
}

func TestWalletLifecycle(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "wallet", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No wallets")

	answer(t, testPhrase, "pw", "pw")
	out, err = run(t, dir, "wallet", "restore", "main")
	require.NoError(t, err)
	assert.Contains(t, out, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94")

	answer(t, "pw", "pw")
	out, err = run(t, dir, "wallet", "create", "spare")
	require.NoError(t, err)
	assert.Contains(t, out, "Created wallet spare")
	assert.Contains(t, out, "Mnemonic:")

	out, err = run(t, dir, "--wallet", "main", "wallet", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "* main")
	assert.Contains(t, out, "  spare")

	answer(t, "pw")
	out, err = run(t, dir, "wallet", "addresses", "main", "--add")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "* main-0")
	assert.Contains(t, lines[1], "m/44'/60'/0'/0/1")

	answer(t, "wrong")
	_, err = run(t, dir, "wallet", "addresses", "main")
	assert.Error(t, err)

	answer(t, testPhrase, "pw", "pw")
	_, err = run(t, dir, "wallet", "restore", "main")
	assert.Error(t, err, "names are unique")
}

func TestWalletPasswordChecks(t *testing.T) {
	dir := t.TempDir()

	answer(t, "one", "two")
	_, err := run(t, dir, "wallet", "create", "main")
	assert.EqualError(t, err, "passwords do not match")

	answer(t, "")
	_, err = run(t, dir, "wallet", "create", "main")
	assert.EqualError(t, err, "password must not be empty")

	answer(t, "not a mnemonic", "pw", "pw")
	_, err = run(t, dir, "wallet", "restore", "main")
	assert.Error(t, err)
}

func TestConfigSetAndShow(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "config", "set", "slippage_bps", "50")
	require.NoError(t, err)
	assert.Equal(t, "slippage_bps = 50\n", out)

	_, err = run(t, dir, "config", "set", "slippage_bps", "20000")
	assert.Error(t, err)

	_, err = run(t, dir, "config", "set", "colour", "red")
	assert.EqualError(t, err, `unknown config key "colour"`)

	out, err = run(t, dir, "--rpc", "http://localhost:8545", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "slippage_bps: 50")
	assert.Contains(t, out, "rpc_url: http://localhost:8545")

	out, err = run(t, dir, "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "localhost", "flags are not saved")
}

func TestConfigSetEveryFileKey(t *testing.T) {
	dir := t.TempDir()
	for _, kv := range [][2]string{
		{"chain_id", "1337"},
		{"receipt_poll", "2s"},
		{"bus_timeout", "10s"},
		{"cache_size", "64"},
		{"contracts.receipt_token", "0x00000000000000000000000000000000000000b1"},
		{"contracts.yield_asset", "0x00000000000000000000000000000000000000b2"},
		{"contracts.yield_share", "0x00000000000000000000000000000000000000b3"},
		{"symbols.receipt", "rM"},
		{"symbols.yield_share", "vrM"},
	} {
		_, err := run(t, dir, "config", "set", kv[0], kv[1])
		require.NoError(t, err, kv[0])
	}

	_, err := run(t, dir, "config", "show")
	require.NoError(t, err)
	c := cmn.Config
	assert.Equal(t, 1337, c.ChainID)
	assert.Equal(t, 2*time.Second, c.ReceiptPoll)
	assert.Equal(t, 10*time.Second, c.BusTimeout)
	assert.Equal(t, 64, c.CacheSize)
	assert.Equal(t, "0x00000000000000000000000000000000000000b1", c.Contracts.ReceiptToken)
	assert.Equal(t, "0x00000000000000000000000000000000000000b2", c.Contracts.YieldAsset)
	assert.Equal(t, "0x00000000000000000000000000000000000000b3", c.Contracts.YieldShare)
	assert.Equal(t, "rM", c.Symbols.Receipt)
	assert.Equal(t, "vrM", c.Symbols.YieldShare)

	_, err = run(t, dir, "config", "set", "contracts.yield_share", "0x12")
	assert.Error(t, err)
	_, err = run(t, dir, "config", "set", "bus_timeout", "soon")
	assert.Error(t, err)
}

func TestParseAmountArg(t *testing.T) {
	v, err := parseAmountArg("1.5")
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", v.String())

	_, err = parseAmountArg("0")
	assert.ErrorIs(t, err, cmn.ErrAmountNotPositive)

	_, err = parseAmountArg("abc")
	assert.Error(t, err)
}
