package ui

import (
	"context"
	"math/big"
	"testing"

	"github.com/AlexNa-Holdings/memestake/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest(t *testing.T) {
	assert.Equal(t, "earn", suggest("ernn"))
	assert.Equal(t, "stake", suggest("stak"))
	assert.Equal(t, "", suggest("xyzzyplugh"))
}

func TestCommandBar(t *testing.T) {
	h := newHarness(t, true)
	h.init(t)

	h.press(t, ":", "earn", "enter")
	assert.Equal(t, pageEarn, h.m.page)
	assert.Nil(t, h.m.bar)

	h.press(t, ":", "ernn", "enter")
	assert.True(t, h.m.statusErr)
	assert.Equal(t, `unknown command "ernn", did you mean "earn"?`, h.m.status)

	h.press(t, ":", "theme light", "enter")
	assert.False(t, h.m.statusErr)
	assert.Equal(t, "theme light", h.m.status)

	h.press(t, ":", "theme neon", "enter")
	assert.True(t, h.m.statusErr)

	h.press(t, ":", "sim", "esc")
	assert.Nil(t, h.m.bar)
	assert.Equal(t, pageEarn, h.m.page, "esc discards the command")
}

func TestConfirmModal(t *testing.T) {
	h := newHarness(t, true)
	b := bus.New()
	t.Cleanup(b.Close)
	h.m.deps.Bus = b
	h.m.busCh = b.Subscribe("ui", "wallet")
	t.Cleanup(h.m.Close)

	result := make(chan *bus.Message, 1)
	go func() {
		result <- b.Fetch(context.Background(), "ui", "confirm-tx", &bus.B_ConfirmTx{
			Action:  "Stake",
			From:    user,
			To:      stakingVault,
			Method:  "deposit",
			Amount:  e18("10"),
			Gas:     90000,
			MaxFee:  big.NewInt(2_000_000_000),
			ChainID: big.NewInt(1),
		})
	}()

	msgs := exec(h.m.listen())
	require.Len(t, msgs, 1)
	h.m.Update(msgs[0])
	require.NotNil(t, h.m.confirm)

	view := h.m.View()
	assert.Contains(t, view, "Confirm transaction")
	assert.Contains(t, view, "deposit")
	assert.Contains(t, view, "2.00 gwei")

	h.m.Update(keyMsg("y"))
	assert.Nil(t, h.m.confirm)

	resp := <-result
	require.NoError(t, resp.Error)
	assert.Equal(t, true, resp.Data)
}
