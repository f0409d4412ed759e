package events

import (
	"testing"
	"time"

	"github.com/globalfoundation/gnf/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusDelivers(t *testing.T) {
	bus := NewEventBus()
	id, ch := bus.Subscribe()
	assert.True(t, bus.HasSubscriber(id))
	assert.Equal(t, 1, bus.GetTotalSubscriptions())

	bus.Publish(NewExtrinsicApplied("tx-1", 7, common.Hash{1}, 0, ""))

	select {
	case ev := <-ch:
		require.Equal(t, EventExtrinsicApplied, ev.Type())
		applied := ev.(*ExtrinsicApplied)
		assert.Equal(t, "tx-1", applied.TxHash())
		assert.Equal(t, uint64(7), applied.BlockNumber())
		assert.True(t, applied.Succeeded())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	assert.True(t, bus.Unsubscribe(id))
	assert.False(t, bus.Unsubscribe(id))
	assert.Zero(t, bus.GetTotalSubscriptions())
	_, open := <-ch
	assert.False(t, open)
}

func TestPublishSkipsFullSubscriber(t *testing.T) {
	bus := NewEventBus()
	id, ch := bus.Subscribe()
	for i := 0; i < cap(ch)+10; i++ {
		bus.Publish(NewExtrinsicRejected("tx", "stale"))
	}
	assert.Len(t, ch, cap(ch))
	assert.Equal(t, uint64(10), bus.Dropped(id))
}

func TestSubscribeBuffered(t *testing.T) {
	bus := NewEventBus()
	id, ch := bus.SubscribeBuffered(subscriberBuffer * 3)
	assert.Equal(t, subscriberBuffer*3, cap(ch))
	for i := 0; i < cap(ch); i++ {
		bus.Publish(NewExtrinsicRejected("tx", "stale"))
	}
	assert.Zero(t, bus.Dropped(id))

	_, small := bus.SubscribeBuffered(0)
	assert.Equal(t, subscriberBuffer, cap(small))
}

func TestSubscribeFiltersByType(t *testing.T) {
	bus := NewEventBus()
	_, blocks := bus.Subscribe(EventBlockImported)
	_, all := bus.Subscribe()

	bus.Publish(NewExtrinsicRejected("tx", "stale"))
	bus.Publish(NewBlockImported(1, common.Hash{1}, common.Address{}, false, uint256.NewInt(1), uint256.NewInt(0)))

	require.Len(t, blocks, 1)
	assert.Equal(t, EventBlockImported, (<-blocks).Type())
	assert.Len(t, all, 2)
}

func TestBlockImported(t *testing.T) {
	author := common.BytesToAddress([]byte{0xaa})
	ev := NewBlockImported(3, common.Hash{2}, author, true, uint256.NewInt(230), uint256.NewInt(870))

	assert.Equal(t, EventBlockImported, ev.Type())
	assert.Empty(t, ev.TxHash())
	got, ok := ev.Author()
	assert.True(t, ok)
	assert.Equal(t, author, got)
	assert.Equal(t, uint64(230), ev.TreasuryShare().Uint64())
	assert.Equal(t, uint64(870), ev.AuthorShare().Uint64())
}
