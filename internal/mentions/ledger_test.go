package mentions

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/models"
)

func TestLedger_KeepsNewestHundred(t *testing.T) {
	l := New(DefaultCapacity)
	for i := int64(1); i <= 101; i++ {
		l.Push(models.Mention{MsgID: i})
	}

	list := l.List()
	require.Len(t, list, 100)
	assert.Equal(t, int64(2), list[0].MsgID)
	assert.Equal(t, int64(101), list[99].MsgID)
}

func TestLedger_OrderBeforeWrap(t *testing.T) {
	l := New(3)
	l.Push(models.Mention{MsgID: 1})
	l.Push(models.Mention{MsgID: 2})

	assert.Equal(t, []models.Mention{{MsgID: 1}, {MsgID: 2}}, l.List())
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 3, l.Cap())
}

func TestLedger_Remove(t *testing.T) {
	l := New(3)
	for i := int64(1); i <= 4; i++ {
		l.Push(models.Mention{MsgID: i})
	}

	assert.True(t, l.Remove(3))
	assert.False(t, l.Remove(1))
	assert.Equal(t, []models.Mention{{MsgID: 2}, {MsgID: 4}}, l.List())

	l.Push(models.Mention{MsgID: 5})
	l.Push(models.Mention{MsgID: 6})
	assert.Equal(t, []models.Mention{{MsgID: 4}, {MsgID: 5}, {MsgID: 6}}, l.List())
}

func TestLedger_Clear(t *testing.T) {
	l := New(0)
	l.Push(models.Mention{MsgID: 1})
	l.Clear()

	assert.Empty(t, l.List())
	assert.Equal(t, DefaultCapacity, l.Cap())
}

func TestLedger_ConcurrentPush(t *testing.T) {
	l := New(10)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			l.Push(models.Mention{MsgID: id})
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, 10, l.Len())
}
