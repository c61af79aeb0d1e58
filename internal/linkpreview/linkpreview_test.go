package linkpreview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/async"
	"chat-relay/internal/mocks"
	"chat-relay/internal/models"
	"chat-relay/internal/state"
)

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"none", "no links here", nil},
		{"single", "see https://example.com/a?b=c.", []string{"https://example.com/a?b=c"}},
		{"parenthesized", "(docs at http://go.dev/doc)", []string{"http://go.dev/doc"}},
		{"balanced parens kept", "https://en.wikipedia.org/wiki/Go_(language)", []string{"https://en.wikipedia.org/wiki/Go_(language)"}},
		{"dedupe", "https://a.io https://a.io https://b.io", []string{"https://a.io", "https://b.io"}},
		{"case insensitive scheme", "HTTPS://EXAMPLE.COM", []string{"HTTPS://EXAMPLE.COM"}},
		{"bare scheme", "http://...", nil},
		{"quoted", `"https://example.com/x"`, []string{"https://example.com/x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractLinks(tt.text, 0))
		})
	}
}

func TestExtractLinksLimit(t *testing.T) {
	text := "https://1.io https://2.io https://3.io https://4.io https://5.io https://6.io"
	assert.Len(t, ExtractLinks(text, 0), DefaultMaxLinks)
	assert.Equal(t, []string{"https://1.io", "https://2.io"}, ExtractLinks(text, 2))
}

func TestMemoryCache_Claim(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	ok, err := c.Claim(ctx, "https://a.io", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = c.Claim(ctx, "https://a.io", time.Minute)
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = c.Claim(ctx, "https://a.io", time.Minute)
	assert.True(t, ok)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "relay:linkpreview:https://a.io", CacheKey("https://a.io"))
}

type failingCache struct{}

func (failingCache) Claim(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func newFixture() (*state.Session, *state.Window) {
	s := state.NewSession(state.SessionOptions{Name: "alice"})
	n := s.AddNetwork(state.NetworkOptions{UUID: "net-1", Host: "h", Nick: "me"})
	w, _, _ := n.FindOrCreateWindow("#go", models.WindowChannel)
	return s, w
}

func TestPrefetcher_PublishesJobs(t *testing.T) {
	pub := &mocks.PublisherMock{}
	s, w := newFixture()
	msg := models.Message{ID: 42}

	pub.On("Publish", mock.Anything, RoutingKey, Job{UserName: "alice", ChanID: w.ID(), MsgID: 42, Link: "https://a.io", Fetch: true}).Return(nil).Once()
	pub.On("Publish", mock.Anything, RoutingKey, Job{UserName: "alice", ChanID: w.ID(), MsgID: 43, Link: "https://a.io", Fetch: false}).Return(nil).Once()

	p := NewPrefetcher(Options{Enabled: true, Publisher: pub, Runner: async.Inline})
	p.Prefetch(s, w, msg, "look https://a.io")
	p.Prefetch(s, w, models.Message{ID: 43}, "again https://a.io")

	pub.AssertExpectations(t)
}

func TestPrefetcher_CacheFailureStillFetches(t *testing.T) {
	pub := &mocks.PublisherMock{}
	s, w := newFixture()
	pub.On("Publish", mock.Anything, RoutingKey, mock.MatchedBy(func(j Job) bool { return j.Fetch })).Return(nil).Once()

	p := NewPrefetcher(Options{Enabled: true, Cache: failingCache{}, Publisher: pub, Runner: async.Inline})
	p.Prefetch(s, w, models.Message{ID: 1}, "https://a.io")

	pub.AssertExpectations(t)
}

func TestPrefetcher_DisabledOrNoLinks(t *testing.T) {
	pub := &mocks.PublisherMock{}
	s, w := newFixture()

	NewPrefetcher(Options{Enabled: false, Publisher: pub, Runner: async.Inline}).Prefetch(s, w, models.Message{}, "https://a.io")
	NewPrefetcher(Options{Enabled: true, Publisher: pub, Runner: async.Inline}).Prefetch(s, w, models.Message{}, "nothing")

	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}
