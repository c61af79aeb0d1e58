package linkpreview

import (
	"context"
	"time"

	"chat-relay/internal/async"
	"chat-relay/internal/logger"
	"chat-relay/internal/models"
	"chat-relay/internal/rabbitmq"
	"chat-relay/internal/state"
)

// RoutingKey is the AMQP routing key of prefetch jobs.
const RoutingKey = "link.prefetch"

// Job asks the preview worker to attach a preview of Link to a message.
// Fetch is false when the link was fetched recently and the worker should
// reuse its stored result.
type Job struct {
	UserName string `json:"user_name"`
	ChanID   int64  `json:"chan_id"`
	MsgID    int64  `json:"msg_id"`
	Link     string `json:"link"`
	Fetch    bool   `json:"fetch"`
}

type Options struct {
	Enabled   bool
	Cache     Cache
	Publisher rabbitmq.Publisher
	TTL       time.Duration
	MaxLinks  int
	Runner    async.Runner
	Logger    logger.Logger
}

// Prefetcher implements relay.LinkPrefetcher.
type Prefetcher struct {
	enabled   bool
	cache     Cache
	publisher rabbitmq.Publisher
	ttl       time.Duration
	maxLinks  int
	run       async.Runner
	log       logger.Logger
}

func NewPrefetcher(opts Options) *Prefetcher {
	p := &Prefetcher{
		enabled:   opts.Enabled,
		cache:     opts.Cache,
		publisher: opts.Publisher,
		ttl:       opts.TTL,
		maxLinks:  opts.MaxLinks,
		run:       opts.Runner,
		log:       opts.Logger,
	}
	if p.cache == nil {
		p.cache = NewMemoryCache()
	}
	if p.ttl <= 0 {
		p.ttl = time.Hour
	}
	if p.run == nil {
		p.run = async.Go
	}
	if p.log == nil {
		p.log = logger.Nop()
	}
	return p
}

// Prefetch publishes a job for every link of cleanText.
func (p *Prefetcher) Prefetch(s *state.Session, w *state.Window, msg models.Message, cleanText string) {
	if !p.enabled || p.publisher == nil {
		return
	}
	links := ExtractLinks(cleanText, p.maxLinks)
	if len(links) == 0 {
		return
	}

	user, chanID := s.Name(), w.ID()
	p.run.Do(p.log, "link_prefetch", 0, func(ctx context.Context) error {
		for _, link := range links {
			fetch, err := p.cache.Claim(ctx, link, p.ttl)
			if err != nil {
				p.log.Warn("link cache unavailable", logger.Error(err))
				fetch = true
			}
			job := Job{UserName: user, ChanID: chanID, MsgID: msg.ID, Link: link, Fetch: fetch}
			if err := p.publisher.Publish(ctx, RoutingKey, job); err != nil {
				return err
			}
		}
		return nil
	})
}
