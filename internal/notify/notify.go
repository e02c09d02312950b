// Package notify delivers a rendered digest to the configured channels.
// Each channel is an independent one-method sender; the fanout attempts
// every requested channel and reports per-channel plus aggregate outcome.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"newsdigest/internal/domain"
)

// Channel pushes one digest to a single destination. Render and transport
// failures both surface as the returned error; a channel must never
// affect another channel's attempt.
type Channel interface {
	Send(ctx context.Context, digest []domain.DigestItem) error
}

// Registry maps channel identifiers to implementations.
type Registry struct {
	channels map[string]Channel
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]Channel)}
}

func (r *Registry) Register(id string, ch Channel) {
	r.channels[id] = ch
}

func (r *Registry) Lookup(id string) (Channel, bool) {
	ch, ok := r.channels[id]

	return ch, ok
}

type Fanout struct {
	registry *Registry
	log      *slog.Logger
}

func NewFanout(registry *Registry, log *slog.Logger) *Fanout {
	return &Fanout{registry: registry, log: log}
}

type channelResult struct {
	id string
	ok bool
}

// Deliver pushes the digest to every requested channel concurrently and
// returns the per-channel outcomes plus whether all of them succeeded.
// An empty digest succeeds trivially; an empty channel set is a failure
// (a delivery attempt with no destination is an error, distinct from
// "nothing to send"). Unknown identifiers count as that channel failing,
// never as a fatal configuration error.
func (f *Fanout) Deliver(
	ctx context.Context,
	digest []domain.DigestItem,
	channelIDs []string,
) (map[string]bool, bool) {
	if len(digest) == 0 {
		f.log.InfoContext(ctx, "Nothing to deliver")

		return map[string]bool{}, true
	}

	if len(channelIDs) == 0 {
		f.log.ErrorContext(ctx, "No delivery channels configured")

		return map[string]bool{}, false
	}

	var writeWg sync.WaitGroup
	resultCh := make(chan channelResult, len(channelIDs))

	for _, id := range channelIDs {
		ch, ok := f.registry.Lookup(id)
		if !ok {
			f.log.ErrorContext(ctx, "Unknown delivery channel",
				"channel", id)

			resultCh <- channelResult{id: id, ok: false}
			continue
		}

		writeWg.Add(1)

		go func(id string, ch Channel) {
			defer writeWg.Done()

			err := ch.Send(ctx, digest)
			if err != nil {
				f.log.ErrorContext(ctx, "Channel delivery failed",
					"error", err,
					"channel", id)
			}

			resultCh <- channelResult{id: id, ok: err == nil}
		}(id, ch)
	}

	go func() {
		writeWg.Wait()
		close(resultCh)
	}()

	results := make(map[string]bool, len(channelIDs))
	allOK := true
	for res := range resultCh {
		results[res.id] = res.ok
		if !res.ok {
			allOK = false
		}
	}

	return results, allOK
}
