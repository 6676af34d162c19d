package gateway

import (
	"context"
	"sync"
)

// notifier fans a "something changed" signal out to subscribers. Signals are
// coalesced: a subscriber that has not drained its pending signal gets no
// second one, which is fine because watchers re-run their whole query.
type notifier struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[int]chan struct{})}
}

func (n *notifier) notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (n *notifier) subscribe() (int, chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	ch := make(chan struct{}, 1)
	n.subs[id] = ch
	return id, ch
}

func (n *notifier) unsubscribe(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, id)
}

// watch turns a point query into a continuously-updating subscription: the
// current result is delivered first, then the query is re-run and delivered
// on every store change. The cancel func blocks until delivery has stopped;
// after it returns no further sends occur and the channel is closed. Query
// errors after the first delivery skip that update rather than killing the
// subscription.
func watch[T any](ctx context.Context, n *notifier, query func() (T, error)) (<-chan T, func(), error) {
	first, err := query()
	if err != nil {
		return nil, nil, err
	}

	out := make(chan T, 1)
	out <- first

	id, signal := n.subscribe()
	stop := make(chan struct{})
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() { close(stop) })
		<-done
	}

	go func() {
		defer close(done)
		defer close(out)
		defer n.unsubscribe(id)
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-signal:
				result, err := query()
				if err != nil {
					continue
				}
				select {
				case out <- result:
				case <-stop:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, cancel, nil
}
