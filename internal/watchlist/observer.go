package watchlist

import (
	"fmt"

	"github.com/mmcdole/cineverse/internal/domain"
)

// SubscriptionID identifies a registered observer
type SubscriptionID uint64

// ObserverFunc receives the full list after every mutation
type ObserverFunc func(entries []domain.WatchlistEntry)

type observer struct {
	id SubscriptionID
	fn ObserverFunc
}

// Subscribe registers fn. Observers run in registration order.
func (w *Watchlist) Subscribe(fn ObserverFunc) SubscriptionID {
	w.obsMu.Lock()
	defer w.obsMu.Unlock()
	w.nextSubID++
	w.observers = append(w.observers, observer{id: w.nextSubID, fn: fn})
	return w.nextSubID
}

// Unsubscribe removes an observer. Unknown ids are ignored.
func (w *Watchlist) Unsubscribe(id SubscriptionID) {
	w.obsMu.Lock()
	defer w.obsMu.Unlock()
	for i, o := range w.observers {
		if o.id == id {
			w.observers = append(w.observers[:i:i], w.observers[i+1:]...)
			return
		}
	}
}

func (w *Watchlist) notifyObservers(entries []domain.WatchlistEntry) {
	w.obsMu.Lock()
	observers := make([]observer, len(w.observers))
	copy(observers, w.observers)
	w.obsMu.Unlock()

	for _, o := range observers {
		w.invoke(o, entries)
	}
}

// invoke runs one observer with its own copy; a panic is logged and swallowed
func (w *Watchlist) invoke(o observer, entries []domain.WatchlistEntry) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("error in observer callback", "subscription", o.id, "panic", fmt.Sprint(r))
		}
	}()
	o.fn(cloneEntries(entries))
}
