package notifyfake

import (
	"sync"

	"github.com/jrsteele09/go-learn-client/notify"
)

var _ notify.Notifier = (*Recorder)(nil)

// Recorder keeps every notification for assertions.
type Recorder struct {
	items []notify.Notification
	lock  sync.Mutex
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(n notify.Notification) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.items = append(r.items, n)
}

func (r *Recorder) All() []notify.Notification {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]notify.Notification(nil), r.items...)
}

func (r *Recorder) Messages() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]string, 0, len(r.items))
	for _, n := range r.items {
		out = append(out, n.Message)
	}
	return out
}

func (r *Recorder) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.items)
}
