package database

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
)

// ChangesChannel is the channel the change triggers notify on.
const ChangesChannel = "portal_changes"

const listenerPingInterval = 90 * time.Second

// Listener relays the database change notifications to a core.ChangeNotifier.
type Listener struct {
	listener *pq.Listener
	notifier core.ChangeNotifier
	logger   core.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func NewListener(conf *core.Config, notifier core.ChangeNotifier, logger core.Logger) *Listener {
	l := &Listener{
		notifier: notifier,
		logger:   logger,
		done:     make(chan struct{}),
	}
	l.listener = pq.NewListener(
		dataSourceName(conf.Database.Name, false, conf),
		10*time.Second,
		time.Minute,
		l.logEvent,
	)
	return l
}

func (l *Listener) logEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnectionAttemptFailed:
		l.logger.Warn("listener: connection attempt failed", err)
	case pq.ListenerEventDisconnected:
		l.logger.Warn("listener: disconnected", err)
	case pq.ListenerEventReconnected:
		l.logger.Info("listener: reconnected")
	}
}

// Start listens on ChangesChannel until ctx is done or the Listener is closed.
func (l *Listener) Start(ctx context.Context) error {
	if err := l.listener.Listen(ChangesChannel); err != nil {
		return errors.Wrap(err, "listening to changes")
	}
	go l.run(ctx)
	return nil
}

func (l *Listener) run(ctx context.Context) {
	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case n, ok := <-l.listener.Notify:
			if !ok {
				return
			}
			if n == nil {
				// the connection was re-established: notifications may have been lost
				l.notifier.Publish(core.ChangeEvent{Op: core.OpResync, At: time.Now().UTC()})
				continue
			}
			ev, err := DecodeChange([]byte(n.Extra))
			if err != nil {
				l.logger.Error("listener: decoding change", err, n.Extra)
				continue
			}
			l.notifier.Publish(ev)
		case <-ticker.C:
			go func() {
				if err := l.listener.Ping(); err != nil {
					l.logger.Warn("listener: ping", err)
				}
			}()
		}
	}
}

func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		err = l.listener.Close()
	})
	return err
}

// DecodeChange decodes the payload of a change notification.
func DecodeChange(payload []byte) (core.ChangeEvent, error) {
	var ev core.ChangeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return core.ChangeEvent{}, errors.Wrap(err, "decoding change payload")
	}
	if ev.Table == "" || ev.Op == "" {
		return core.ChangeEvent{}, errors.Errorf("invalid change payload: %s", payload)
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	return ev, nil
}
