// Package sqlxrepos implements the repositories on PostgreSQL with sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/absensi/core"
)

// Channels notified by the table triggers.
const (
	teacherChannel    = "teacher_changed"
	rosterChannel     = "roster_entry_changed"
	attendanceChannel = "attendance_changed"

	uniqueViolation = "23505"
)

var errNoNotifier = errors.New("subscriptions need a notifier")

// trapNoRowsErr maps the "no rows" error to notFound.
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// validID reports whether id can be looked up in a uuid column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func validIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	return valid
}

// Notifier fans the LISTEN/NOTIFY events of the table triggers out to the repositories' subscribers.
type Notifier struct {
	listener *pq.Listener
	logger   core.Logger

	mu       sync.Mutex
	channels map[string]*core.Broadcaster
}

// NewNotifier listens on the database at dsn.
func NewNotifier(dsn string, logger core.Logger) *Notifier {
	n := &Notifier{
		logger:   logger,
		channels: make(map[string]*core.Broadcaster),
	}
	n.listener = pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Error("db listener event", err, map[string]interface{}{"event": ev})
		}
	})
	go n.run()
	return n
}

func (n *Notifier) run() {
	for notif := range n.listener.Notify {
		n.mu.Lock()
		if notif == nil {
			// the connection was re-established: notifications may have been lost
			for _, b := range n.channels {
				b.Broadcast()
			}
		} else if b, ok := n.channels[notif.Channel]; ok {
			b.Broadcast()
		}
		n.mu.Unlock()
	}
}

func (n *Notifier) broadcaster(channel string) (*core.Broadcaster, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if b, ok := n.channels[channel]; ok {
		return b, nil
	}
	if err := n.listener.Listen(channel); err != nil && err != pq.ErrChannelAlreadyOpen {
		return nil, errors.Wrapf(err, "listening on %s", channel)
	}
	b := new(core.Broadcaster)
	n.channels[channel] = b
	return b, nil
}

func (n *Notifier) Close() error {
	return n.listener.Close()
}

// subscribe watches channel, reading a fresh snapshot on every notification.
func subscribe[T any](
	ctx context.Context,
	n *Notifier,
	channel string,
	snapshot func(context.Context) ([]T, error),
	fn func([]T),
) (func(), error) {
	if n == nil {
		return nil, errNoNotifier
	}
	b, err := n.broadcaster(channel)
	if err != nil {
		return nil, err
	}
	return core.Watch(ctx, b, snapshot, fn, func(err error) {
		n.logger.Error("reading "+channel+" snapshot", err)
	})
}
