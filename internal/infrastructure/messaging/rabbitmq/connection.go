package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// link is one broker connection with a confirm-mode channel and the
// notification channels registered on it.
type link struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	confirms <-chan amqp.Confirmation
	returns  <-chan amqp.Return
}

func dial(url, exchange string) (*link, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	l := &link{conn: conn, ch: ch}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		l.close()
		return nil, fmt.Errorf("rabbitmq exchange %q: %w", exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		l.close()
		return nil, fmt.Errorf("rabbitmq confirm mode: %w", err)
	}
	l.confirms = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	l.returns = ch.NotifyReturn(make(chan amqp.Return, 1))
	return l, nil
}

func (l *link) alive() bool {
	return l != nil && l.ch != nil && l.conn != nil && !l.conn.IsClosed()
}

// drain drops confirms and returns left over from an abandoned publish.
func (l *link) drain() {
	for {
		select {
		case <-l.confirms:
		case <-l.returns:
		default:
			return
		}
	}
}

func (l *link) close() {
	if l == nil {
		return
	}
	if l.ch != nil {
		_ = l.ch.Close()
	}
	if l.conn != nil {
		_ = l.conn.Close()
	}
}
