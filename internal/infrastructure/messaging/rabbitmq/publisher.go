package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/application/auth"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/account-service/internal/pkg/context"
)

const (
	DefaultExchange = "city.events"

	RoutingKeyPasswordReset = "account.password.reset.requested"

	defaultPublishTimeout = 2 * time.Second
	confirmWait           = 500 * time.Millisecond
	// a mandatory Return can trail the broker ack slightly
	returnGrace = 20 * time.Millisecond
)

// Publisher sends account events as persistent, mandatory messages and
// waits for the broker to confirm each one. A dropped connection is
// redialled on the next publish.
type Publisher struct {
	url      string
	exchange string

	mu   sync.Mutex
	link *link
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	l, err := dial(url, exchange)
	if err != nil {
		return nil, domain.ErrRabbitUnavailable(err)
	}
	return &Publisher{url: url, exchange: exchange, link: l}, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.link.close()
	p.link = nil
	return nil
}

func (p *Publisher) PublishPasswordReset(ctx context.Context, evt auth.PasswordResetEvent) error {
	return p.publish(ctx, RoutingKeyPasswordReset, evt)
}

func (p *Publisher) publish(ctx context.Context, key string, payload any) error {
	msg, err := newMessage(ctx, key, payload, time.Now())
	if err != nil {
		return domain.ErrInternal(err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultPublishTimeout)
		defer cancel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.link.alive() {
		p.link.close()
		if p.link, err = dial(p.url, p.exchange); err != nil {
			return domain.ErrRabbitUnavailable(err)
		}
	}
	p.link.drain()

	if err := p.link.ch.PublishWithContext(ctx, p.exchange, key, true, false, msg); err != nil {
		p.link.close()
		p.link = nil
		return domain.ErrRabbitUnavailable(fmt.Errorf("rabbitmq publish %s: %w", key, err))
	}
	if err := p.awaitConfirm(ctx, key); err != nil {
		return domain.ErrRabbitUnavailable(err)
	}
	return nil
}

// awaitConfirm treats a Return as failure even when the ack arrives first.
func (p *Publisher) awaitConfirm(ctx context.Context, key string) error {
	select {
	case ret := <-p.link.returns:
		return unroutable(key, ret)
	case conf := <-p.link.confirms:
		select {
		case ret := <-p.link.returns:
			return unroutable(key, ret)
		case <-time.After(returnGrace):
		}
		if !conf.Ack {
			return fmt.Errorf("rabbitmq nack %s: delivery_tag=%d", key, conf.DeliveryTag)
		}
		return nil
	case <-time.After(confirmWait):
		return fmt.Errorf("rabbitmq confirm timeout %s", key)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func unroutable(key string, ret amqp.Return) error {
	return fmt.Errorf("rabbitmq unroutable %s: %d %s", key, ret.ReplyCode, ret.ReplyText)
}

// newMessage encodes payload as JSON and stamps the event type, a message
// id and the originating request id.
func newMessage(ctx context.Context, key string, payload any, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal %s: %w", key, err)
	}
	headers := amqp.Table{}
	if rid := appCtx.GetRequestID(ctx); rid != "" {
		headers["X-Request-ID"] = rid
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         key,
		AppId:        "account-service",
		Timestamp:    now,
		Headers:      headers,
		Body:         body,
	}, nil
}
