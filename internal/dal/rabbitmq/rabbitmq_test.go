package rabbitmq

import (
	"errors"
	"testing"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/service/models/outbox"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type declaredQueue struct {
	name    string
	durable bool
}

// fakeChannel feeds replies[i] to the confirm stream on the i-th Publish.
type fakeChannel struct {
	declared   []declaredQueue
	confirming bool
	confirms   chan amqp.Confirmation
	published  []amqp.Publishing
	replies    [][]amqp.Confirmation
	publishErr error
	closed     bool
}

func (f *fakeChannel) QueueDeclare(
	name string,
	durable, _, _, _ bool,
	_ amqp.Table,
) (amqp.Queue, error) {
	f.declared = append(f.declared, declaredQueue{name: name, durable: durable})

	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) Confirm(bool) error {
	f.confirming = true

	return nil
}

func (f *fakeChannel) NotifyPublish(chan amqp.Confirmation) chan amqp.Confirmation {
	f.confirms = make(chan amqp.Confirmation, 8)

	return f.confirms
}

func (f *fakeChannel) Publish(_, _ string, _, _ bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, msg)
	if len(f.replies) > 0 {
		for _, c := range f.replies[0] {
			f.confirms <- c
		}
		f.replies = f.replies[1:]
	}

	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true

	return nil
}

var events = outbox.Target{Queue: "canteen.order.events", MaxRetries: 5}

func TestNewPublisher_DeclaresDurableTargetQueue(t *testing.T) {
	ch := &fakeChannel{}

	p, err := newPublisher(nil, ch, events)
	require.NoError(t, err)

	assert.Equal(t, []declaredQueue{{name: "canteen.order.events", durable: true}}, ch.declared)
	assert.True(t, ch.confirming)
	assert.Equal(t, "canteen.order.events", p.Queue())
}

func TestNewPublisher_RequiresQueueName(t *testing.T) {
	ch := &fakeChannel{}

	_, err := newPublisher(nil, ch, outbox.Target{})
	require.Error(t, err)
	assert.Empty(t, ch.declared)
}

func TestPublish(t *testing.T) {
	tests := []struct {
		name    string
		replies [][]amqp.Confirmation
		wantErr bool
	}{
		{"acked", [][]amqp.Confirmation{{{DeliveryTag: 1, Ack: true}}}, false},
		{"nacked", [][]amqp.Confirmation{{{DeliveryTag: 1, Ack: false}}}, true},
		{"no confirm", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &fakeChannel{replies: tt.replies}
			p, err := newPublisher(nil, ch, events)
			require.NoError(t, err)
			p.confirmTimeout = 20 * time.Millisecond

			err = p.Publish("", events.Queue, false, false, amqp.Publishing{MessageId: "1", Body: []byte(`{}`)})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotConfirmed)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, ch.published, 1)
		})
	}
}

func TestPublish_SkipsLateConfirmOfTimedOutMessage(t *testing.T) {
	ch := &fakeChannel{replies: [][]amqp.Confirmation{
		nil,
		{{DeliveryTag: 1, Ack: true}, {DeliveryTag: 2, Ack: false}},
	}}
	p, err := newPublisher(nil, ch, events)
	require.NoError(t, err)
	p.confirmTimeout = 20 * time.Millisecond

	assert.ErrorIs(t, p.Publish("", events.Queue, false, false, amqp.Publishing{MessageId: "1"}), ErrNotConfirmed)
	assert.ErrorIs(t, p.Publish("", events.Queue, false, false, amqp.Publishing{MessageId: "2"}), ErrNotConfirmed)
}

func TestPublish_ChannelError(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel/connection is not open")}
	p, err := newPublisher(nil, ch, events)
	require.NoError(t, err)

	err = p.Publish("", events.Queue, false, false, amqp.Publishing{MessageId: "1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, uint64(1), p.nextTag)
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newPublisher(nil, ch, events)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
