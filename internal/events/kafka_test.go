package events

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shop-api/internal/domain/order"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testEvent() order.Event {
	return order.Event{
		Type:       order.EventCreated,
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Order: &order.Order{
			ID:            "o1",
			UserID:        "u1",
			Status:        order.StatusActive,
			TotalPrice:    decimal.RequireFromString("12.50"),
			TotalProducts: 2,
			Items: []order.Item{
				{ProductID: "p1", VendorID: "v1", Quantity: 2, Price: decimal.RequireFromString("6.25")},
			},
		},
	}
}

func TestPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{w: w}

	require.NoError(t, p.Publish(context.Background(), testEvent()))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "o1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "order.created", string(msg.Headers[0].Value))

	fields := map[string]string{}
	var items int
	require.NoError(t, jx.DecodeBytes(msg.Value).ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				items++
				return d.Skip()
			})
		case "totalProducts":
			n, err := d.Int()
			assert.Equal(t, 2, n)
			return err
		default:
			s, err := d.Str()
			fields[string(key)] = s
			return err
		}
	}))
	assert.Equal(t, "order.created", fields["type"])
	assert.Equal(t, "u1", fields["userId"])
	assert.Equal(t, "12.5", fields["totalPrice"])
	assert.Equal(t, "2026-01-02T03:04:05Z", fields["occurredAt"])
	assert.Equal(t, 1, items)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_PublishError(t *testing.T) {
	p := &Publisher{w: &fakeWriter{err: errors.New("leader not available")}}

	err := p.Publish(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write order.created")

	require.Error(t, p.Publish(context.Background(), order.Event{Type: order.EventCreated}))
}

func TestNewPublisher(t *testing.T) {
	_, err := NewPublisher(nil, "")
	require.Error(t, err)

	p, err := NewPublisher([]string{"localhost:9092"}, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultTopic, p.w.(*kafka.Writer).Topic)
}
