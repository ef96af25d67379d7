package notify_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"testing"
	"time"

	"codeberg.org/mutker/atmena/internal/errors"
	"codeberg.org/mutker/atmena/internal/notify"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *notify.Subscriber) notify.Event {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return notify.Event{}
	}
}

func TestHubDelivery(t *testing.T) {
	ctx := context.Background()
	hub := notify.NewHub(4)

	a := hub.Subscribe()
	defer a.Close()
	a.Join("1", "2")
	a.Join("1")

	b := hub.Subscribe()
	defer b.Close()
	b.Join("2")

	require.NoError(t, hub.Publish(ctx, "1", notify.EventNewData, "one"))
	require.NoError(t, hub.Publish(ctx, "2", notify.EventNewData, "two"))
	require.NoError(t, hub.Publish(ctx, "3", notify.EventNewData, "nobody"))

	assert.Equal(t, notify.Event{Topic: "1", Name: "newdata", Payload: "one"}, receive(t, a))
	assert.Equal(t, "two", receive(t, a).Payload)
	assert.Empty(t, a.Events(), "joining twice delivers once")

	assert.Equal(t, "two", receive(t, b).Payload)
	assert.Equal(t, 1, hub.Subscribers("1"))
	assert.Equal(t, 2, hub.Subscribers("2"))
}

func TestHubFullQueueDrops(t *testing.T) {
	ctx := context.Background()
	hub := notify.NewHub(1)

	sub := hub.Subscribe()
	defer sub.Close()
	sub.Join("1")

	require.NoError(t, hub.Publish(ctx, "1", notify.EventNewData, 1))
	require.NoError(t, hub.Publish(ctx, "1", notify.EventNewData, 2))

	assert.Equal(t, 1, receive(t, sub).Payload)
	assert.Empty(t, sub.Events())
}

func TestHubLeaveAndClose(t *testing.T) {
	ctx := context.Background()
	hub := notify.NewHub(4)

	sub := hub.Subscribe()
	sub.Join("1", "2")
	sub.Leave("1")
	assert.Equal(t, 0, hub.Subscribers("1"))

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Subscribers("2"))

	require.NoError(t, hub.Publish(ctx, "2", notify.EventNewData, nil))
	_, ok := <-sub.Events()
	assert.False(t, ok)

	sub.Join("2")
	assert.Equal(t, 0, hub.Subscribers("2"))
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, string, any) error {
	return stderrors.New("broker gone")
}

func TestMulti(t *testing.T) {
	ctx := context.Background()
	hub := notify.NewHub(4)
	sub := hub.Subscribe()
	defer sub.Close()
	sub.Join("1")

	require.NoError(t, notify.Multi{notify.Nop{}, hub}.Publish(ctx, "1", notify.EventNewData, "x"))
	assert.Equal(t, "x", receive(t, sub).Payload)

	err := notify.Multi{failingPublisher{}, hub}.Publish(ctx, "1", notify.EventNewData, "y")
	require.Error(t, err)
	assert.Equal(t, errors.ErrPublishFailed, errors.Classify(err))
	assert.Contains(t, err.Error(), "broker gone")
	assert.Equal(t, "y", receive(t, sub).Payload, "later publishers still run")
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func startBroker(t *testing.T) (*mochi.Server, string) {
	t.Helper()

	server := mochi.New(&mochi.Options{InlineClient: true})
	require.NoError(t, server.AddHook(new(auth.AllowHook), nil))

	addr := freeAddr(t)
	require.NoError(t, server.AddListener(listeners.NewTCP(listeners.Config{
		Type:    "tcp",
		ID:      "test",
		Address: addr,
	})))
	require.NoError(t, server.Serve())
	t.Cleanup(func() { server.Close() })

	return server, addr
}

func TestMQTTPublish(t *testing.T) {
	server, addr := startBroker(t)

	received := make(chan packets.Packet, 1)
	require.NoError(t, server.Subscribe("atmena/#", 1, func(_ *mochi.Client, _ packets.Subscription, pk packets.Packet) {
		received <- pk
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pub, err := notify.DialMQTT(ctx, notify.MQTTConfig{
		Broker:      addr,
		TopicPrefix: "atmena",
		ClientID:    "atmena-test",
		QoS:         1,
	})
	require.NoError(t, err)
	defer pub.Close()

	assert.Equal(t, "atmena/5000000000/newdata", pub.Topic("5000000000", notify.EventNewData))

	payload := map[string]any{"deviceID": "5000000000", "co2": 20}
	require.NoError(t, pub.Publish(ctx, "5000000000", notify.EventNewData, payload))

	select {
	case pk := <-received:
		assert.Equal(t, "atmena/5000000000/newdata", pk.TopicName)
		var got map[string]any
		require.NoError(t, json.Unmarshal(pk.Payload, &got))
		assert.Equal(t, "5000000000", got["deviceID"])
		assert.Equal(t, 20.0, got["co2"])
	case <-ctx.Done():
		t.Fatal("message never reached the broker")
	}
}

func TestDialMQTTUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := notify.DialMQTT(ctx, notify.MQTTConfig{Broker: freeAddr(t), ClientID: "x"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrInitFailed, errors.Classify(err))
}

func TestEmbeddedBroker(t *testing.T) {
	broker, err := notify.StartBroker(freeAddr(t))
	require.NoError(t, err)
	defer broker.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pub, err := notify.DialMQTT(ctx, notify.MQTTConfig{
		Broker:      broker.Addr(),
		TopicPrefix: "atmena",
		ClientID:    "atmena-embedded",
		QoS:         1,
	})
	require.NoError(t, err)
	defer pub.Close()

	require.NoError(t, pub.Publish(ctx, "7", notify.EventNewData, map[string]any{"co2": 1}))

	_, err = notify.StartBroker(broker.Addr())
	require.Error(t, err)
	assert.Equal(t, errors.ErrBrokerStart, errors.Classify(err))
}
