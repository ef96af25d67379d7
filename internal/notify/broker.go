package notify

import (
	"io"
	"log/slog"

	"codeberg.org/mutker/atmena/internal/errors"
	"codeberg.org/mutker/atmena/internal/logger"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
)

// Broker is an MQTT broker running inside the server process, for sites
// without one. Clients connect anonymously.
type Broker struct {
	server *mochi.Server
	addr   string
}

// StartBroker listens on addr and serves in the background.
func StartBroker(addr string) (*Broker, error) {
	errFactory := errors.New()

	server := mochi.New(&mochi.Options{
		InlineClient: true,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, errFactory.Wrap(errors.ErrBrokerStart, err)
	}

	if err := server.AddListener(listeners.NewTCP(listeners.Config{
		Type:    "tcp",
		ID:      "atmena",
		Address: addr,
	})); err != nil {
		return nil, errFactory.Wrap(errors.ErrBrokerStart, err)
	}

	if err := server.Serve(); err != nil {
		return nil, errFactory.Wrap(errors.ErrBrokerStart, err)
	}

	logger.Info().Str("addr", addr).Msg("Embedded MQTT broker started")
	return &Broker{server: server, addr: addr}, nil
}

func (b *Broker) Addr() string {
	return b.addr
}

func (b *Broker) Close() error {
	return b.server.Close()
}
