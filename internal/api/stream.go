package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"codeberg.org/mutker/atmena/internal/notify"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	// EventSelect asks the server to stream the given devices.
	EventSelect = "select"
	// SelectAll is accepted for compatibility and streams nothing.
	SelectAll = "all"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// StreamMessage is the envelope for both directions of the stream.
type StreamMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outgoing struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the request.
		s.logger.Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := s.hub.Subscribe()
	defer sub.Close()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		s.readStream(conn, sub)
	}()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(outgoing{Event: ev.Name, Data: ev.Payload}); err != nil {
				s.logger.Debug().Err(err).Msg("Websocket write failed")
				return
			}
		case <-readDone:
			return
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (s *Server) readStream(conn *websocket.Conn, sub *notify.Subscriber) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg StreamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Debug().Err(err).Msg("Ignoring malformed stream message")
			continue
		}
		if msg.Event != EventSelect {
			continue
		}

		devices, err := parseDevices(msg.Data)
		if err != nil {
			s.logger.Debug().Err(err).Msg("Ignoring malformed select")
			continue
		}
		sub.Join(devices...)
	}
}

// parseDevices accepts a device ID or an array of them, as strings or
// numbers. "all" selects nothing until ownership exists.
func parseDevices(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	items, ok := v.([]any)
	if !ok {
		if v == SelectAll {
			return nil, nil
		}
		items = []any{v}
	}

	devices := make([]string, 0, len(items))
	for _, item := range items {
		switch id := item.(type) {
		case string:
			devices = append(devices, id)
		case json.Number:
			devices = append(devices, id.String())
		default:
			return nil, fmt.Errorf("unsupported device %v", item)
		}
	}
	return devices, nil
}
