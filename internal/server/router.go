// Package server implements the broadcast router: fire-and-forget fan-out of
// encoded events to every connection, every connection but one, or a single
// connection. Delivery rides on each client's buffered send channel; there
// is no retry, and clients whose buffers overflow are dropped.
package server

// toAll delivers an event to every connected client.
func (h *Hub) toAll(event string, payload any) {
	h.fanOut(event, payload, nil)
}

// toAllExcept delivers an event to every connected client except origin,
// used for typing notices and disconnect broadcasts.
func (h *Hub) toAllExcept(origin *Client, event string, payload any) {
	h.fanOut(event, payload, origin)
}

// toOne delivers an event to a single client, used for history replay,
// roster replies, and error reports.
func (h *Hub) toOne(client *Client, event string, payload any) {
	data, err := encodeEvent(event, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("failed to encode event")
		return
	}

	broadcastsTotal.Inc()
	if !h.safeSend(client, data) {
		h.removeFailedClients([]*Client{client})
	}
}

func (h *Hub) fanOut(event string, payload any, except *Client) {
	data, err := encodeEvent(event, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("failed to encode event")
		return
	}

	h.mutex.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.RUnlock()

	var failed []*Client
	for _, client := range clients {
		if except != nil && client == except {
			continue
		}
		broadcastsTotal.Inc()
		if !h.safeSend(client, data) {
			failed = append(failed, client)
		}
	}
	h.removeFailedClients(failed)
}
