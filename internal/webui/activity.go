package webui

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/biodoia/goleapsocial/internal/chaining"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	activityBuffer    = 64
	activityHeartbeat = 30 * time.Second
)

// ActivityHub diffonde gli eventi di tutte le esecuzioni ai client di /ws/activity.
// Registrato come Observer sul Runner, non blocca mai la pipeline: se un client
// è troppo lento viene disconnesso.
type ActivityHub struct {
	clients map[*activityClient]bool

	broadcast  chan []byte
	register   chan *activityClient
	unregister chan *activityClient
	shutdown   chan struct{}
	stopOnce   sync.Once

	// Numero di client, letto fuori dal loop
	mu    sync.RWMutex
	count int

	heartbeat time.Duration
}

type activityClient struct {
	id   string
	send chan []byte
}

// NewActivityHub crea un hub; Run va avviato in una goroutine dedicata
func NewActivityHub() *ActivityHub {
	return &ActivityHub{
		clients:    make(map[*activityClient]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *activityClient),
		unregister: make(chan *activityClient),
		shutdown:   make(chan struct{}),
		heartbeat:  activityHeartbeat,
	}
}

// Run avvia il loop principale dell'hub
func (h *ActivityHub) Run() {
	log.Info().Msg("Activity hub started")

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	ping, _ := json.Marshal(Message{Type: "ping"})

	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.setCount()
			log.Debug().Str("client_id", client.id).Msg("Activity client registered")

		case client := <-h.unregister:
			h.remove(client)

		case data := <-h.broadcast:
			h.fanOut(data)

		case <-heartbeat.C:
			h.fanOut(ping)

		case <-h.shutdown:
			for client := range h.clients {
				h.remove(client)
			}
			log.Info().Msg("Activity hub stopped")
			return
		}
	}
}

func (h *ActivityHub) fanOut(data []byte) {
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			log.Warn().Str("client_id", client.id).Msg("Activity client too slow, disconnecting")
			h.remove(client)
		}
	}
}

func (h *ActivityHub) remove(client *activityClient) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.setCount()
	log.Debug().Str("client_id", client.id).Msg("Activity client unregistered")
}

func (h *ActivityHub) setCount() {
	h.mu.Lock()
	h.count = len(h.clients)
	h.mu.Unlock()
}

// OnEvent accoda l'evento per tutti i client; se la coda è piena l'evento è scartato
func (h *ActivityHub) OnEvent(e chaining.Event) {
	data, err := json.Marshal(Message{Type: "event", Event: newEventPayload(e)})
	if err != nil {
		log.Error().Err(err).Msg("Failed to serialize activity event")
		return
	}

	select {
	case h.broadcast <- data:
	default:
		log.Warn().Str("event", string(e.Type)).Msg("Activity queue full, event dropped")
	}
}

// Clients restituisce il numero di client connessi
func (h *ActivityHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Stop ferma l'hub e chiude tutti i client
func (h *ActivityHub) Stop() {
	h.stopOnce.Do(func() { close(h.shutdown) })
}

// attach registra un nuovo client; nil se l'hub è fermo
func (h *ActivityHub) attach() *activityClient {
	client := &activityClient{
		id:   uuid.NewString(),
		send: make(chan []byte, activityBuffer),
	}

	select {
	case h.register <- client:
		return client
	case <-h.shutdown:
		return nil
	}
}

func (h *ActivityHub) detach(client *activityClient) {
	select {
	case h.unregister <- client:
	case <-h.shutdown:
	}
}

// handleActivity inoltra gli eventi dell'hub finché il client resta connesso
func (s *Server) handleActivity(c *websocket.Conn) {
	defer c.Close()

	client := s.opts.Activity.attach()
	if client == nil {
		return
	}
	defer s.opts.Activity.detach(client)

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case data, ok := <-client.send:
			if !ok {
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}
