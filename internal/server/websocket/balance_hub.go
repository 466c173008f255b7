package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/kachence/sols.bet-sub002/internal/domain"
)

// BalanceHub fans committed balance updates out to the websocket
// connections of the affected user. Delivery is best effort; a slow or
// dead connection is dropped, never waited on.
type BalanceHub struct {
	Clients    map[string]map[*websocket.Conn]bool
	Broadcast  chan BalanceMessage
	Register   chan *BalanceClient
	Unregister chan *BalanceClient
	Logger     zerolog.Logger
}

type BalanceClient struct {
	Username string
	Conn     *websocket.Conn
}

type BalanceMessage struct {
	Type            string    `json:"type"`
	Username        string    `json:"username"`
	Balance         int64     `json:"balance"`
	PreviousBalance int64     `json:"previousBalance"`
	BalanceUsd      float64   `json:"balanceUsd"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func NewBalanceHub(logger zerolog.Logger) *BalanceHub {
	return &BalanceHub{
		Clients:    make(map[string]map[*websocket.Conn]bool),
		Broadcast:  make(chan BalanceMessage, 100),
		Register:   make(chan *BalanceClient, 100),
		Unregister: make(chan *BalanceClient, 100),
		Logger:     logger,
	}
}

func (h *BalanceHub) Run() {
	for {
		select {
		case client := <-h.Register:
			if h.Clients[client.Username] == nil {
				h.Clients[client.Username] = make(map[*websocket.Conn]bool)
			}
			h.Clients[client.Username][client.Conn] = true
			h.Logger.Info().
				Str("username", client.Username).
				Int("connection_count", len(h.Clients[client.Username])).
				Msg("WebSocket client registered")

		case client := <-h.Unregister:
			if clients, ok := h.Clients[client.Username]; ok {
				delete(clients, client.Conn)
				if len(clients) == 0 {
					delete(h.Clients, client.Username)
				}
				client.Conn.Close()
				h.Logger.Info().
					Str("username", client.Username).
					Int("connection_count", len(clients)).
					Msg("WebSocket client unregistered")
			}

		case message := <-h.Broadcast:
			clients, ok := h.Clients[message.Username]
			if !ok {
				continue
			}
			for conn := range clients {
				if err := conn.WriteJSON(message); err != nil {
					h.Logger.Err(err).
						Str("username", message.Username).
						Msg("Failed to send balance update, dropping connection")
					conn.Close()
					delete(clients, conn)
				}
			}
			if len(clients) == 0 {
				delete(h.Clients, message.Username)
			}
		}
	}
}

// NotifyBalance implements settlement.BalanceNotifier. It never blocks the
// settlement path: when the broadcast buffer is full the update is dropped.
func (h *BalanceHub) NotifyBalance(username string, entry domain.CacheEntry, balanceUsd float64) {
	message := BalanceMessage{
		Type:            "balance",
		Username:        username,
		Balance:         entry.Balance,
		PreviousBalance: entry.PreviousBalance,
		BalanceUsd:      balanceUsd,
		UpdatedAt:       entry.UpdatedAt,
	}

	select {
	case h.Broadcast <- message:
	default:
		h.Logger.Warn().
			Str("username", username).
			Msg("Balance broadcast buffer full, dropping update")
	}
}
