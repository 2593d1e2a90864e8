package websocket

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// LikeUpdate is pushed to every connected client when a team's like count
// changes.
type LikeUpdate struct {
	TeamNumber int   `json:"team_number"`
	Likes      int64 `json:"likes"`
}

type Hub struct {
	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan LikeUpdate
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan LikeUpdate, 64),
	}
}

// Publish never blocks the request path; updates are dropped when the
// broadcast buffer is full.
func (h *Hub) Publish(update LikeUpdate) {
	select {
	case h.broadcast <- update:
	default:
		log.Println("Like update dropped: broadcast buffer full")
	}
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.clientsMu.Lock()
			h.clients[conn] = true
			h.clientsMu.Unlock()
			log.Printf("Likes client registered: %s", conn.RemoteAddr())
		case conn := <-h.unregister:
			h.clientsMu.Lock()
			delete(h.clients, conn)
			h.clientsMu.Unlock()
			log.Printf("Likes client unregistered: %s", conn.RemoteAddr())
		case update := <-h.broadcast:
			var broken []*websocket.Conn
			h.clientsMu.RLock()
			for conn := range h.clients {
				if err := conn.WriteJSON(update); err != nil {
					log.Printf("Error sending like update to %s: %v", conn.RemoteAddr(), err)
					broken = append(broken, conn)
				}
			}
			h.clientsMu.RUnlock()

			h.clientsMu.Lock()
			for _, conn := range broken {
				conn.Close()
				delete(h.clients, conn)
			}
			h.clientsMu.Unlock()
		}
	}
}

// Serve keeps a client connection registered until it disconnects. Clients
// never send anything meaningful; reads only detect the close.
func (h *Hub) Serve(conn *websocket.Conn) {
	h.register <- conn
	defer func() {
		h.unregister <- conn
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
