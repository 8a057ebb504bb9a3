// Package ws mantiene las conexiones websocket y difunde los eventos de
// traslados (transfer_created, transfer_shipped, ...) a todos los clientes.
package ws

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/invorya/transfers-api/pkg/logger"
)

// Hub registro central de conexiones websocket. Los casos de uso publican
// mensajes ya serializados vía Publish; el loop Run los difunde.
type Hub struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	log        *logger.Logger
	mutex      sync.Mutex
}

// NewHub construye el hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 64),
		log:        log,
	}
}

// Run procesa registros, bajas y difusión. Ejecutar en su propia goroutine.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mutex.Lock()
			h.clients[conn] = true
			h.mutex.Unlock()
			h.log.Info().Int("clients", h.clientCount()).Msg("cliente websocket conectado")

		case conn := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Publish encola un mensaje para difusión. No bloquea: si el buffer está
// lleno el mensaje se descarta (los eventos son best-effort, el estado
// autoritativo vive en la base de datos).
func (h *Hub) Publish(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.log.Warn().Msg("buffer de difusión lleno, evento descartado")
	}
}

// Handler maneja el ciclo de vida de una conexión entrante. Registrar con
// websocket.New(hub.Handler) en la ruta /ws.
func (h *Hub) Handler(conn *websocket.Conn) {
	h.register <- conn
	defer func() { h.unregister <- conn }()
	// Solo difundimos: leer descarta mensajes y detecta el cierre.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) clientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}
