package ws

// Subscriber abstracts a connected realtime client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Hub fans events out to every connected client. Events carry no payload
// semantics here: whatever a client sends is relayed verbatim to all other
// clients, which then refetch whatever they care about.
type Hub struct {
	clients   map[Subscriber]struct{}
	register  chan Subscriber
	unreg     chan Subscriber
	broadcast chan message
}

// message couples a payload with its originating client, which is skipped
// on fan-out.
type message struct {
	sender  Subscriber
	payload []byte
}

// NewHub creates an initialized Hub.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[Subscriber]struct{}),
		register:  make(chan Subscriber),
		unreg:     make(chan Subscriber),
		broadcast: make(chan message),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unreg:
			delete(h.clients, client)
		case msg := <-h.broadcast:
			for c := range h.clients {
				if c == msg.sender {
					continue
				}
				if err := c.Send(msg.payload); err != nil {
					c.Close()
					delete(h.clients, c)
				}
			}
		}
	}
}

// Register adds a client to the event stream.
func (h *Hub) Register(client Subscriber) {
	h.register <- client
}

// Unregister removes a client.
func (h *Hub) Unregister(client Subscriber) {
	h.unreg <- client
}

// Broadcast relays payload to every client except the sender.
func (h *Hub) Broadcast(sender Subscriber, payload []byte) {
	h.broadcast <- message{sender: sender, payload: payload}
}
