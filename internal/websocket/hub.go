package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"doc-intelligence-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "doc_intelligence_events"

// Message is the frame pushed to subscribers of a project.
type Message struct {
	Type      string      `json:"type"`
	ProjectID uuid.UUID   `json:"project_id"`
	Data      interface{} `json:"data"`
}

type clusterEnvelope struct {
	Origin    string          `json:"origin"`
	ProjectID uuid.UUID       `json:"project_id"`
	Message   json.RawMessage `json:"message"`
}

// Hub tracks websocket clients per project. When Redis is configured,
// every frame is also published so other instances can deliver it to
// their own clients.
type Hub struct {
	// projectID -> clients watching that project
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client
	// done is closed when Run returns; Register and Unregister stop blocking.
	done     chan struct{}
	stopOnce sync.Once

	mu sync.RWMutex

	rdb        *redis.Client
	instanceID string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, instanceID string, log logger.ILogger) *Hub {
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		instanceID: instanceID,
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.stopOnce.Do(func() { close(h.done) })
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ProjectID] = append(h.clients[client.ProjectID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"project_id": client.ProjectID})

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.ProjectID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.ProjectID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.ProjectID]) == 0 {
		delete(h.clients, client.ProjectID)
		h.logger.Info("Hub", "No more clients for project", map[string]interface{}{"project_id": client.ProjectID})
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for projectID, clients := range h.clients {
		for _, c := range clients {
			close(c.Send)
		}
		delete(h.clients, projectID)
	}
}

// Register adds client. After Run has returned the client is not tracked
// and its Send channel is closed so its write pump exits.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister removes client. After Run has returned it is a no-op, since
// shutdown already closed every tracked client.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) ClientCount(projectID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[projectID])
}

// SendToProject delivers a frame to local clients of the project and
// publishes it for other instances.
func (h *Hub) SendToProject(projectID uuid.UUID, messageType string, data interface{}) {
	frame, err := json.Marshal(Message{Type: messageType, ProjectID: projectID, Data: data})
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal frame", map[string]interface{}{"error": err})
		return
	}

	h.deliverLocal(projectID, frame)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterEnvelope{
			Origin:    h.instanceID,
			ProjectID: projectID,
			Message:   frame,
		})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (h *Hub) deliverLocal(projectID uuid.UUID, frame []byte) {
	var slow []*Client

	h.mu.RLock()
	for _, client := range h.clients[projectID] {
		select {
		case client.Send <- frame:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Hub", "Client send buffer full, dropping client", map[string]interface{}{"project_id": projectID})
		go h.Unregister(client)
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var envelope clusterEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			// Frames from this instance were already delivered locally.
			if envelope.Origin == h.instanceID {
				continue
			}
			h.deliverLocal(envelope.ProjectID, envelope.Message)
		}
	}
}
