package collab

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/coder/websocket"

	"github.com/inamate/geoscene/internal/document"
	"github.com/inamate/geoscene/internal/engine"
	"github.com/inamate/geoscene/internal/typeid"
)

// DocumentLoader returns the document a room starts from.
type DocumentLoader func(sceneID string) (*document.SceneDocument, error)

// DocumentSaver persists the document of a room.
type DocumentSaver func(sceneID string, doc *document.SceneDocument) error

type Room struct {
	sceneID  string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	state    *SceneState
}

func NewRoom(sceneID string, state *SceneState) *Room {
	return &Room{
		sceneID:  sceneID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		state:    state,
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // sceneID -> room
	register   chan *Client
	unregister chan *Client
	stop       chan chan struct{}

	loader     DocumentLoader
	saver      DocumentSaver
	engineOpts []engine.BoardOption
}

func NewHub(loader DocumentLoader, saver DocumentSaver, opts ...engine.BoardOption) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan chan struct{}),
		loader:     loader,
		saver:      saver,
		engineOpts: opts,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case done := <-h.stop:
			h.saveAll()
			close(done)
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Stop saves every room with unsaved operations and stops Run.
func (h *Hub) Stop() {
	done := make(chan struct{})
	h.stop <- done
	<-done
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SceneID]
	if !ok {
		state, err := h.loadState(client.SceneID)
		if err != nil {
			h.mu.Unlock()
			slog.Error("load scene", "scene", client.SceneID, "error", err)
			client.fail(websocket.StatusInternalError, "failed to load scene")
			return
		}
		room = NewRoom(client.SceneID, state)
		h.rooms[client.SceneID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	seq := room.state.ServerSeq()
	welcome, _ := json.Marshal(WelcomePayload{
		ClientID:  client.ClientID,
		UserID:    client.UserID,
		SceneID:   client.SceneID,
		ServerSeq: seq,
	})
	client.Send(&Message{Type: TypeWelcome, SceneID: client.SceneID, Payload: welcome})

	docJSON, err := json.Marshal(room.state.GetDocument())
	if err != nil {
		slog.Error("marshal document", "scene", client.SceneID, "error", err)
	} else {
		syncPayload, _ := json.Marshal(DocSyncPayload{Document: docJSON, ServerSeq: seq})
		client.Send(&Message{Type: TypeDocSync, SceneID: client.SceneID, Seq: seq, Payload: syncPayload})
	}

	// Send current presence state to new client
	stateMsg := room.presence.StateMessage()
	if stateMsg != nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg := &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}
	h.broadcastToRoom(client.SceneID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "scene", client.SceneID)
}

func (h *Hub) loadState(sceneID string) (*SceneState, error) {
	doc, err := h.loader(sceneID)
	if err != nil {
		return nil, err
	}
	return NewSceneState(doc, h.engineOpts...)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SceneID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.closeSend()
	room.presence.Remove(client.UserID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.SceneID)
	}
	h.mu.Unlock()

	if empty {
		h.save(room)
	}

	// Broadcast leave to remaining clients
	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		UserID: client.UserID,
	})
	leaveMsg := &Message{
		Type:    TypePresenceLeave,
		UserID:  client.UserID,
		Payload: leavePayload,
	}
	h.broadcastToRoom(client.SceneID, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "scene", client.SceneID)
}

func (h *Hub) save(room *Room) {
	if h.saver == nil || !room.state.TakeDirty() {
		return
	}
	if err := h.saver(room.sceneID, room.state.GetDocument()); err != nil {
		slog.Error("save scene", "scene", room.sceneID, "error", err)
		return
	}
	slog.Info("scene saved", "scene", room.sceneID)
}

func (h *Hub) saveAll() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()

	for _, r := range rooms {
		h.save(r)
	}
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		slog.Warn("invalid op payload", "error", err, "user", sender.UserID)
		sender.Send(errorMessage("invalid operation payload"))
		return
	}
	op := submit.Operation
	if op.ID == "" {
		op.ID = typeid.NewOpID()
	}

	h.mu.RLock()
	room, ok := h.rooms[sender.SceneID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	seq, result, err := room.state.ApplyOperation(&op)
	if err != nil {
		slog.Debug("operation rejected", "op", op.Type, "element", op.ElementID, "error", err)
		nack, _ := json.Marshal(OperationNackPayload{OperationID: op.ID, Reason: err.Error()})
		sender.Send(&Message{Type: TypeOpNack, SceneID: sender.SceneID, Payload: nack})
		return
	}

	if len(result.Removed) > 0 {
		room.presence.DropSelected(result.Removed)
	}

	ack, _ := json.Marshal(OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       seq,
		ServerTimestamp: GetServerTimestamp(),
		Result:          result,
	})
	sender.Send(&Message{Type: TypeOpAck, SceneID: sender.SceneID, Seq: seq, Payload: ack})

	broadcast, _ := json.Marshal(OperationBroadcastPayload{
		Operation: op,
		UserID:    sender.UserID,
		ServerSeq: seq,
		Result:    result,
	})
	h.broadcastToRoom(sender.SceneID, &Message{
		Type:    TypeOpBroadcast,
		SceneID: sender.SceneID,
		UserID:  sender.UserID,
		Seq:     seq,
		Payload: broadcast,
	}, sender.ClientID)
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	h.mu.RLock()
	room, ok := h.rooms[sender.SceneID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	room.presence.Update(sender.UserID, &presence)

	// Broadcast to other clients in room
	outPayload, _ := json.Marshal(presence)
	outMsg := &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}
	h.broadcastToRoom(sender.SceneID, outMsg, sender.ClientID)
}

func (h *Hub) broadcastToRoom(sceneID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[sceneID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

func errorMessage(text string) *Message {
	payload, _ := json.Marshal(ErrorPayload{Message: text})
	return &Message{Type: TypeError, Payload: payload}
}
