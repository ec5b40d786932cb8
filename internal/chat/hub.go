package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"
	"go.mongodb.org/mongo-driver/v2/bson"

	"felicity/internal/dto"
	"felicity/internal/model"
	"felicity/internal/repo"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub relays an event's chat thread. Every event gets its own room; joining
// replays the stored history, and each accepted message is persisted before
// it is broadcast, so reconnecting clients never lose messages.
type Hub struct {
	repo repo.Repository
	log  *zerolog.Logger

	mu    sync.Mutex
	rooms map[bson.ObjectID]map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(repo repo.Repository, log *zerolog.Logger) *Hub {
	return &Hub{
		repo:  repo,
		log:   log,
		rooms: make(map[bson.ObjectID]map[*client]struct{}),
	}
}

// inbound is one frame from a connected client. A frame either posts a new
// message or, with action=status, pins or deletes an existing one.
type inbound struct {
	Action              string              `json:"action,omitempty"`
	ID                  string              `json:"id,omitempty"`
	Status              model.MessageStatus `json:"status,omitempty"`
	MessageType         model.MessageType   `json:"messageType,omitempty"`
	Content             string              `json:"content,omitempty"`
	SenderID            string              `json:"senderId,omitempty"`
	SenderName          string              `json:"senderName,omitempty"`
	OrganizerID         string              `json:"organizerId,omitempty"`
	ReferencedMessageID string              `json:"referencedMessageId,omitempty"`
}

type statusUpdate struct {
	ID     string              `json:"id"`
	Status model.MessageStatus `json:"status"`
}

// Handler upgrades the request and serves the room for /ws/:eventId.
func (h *Hub) Handler(c *ginext.Context) {
	eventID, err := bson.ObjectIDFromHex(c.Param("eventId"))
	if err != nil {
		dto.BadResponseError(c, dto.FieldBadFormat, "Invalid eventId")
		return
	}

	ev, err := h.repo.GetEventByID(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(c)
			return
		}
		h.log.Error().Err(err).Msg("failed to get event for chat")
		dto.InternalServerError(c)
		return
	}
	if ev.Status == model.StatusDraft {
		dto.EventNotFoundError(c)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	cl := &client{conn: conn, send: make(chan []byte, 32)}
	h.join(eventID, cl)
	defer h.leave(eventID, cl)

	go cl.writeLoop()
	h.replayHistory(eventID, cl)
	h.readLoop(eventID, cl)
}

func (h *Hub) join(eventID bson.ObjectID, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[eventID]
	if room == nil {
		room = make(map[*client]struct{})
		h.rooms[eventID] = room
	}
	room[cl] = struct{}{}
}

func (h *Hub) leave(eventID bson.ObjectID, cl *client) {
	h.mu.Lock()
	room := h.rooms[eventID]
	delete(room, cl)
	if len(room) == 0 {
		delete(h.rooms, eventID)
	}
	h.mu.Unlock()

	close(cl.send)
}

func (h *Hub) replayHistory(eventID bson.ObjectID, cl *client) {
	messages, err := h.repo.ListMessagesByEvent(context.Background(), eventID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load chat history")
		return
	}
	for i := range messages {
		if messages[i].Status == model.MsgDeleted {
			continue
		}
		payload, err := json.Marshal(messages[i])
		if err != nil {
			continue
		}
		cl.deliver(payload, h.log)
	}
}

func (h *Hub) readLoop(eventID bson.ObjectID, cl *client) {
	for {
		_, raw, err := cl.conn.ReadMessage()
		if err != nil {
			return
		}

		var in inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			h.log.Warn().Err(err).Msg("discarding malformed chat frame")
			continue
		}

		if in.Action == "status" {
			h.handleStatus(eventID, in)
			continue
		}
		h.handleMessage(eventID, in)
	}
}

func (h *Hub) handleMessage(eventID bson.ObjectID, in inbound) {
	ctx := context.Background()

	msg := &model.Message{
		EventID:      eventID,
		MessageType:  in.MessageType,
		SenderID:     in.SenderID,
		Content:      in.Content,
		SenderName:   in.SenderName,
		ReferencedBy: []bson.ObjectID{},
		Status:       model.MsgNormal,
		CreatedAt:    time.Now(),
	}
	if msg.MessageType == "" {
		msg.MessageType = model.MsgMessage
	}
	if in.OrganizerID != "" {
		if id, err := bson.ObjectIDFromHex(in.OrganizerID); err == nil {
			msg.OrganizerID = id
		}
	}
	if in.ReferencedMessageID != "" {
		if id, err := bson.ObjectIDFromHex(in.ReferencedMessageID); err == nil {
			msg.ReferencedMessageID = id
		}
	}

	id, err := h.repo.CreateMessage(ctx, msg)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to persist chat message")
		return
	}
	msg.ID = id

	if !msg.ReferencedMessageID.IsZero() {
		if err := h.repo.AddMessageReference(ctx, msg.ReferencedMessageID, id); err != nil {
			h.log.Warn().Err(err).Msg("failed to link message reference")
		}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal chat message")
		return
	}
	h.broadcast(eventID, payload)
}

func (h *Hub) handleStatus(eventID bson.ObjectID, in inbound) {
	id, err := bson.ObjectIDFromHex(in.ID)
	if err != nil {
		return
	}
	if in.Status != model.MsgNormal && in.Status != model.MsgPinned && in.Status != model.MsgDeleted {
		return
	}

	if err := h.repo.SetMessageStatus(context.Background(), id, in.Status); err != nil {
		h.log.Warn().Err(err).Msg("failed to update message status")
		return
	}

	payload, err := json.Marshal(statusUpdate{ID: in.ID, Status: in.Status})
	if err != nil {
		return
	}
	h.broadcast(eventID, payload)
}

// broadcast fans the payload out to the room. Slow consumers get dropped
// frames instead of blocking the room.
func (h *Hub) broadcast(eventID bson.ObjectID, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.rooms[eventID] {
		cl.deliver(payload, h.log)
	}
}

func (cl *client) deliver(payload []byte, log *zerolog.Logger) {
	select {
	case cl.send <- payload:
	default:
		log.Warn().Msg("chat client too slow, dropping frame")
	}
}

func (cl *client) writeLoop() {
	defer cl.conn.Close()
	for payload := range cl.send {
		if err := cl.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	_ = cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
