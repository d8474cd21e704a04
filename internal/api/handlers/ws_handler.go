package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/bikeshop-agent/internal/channel"
	"github.com/yoockh/bikeshop-agent/internal/services"
	"github.com/yoockh/bikeshop-agent/internal/utils"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsMaxAudio     = 10 << 20
)

type WSHandler struct {
	conversations services.ConversationService
	redis         *redis.Client
	upgrader      websocket.Upgrader
	log           *logrus.Logger
}

// NewWSHandler accepts origins the same way the CORS middleware does; "*" allows any.
func NewWSHandler(conversations services.ConversationService, rdb *redis.Client, allowedOrigins []string, log *logrus.Logger) *WSHandler {
	allowAll := false
	allowed := map[string]struct{}{}
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return &WSHandler{
		conversations: conversations,
		redis:         rdb,
		log:           log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if allowAll || origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

type wsClientMsg struct {
	Type        string `json:"type"` // message | audio | end
	Text        string `json:"text"`
	AudioBase64 string `json:"audio_base64"`
	Language    string `json:"language"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) writeEvent(ev channel.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return w.writeText(b)
}

// Conversation bridges a WebSocket to the chat stream. Client messages are
// queued on the inbound stream and replies come back over pub/sub.
func (h *WSHandler) Conversation(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := h.conversations.History(c.Request.Context(), sessionID); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxAudio * 2)

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.redis.Subscribe(ctx, channel.EventsChannel(sessionID))
	defer pubsub.Close()

	log := h.log.WithField("session_id", sessionID)
	_ = wc.writeEvent(channel.Status("ready", "connected"))

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		})

		for {
			_, data, rerr := conn.ReadMessage()
			if rerr != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

			var msg wsClientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = wc.writeEvent(channel.Error(utils.CodeInvalidArgument, "invalid json"))
				continue
			}

			switch msg.Type {
			case "message":
				if msg.Text == "" {
					_ = wc.writeEvent(channel.Error(utils.CodeInvalidArgument, "text is required"))
					continue
				}
				h.enqueue(ctx, wc, log, channel.Inbound{SessionID: sessionID, Text: msg.Text})

			case "audio":
				if msg.AudioBase64 == "" || len(msg.AudioBase64) > wsMaxAudio*4/3 {
					_ = wc.writeEvent(channel.Error(utils.CodeInvalidArgument, "audio_base64 is required and must be under 10MB"))
					continue
				}
				h.enqueue(ctx, wc, log, channel.Inbound{SessionID: sessionID, AudioBase64: msg.AudioBase64, Language: msg.Language})

			case "end":
				if err := h.conversations.End(ctx, sessionID); err != nil {
					log.WithError(err).Warn("ending conversation over websocket failed")
				}
				_ = wc.writeEvent(channel.Status("ended", "conversation ended"))
				return

			default:
				_ = wc.writeEvent(channel.Error(utils.CodeInvalidArgument, "unknown message type"))
			}
		}
	}()

	// writer: Redis Pub/Sub -> WS
	msgs := pubsub.Channel()
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case m, ok := <-msgs:
			if !ok {
				return
			}
			// forward as-is (payload is a marshalled channel.Event)
			if werr := wc.writeText([]byte(m.Payload)); werr != nil {
				return
			}
		}
	}
}

func (h *WSHandler) enqueue(ctx context.Context, wc *wsConn, log *logrus.Entry, in channel.Inbound) {
	if err := channel.Enqueue(ctx, h.redis, in); err != nil {
		log.WithError(err).Warn("enqueue chat message failed")
		_ = wc.writeEvent(channel.Error(utils.CodeUnavailable, "failed to queue message"))
		return
	}
	_ = wc.writeEvent(channel.Status("processing", "message queued"))
}
