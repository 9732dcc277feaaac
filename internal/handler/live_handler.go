package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom-backend/internal/middleware"
	"github.com/stemsi/quizroom-backend/internal/model"
	"github.com/stemsi/quizroom-backend/internal/response"
	"github.com/stemsi/quizroom-backend/internal/service"
	ws "github.com/stemsi/quizroom-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// QuizOwnership resolves a quiz only for its owner.
type QuizOwnership interface {
	Get(ctx context.Context, owner, id uuid.UUID) (*model.QuizDetail, error)
}

// LiveHandler streams a quiz's submissions to its teacher over WebSocket.
type LiveHandler struct {
	feed     *service.LiveFeed
	quizzes  QuizOwnership
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewLiveHandler creates a new LiveHandler.
func NewLiveHandler(feed *service.LiveFeed, quizzes QuizOwnership, log zerolog.Logger, allowedOrigins []string) *LiveHandler {
	return &LiveHandler{
		feed:     feed,
		quizzes:  quizzes,
		log:      log.With().Str("component", "live_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// QuizLiveStream godoc
// WS /ws/v1/teacher/quizzes/:id/live?token=...
// Pushes a "submission" event for every attempt submitted while connected.
func (h *LiveHandler) QuizLiveStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, ok := pathID(c, "id")
	if !ok {
		return
	}

	// Ownership is checked before the upgrade so failures stay plain HTTP.
	if _, err := h.quizzes.Get(c.Request.Context(), claims.UserID, quizID); err != nil {
		fail(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("teacher_id", claims.UserID.String()).
		Str("quiz_id", quizID.String()).
		Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub, err := h.feed.Subscribe(ctx, quizID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Live feed subscribe failed")
		_ = ws.WriteError(conn, "live feed unavailable")
		return
	}
	defer pubsub.Close()

	if err := ws.WriteTyped(conn, ws.ReadyResponse{Event: ws.EventReady, QuizID: quizID.String()}); err != nil {
		return
	}
	wsLog.Info().Msg("Teacher connected to live feed")

	// Reader: answers pings and notices disconnects.
	pongs := make(chan struct{}, 1)
	go h.readLoop(conn, wsLog, pongs, cancel)

	ticker := time.NewTicker(ws.PingPeriod)
	defer ticker.Stop()
	messages := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			wsLog.Debug().Msg("Live feed closed")
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if err := ws.WriteSubmission(conn, msg.Payload); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}
		case <-pongs:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}
		case <-ticker.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		}
	}
}

// readLoop is the connection's only reader. It cancels the stream when the client goes away.
func (h *LiveHandler) readLoop(conn *websocket.Conn, wsLog zerolog.Logger, pongs chan<- struct{}, cancel context.CancelFunc) {
	defer cancel()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(ws.PongWait))
	})

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			select {
			case pongs <- struct{}{}:
			default:
			}
		default:
			wsLog.Debug().Str("action", string(msg.Action)).Msg("Unknown action")
		}
	}
}
