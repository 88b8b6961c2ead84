package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/MeKo-Tech/droste/internal/animation"
	"github.com/MeKo-Tech/droste/internal/homography"
	"github.com/MeKo-Tech/droste/internal/matrix"
	"github.com/MeKo-Tech/droste/internal/scene"
	"github.com/MeKo-Tech/droste/internal/utils"
	"github.com/gorilla/websocket"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ClientMessage is any message a client sends on /ws.
//
//	{"type":"scene","width":800,"height":600,"points":[...],"relative":true,"depth":32}
//	{"type":"move","index":1,"x":420,"y":80,"edit":"mirror"}
//	{"type":"animation","mode":"in"}
type ClientMessage struct {
	Type     string    `json:"type"`
	Width    float64   `json:"width,omitempty"`
	Height   float64   `json:"height,omitempty"`
	Points   []float64 `json:"points,omitempty"`
	Relative bool      `json:"relative,omitempty"`
	Depth    int       `json:"depth,omitempty"`
	Index    int       `json:"index,omitempty"`
	X        float64   `json:"x,omitempty"`
	Y        float64   `json:"y,omitempty"`
	Edit     string    `json:"edit,omitempty"`
	Mode     string    `json:"mode,omitempty"`
}

// StackMessage is sent after every accepted scene change.
type StackMessage struct {
	Type   string    `json:"type"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Points []float64 `json:"points"`
	StackResponse
}

// FrameMessage carries the animated matrix for one tick.
type FrameMessage struct {
	Type     string         `json:"type"`
	Index    uint64         `json:"index"`
	Mode     animation.Mode `json:"mode"`
	Progress float64        `json:"progress"`
	Matrix   matrix.Mat4    `json:"matrix"`
	CSS      string         `json:"css"`
}

// ErrorMessage reports a rejected client message; the session keeps its last valid state.
type ErrorMessage struct {
	Type      string `json:"type"`
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
}

// WebSocketConnWriter is the subset of *websocket.Conn used for sending.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// session is one connection's scene and animation player.
type session struct {
	mu     sync.Mutex // serializes writes
	conn   WebSocketConnWriter
	scene  *scene.Scene
	player *animation.Player
}

// webSocketHandler streams stacks and animation frames for an interactive client.
func (s *Server) webSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	metrics.wsConnections.Inc()
	defer metrics.wsConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(r.Context(), conn)
}

func (s *Server) newSession(conn WebSocketConnWriter) (*session, error) {
	w, h := float64(s.scene.Width), float64(s.scene.Height)
	quad := homography.QuadFromRelative(w, h, s.scene.Points)
	sc, err := scene.New(s.composer, w, h, quad, s.scene.Depth)
	if err != nil {
		return nil, err
	}

	sess := &session{conn: conn, scene: sc}
	interp := animation.NewInterpolator(s.animationStep)
	if err := interp.SetBase(sc.State().Base); err != nil {
		slog.Warn("Initial animation target unavailable", "error", err)
	} else {
		interp.SetMode(s.initialMode)
	}
	sess.player = animation.NewPlayer(interp, s.frameInterval, sess.sendFrame, func(err error) {
		sess.sendError(err)
	})
	return sess, nil
}

func (s *Server) handleWebSocketConnection(parent context.Context, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sess, err := s.newSession(conn)
	if err != nil {
		slog.Error("Failed to create session", "error", err)
		return
	}
	sess.scene.OnBaseChange(func(base matrix.Mat4) {
		if err := sess.player.Send(ctx, animation.SetBaseCommand(base)); err != nil {
			slog.Debug("Base change not delivered", "error", err)
		}
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := sess.player.Run(ctx); err != nil {
			slog.Debug("Animation player stopped", "error", err)
		}
		cancel()
	}()
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				// Unblocks ReadMessage when the server or the player stops first.
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				_ = conn.Close()
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	sess.sendStack()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}
		metrics.wsMessages.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			sess.handleMessage(ctx, data)
		}
	}
}

func (sess *session) handleMessage(ctx context.Context, data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		sess.sendErrorType(errTypeInvalidRequest, fmt.Sprintf("Failed to parse message: %v", err))
		return
	}

	switch msg.Type {
	case "scene":
		start := time.Now()
		err := sess.applyScene(msg)
		metrics.observeCompose("websocket", start, err)
		if err != nil {
			sess.sendError(err)
			return
		}
		sess.sendStack()
	case "move":
		edit, err := utils.ParseEditMode(msg.Edit)
		if err != nil {
			sess.sendErrorType(errTypeInvalidRequest, err.Error())
			return
		}
		if err := sess.scene.MovePoint(msg.Index, utils.Point{X: msg.X, Y: msg.Y}, edit); err != nil {
			sess.sendError(err)
			return
		}
		sess.sendStack()
	case "animation":
		mode, err := animation.ParseMode(msg.Mode)
		if err != nil {
			sess.sendErrorType(errTypeInvalidRequest, err.Error())
			return
		}
		if err := sess.player.Send(ctx, animation.SetModeCommand(mode)); err != nil {
			slog.Debug("Animation command not delivered", "error", err)
		}
	default:
		sess.sendErrorType(errTypeInvalidRequest, "Unsupported message type: "+msg.Type)
	}
}

// applyScene applies size, then points, then depth; the first failure stops.
func (sess *session) applyScene(msg ClientMessage) error {
	if msg.Width != 0 || msg.Height != 0 {
		st := sess.scene.State()
		if msg.Width != st.Width || msg.Height != st.Height {
			if err := sess.scene.Resize(msg.Width, msg.Height); err != nil {
				return err
			}
		}
	}
	if msg.Points != nil {
		st := sess.scene.State()
		req := HomographyRequest{Width: st.Width, Height: st.Height, Points: msg.Points, Relative: msg.Relative}
		quad, err := req.quad()
		if err != nil {
			return err
		}
		if err := sess.scene.SetQuad(quad); err != nil {
			return err
		}
	}
	if msg.Depth != 0 {
		if err := sess.scene.SetDepth(msg.Depth); err != nil {
			return err
		}
	}
	return nil
}

func (sess *session) sendStack() {
	st := sess.scene.State()
	points := make([]float64, 0, 8)
	for _, p := range st.Quad {
		points = append(points, p.X, p.Y)
	}
	metrics.stackDepth.Observe(float64(st.Depth))
	sess.send(StackMessage{
		Type:          "stack",
		Width:         st.Width,
		Height:        st.Height,
		Points:        points,
		StackResponse: newStackResponse(st.Stack),
	})
}

func (sess *session) sendFrame(f animation.Frame) error {
	metrics.frames.Inc()
	return sess.write(FrameMessage{
		Type:     "frame",
		Index:    f.Index,
		Mode:     f.Mode,
		Progress: f.Progress,
		Matrix:   f.Matrix,
		CSS:      f.Matrix.CSS(),
	})
}

func (sess *session) sendError(err error) {
	_, errType := classifyError(err)
	if errors.Is(err, errBadPoints) {
		errType = errTypeInvalidRequest
	}
	sess.sendErrorType(errType, err.Error())
}

func (sess *session) sendErrorType(errType, message string) {
	sess.send(ErrorMessage{Type: "error", Error: message, ErrorType: errType})
}

func (sess *session) send(v any) {
	if err := sess.write(v); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
	}
}

func (sess *session) write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	metrics.wsMessages.WithLabelValues("sent").Inc()
	return nil
}
