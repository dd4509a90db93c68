package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/amirhossein5/faceauth/internal/biometric"
	"github.com/amirhossein5/faceauth/internal/enrollment"
	"github.com/amirhossein5/faceauth/internal/stream"
)

// Binary websocket messages are JPEG camera frames. Text messages are
// commands:
//
//	scan                 authenticate the latest frame
//	enroll:start:<id>    open an enrollment session for user id
//	enroll:capture       capture the latest frame as the next sample
//	enroll:finish        save the captured samples
//	enroll:cancel        abandon the session
//	enroll:status        report the session state as JSON
//
// Replies are text messages of the form "<topic>:<detail>".

// message is one websocket frame tagged with its payload type.
type message struct {
	binary bool
	data   []byte
}

var messageCodec = websocket.Codec{Marshal: marshalMessage, Unmarshal: unmarshalMessage}

func marshalMessage(v any) ([]byte, byte, error) {
	switch m := v.(type) {
	case string:
		return []byte(m), websocket.TextFrame, nil
	case message:
		if m.binary {
			return m.data, websocket.BinaryFrame, nil
		}
		return m.data, websocket.TextFrame, nil
	}
	return nil, 0, websocket.ErrNotSupported
}

func unmarshalMessage(data []byte, payloadType byte, v any) error {
	m, ok := v.(*message)
	if !ok {
		return websocket.ErrNotSupported
	}
	m.binary = payloadType == websocket.BinaryFrame
	m.data = data
	return nil
}

// cameraConn is the state of one camera websocket connection.
type cameraConn struct {
	s   *Server
	ws  *websocket.Conn
	ctx context.Context

	mu      sync.Mutex
	session *enrollment.Session
}

func (s *Server) cameraWebsocketHandler(ws *websocket.Conn) {
	ctx, cancel := context.WithCancel(ws.Request().Context())
	defer cancel()

	c := &cameraConn{s: s, ws: ws, ctx: ctx}
	defer c.closeSession()

	s.logger.Info("Camera websocket: connected", "remote", ws.Request().RemoteAddr)

	for {
		var msg message
		err := messageCodec.Receive(ws, &msg)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			s.logger.Warn("Camera websocket: failed to read websocket data", "error", err.Error())
			break
		}

		if msg.binary {
			c.handleFrame(msg.data)
			continue
		}
		c.handleCommand(strings.TrimSpace(string(msg.data)))
	}

	s.logger.Info("Camera websocket: disconnected", "remote", ws.Request().RemoteAddr)
}

func (c *cameraConn) handleFrame(data []byte) {
	if c.s.ignoreFrames {
		return
	}
	frame := biometric.NewFrame(data)
	c.s.latest.Publish(frame)

	if c.s.snapshotPath == "" {
		return
	}
	if err := stream.UpdateImage(c.s.snapshotPath, frame); err != nil {
		c.s.logger.Warn("Camera websocket: image write failed", "error", err.Error())
	}
}

func (c *cameraConn) handleCommand(cmd string) {
	switch {
	case cmd == "scan":
		c.scan()
	case strings.HasPrefix(cmd, "enroll:start:"):
		c.startEnrollment(strings.TrimPrefix(cmd, "enroll:start:"))
	case cmd == "enroll:capture":
		c.capture()
	case cmd == "enroll:finish":
		c.finish()
	case cmd == "enroll:cancel":
		c.cancel()
	case cmd == "enroll:status":
		c.status()
	default:
		c.send("error:unknown-command")
	}
}

func (c *cameraConn) send(reply string) {
	if err := messageCodec.Send(c.ws, reply); err != nil {
		c.s.logger.Debug("Camera websocket: failed to send reply", "reply", reply, "error", err.Error())
	}
}

func (c *cameraConn) latestFrame() (biometric.Frame, bool) {
	frame, ok := c.s.latest.Current()
	if !ok {
		c.send("error:no-frame")
	}
	return frame, ok
}

func (c *cameraConn) scan() {
	frame, ok := c.latestFrame()
	if !ok {
		return
	}

	decision, err := c.s.service.Authenticate(c.ctx, frame)
	switch {
	case errors.Is(err, biometric.ErrNoFaceDetected):
		c.send("auth:no-face")
		return
	case err != nil:
		c.s.logger.Error("Camera websocket: authentication failed", "error", err.Error())
		c.send("auth:error")
		return
	}

	if !decision.Recognized {
		c.send("auth:not-recognized")
		c.send("play-sound:warning")
		return
	}

	c.send(fmt.Sprintf("auth:recognized:%d", decision.UserID))
	c.send("play-sound:success")
}

func (c *cameraConn) currentSession() *enrollment.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *cameraConn) closeSession() {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.mu.Unlock()

	if session != nil {
		session.Close()
	}
}

func (c *cameraConn) startEnrollment(rawID string) {
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil || id == 0 {
		c.send("enroll:error:invalid-user")
		return
	}

	c.closeSession()

	session, err := c.s.service.StartEnrollment(c.ctx, biometric.UserID(id), nil)
	switch {
	case errors.Is(err, biometric.ErrUserNotFound):
		c.send("enroll:error:user-not-found")
		return
	case err != nil:
		c.s.logger.Error("Camera websocket: failed to start enrollment", "error", err.Error())
		c.send("enroll:error:internal")
		return
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	c.send(fmt.Sprintf("enroll:started:%d", id))
	c.send("enroll:instruction:" + session.Instruction())
}

func (c *cameraConn) withSession() (*enrollment.Session, bool) {
	session := c.currentSession()
	if session == nil {
		c.send("enroll:error:no-session")
	}
	return session, session != nil
}

// capture runs off the read loop so that a cancel command can abort it.
func (c *cameraConn) capture() {
	session, ok := c.withSession()
	if !ok {
		return
	}
	frame, ok := c.latestFrame()
	if !ok {
		return
	}

	results := session.CaptureAsync(c.ctx, frame)
	go func() {
		res := <-results
		c.sendCaptureResult(session, res)
	}()
}

func (c *cameraConn) sendCaptureResult(session *enrollment.Session, res enrollment.CaptureResult) {
	switch {
	case res.Err == nil:
	case errors.Is(res.Err, biometric.ErrNoFaceDetected):
		c.send("enroll:no-face")
		return
	case errors.Is(res.Err, biometric.ErrDimensionMismatch):
		c.send("enroll:rejected")
		return
	case errors.Is(res.Err, biometric.ErrSessionFinished):
		c.send("enroll:error:finished")
		return
	case errors.Is(res.Err, biometric.ErrCapabilityUnavailable):
		c.send("enroll:failed")
		return
	default:
		c.send("enroll:error:aborted")
		return
	}

	captured, required := session.Progress()
	c.send(fmt.Sprintf("enroll:captured:%d/%d", captured, required))
	if res.State.Phase == enrollment.PhaseComplete {
		c.send("enroll:complete")
		return
	}
	c.send("enroll:instruction:" + session.Instruction())
}

func (c *cameraConn) finish() {
	session, ok := c.withSession()
	if !ok {
		return
	}

	err := session.Finish(c.ctx)
	switch {
	case err == nil:
		c.send(fmt.Sprintf("enroll:saved:%d", session.UserID()))
		c.send("play-sound:success")
	case errors.Is(err, biometric.ErrIncompleteEnrollment):
		c.send("enroll:error:incomplete")
	case errors.Is(err, biometric.ErrSessionFinished):
		c.send("enroll:error:finished")
	default:
		c.s.logger.Error("Camera websocket: failed to finish enrollment", "error", err.Error())
		c.send("enroll:error:save-failed")
	}
}

func (c *cameraConn) cancel() {
	session, ok := c.withSession()
	if !ok {
		return
	}

	session.Cancel()
	c.send("enroll:cancelled")
}

func (c *cameraConn) status() {
	session, ok := c.withSession()
	if !ok {
		return
	}

	data, err := json.Marshal(session.Snapshot())
	if err != nil {
		c.s.logger.Error("Camera websocket: failed to encode status", "error", err.Error())
		c.send("enroll:error:internal")
		return
	}
	c.send("enroll:status:" + string(data))
}
