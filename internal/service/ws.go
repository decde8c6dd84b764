package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/stream-decoder/internal/decoder"
	"github.com/airenas/stream-decoder/internal/utils"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

// EOS text message marks the end of the audio stream
const EOS = "EOS"

var errClientGone = errors.New("client disconnected")

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	}}

type wsResult struct {
	ID       string          `json:"id,omitempty"`
	Result   string          `json:"result"`
	Timed    json.RawMessage `json:"timed"`
	Finished bool            `json:"finished"`
	Error    string          `json:"error,omitempty"`
}

type wsMsg struct {
	t   int
	msg []byte
}

func subscribe(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return err
		}
		defer ws.Close()

		return handleSpeech(data.Ctx, data, ws)
	}
}

// handleSpeech decodes audio from binary frames and pushes results until the session is finished
func handleSpeech(ctx context.Context, data *Data, conn *websocket.Conn) error {
	id, err := data.Sessions.Create()
	if err != nil {
		_ = conn.WriteJSON(wsResult{Error: err.Error()})
		return fmt.Errorf("create session: %w", err)
	}
	goapp.Log.Info().Str("id", id).Msg("ws session")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := data.Sessions.Delete(ctx, id); err != nil {
			goapp.Log.Warn().Err(err).Str("id", id).Msg("delete session")
		}
	}()
	ctrl, err := data.Sessions.Controller(id)
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return readAudio(ctx, data.Sessions, id, conn)
	})
	eg.Go(func() error {
		return pushResults(ctx, ctrl, conn, data.PushInterval)
	})
	err = eg.Wait()
	goapp.Log.Info().Str("id", id).Msg("ws session finished")
	if errors.Is(err, errClientGone) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func readAudio(ctx context.Context, sessions *SessionManager, id string, conn *websocket.Conn) error {
	readCh := readWebSocket(ctx, conn)
	for {
		var d wsMsg
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-readCh:
			if !ok {
				return errClientGone
			}
		}
		switch d.t {
		case websocket.BinaryMessage:
			if len(d.msg)%2 != 0 {
				return fmt.Errorf("odd PCM byte count %d", len(d.msg))
			}
			if err := sessions.AddAudio(id, utils.ToSamples(d.msg)); err != nil {
				return err
			}
		case websocket.TextMessage:
			if string(d.msg) != EOS {
				goapp.Log.Warn().Str("msg", string(d.msg)).Msg("unknown message")
				continue
			}
			goapp.Log.Debug().Str("id", id).Msg("EOS")
			return sessions.Finish(id)
		}
	}
}

// pushResults is the only writer to the connection
func pushResults(ctx context.Context, ctrl *decoder.Controller, conn *websocket.Conn, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	id := ctrl.Snapshot().ID
	last := ""
	first := true
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := ctrl.Err(); err != nil {
			_ = conn.WriteJSON(wsResult{ID: id, Error: err.Error()})
			return err
		}
		finished := ctrl.GetFinished()
		res := ctrl.GetResult()
		if res == last && !finished && !first {
			continue
		}
		first = false
		last = res
		msg := wsResult{ID: id, Result: res, Timed: json.RawMessage(ctrl.GetTimedResult()), Finished: finished}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("write: %w", err)
		}
		if finished {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return nil
		}
	}
}

func readWebSocket(ctx context.Context, in *websocket.Conn) <-chan wsMsg {
	resCh := make(chan wsMsg)
	go func() {
		defer close(resCh)
		defer goapp.Log.Debug().Msg("read routine ended")
		for {
			mType, message, err := in.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) ||
					errors.Is(err, net.ErrClosed) {
					goapp.Log.Info().Msg("connection closed")
					return
				}
				goapp.Log.Error().Err(err).Send()
				return
			}
			select {
			case resCh <- wsMsg{t: mType, msg: message}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return resCh
}
