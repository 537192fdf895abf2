package kodi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// startSession connects to a new fake Kodi.  The returned stop func closes both ends and must run before any leak
// check.
func startSession(t *testing.T, handle func(string, json.RawMessage) (any, *RemoteError)) (*fakeKodi, *Session, func()) {
	t.Helper()
	fk := newFakeKodi(t, handle)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Connect(ctx, fk.endpoint())
	if err != nil {
		fk.srv.Close()
		t.Fatalf("connect failed: %v", err)
	}
	return fk, s, func() {
		s.Close()
		fk.srv.Close()
	}
}

func TestConnect(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	t.Run("HandshakePings", func(t *testing.T) {
		fk, s, stop := startSession(t, nil)
		defer stop()
		require.NoError(t, s.Close())

		calls := fk.recorded()
		require.NotEmpty(t, calls)
		assert.Equal(t, "JSONRPC.Ping", calls[0].Method)
	})

	t.Run("TransportFailure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		ep := endpointFor(t, srv.URL)
		srv.Close()

		_, err := Connect(context.Background(), ep)
		var ce *ConnectError
		assert.ErrorAs(t, err, &ce)
	})

	t.Run("RejectedHandshake", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		_, err := Connect(context.Background(), endpointFor(t, srv.URL))
		var ce *ConnectError
		assert.ErrorAs(t, err, &ce)
	})
}

func TestCall(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	_, s, stop := startSession(t, func(method string, params json.RawMessage) (any, *RemoteError) {
		switch method {
		case "Player.GetProperties":
			return map[string]any{"percentage": 12.5, "speed": 1}, nil
		case "Player.Stop":
			return nil, &RemoteError{Code: -32100, Message: "Failed to execute method."}
		case "Player.Seek":
			return "not an object", nil
		}
		return "OK", nil
	})
	defer stop()
	ctx := context.Background()

	t.Run("DecodesResult", func(t *testing.T) {
		props, err := s.PlayerGetProperties(ctx, 1, PropPercentage, PropSpeed)
		require.NoError(t, err)
		assert.Equal(t, 12.5, props.Percentage)
		assert.Equal(t, 1, props.Speed)
		assert.Equal(t, NoPlaylist, props.PlaylistID)
		assert.Equal(t, NoPosition, props.Position)
	})

	t.Run("RemoteFailure", func(t *testing.T) {
		err := s.PlayerStop(ctx, 1)
		require.Error(t, err)
		assert.True(t, IsRemote(err))
		assert.False(t, IsDecode(err))

		var pe *ProtocolError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, -32100, pe.Remote.Code)
		assert.Equal(t, "Player.Stop", pe.Method)
	})

	t.Run("DecodeFailure", func(t *testing.T) {
		_, err := s.PlayerSeek(ctx, 1, SeekBy(10))
		require.Error(t, err)
		assert.True(t, IsDecode(err))

		var pe *ProtocolError
		require.ErrorAs(t, err, &pe)
		assert.JSONEq(t, `"not an object"`, string(pe.Raw))
	})

	t.Run("CallAfterClose", func(t *testing.T) {
		require.NoError(t, s.Close())
		err := s.PlaylistClear(ctx, VideoPlaylist)
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestMethodParams(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	fk, s, stop := startSession(t, func(method string, params json.RawMessage) (any, *RemoteError) {
		switch method {
		case "Player.Seek":
			return map[string]any{"percentage": 50, "time": map[string]int{"hours": 0, "minutes": 1, "seconds": 5}}, nil
		case "Player.PlayPause":
			return map[string]int{"speed": 0}, nil
		}
		return "OK", nil
	})
	defer stop()
	ctx := context.Background()

	require.NoError(t, s.PlayerOpenItem(ctx, "http://10.0.0.2:4000/file/a"))
	require.NoError(t, s.PlaylistClear(ctx, VideoPlaylist))
	require.NoError(t, s.PlaylistAdd(ctx, VideoPlaylist, "http://h/file/a", "http://h/file/b"))
	require.NoError(t, s.PlayerOpenPlaylist(ctx, VideoPlaylist, 0))
	res, err := s.PlayerSeek(ctx, 1, SeekBy(-30))
	require.NoError(t, err)
	assert.Equal(t, 50.0, res.Percentage)
	assert.Equal(t, 65*time.Second, res.Time.Duration())
	_, err = s.PlayerSeek(ctx, 1, SeekStep(StepBigForward))
	require.NoError(t, err)
	_, err = s.PlayerSeek(ctx, 1, SeekTo(GlobalTimeFromDuration(90*time.Minute)))
	require.NoError(t, err)
	speed, err := s.PlayerPlayPause(ctx, 1, ToggleSwitch)
	require.NoError(t, err)
	assert.Equal(t, 0, speed)
	_, err = s.PlayerPlayPause(ctx, 1, ToggleOff)
	require.NoError(t, err)
	require.NoError(t, s.PlayerGoTo(ctx, 1, GoToNext))
	require.NoError(t, s.PlayerGoTo(ctx, 1, GoToPosition(3)))
	require.NoError(t, s.GUIActivateWindow(ctx, WindowFullscreenVideo))

	got := fk.recorded()[1:] // skip the handshake
	want := []recordedCall{
		{"Player.Open", `{"item":{"file":"http://10.0.0.2:4000/file/a"}}`},
		{"Playlist.Clear", `{"playlistid":1}`},
		{"Playlist.Add", `{"playlistid":1,"item":[{"file":"http://h/file/a"},{"file":"http://h/file/b"}]}`},
		{"Player.Open", `{"item":{"playlistid":1,"position":0}}`},
		{"Player.Seek", `{"playerid":1,"value":{"seconds":-30}}`},
		{"Player.Seek", `{"playerid":1,"value":{"step":"bigforward"}}`},
		{"Player.Seek", `{"playerid":1,"value":{"time":{"hours":1,"minutes":30,"seconds":0,"milliseconds":0}}}`},
		{"Player.PlayPause", `{"playerid":1,"play":"toggle"}`},
		{"Player.PlayPause", `{"playerid":1,"play":false}`},
		{"Player.GoTo", `{"playerid":1,"to":"next"}`},
		{"Player.GoTo", `{"playerid":1,"to":3}`},
		{"GUI.ActivateWindow", `{"window":"fullscreenvideo","parameters":["required parameter"]}`},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected calls (-want +got):\n%s", diff)
	}
}

func TestSubscribe(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	fk, s, stop := startSession(t, nil)
	defer stop()

	notifications, err := s.Subscribe()
	require.NoError(t, err)

	_, err = s.Subscribe()
	assert.ErrorIs(t, err, ErrAlreadySubscribed)

	fk.push(`{"jsonrpc":"2.0","method":"GUI.OnScreensaverActivated","params":{"data":null,"sender":"xbmc"}}`)
	fk.push(`{"jsonrpc":"2.0","method":"Player.OnPlay","params":{"data":{"item":{"type":"bogus"},"player":{"playerid":1,"speed":1}},"sender":"xbmc"}}`)
	fk.push(`{"jsonrpc":"2.0","method":"Player.OnAVStart","params":{"data":{"item":{"title":"a","type":"movie"},"player":{"playerid":1,"speed":1}},"sender":"xbmc"}}`)
	fk.push(`{"jsonrpc":"2.0","method":"Player.OnStop","params":{"data":{"item":{"title":"a","type":"movie"},"end":true},"sender":"xbmc"}}`)

	n := receive(t, notifications)
	assert.Equal(t, NotifyAVStart, n.Kind)
	assert.Equal(t, PlayerID(1), n.Player.ID)
	assert.Equal(t, "a", n.Item.Title)
	assert.Equal(t, "xbmc", n.Sender)

	n = receive(t, notifications)
	assert.Equal(t, NotifyStop, n.Kind)
	assert.True(t, n.End)

	require.NoError(t, s.Close())
	_, ok := <-notifications
	assert.False(t, ok, "notifications should close with the session")
}

func TestSubscribeDoesNotBlockCalls(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	fk, s, stop := startSession(t, nil)
	defer stop()
	_, err := s.Subscribe()
	require.NoError(t, err)

	// Nobody reads the notifications, calls must still complete
	for i := 0; i < 50; i++ {
		fk.push(`{"jsonrpc":"2.0","method":"Player.OnPause","params":{"data":{"item":{"type":"unknown","title":"x"},"player":{"playerid":1,"speed":0}},"sender":"xbmc"}}`)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, s.PlaylistClear(ctx, VideoPlaylist))
}

func TestConnectionLoss(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	fk, s, stop := startSession(t, nil)
	defer stop()
	notifications, err := s.Subscribe()
	require.NoError(t, err)

	<-fk.ready
	fk.mu.Lock()
	fk.conn.Close()
	fk.mu.Unlock()

	select {
	case _, ok := <-notifications:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("notification stream did not end")
	}
	err = s.PlaylistClear(context.Background(), VideoPlaylist)
	assert.True(t, errors.Is(err, ErrClosed))
}

func receive(t *testing.T, ch <-chan Notification) Notification {
	t.Helper()
	select {
	case n, ok := <-ch:
		require.True(t, ok, "notification stream closed")
		return n
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
	return Notification{}
}
