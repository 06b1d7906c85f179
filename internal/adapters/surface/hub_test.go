package surface_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/okian/scoreboard/internal/adapters/surface"
	"github.com/okian/scoreboard/internal/domain/reveal"
	. "github.com/smartystreets/goconvey/convey"
)

func dial(srv *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	So(err, ShouldBeNil)
	return conn
}

func waitClients(hub *surface.Hub, n int) {
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	So(hub.ClientCount(), ShouldEqual, n)
}

// drained waits until the hub loop has taken every queued broadcast, so a
// client registered afterwards sees them as history.
func drained(hub *surface.Hub) {
	deadline := time.Now().Add(2 * time.Second)
	for hub.GetStats()["broadcast_usage"] != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
}

func read(conn *websocket.Conn) surface.Message {
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg surface.Message
	So(conn.ReadJSON(&msg), ShouldBeNil)
	return msg
}

func TestHub(t *testing.T) {
	Convey("Given a running hub behind a websocket endpoint", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		hub := surface.NewHub()
		go hub.Run(ctx)
		handler := surface.NewHandler(ctx, hub)
		srv := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
		defer srv.Close()

		Convey("When a display connects and a step is rendered", func() {
			conn := dial(srv)
			defer conn.Close()
			waitClients(hub, 1)

			So(hub.Clear(ctx), ShouldBeNil)
			So(hub.Render(ctx, cellStep(0, 1, 0, "Beta", "Round 1", "4.5")), ShouldBeNil)

			Convey("Then the display receives clear then the step", func() {
				So(read(conn).Type, ShouldEqual, surface.MessageTypeClear)
				msg := read(conn)
				So(msg.Type, ShouldEqual, surface.MessageTypeStep)
				So(msg.Step.TeamName, ShouldEqual, "Beta")
				So(msg.Step.Value.Equal(d("4.5")), ShouldBeTrue)
			})
		})

		Convey("When a display joins mid-reveal", func() {
			So(hub.SetBoard(surface.Board{Title: "Quiz", Teams: []string{"Alpha", "Beta"}, Categories: []string{"Round 1"}}), ShouldBeNil)
			So(hub.Render(ctx, cellStep(0, 0, 0, "Alpha", "Round 1", "1")), ShouldBeNil)
			So(hub.Clear(ctx), ShouldBeNil)
			So(hub.Render(ctx, cellStep(0, 1, 0, "Beta", "Round 1", "2")), ShouldBeNil)
			drained(hub)

			conn := dial(srv)
			defer conn.Close()

			Convey("Then it is replayed the board and everything since the last clear", func() {
				board := read(conn)
				So(board.Type, ShouldEqual, surface.MessageTypeBoard)
				So(board.Board.Teams, ShouldResemble, []string{"Alpha", "Beta"})
				So(read(conn).Type, ShouldEqual, surface.MessageTypeClear)
				step := read(conn)
				So(step.Type, ShouldEqual, surface.MessageTypeStep)
				So(step.Step.TeamName, ShouldEqual, "Beta")
			})
		})

		Convey("When a display sends a heartbeat", func() {
			conn := dial(srv)
			defer conn.Close()
			waitClients(hub, 1)
			So(conn.WriteJSON(surface.ClientMessage{Type: surface.MessageTypeHeartbeat}), ShouldBeNil)

			Convey("Then the hub answers", func() {
				So(read(conn).Type, ShouldEqual, surface.MessageTypeHeartbeat)
			})
		})

		Convey("When a display disconnects", func() {
			conn := dial(srv)
			waitClients(hub, 1)
			_ = conn.Close()

			Convey("Then it is unregistered", func() {
				waitClients(hub, 0)
				So(hub.GetStats()["total_connections"], ShouldEqual, int64(1))
			})
		})

		Convey("When the hub stops", func() {
			cancel()
			deadline := time.Now().Add(2 * time.Second)
			var err error
			for time.Now().Before(deadline) {
				if err = hub.Render(context.Background(), reveal.Step{}); err != nil {
					break
				}
				time.Sleep(5 * time.Millisecond)
			}

			Convey("Then rendering reports a closed display", func() {
				So(errors.Is(err, surface.ErrDisplayClosed), ShouldBeTrue)
			})
		})
	})
}

func TestHubWithoutRun(t *testing.T) {
	Convey("Given a hub whose loop was never started", t, func() {
		hub := surface.NewHub()
		capacity := hub.GetStats()["broadcast_capacity"].(int)

		Convey("When more steps are rendered than the buffer holds", func() {
			for i := 0; i < capacity; i++ {
				So(hub.Render(context.Background(), reveal.Step{Index: i}), ShouldBeNil)
			}
			result := make(chan error, 1)
			go func() { result <- hub.Render(context.Background(), reveal.Step{Index: capacity}) }()

			Convey("Then the overflowing render fails instead of blocking", func() {
				select {
				case err := <-result:
					So(errors.Is(err, surface.ErrDisplayNotRunning), ShouldBeTrue)
				case <-time.After(2 * time.Second):
					So("render blocked", ShouldBeEmpty)
				}
			})

			Convey("And starting the loop drains the queue", func() {
				<-result
				ctx, cancel := context.WithCancel(context.Background())
				defer cancel()
				go hub.Run(ctx)
				drained(hub)
				So(hub.GetStats()["broadcast_usage"], ShouldEqual, 0)
				So(hub.Render(context.Background(), reveal.Step{}), ShouldBeNil)
			})
		})
	})
}
