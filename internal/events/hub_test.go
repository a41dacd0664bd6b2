package events

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newHubServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(nil)
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("band"))
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dialBand(t *testing.T, srv *httptest.Server, bandID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?band=" + bandID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitForSubscribers polls until the band has the wanted connection count.
// Registration runs through the hub's event loop, so it is asynchronous from
// the dialer's point of view.
func waitForSubscribers(t *testing.T, hub *Hub, bandID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.SubscriberCount(bandID) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("band %s: expected %d subscribers, got %d", bandID, want, hub.SubscriberCount(bandID))
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading event: %v", err)
	}
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		t.Fatalf("decoding event: %v", err)
	}
	return e
}

func TestHubRoutesEventsByBand(t *testing.T) {
	hub, srv := newHubServer(t)

	connA := dialBand(t, srv, "band-a")
	connB := dialBand(t, srv, "band-b")
	waitForSubscribers(t, hub, "band-a", 1)
	waitForSubscribers(t, hub, "band-b", 1)

	hub.Publish(Event{Type: TypeMemberJoined, BandID: "band-a", UserID: "u1", DisplayName: "Mia"})
	hub.Publish(Event{Type: TypeInviteCreated, BandID: "band-b", UserID: "u2"})

	gotA := readEvent(t, connA)
	if gotA.Type != TypeMemberJoined || gotA.BandID != "band-a" || gotA.UserID != "u1" {
		t.Errorf("band-a subscriber got %+v", gotA)
	}
	if gotA.Seq == 0 {
		t.Error("expected a sequence number")
	}
	if gotA.At.IsZero() {
		t.Error("expected a timestamp")
	}

	// band-b's subscriber sees only its own band's event.
	gotB := readEvent(t, connB)
	if gotB.Type != TypeInviteCreated || gotB.BandID != "band-b" {
		t.Errorf("band-b subscriber got %+v", gotB)
	}
}

func TestHubFansOutToAllSubscribers(t *testing.T) {
	hub, srv := newHubServer(t)

	conn1 := dialBand(t, srv, "band-a")
	conn2 := dialBand(t, srv, "band-a")
	waitForSubscribers(t, hub, "band-a", 2)

	hub.Publish(Event{Type: TypeMemberLeft, BandID: "band-a", UserID: "u1"})

	for i, conn := range []*websocket.Conn{conn1, conn2} {
		got := readEvent(t, conn)
		if got.Type != TypeMemberLeft || got.UserID != "u1" {
			t.Errorf("subscriber %d got %+v", i, got)
		}
	}
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub, srv := newHubServer(t)

	conn := dialBand(t, srv, "band-a")
	waitForSubscribers(t, hub, "band-a", 1)

	conn.Close()
	waitForSubscribers(t, hub, "band-a", 0)
}

func TestHubSequenceIsMonotonic(t *testing.T) {
	hub, srv := newHubServer(t)

	conn := dialBand(t, srv, "band-a")
	waitForSubscribers(t, hub, "band-a", 1)

	for i := 0; i < 5; i++ {
		hub.Publish(Event{Type: TypeMemberJoined, BandID: "band-a"})
	}

	var last int64
	for i := 0; i < 5; i++ {
		got := readEvent(t, conn)
		if got.Seq <= last {
			t.Fatalf("sequence not increasing: %d after %d", got.Seq, last)
		}
		last = got.Seq
	}
}
