package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/picklecup/internal/autosave"
	"github.com/abrezinsky/picklecup/internal/models"
	"github.com/abrezinsky/picklecup/internal/services"
	"github.com/abrezinsky/picklecup/internal/testutil"
)

// stubTournament answers Snapshot; any other method panics.
type stubTournament struct {
	services.TournamentServicer
	t *models.Tournament
}

func (s stubTournament) Snapshot(ctx context.Context) *models.Tournament { return s.t }

type stubSync struct {
	services.SyncServicer
	state string
}

func (s stubSync) Status(ctx context.Context) services.SyncStatus {
	return services.SyncStatus{Save: autosave.Status{State: s.state}}
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	tour := models.NewTournament()
	tour.Categories[models.CategoryMen].Teams = []models.Team{{ID: "t1", Name1: "An", Name2: "Bình"}}
	hub := New(testutil.NewQuietLogger(), stubTournament{t: tour}, stubSync{state: autosave.StateSaved})
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readFrame(t *testing.T, ws *websocket.Conn) frame {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f frame
	if err := ws.ReadJSON(&f); err != nil {
		t.Fatalf("read: %v", err)
	}
	return f
}

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	t.Cleanup(server.Close)
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func TestNew_CreatesHubWithDependencies(t *testing.T) {
	hub := New(testutil.NewQuietLogger(), nil, nil)

	if hub.clients == nil || hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Fatal("hub channels and client map should be initialised")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d", hub.ClientCount())
	}
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	// Not started: nothing drains the queue.
	hub := New(testutil.NewQuietLogger(), nil, nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(hub.broadcast)+10; i++ {
			hub.BroadcastTournament(models.NewTournament())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BroadcastMessage blocked on a full queue")
	}
	if len(hub.broadcast) != cap(hub.broadcast) {
		t.Errorf("queue holds %d messages, want %d", len(hub.broadcast), cap(hub.broadcast))
	}
}

func TestHub_RegisterGreetsClient(t *testing.T) {
	hub := newTestHub(t)
	client := &Client{hub: hub, send: make(chan models.WSMessage, sendBuffer)}

	hub.register <- client
	waitFor(t, "registration", func() bool { return hub.ClientCount() == 1 })

	first := <-client.send
	if first.Type != TypeTournamentUpdated {
		t.Errorf("first message = %q", first.Type)
	}
	if tour, ok := first.Payload.(*models.Tournament); !ok || len(tour.Categories[models.CategoryMen].Teams) != 1 {
		t.Errorf("payload = %#v", first.Payload)
	}
	second := <-client.send
	if second.Type != TypeSaveStatus {
		t.Errorf("second message = %q", second.Type)
	}
	if st, ok := second.Payload.(autosave.Status); !ok || st.State != autosave.StateSaved {
		t.Errorf("payload = %#v", second.Payload)
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := newTestHub(t)
	client := &Client{hub: hub, send: make(chan models.WSMessage, sendBuffer)}

	hub.register <- client
	waitFor(t, "registration", func() bool { return hub.ClientCount() == 1 })
	hub.unregister <- client
	waitFor(t, "unregistration", func() bool { return hub.ClientCount() == 0 })

	// Unregistering twice must not close the channel again.
	hub.unregister <- client
	waitFor(t, "second unregistration", func() bool { return hub.ClientCount() == 0 })
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := New(testutil.NewQuietLogger(), nil, nil)
	hub.Start()
	t.Cleanup(hub.Stop)

	slow := &Client{hub: hub, send: make(chan models.WSMessage)}
	hub.register <- slow
	waitFor(t, "registration", func() bool { return hub.ClientCount() == 1 })

	hub.BroadcastSaveStatus(autosave.Status{State: autosave.StateSaving})
	waitFor(t, "slow client removal", func() bool { return hub.ClientCount() == 0 })

	if _, ok := <-slow.send; ok {
		t.Error("slow client's channel should be closed")
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := New(testutil.NewQuietLogger(), nil, nil)
	hub.Start()

	client := &Client{hub: hub, send: make(chan models.WSMessage, 1)}
	hub.register <- client
	waitFor(t, "registration", func() bool { return hub.ClientCount() == 1 })

	hub.Stop()
	hub.Stop()
	waitFor(t, "shutdown", func() bool { return hub.ClientCount() == 0 })
	if _, ok := <-client.send; ok {
		t.Error("client channel should be closed on stop")
	}
}

func TestServeWs_GreetingThenBroadcasts(t *testing.T) {
	hub := newTestHub(t)
	ws := dial(t, hub)

	if f := readFrame(t, ws); f.Type != TypeTournamentUpdated {
		t.Fatalf("first frame = %q", f.Type)
	}
	status := readFrame(t, ws)
	if status.Type != TypeSaveStatus || !strings.Contains(string(status.Payload), `"state":"saved"`) {
		t.Fatalf("second frame = %s %s", status.Type, status.Payload)
	}

	cat := models.NewCategory(models.CategoryWomen)
	hub.BroadcastCategory(models.CategoryWomen, cat)

	f := readFrame(t, ws)
	if f.Type != TypeCategoryUpdated {
		t.Fatalf("frame = %q", f.Type)
	}
	var payload CategoryPayload
	if err := json.Unmarshal(f.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Key != models.CategoryWomen || payload.Category.Name != "Đôi Nữ" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestServeWs_ClientDisconnect(t *testing.T) {
	hub := newTestHub(t)
	ws := dial(t, hub)
	waitFor(t, "connection", func() bool { return hub.ClientCount() == 1 })

	ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"hello"}`))
	ws.Close()
	waitFor(t, "disconnect", func() bool { return hub.ClientCount() == 0 })
}

func TestServeWs_RejectsPlainHTTP(t *testing.T) {
	hub := newTestHub(t)
	rec := httptest.NewRecorder()

	hub.ServeWs(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if hub.ClientCount() != 0 {
		t.Error("no client should be registered")
	}
}
