package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Junhyukkkk/anondocs-server/internal/server/auth"
	"github.com/Junhyukkkk/anondocs-server/internal/server/models"
	"github.com/Junhyukkkk/anondocs-server/internal/server/repositories/diaries"
	"github.com/Junhyukkkk/anondocs-server/internal/server/services"
)

var testSecret = []byte("test-secret")

func newTestServer(t *testing.T) (*httptest.Server, *services.DiaryService, *Broker) {
	t.Helper()

	broker := NewBroker(testLogger())
	svc := services.NewDiaryService(diaries.NewInMemoryRepository())
	router := NewRouter(svc, broker, testLogger())
	handler := NewHandler(testSecret, broker, router, testLogger())

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, svc, broker
}

func tokenFor(t *testing.T, user *models.User, validity time.Duration) string {
	t.Helper()
	token, err := auth.GenerateToken(user, testSecret, validity)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v (resp: %v)", err, resp)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame ClientFrame) {
	t.Helper()
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func subscribe(t *testing.T, conn *websocket.Conn, destination string) {
	t.Helper()
	send(t, conn, ClientFrame{Type: FrameSubscribe, Destination: destination})
	// Subscriptions are processed in-order before any later command from
	// the same connection, so no ack round-trip is needed.
}

func readFrame(t *testing.T, conn *websocket.Conn) ServerFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f ServerFrame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func rawBody(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func TestConnect_MissingTokenRejected(t *testing.T) {
	srv, _, _ := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial succeeded without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", resp)
	}
}

func TestConnect_ExpiredTokenRejected(t *testing.T) {
	srv, _, _ := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	user := &models.User{ID: 1, Email: "u@test.com", Nickname: "U"}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+tokenFor(t, user, -time.Minute))

	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("dial succeeded with an expired token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", resp)
	}
}

func TestConnect_GarbageTokenRejected(t *testing.T) {
	srv, _, _ := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	header := http.Header{}
	header.Set("Authorization", "Bearer not.a.jwt")

	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("dial succeeded with a garbage token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", resp)
	}
}

func TestCreateAndEdit_EndToEnd(t *testing.T) {
	srv, _, _ := newTestServer(t)

	user := &models.User{ID: 1, Email: "u@test.com", Nickname: "U"}
	conn := dial(t, srv, tokenFor(t, user, time.Hour))

	subscribe(t, conn, QueueDiaryCreated)
	send(t, conn, ClientFrame{
		Type:        FrameSend,
		Destination: "/app/diaries/create",
		Body:        rawBody(t, CreateMessage{Title: "T", Content: "C", Visibility: models.VisibilityAnonymous}),
	})

	f := readFrame(t, conn)
	if f.Destination != QueueDiaryCreated {
		t.Fatalf("destination = %q", f.Destination)
	}
	created := decodeBody[CreateBroadcast](t, f)
	if created.Version != 1 || created.CreatorUserID != user.ID {
		t.Fatalf("unexpected create broadcast: %+v", created)
	}

	topic := DiaryTopic(created.DiaryID)
	subscribe(t, conn, topic)

	v := created.Version
	send(t, conn, ClientFrame{
		Type:        FrameSend,
		Destination: "/app/diaries/" + itoa(created.DiaryID) + "/edit",
		Body:        rawBody(t, EditMessage{Content: "C2", Version: &v}),
	})

	f = readFrame(t, conn)
	if f.Destination != topic {
		t.Fatalf("destination = %q, want %q", f.Destination, topic)
	}
	edited := decodeBody[EditBroadcast](t, f)
	if edited.Version != v+1 || edited.Content != "C2" {
		t.Fatalf("unexpected edit broadcast: %+v", edited)
	}
}

func TestConflict_VisibleToSecondSubscriber(t *testing.T) {
	srv, svc, broker := newTestServer(t)

	owner := &models.User{ID: 1, Email: "owner@test.com", Nickname: "Owner"}
	watcher := &models.User{ID: 2, Email: "watcher@test.com", Nickname: "Watcher"}

	d, err := svc.Create(context.Background(),
		&models.Principal{ID: owner.ID, Email: owner.Email, Nickname: owner.Nickname},
		"T", "C", models.VisibilityPrivate)
	if err != nil {
		t.Fatalf("seed create: %v", err)
	}

	ownerConn := dial(t, srv, tokenFor(t, owner, time.Hour))
	watcherConn := dial(t, srv, tokenFor(t, watcher, time.Hour))

	subscribe(t, watcherConn, DiaryTopic(d.ID))
	subscribe(t, watcherConn, DiaryErrorTopic(d.ID))

	// Subscriptions race the owner's edits across connections; wait until
	// the watcher's handles are registered before editing.
	waitForSubscribers(t, broker, d.ID)

	v := d.Version
	send(t, ownerConn, ClientFrame{
		Type:        FrameSend,
		Destination: "/app/diaries/" + itoa(d.ID) + "/edit",
		Body:        rawBody(t, EditMessage{Content: "first", Version: &v}),
	})
	send(t, ownerConn, ClientFrame{
		Type:        FrameSend,
		Destination: "/app/diaries/" + itoa(d.ID) + "/edit",
		Body:        rawBody(t, EditMessage{Content: "second", Version: &v}),
	})

	// The bystander sees the success first, then the conflict notice on
	// the public error topic.
	success := decodeBody[EditBroadcast](t, readFrame(t, watcherConn))
	if success.Version != v+1 {
		t.Fatalf("success version = %d, want %d", success.Version, v+1)
	}

	conflict := decodeBody[ErrorMessage](t, readFrame(t, watcherConn))
	if conflict.Code != CodeVersionConflict {
		t.Fatalf("code = %q, want %q", conflict.Code, CodeVersionConflict)
	}
	if conflict.CurrentVersion == nil || *conflict.CurrentVersion != v+1 {
		t.Fatalf("currentVersion = %v, want %d", conflict.CurrentVersion, v+1)
	}
}

// waitForSubscribers polls until the diary's topics have a subscriber. The
// test server is in-process, so this converges in microseconds.
func waitForSubscribers(t *testing.T, broker *Broker, diaryID int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if broker.SubscriberCount(DiaryTopic(diaryID)) > 0 &&
			broker.SubscriberCount(DiaryErrorTopic(diaryID)) > 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("subscribers never registered")
}
