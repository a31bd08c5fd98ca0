package collab

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/geoscene/internal/document"
	"github.com/inamate/geoscene/internal/typeid"
)

type memStore struct {
	mu    sync.Mutex
	saved map[string]*document.SceneDocument
	saves int
}

func (m *memStore) load(sceneID string) (*document.SceneDocument, error) {
	if sceneID == "scene_broken" {
		return nil, errors.New("no such scene")
	}
	return document.NewSampleDocument(sceneID), nil
}

func (m *memStore) save(sceneID string, doc *document.SceneDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = make(map[string]*document.SceneDocument)
	}
	m.saved[sceneID] = doc
	m.saves++
	return nil
}

func newTestHub() (*Hub, *memStore) {
	store := &memStore{}
	return NewHub(store.load, store.save), store
}

func newTestClient(h *Hub, userID, sceneID string) *Client {
	return NewClient(h, nil, userID, userID, sceneID, "client-"+userID)
}

// drain returns the queued messages of c.
func drain(t *testing.T, c *Client) []Message {
	t.Helper()
	var out []Message
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return out
			}
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			out = append(out, msg)
		default:
			return out
		}
	}
}

func types(msgs []Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Type)
	}
	return out
}

func submit(t *testing.T, h *Hub, c *Client, op Operation) {
	t.Helper()
	payload, err := json.Marshal(OperationSubmitPayload{Operation: op})
	require.NoError(t, err)
	h.handleMessage(c, &Message{Type: TypeOpSubmit, Payload: payload})
}

func TestJoinSendsWelcomeAndDocument(t *testing.T) {
	h, _ := newTestHub()
	alice := newTestClient(h, "alice", "scene_a")
	bob := newTestClient(h, "bob", "scene_a")

	h.addClient(alice)
	msgs := drain(t, alice)
	require.Equal(t, []string{TypeWelcome, TypeDocSync, TypePresenceState}, types(msgs))

	var welcome WelcomePayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &welcome))
	assert.Equal(t, "client-alice", welcome.ClientID)

	var docSync DocSyncPayload
	require.NoError(t, json.Unmarshal(msgs[1].Payload, &docSync))
	doc, err := document.Parse(docSync.Document)
	require.NoError(t, err)
	assert.Equal(t, "scene_a", doc.Scene.ID)

	h.addClient(bob)
	assert.Len(t, drain(t, bob), 3)
	assert.Equal(t, []string{TypePresenceJoin}, types(drain(t, alice)))
}

func TestJoinFailsWhenSceneCannotLoad(t *testing.T) {
	h, _ := newTestHub()
	c := newTestClient(h, "alice", "scene_broken")
	h.addClient(c)
	assert.Equal(t, []string{TypeError}, types(drain(t, c)))
	assert.Equal(t, websocket.StatusInternalError, c.closeStatus)
	assert.Empty(t, h.rooms)

	// the read pump still unregisters; nothing to do
	h.removeClient(c)
}

func TestOperationAckBroadcastNack(t *testing.T) {
	h, store := newTestHub()
	alice := newTestClient(h, "alice", "scene_a")
	bob := newTestClient(h, "bob", "scene_a")
	h.addClient(alice)
	h.addClient(bob)
	drain(t, alice)
	drain(t, bob)

	submit(t, h, alice, Operation{ID: "op1", Type: OpElementMove, ElementID: "B", X: f64(20), Y: f64(0)})

	got := drain(t, alice)
	require.Equal(t, []string{TypeOpAck}, types(got))
	var ack OperationAckPayload
	require.NoError(t, json.Unmarshal(got[0].Payload, &ack))
	assert.Equal(t, "op1", ack.OperationID)
	assert.Equal(t, int64(1), ack.ServerSeq)

	got = drain(t, bob)
	require.Equal(t, []string{TypeOpBroadcast}, types(got))
	var bc OperationBroadcastPayload
	require.NoError(t, json.Unmarshal(got[0].Payload, &bc))
	assert.Equal(t, "alice", bc.UserID)
	assert.Equal(t, "B", bc.Operation.ElementID)

	submit(t, h, alice, Operation{ID: "op2", Type: OpElementMove, ElementID: "P", X: f64(0), Y: f64(0)})
	got = drain(t, alice)
	require.Equal(t, []string{TypeOpNack}, types(got))
	var nack OperationNackPayload
	require.NoError(t, json.Unmarshal(got[0].Payload, &nack))
	assert.Equal(t, "op2", nack.OperationID)
	assert.Contains(t, nack.Reason, "fixed")
	assert.Empty(t, drain(t, bob))

	submit(t, h, alice, Operation{Type: OpElementMove, ElementID: "A", X: f64(1), Y: f64(0)})
	got = drain(t, alice)
	require.Equal(t, []string{TypeOpAck}, types(got))
	require.NoError(t, json.Unmarshal(got[0].Payload, &ack))
	assert.NoError(t, typeid.Validate(ack.OperationID, typeid.PrefixOp))
	drain(t, bob)

	h.removeClient(bob)
	assert.Equal(t, 0, store.saves)
	h.removeClient(alice)
	require.Equal(t, 1, store.saves)
	saved := store.saved["scene_a"]
	assert.Equal(t, 20.0, saved.Elements[saved.Index("B")].X)
}

func TestRemoveDropsSelections(t *testing.T) {
	h, _ := newTestHub()
	alice := newTestClient(h, "alice", "scene_a")
	bob := newTestClient(h, "bob", "scene_a")
	h.addClient(alice)
	h.addClient(bob)

	presence, _ := json.Marshal(PresencePayload{Selection: []string{"P", "A"}})
	h.handleMessage(bob, &Message{Type: TypePresenceUpdate, Payload: presence})
	drain(t, alice)
	drain(t, bob)

	submit(t, h, alice, Operation{ID: "op1", Type: OpElementRemove, ElementID: "cc"})
	var ack OperationAckPayload
	msgs := drain(t, alice)
	require.Len(t, msgs, 1)
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &ack))
	assert.Contains(t, ack.Result.Removed, "P")

	all := h.rooms["scene_a"].presence.GetAll()
	assert.Equal(t, []string{"A"}, all["bob"].Selection)
	assert.Equal(t, "bob", all["bob"].DisplayName)
}

func TestStopSavesDirtyRooms(t *testing.T) {
	h, store := newTestHub()
	alice := newTestClient(h, "alice", "scene_a")
	idle := newTestClient(h, "idle", "scene_b")
	h.addClient(alice)
	h.addClient(idle)

	go h.Run()
	submit(t, h, alice, Operation{ID: "op1", Type: OpElementVisibility, ElementID: "lP", Visible: boolp(false)})
	h.Stop()

	require.Equal(t, 1, store.saves)
	saved := store.saved["scene_a"]
	assert.True(t, saved.Elements[saved.Index("lP")].Hidden)
}

func TestSendAfterLeaveIsDropped(t *testing.T) {
	h, _ := newTestHub()
	alice := newTestClient(h, "alice", "scene_a")
	bob := newTestClient(h, "bob", "scene_a")
	h.addClient(alice)
	h.addClient(bob)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			alice.Send(errorMessage("late"))
			h.broadcastToRoom("scene_a", errorMessage("late"), "")
		}
	}()
	// consume while the sender runs so the buffer does not stay full
	go func() {
		for range alice.send {
		}
	}()
	h.removeClient(alice)
	wg.Wait()

	assert.NotPanics(t, func() { alice.Send(errorMessage("after")) })
	alice.closeSend()
	assert.True(t, alice.closed)
	h.removeClient(bob)
}
