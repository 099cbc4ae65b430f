package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"LiveDesk/entity"
	"LiveDesk/internal/lib/apperr"
	"LiveDesk/internal/service/chat"
)

type fakeCore struct {
	mu       sync.Mutex
	chats    map[string]*entity.Chat
	sent     []chat.SendMessageParams
	assigned []string
	marked   []string
}

func newFakeCore() *fakeCore {
	return &fakeCore{chats: make(map[string]*entity.Chat)}
}

func (f *fakeCore) addChat(userID, memberID string) *entity.Chat {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &entity.Chat{
		ID:       primitive.NewObjectID(),
		OrgID:    "org1",
		UserID:   userID,
		MemberID: memberID,
		Status:   entity.ChatWaiting,
	}
	f.chats[c.ID.Hex()] = c
	return c
}

func (f *fakeCore) GetChat(ctx context.Context, tenant *entity.TenantContext, chatID string) (*entity.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[chatID]
	if !ok {
		return nil, apperr.NotFound("chat", chatID)
	}
	return c, nil
}

func (f *fakeCore) SendMessage(ctx context.Context, tenant *entity.TenantContext, p chat.SendMessageParams) (*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.chats[p.ChatID]; !ok {
		return nil, apperr.NotFound("chat", p.ChatID)
	}
	f.sent = append(f.sent, p)
	return &entity.Message{
		ID:         primitive.NewObjectID(),
		ChatID:     p.ChatID,
		SenderType: p.SenderType,
		SenderID:   p.SenderID,
		Content:    p.Content,
	}, nil
}

func (f *fakeCore) MarkMessagesRead(ctx context.Context, tenant *entity.TenantContext, chatID string, reader entity.SenderType, upToID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, chatID)
	return 1, nil
}

func (f *fakeCore) AssignAgent(ctx context.Context, tenant *entity.TenantContext, chatID, agentID string) (*entity.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assigned = append(f.assigned, agentID)
	c, ok := f.chats[chatID]
	if !ok {
		return nil, apperr.NotFound("chat", chatID)
	}
	return c, nil
}

type fakePresence struct {
	mu       sync.Mutex
	statuses map[string]entity.AgentStatus
}

func newFakePresence() *fakePresence {
	return &fakePresence{statuses: make(map[string]entity.AgentStatus)}
}

func (f *fakePresence) Set(ctx context.Context, orgID, agentID string, status entity.AgentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[agentID] = status
	return nil
}

func (f *fakePresence) Remove(ctx context.Context, orgID, agentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.statuses, agentID)
	return nil
}

func newTestHub(t *testing.T) (*Hub, *fakeCore, *fakePresence) {
	t.Helper()
	core := newFakeCore()
	presence := newFakePresence()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHub(logger, core, presence), core, presence
}

func newUserClient(hub *Hub, id string) *Client {
	return &Client{
		hub:       hub,
		send:      make(chan []byte, 16),
		namespace: NamespaceUser,
		id:        id,
		tenant:    &entity.TenantContext{OrgID: "org1", EnvType: entity.EnvProduction},
		rooms:     make(map[string]bool),
	}
}

func newAgentClient(hub *Hub, id string) *Client {
	return &Client{
		hub:       hub,
		send:      make(chan []byte, 16),
		namespace: NamespaceAgent,
		id:        id,
		tenant:    &entity.TenantContext{OrgID: "org1", EnvType: entity.EnvProduction},
		agent:     &entity.AgentContext{AgentID: id, OrgID: "org1", Role: entity.RoleAgent},
		rooms:     make(map[string]bool),
	}
}

// drain empties the client's send channel and decodes the events.
func drain(t *testing.T, c *Client) []Event {
	t.Helper()
	var events []Event
	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				return events
			}
			var event Event
			if err := json.Unmarshal(raw, &event); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			events = append(events, event)
		default:
			return events
		}
	}
}

func eventTypes(events []Event) []string {
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

func makeCommand(t *testing.T, cmdType string, data interface{}) []byte {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal command data: %v", err)
	}
	raw, err := json.Marshal(map[string]json.RawMessage{
		"type": json.RawMessage(`"` + cmdType + `"`),
		"data": payload,
	})
	if err != nil {
		t.Fatalf("marshal command: %v", err)
	}
	return raw
}

func TestTypingExcludesSenderAcrossNamespaces(t *testing.T) {
	hub, core, _ := newTestHub(t)
	chatDoc := core.addChat("visitor-1", "")
	room := ChatRoom(chatDoc.ID.Hex())

	sender := newUserClient(hub, "visitor-1")
	otherUser := newUserClient(hub, "visitor-2")
	agent := newAgentClient(hub, "agent-1")
	for _, c := range []*Client{sender, otherUser, agent} {
		hub.register(c)
		hub.Join(c, room)
	}
	drain(t, agent) // discard the registration presence event

	hub.handleCommand(sender, makeCommand(t, "typing_start", map[string]string{"chat_id": chatDoc.ID.Hex()}))

	if events := drain(t, sender); len(events) != 0 {
		t.Fatalf("sender received %v, want nothing", eventTypes(events))
	}
	for _, c := range []*Client{otherUser, agent} {
		events := drain(t, c)
		if len(events) != 1 || events[0].Type != "typing" {
			t.Fatalf("receiver got %v, want single typing event", eventTypes(events))
		}
	}
}

func TestBroadcastIsRoomScoped(t *testing.T) {
	hub, core, _ := newTestHub(t)
	chatA := core.addChat("visitor-1", "")
	chatB := core.addChat("visitor-2", "")

	inA := newUserClient(hub, "visitor-1")
	inB := newUserClient(hub, "visitor-2")
	hub.register(inA)
	hub.register(inB)
	hub.Join(inA, ChatRoom(chatA.ID.Hex()))
	hub.Join(inB, ChatRoom(chatB.ID.Hex()))

	hub.NewMessage(chatA, &entity.Message{ChatID: chatA.ID.Hex(), Content: "hello"})

	if events := drain(t, inA); len(events) != 1 || events[0].Type != "new_message" {
		t.Fatalf("room member got %v, want single new_message", eventTypes(events))
	}
	if events := drain(t, inB); len(events) != 0 {
		t.Fatalf("other room got %v, want nothing", eventTypes(events))
	}
}

func TestJoinChatOwnership(t *testing.T) {
	hub, core, _ := newTestHub(t)
	chatDoc := core.addChat("visitor-1", "member-1")

	owner := newUserClient(hub, "visitor-1")
	intruder := newUserClient(hub, "visitor-99")
	byMember := newUserClient(hub, "other-session")
	byMember.memberID = "member-1"
	for _, c := range []*Client{owner, intruder, byMember} {
		hub.register(c)
	}

	hub.handleCommand(owner, makeCommand(t, "join_chat", map[string]string{"chat_id": chatDoc.ID.Hex()}))
	if events := drain(t, owner); len(events) != 1 || events[0].Type != "joined" {
		t.Fatalf("owner got %v, want joined", eventTypes(events))
	}

	hub.handleCommand(byMember, makeCommand(t, "join_chat", map[string]string{"chat_id": chatDoc.ID.Hex()}))
	if events := drain(t, byMember); len(events) != 1 || events[0].Type != "joined" {
		t.Fatalf("member session got %v, want joined", eventTypes(events))
	}

	hub.handleCommand(intruder, makeCommand(t, "join_chat", map[string]string{"chat_id": chatDoc.ID.Hex()}))
	if events := drain(t, intruder); len(events) != 1 || events[0].Type != "error" {
		t.Fatalf("intruder got %v, want error", eventTypes(events))
	}

	hub.handleCommand(owner, makeCommand(t, "join_chat", map[string]string{"chat_id": "missing"}))
	if events := drain(t, owner); len(events) != 1 || events[0].Type != "error" {
		t.Fatalf("unknown chat got %v, want error", eventTypes(events))
	}
}

func TestSendMessageCommand(t *testing.T) {
	hub, core, _ := newTestHub(t)
	chatDoc := core.addChat("visitor-1", "")

	user := newUserClient(hub, "visitor-1")
	agent := newAgentClient(hub, "agent-1")
	hub.register(user)
	hub.register(agent)

	hub.handleCommand(user, makeCommand(t, "send_message", map[string]string{
		"chat_id": chatDoc.ID.Hex(), "content": "hello",
	}))
	hub.handleCommand(agent, makeCommand(t, "send_message", map[string]string{
		"chat_id": chatDoc.ID.Hex(), "content": "hi there",
	}))

	if len(core.sent) != 2 {
		t.Fatalf("core received %d sends, want 2", len(core.sent))
	}
	if core.sent[0].SenderType != entity.SenderUser || core.sent[0].SenderID != "visitor-1" {
		t.Fatalf("first send = %+v, want user sender", core.sent[0])
	}
	if core.sent[1].SenderType != entity.SenderAgent || core.sent[1].SenderID != "agent-1" {
		t.Fatalf("second send = %+v, want agent sender", core.sent[1])
	}
}

func TestMessagesReadReachesOppositeSideOnly(t *testing.T) {
	hub, core, _ := newTestHub(t)
	chatDoc := core.addChat("visitor-1", "")
	room := ChatRoom(chatDoc.ID.Hex())

	user := newUserClient(hub, "visitor-1")
	agent := newAgentClient(hub, "agent-1")
	hub.register(user)
	hub.register(agent)
	hub.Join(user, room)
	hub.Join(agent, room)
	drain(t, agent)

	hub.MessagesRead(chatDoc, entity.SenderUser, "some-id")

	if events := drain(t, user); len(events) != 0 {
		t.Fatalf("reading side got %v, want nothing", eventTypes(events))
	}
	if events := drain(t, agent); len(events) != 1 || events[0].Type != "message_read" {
		t.Fatalf("opposite side got %v, want single message_read", eventTypes(events))
	}
}

func TestAgentPresenceLifecycle(t *testing.T) {
	hub, _, presence := newTestHub(t)

	watcher := newAgentClient(hub, "agent-0")
	hub.register(watcher)
	drain(t, watcher)

	agent := newAgentClient(hub, "agent-1")
	hub.register(agent)

	if presence.statuses["agent-1"] != entity.AgentOnline {
		t.Fatalf("presence = %q, want online after connect", presence.statuses["agent-1"])
	}
	events := drain(t, watcher)
	if len(events) != 1 || events[0].Type != "agent_status_changed" {
		t.Fatalf("watcher got %v, want agent_status_changed", eventTypes(events))
	}

	hub.handleCommand(agent, makeCommand(t, "status_change", map[string]string{"status": "busy"}))
	if presence.statuses["agent-1"] != entity.AgentBusy {
		t.Fatalf("presence = %q, want busy", presence.statuses["agent-1"])
	}

	hub.handleCommand(agent, makeCommand(t, "status_change", map[string]string{"status": "sleeping"}))
	if events := drain(t, agent); len(events) == 0 || events[len(events)-1].Type != "error" {
		t.Fatalf("invalid status got %v, want error", eventTypes(events))
	}

	hub.unregister(agent)
	if _, ok := presence.statuses["agent-1"]; ok {
		t.Fatal("presence entry survived disconnect")
	}
	events = drain(t, watcher)
	if len(events) == 0 || events[len(events)-1].Type != "agent_status_changed" {
		t.Fatalf("watcher got %v, want offline broadcast", eventTypes(events))
	}
}

func TestAgentOnlyCommands(t *testing.T) {
	hub, core, _ := newTestHub(t)
	chatDoc := core.addChat("visitor-1", "")

	user := newUserClient(hub, "visitor-1")
	agent := newAgentClient(hub, "agent-1")
	hub.register(user)
	hub.register(agent)

	hub.handleCommand(user, makeCommand(t, "assign_chat", map[string]string{"chat_id": chatDoc.ID.Hex()}))
	if events := drain(t, user); len(events) != 1 || events[0].Type != "error" {
		t.Fatalf("user assign got %v, want error", eventTypes(events))
	}
	hub.handleCommand(user, makeCommand(t, "status_change", map[string]string{"status": "online"}))
	if events := drain(t, user); len(events) != 1 || events[0].Type != "error" {
		t.Fatalf("user status_change got %v, want error", eventTypes(events))
	}

	// Agent assign without an explicit agent_id self-assigns.
	hub.handleCommand(agent, makeCommand(t, "assign_chat", map[string]string{"chat_id": chatDoc.ID.Hex()}))
	if len(core.assigned) != 1 || core.assigned[0] != "agent-1" {
		t.Fatalf("assigned = %v, want [agent-1]", core.assigned)
	}
}

func TestUnknownAndMalformedCommands(t *testing.T) {
	hub, _, _ := newTestHub(t)
	user := newUserClient(hub, "visitor-1")
	hub.register(user)

	hub.handleCommand(user, []byte("not json"))
	hub.handleCommand(user, makeCommand(t, "self_destruct", map[string]string{}))

	events := drain(t, user)
	if len(events) != 2 {
		t.Fatalf("got %v, want two error events", eventTypes(events))
	}
	for _, e := range events {
		if e.Type != "error" {
			t.Fatalf("event = %s, want error", e.Type)
		}
	}
}

func TestNewChatReachesOrgRoom(t *testing.T) {
	hub, core, _ := newTestHub(t)

	agent := newAgentClient(hub, "agent-1")
	hub.register(agent)
	drain(t, agent)

	chatDoc := core.addChat("visitor-1", "")
	hub.NewChat(chatDoc)

	events := drain(t, agent)
	if len(events) != 1 || events[0].Type != "new_chat" {
		t.Fatalf("org room got %v, want single new_chat", eventTypes(events))
	}
}
