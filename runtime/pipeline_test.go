package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/repositories"
	"chat-relay/translation"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

// recordingSink is a live connection double collecting everything it is
// handed.
type recordingSink struct {
	mu     sync.Mutex
	events []event.DeliveryEvent
}

func (s *recordingSink) Consume(_ context.Context, e event.DeliveryEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) All() []event.DeliveryEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.DeliveryEvent(nil), s.events...)
}

func (s *recordingSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type translateCall struct {
	Text, From, To string
	Forced         bool
}

// scriptedTranslator fabricates translations and records every call.
type scriptedTranslator struct {
	mu    sync.Mutex
	fail  bool
	calls []translateCall
}

func (t *scriptedTranslator) Translate(_ context.Context, text, from, to string, forced bool) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, translateCall{Text: text, From: from, To: to, Forced: forced})
	if t.fail {
		return "", fmt.Errorf("engine down")
	}
	return fmt.Sprintf("%s->%s:%s", from, to, text), nil
}

func (t *scriptedTranslator) Calls() []translateCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]translateCall(nil), t.calls...)
}

// scriptedDetector returns a fixed detection result.
type scriptedDetector struct{ code string }

func (d scriptedDetector) Detect(string) (string, error) { return d.code, nil }

type harness struct {
	pipeline   *Pipeline
	registry   *Registry
	messages   repositories.MessageRepository
	channels   repositories.ChannelRepository
	users      repositories.UserDirectory
	translator *scriptedTranslator
}

func newHarness(t *testing.T, detected string) *harness {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	messages := repositories.NewMessageRepository(db, log)
	channels := repositories.NewChannelRepository(db)
	users := repositories.NewUserDirectory(db)
	translator := &scriptedTranslator{}
	gateway := translation.NewGateway(scriptedDetector{code: detected}, translator, log)
	registry := NewRegistry()
	pipeline := NewPipeline(log, registry, messages, channels, users, gateway, 16)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	for _, worker := range pipeline.Workers(2) {
		go func(w contract.Worker) { _ = w.Run(ctx) }(worker)
	}

	return &harness{
		pipeline:   pipeline,
		registry:   registry,
		messages:   messages,
		channels:   channels,
		users:      users,
		translator: translator,
	}
}

func (h *harness) seedUser(t *testing.T, id, lang string) {
	t.Helper()
	require.NoError(t, h.users.SaveUser(domain.User{ID: id, PreferredLanguage: lang}))
}

func directViews(events []event.DeliveryEvent) []domain.MessageView {
	var views []domain.MessageView
	for _, e := range events {
		if dm, ok := e.(event.DirectMessage); ok {
			views = append(views, dm.Message)
		}
	}
	return views
}

func TestSendDirect_Sender_Echo_Is_Original(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, "en")
	h.seedUser(t, "alice", "en")
	h.seedUser(t, "bob", "fr")
	aliceSink := &recordingSink{}
	h.registry.Register("alice", aliceSink)

	msg, err := h.pipeline.SendDirect(context.Background(), domain.SendMessageCommand{
		Sender: "alice", Recipient: "bob", Type: domain.MessageText, Content: "hello there",
	})
	req.NoError(err)

	// The echo happens synchronously, before any translation work
	views := directViews(aliceSink.All())
	req.Len(views, 1)
	req.Equal(msg.ID, views[0].ID)
	req.Equal("hello there", views[0].Content)
	req.False(views[0].IsTranslated)
}

func TestSendDirect_Recipient_Gets_Translation(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, "en")
	h.seedUser(t, "alice", "en")
	h.seedUser(t, "bob", "fr")
	bobSink := &recordingSink{}
	h.registry.Register("bob", bobSink)

	msg, err := h.pipeline.SendDirect(context.Background(), domain.SendMessageCommand{
		Sender: "alice", Recipient: "bob", Type: domain.MessageText, Content: "hello there",
	})
	req.NoError(err)

	req.Eventually(func() bool { return bobSink.Count() > 0 }, 2*time.Second, 10*time.Millisecond)
	views := directViews(bobSink.All())
	req.Len(views, 1)
	req.Equal("en->fr:hello there", views[0].Content)
	req.True(views[0].IsTranslated)
	req.Equal("en", views[0].LanguageFrom)

	// The cache carries the recipient's language
	stored, err := h.messages.Get(msg.ID)
	req.NoError(err)
	req.Equal("en->fr:hello there", stored.Translations["fr"])
	req.Equal("en", stored.LanguageFrom)

	calls := h.translator.Calls()
	req.Len(calls, 1)
	req.Equal(translateCall{Text: "hello there", From: "en", To: "fr", Forced: false}, calls[0])
}

func TestSendDirect_Same_Language_No_Translation(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, "fr")
	h.seedUser(t, "alice", "fr")
	h.seedUser(t, "bob", "fr")
	bobSink := &recordingSink{}
	h.registry.Register("bob", bobSink)

	_, err := h.pipeline.SendDirect(context.Background(), domain.SendMessageCommand{
		Sender: "alice", Recipient: "bob", Type: domain.MessageText, Content: "bonjour tout le monde",
	})
	req.NoError(err)

	req.Eventually(func() bool { return bobSink.Count() > 0 }, 2*time.Second, 10*time.Millisecond)
	views := directViews(bobSink.All())
	req.Equal("bonjour tout le monde", views[0].Content)
	req.False(views[0].IsTranslated)
	req.Empty(h.translator.Calls())
}

func TestSendDirect_Hinglish_To_English_Reader(t *testing.T) {
	req := require.New(t)
	// The raw detector sees English; the sender prefers Hindi
	h := newHarness(t, "en")
	h.seedUser(t, "ravi", "hi")
	h.seedUser(t, "alice", "en")
	aliceSink := &recordingSink{}
	h.registry.Register("alice", aliceSink)

	msg, err := h.pipeline.SendDirect(context.Background(), domain.SendMessageCommand{
		Sender: "ravi", Recipient: "alice", Type: domain.MessageText, Content: "kya tum theek ho",
	})
	req.NoError(err)

	req.Eventually(func() bool { return aliceSink.Count() > 0 }, 2*time.Second, 10*time.Millisecond)

	// The policy reclassifies the text as Hindi, so an English reader
	// needs an unforced hi->en translation
	calls := h.translator.Calls()
	req.Len(calls, 1)
	req.Equal(translateCall{Text: "kya tum theek ho", From: "hi", To: "en", Forced: false}, calls[0])

	stored, err := h.messages.Get(msg.ID)
	req.NoError(err)
	req.Equal("hi", stored.LanguageFrom)
}

func TestSendDirect_Hinglish_To_Hindi_Reader_Is_Forced(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, "en")
	h.seedUser(t, "ravi", "hi")
	h.seedUser(t, "priya", "hi")
	priyaSink := &recordingSink{}
	h.registry.Register("priya", priyaSink)

	_, err := h.pipeline.SendDirect(context.Background(), domain.SendMessageCommand{
		Sender: "ravi", Recipient: "priya", Type: domain.MessageText, Content: "kya tum theek ho",
	})
	req.NoError(err)

	req.Eventually(func() bool { return priyaSink.Count() > 0 }, 2*time.Second, 10*time.Millisecond)

	// Romanized Hindi to a Hindi reader: same-language but forced
	calls := h.translator.Calls()
	req.Len(calls, 1)
	req.Equal(translateCall{Text: "kya tum theek ho", From: "hi", To: "hi", Forced: true}, calls[0])
}

func TestSendDirect_Translation_Failure_Degrades(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, "en")
	h.translator.fail = true
	h.seedUser(t, "alice", "en")
	h.seedUser(t, "bob", "fr")
	bobSink := &recordingSink{}
	h.registry.Register("bob", bobSink)

	msg, err := h.pipeline.SendDirect(context.Background(), domain.SendMessageCommand{
		Sender: "alice", Recipient: "bob", Type: domain.MessageText, Content: "hello there",
	})
	req.NoError(err)

	req.Eventually(func() bool { return bobSink.Count() > 0 }, 2*time.Second, 10*time.Millisecond)
	views := directViews(bobSink.All())
	req.Equal("hello there [Translation failed]", views[0].Content)

	// No cache entry is written for the failed language
	stored, err := h.messages.Get(msg.ID)
	req.NoError(err)
	req.Empty(stored.Translations)
}

func TestSendDirect_File_Skips_Translation(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, "en")
	h.seedUser(t, "alice", "en")
	h.seedUser(t, "bob", "fr")
	aliceSink := &recordingSink{}
	bobSink := &recordingSink{}
	h.registry.Register("alice", aliceSink)
	h.registry.Register("bob", bobSink)

	_, err := h.pipeline.SendDirect(context.Background(), domain.SendMessageCommand{
		Sender: "alice", Recipient: "bob", Type: domain.MessageFile, FileURL: "uploads/x.png",
	})
	req.NoError(err)

	// Both sides are served synchronously, unchanged
	req.Equal(1, aliceSink.Count())
	req.Equal(1, bobSink.Count())
	req.Equal("uploads/x.png", directViews(bobSink.All())[0].FileURL)
	req.Empty(h.translator.Calls())
}

func TestSendDirect_Validation_Rejects_Before_Persistence(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, "en")

	_, err := h.pipeline.SendDirect(context.Background(), domain.SendMessageCommand{
		Sender: "alice", Recipient: "bob", Type: domain.MessageText,
	})
	req.Error(err)

	messages, err := h.messages.ListConversation("alice", "bob")
	req.NoError(err)
	req.Empty(messages)
}

func TestSendDirect_Disconnected_Recipient_Reads_Later(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, "en")
	h.seedUser(t, "alice", "en")
	h.seedUser(t, "bob", "fr")
	// bob is not connected at send time

	msg, err := h.pipeline.SendDirect(context.Background(), domain.SendMessageCommand{
		Sender: "alice", Recipient: "bob", Type: domain.MessageText, Content: "hello there",
	})
	req.NoError(err)

	// The continuation still persists the translation
	req.Eventually(func() bool {
		stored, err := h.messages.Get(msg.ID)
		return err == nil && stored.Translations["fr"] != ""
	}, 2*time.Second, 10*time.Millisecond)

	// A later history fetch renders bob's view from persisted state
	stored, err := h.messages.Get(msg.ID)
	req.NoError(err)
	req.Equal("en->fr:hello there", stored.Translations["fr"])
}

func TestSendDirect_Canceled_Request_Still_Schedules_Translation(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, "en")
	h.seedUser(t, "alice", "en")
	h.seedUser(t, "bob", "fr")

	// The sender's request context is gone by the time the send runs,
	// as happens when a client disconnects right after writing
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msg, err := h.pipeline.SendDirect(ctx, domain.SendMessageCommand{
		Sender: "alice", Recipient: "bob", Type: domain.MessageText, Content: "hello there",
	})
	req.NoError(err)

	// The persisted message still gets its translation continuation
	req.Eventually(func() bool {
		stored, err := h.messages.Get(msg.ID)
		return err == nil && stored.Translations["fr"] != ""
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSendChannel_Deduplicates_By_Language(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, "en")
	h.seedUser(t, "sender", "en")
	members := []string{"f1", "f2", "f3", "f4", "f5"}
	for _, id := range members {
		h.seedUser(t, id, "fr")
	}
	channel, err := h.channels.Create(domain.Channel{
		Name: "general", Admin: "sender", Members: append(members, "sender"),
	})
	req.NoError(err)

	sinks := make(map[string]*recordingSink, len(members))
	for _, id := range members {
		sinks[id] = &recordingSink{}
		h.registry.Register(id, sinks[id])
	}

	_, err = h.pipeline.SendChannel(context.Background(), domain.SendChannelMessageCommand{
		ChannelID: channel.ID, Sender: "sender", Type: domain.MessageText, Content: "hello everyone",
	})
	req.NoError(err)

	req.Eventually(func() bool {
		for _, sink := range sinks {
			if sink.Count() == 0 {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)

	// Five French readers, one gateway call
	req.Len(h.translator.Calls(), 1)
	for _, sink := range sinks {
		events := sink.All()
		req.Len(events, 1)
		cm := events[0].(event.ChannelMessage)
		req.Equal("en->fr:hello everyone", cm.Message.Content)
		req.True(cm.Message.IsTranslated)
		req.Equal(channel.ID, cm.ChannelID)
	}
}

func TestSendChannel_Same_Language_Members_Get_Original(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, "en")
	h.seedUser(t, "sender", "en")
	h.seedUser(t, "reader", "en")
	channel, err := h.channels.Create(domain.Channel{
		Name: "general", Admin: "sender", Members: []string{"sender", "reader"},
	})
	req.NoError(err)

	readerSink := &recordingSink{}
	h.registry.Register("reader", readerSink)

	_, err = h.pipeline.SendChannel(context.Background(), domain.SendChannelMessageCommand{
		ChannelID: channel.ID, Sender: "sender", Type: domain.MessageText, Content: "hello everyone",
	})
	req.NoError(err)

	req.Eventually(func() bool { return readerSink.Count() > 0 }, 2*time.Second, 10*time.Millisecond)
	cm := readerSink.All()[0].(event.ChannelMessage)
	req.Equal("hello everyone", cm.Message.Content)
	req.False(cm.Message.IsTranslated)
	req.Empty(h.translator.Calls())
}

func TestSendChannel_Appends_Message_Reference(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, "en")
	h.seedUser(t, "sender", "en")
	channel, err := h.channels.Create(domain.Channel{
		Name: "general", Admin: "sender", Members: []string{"sender"},
	})
	req.NoError(err)

	msg, err := h.pipeline.SendChannel(context.Background(), domain.SendChannelMessageCommand{
		ChannelID: channel.ID, Sender: "sender", Type: domain.MessageText, Content: "note to self",
	})
	req.NoError(err)

	fetched, err := h.channels.Get(channel.ID)
	req.NoError(err)
	req.Equal(msg.ID, fetched.Messages[len(fetched.Messages)-1])
}

func TestSendChannel_Unknown_Channel(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, "en")

	_, err := h.pipeline.SendChannel(context.Background(), domain.SendChannelMessageCommand{
		ChannelID: "nope", Sender: "sender", Type: domain.MessageText, Content: "hello",
	})
	req.Error(err)
}
