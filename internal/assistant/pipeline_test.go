package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nakharin/nvc-bot/internal/generator"
	"github.com/nakharin/nvc-bot/internal/knowledge"
	"github.com/nakharin/nvc-bot/internal/media"
	"github.com/nakharin/nvc-bot/internal/models"
	"github.com/nakharin/nvc-bot/internal/storage"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	answer     string
	err        error
	calls      int
	lastPrompt string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls++
	g.lastPrompt = prompt
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

type sentPhoto struct {
	chatID  int64
	url     string
	caption string
}

type fakeReplier struct {
	texts  []string
	photos []sentPhoto
	groups [][]string
}

func (r *fakeReplier) SendText(chatID int64, text string) error {
	r.texts = append(r.texts, text)
	return nil
}

func (r *fakeReplier) SendPhoto(chatID int64, url, caption string) error {
	r.photos = append(r.photos, sentPhoto{chatID: chatID, url: url, caption: caption})
	return nil
}

func (r *fakeReplier) SendMediaGroup(chatID int64, urls []string, caption string) error {
	r.groups = append(r.groups, urls)
	return nil
}

type testEnv struct {
	pipeline *Pipeline
	store    *storage.MemoryStorage
	gen      *fakeGenerator
	replier  *fakeReplier
}

func newTestEnv(gen *fakeGenerator, entries []models.MediaEntry, cacheTTL time.Duration) *testEnv {
	store := storage.NewMemoryStorage()
	replier := &fakeReplier{}
	pipeline := NewPipeline(
		store,
		knowledge.NewStore("college reference text"),
		media.NewCatalog(entries),
		gen,
		replier,
		6,
		cacheTTL,
		zap.NewNop(),
	)
	return &testEnv{pipeline: pipeline, store: store, gen: gen, replier: replier}
}

func turnsOf(t *testing.T, store *storage.MemoryStorage, conversationID int64) []models.Turn {
	t.Helper()
	turns, err := store.RecentTurns(context.Background(), conversationID, 100)
	if err != nil {
		t.Fatalf("RecentTurns failed: %v", err)
	}
	return turns
}

func TestPipeline_CacheHitSkipsGenerator(t *testing.T) {
	gen := &fakeGenerator{answer: "The college opens admission in January."}
	env := newTestEnv(gen, nil, time.Hour)
	msg := Incoming{ConversationID: 1, Text: "When does admission open?"}

	env.pipeline.Handle(context.Background(), msg)
	env.pipeline.Handle(context.Background(), msg)

	if gen.calls != 1 {
		t.Fatalf("expected 1 generator call, got %d", gen.calls)
	}
	if len(env.replier.texts) != 2 {
		t.Fatalf("expected 2 replies, got %d", len(env.replier.texts))
	}
	if env.replier.texts[0] != env.replier.texts[1] {
		t.Fatalf("cache hit must replay the same answer")
	}

	// Replays are idempotent: no extra turns, no extra cache entries.
	if turns := turnsOf(t, env.store, 1); len(turns) != 2 {
		t.Fatalf("expected 2 persisted turns after replay, got %d", len(turns))
	}
}

func TestPipeline_CacheExpiryTriggersRegeneration(t *testing.T) {
	gen := &fakeGenerator{answer: "answer"}
	env := newTestEnv(gen, nil, 15*time.Millisecond)
	msg := Incoming{ConversationID: 1, Text: "What courses are offered?"}

	env.pipeline.Handle(context.Background(), msg)
	time.Sleep(40 * time.Millisecond)
	env.pipeline.Handle(context.Background(), msg)

	if gen.calls != 2 {
		t.Fatalf("expected a fresh generation after expiry, got %d calls", gen.calls)
	}
}

func TestPipeline_DispatchesKnownMediaTag(t *testing.T) {
	gen := &fakeGenerator{answer: "Here is our main building. [IMAGE:building_1]"}
	entries := []models.MediaEntry{
		{Tag: "building_1", URLs: []string{"https://img.example/b1.jpg"}, Caption: "Main building"},
	}
	env := newTestEnv(gen, entries, time.Hour)

	env.pipeline.Handle(context.Background(), Incoming{ConversationID: 7, Text: "Show me the campus"})

	if len(env.replier.texts) != 1 || strings.Contains(env.replier.texts[0], "[IMAGE:") {
		t.Fatalf("visible reply must exclude the directive, got %v", env.replier.texts)
	}
	if len(env.replier.photos) != 1 {
		t.Fatalf("expected exactly one photo send, got %d", len(env.replier.photos))
	}
	photo := env.replier.photos[0]
	if photo.url != "https://img.example/b1.jpg" || photo.caption != "Main building" {
		t.Fatalf("photo must carry the catalog url and caption, got %+v", photo)
	}

	turns := turnsOf(t, env.store, 7)
	last := turns[len(turns)-1]
	if last.Speaker != models.SpeakerBot || !strings.Contains(last.Text, "(sent image: building_1)") {
		t.Fatalf("bot turn must record the media marker, got %q", last.Text)
	}
}

func TestPipeline_DispatchesAlbumForMultipleURLs(t *testing.T) {
	gen := &fakeGenerator{answer: "Our campus. [IMAGE:campus_tour]"}
	entries := []models.MediaEntry{
		{Tag: "campus_tour", URLs: []string{"https://a.jpg", "https://b.jpg", "https://c.jpg"}, Caption: "Campus"},
	}
	env := newTestEnv(gen, entries, time.Hour)

	env.pipeline.Handle(context.Background(), Incoming{ConversationID: 7, Text: "Show me around"})

	if len(env.replier.groups) != 1 {
		t.Fatalf("expected one grouped album, got %d", len(env.replier.groups))
	}
	if len(env.replier.groups[0]) != 3 {
		t.Fatalf("album must contain all urls, got %d", len(env.replier.groups[0]))
	}
	if len(env.replier.photos) != 0 {
		t.Fatalf("album dispatch must not also send single photos")
	}
}

func TestPipeline_UnknownTagSendsNoMedia(t *testing.T) {
	gen := &fakeGenerator{answer: "See our library [IMAGE:unknown_tag]"}
	env := newTestEnv(gen, nil, time.Hour)

	env.pipeline.Handle(context.Background(), Incoming{ConversationID: 2, Text: "Where is the library?"})

	if len(env.replier.photos) != 0 || len(env.replier.groups) != 0 {
		t.Fatalf("unknown tag must send no media")
	}
	if len(env.replier.texts) != 1 || strings.Contains(env.replier.texts[0], "[IMAGE:") {
		t.Fatalf("visible reply must still exclude the tag text, got %v", env.replier.texts)
	}
}

func TestPipeline_CachedAnswerStillDispatchesMedia(t *testing.T) {
	gen := &fakeGenerator{answer: "Main building. [IMAGE:building_1]"}
	entries := []models.MediaEntry{
		{Tag: "building_1", URLs: []string{"https://img.example/b1.jpg"}, Caption: "Main building"},
	}
	env := newTestEnv(gen, entries, time.Hour)
	msg := Incoming{ConversationID: 3, Text: "Show me the main building"}

	env.pipeline.Handle(context.Background(), msg)
	env.pipeline.Handle(context.Background(), msg)

	if gen.calls != 1 {
		t.Fatalf("second message must be a cache hit, got %d generator calls", gen.calls)
	}
	if len(env.replier.photos) != 2 {
		t.Fatalf("cached raw answer must keep triggering media dispatch, got %d photo sends", len(env.replier.photos))
	}
}

func TestPipeline_BlockedNeverCachedNorLogged(t *testing.T) {
	gen := &fakeGenerator{err: generator.ErrBlocked}
	env := newTestEnv(gen, nil, time.Hour)
	msg := Incoming{ConversationID: 4, Text: "Something against policy"}

	env.pipeline.Handle(context.Background(), msg)

	if len(env.replier.texts) != 1 || env.replier.texts[0] != blockedReply {
		t.Fatalf("expected the fixed blocked apology, got %v", env.replier.texts)
	}
	if _, found, _ := env.store.LookupAnswer(context.Background(), msg.Text, time.Hour); found {
		t.Fatalf("blocked results must never produce a cache write")
	}

	turns := turnsOf(t, env.store, 4)
	if len(turns) != 1 || turns[0].Speaker != models.SpeakerUser {
		t.Fatalf("blocked apology must not be logged as a bot turn, got %d turns", len(turns))
	}
}

func TestPipeline_EmptyFallbackLoggedButNotCached(t *testing.T) {
	gen := &fakeGenerator{err: generator.ErrEmpty}
	env := newTestEnv(gen, nil, time.Hour)
	msg := Incoming{ConversationID: 5, Text: "A perfectly fine question"}

	env.pipeline.Handle(context.Background(), msg)

	if len(env.replier.texts) != 1 || env.replier.texts[0] != emptyReply {
		t.Fatalf("expected the fixed empty fallback, got %v", env.replier.texts)
	}
	if _, found, _ := env.store.LookupAnswer(context.Background(), msg.Text, time.Hour); found {
		t.Fatalf("fallback text must never be cached")
	}

	turns := turnsOf(t, env.store, 5)
	if len(turns) != 2 || turns[1].Speaker != models.SpeakerBot || turns[1].Text != emptyReply {
		t.Fatalf("empty fallback must be logged as the bot turn, got %+v", turns)
	}
}

func TestPipeline_TransientErrorReply(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream 502")}
	env := newTestEnv(gen, nil, time.Hour)
	msg := Incoming{ConversationID: 6, Text: "What about dormitories?"}

	env.pipeline.Handle(context.Background(), msg)

	if len(env.replier.texts) != 1 || env.replier.texts[0] != transientReply {
		t.Fatalf("expected the fixed technical-error text, got %v", env.replier.texts)
	}
	if strings.Contains(env.replier.texts[0], "502") {
		t.Fatalf("error detail must never be echoed to the user")
	}
	if _, found, _ := env.store.LookupAnswer(context.Background(), msg.Text, time.Hour); found {
		t.Fatalf("error text must never be cached")
	}
}

func TestPipeline_IgnoresMessagesWithoutText(t *testing.T) {
	gen := &fakeGenerator{answer: "unused"}
	env := newTestEnv(gen, nil, time.Hour)

	env.pipeline.Handle(context.Background(), Incoming{ConversationID: 8, Text: "   "})

	if gen.calls != 0 {
		t.Fatalf("empty message must not reach the generator")
	}
	if len(env.replier.texts) != 0 {
		t.Fatalf("empty message must produce no outbound calls")
	}
	if turns := turnsOf(t, env.store, 8); len(turns) != 0 {
		t.Fatalf("empty message must produce no log writes, got %d turns", len(turns))
	}
}

func TestPipeline_HistoryFlowsIntoPrompt(t *testing.T) {
	gen := &fakeGenerator{answer: "We offer accounting."}
	env := newTestEnv(gen, nil, time.Hour)

	env.pipeline.Handle(context.Background(), Incoming{ConversationID: 9, Text: "What courses do you offer?"})
	env.pipeline.Handle(context.Background(), Incoming{ConversationID: 9, Text: "And what about fees?"})

	if !strings.Contains(gen.lastPrompt, "[USER]: What courses do you offer?") {
		t.Fatalf("prior user turn missing from prompt:\n%s", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, "[BOT]: We offer accounting.") {
		t.Fatalf("prior bot turn missing from prompt:\n%s", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, "And what about fees?") {
		t.Fatalf("new question missing from prompt:\n%s", gen.lastPrompt)
	}
}
