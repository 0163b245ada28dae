package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elpekenin/docker-bot-tasks/internal/model"
	"github.com/elpekenin/docker-bot-tasks/internal/session"
	"github.com/elpekenin/docker-bot-tasks/internal/storage"
)

const (
	testChatID int64 = 100
	testUserID int64 = 10
)

type sentMessage struct {
	ChatID int64
	ID     int
	Msg    Message
}

type editRecord struct {
	ChatID    int64
	MessageID int
	Msg       Message
}

type fakeMessenger struct {
	mu        sync.Mutex
	nextID    int
	sent      []sentMessage
	locations []int
	edits     []editRecord
	deleted   []int
	deleteErr map[int]error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{nextID: 1000, deleteErr: map[int]error{}}
}

func (f *fakeMessenger) Send(_ context.Context, chatID int64, msg Message) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, sentMessage{ChatID: chatID, ID: f.nextID, Msg: msg})
	return f.nextID, nil
}

func (f *fakeMessenger) SendLocation(_ context.Context, _ int64, _, _ float64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.locations = append(f.locations, f.nextID)
	return f.nextID, nil
}

func (f *fakeMessenger) Edit(_ context.Context, chatID int64, messageID int, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, editRecord{ChatID: chatID, MessageID: messageID, Msg: msg})
	return nil
}

func (f *fakeMessenger) Delete(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return f.deleteErr[messageID]
}

func (f *fakeMessenger) lastSent() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fakeRepo struct {
	mu       sync.Mutex
	groups   map[int64]model.Group
	users    map[int64]string
	reports  []model.Report
	counters map[int64]int
}

func (r *fakeRepo) Group(_ context.Context, chatID int64) (model.Group, error) {
	g, ok := r.groups[chatID]
	if !ok {
		return model.Group{}, storage.ErrGroupNotRegistered
	}
	return g, nil
}

func (r *fakeRepo) UserLanguage(_ context.Context, userID int64) (string, error) {
	lang, ok := r.users[userID]
	if !ok {
		return "", storage.ErrNotFound
	}
	return lang, nil
}

func (r *fakeRepo) Text(context.Context, string, string) (string, error) {
	return "", storage.ErrNotFound
}

func (r *fakeRepo) InsertReport(_ context.Context, report model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.reports {
		if existing.GroupID == report.GroupID && existing.MessageID == report.MessageID {
			r.reports[i] = report
			return nil
		}
	}
	r.reports = append(r.reports, report)
	return nil
}

func (r *fakeRepo) ConfirmReport(ctx context.Context, report model.Report) error {
	return r.InsertReport(ctx, report)
}

func (r *fakeRepo) IncrementUserReports(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[userID]++
	return nil
}

type fakeCatalog struct {
	categories []string
	options    []string
	rewards    []string
	cp         map[string]int
}

func (c *fakeCatalog) Categories(context.Context, string) ([]string, error) {
	return c.categories, nil
}

func (c *fakeCatalog) TaskOptions(context.Context, string, string) ([]string, error) {
	return c.options, nil
}

func (c *fakeCatalog) AvailableRewards(context.Context, string) ([]string, error) {
	return c.rewards, nil
}

func (c *fakeCatalog) RewardCP(_ context.Context, _, reward string) (int, error) {
	return c.cp[reward], nil
}

// fakeDeferrer records the delay and runs the work synchronously so tests see
// the outcome of deferred cleanup without sleeping.
type fakeDeferrer struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (d *fakeDeferrer) After(_ context.Context, _ string, delay time.Duration, run func() error) error {
	d.mu.Lock()
	d.delays = append(d.delays, delay)
	d.mu.Unlock()
	return run()
}

type fixture struct {
	engine   *Engine
	msgr     *fakeMessenger
	repo     *fakeRepo
	catalog  *fakeCatalog
	deferrer *fakeDeferrer
	sessions *session.Store
}

func newFixture(g model.Group) *fixture {
	repo := &fakeRepo{
		groups:   map[int64]model.Group{},
		users:    map[int64]string{testUserID: "english"},
		counters: map[int64]int{},
	}
	if g.GroupID != 0 {
		repo.groups[g.GroupID] = g
	}
	cat := &fakeCatalog{
		categories: []string{"Pokemon", "Items"},
		options: []string{
			"Larvitar✨, Catch 3 dragon-type Pokemon\n💯: 842",
			"Magikarp✨/Dratini, Make an excellent throw",
		},
		rewards: []string{"Larvitar", "Magikarp", "Dratini", "Rare Candy"},
		cp:      map[string]int{"Larvitar": 842, "Magikarp": 129},
	}
	msgr := newFakeMessenger()
	deferrer := &fakeDeferrer{}
	sessions := session.NewStore()

	engine := New(Options{
		Sessions:   sessions,
		Messenger:  msgr,
		Repository: repo,
		Catalog:    cat,
		Deferrer:   deferrer,
		GraceDelay: 5 * time.Second,
		BotURL:     "https://t.me/testbot",
	})

	return &fixture{
		engine:   engine,
		msgr:     msgr,
		repo:     repo,
		catalog:  cat,
		deferrer: deferrer,
		sessions: sessions,
	}
}

func plainGroup() model.Group {
	return model.Group{GroupID: testChatID, Language: "english", Timezone: "GMT+1"}
}

func locationEntry() Inbound {
	return Inbound{
		ChatID:    testChatID,
		MessageID: 1,
		UserID:    testUserID,
		Username:  "ash",
		Latitude:  40.4168,
		Longitude: -3.7038,
	}
}

func (f *fixture) mustState(t *testing.T, want session.State) *session.Session {
	t.Helper()
	s, ok := f.sessions.Get(testChatID)
	require.True(t, ok, "expected a live session")
	require.Equal(t, want, s.State)
	return s
}

func TestEntryWithoutGatesAsksCategory(t *testing.T) {
	f := newFixture(plainGroup())
	ctx := context.Background()

	require.NoError(t, f.engine.StartFromLocation(ctx, locationEntry()))

	f.mustState(t, session.StateCategory)
	prompt := f.msgr.lastSent()
	assert.Equal(t, []string{"Pokemon", "Items", "❌❌❌"}, prompt.Msg.Options)
}

func TestEntryConfirmationGate(t *testing.T) {
	g := plainGroup()
	g.Confirmation = true
	f := newFixture(g)
	ctx := context.Background()

	require.NoError(t, f.engine.StartFromLocation(ctx, locationEntry()))

	f.mustState(t, session.StateConfirmation)
	prompt := f.msgr.lastSent()
	require.Len(t, prompt.Msg.Buttons, 2)
	assert.Equal(t, CallbackConfirm, prompt.Msg.Buttons[0].Unique)
	assert.Equal(t, CallbackCancel, prompt.Msg.Buttons[1].Unique)

	require.NoError(t, f.engine.HandleDecision(ctx, Inbound{ChatID: testChatID, UserID: testUserID}, true))
	f.mustState(t, session.StateCategory)
}

func TestEntryConfirmationRejectedCleansUp(t *testing.T) {
	g := plainGroup()
	g.Confirmation = true
	f := newFixture(g)
	ctx := context.Background()

	require.NoError(t, f.engine.StartFromLocation(ctx, locationEntry()))
	promptID := f.msgr.lastSent().ID

	require.NoError(t, f.engine.HandleDecision(ctx, Inbound{ChatID: testChatID}, false))

	assert.False(t, f.sessions.InProgress(testChatID))
	// Prompt and the location share are removed on the rejection path.
	assert.ElementsMatch(t, []int{promptID, 1}, f.msgr.deleted)
}

func TestEntryBothGates(t *testing.T) {
	g := plainGroup()
	g.Confirmation = true
	g.Pokestop = true
	f := newFixture(g)
	ctx := context.Background()

	require.NoError(t, f.engine.StartFromLocation(ctx, locationEntry()))
	f.mustState(t, session.StateConfirmation)

	require.NoError(t, f.engine.HandleDecision(ctx, Inbound{ChatID: testChatID}, true))
	f.mustState(t, session.StatePokestop)

	require.NoError(t, f.engine.HandleMessage(ctx, Inbound{
		ChatID: testChatID, MessageID: 2, Text: "Plaza Mayor",
	}))
	s := f.mustState(t, session.StateCategory)
	assert.Equal(t, "Plaza Mayor", s.Pokestop)
}

func TestSecondEntryRejectedWithNotice(t *testing.T) {
	f := newFixture(plainGroup())
	ctx := context.Background()

	require.NoError(t, f.engine.StartFromLocation(ctx, locationEntry()))
	categoryPrompt := f.msgr.lastSent().ID

	second := locationEntry()
	second.MessageID = 50
	require.NoError(t, f.engine.StartFromLocation(ctx, second))

	// The first session survives untouched.
	s := f.mustState(t, session.StateCategory)
	noticeID := f.msgr.lastSent().ID

	// Cancelling deletes everything exactly once: the category prompt, the
	// rejected trigger, the busy notice, the cancel message, the location.
	require.NoError(t, f.engine.HandleMessage(ctx, Inbound{
		ChatID: testChatID, MessageID: 60, Text: "❌❌❌",
	}))
	assert.False(t, f.sessions.InProgress(testChatID))
	assert.ElementsMatch(t, []int{categoryPrompt, 50, noticeID, 60, s.LocationID}, f.msgr.deleted)
}

func TestCoordinateEntry(t *testing.T) {
	f := newFixture(plainGroup())
	ctx := context.Background()

	consumed, err := f.engine.StartFromCoordinates(ctx, Inbound{
		ChatID: testChatID, MessageID: 1, UserID: testUserID, Username: "ash",
		Text: "40.4168, -3.7038",
	})
	require.NoError(t, err)
	require.True(t, consumed)

	s := f.mustState(t, session.StateCategory)
	require.Len(t, f.msgr.locations, 1)
	// The echo becomes the report's location message; the typed trigger is
	// transient.
	assert.Equal(t, f.msgr.locations[0], s.LocationID)
	assert.Contains(t, s.Pending(), 1)
	assert.InDelta(t, 40.4168, s.Latitude, 1e-9)
	assert.InDelta(t, -3.7038, s.Longitude, 1e-9)
}

func TestOrdinaryTextIsNotAnEntry(t *testing.T) {
	f := newFixture(plainGroup())

	consumed, err := f.engine.StartFromCoordinates(context.Background(), Inbound{
		ChatID: testChatID, MessageID: 1, Text: "hello there",
	})
	require.NoError(t, err)
	assert.False(t, consumed)
	assert.False(t, f.sessions.InProgress(testChatID))
}

func TestUnregisteredGroupTerminatesWithGrace(t *testing.T) {
	f := newFixture(model.Group{})
	ctx := context.Background()

	require.NoError(t, f.engine.StartFromLocation(ctx, locationEntry()))

	assert.False(t, f.sessions.InProgress(testChatID))
	require.Len(t, f.msgr.sent, 1)
	assert.Contains(t, f.msgr.sent[0].Msg.Text, "/add_group")

	// The notice stays readable: the sweep runs after the grace delay, not
	// in the same breath as the send.
	require.Len(t, f.deferrer.delays, 1)
	assert.Equal(t, 5*time.Second, f.deferrer.delays[0])
	noticeID := f.msgr.sent[0].ID
	assert.ElementsMatch(t, []int{noticeID, 1}, f.msgr.deleted)
}

func TestUnregisteredUserIsPointedAtPrivateChat(t *testing.T) {
	f := newFixture(plainGroup())
	f.repo.users = map[int64]string{}
	ctx := context.Background()

	require.NoError(t, f.engine.StartFromLocation(ctx, locationEntry()))

	// The chat is free immediately, the sweep is deferred by the grace delay.
	assert.False(t, f.sessions.InProgress(testChatID))
	require.Len(t, f.deferrer.delays, 1)
	assert.Equal(t, 5*time.Second, f.deferrer.delays[0])

	notice := f.msgr.sent[0]
	require.Len(t, notice.Msg.Buttons, 1)
	assert.Equal(t, "https://t.me/testbot", notice.Msg.Buttons[0].URL)
	assert.ElementsMatch(t, []int{notice.ID, 1}, f.msgr.deleted)
	assert.Empty(t, f.repo.reports)
}

func TestUnknownCategoryTerminatesWithGrace(t *testing.T) {
	f := newFixture(plainGroup())
	ctx := context.Background()

	require.NoError(t, f.engine.StartFromLocation(ctx, locationEntry()))
	categoryPrompt := f.msgr.lastSent().ID

	require.NoError(t, f.engine.HandleMessage(ctx, Inbound{
		ChatID: testChatID, MessageID: 2, Text: "not a category",
	}))

	assert.False(t, f.sessions.InProgress(testChatID))
	require.Len(t, f.deferrer.delays, 1)
	noticeID := f.msgr.lastSent().ID
	assert.ElementsMatch(t, []int{categoryPrompt, 2, noticeID, 1}, f.msgr.deleted)
	assert.Empty(t, f.repo.reports)
}

// driveToTask walks a fresh session to the task answer state and returns the
// ids of the category and task prompts.
func driveToTask(t *testing.T, f *fixture) (int, int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.engine.StartFromLocation(ctx, locationEntry()))
	categoryPrompt := f.msgr.lastSent().ID
	require.NoError(t, f.engine.HandleMessage(ctx, Inbound{
		ChatID: testChatID, MessageID: 2, Text: "Pokemon",
	}))
	taskPrompt := f.msgr.lastSent().ID
	f.mustState(t, session.StateTask)
	return categoryPrompt, taskPrompt
}

func TestUnknownRewardTerminatesWithoutReport(t *testing.T) {
	f := newFixture(plainGroup())
	driveToTask(t, f)

	require.NoError(t, f.engine.HandleMessage(context.Background(), Inbound{
		ChatID: testChatID, MessageID: 3, Text: "Mewtwo, Win a raid",
	}))

	assert.False(t, f.sessions.InProgress(testChatID))
	assert.Empty(t, f.repo.reports)
	require.Len(t, f.deferrer.delays, 1)
}

func TestSingleRewardReport(t *testing.T) {
	f := newFixture(plainGroup())
	categoryPrompt, taskPrompt := driveToTask(t, f)

	require.NoError(t, f.engine.HandleMessage(context.Background(), Inbound{
		ChatID: testChatID, MessageID: 3, UserID: testUserID, Username: "ash",
		Text: "Larvitar✨, Catch 3 dragon-type Pokemon\n💯: 842",
	}))

	assert.False(t, f.sessions.InProgress(testChatID))

	final := f.msgr.lastSent()
	assert.True(t, final.Msg.HTML)
	assert.Empty(t, final.Msg.Buttons)
	assert.Contains(t, final.Msg.Text, "<b>Larvitar✨</b>")
	assert.Contains(t, final.Msg.Text, "💯: 842")
	assert.Contains(t, final.Msg.Text, "@ash")
	assert.Contains(t, final.Msg.Text, "google.com/maps")

	require.Len(t, f.repo.reports, 1)
	report := f.repo.reports[0]
	assert.Equal(t, "Larvitar", report.Reward)
	assert.Equal(t, final.ID, report.MessageID)
	assert.Equal(t, 1, report.LocationID)
	assert.Equal(t, "GMT+1", report.Timezone)
	assert.Equal(t, 1, f.repo.counters[testUserID])

	// Prompts and answers are swept, the location share stays.
	assert.ElementsMatch(t, []int{categoryPrompt, 2, taskPrompt, 3}, f.msgr.deleted)
	assert.NotContains(t, f.msgr.deleted, 1)
}

func TestMultiRewardProducesPlaceholder(t *testing.T) {
	f := newFixture(plainGroup())
	driveToTask(t, f)

	require.NoError(t, f.engine.HandleMessage(context.Background(), Inbound{
		ChatID: testChatID, MessageID: 3, UserID: testUserID, Username: "ash",
		Text: "Magikarp✨/Dratini, Make an excellent throw",
	}))

	final := f.msgr.lastSent()
	require.Len(t, final.Msg.Buttons, 2)
	assert.Equal(t, "Magikarp✨", final.Msg.Buttons[0].Text)
	assert.Equal(t, "Dratini", final.Msg.Buttons[1].Text)
	assert.Equal(t, CallbackPick, final.Msg.Buttons[0].Unique)
	assert.Contains(t, final.Msg.Text, "<b>❓</b>")

	require.Len(t, f.repo.reports, 1)
	assert.Equal(t, model.RewardUnconfirmed, f.repo.reports[0].Reward)
	// The counter only moves once a reward is picked.
	assert.Zero(t, f.repo.counters[testUserID])
}

func TestSlashInTaskTextAsksForPick(t *testing.T) {
	f := newFixture(plainGroup())
	driveToTask(t, f)

	// A '/' anywhere in the answer marks a multi-candidate task, even when
	// the reward segment holds a single name.
	require.NoError(t, f.engine.HandleMessage(context.Background(), Inbound{
		ChatID: testChatID, MessageID: 3, UserID: testUserID, Username: "ash",
		Text: "Larvitar✨, Catch 3 Pokemon w/ a berry",
	}))

	final := f.msgr.lastSent()
	require.Len(t, final.Msg.Buttons, 1)
	assert.Equal(t, "Larvitar✨", final.Msg.Buttons[0].Text)
	require.Len(t, f.repo.reports, 1)
	assert.Equal(t, model.RewardUnconfirmed, f.repo.reports[0].Reward)
	assert.Zero(t, f.repo.counters[testUserID])
}

func TestConfirmSelection(t *testing.T) {
	f := newFixture(plainGroup())
	ctx := context.Background()

	payload := encodeSelection("Magikarp✨", -3.7038, 40.4168, "Plaza, Mayor", 1)
	require.NoError(t, f.engine.ConfirmSelection(ctx, Selection{
		ChatID:    testChatID,
		MessageID: 555,
		UserID:    testUserID,
		Username:  "misty",
		OldText:   "Plaza, Mayor\n❓, Make an excellent throw\nReported by @ash",
		Payload:   payload,
	}))

	require.Len(t, f.msgr.edits, 1)
	edit := f.msgr.edits[0]
	assert.Equal(t, 555, edit.MessageID)
	assert.True(t, edit.Msg.ClearButtons)
	assert.Contains(t, edit.Msg.Text, "<b>Magikarp✨</b>")
	assert.Contains(t, edit.Msg.Text, "💯: 129")
	assert.Contains(t, edit.Msg.Text, "Reported by @ash")
	assert.Contains(t, edit.Msg.Text, "@misty")
	assert.Contains(t, edit.Msg.Text, "google.com/maps")

	require.Len(t, f.repo.reports, 1)
	report := f.repo.reports[0]
	assert.Equal(t, "Magikarp", report.Reward)
	assert.Equal(t, 555, report.MessageID)
	assert.Equal(t, 1, report.LocationID)
	assert.Equal(t, "Plaza, Mayor", report.Pokestop)
	assert.Equal(t, 1, f.repo.counters[testUserID])
}

func TestConfirmSelectionMalformedPayload(t *testing.T) {
	f := newFixture(plainGroup())

	err := f.engine.ConfirmSelection(context.Background(), Selection{
		ChatID: testChatID, MessageID: 555, Payload: "garbage",
	})
	assert.Error(t, err)
	assert.Empty(t, f.msgr.edits)
	assert.Empty(t, f.repo.reports)
}

func TestStaleDecisionIsIgnored(t *testing.T) {
	f := newFixture(plainGroup())

	// No live session; a leftover confirmation button resolves to a no-op.
	require.NoError(t, f.engine.HandleDecision(context.Background(),
		Inbound{ChatID: testChatID}, true))
	assert.Empty(t, f.msgr.sent)
}

func TestChatterDuringConfirmationIsIgnored(t *testing.T) {
	g := plainGroup()
	g.Confirmation = true
	f := newFixture(g)
	ctx := context.Background()

	require.NoError(t, f.engine.StartFromLocation(ctx, locationEntry()))
	require.NoError(t, f.engine.HandleMessage(ctx, Inbound{
		ChatID: testChatID, MessageID: 7, Text: "anyone up for a raid?",
	}))

	s := f.mustState(t, session.StateConfirmation)
	assert.NotContains(t, s.Pending(), 7)
}
