package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"gastos/internal/core"
	"gastos/internal/ledger/memory"
	applog "gastos/internal/log"
	"gastos/internal/session"
)

const (
	owner    int64 = 6356669235
	ownerCh  int64 = 100
	intruder int64 = 42
)

// fakeTransport records every outbound interaction.
type fakeTransport struct {
	mu      sync.Mutex
	texts   []string
	choices [][]Choice
	edits   []string
	answers int
	alerts  []string
}

func (f *fakeTransport) SendText(_ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeTransport) SendChoices(_ int64, text string, choices []Choice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.choices = append(f.choices, choices)
	return nil
}

func (f *fakeTransport) EditText(_ int64, _ int, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, text)
	return nil
}

func (f *fakeTransport) AnswerCallback(string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers++
	return nil
}

func (f *fakeTransport) AlertCallback(_, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, text)
	return nil
}

func (f *fakeTransport) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

func (f *fakeTransport) lastEdit() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.edits) == 0 {
		return ""
	}
	return f.edits[len(f.edits)-1]
}

func newTestController(t *testing.T) (*Controller, *fakeTransport, *memory.Store, *session.Store) {
	t.Helper()
	tr := &fakeTransport{}
	led := memory.New()
	store := session.NewStore()
	logger := applog.New(applog.Config{
		Handler: slog.NewTextHandler(io.Discard, nil),
	})
	c := NewController(owner, store, led, tr, logger, time.Second)
	c.today = func() core.Date { return core.NewDate(2025, 4, 10) }
	return c, tr, led, store
}

func cmd(name string) Command {
	return Command{UserID: owner, ChatID: ownerCh, Name: name}
}

func cb(data string) Callback {
	return Callback{UserID: owner, ChatID: ownerCh, MessageID: 7, ID: "cb1", Data: data}
}

func text(s string) TextMessage {
	return TextMessage{UserID: owner, ChatID: ownerCh, Text: s}
}

func TestAddPresentsAllCategories(t *testing.T) {
	c, tr, _, _ := newTestController(t)
	c.HandleCommand(context.Background(), cmd("add"))

	require.Len(t, tr.choices, 1)
	require.Len(t, tr.choices[0], 7)
	for i, cat := range core.Categories() {
		assert.Equal(t, "cat_"+cat.Key, tr.choices[0][i].Data)
		assert.Contains(t, tr.choices[0][i].Label, cat.Label)
	}
}

func TestCategorySelectionStoresKey(t *testing.T) {
	for _, cat := range core.Categories() {
		c, tr, _, store := newTestController(t)
		ctx := context.Background()
		c.HandleCommand(ctx, cmd("add"))
		c.HandleCallback(ctx, cb("cat_"+cat.Key))

		assert.Equal(t, cat.Key, store.Snapshot(owner).Category)
		assert.Contains(t, tr.lastEdit(), cat.Label)
	}
}

func TestRoundTripWithoutDescription(t *testing.T) {
	c, tr, led, store := newTestController(t)
	ctx := context.Background()

	c.HandleCommand(ctx, cmd("add"))
	c.HandleCallback(ctx, cb("cat_comida"))
	c.HandleText(ctx, text("7,25"))

	snap := store.Snapshot(owner)
	require.NotNil(t, snap.Amount)
	assert.Equal(t, int64(725), snap.Amount.Cents)

	c.HandleCallback(ctx, cb("desc_nao"))

	rows := led.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Comida", rows[0].Category.Label)
	assert.Equal(t, int64(725), rows[0].Amount.Cents)
	assert.Empty(t, rows[0].Description)
	assert.Equal(t, "10/04/25", rows[0].Date.Ledger())
	assert.True(t, store.Snapshot(owner).Empty())
	assert.Contains(t, tr.lastEdit(), "sem descrição")
}

func TestRoundTripWithTruncatedDescription(t *testing.T) {
	c, tr, led, store := newTestController(t)
	ctx := context.Background()

	c.HandleCommand(ctx, cmd("add"))
	c.HandleCallback(ctx, cb("cat_gaming"))
	c.HandleText(ctx, text("15"))
	c.HandleCallback(ctx, cb("desc_sim"))
	assert.True(t, store.Snapshot(owner).AwaitingDescription)

	c.HandleText(ctx, text(strings.Repeat("x", 120)))

	rows := led.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Gaming", rows[0].Category.Label)
	assert.Equal(t, int64(1500), rows[0].Amount.Cents)
	assert.Len(t, rows[0].Description, 80)
	assert.True(t, store.Snapshot(owner).Empty())
	assert.Contains(t, tr.lastText(), "registado")
}

func TestInvalidAmountSelfLoops(t *testing.T) {
	c, tr, led, store := newTestController(t)
	ctx := context.Background()

	c.HandleCommand(ctx, cmd("add"))
	c.HandleCallback(ctx, cb("cat_moto"))

	for _, bad := range []string{"abc", "-5", "0"} {
		c.HandleText(ctx, text(bad))
		assert.Equal(t, msgInvalidAmount, tr.lastText(), "input %q", bad)
		snap := store.Snapshot(owner)
		assert.Equal(t, "moto", snap.Category, "category must survive input %q", bad)
		assert.Nil(t, snap.Amount, "input %q", bad)
	}
	assert.Empty(t, led.Rows())

	// The wizard still accepts a valid amount afterwards.
	c.HandleText(ctx, text("3.50"))
	require.NotNil(t, store.Snapshot(owner).Amount)
}

func TestCancelIsIdempotent(t *testing.T) {
	c, tr, _, store := newTestController(t)
	ctx := context.Background()

	// From every stage of the wizard, and repeatedly.
	c.HandleCommand(ctx, cmd("cancel"))
	c.HandleCommand(ctx, cmd("add"))
	c.HandleCommand(ctx, cmd("cancel"))
	c.HandleCommand(ctx, cmd("add"))
	c.HandleCallback(ctx, cb("cat_bebida"))
	c.HandleText(ctx, text("2,50€"))
	c.HandleCommand(ctx, cmd("cancel"))
	c.HandleCommand(ctx, cmd("cancel"))

	assert.True(t, store.Snapshot(owner).Empty())
	assert.Equal(t, msgCancelled, tr.lastText())
}

func TestTextInIdlePromptsAdd(t *testing.T) {
	c, tr, _, _ := newTestController(t)
	c.HandleText(context.Background(), text("5.00"))
	assert.Equal(t, msgStartWithAdd, tr.lastText())
}

func TestStaleSelectorReportsSessionLost(t *testing.T) {
	c, tr, led, store := newTestController(t)
	ctx := context.Background()

	// desc_nao with no session at all.
	c.HandleCallback(ctx, cb("desc_nao"))
	assert.Equal(t, msgSessionLost, tr.lastEdit())

	// desc_sim with only a category.
	c.HandleCommand(ctx, cmd("add"))
	c.HandleCallback(ctx, cb("cat_comida"))
	c.HandleCallback(ctx, cb("desc_sim"))
	assert.Equal(t, msgSessionLost, tr.lastEdit())
	assert.True(t, store.Snapshot(owner).Empty())
	assert.Empty(t, led.Rows())
}

func TestUnauthorizedNeverMutatesState(t *testing.T) {
	c, tr, led, store := newTestController(t)
	ctx := context.Background()

	evil := func(userID int64) {
		c.HandleCommand(ctx, Command{UserID: userID, ChatID: 999, Name: "add"})
		c.HandleCallback(ctx, Callback{UserID: userID, ChatID: 999, ID: "x", Data: "cat_comida"})
		c.HandleCallback(ctx, Callback{UserID: userID, ChatID: 999, ID: "x", Data: "desc_nao"})
		c.HandleText(ctx, TextMessage{UserID: userID, ChatID: 999, Text: "10"})
	}
	evil(intruder)

	assert.True(t, store.Snapshot(owner).Empty())
	assert.True(t, store.Snapshot(intruder).Empty())
	assert.Empty(t, led.Rows())
	assert.Contains(t, tr.alerts, msgNoPermission)
	assert.Contains(t, tr.texts, msgNoPermission)
	assert.Empty(t, tr.choices)
}

func TestWriteFailureClearsSession(t *testing.T) {
	c, tr, led, store := newTestController(t)
	ctx := context.Background()

	led.FailWith(&googleapi.Error{Code: 403, Message: "forbidden"})

	c.HandleCommand(ctx, cmd("add"))
	c.HandleCallback(ctx, cb("cat_compras"))
	c.HandleText(ctx, text("9,99"))
	c.HandleCallback(ctx, cb("desc_nao"))

	assert.Contains(t, tr.lastEdit(), "Erro ao gravar na Sheets")
	assert.Contains(t, tr.lastEdit(), "autenticação")
	// Only the failure category leaks, never the raw error.
	assert.NotContains(t, tr.lastEdit(), "forbidden")
	assert.True(t, store.Snapshot(owner).Empty())

	// The next /add starts from a blank slate and can commit.
	led.FailWith(nil)
	c.HandleCommand(ctx, cmd("add"))
	c.HandleCallback(ctx, cb("cat_outros"))
	c.HandleText(ctx, text("1"))
	c.HandleCallback(ctx, cb("desc_nao"))
	require.Len(t, led.Rows(), 1)
	assert.Equal(t, "Outros", led.Rows()[0].Category.Label)
}

func TestCancelRaceKeepsSessionConsistent(t *testing.T) {
	c, _, _, store := newTestController(t)
	ctx := context.Background()

	// /cancel racing the "add description" press must never leave a session
	// awaiting a description without its category and amount.
	for i := 0; i < 200; i++ {
		c.HandleCommand(ctx, cmd("add"))
		c.HandleCallback(ctx, cb("cat_comida"))
		c.HandleText(ctx, text("3"))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.HandleCommand(ctx, cmd("cancel"))
		}()
		go func() {
			defer wg.Done()
			c.HandleCallback(ctx, cb("desc_sim"))
		}()
		wg.Wait()

		snap := store.Snapshot(owner)
		if snap.AwaitingDescription && (snap.Category == "" || snap.Amount == nil) {
			t.Fatal("session awaiting description without category and amount")
		}
		c.HandleCommand(ctx, cmd("cancel"))
	}

	// /cancel racing the amount text must never resurrect the session with
	// an orphan amount.
	for i := 0; i < 200; i++ {
		c.HandleCommand(ctx, cmd("add"))
		c.HandleCallback(ctx, cb("cat_moto"))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.HandleCommand(ctx, cmd("cancel"))
		}()
		go func() {
			defer wg.Done()
			c.HandleText(ctx, text("5"))
		}()
		wg.Wait()

		snap := store.Snapshot(owner)
		if snap.Amount != nil && snap.Category == "" {
			t.Fatal("session holds an amount without a category")
		}
		c.HandleCommand(ctx, cmd("cancel"))
	}
}

func TestUnknownCallbackIsNoOp(t *testing.T) {
	c, tr, led, store := newTestController(t)
	ctx := context.Background()

	c.HandleCommand(ctx, cmd("add"))
	c.HandleCallback(ctx, cb("future_feature"))
	c.HandleCallback(ctx, cb("cat_viagens")) // unknown category key

	assert.True(t, store.Snapshot(owner).Empty())
	assert.Empty(t, led.Rows())
	assert.Empty(t, tr.edits)
	assert.Equal(t, 2, tr.answers)
}
