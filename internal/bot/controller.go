// Package bot implements the expense-entry wizard: a linear conversation
// that picks a category, captures an amount, optionally a description, and
// commits one row to the ledger.
package bot

import (
	"context"
	"fmt"
	"time"

	"gastos/internal/core"
	"gastos/internal/ledger"
	"gastos/internal/log"
	"gastos/internal/session"
)

const (
	msgWelcome       = "👋 Bot de Gastos!\nUsa /add para registar.\nUsa /cancel para cancelar um registo a meio."
	msgCancelled     = "✅ Cancelado. Usa /add para começar de novo."
	msgChooseCat     = "Escolhe categoria:"
	msgNoPermission  = "Sem permissão."
	msgSessionLost   = "❌ Sessão perdida. Usa /add novamente."
	msgAskDesc       = "✏️ Escreve a descrição (ou /cancel):"
	msgInvalidAmount = "❌ Valor inválido. Ex: 3.50 ou 3,50"
	msgStartWithAdd  = "Usa /add para começar um registo."
)

// Controller drives the wizard. All session mutations are serialized by the
// session store; the ledger write runs outside the lock under a bounded
// timeout so a slow spreadsheet never blocks unrelated updates.
type Controller struct {
	owner        int64
	sessions     *session.Store
	ledger       ledger.Appender
	tr           Transport
	logger       *log.Logger
	writeTimeout time.Duration
	today        func() core.Date
}

func NewController(owner int64, sessions *session.Store, appender ledger.Appender, tr Transport, logger *log.Logger, writeTimeout time.Duration) *Controller {
	return &Controller{
		owner:        owner,
		sessions:     sessions,
		ledger:       appender,
		tr:           tr,
		logger:       logger.WithComponent(log.ComponentBot),
		writeTimeout: writeTimeout,
		today:        core.Today,
	}
}

func (c *Controller) authorized(userID int64) bool {
	return userID == c.owner
}

// HandleCommand processes /start, /add and /cancel.
func (c *Controller) HandleCommand(ctx context.Context, cmd Command) {
	if !c.authorized(cmd.UserID) {
		c.logger.WarnContext(ctx, "Unauthorized command rejected",
			log.FieldUserID, cmd.UserID, log.FieldCommand, cmd.Name)
		c.send(cmd.ChatID, msgNoPermission)
		return
	}

	switch cmd.Name {
	case "start":
		c.send(cmd.ChatID, msgWelcome)
	case "add":
		c.sessions.Clear(cmd.UserID)
		c.sendChoices(cmd.ChatID, msgChooseCat, categoryChoices())
	case "cancel":
		c.sessions.Clear(cmd.UserID)
		c.send(cmd.ChatID, msgCancelled)
	default:
		c.logger.Debug("Unknown command ignored", log.FieldCommand, cmd.Name)
	}
}

// HandleCallback processes button presses, decoded into typed events before
// any business logic runs.
func (c *Controller) HandleCallback(ctx context.Context, cb Callback) {
	if !c.authorized(cb.UserID) {
		c.logger.WarnContext(ctx, "Unauthorized callback rejected",
			log.FieldUserID, cb.UserID, log.FieldCallback, cb.Data)
		if err := c.tr.AlertCallback(cb.ID, msgNoPermission); err != nil {
			c.logger.Error("Alert callback failed", log.FieldError, err)
		}
		return
	}

	ev, ok := DecodeCallback(cb.Data)
	if !ok {
		// Unknown payload family: acknowledged and dropped, but observable.
		c.logger.WarnContext(ctx, "Unknown callback payload ignored", log.FieldCallback, cb.Data)
		c.answer(cb.ID)
		return
	}
	c.answer(cb.ID)

	switch ev := ev.(type) {
	case CategorySelected:
		c.handleCategorySelected(ctx, cb, ev)
	case DescriptionChoice:
		c.handleDescriptionChoice(ctx, cb, ev)
	}
}

func (c *Controller) handleCategorySelected(ctx context.Context, cb Callback, ev CategorySelected) {
	cat, ok := core.CategoryByKey(ev.Key)
	if !ok {
		c.logger.WarnContext(ctx, "Callback with unknown category ignored", log.FieldCategory, ev.Key)
		return
	}

	// A category press restarts the amount phase even if one was pending.
	c.sessions.Update(cb.UserID, func(s *session.Session) {
		s.Category = cat.Key
		s.Amount = nil
		s.AwaitingDescription = false
	})
	c.logger.InfoContext(ctx, "Category selected",
		log.FieldUserID, cb.UserID, log.FieldCategory, cat.Key)
	c.edit(cb.ChatID, cb.MessageID,
		fmt.Sprintf("✅ Categoria: %s\nQuanto gastaste? (ex: 3.50 ou 2,50€)", cat.Label))
}

func (c *Controller) handleDescriptionChoice(ctx context.Context, cb Callback, ev DescriptionChoice) {
	if ev.WithDescription {
		// Check and flag under one lock so a racing /cancel cannot leave
		// an awaiting session without its category and amount.
		armed := false
		c.sessions.Update(cb.UserID, func(s *session.Session) {
			if s.Category == "" || s.Amount == nil {
				return
			}
			s.AwaitingDescription = true
			armed = true
		})
		if !armed {
			c.sessions.Clear(cb.UserID)
			c.edit(cb.ChatID, cb.MessageID, msgSessionLost)
			return
		}
		c.edit(cb.ChatID, cb.MessageID, msgAskDesc)
		return
	}

	cm, ok := c.sessions.TakeCommit(cb.UserID)
	if !ok {
		c.edit(cb.ChatID, cb.MessageID, msgSessionLost)
		return
	}
	c.commit(ctx, cm, "", func(text string) {
		c.edit(cb.ChatID, cb.MessageID, text)
	})
}

// HandleText routes free text: description when the wizard is waiting for
// one, amount when a category is chosen, and a nudge towards /add otherwise.
func (c *Controller) HandleText(ctx context.Context, m TextMessage) {
	if !c.authorized(m.UserID) {
		c.logger.WarnContext(ctx, "Unauthorized text rejected", log.FieldUserID, m.UserID)
		c.send(m.ChatID, msgNoPermission)
		return
	}

	snap := c.sessions.Snapshot(m.UserID)

	switch {
	case snap.AwaitingDescription:
		desc := core.TruncateDescription(m.Text)
		cm, ok := c.sessions.TakeCommit(m.UserID)
		if !ok {
			c.send(m.ChatID, msgSessionLost)
			return
		}
		c.commit(ctx, cm, desc, func(text string) {
			c.send(m.ChatID, text)
		})

	case snap.Category != "" && snap.Amount == nil:
		amount, err := core.ParseAmount(m.Text)
		if err != nil {
			// Self-loop: the category stays chosen, only the prompt repeats.
			c.send(m.ChatID, msgInvalidAmount)
			return
		}
		// Re-check under the lock: a /cancel racing this text must not
		// resurrect the session with an orphan amount.
		var catKey string
		c.sessions.Update(m.UserID, func(s *session.Session) {
			if s.Category == "" || s.Amount != nil || s.AwaitingDescription {
				return
			}
			s.Amount = &amount
			catKey = s.Category
		})
		if catKey == "" {
			c.send(m.ChatID, msgStartWithAdd)
			return
		}
		cat, _ := core.CategoryByKey(catKey)
		c.sendChoices(m.ChatID,
			fmt.Sprintf("Valor: %s€ em %s\nQueres adicionar descrição?", amount, cat.Label),
			descriptionChoices())

	default:
		c.send(m.ChatID, msgStartWithAdd)
	}
}

// commit appends one row to the ledger. The session was already consumed by
// TakeCommit, so a failure can never leave stale state behind, and /cancel
// has no effect on a write already in flight.
func (c *Controller) commit(ctx context.Context, cm session.Commit, desc string, reply func(string)) {
	e := core.Expense{
		Date:        c.today(),
		Description: desc,
		Category:    cm.Category,
		Amount:      cm.Amount,
	}

	wctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	start := time.Now()
	if err := c.ledger.Append(wctx, e); err != nil {
		we := ledger.Categorize(err)
		c.logger.ErrorContext(ctx, "Ledger write failed",
			log.FieldOperation, log.OpCommit,
			log.FieldCategory, cm.Category.Key,
			log.FieldAmountCents, cm.Amount.Cents,
			log.FieldFailure, string(we.Kind),
			log.FieldError, err)
		reply(fmt.Sprintf("❌ Erro ao gravar na Sheets: %s", we.Kind))
		return
	}

	c.logger.InfoContext(ctx, "Expense committed",
		log.FieldOperation, log.OpCommit,
		log.FieldCategory, cm.Category.Key,
		log.FieldAmountCents, cm.Amount.Cents,
		log.FieldDescLen, len(desc),
		log.FieldDuration, time.Since(start).Milliseconds())

	if desc == "" {
		reply(fmt.Sprintf("✅ %s€ em %s registado (sem descrição)!", cm.Amount, cm.Category.Label))
	} else {
		reply(fmt.Sprintf("✅ %s€ em %s registado: %s", cm.Amount, cm.Category.Label, desc))
	}
}

func categoryChoices() []Choice {
	cats := core.Categories()
	out := make([]Choice, 0, len(cats))
	for _, cat := range cats {
		out = append(out, Choice{
			Label: fmt.Sprintf("%s %s", cat.Emoji, cat.Label),
			Data:  encodeCategory(cat.Key),
		})
	}
	return out
}

func descriptionChoices() []Choice {
	return []Choice{
		{Label: "✅ Sem descrição", Data: descNoPayload},
		{Label: "✏️ Sim, adicionar", Data: descYesPayload},
	}
}

func (c *Controller) send(chatID int64, text string) {
	if err := c.tr.SendText(chatID, text); err != nil {
		c.logger.Error("Send failed", log.FieldChatID, chatID, log.FieldError, err)
	}
}

func (c *Controller) sendChoices(chatID int64, text string, choices []Choice) {
	if err := c.tr.SendChoices(chatID, text, choices); err != nil {
		c.logger.Error("Send with choices failed", log.FieldChatID, chatID, log.FieldError, err)
	}
}

func (c *Controller) edit(chatID int64, messageID int, text string) {
	if err := c.tr.EditText(chatID, messageID, text); err != nil {
		c.logger.Error("Edit failed", log.FieldChatID, chatID, log.FieldError, err)
	}
}

func (c *Controller) answer(callbackID string) {
	if err := c.tr.AnswerCallback(callbackID); err != nil {
		c.logger.Error("Answer callback failed", log.FieldError, err)
	}
}
