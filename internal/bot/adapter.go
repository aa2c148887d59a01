package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	tg "workerbot/core/telegram"
	"workerbot/core/telegram/callbacks"
	"workerbot/core/telegram/commands"
	tghelpers "workerbot/core/telegram/helpers"
	"workerbot/internal/service"
)

// Adapter bridges telebot updates into engine events and plays the
// resulting instructions back through the shared send helpers. It also
// satisfies the text router's FSM contract so mid-flow text and photos
// bypass command lookup.
type Adapter struct {
	dispatch *Dispatcher
	engine   *Engine
	orders   *service.Orders
}

// NewAdapter builds the transport adapter.
func NewAdapter(dispatch *Dispatcher, engine *Engine, orders *service.Orders) *Adapter {
	return &Adapter{dispatch: dispatch, engine: engine, orders: orders}
}

// InProgress reports whether the sender holds conversation state.
func (a *Adapter) InProgress(userID int64) bool {
	return a.engine.InProgress(context.Background(), userID)
}

// ManagerHandler feeds a mid-flow text or photo update to the engine.
func (a *Adapter) ManagerHandler(c tele.Context) error {
	return a.handle(c, eventFromMessage(c))
}

// UnknownText handles text from idle users that matched no command.
func (a *Adapter) UnknownText(c tele.Context) error {
	return a.handle(c, eventFromMessage(c))
}

// UnknownPhoto handles photos arriving outside any flow.
func (a *Adapter) UnknownPhoto(c tele.Context) error {
	return a.handle(c, eventFromMessage(c))
}

// Register wires commands and callbacks into the registry.
func (a *Adapter) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.command("start"),
		Description: "Регистрация профиля",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.command("cancel"),
		Description: "Вернуться в главное меню",
	})
	reg.RegisterCommand("/addorder", commands.Command{
		Handler:     a.addOrder,
		Description: "Создать заказ: оплата;адрес;описание",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.SetTextFallback(a.UnknownText)

	for _, key := range []string{
		cbSelectOrder, cbBackToOrders, cbViewActive, cbViewCompleted,
		cbAddPhoto, cbComplete,
	} {
		_ = reg.RegisterCallback(key, a.callbackHandler(key))
	}
}

func (a *Adapter) command(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		ev := baseEvent(c)
		ev.Kind = EventCommand
		ev.Text = name
		return a.handle(c, ev)
	}
}

func (a *Adapter) callbackHandler(key string) tele.HandlerFunc {
	return func(c tele.Context) error {
		ev := baseEvent(c)
		ev.Kind = EventCallback
		ev.Callback = Token{Key: key, Payload: callbacks.CallbackPayload(c)}
		return a.handle(c, ev)
	}
}

// parseAddOrder splits "оплата;адрес;описание" into order fields.
func parseAddOrder(payload string) (payment int64, address, description string, err error) {
	parts := strings.SplitN(payload, ";", 3)
	if len(parts) != 3 {
		return 0, "", "", fmt.Errorf("expected 3 fields, got %d", len(parts))
	}
	payment, err = strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, "", "", fmt.Errorf("payment: %w", err)
	}
	return payment, strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), nil
}

// addOrder creates an order from the command payload. Admin gating is the
// command middleware's job.
func (a *Adapter) addOrder(c tele.Context) error {
	payment, address, description, err := parseAddOrder(c.Message().Payload)
	if err != nil {
		return tghelpers.SendText(c, "Формат: /addorder <оплата>;<адрес>;<описание>")
	}
	ctx := tghelpers.BuildContext(c)
	id, err := a.orders.Create(ctx, payment, address, description)
	if err != nil {
		if service.IsStorage(err) {
			_ = tghelpers.SendText(c, msgStorageRetry)
			return err
		}
		return tghelpers.SendText(c, "❌ "+err.Error())
	}
	return tghelpers.SendText(c, fmt.Sprintf("✅ Заказ #%d создан", id))
}

func (a *Adapter) handle(c tele.Context, ev Event) error {
	ctx := tghelpers.BuildContext(c)
	out, err := a.dispatch.Do(ctx, ev)
	if execErr := a.execute(c, out); execErr != nil && err == nil {
		err = execErr
	}
	return err
}

// execute plays instructions back in order through the shared helpers.
func (a *Adapter) execute(c tele.Context, out []Instruction) error {
	for _, in := range out {
		var err error
		switch in.Op {
		case OpSendText:
			err = tghelpers.SendWith(c, in.Text, markup(in.Keyboard))
		case OpSendPhoto:
			err = tghelpers.SendPhoto(c, in.PhotoRef, in.Caption, markup(in.Keyboard))
		case OpEditText:
			err = tghelpers.EditOrSend(c, in.Text, markup(in.Keyboard))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func baseEvent(c tele.Context) Event {
	ev := Event{}
	if s := c.Sender(); s != nil {
		ev.UserID = s.ID
		ev.Sender = displayName(s)
	}
	return ev
}

func eventFromMessage(c tele.Context) Event {
	ev := baseEvent(c)
	if m := c.Message(); m != nil && m.Photo != nil {
		ev.Kind = EventPhoto
		ev.PhotoRef = m.Photo.FileID
		return ev
	}
	ev.Kind = EventText
	ev.Text = c.Text()
	return ev
}

func displayName(u *tele.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}

// OperatorNotifier delivers support escalations straight through the bot,
// outside the per-chat send helpers.
type OperatorNotifier struct {
	Bot *tele.Bot
}

// Notify sends one message to the operator's private chat.
func (n OperatorNotifier) Notify(operatorID int64, text string) error {
	_, err := n.Bot.Send(&tele.User{ID: operatorID}, text)
	return err
}
