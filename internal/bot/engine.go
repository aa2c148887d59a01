package bot

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"workerbot/core/logger"
	"workerbot/internal/models"
	"workerbot/internal/service"
	"workerbot/internal/session"
)

const engineComponent = "bot.engine"

// Engine is the conversation state machine. Each inbound event resolves the
// user's session, applies exactly one transition and returns the replies for
// the transport to execute in order. Domain writes always land before the
// session write, so a crash between the two re-runs an idempotent step
// instead of losing data.
type Engine struct {
	users    *service.Users
	orders   *service.Orders
	support  *service.Support
	sessions *session.Manager
}

// NewEngine wires the state machine over its services.
func NewEngine(users *service.Users, orders *service.Orders, support *service.Support, sessions *session.Manager) *Engine {
	return &Engine{users: users, orders: orders, support: support, sessions: sessions}
}

// InProgress reports whether the user is mid-flow, meaning free text and
// photos must reach the engine rather than generic fallbacks.
func (e *Engine) InProgress(ctx context.Context, userID int64) bool {
	sess, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return false
	}
	return sess.State != session.StateIdle
}

// HandleEvent applies one event to the user's session. The returned error is
// for logging only; user-facing failures are already expressed as
// instructions.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) ([]Instruction, error) {
	sess, err := e.sessions.Get(ctx, ev.UserID)
	if err != nil {
		return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
	}

	logger.Debug(ctx, engineComponent, "event",
		slog.Int64("user_id", ev.UserID),
		slog.String("state", string(sess.State)),
	)

	if ev.Kind == EventCommand {
		return e.handleCommand(ctx, sess, ev)
	}

	switch {
	case sess.State.Registration():
		return e.handleRegistration(ctx, sess, ev)
	case sess.State == session.StateIdle:
		return e.handleIdle(ctx, sess, ev)
	case sess.State == session.StateBrowsingOrders,
		sess.State == session.StateViewingActiveOrders,
		sess.State == session.StateViewingCompletedOrders:
		return e.handleOrderBrowsing(ctx, sess, ev)
	case sess.State == session.StateOrderDetail:
		return e.handleOrderDetail(ctx, sess, ev)
	case sess.State == session.StateAwaitingSupportMessage:
		return e.handleSupport(ctx, sess, ev)
	}
	return []Instruction{sendText(msgUnrecognized, Keyboard{Kind: KbMain})}, nil
}

func (e *Engine) handleCommand(ctx context.Context, sess *session.Session, ev Event) ([]Instruction, error) {
	switch ev.Text {
	case "start":
		// Re-registration is always allowed; the finished profile
		// replaces the previous one atomically on the last step.
		if err := e.sessions.Set(ctx, ev.UserID, session.StateAwaitingName, session.Scratch{Draft: &session.Draft{}}); err != nil {
			return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
		}
		return []Instruction{sendText(msgGreeting, Keyboard{Kind: KbRemove})}, nil

	case "cancel":
		if sess.State.Registration() {
			if err := e.sessions.Set(ctx, ev.UserID, session.StateIdle, session.Scratch{}); err != nil {
				return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
			}
			return []Instruction{
				sendText(msgCancelled, Keyboard{Kind: KbNone}),
				sendText(msgMainMenu, Keyboard{Kind: KbMain}),
			}, nil
		}
		if err := e.sessions.Set(ctx, ev.UserID, session.StateIdle, session.Scratch{}); err != nil {
			return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
		}
		return []Instruction{sendText(msgMainMenu, Keyboard{Kind: KbMain})}, nil
	}
	return []Instruction{sendText(msgUnrecognized, Keyboard{Kind: KbMain})}, nil
}

// handleRegistration walks the linear profile intake. Invalid numeric input
// re-prompts without changing state; the profile row is written only on the
// final photo step.
func (e *Engine) handleRegistration(ctx context.Context, sess *session.Session, ev Event) ([]Instruction, error) {
	draft := sess.Scratch.Draft
	if draft == nil {
		draft = &session.Draft{}
	}

	if sess.State == session.StateAwaitingPhoto {
		if ev.Kind != EventPhoto {
			return []Instruction{sendText(msgAskPhoto, Keyboard{})}, nil
		}
		created, err := e.users.Save(ctx, models.User{
			UserID:        ev.UserID,
			FullName:      draft.FullName,
			Age:           draft.Age,
			City:          draft.City,
			Experience:    draft.Experience,
			DesiredIncome: draft.DesiredIncome,
			PhotoRef:      ev.PhotoRef,
		})
		if err != nil {
			return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
		}
		if err := e.sessions.Set(ctx, ev.UserID, session.StateIdle, session.Scratch{}); err != nil {
			return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
		}
		done := msgProfileUpdated
		if created {
			done = msgProfileCreated
		}
		return []Instruction{
			sendText(done, Keyboard{Kind: KbNone}),
			sendText(msgMainMenu, Keyboard{Kind: KbMain}),
		}, nil
	}

	if ev.Kind != EventText || strings.TrimSpace(ev.Text) == "" {
		return []Instruction{sendText(prompt(sess.State), Keyboard{})}, nil
	}
	text := strings.TrimSpace(ev.Text)

	var next session.State
	switch sess.State {
	case session.StateAwaitingName:
		draft.FullName = text
		next = session.StateAwaitingAge
	case session.StateAwaitingAge:
		age, err := strconv.Atoi(text)
		if err != nil || age <= 0 {
			return []Instruction{sendText(msgNumberPlease, Keyboard{})}, nil
		}
		draft.Age = age
		next = session.StateAwaitingCity
	case session.StateAwaitingCity:
		draft.City = text
		next = session.StateAwaitingExperience
	case session.StateAwaitingExperience:
		draft.Experience = text
		next = session.StateAwaitingIncome
	case session.StateAwaitingIncome:
		income, err := strconv.ParseInt(text, 10, 64)
		if err != nil || income <= 0 {
			return []Instruction{sendText(msgNumberPlease, Keyboard{})}, nil
		}
		draft.DesiredIncome = income
		next = session.StateAwaitingPhoto
	}

	if err := e.sessions.Set(ctx, ev.UserID, next, session.Scratch{Draft: draft}); err != nil {
		return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
	}
	return []Instruction{sendText(ack() + " " + prompt(next), Keyboard{})}, nil
}

// prompt returns the question belonging to a registration state.
func prompt(st session.State) string {
	switch st {
	case session.StateAwaitingName:
		return msgGreeting
	case session.StateAwaitingAge:
		return msgAskAge
	case session.StateAwaitingCity:
		return msgAskCity
	case session.StateAwaitingExperience:
		return msgAskExperience
	case session.StateAwaitingIncome:
		return msgAskIncome
	case session.StateAwaitingPhoto:
		return msgAskPhoto
	}
	return msgUnrecognized
}

func (e *Engine) handleIdle(ctx context.Context, sess *session.Session, ev Event) ([]Instruction, error) {
	if ev.Kind == EventCallback {
		return e.handleOrderBrowsing(ctx, sess, ev)
	}
	if ev.Kind == EventPhoto {
		return []Instruction{sendText(msgUnrecognized, Keyboard{Kind: KbMain})}, nil
	}

	switch ev.Text {
	case btnProfile:
		u, err := e.users.Get(ctx, ev.UserID)
		if service.IsNotFound(err) {
			return []Instruction{sendText(msgProfileMissing, Keyboard{Kind: KbMain})}, nil
		}
		if err != nil {
			return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
		}
		if u.PhotoRef != "" {
			return []Instruction{sendPhoto(u.PhotoRef, profileCaption(u), Keyboard{Kind: KbMain})}, nil
		}
		return []Instruction{sendText(profileCaption(u), Keyboard{Kind: KbMain})}, nil

	case btnOrders:
		if err := e.sessions.Set(ctx, ev.UserID, session.StateBrowsingOrders, session.Scratch{}); err != nil {
			return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
		}
		return []Instruction{sendText(msgPickOrderType, Keyboard{Kind: KbOrdersMenu})}, nil

	case btnSupport:
		if err := e.sessions.Set(ctx, ev.UserID, session.StateAwaitingSupportMessage, session.Scratch{}); err != nil {
			return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
		}
		return []Instruction{sendText(msgSupportPrompt, Keyboard{Kind: KbRemove})}, nil

	case btnFinance:
		return []Instruction{sendText(msgFinance, Keyboard{Kind: KbMain})}, nil
	}
	return []Instruction{sendText(msgUnrecognized, Keyboard{Kind: KbMain})}, nil
}

// handleOrderBrowsing covers the orders menu and both list views. Reply
// buttons and inline callbacks lead to the same lists; callbacks edit the
// message in place.
func (e *Engine) handleOrderBrowsing(ctx context.Context, sess *session.Session, ev Event) ([]Instruction, error) {
	switch ev.Kind {
	case EventCallback:
		switch ev.Callback.Key {
		case cbViewActive:
			return e.showOrderList(ctx, sess, ev, models.OrderActive)
		case cbViewCompleted:
			return e.showOrderList(ctx, sess, ev, models.OrderCompleted)
		case cbSelectOrder:
			return e.openOrder(ctx, sess, ev)
		case cbBackToOrders:
			if err := e.sessions.Set(ctx, ev.UserID, session.StateBrowsingOrders, session.Scratch{}); err != nil {
				return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
			}
			return []Instruction{editText(msgPickOrderType, Keyboard{Kind: KbOrdersInline})}, nil
		}
		return []Instruction{sendText(msgUseButtons, Keyboard{})}, nil

	case EventText:
		switch ev.Text {
		case btnActive:
			return e.showOrderList(ctx, sess, ev, models.OrderActive)
		case btnCompleted:
			return e.showOrderList(ctx, sess, ev, models.OrderCompleted)
		case btnBack:
			if err := e.sessions.Set(ctx, ev.UserID, session.StateIdle, session.Scratch{}); err != nil {
				return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
			}
			return []Instruction{sendText(msgMainMenu, Keyboard{Kind: KbMain})}, nil
		}
		// Main menu labels keep working from the orders screens. The
		// stored state follows the routing so it never diverges from
		// what the user sees.
		if err := e.sessions.Set(ctx, ev.UserID, session.StateIdle, session.Scratch{}); err != nil {
			return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
		}
		sess.State = session.StateIdle
		return e.handleIdle(ctx, sess, ev)
	}
	return []Instruction{sendText(msgUseButtons, Keyboard{})}, nil
}

// showOrderList renders the order list for one status and records which
// list the user is viewing.
func (e *Engine) showOrderList(ctx context.Context, sess *session.Session, ev Event, status models.OrderStatus) ([]Instruction, error) {
	orders, err := e.orders.ListByStatus(ctx, status)
	if err != nil {
		return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
	}

	next := session.StateViewingActiveOrders
	if status == models.OrderCompleted {
		next = session.StateViewingCompletedOrders
	}
	if err := e.sessions.Set(ctx, ev.UserID, next, session.Scratch{}); err != nil {
		return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
	}

	logger.Debug(ctx, engineComponent, "orders.list",
		slog.Int64("user_id", ev.UserID),
		slog.String("order_status", string(status)),
		slog.Int("orders_shown", len(orders)),
	)

	if len(orders) == 0 {
		empty := msgNoActiveOrders
		if status == models.OrderCompleted {
			empty = msgNoDoneOrders
		}
		return []Instruction{replyOrEdit(ev, empty, Keyboard{Kind: KbBack})}, nil
	}
	kb := Keyboard{Kind: KbOrderList, Orders: orders, Completed: status == models.OrderCompleted}
	return []Instruction{replyOrEdit(ev, orderListText(orders, status == models.OrderCompleted), kb)}, nil
}

// openOrder resolves a list selection. The payload carries both the order id
// and the status the list was showing, so a stale button on a completed
// order is detected here.
func (e *Engine) openOrder(ctx context.Context, sess *session.Session, ev Event) ([]Instruction, error) {
	idRaw, statusRaw, ok := strings.Cut(ev.Callback.Payload, payloadSep)
	if !ok {
		return []Instruction{sendText(msgOrderNotFound, Keyboard{Kind: KbBack})}, nil
	}
	orderID, err := strconv.ParseInt(idRaw, 10, 64)
	status := models.OrderStatus(statusRaw)
	if err != nil || !status.Valid() {
		return []Instruction{sendText(msgOrderNotFound, Keyboard{Kind: KbBack})}, nil
	}

	o, err := e.orders.Get(ctx, orderID, status)
	if service.IsNotFound(err) {
		// The order moved on since the list was rendered; refresh the
		// list the button came from.
		return e.showOrderList(ctx, sess, ev, status)
	}
	if err != nil {
		return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
	}

	if err := e.sessions.Set(ctx, ev.UserID, session.StateOrderDetail, session.Scratch{SelectedOrder: &o.OrderID}); err != nil {
		return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
	}
	return orderDetailReplies(o), nil
}

// orderDetailReplies renders an order card: the report photo first when one
// exists, then the details. Active orders get the action buttons, completed
// ones only the way back.
func orderDetailReplies(o *models.Order) []Instruction {
	out := []Instruction{}
	if o.PhotoReport != nil {
		out = append(out, sendPhoto(*o.PhotoReport, msgPhotoReport, Keyboard{}))
	}
	kb := Keyboard{Kind: KbBack}
	if o.Status == models.OrderActive {
		kb = Keyboard{Kind: KbOrderDetail, HasPhoto: o.PhotoReport != nil}
	}
	out = append(out, sendText(orderDetailText(o), kb))
	return out
}

// handleOrderDetail covers the active-order card: attaching the photo
// report, completing, and navigating back.
func (e *Engine) handleOrderDetail(ctx context.Context, sess *session.Session, ev Event) ([]Instruction, error) {
	selected := sess.Scratch.SelectedOrder

	switch ev.Kind {
	case EventPhoto:
		if selected == nil {
			return []Instruction{sendText(msgPickOrderFirst, Keyboard{Kind: KbBack})}, nil
		}
		err := e.orders.AttachPhoto(ctx, *selected, ev.PhotoRef)
		if service.IsNotFound(err) {
			return e.leaveDetail(ctx, ev, msgOrderNotActive)
		}
		if err != nil {
			return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
		}
		o, err := e.orders.Get(ctx, *selected, models.OrderActive)
		if err != nil {
			return []Instruction{sendText(msgPhotoSaved, Keyboard{Kind: KbOrderDetail, HasPhoto: true})}, err
		}
		return append(
			[]Instruction{sendText(msgPhotoSaved, Keyboard{})},
			orderDetailReplies(o)...,
		), nil

	case EventCallback:
		switch ev.Callback.Key {
		case cbAddPhoto:
			return []Instruction{sendText(msgSendReportPhoto, Keyboard{})}, nil

		case cbComplete:
			if selected == nil {
				return []Instruction{sendText(msgPickOrderFirst, Keyboard{Kind: KbBack})}, nil
			}
			o, err := e.orders.Complete(ctx, *selected)
			switch {
			case service.IsPrecondition(err):
				return []Instruction{sendText(msgNeedPhotoFirst, Keyboard{Kind: KbOrderDetail})}, nil
			case service.IsNotFound(err):
				return e.leaveDetail(ctx, ev, msgOrderNotActive)
			case err != nil:
				return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
			}
			if err := e.sessions.Set(ctx, ev.UserID, session.StateViewingCompletedOrders, session.Scratch{}); err != nil {
				return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
			}
			return []Instruction{sendText(orderCompletedText(o), Keyboard{Kind: KbBack})}, nil

		case cbBackToOrders:
			if err := e.sessions.Set(ctx, ev.UserID, session.StateBrowsingOrders, session.Scratch{}); err != nil {
				return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
			}
			return []Instruction{editText(msgPickOrderType, Keyboard{Kind: KbOrdersInline})}, nil

		case cbSelectOrder:
			return e.openOrder(ctx, sess, ev)
		}
		return []Instruction{sendText(msgUseButtons, Keyboard{})}, nil

	case EventText:
		return e.handleOrderBrowsing(ctx, sess, ev)
	}
	return []Instruction{sendText(msgUseButtons, Keyboard{})}, nil
}

// leaveDetail drops the stale selection and puts the user back on the
// active list with an explanation.
func (e *Engine) leaveDetail(ctx context.Context, ev Event, reason string) ([]Instruction, error) {
	if err := e.sessions.Set(ctx, ev.UserID, session.StateViewingActiveOrders, session.Scratch{}); err != nil {
		return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
	}
	out := []Instruction{sendText(reason, Keyboard{})}
	more, err := e.showOrderList(ctx, &session.Session{UserID: ev.UserID, State: session.StateViewingActiveOrders},
		Event{UserID: ev.UserID, Kind: EventText}, models.OrderActive)
	if err != nil {
		return out, err
	}
	return append(out, more...), nil
}

// handleSupport forwards the message and returns to the main menu whether
// or not delivery succeeded; the user is told which it was.
func (e *Engine) handleSupport(ctx context.Context, sess *session.Session, ev Event) ([]Instruction, error) {
	if ev.Kind != EventText || strings.TrimSpace(ev.Text) == "" {
		return []Instruction{sendText(msgSupportPrompt, Keyboard{})}, nil
	}

	fwdErr := e.support.Forward(ctx, service.Sender{ID: ev.UserID, Name: ev.Sender}, ev.Text)

	if err := e.sessions.Set(ctx, ev.UserID, session.StateIdle, session.Scratch{}); err != nil {
		return []Instruction{sendText(msgStorageRetry, Keyboard{})}, err
	}
	if fwdErr != nil {
		return []Instruction{sendText(msgSupportFailed, Keyboard{Kind: KbMain})}, fwdErr
	}
	return []Instruction{sendText(msgSupportSent, Keyboard{Kind: KbMain})}, nil
}
