package bot

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workerbot/internal/models"
	"workerbot/internal/service"
	"workerbot/internal/session"
	"workerbot/internal/storage"
)

const testUser int64 = 42

type stubNotifier struct {
	sent []string
	err  error
}

func (n *stubNotifier) Notify(operatorID int64, text string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, text)
	return nil
}

type fixture struct {
	users    *storage.MemoryUsers
	orders   *storage.MemoryOrders
	sessions *storage.MemorySessions
	manager  *session.Manager
	notifier *stubNotifier
	engine   *Engine
	ordersSv *service.Orders
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:    storage.NewMemoryUsers(),
		orders:   storage.NewMemoryOrders(),
		sessions: storage.NewMemorySessions(),
		notifier: &stubNotifier{},
	}
	f.manager = session.NewManager(f.sessions, 0)
	f.ordersSv = service.NewOrders(f.orders)
	support := service.NewSupport(99)
	support.SetNotifier(f.notifier)
	f.engine = NewEngine(
		service.NewUsers(f.users),
		f.ordersSv,
		support,
		f.manager,
	)
	return f
}

func (f *fixture) state(t *testing.T) session.State {
	t.Helper()
	sess, err := f.manager.Get(context.Background(), testUser)
	require.NoError(t, err)
	return sess.State
}

func (f *fixture) handle(t *testing.T, ev Event) []Instruction {
	t.Helper()
	ev.UserID = testUser
	out, err := f.engine.HandleEvent(context.Background(), ev)
	require.NoError(t, err)
	return out
}

func text(s string) Event  { return Event{Kind: EventText, Text: s} }
func photo(ref string) Event {
	return Event{Kind: EventPhoto, PhotoRef: ref}
}
func command(name string) Event { return Event{Kind: EventCommand, Text: name} }
func callback(key, payload string) Event {
	return Event{Kind: EventCallback, Callback: Token{Key: key, Payload: payload}}
}

func (f *fixture) register(t *testing.T) {
	t.Helper()
	f.handle(t, command("start"))
	f.handle(t, text("Иван Петров"))
	f.handle(t, text("30"))
	f.handle(t, text("Москва"))
	f.handle(t, text("5 лет в доставке"))
	f.handle(t, text("100000"))
	f.handle(t, photo("profile_photo"))
}

func TestRegistrationHappyPath(t *testing.T) {
	f := newFixture(t)

	out := f.handle(t, command("start"))
	require.Len(t, out, 1)
	assert.Equal(t, msgGreeting, out[0].Text)

	out = f.handle(t, text("Иван Петров"))
	require.Len(t, out, 1)
	assert.Contains(t, out[0].Text, msgAskAge)
	assert.Equal(t, session.StateAwaitingAge, f.state(t))

	f.handle(t, text("30"))
	f.handle(t, text("Москва"))
	f.handle(t, text("5 лет в доставке"))
	out = f.handle(t, text("100000"))
	assert.Contains(t, out[0].Text, msgAskPhoto)
	assert.Equal(t, session.StateAwaitingPhoto, f.state(t))

	out = f.handle(t, photo("profile_photo"))
	require.Len(t, out, 2)
	assert.Equal(t, msgProfileCreated, out[0].Text)
	assert.Equal(t, KbMain, out[1].Keyboard.Kind)
	assert.Equal(t, session.StateIdle, f.state(t))

	u, err := f.users.GetByID(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, "Иван Петров", u.FullName)
	assert.Equal(t, 30, u.Age)
	assert.Equal(t, "Москва", u.City)
	assert.Equal(t, "5 лет в доставке", u.Experience)
	assert.Equal(t, int64(100000), u.DesiredIncome)
	assert.Equal(t, "profile_photo", u.PhotoRef)
}

func TestRegistrationInvalidNumbers(t *testing.T) {
	f := newFixture(t)
	f.handle(t, command("start"))
	f.handle(t, text("Иван"))

	out := f.handle(t, text("тридцать"))
	require.Len(t, out, 1)
	assert.Equal(t, msgNumberPlease, out[0].Text)
	assert.Equal(t, session.StateAwaitingAge, f.state(t))

	out = f.handle(t, text("-5"))
	assert.Equal(t, msgNumberPlease, out[0].Text)
	assert.Equal(t, session.StateAwaitingAge, f.state(t))

	f.handle(t, text("30"))
	assert.Equal(t, session.StateAwaitingCity, f.state(t))

	// No profile row exists until the final step.
	_, err := f.users.GetByID(context.Background(), testUser)
	assert.ErrorIs(t, err, storage.ErrNoRows)
}

func TestRegistrationTextDuringPhotoStep(t *testing.T) {
	f := newFixture(t)
	f.handle(t, command("start"))
	f.handle(t, text("Иван"))
	f.handle(t, text("30"))
	f.handle(t, text("Москва"))
	f.handle(t, text("опыт"))
	f.handle(t, text("50000"))

	out := f.handle(t, text("вот фото"))
	assert.Equal(t, msgAskPhoto, out[0].Text)
	assert.Equal(t, session.StateAwaitingPhoto, f.state(t))
}

func TestRegistrationCancel(t *testing.T) {
	f := newFixture(t)
	f.handle(t, command("start"))
	f.handle(t, text("Иван"))

	out := f.handle(t, command("cancel"))
	require.Len(t, out, 2)
	assert.Equal(t, msgCancelled, out[0].Text)
	assert.Equal(t, session.StateIdle, f.state(t))

	_, err := f.users.GetByID(context.Background(), testUser)
	assert.ErrorIs(t, err, storage.ErrNoRows)
}

func TestRegistrationSurvivesRestart(t *testing.T) {
	f := newFixture(t)
	f.handle(t, command("start"))
	f.handle(t, text("Иван"))
	f.handle(t, text("30"))

	// New engine over the same session store stands in for a process
	// restart.
	manager := session.NewManager(f.sessions, 0)
	engine := NewEngine(
		service.NewUsers(f.users), f.ordersSv,
		service.NewSupport(99), manager,
	)

	out, err := engine.HandleEvent(context.Background(), Event{UserID: testUser, Kind: EventText, Text: "Москва"})
	require.NoError(t, err)
	assert.Contains(t, out[0].Text, msgAskExperience)

	sess, err := manager.Get(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingExperience, sess.State)
	require.NotNil(t, sess.Scratch.Draft)
	assert.Equal(t, "Иван", sess.Scratch.Draft.FullName)
	assert.Equal(t, 30, sess.Scratch.Draft.Age)
}

func TestReRegistrationOverwritesProfile(t *testing.T) {
	f := newFixture(t)
	f.register(t)

	f.handle(t, command("start"))
	f.handle(t, text("Пётр Сидоров"))
	f.handle(t, text("25"))
	f.handle(t, text("Казань"))
	f.handle(t, text("курьер"))
	f.handle(t, text("80000"))
	out := f.handle(t, photo("new_photo"))
	assert.Equal(t, msgProfileUpdated, out[0].Text)

	u, err := f.users.GetByID(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, "Пётр Сидоров", u.FullName)
	assert.Equal(t, "new_photo", u.PhotoRef)
}

func TestProfileView(t *testing.T) {
	f := newFixture(t)
	f.register(t)

	out := f.handle(t, text(btnProfile))
	require.Len(t, out, 1)
	assert.Equal(t, OpSendPhoto, out[0].Op)
	assert.Equal(t, "profile_photo", out[0].PhotoRef)
	assert.Contains(t, out[0].Caption, "Иван Петров")
	assert.Contains(t, out[0].Caption, "100000р")
}

func TestFinancePlaceholder(t *testing.T) {
	f := newFixture(t)
	f.register(t)

	out := f.handle(t, text(btnFinance))
	assert.Equal(t, msgFinance, out[0].Text)
	assert.Equal(t, session.StateIdle, f.state(t))
}

func TestUnknownTextInMainMenu(t *testing.T) {
	f := newFixture(t)
	f.register(t)

	out := f.handle(t, text("привет"))
	assert.Equal(t, msgUnrecognized, out[0].Text)
	assert.Equal(t, KbMain, out[0].Keyboard.Kind)
	assert.Equal(t, session.StateIdle, f.state(t))
}

func TestOrderListingAndOrdering(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	ctx := context.Background()

	id1, err := f.ordersSv.Create(ctx, 5000, "ул. Тестовая, д. 1", "заказ 1")
	require.NoError(t, err)
	id2, err := f.ordersSv.Create(ctx, 7500, "ул. Примерная, д. 5", "заказ 2")
	require.NoError(t, err)

	f.handle(t, text(btnOrders))
	assert.Equal(t, session.StateBrowsingOrders, f.state(t))

	out := f.handle(t, text(btnActive))
	require.Len(t, out, 1)
	assert.Equal(t, KbOrderList, out[0].Keyboard.Kind)
	require.Len(t, out[0].Keyboard.Orders, 2)
	assert.Equal(t, id1, out[0].Keyboard.Orders[0].OrderID)
	assert.Equal(t, id2, out[0].Keyboard.Orders[1].OrderID)
	assert.Equal(t, session.StateViewingActiveOrders, f.state(t))

	out = f.handle(t, text(btnCompleted))
	assert.Equal(t, msgNoDoneOrders, out[0].Text)
	assert.Equal(t, session.StateViewingCompletedOrders, f.state(t))

	out = f.handle(t, text(btnBack))
	assert.Equal(t, msgMainMenu, out[0].Text)
	assert.Equal(t, session.StateIdle, f.state(t))
}

func TestInlineCallbackNavigation(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	ctx := context.Background()

	_, err := f.ordersSv.Create(ctx, 5000, "ул. Тестовая, д. 1", "заказ")
	require.NoError(t, err)

	f.handle(t, text(btnOrders))

	// Inline navigation edits the menu message in place.
	out := f.handle(t, callback(cbViewActive, ""))
	require.Len(t, out, 1)
	assert.Equal(t, OpEditText, out[0].Op)
	assert.Equal(t, KbOrderList, out[0].Keyboard.Kind)
	assert.Equal(t, session.StateViewingActiveOrders, f.state(t))

	// Back from a listing returns to the orders menu, not the main menu.
	out = f.handle(t, callback(cbBackToOrders, ""))
	require.Len(t, out, 1)
	assert.Equal(t, OpEditText, out[0].Op)
	assert.Equal(t, msgPickOrderType, out[0].Text)
	assert.Equal(t, KbOrdersInline, out[0].Keyboard.Kind)
	assert.Equal(t, session.StateBrowsingOrders, f.state(t))

	out = f.handle(t, callback(cbViewCompleted, ""))
	assert.Equal(t, OpEditText, out[0].Op)
	assert.Equal(t, msgNoDoneOrders, out[0].Text)
	assert.Equal(t, session.StateViewingCompletedOrders, f.state(t))

	f.handle(t, callback(cbBackToOrders, ""))
	assert.Equal(t, session.StateBrowsingOrders, f.state(t))
}

func TestStaleSelectionReturnsToSameList(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	ctx := context.Background()

	id, err := f.ordersSv.Create(ctx, 3000, "адрес", "описание")
	require.NoError(t, err)
	_, err = f.orders.AttachPhoto(ctx, id, "p1")
	require.NoError(t, err)
	_, err = f.ordersSv.Complete(ctx, id)
	require.NoError(t, err)

	f.handle(t, text(btnOrders))
	f.handle(t, text(btnCompleted))

	// A button for an order that never was in this list refreshes the
	// completed list, not the active one.
	out := f.handle(t, callback(cbSelectOrder, "999_completed"))
	require.Len(t, out, 1)
	assert.Equal(t, OpEditText, out[0].Op)
	assert.Equal(t, KbOrderList, out[0].Keyboard.Kind)
	assert.True(t, out[0].Keyboard.Completed)
	assert.Equal(t, session.StateViewingCompletedOrders, f.state(t))

	// A button for a since-completed active order refreshes the active
	// list.
	out = f.handle(t, callback(cbSelectOrder, fmt.Sprintf("%d_active", id)))
	require.Len(t, out, 1)
	assert.Equal(t, msgNoActiveOrders, out[0].Text)
	assert.Equal(t, session.StateViewingActiveOrders, f.state(t))
}

func TestMenuTextFromOrderScreensSyncsState(t *testing.T) {
	f := newFixture(t)
	f.register(t)

	f.handle(t, text(btnOrders))
	f.handle(t, text(btnActive))

	out := f.handle(t, text("привет"))
	assert.Equal(t, msgUnrecognized, out[0].Text)
	assert.Equal(t, session.StateIdle, f.state(t))

	f.handle(t, text(btnOrders))
	out = f.handle(t, text(btnProfile))
	assert.Equal(t, OpSendPhoto, out[0].Op)
	assert.Equal(t, session.StateIdle, f.state(t))
}

func TestOrderCompletionFlow(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	ctx := context.Background()

	id, err := f.ordersSv.Create(ctx, 5000, "ул. Тестовая, д. 1", "доставка")
	require.NoError(t, err)

	f.handle(t, text(btnOrders))
	f.handle(t, text(btnActive))

	out := f.handle(t, callback(cbSelectOrder, fmt.Sprintf("%d_active", id)))
	require.Len(t, out, 1)
	assert.Contains(t, out[0].Text, "ул. Тестовая, д. 1")
	assert.Contains(t, out[0].Text, "5000р")
	assert.Equal(t, KbOrderDetail, out[0].Keyboard.Kind)
	assert.False(t, out[0].Keyboard.HasPhoto)
	assert.Equal(t, session.StateOrderDetail, f.state(t))

	// Completing before the photo report is refused.
	out = f.handle(t, callback(cbComplete, ""))
	assert.Equal(t, msgNeedPhotoFirst, out[0].Text)
	assert.Equal(t, session.StateOrderDetail, f.state(t))

	out = f.handle(t, photo("p1"))
	assert.Equal(t, msgPhotoSaved, out[0].Text)
	last := out[len(out)-1]
	assert.Equal(t, KbOrderDetail, last.Keyboard.Kind)
	assert.True(t, last.Keyboard.HasPhoto)
	assert.Equal(t, session.StateOrderDetail, f.state(t))

	out = f.handle(t, callback(cbComplete, ""))
	assert.Contains(t, out[0].Text, msgOrderCompleted)
	assert.Equal(t, session.StateViewingCompletedOrders, f.state(t))

	done, err := f.ordersSv.ListByStatus(ctx, models.OrderCompleted)
	require.NoError(t, err)
	require.Len(t, done, 1)
	o := done[0]
	assert.Equal(t, id, o.OrderID)
	require.NotNil(t, o.PhotoReport)
	assert.Equal(t, "p1", *o.PhotoReport)
	assert.NotNil(t, o.CompletionDate)
	assert.NotNil(t, o.CompletionTime)

	sess, err := f.manager.Get(ctx, testUser)
	require.NoError(t, err)
	assert.Nil(t, sess.Scratch.SelectedOrder)
}

func TestCompleteAlreadyCompletedOrder(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	ctx := context.Background()

	id, err := f.ordersSv.Create(ctx, 5000, "адрес", "описание")
	require.NoError(t, err)
	_, err = f.orders.AttachPhoto(ctx, id, "p1")
	require.NoError(t, err)
	_, err = f.ordersSv.Complete(ctx, id)
	require.NoError(t, err)

	// Stale detail card pointing at the now-completed order.
	require.NoError(t, f.manager.Set(ctx, testUser, session.StateOrderDetail,
		session.Scratch{SelectedOrder: &id}))

	out := f.handle(t, callback(cbComplete, ""))
	assert.Equal(t, msgOrderNotActive, out[0].Text)
	assert.Equal(t, session.StateViewingActiveOrders, f.state(t))
}

func TestPhotoForInactiveOrder(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	ctx := context.Background()

	id, err := f.ordersSv.Create(ctx, 5000, "адрес", "описание")
	require.NoError(t, err)
	_, err = f.orders.AttachPhoto(ctx, id, "old")
	require.NoError(t, err)
	_, err = f.ordersSv.Complete(ctx, id)
	require.NoError(t, err)

	require.NoError(t, f.manager.Set(ctx, testUser, session.StateOrderDetail,
		session.Scratch{SelectedOrder: &id}))

	out := f.handle(t, photo("new"))
	assert.Equal(t, msgOrderNotActive, out[0].Text)
	assert.Equal(t, session.StateViewingActiveOrders, f.state(t))

	o, err := f.orders.GetByID(ctx, id, models.OrderCompleted)
	require.NoError(t, err)
	assert.Equal(t, "old", *o.PhotoReport)
}

func TestCompletedOrderDetailShowsPhoto(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	ctx := context.Background()

	id, err := f.ordersSv.Create(ctx, 3000, "адрес", "описание")
	require.NoError(t, err)
	_, err = f.orders.AttachPhoto(ctx, id, "report")
	require.NoError(t, err)
	_, err = f.ordersSv.Complete(ctx, id)
	require.NoError(t, err)

	f.handle(t, text(btnOrders))
	f.handle(t, text(btnCompleted))

	out := f.handle(t, callback(cbSelectOrder, fmt.Sprintf("%d_completed", id)))
	require.Len(t, out, 2)
	assert.Equal(t, OpSendPhoto, out[0].Op)
	assert.Equal(t, "report", out[0].PhotoRef)
	assert.Contains(t, out[1].Text, "Дата завершения")
	assert.Equal(t, KbBack, out[1].Keyboard.Kind)
	assert.Equal(t, session.StateOrderDetail, f.state(t))
}

func TestSupportForwarding(t *testing.T) {
	f := newFixture(t)
	f.register(t)

	out := f.handle(t, text(btnSupport))
	assert.Equal(t, msgSupportPrompt, out[0].Text)
	assert.Equal(t, session.StateAwaitingSupportMessage, f.state(t))

	out = f.handle(t, Event{Kind: EventText, Sender: "Иван Петров", Text: "не приходит оплата"})
	assert.Equal(t, msgSupportSent, out[0].Text)
	assert.Equal(t, session.StateIdle, f.state(t))

	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0], "Новое сообщение в техподдержку")
	assert.Contains(t, f.notifier.sent[0], "Иван Петров (42)")
	assert.Contains(t, f.notifier.sent[0], "не приходит оплата")
}

func TestSupportDeliveryFailureReturnsToMenu(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	f.notifier.err = fmt.Errorf("telegram: forbidden")

	f.handle(t, text(btnSupport))

	ev := Event{UserID: testUser, Kind: EventText, Text: "помогите"}
	out, err := f.engine.HandleEvent(context.Background(), ev)
	require.Error(t, err)
	assert.True(t, service.IsDelivery(err))
	assert.Equal(t, msgSupportFailed, out[0].Text)
	assert.Equal(t, session.StateIdle, f.state(t))
}

func TestMalformedOrderCallback(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	f.handle(t, text(btnOrders))

	out := f.handle(t, callback(cbSelectOrder, "garbage"))
	assert.Equal(t, msgOrderNotFound, out[0].Text)

	out = f.handle(t, callback(cbSelectOrder, "12_unknown"))
	assert.Equal(t, msgOrderNotFound, out[0].Text)
}
