package bot

import (
	"fmt"
	"math/rand"
	"strings"

	"workerbot/core/telegram/format"
	"workerbot/internal/models"
)

// Main menu labels. The transport renders these as a persistent reply
// keyboard; the engine matches on them verbatim.
const (
	btnProfile   = "📱 Профиль"
	btnOrders    = "📦 Мои заказы"
	btnSupport   = "💬 Поддержка"
	btnFinance   = "💰 Финансы"
	btnActive    = "📋 Текущие заказы"
	btnCompleted = "✅ Выполненные заказы"
	btnBack      = "🔙 Назад"
)

// Callback keys and payload separator.
const (
	cbSelectOrder   = "order_select"
	cbBackToOrders  = "orders_back"
	cbViewActive    = "orders_active"
	cbViewCompleted = "orders_completed"
	cbAddPhoto      = "order_photo"
	cbComplete      = "order_complete"

	payloadSep = "_"
)

const (
	msgGreeting        = "👋 Давайте начнем регистрацию! Как вас зовут?"
	msgAskAge          = "Сколько вам лет?"
	msgAskCity         = "Из какого вы города? 🌆"
	msgAskExperience   = "Расскажите о своем опыте работы 📝"
	msgAskIncome       = "💼 Какой доход вы хотите получать? (введите число)"
	msgAskPhoto        = "📸 Теперь загрузите свое фото для профиля"
	msgNumberPlease    = "Пожалуйста, введите число 🧮"
	msgProfileCreated  = "🎉 Профиль успешно создан!"
	msgProfileUpdated  = "🎉 Профиль успешно обновлен!"
	msgProfileMissing  = "❌ Профиль не найден. Начните с /start"
	msgCancelled       = "Регистрация отменена 😔"
	msgPickOrderType   = "Выберите тип заказов:"
	msgMainMenu        = "Главное меню:"
	msgNoActiveOrders  = "Нет текущих заказов."
	msgNoDoneOrders    = "Нет выполненных заказов."
	msgPickOrderFirst  = "❌ Сначала выберите заказ из списка."
	msgSendReportPhoto = "📸 Отправьте фотографию для отчёта:"
	msgPhotoSaved      = "📸 Фотоотчёт успешно загружен!"
	msgOrderNotActive  = "❌ Этот заказ больше не активен."
	msgOrderNotFound   = "❌ Заказ не найден."
	msgNeedPhotoFirst  = "❌ Сначала необходимо добавить фотоотчет."
	msgOrderCompleted  = "✅ Заказ успешно завершён!"
	msgSupportPrompt   = "📝 Пожалуйста, опишите ваш вопрос или проблему. " +
		"Мы постараемся ответить как можно скорее.\n\n" +
		"Для возврата в главное меню нажмите /cancel"
	msgSupportSent = "✅ Ваше сообщение успешно отправлено в техподдержку!\n" +
		"Мы ответим вам как можно скорее."
	msgSupportFailed = "❌ Произошла ошибка при отправке сообщения. " +
		"Пожалуйста, попробуйте позже."
	msgFinance = "💳 Ваш текущий баланс: 0 ₽\n" +
		"🔄 Последние транзакции:\n" +
		"• Нет операций"
	msgUnrecognized = "🤖 Я пока не понимаю эту команду. Используйте кнопки меню ниже 👇"
	msgUseButtons   = "Используйте кнопки под сообщением 👇"
	msgStorageRetry = "⚠️ Временная ошибка. Пожалуйста, попробуйте еще раз."
	msgPhotoReport  = "📸 Текущий фотоотчёт:"
)

// ackPhrases are the short acknowledgements between registration steps.
// The slice is immutable; a random pick replaces the original's destructive
// consumption of a shared list.
var ackPhrases = []string{
	"Отлично!",
	"Принял!",
	"Так держать!",
	"Секундочку...",
}

var ackPick = rand.Intn

func ack() string {
	return ackPhrases[ackPick(len(ackPhrases))]
}

func profileCaption(u *models.User) string {
	return fmt.Sprintf(
		"👤 Ваш профиль:\n\n🏷 Имя: %s\n🎂 Возраст: %d\n🏙 Город: %s\n💼 Опыт: %s\n💵 Желаемая зарплата: %dр",
		u.FullName, u.Age, u.City, u.Experience, u.DesiredIncome,
	)
}

func orderListText(orders []models.Order, completed bool) string {
	var b strings.Builder
	if completed {
		b.WriteString("✅ Выполненные заказы:\n\n")
	} else {
		b.WriteString("📋 Текущие заказы:\n\n")
	}
	for _, o := range orders {
		fmt.Fprintf(&b, "Заказ #%d\n", o.OrderID)
	}
	return b.String()
}

func orderDetailText(o *models.Order) string {
	var b strings.Builder
	if o.Status == models.OrderCompleted {
		fmt.Fprintf(&b, "✅ Детали заказа #%d:\n\n", o.OrderID)
	} else {
		fmt.Fprintf(&b, "📋 Детали заказа #%d:\n\n", o.OrderID)
	}
	fmt.Fprintf(&b, "Дата создания: %s\n", o.CreationDate)
	fmt.Fprintf(&b, "Время создания: %s\n", o.CreationTime)
	if o.Status == models.OrderCompleted {
		fmt.Fprintf(&b, "Дата завершения: %s\n", format.DerefString(o.CompletionDate, "—"))
		fmt.Fprintf(&b, "Время завершения: %s\n", format.DerefString(o.CompletionTime, "—"))
	}
	fmt.Fprintf(&b, "Оплата: %dр\n", o.Payment)
	fmt.Fprintf(&b, "Адрес: %s\n", o.Address)
	fmt.Fprintf(&b, "Описание: %s\n", o.Description)
	return b.String()
}

func orderCompletedText(o *models.Order) string {
	var b strings.Builder
	b.WriteString(msgOrderCompleted + "\n\n")
	fmt.Fprintf(&b, "Заказ #%d\n", o.OrderID)
	fmt.Fprintf(&b, "Дата создания: %s\n", o.CreationDate)
	fmt.Fprintf(&b, "Время создания: %s\n", o.CreationTime)
	fmt.Fprintf(&b, "Дата завершения: %s\n", format.DerefString(o.CompletionDate, "—"))
	fmt.Fprintf(&b, "Время завершения: %s\n", format.DerefString(o.CompletionTime, "—"))
	fmt.Fprintf(&b, "Оплата: %dр\n", o.Payment)
	fmt.Fprintf(&b, "Адрес: %s\n", o.Address)
	fmt.Fprintf(&b, "Описание: %s\n", o.Description)
	return b.String()
}
