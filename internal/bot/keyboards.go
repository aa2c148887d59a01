package bot

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"workerbot/core/telegram/keyboard"
	"workerbot/internal/models"
)

// markup renders a symbolic Keyboard into telebot markup. A nil return
// means the message carries no markup at all.
func markup(kb Keyboard) *tele.ReplyMarkup {
	switch kb.Kind {
	case KbRemove:
		return keyboard.RemoveKeyboard()
	case KbMain:
		return keyboard.ReplyButtons(
			[]string{btnProfile, btnOrders},
			[]string{btnSupport, btnFinance},
		)
	case KbOrdersMenu:
		return keyboard.ReplyButtons(
			[]string{btnActive},
			[]string{btnCompleted},
			[]string{btnBack},
		)
	case KbOrdersInline:
		return keyboard.InlineButtons([]keyboard.InlineBtn{
			{Text: btnActive, Unique: cbViewActive},
			{Text: btnCompleted, Unique: cbViewCompleted},
		})
	case KbOrderList:
		return orderListMarkup(kb.Orders, kb.Completed)
	case KbOrderDetail:
		btns := []keyboard.InlineBtn{
			{Text: "📸 Добавить фотоотчет", Unique: cbAddPhoto},
		}
		if kb.HasPhoto {
			btns = append(btns, keyboard.InlineBtn{Text: "✅ Завершить заказ", Unique: cbComplete})
		}
		btns = append(btns, keyboard.InlineBtn{Text: btnBack, Unique: cbBackToOrders})
		return keyboard.InlineButtons(btns)
	case KbBack:
		return keyboard.InlineButtons([]keyboard.InlineBtn{
			{Text: btnBack, Unique: cbBackToOrders},
		})
	}
	return nil
}

// orderListMarkup builds one button per order; the payload carries the id
// and the status the list was showing.
func orderListMarkup(orders []models.Order, completed bool) *tele.ReplyMarkup {
	status := models.OrderActive
	if completed {
		status = models.OrderCompleted
	}
	btns := make([]keyboard.InlineBtn, 0, len(orders)+1)
	for _, o := range orders {
		btns = append(btns, keyboard.InlineBtn{
			Text:   fmt.Sprintf("Заказ #%d — %dр", o.OrderID, o.Payment),
			Unique: cbSelectOrder,
			Data:   fmt.Sprintf("%d%s%s", o.OrderID, payloadSep, status),
		})
	}
	btns = append(btns, keyboard.InlineBtn{Text: btnBack, Unique: cbBackToOrders})
	return keyboard.InlineButtons(btns)
}
