package storage

import (
	"context"
	"log/slog"

	"workerbot/core/logger"
	"workerbot/internal/models"
)

func strptr(s string) *string { return &s }

var demoOrders = []models.Order{
	{
		CreationDate: "2024-03-20", CreationTime: "10:00:00",
		Payment: 5000, Address: "ул. Тестовая, д. 1",
		Description: "Тестовый заказ 1", Status: models.OrderActive,
	},
	{
		CreationDate: "2024-03-21", CreationTime: "14:30:00",
		Payment: 7500, Address: "ул. Примерная, д. 5",
		Description: "Тестовый заказ 2", Status: models.OrderActive,
	},
	{
		CreationDate: "2024-03-15", CreationTime: "09:00:00",
		CompletionDate: strptr("2024-03-16"), CompletionTime: strptr("17:00:00"),
		Payment: 3000, Address: "ул. Завершенная, д. 3",
		Description: "Выполненный заказ 1", Status: models.OrderCompleted,
		PhotoReport: strptr("test_photo_1"),
	},
	{
		CreationDate: "2024-03-18", CreationTime: "11:00:00",
		CompletionDate: strptr("2024-03-19"), CompletionTime: strptr("15:30:00"),
		Payment: 4500, Address: "ул. Готовая, д. 7",
		Description: "Выполненный заказ 2", Status: models.OrderCompleted,
		PhotoReport: strptr("test_photo_2"),
	},
}

// SeedDemoOrders fills an empty orders table with fixture rows for local
// development. A non-empty table is left untouched.
func SeedDemoOrders(ctx context.Context, orders Orders) error {
	n, err := orders.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Debug(ctx, "db.seed", "skip",
			slog.Int("count", n),
		)
		return nil
	}
	for _, o := range demoOrders {
		if _, err := orders.Create(ctx, o); err != nil {
			return err
		}
	}
	logger.Info(ctx, "db.seed", "apply",
		slog.Int("count", len(demoOrders)),
	)
	return nil
}
