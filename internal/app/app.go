package app

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"workerbot/core/bootstrap"
	coretelegram "workerbot/core/telegram"
	"workerbot/core/telegram/router"
	"workerbot/internal/bot"
	"workerbot/internal/service"
	"workerbot/internal/session"
	"workerbot/internal/storage"
)

// App holds the assembled application graph.
type App struct {
	cfg *Config
	db  *sqlx.DB

	orders  *service.Orders
	support *service.Support
	adapter *bot.Adapter
}

// Bootstrap initializes infrastructure and wires services, the engine and
// the transport adapter.
func Bootstrap(cfg *Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   &cfg.Core,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	usersRepo := storage.NewPGUsers(res.DB)
	ordersRepo := storage.NewPGOrders(res.DB)
	sessionsRepo := storage.NewPGSessions(res.DB)

	users := service.NewUsers(usersRepo)
	orders := service.NewOrders(ordersRepo)
	support := service.NewSupport(cfg.Support.OperatorID)
	sessions := session.NewManager(sessionsRepo, time.Duration(cfg.Session.TTLMinutes)*time.Minute)

	engine := bot.NewEngine(users, orders, support, sessions)
	dispatch := bot.NewDispatcher(engine)
	adapter := bot.NewAdapter(dispatch, engine, orders)

	return &App{
		cfg:     cfg,
		db:      res.DB,
		orders:  orders,
		support: support,
		adapter: adapter,
	}, nil
}

// TelegramRunOptions builds the bot runtime: registry, routes, middleware
// and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.adapter.Register(reg)

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Core.Telegram.AdminID,
	})
	routes = append(routes, router.TextRoutes(a.adapter, reg, router.TextOptions{
		UnknownText:  a.adapter.UnknownText,
		UnknownPhoto: a.adapter.UnknownPhoto,
	})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      &a.cfg.Core,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Core, nil),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	a.support.SetNotifier(bot.OperatorNotifier{Bot: rt.Bot})

	if a.cfg.Demo.SeedOrders {
		seeder := bootstrap.SeederFunc(func(ctx context.Context, _ bootstrap.Storage) error {
			return storage.SeedDemoOrders(ctx, storage.NewPGOrders(a.db))
		})
		if err := seeder.Seed(ctx, nil); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) onStop(ctx context.Context, rt coretelegram.Runtime) error {
	return a.db.Close()
}
