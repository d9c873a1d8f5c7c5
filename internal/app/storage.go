package app

import (
	"context"
	"log/slog"

	"github.com/corray333/backend-labs/canteen/internal/config"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/ireportrepo"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/iuow"
	"github.com/corray333/backend-labs/canteen/internal/dal/memstore"
	"github.com/corray333/backend-labs/canteen/internal/dal/postgres"
	outboxrepo "github.com/corray333/backend-labs/canteen/internal/dal/repositories/outbox/postgres"
	reportrepo "github.com/corray333/backend-labs/canteen/internal/dal/repositories/report/postgres"
	"github.com/corray333/backend-labs/canteen/internal/dal/uow"
	"github.com/corray333/backend-labs/canteen/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/canteen/internal/service/models/money"
)

// storage is the backend selected by storage.driver.
type storage struct {
	newUOW  func() iuow.IUnitOfWork
	reports ireportrepo.IReportRepository
	outbox  ioutboxrepo.IOutboxRepository
	ping    func(ctx context.Context) error
	close   func()
}

func (s storage) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

func mustNewStorage(cfg *config.Config) storage {
	if cfg.Storage.Driver == config.DriverMemory {
		return newMemoryStorage(cfg.Storage.Memory)
	}

	client := postgres.MustNewClient(cfg.Postgres)

	return storage{
		newUOW:  func() iuow.IUnitOfWork { return uow.NewUnitOfWork(client) },
		reports: reportrepo.NewPostgresReportRepository(client.Pool()),
		outbox:  outboxrepo.NewOutboxRepository(client.Pool()),
		ping:    client.Ping,
		close: func() {
			client.Close()
			slog.Info("Database connection closed gracefully")
		},
	}
}

// newMemoryStorage keeps everything in process, seeded from config.
func newMemoryStorage(cfg config.MemoryStorageConfig) storage {
	store := memstore.NewStore()
	for _, seed := range cfg.Menu {
		store.AddMenuItem(menuitem.MenuItem{
			Name:        seed.Name,
			Description: seed.Description,
			Category:    seed.Category,
			PriceCents:  money.Cents(seed.PriceCents),
			Available:   seed.Available,
		})
	}
	slog.Warn("Using in-memory storage, data is lost on restart", "menu_items", len(cfg.Menu))

	return storage{
		newUOW:  store.NewUnitOfWork,
		reports: store.ReportRepository(),
		outbox:  store.OutboxRepository(),
		ping:    store.Ping,
		close:   func() {},
	}
}
