package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/campuspay/backoffice/internal/adapters/httpapi"
	sqliteadapter "github.com/campuspay/backoffice/internal/adapters/sqlite"
	"github.com/campuspay/backoffice/internal/adapters/sqlite/gormsqlite"
	"github.com/campuspay/backoffice/internal/core/domain"
	"github.com/campuspay/backoffice/internal/core/usecase"
	"github.com/campuspay/backoffice/internal/platform/metrics"
	"github.com/campuspay/backoffice/migrations"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	Addr               string
	DBPath             string
	StrictAuth         bool
	BootstrapAdminID   string
	BootstrapAdminName string
}

// NewServer builds the full object graph: one store client injected into
// every service, no ambient globals.
func NewServer(ctx context.Context, cfg Config) (*http.Server, io.Closer, error) {
	db, err := gormsqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := migrations.Up(migrateCtx, writeSQLDB); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	userRepo := sqliteadapter.NewUserRepository(db)
	activityRepo := sqliteadapter.NewActivityRepository(db)
	cardRepo := sqliteadapter.NewCardRepository(db)
	studentRepo := sqliteadapter.NewStudentRepository(db)
	orderRepo := sqliteadapter.NewOrderRepository(db)

	payloads, err := usecase.NewPayloadValidator()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("compile payload schemas: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	identityService := usecase.NewIdentityService(userRepo, m, cfg.StrictAuth)
	activityService := usecase.NewActivityService(activityRepo, m)
	cardService := usecase.NewCardService(cardRepo, payloads, activityService)
	studentService := usecase.NewStudentService(studentRepo, payloads, activityService)
	orderService := usecase.NewOrderService(orderRepo, payloads, activityService)

	if cfg.BootstrapAdminID != "" {
		bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := userRepo.Upsert(bootstrapCtx, domain.User{
			ID:   cfg.BootstrapAdminID,
			Name: cfg.BootstrapAdminName,
			Role: domain.RoleAdmin,
		})
		bootstrapCancel()
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("bootstrap admin user: %w", err)
		}
	}

	handler := httpapi.NewHandler(identityService, activityService, cardService, studentService, orderService)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server, db, nil
}
