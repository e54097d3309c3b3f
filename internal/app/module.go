package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/m073med011/lms-api/internal/app/api/server"
	"github.com/m073med011/lms-api/internal/app/service/catalog"
	"github.com/m073med011/lms-api/internal/app/service/checkout"
	"github.com/m073med011/lms-api/internal/app/service/enrollment"
	"github.com/m073med011/lms-api/internal/app/service/purchase"
	"github.com/m073med011/lms-api/internal/app/service/reconciliation"
	"github.com/m073med011/lms-api/internal/app/service/signallog"
	"github.com/m073med011/lms-api/internal/app/service/users"
	"github.com/m073med011/lms-api/internal/platform/db"
	"github.com/m073med011/lms-api/internal/platform/paymob"
	"github.com/m073med011/lms-api/pkg/config"
	"github.com/m073med011/lms-api/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	paymob.Module,
	server.Module,
	users.Module,
	catalog.Module,
	purchase.Module,
	enrollment.Module,
	signallog.Module,
	reconciliation.Module,
	checkout.Module,
)
