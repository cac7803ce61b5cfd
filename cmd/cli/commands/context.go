package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/calderhart/instructor-rota/internal/config"
	"github.com/calderhart/instructor-rota/pkg/postgres"
)

// AppContext holds the shared application dependencies for all commands
type AppContext struct {
	Ctx    context.Context
	Cfg    *config.Config
	Logger *zap.Logger
	Store  *postgres.DB
}
