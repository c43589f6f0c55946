package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/framekart/commerce/internal/cache"
	"github.com/framekart/commerce/internal/clock"
	"github.com/framekart/commerce/internal/config"
	"github.com/framekart/commerce/internal/migration"
	"github.com/framekart/commerce/internal/observability"
	"github.com/framekart/commerce/internal/server"
	"github.com/framekart/commerce/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		cache.Module,

		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
