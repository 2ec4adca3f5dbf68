package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fangate/internal/automation"
	"github.com/smallbiznis/fangate/internal/cache"
	"github.com/smallbiznis/fangate/internal/clock"
	"github.com/smallbiznis/fangate/internal/config"
	"github.com/smallbiznis/fangate/internal/content"
	"github.com/smallbiznis/fangate/internal/dispatch"
	"github.com/smallbiznis/fangate/internal/entitlement"
	"github.com/smallbiznis/fangate/internal/migration"
	"github.com/smallbiznis/fangate/internal/scheduler"
	"github.com/smallbiznis/fangate/internal/server"
	"github.com/smallbiznis/fangate/internal/subscription"
	"github.com/smallbiznis/fangate/internal/tier"
	"github.com/smallbiznis/fangate/pkg/db"
	"github.com/smallbiznis/fangate/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		cache.Module,
		migration.Module,

		// Functional domains
		tier.Module,
		content.Module,
		subscription.Module,
		entitlement.Module,
		automation.Module,
		dispatch.Module,
		scheduler.Module,

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
