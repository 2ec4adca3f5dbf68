// Package server is the HTTP adapter over the entitlement and automation
// cores. Page rendering, authentication and payment flows live in other
// services; this surface only exposes the core contracts.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	automationdomain "github.com/smallbiznis/fangate/internal/automation/domain"
	"github.com/smallbiznis/fangate/internal/config"
	contentdomain "github.com/smallbiznis/fangate/internal/content/domain"
	"github.com/smallbiznis/fangate/internal/dispatch"
	entitlementdomain "github.com/smallbiznis/fangate/internal/entitlement/domain"
	subscriptiondomain "github.com/smallbiznis/fangate/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func registerGin(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CorrelationMiddleware())
	r.Use(RequestLogMiddleware(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	genID  *snowflake.Node

	entitlementSvc  entitlementdomain.Service
	subscriptionSvc subscriptiondomain.Service
	ruleSvc         automationdomain.RuleService
	automation      automationdomain.Engine
	coordinator     *dispatch.Coordinator
	contentRepo     contentdomain.Repository
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	DB    *gorm.DB
	GenID *snowflake.Node

	EntitlementSvc  entitlementdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	RuleSvc         automationdomain.RuleService
	Automation      automationdomain.Engine
	Coordinator     *dispatch.Coordinator
	ContentRepo     contentdomain.Repository
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine: p.Gin,
		cfg:    p.Cfg,
		db:     p.DB,
		genID:  p.GenID,

		entitlementSvc:  p.EntitlementSvc,
		subscriptionSvc: p.SubscriptionSvc,
		ruleSvc:         p.RuleSvc,
		automation:      p.Automation,
		coordinator:     p.Coordinator,
		contentRepo:     p.ContentRepo,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")

	v1.POST("/events", s.handleIngestEvent)

	v1.GET("/creators/:creator_id/content", s.handleListContent)
	v1.GET("/creators/:creator_id/content/:content_id/entitlement", s.handleResolveEntitlement)

	v1.POST("/creators/:creator_id/rules", s.handleCreateRule)
	v1.GET("/creators/:creator_id/rules", s.handleListRules)
	v1.POST("/creators/:creator_id/rules/:rule_id/transition", s.handleTransitionRule)

	v1.POST("/subscriptions", s.handleCreateSubscription)
	v1.POST("/subscriptions/renew", s.handleRenewSubscription)
	v1.POST("/subscriptions/cancel", s.handleCancelSubscription)
	v1.POST("/subscriptions/tier", s.handleChangeTier)
}
