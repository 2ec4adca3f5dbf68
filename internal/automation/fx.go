package automation

import (
	"github.com/smallbiznis/fangate/internal/automation/firedstore"
	"github.com/smallbiznis/fangate/internal/automation/repository"
	"github.com/smallbiznis/fangate/internal/automation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("automation",
	fx.Provide(repository.Provide),
	fx.Provide(firedstore.Provide),
	fx.Provide(service.NewEngine),
	fx.Provide(service.NewRuleService),
)
