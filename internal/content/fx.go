package content

import (
	"github.com/smallbiznis/fangate/internal/content/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("content",
	fx.Provide(repository.Provide),
)
