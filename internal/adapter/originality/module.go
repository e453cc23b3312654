package originality

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/scribemart/internal/config"
)

// Module exposes the originality checker to the fx graph.
var Module = fx.Provide(newChecker)

type checkerParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newChecker(p checkerParams) (Checker, error) {
	if p.Config.OriginalityAddress == "" {
		p.Logger.Warn("originality checker not configured, submissions will stay unchecked")
		return Disabled{}, nil
	}
	return NewHTTPClient(p.Config.OriginalityAddress, p.Logger)
}
