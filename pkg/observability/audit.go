package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/swimlane/pkg/domain"
)

// AuditHooks logs every command outcome at info level.
func AuditHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnMutation: func(ctx context.Context, e *domain.MutationEvent) {
			logger.Info("board_mutation",
				"op", e.Op,
				"block_id", e.BlockID,
				"blocks", e.State.BlockCount(),
				"rules", len(e.State.Rules),
			)
		},
		OnMoveDenied: func(ctx context.Context, e *domain.DenialEvent) {
			logger.Info("move_denied",
				"block_id", e.BlockID,
				"from", e.Denial.FromLane,
				"to", e.Denial.ToLane,
			)
		},
	}
}
