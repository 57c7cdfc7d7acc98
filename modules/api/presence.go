package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/chat-relay-demo/modules/presence"
)

// presenceAdapter calls the presence module's stats service.
type presenceAdapter struct {
	container mono.ServiceContainer
}

func newPresenceAdapter(container mono.ServiceContainer) *presenceAdapter {
	return &presenceAdapter{container: container}
}

func (a *presenceAdapter) Stats(ctx context.Context) (presence.Stats, error) {
	req := presence.StatsRequest{}
	var resp presence.StatsResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, presence.ServiceStats, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return presence.Stats{}, fmt.Errorf("presence-stats service call failed: %w", err)
	}
	return resp.Stats, nil
}
