// Package module wires rewrite streaming into the API using modkit
package module

import (
	"context"
	"strings"

	"uwhatgov/internal/adapters/upstream"
	modkit "uwhatgov/internal/modkit"
	"uwhatgov/internal/modkit/httpkit"
	debates "uwhatgov/internal/services/api/debates/domain"
	"uwhatgov/internal/services/api/stream/domain"
	streamhttp "uwhatgov/internal/services/api/stream/http"
	streamrepo "uwhatgov/internal/services/api/stream/repo"
	streamsvc "uwhatgov/internal/services/api/stream/service"
)

// Ports declares what the stream module needs injected
type Ports struct {
	Debates debates.ServicePort
	// Producer overrides the configured upstream, used by tests and demos
	Producer upstream.Producer
}

// New constructs the stream module, the Debates port is required
// routes are mounted in a group so the stream path can share /debates with the debates module
func New(ctx context.Context, deps modkit.Deps, o Options, opts ...modkit.Option) (modkit.Module, error) {
	b := modkit.Build("stream", "/debates", append([]modkit.Option{modkit.WithGroup()}, opts...)...)

	injected := modkit.Injected[Ports](b)
	if injected.Debates == nil {
		panic("stream module requires the Debates port (from api/debates)")
	}

	producer := injected.Producer
	if producer == nil {
		var err error
		if producer, err = newProducer(ctx, o.Upstream, o); err != nil {
			return nil, err
		}
	}

	var runs domain.RunRecorder
	if deps.CH != nil {
		runs = streamrepo.NewRuns(deps.CH)
	}

	pub := streamsvc.NewPublisher(
		streamsvc.WithHeartbeat(o.Heartbeat),
		streamsvc.WithNarrator(o.Narrator),
	)
	svc := streamsvc.New(injected.Debates, producer, pub, runs)

	deps.Logger("stream").Info().
		Str("provider", producer.Name()).
		Dur("heartbeat", o.Heartbeat).
		Int("max_streams", o.MaxStreams).
		Bool("analytics", runs != nil).
		Msg("stream module ready")

	path := strings.TrimSuffix(b.Prefix, "/") + "/{id}/rewrite/stream"
	return b.Module(svc, func(r httpkit.Router) {
		streamhttp.Register(r, path, svc)
	}), nil
}

func newProducer(ctx context.Context, cfg upstream.Config, o Options) (upstream.Producer, error) {
	if p := strings.ToLower(strings.TrimSpace(cfg.Provider)); p == "" || p == "echo" {
		return upstream.NewEcho(o.EchoDelay), nil
	}
	return upstream.New(ctx, cfg)
}
