// Package cli assembles the runtime pieces for the command-line entry
// points.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ctreffe/alfred/internal/adapters/file"
	"github.com/ctreffe/alfred/internal/adapters/memory"
	"github.com/ctreffe/alfred/internal/adapters/redis"
	"github.com/ctreffe/alfred/internal/config"
	"github.com/ctreffe/alfred/pkg/domain"
	"github.com/ctreffe/alfred/pkg/ports"
	"github.com/ctreffe/alfred/pkg/saving"
)

// BuildController constructs the saving controller from configuration. The
// returned controller is not started yet.
func BuildController(cfg config.Saving, logger *slog.Logger, reg prometheus.Registerer) (*saving.Controller, error) {
	saverCfg := saving.Config{
		Failure: saving.AgentSpec{
			Name:    "failure",
			Assured: true,
			Build: func() (ports.StorageAgent, error) {
				// The failure agent must accept every job, so it activates at
				// the lowest level regardless of configuration.
				return file.New(cfg.FailurePath, file.WithActivationLevel(domain.LevelRoutine))
			},
		},
		Primary:        agentSpecs(cfg.Agents),
		Fallback:       agentSpecs(cfg.Fallback),
		SecondFallback: agentSpecs(cfg.SecondFallback),
		Disabled:       cfg.Disabled,
	}
	return saving.NewController(saverCfg,
		saving.WithLogger(logger),
		saving.WithMetrics(saving.NewMetrics(reg)),
	)
}

func agentSpecs(agents []config.Agent) []saving.AgentSpec {
	specs := make([]saving.AgentSpec, 0, len(agents))
	for _, a := range agents {
		specs = append(specs, agentSpec(a))
	}
	return specs
}

func agentSpec(a config.Agent) saving.AgentSpec {
	level := domain.Level(a.Level)
	if level <= 0 {
		level = domain.LevelRoutine
	}
	name := a.Kind
	if a.Path != "" {
		name += ":" + a.Path
	}
	if a.Addr != "" {
		name += ":" + a.Addr
	}
	return saving.AgentSpec{
		Name:    name,
		Assured: a.Assured,
		Build: func() (ports.StorageAgent, error) {
			switch a.Kind {
			case "file":
				return file.New(a.Path, file.WithActivationLevel(level))
			case "redis":
				opts := []redis.Option{redis.WithActivationLevel(level)}
				if a.Prefix != "" {
					opts = append(opts, redis.WithPrefix(a.Prefix))
				}
				return redis.New(a.Addr, a.Password, a.DB, opts...)
			case "memory":
				return memory.New(level), nil
			default:
				return nil, fmt.Errorf("unknown storage agent kind %q", a.Kind)
			}
		},
	}
}
