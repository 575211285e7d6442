package main

import (
	"context"
	"log/slog"

	"medley/internal/config"
	"medley/internal/library"
	"medley/internal/probe"
	"medley/internal/search"
	"medley/internal/stage"
	"medley/internal/tagging"
)

type stageRegistrar interface {
	Register(name string, handler stage.Handler, start, processing, done library.Status)
}

func registerStages(reg stageRegistrar, cfg *config.Config, store *library.Store, logger *slog.Logger) {
	if reg == nil || cfg == nil {
		return
	}

	reg.Register("probe", probe.NewProber(cfg, store, logger),
		library.StatusPending, library.StatusProbing, library.StatusProbed)

	if cfg.Tagging.Enabled {
		reg.Register("tagging", tagging.NewTagger(cfg, store, logger),
			library.StatusProbed, library.StatusTagging, library.StatusTagged)
	} else {
		reg.Register("tagging", taggingDisabled{},
			library.StatusProbed, library.StatusTagging, library.StatusTagged)
	}

	reg.Register("embed", search.NewEmbedder(cfg, store, logger),
		library.StatusTagged, library.StatusEmbedding, library.StatusIndexed)
}

// taggingDisabled passes items straight through so they still reach the
// embedding stage when AI tagging is turned off.
type taggingDisabled struct{}

func (taggingDisabled) Prepare(context.Context, *library.Item) error { return nil }

func (taggingDisabled) Execute(context.Context, *library.Item) error { return nil }

func (taggingDisabled) HealthCheck(context.Context) stage.Health {
	return stage.Health{Name: "tagging", Ready: true, Detail: "disabled"}
}
