package main

import (
	"context"
	"testing"

	"medley/internal/config"
	"medley/internal/library"
	"medley/internal/logging"
	"medley/internal/stage"
	"medley/internal/tagging"
)

type registration struct {
	name       string
	handler    stage.Handler
	start      library.Status
	processing library.Status
	done       library.Status
}

type fakeRegistrar struct {
	registrations []registration
}

func (f *fakeRegistrar) Register(name string, handler stage.Handler, start, processing, done library.Status) {
	f.registrations = append(f.registrations, registration{name, handler, start, processing, done})
}

func TestRegisterStages(t *testing.T) {
	cfg := config.Default()
	cfg.Tagging.Enabled = true
	cfg.Tagging.Model = "llama3.2"

	registrar := &fakeRegistrar{}
	registerStages(registrar, &cfg, nil, logging.NewNop())

	if len(registrar.registrations) != 3 {
		t.Fatalf("expected 3 stages registered, got %d", len(registrar.registrations))
	}

	expectations := []struct {
		name       string
		start      library.Status
		processing library.Status
		done       library.Status
	}{
		{"probe", library.StatusPending, library.StatusProbing, library.StatusProbed},
		{"tagging", library.StatusProbed, library.StatusTagging, library.StatusTagged},
		{"embed", library.StatusTagged, library.StatusEmbedding, library.StatusIndexed},
	}

	for i, reg := range registrar.registrations {
		if reg.handler == nil {
			t.Fatalf("stage %d handler is nil", i)
		}
		if reg.name != expectations[i].name {
			t.Errorf("stage %d name: expected %q, got %q", i, expectations[i].name, reg.name)
		}
		if reg.start != expectations[i].start {
			t.Errorf("stage %d start: expected %s, got %s", i, expectations[i].start, reg.start)
		}
		if reg.processing != expectations[i].processing {
			t.Errorf("stage %d processing: expected %s, got %s", i, expectations[i].processing, reg.processing)
		}
		if reg.done != expectations[i].done {
			t.Errorf("stage %d done: expected %s, got %s", i, expectations[i].done, reg.done)
		}
	}

	if _, ok := registrar.registrations[1].handler.(*tagging.Tagger); !ok {
		t.Fatalf("expected tagging stage to use the Tagger when enabled, got %T", registrar.registrations[1].handler)
	}
}

func TestRegisterStagesTaggingDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Tagging.Enabled = false

	registrar := &fakeRegistrar{}
	registerStages(registrar, &cfg, nil, logging.NewNop())

	if len(registrar.registrations) != 3 {
		t.Fatalf("expected 3 stages registered, got %d", len(registrar.registrations))
	}

	handler := registrar.registrations[1].handler
	if _, ok := handler.(taggingDisabled); !ok {
		t.Fatalf("expected pass-through tagging handler when disabled, got %T", handler)
	}

	item := &library.Item{Status: library.StatusProbed}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("pass-through execute: %v", err)
	}
	health := handler.HealthCheck(context.Background())
	if !health.Ready || health.Detail != "disabled" {
		t.Fatalf("unexpected health: %+v", health)
	}
}
