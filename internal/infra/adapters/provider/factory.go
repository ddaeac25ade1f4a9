package provider

import (
	"time"

	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/adapter"
	"smm-panel/internal/usecase"
)

var _ usecase.AdapterFactory = (*Factory)(nil)

// builders maps a provider slug to its adapter constructor. Slugs not listed
// here fall back to the generic panel protocol, which is what nearly every
// upstream speaks anyway.
var builders = map[string]func(f *Factory, p *model.Provider) adapter.SMMProvider{
	"noop": func(_ *Factory, p *model.Provider) adapter.SMMProvider {
		return NewNoopPanel(p.Name)
	},
}

// Factory builds a panel adapter from a provider record.
type Factory struct {
	timeout time.Duration
}

func NewFactory(timeout time.Duration) *Factory {
	return &Factory{timeout: timeout}
}

func (f *Factory) For(p *model.Provider) adapter.SMMProvider {
	if build, ok := builders[p.Slug]; ok {
		return build(f, p)
	}
	return NewGenericPanel(p.Name, p.APIURL, p.APIKey, f.timeout)
}
