package ai

import (
	"fmt"

	"github.com/xxxsen/ai360/internal/config"
)

// Capabilities are the fallback groups built from the ai config section.
type Capabilities struct {
	Chat     IGenerator
	Vision   IVisionGenerator
	Answerer IGenerator
	Embedder IEmbedder
}

func BuildCapabilities(cfg config.AIConfig) (*Capabilities, error) {
	providers := make(map[string]IAIProvider, len(cfg.Providers))
	embedProviders := make(map[string]IEmbedProvider)
	types := make(map[string]config.AIProviderConfig, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		p, err := NewProvider(pc.Type, pc.Data)
		if err != nil {
			return nil, fmt.Errorf("init ai provider %s: %w", pc.Name, err)
		}
		providers[pc.Name] = p
		types[pc.Name] = pc
	}
	textEntries := func(refs []config.ModelRef) []GeneratorEntry {
		out := make([]GeneratorEntry, 0, len(refs))
		for _, ref := range refs {
			out = append(out, GeneratorEntry{
				Name:      ref.Provider + "/" + ref.Model,
				Generator: NewGenerator(providers[ref.Provider], ref.Model),
			})
		}
		return out
	}
	caps := &Capabilities{
		Chat:     NewGroupGenerator(textEntries(cfg.Text)),
		Answerer: NewGroupGenerator(textEntries(cfg.Answer)),
	}

	vision := make([]VisionEntry, 0, len(cfg.Vision))
	for _, ref := range cfg.Vision {
		vision = append(vision, VisionEntry{
			Name:      ref.Provider + "/" + ref.Model,
			Generator: NewVisionGenerator(providers[ref.Provider], ref.Model),
		})
	}
	caps.Vision = NewGroupVision(vision)

	embeds := make([]EmbedderEntry, 0, len(cfg.Embed))
	for _, ref := range cfg.Embed {
		ep, ok := embedProviders[ref.Provider]
		if !ok {
			pc, known := types[ref.Provider]
			if !known {
				return nil, fmt.Errorf("unknown ai provider: %s", ref.Provider)
			}
			var err error
			ep, err = NewEmbedProvider(pc.Type, pc.Data)
			if err != nil {
				return nil, fmt.Errorf("init embed provider %s: %w", pc.Name, err)
			}
			embedProviders[ref.Provider] = ep
		}
		embeds = append(embeds, EmbedderEntry{
			Name:     ref.Model,
			Embedder: NewEmbedder(ep, ref.Model),
		})
	}
	caps.Embedder = NewGroupEmbedder(embeds)
	return caps, nil
}
