package classify

import (
	"github.com/xxxsen/unmask/internal/model"
	"github.com/xxxsen/unmask/internal/pattern"
)

func (e *Engine) detectEmotions(lower string) []model.Tag {
	var tags []model.Tag
	for _, r := range e.lib.Emotions {
		if !r.Match(lower) {
			continue
		}
		tags = append(tags, model.Tag{
			Category: model.CategoryEmotional,
			Type:     string(r.Label),
			Score:    pattern.Clamp(r.Score, pattern.MinScore, pattern.MaxScore),
			Valence:  r.Valence,
		})
	}
	return tags
}

func (e *Engine) detectConflicts(lower string) []model.Tag {
	var tags []model.Tag
	amp := pattern.ApplyAll(e.lib.ConflictAmplifiers, lower)
	for _, r := range e.lib.Conflicts {
		if !r.Match(lower) {
			continue
		}
		tags = append(tags, model.Tag{
			Category: model.CategoryConflict,
			Type:     string(r.Label),
			Score:    pattern.Clamp(r.Score+amp, pattern.MinScore, pattern.MaxScore),
		})
	}
	return tags
}

func (e *Engine) detectDynamics(lower string) []model.Tag {
	var tags []model.Tag
	for _, r := range e.lib.Dynamics {
		if !r.Match(lower) {
			continue
		}
		tags = append(tags, model.Tag{
			Category: model.CategoryRelationshipDynamic,
			Type:     string(r.Label),
		})
	}
	return tags
}
