package classify

import (
	"github.com/xxxsen/unmask/internal/model"
	"github.com/xxxsen/unmask/internal/pattern"
)

func (e *Engine) detectPersons(lower string) []model.Tag {
	var tags []model.Tag
	for _, person := range e.lib.Persons {
		if !person.Match(lower) {
			continue
		}
		ctx, ok := pattern.FirstMatch(e.lib.PersonContextsFor(person.Name), lower)
		if !ok {
			ctx = e.lib.DefaultPersonContext
		}
		tags = append(tags, model.Tag{
			Category: model.CategoryPersonReference,
			Type:     pattern.TypePersonMention,
			Context:  string(ctx.Label),
			Score:    e.referenceIntensity(ctx.Score, lower),
			Value:    person.Name,
		})
	}
	return tags
}

func (e *Engine) detectEx(lower string) []model.Tag {
	if !pattern.AnyMatch(e.lib.ExPatterns, lower) {
		return nil
	}
	ctx, ok := pattern.FirstMatch(e.lib.ExContexts, lower)
	if !ok {
		ctx = e.lib.DefaultExContext
	}
	return []model.Tag{{
		Category: model.CategoryExReference,
		Type:     pattern.TypeRelationshipHistory,
		Context:  string(ctx.Label),
		Score:    e.referenceIntensity(ctx.Score, lower),
	}}
}

func (e *Engine) referenceIntensity(base int, lower string) int {
	return pattern.Clamp(base+pattern.ApplyAll(e.lib.ReferenceBonuses, lower), pattern.MinScore, pattern.MaxScore)
}
