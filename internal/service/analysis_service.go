package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/unmask/internal/model"
	appErr "github.com/xxxsen/unmask/internal/pkg/errors"
)

const concerningIntensity = 7

var analysisKinds = map[string]model.Category{
	"person_reference": model.CategoryPersonReference,
	"person_analysis":  model.CategoryPersonReference,
	"chris_analysis":   model.CategoryPersonReference,
	"ex_reference":     model.CategoryExReference,
	"ex_analysis":      model.CategoryExReference,
}

type tagSearcher interface {
	Search(ctx context.Context, q model.TagQuery) ([]model.TagHit, error)
}

type AnalysisService struct {
	tags tagSearcher
}

func NewAnalysisService(tags tagSearcher) *AnalysisService {
	return &AnalysisService{tags: tags}
}

// AnalyzeKind resolves an analysis kind name and runs the reference analysis.
func (s *AnalysisService) AnalyzeKind(ctx context.Context, kind string) (*model.ReferenceAnalysis, error) {
	category, ok := analysisKinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown analysis type %q: %w", kind, appErr.ErrInvalid)
	}
	return s.AnalyzePersonReferences(ctx, category)
}

// AnalyzePersonReferences summarizes every message carrying a reference tag
// of category. Only the first such tag of a message counts.
func (s *AnalysisService) AnalyzePersonReferences(ctx context.Context, category model.Category) (*model.ReferenceAnalysis, error) {
	if category != model.CategoryPersonReference && category != model.CategoryExReference {
		return nil, fmt.Errorf("category %q is not a reference category: %w", category, appErr.ErrInvalid)
	}
	hits, err := s.tags.Search(ctx, model.TagQuery{Category: category, Limit: -1})
	if err != nil {
		return nil, fmt.Errorf("search %s tags: %w", category, err)
	}
	firsts := firstTagPerMessage(hits)
	out := &model.ReferenceAnalysis{
		Category:           category,
		TotalMentions:      len(firsts),
		BySender:           map[string]int{string(model.DirectionIncoming): 0, string(model.DirectionOutgoing): 0},
		ByContext:          map[string]int{},
		IntensityOverTime:  make([]model.IntensityPoint, 0, len(firsts)),
		ConcerningPatterns: []model.TagHit{},
	}
	for _, hit := range firsts {
		out.BySender[string(hit.Message.Direction)]++
		out.ByContext[hit.Tag.Context]++
		out.IntensityOverTime = append(out.IntensityOverTime, model.IntensityPoint{
			Date:      hit.Message.Timestamp.UTC().Format(time.RFC3339),
			Intensity: hit.Tag.Score,
			Context:   hit.Tag.Context,
			Sender:    hit.Message.Direction,
		})
		if hit.Tag.Score >= concerningIntensity {
			out.ConcerningPatterns = append(out.ConcerningPatterns, hit)
		}
	}
	logutil.GetLogger(ctx).Info("reference analysis finished",
		zap.String("category", string(category)),
		zap.Int("mentions", out.TotalMentions),
		zap.Int("concerning", len(out.ConcerningPatterns)))
	return out, nil
}

// firstTagPerMessage keeps the first hit of each message and returns them
// oldest first. Search yields messages newest first with tags in stored order.
func firstTagPerMessage(hits []model.TagHit) []model.TagHit {
	seen := make(map[int64]struct{}, len(hits))
	out := make([]model.TagHit, 0, len(hits))
	for _, hit := range hits {
		if _, ok := seen[hit.Message.ID]; ok {
			continue
		}
		seen[hit.Message.ID] = struct{}{}
		out = append(out, hit)
	}
	slices.Reverse(out)
	return out
}
