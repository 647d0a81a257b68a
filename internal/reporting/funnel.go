package reporting

import (
	"context"
	"fmt"

	"github.com/shopsight-lab/shopsight/internal/core/funnel"
)

// Funnel computes distinct-actor progression through the named funnel's
// stages over a trailing window of windowDays ending now.
//
// Counts are monotonically non-increasing by construction: each stage's
// actor set is intersected with the set that survived every earlier stage,
// so an actor who skipped stage 2 never reappears in stage 3.
func (s *Service) Funnel(ctx context.Context, name string, windowDays int) (*FunnelResponse, error) {
	if windowDays == 0 {
		windowDays = defaultFunnelWindowDays
	}
	if windowDays < 1 || windowDays > maxFunnelWindowDays {
		return nil, invalidQueryf("window_days must be in [1, %d]", maxFunnelWindowDays)
	}

	f, err := s.funnels.Get(name)
	if err != nil {
		return nil, invalidQueryf("unknown funnel: %s", name)
	}

	key := fmt.Sprintf("funnel:%s:%d:%s", name, windowDays, dayKey(s.today()))
	out, err := s.cachedQuery(ctx, key, func(ctx context.Context) (interface{}, error) {
		return s.computeFunnel(ctx, f, windowDays)
	})
	if err != nil {
		return nil, err
	}
	return out.(*FunnelResponse), nil
}

func (s *Service) computeFunnel(ctx context.Context, f *funnel.Funnel, windowDays int) (*FunnelResponse, error) {
	now := s.nowFn()
	from := now.AddDate(0, 0, -windowDays)

	resp := &FunnelResponse{
		Name:       f.Name,
		WindowDays: windowDays,
		Stages:     make([]FunnelStageResult, 0, len(f.Stages)),
	}

	var survivors map[string]struct{}
	for i, stage := range f.Stages {
		propertyKey, propertyValue := "", ""
		if stage.Match != nil {
			propertyKey, propertyValue = stage.Match.Property, stage.Match.Equals
		}

		actors, err := s.events.DistinctActors(ctx, stage.Event, propertyKey, propertyValue, from, now)
		if err != nil {
			return nil, fmt.Errorf("funnel %s stage %s: %w", f.Name, stage.Event, err)
		}

		if i == 0 {
			survivors = actors
		} else {
			next := make(map[string]struct{})
			for actor := range survivors {
				if _, ok := actors[actor]; ok {
					next[actor] = struct{}{}
				}
			}
			survivors = next
		}

		count := int64(len(survivors))
		dropOff := 0.0
		if i > 0 {
			prev := resp.Stages[i-1].Actors
			if prev > 0 {
				dropOff = float64(prev-count) / float64(prev) * 100
			}
		}

		resp.Stages = append(resp.Stages, FunnelStageResult{
			Label:      stage.Label,
			Event:      stage.Event,
			Actors:     count,
			DropOffPct: dropOff,
		})
	}

	if len(resp.Stages) > 0 && resp.Stages[0].Actors > 0 {
		final := resp.Stages[len(resp.Stages)-1].Actors
		resp.ConversionPct = float64(final) / float64(resp.Stages[0].Actors) * 100
	}
	return resp, nil
}
