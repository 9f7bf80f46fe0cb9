package adherence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariebrainware/tbcare/model"
	"github.com/ariebrainware/tbcare/treatment"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/ariebrainware/tbcare/adherence")

// Source reads the treatments summaries are computed from.
type Source interface {
	List(ctx context.Context, f treatment.ListFilter) ([]model.Treatment, int64, error)
}

// Service computes adherence summaries, caching per-treatment results in
// redis when a client is configured.
type Service struct {
	source Source
	cache  *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewService(source Source, cache *redis.Client, ttl time.Duration, log zerolog.Logger) *Service {
	return &Service{
		source: source,
		cache:  cache,
		ttl:    ttl,
		log:    log.With().Str("component", "adherence").Logger(),
	}
}

func cacheKey(treatmentID uint) string {
	return fmt.Sprintf("adherence:treatment:%d", treatmentID)
}

// ForTreatment summarizes one treatment's follow-up log. Callers are
// responsible for access checks on t.
func (s *Service) ForTreatment(ctx context.Context, t *model.Treatment) (Summary, error) {
	ctx, span := tracer.Start(ctx, "adherence.ForTreatment", trace.WithAttributes(attribute.Int64("treatment.id", int64(t.ID))))
	defer span.End()

	if cached, ok := s.cached(ctx, t.ID); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}
	summary := Summarize(t.FollowUps)
	s.store(ctx, t.ID, summary)
	return summary, nil
}

// ForPatient summarizes every non-archived treatment of a patient.
func (s *Service) ForPatient(ctx context.Context, patientID uint) (Summary, error) {
	ctx, span := tracer.Start(ctx, "adherence.ForPatient", trace.WithAttributes(attribute.Int64("patient.id", int64(patientID))))
	defer span.End()

	treatments, _, err := s.source.List(ctx, treatment.ListFilter{PatientID: &patientID, WithFollowUps: true})
	if err != nil {
		span.RecordError(err)
		return Summary{}, err
	}
	return SummarizeTreatments(treatments), nil
}

// Outcomes returns the status and regimen distribution of non-archived
// treatments, restricted to one patient when patientID is set.
func (s *Service) Outcomes(ctx context.Context, patientID *uint) (Breakdown, error) {
	ctx, span := tracer.Start(ctx, "adherence.Outcomes")
	defer span.End()

	treatments, _, err := s.source.List(ctx, treatment.ListFilter{PatientID: patientID})
	if err != nil {
		span.RecordError(err)
		return Breakdown{}, err
	}
	return Outcomes(treatments), nil
}

// Invalidate drops the cached summary of a treatment.
func (s *Service) Invalidate(ctx context.Context, treatmentID uint) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Del(ctx, cacheKey(treatmentID)).Err(); err != nil {
		return fmt.Errorf("invalidate adherence cache for treatment %d: %w", treatmentID, err)
	}
	return nil
}

func (s *Service) cached(ctx context.Context, treatmentID uint) (Summary, bool) {
	if s.cache == nil {
		return Summary{}, false
	}
	raw, err := s.cache.Get(ctx, cacheKey(treatmentID)).Result()
	if errors.Is(err, redis.Nil) {
		return Summary{}, false
	}
	if err != nil {
		s.log.Warn().Err(err).Uint("treatment_id", treatmentID).Msg("adherence cache read failed")
		return Summary{}, false
	}
	var summary Summary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		s.log.Warn().Err(err).Uint("treatment_id", treatmentID).Msg("discarding malformed cached adherence summary")
		return Summary{}, false
	}
	return summary, true
}

func (s *Service) store(ctx context.Context, treatmentID uint, summary Summary) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(treatmentID), string(payload), s.ttl).Err(); err != nil {
		s.log.Warn().Err(err).Uint("treatment_id", treatmentID).Msg("adherence cache write failed")
	}
}
