package rates

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sawpanic/fxproxy/internal/domain"
)

// ErrLookupFailed is the single error the HTTP layer sees. Cold cache and
// unknown pair both map to it: distinguishing them would leak operational
// state to clients. Operators tell them apart from the logs.
var ErrLookupFailed = fmt.Errorf("rates: lookup failed")

// Service is the thin contract between the HTTP layer and the engine.
type Service struct {
	engine *Engine
	log    zerolog.Logger
}

// NewService wraps an engine.
func NewService(engine *Engine, logger zerolog.Logger) *Service {
	return &Service{engine: engine, log: logger.With().Str("component", "rates").Logger()}
}

// Get resolves a pair, collapsing every engine error into ErrLookupFailed.
func (s *Service) Get(pair domain.Pair) (domain.Rate, error) {
	rate, err := s.engine.Get(pair)
	if err != nil {
		s.log.Debug().
			Str("from", pair.From.String()).
			Str("to", pair.To.String()).
			Err(err).
			Msg("lookup failed")
		return domain.Rate{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	return rate, nil
}
