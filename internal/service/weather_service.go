package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-pro/internal/config"
	"github.com/fakhrymubarak/weather-pro/internal/model"
	"github.com/fakhrymubarak/weather-pro/internal/repository"
)

const maxCityLength = 100

var cityValidator = validator.New()

var (
	ErrEmptyCity        = errors.New("city name is empty")
	ErrInvalidCity      = errors.New("invalid city name")
	ErrNothingToRefresh = errors.New("no weather is displayed to refresh")
	// ErrSuperseded is returned by a fetch whose response arrived after a newer fetch
	// was issued. Its result was discarded.
	ErrSuperseded = errors.New("request superseded by a newer one")
)

// WeatherServiceInterface is what the user-facing surfaces drive.
type WeatherServiceInterface interface {
	Fetch(ctx context.Context, city string) (model.RequestState, error)
	Refresh(ctx context.Context) (model.RequestState, error)
	Retry(ctx context.Context) (model.RequestState, error)
	State() model.RequestState
}

// WeatherService owns the single current RequestState. Only its methods write it;
// everyone else reads copies through State.
//
// Each fetch takes the next sequence number when it starts. A response is applied only
// if no newer fetch has started since, so overlapping fetches resolve to the newest
// request rather than the slowest response.
type WeatherService struct {
	WeatherRepo repository.WeatherRepository

	defaultCity string
	logger      *zap.SugaredLogger

	mu    sync.RWMutex
	state model.RequestState
	seq   uint64
}

var _ WeatherServiceInterface = (*WeatherService)(nil)

func NewWeatherService(repo repository.WeatherRepository, defaultCity string) *WeatherService {
	return &WeatherService{
		WeatherRepo: repo,
		defaultCity: defaultCity,
		logger:      config.GetLogger(),
		state:       model.IdleState(),
	}
}

// State returns the current state.
func (s *WeatherService) State() model.RequestState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// DefaultCity is the city fetched on start and by Retry.
func (s *WeatherService) DefaultCity() string {
	return s.defaultCity
}

// Start performs the initial fetch of the default city.
func (s *WeatherService) Start(ctx context.Context) model.RequestState {
	state, err := s.Fetch(ctx, s.defaultCity)
	if err != nil {
		s.logger.Warnw("Initial weather fetch failed", "city", s.defaultCity, "error", err)
	}
	return state
}

// Fetch moves the state to Loading, asks the provider for city and, unless a newer
// fetch started meanwhile, replaces the state with Success or Failure. Blank input is
// rejected before any transition.
func (s *WeatherService) Fetch(ctx context.Context, city string) (model.RequestState, error) {
	city, err := NormalizeCity(city)
	if err != nil {
		return s.State(), err
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.state = model.LoadingState(city, seq)
	s.mu.Unlock()

	requestID := uuid.NewString()
	log := s.logger.With("request_id", requestID, "seq", seq, "city", city)
	log.Infow("Fetching weather")

	snapshot, fetchErr := s.WeatherRepo.FetchWeather(ctx, city)

	var next model.RequestState
	if fetchErr != nil {
		next = model.FailureState(city, seq, *model.AsErrorDetail(fetchErr))
	} else {
		next = model.SuccessState(city, seq, snapshot)
	}

	s.mu.Lock()
	if seq != s.seq {
		current := s.state
		s.mu.Unlock()
		log.Infow("Discarding superseded weather response", "latest_seq", current.Seq())
		return current, ErrSuperseded
	}
	s.state = next
	s.mu.Unlock()

	if fetchErr != nil {
		log.Warnw("Weather fetch failed", "error", fetchErr)
		return next, fetchErr
	}
	log.Infow("Weather fetched", "location", snapshot.Location.Name, "observed_at", snapshot.ObservedAtEpochSeconds)
	return next, nil
}

// Refresh re-fetches the city currently on display, as named by the provider.
func (s *WeatherService) Refresh(ctx context.Context) (model.RequestState, error) {
	current := s.State()
	snap, ok := current.Snapshot()
	if !ok {
		return current, ErrNothingToRefresh
	}
	return s.Fetch(ctx, snap.Location.Name)
}

// Retry fetches the default city again.
func (s *WeatherService) Retry(ctx context.Context) (model.RequestState, error) {
	return s.Fetch(ctx, s.defaultCity)
}

// NormalizeCity trims city and checks that it is a usable search term: non-empty and at
// most maxCityLength characters.
func NormalizeCity(city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", ErrEmptyCity
	}
	if err := cityValidator.Var(city, fmt.Sprintf("max=%d", maxCityLength)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCity, err)
	}
	return city, nil
}
