package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-pro/internal/config"
	"github.com/fakhrymubarak/weather-pro/internal/model"
	"github.com/fakhrymubarak/weather-pro/internal/render"
	"github.com/fakhrymubarak/weather-pro/internal/service"
)

type WeatherHandler struct {
	WeatherService service.WeatherServiceInterface
	Renderer       *render.Renderer

	now    func() time.Time
	logger *zap.SugaredLogger
}

func NewWeatherHandler(svc service.WeatherServiceInterface, renderer *render.Renderer) *WeatherHandler {
	return &WeatherHandler{
		WeatherService: svc,
		Renderer:       renderer,
		now:            time.Now,
		logger:         config.GetLogger(),
	}
}

// Routes mounts the page, its form actions, and the JSON API. limit wraps the routes
// that reach the provider; nil leaves them unlimited.
func (h *WeatherHandler) Routes(limit func(http.Handler) http.Handler) http.Handler {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.HandleIndex)
	mux.Handle("/search", limit(http.HandlerFunc(h.HandleSearch)))
	mux.Handle("/refresh", limit(http.HandlerFunc(h.HandleRefresh)))
	mux.Handle("/retry", limit(http.HandlerFunc(h.HandleRetry)))
	mux.Handle("/api/weather", limit(http.HandlerFunc(h.HandleAPIWeather)))
	mux.HandleFunc("/healthz", h.HandleHealth)
	return mux
}

func (h *WeatherHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Errorw("Could not encode json", "error", err)
	}
}

func (h *WeatherHandler) methodNotAllowed(w http.ResponseWriter, allow string) {
	errMsg := "Method not allowed"
	w.Header().Set("Allow", allow)
	h.writeJSONResponse(w, http.StatusMethodNotAllowed, model.Response{
		Error:   &errMsg,
		Message: "Error",
	})
}

// detach keeps a fetch running when the browser goes away, so the shared state is
// never left in Loading by a dropped connection.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// HandleIndex renders the page for the current state.
func (h *WeatherHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.methodNotAllowed(w, "GET, HEAD")
		return
	}

	h.writePage(w, http.StatusOK, h.Renderer.Build(h.WeatherService.State(), h.now()))
}

func (h *WeatherHandler) writePage(w http.ResponseWriter, statusCode int, view render.View) {
	var buf bytes.Buffer
	if err := render.WriteHTML(&buf, view); err != nil {
		h.logger.Errorw("Could not render page", "error", err)
		http.Error(w, "Could not render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
}

// RateLimited answers a request the rate limiter turned away: a JSON 429 for the API and
// the page with a notice for form actions, leaving the weather state as it was.
func (h *WeatherHandler) RateLimited(w http.ResponseWriter, r *http.Request, errMsg, message string) {
	h.logger.Infow("Request rate limited", "path", r.URL.Path, "reason", message)
	if strings.HasPrefix(r.URL.Path, "/api/") {
		h.writeJSONResponse(w, http.StatusTooManyRequests, model.Response{
			Error:   &errMsg,
			Message: message,
		})
		return
	}
	view := h.Renderer.Build(h.WeatherService.State(), h.now())
	view.Notice = errMsg
	h.writePage(w, http.StatusTooManyRequests, view)
}

// HandleSearch fetches the posted city. Blank input leaves the state untouched.
func (h *WeatherHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, http.MethodPost)
		return
	}
	_, err := h.WeatherService.Fetch(detach(r), r.FormValue("city"))
	h.afterAction(w, r, "search", err)
}

// HandleRefresh re-fetches the city on display.
func (h *WeatherHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, http.MethodPost)
		return
	}
	_, err := h.WeatherService.Refresh(detach(r))
	h.afterAction(w, r, "refresh", err)
}

// HandleRetry fetches the default city again.
func (h *WeatherHandler) HandleRetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, http.MethodPost)
		return
	}
	_, err := h.WeatherService.Retry(detach(r))
	h.afterAction(w, r, "retry", err)
}

// afterAction sends the browser back to the page, which shows whatever state the
// action produced. Fetch failures are already in that state.
func (h *WeatherHandler) afterAction(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, service.ErrEmptyCity), errors.Is(err, service.ErrNothingToRefresh):
		h.logger.Debugw("Action ignored", "action", action, "reason", err)
	default:
		h.logger.Infow("Action finished with error", "action", action, "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleAPIWeather returns the current state and its derived view. With ?city= it
// fetches that city first.
func (h *WeatherHandler) HandleAPIWeather(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, http.MethodGet)
		return
	}

	state := h.WeatherService.State()
	status := http.StatusOK
	var errMsg *string

	if r.URL.Query().Has("city") {
		var err error
		state, err = h.WeatherService.Fetch(detach(r), r.URL.Query().Get("city"))
		if err != nil {
			msg := err.Error()
			var detail *model.ErrorDetail
			if errors.As(err, &detail) {
				msg = detail.Message
			}
			errMsg = &msg
			status = apiStatus(err)
		}
	}

	message := "Success"
	if errMsg != nil {
		message = "Error"
	}
	h.writeJSONResponse(w, status, model.Response{
		Data:    h.Renderer.Build(state, h.now()),
		Error:   errMsg,
		Message: message,
	})
}

func apiStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrEmptyCity), errors.Is(err, service.ErrInvalidCity):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, model.ErrProviderRejected):
		var detail *model.ErrorDetail
		if errors.As(err, &detail) && detail.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}

// HandleHealth reports liveness and the current state kind.
func (h *WeatherHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.methodNotAllowed(w, "GET, HEAD")
		return
	}
	h.writeJSONResponse(w, http.StatusOK, model.Response{
		Data:    map[string]string{"state": h.WeatherService.State().Kind().String()},
		Message: "OK",
	})
}
