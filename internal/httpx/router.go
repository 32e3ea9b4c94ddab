package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/AngelCh415/campaign-dash/internal/auth"
	"github.com/AngelCh415/campaign-dash/internal/metrics"
	"github.com/AngelCh415/campaign-dash/internal/models"
	"github.com/AngelCh415/campaign-dash/internal/utils"
)

const (
	msgUnauthorized = "unauthorized"
	msgServerError  = "could not load campaigns"
	msgInternal     = "server error"
)

type CampaignLister interface {
	Campaigns(ctx context.Context, window metrics.DateRange) ([]models.CampaignKPI, error)
	Location() *time.Location
}

type Authenticator interface {
	Authenticate(email, password string) (string, error)
	Verify(token string) (models.Identity, error)
}

type Syncer interface {
	SyncYesterday(ctx context.Context) (int, error)
}

type Deps struct {
	Log       *slog.Logger
	Campaigns CampaignLister
	Auth      Authenticator
	// Sync is nil when the Adjust integration is not configured.
	Sync    Syncer
	Metrics http.Handler
	Counter utils.RequestCounter
}

type handlers struct{ Deps }

func NewRouter(d Deps) http.Handler {
	h := handlers{d}
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(d.Log, d.Counter))
	mux.Use(middleware.Recoverer)

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	if d.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	mux.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.login)
		r.Group(func(r chi.Router) {
			r.Use(RequireBearer(d.Auth))
			r.Get("/campaigns", h.campaigns)
			r.Post("/sync-adjust", h.syncAdjust)
		})
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, models.Envelope{Error: "method not allowed"})
	})
	return mux
}

type identityKey struct{}

// RequireBearer answers 401 unless the request carries a valid
// "Authorization: Bearer <token>" header.
func RequireBearer(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := auth.ExtractBearer(r.Header.Get("Authorization"))
			if !ok {
				writeJSON(w, http.StatusUnauthorized, models.Envelope{Error: msgUnauthorized})
				return
			}
			id, err := a.Verify(tok)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, models.Envelope{Error: msgUnauthorized})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
		})
	}
}

func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(models.Identity)
	return id, ok
}

func (h handlers) campaigns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	window, err := metrics.ParseDateRange(q.Get("startDate"), q.Get("endDate"), h.Campaigns.Location())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.Envelope{Error: fmt.Sprintf("bad date range: %v", err)})
		return
	}
	out, err := h.Campaigns.Campaigns(r.Context(), window)
	if err != nil {
		h.Log.Error("campaigns failed", slog.String("rid", utils.RID(r.Context())), slog.String("err", err.Error()))
		writeJSON(w, http.StatusInternalServerError, models.Envelope{Error: msgServerError})
		return
	}
	if out == nil {
		out = []models.CampaignKPI{}
	}
	writeJSON(w, http.StatusOK, models.CampaignsEnvelope{Success: true, Campaigns: out})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.Envelope{Error: "email and password required"})
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, models.Envelope{Error: "email and password required"})
		return
	}
	tok, err := h.Auth.Authenticate(req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrDenied) {
			h.Log.Error("login failed", slog.String("rid", utils.RID(r.Context())), slog.String("err", err.Error()))
			writeJSON(w, http.StatusInternalServerError, models.Envelope{Error: msgInternal})
			return
		}
		writeJSON(w, http.StatusUnauthorized, models.Envelope{Error: "invalid email or password"})
		return
	}
	writeJSON(w, http.StatusOK, models.Envelope{Success: true, Token: tok})
}

func (h handlers) syncAdjust(w http.ResponseWriter, r *http.Request) {
	if h.Sync == nil {
		h.Log.Error("adjust sync requested but not configured", slog.String("rid", utils.RID(r.Context())))
		writeJSON(w, http.StatusInternalServerError, models.Envelope{Error: msgInternal})
		return
	}
	n, err := h.Sync.SyncYesterday(r.Context())
	if err != nil {
		h.Log.Error("adjust sync failed", slog.String("rid", utils.RID(r.Context())), slog.String("err", err.Error()))
		writeJSON(w, http.StatusInternalServerError, models.Envelope{Error: msgInternal})
		return
	}
	msg := "no data"
	if n > 0 {
		msg = fmt.Sprintf("%d rows synced", n)
	}
	writeJSON(w, http.StatusOK, models.Envelope{Success: true, Message: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
