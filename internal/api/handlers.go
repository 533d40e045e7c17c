package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/divyyeahhhhh/autocampaign/internal/auth"
	"github.com/divyyeahhhhh/autocampaign/internal/campaign"
	"github.com/divyyeahhhhh/autocampaign/internal/config"
	"github.com/divyyeahhhhh/autocampaign/internal/domain"
	"github.com/divyyeahhhhh/autocampaign/internal/genai"
	"github.com/divyyeahhhhh/autocampaign/internal/pkg/httputil"
	"github.com/divyyeahhhhh/autocampaign/internal/session"
	"github.com/divyyeahhhhh/autocampaign/internal/tour"
)

// StudioClient is the generation surface beyond per-row messages: studio
// assets and lead strategy analysis. *genai.GeminiClient satisfies it;
// tests substitute a fake.
type StudioClient interface {
	GenerateStudioContent(ctx context.Context, req genai.StudioRequest) (*genai.StudioResult, error)
	AnalyzeLeadStrategy(ctx context.Context, ds *domain.UploadedDataset) (string, error)
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	cfg         *config.Config
	authManager *auth.Manager
	store       *session.Store
	svc         *campaign.Service
	studio      StudioClient
	tourCtrl    *tour.Controller
	startedAt   time.Time

	contactMu sync.Mutex
	contacts  []ContactMessage
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg *config.Config, authManager *auth.Manager, store *session.Store, svc *campaign.Service, studio StudioClient) *Handlers {
	return &Handlers{
		cfg:         cfg,
		authManager: authManager,
		store:       store,
		svc:         svc,
		studio:      studio,
		startedAt:   time.Now().UTC(),
	}
}

// SetTourController attaches the tour controller after wiring.
func (h *Handlers) SetTourController(c *tour.Controller) {
	h.tourCtrl = c
}

// HealthCheck reports server liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startedAt).String(),
	})
}
