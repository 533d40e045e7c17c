package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/divyyeahhhhh/autocampaign/internal/domain"
	"github.com/divyyeahhhhh/autocampaign/internal/genai"
	"github.com/divyyeahhhhh/autocampaign/internal/pkg/httputil"
	"github.com/divyyeahhhhh/autocampaign/internal/pkg/logger"
)

type studioRequest struct {
	Channel string `json:"channel"`
	Topic   string `json:"topic"`
	Tone    string `json:"tone"`
}

var studioChannels = map[string]bool{
	"Email":   true,
	"Social":  true,
	"Ad Copy": true,
}

// HandleStudioContent generates one standalone marketing asset.
func (h *Handlers) HandleStudioContent(w http.ResponseWriter, r *http.Request) {
	var req studioRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if !studioChannels[req.Channel] {
		httputil.BadRequest(w, "channel must be Email, Social or Ad Copy")
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		httputil.BadRequest(w, "topic is required")
		return
	}
	tone := domain.Tone(req.Tone)
	if req.Tone == "" {
		tone = domain.ToneProfessional
	}
	if !tone.Valid() {
		httputil.BadRequest(w, "tone must be Professional, Friendly or Urgent")
		return
	}

	result, err := h.studio.GenerateStudioContent(r.Context(), genai.StudioRequest{
		Channel: req.Channel,
		Topic:   req.Topic,
		Tone:    tone,
	})
	if err != nil {
		h.writeGenerationError(w, err)
		return
	}
	httputil.OK(w, result)
}

// HandleLeadStrategy asks the model for a segmented outreach strategy over
// the uploaded dataset.
func (h *Handlers) HandleLeadStrategy(w http.ResponseWriter, r *http.Request) {
	ds := h.store.Dataset()
	if ds == nil || len(ds.Rows) == 0 {
		httputil.BadRequest(w, "upload a dataset first")
		return
	}

	strategy, err := h.studio.AnalyzeLeadStrategy(r.Context(), ds)
	if err != nil {
		h.writeGenerationError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"strategy": strategy})
}

func (h *Handlers) writeGenerationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, genai.ErrMissingAPIKey):
		httputil.Error(w, http.StatusServiceUnavailable, "generation service is not configured")
	case errors.Is(err, genai.ErrEmptyContent), errors.Is(err, genai.ErrMalformedReply):
		httputil.Error(w, http.StatusBadGateway, "generation service returned an unusable reply")
	default:
		httputil.InternalError(w, err)
	}
}

// ContactMessage is one submission from the landing page contact form.
type ContactMessage struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Company    string    `json:"company,omitempty"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"received_at"`
}

// HandleContact accepts a contact form submission.
func (h *Handlers) HandleContact(w http.ResponseWriter, r *http.Request) {
	var msg ContactMessage
	if !httputil.Decode(w, r, &msg) {
		return
	}
	if strings.TrimSpace(msg.Name) == "" || strings.TrimSpace(msg.Email) == "" || strings.TrimSpace(msg.Message) == "" {
		httputil.BadRequest(w, "name, email and message are required")
		return
	}
	msg.ReceivedAt = time.Now().UTC()

	h.contactMu.Lock()
	h.contacts = append(h.contacts, msg)
	h.contactMu.Unlock()

	logger.Info("contact form received", "email", msg.Email)
	httputil.Created(w, map[string]string{"status": "received"})
}
