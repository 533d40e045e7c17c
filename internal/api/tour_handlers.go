package api

import (
	"errors"
	"net/http"

	"github.com/divyyeahhhhh/autocampaign/internal/pkg/httputil"
	"github.com/divyyeahhhhh/autocampaign/internal/tour"
)

// HandleStartTour kicks off the scripted demo tour.
func (h *Handlers) HandleStartTour(w http.ResponseWriter, r *http.Request) {
	if h.tourCtrl == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "tour is not available")
		return
	}
	if err := h.tourCtrl.Start(); err != nil {
		if errors.Is(err, tour.ErrTourActive) {
			httputil.Conflict(w, err.Error())
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.JSON(w, http.StatusAccepted, h.tourStatus())
}

// HandleStopTour cancels the running tour. Actions already taken by the
// tour stay in place.
func (h *Handlers) HandleStopTour(w http.ResponseWriter, r *http.Request) {
	if h.tourCtrl == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "tour is not available")
		return
	}
	if err := h.tourCtrl.Close(); err != nil {
		httputil.Conflict(w, err.Error())
		return
	}
	httputil.NoContent(w)
}

// HandleTourStatus returns the current step and its narration line.
func (h *Handlers) HandleTourStatus(w http.ResponseWriter, r *http.Request) {
	if h.tourCtrl == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "tour is not available")
		return
	}
	httputil.OK(w, h.tourStatus())
}

// HandleTourAudio serves the most recent narration clip as WAV.
func (h *Handlers) HandleTourAudio(w http.ResponseWriter, r *http.Request) {
	if h.tourCtrl == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "tour is not available")
		return
	}
	clip := h.tourCtrl.LastClip()
	if clip == nil {
		httputil.NotFound(w, "no narration available yet")
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	w.Write(clip)
}

func (h *Handlers) tourStatus() map[string]interface{} {
	step := h.tourCtrl.Current()
	return map[string]interface{}{
		"step":   step,
		"script": tour.Script(step),
		"active": step != tour.StepIdle,
	}
}
