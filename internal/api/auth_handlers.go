package api

import (
	"errors"
	"net/http"

	"github.com/divyyeahhhhh/autocampaign/internal/auth"
	"github.com/divyyeahhhhh/autocampaign/internal/pkg/httputil"
)

type loginRequest struct {
	Mode  string `json:"mode"`
	Email string `json:"email"`
}

// HandleLogin runs the simulated sign-in flow and issues a session cookie.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	sess, err := h.authManager.Login(r.Context(), auth.Mode(req.Mode), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidMode), errors.Is(err, auth.ErrEmptyEmail):
			httputil.BadRequest(w, err.Error())
		default:
			httputil.InternalError(w, err)
		}
		return
	}

	h.authManager.SetCookie(w, sess)
	h.store.LoginSucceeded(sess)
	httputil.OK(w, sess)
}

// HandleLogout drops the session and resets the demo state.
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.authManager.Logout(r)
	h.authManager.ClearCookie(w)
	h.store.Logout()
	httputil.NoContent(w)
}

// HandleUserInfo returns the signed-in identity.
func (h *Handlers) HandleUserInfo(w http.ResponseWriter, r *http.Request) {
	sess := h.authManager.GetSession(r)
	if sess == nil {
		httputil.Error(w, http.StatusUnauthorized, "not logged in")
		return
	}
	httputil.OK(w, sess)
}

type authViewRequest struct {
	Mode string `json:"mode"`
}

// HandleOpenAuth moves the UI to the sign-in screen.
func (h *Handlers) HandleOpenAuth(w http.ResponseWriter, r *http.Request) {
	var req authViewRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := h.store.OpenAuth(auth.Mode(req.Mode)); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.OK(w, h.store.Snapshot())
}

// HandleCloseAuth returns to the landing screen without signing in.
func (h *Handlers) HandleCloseAuth(w http.ResponseWriter, r *http.Request) {
	h.store.CloseAuth()
	httputil.OK(w, h.store.Snapshot())
}
