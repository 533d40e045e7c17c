// Package session holds the per-demo UI state: which screen is showing,
// whether the user is signed in, the uploaded dataset, the campaign
// configuration and the workflow phase. All transitions go through typed
// methods on Store so every mutation is validated in one place.
package session

import (
	"errors"
	"sync"

	"github.com/divyyeahhhhh/autocampaign/internal/auth"
	"github.com/divyyeahhhhh/autocampaign/internal/domain"
)

// View is the top-level screen.
type View string

const (
	ViewLanding View = "landing"
	ViewAuth    View = "auth"
	ViewApp     View = "app"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrBusyGenerating   = errors.New("workflow is generating")
	ErrNoDataset        = errors.New("no dataset uploaded")
	ErrBadTransition    = errors.New("invalid workflow transition")
)

// State is an immutable snapshot of the session.
type State struct {
	View          View                    `json:"view"`
	AuthMode      auth.Mode               `json:"auth_mode,omitempty"`
	Authenticated bool                    `json:"authenticated"`
	UserEmail     string                  `json:"user_email,omitempty"`
	UserName      string                  `json:"user_name,omitempty"`
	Dataset       *domain.UploadedDataset `json:"dataset,omitempty"`
	Config        domain.CampaignConfig   `json:"config"`
	Workflow      domain.RunState         `json:"workflow"`
	RunID         string                  `json:"run_id,omitempty"`
	TourStep      string                  `json:"tour_step,omitempty"`
}

// Store is the session state container. One store serves the whole
// process; the demo is single-session.
type Store struct {
	mu    sync.RWMutex
	state State
}

// NewStore starts on the landing screen with an idle workflow.
func NewStore() *Store {
	return &Store{state: State{
		View:     ViewLanding,
		Workflow: domain.RunIdle,
		Config:   domain.CampaignConfig{Tone: domain.ToneProfessional},
	}}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// OpenAuth moves to the sign-in screen in the given mode.
func (s *Store) OpenAuth(mode auth.Mode) error {
	if !mode.Valid() {
		return auth.ErrInvalidMode
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.View = ViewAuth
	s.state.AuthMode = mode
	return nil
}

// CloseAuth returns to the landing screen without signing in.
func (s *Store) CloseAuth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Authenticated {
		s.state.View = ViewLanding
		s.state.AuthMode = ""
	}
}

// LoginSucceeded records the signed-in identity and enters the app.
func (s *Store) LoginSucceeded(sess *auth.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.View = ViewApp
	s.state.AuthMode = ""
	s.state.Authenticated = true
	s.state.UserEmail = sess.Email
	s.state.UserName = sess.Name
}

// Logout clears the identity and all workflow state.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{
		View:     ViewLanding,
		Workflow: domain.RunIdle,
		Config:   domain.CampaignConfig{Tone: domain.ToneProfessional},
	}
}

// SetDataset replaces the uploaded dataset wholesale and moves the
// workflow to configuring. Rejected while a run is generating.
func (s *Store) SetDataset(ds *domain.UploadedDataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Authenticated {
		return ErrNotAuthenticated
	}
	if s.state.Workflow == domain.RunGenerating {
		return ErrBusyGenerating
	}
	s.state.Dataset = ds
	s.state.Workflow = domain.RunConfiguring
	s.state.RunID = ""
	return nil
}

// ClearDataset removes the dataset and returns the workflow to idle.
func (s *Store) ClearDataset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Workflow == domain.RunGenerating {
		return ErrBusyGenerating
	}
	s.state.Dataset = nil
	s.state.Workflow = domain.RunIdle
	s.state.RunID = ""
	return nil
}

// Dataset returns the current dataset, or nil.
func (s *Store) Dataset() *domain.UploadedDataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Dataset
}

// SetConfig updates the campaign parameters. Free-form until generation
// starts; the orchestrator validates again at start.
func (s *Store) SetConfig(cfg domain.CampaignConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Workflow == domain.RunGenerating {
		return ErrBusyGenerating
	}
	s.state.Config = cfg
	return nil
}

// Config returns the current campaign parameters.
func (s *Store) Config() domain.CampaignConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Config
}

// RunStarted moves configuring to generating and records the run.
func (s *Store) RunStarted(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Workflow != domain.RunConfiguring {
		return ErrBadTransition
	}
	s.state.Workflow = domain.RunGenerating
	s.state.RunID = runID
	return nil
}

// RunFinished records the terminal state of the active run. A failed run
// keeps the dataset so the user can adjust and retry.
func (s *Store) RunFinished(runID string, state domain.RunState) error {
	if state != domain.RunCompleted && state != domain.RunFailed {
		return ErrBadTransition
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Workflow != domain.RunGenerating || s.state.RunID != runID {
		return ErrBadTransition
	}
	s.state.Workflow = state
	if state == domain.RunFailed {
		s.state.Workflow = domain.RunConfiguring
		s.state.RunID = ""
	}
	return nil
}

// BackToConfig leaves the review screen, keeping the dataset and config.
func (s *Store) BackToConfig() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Workflow != domain.RunCompleted {
		return ErrBadTransition
	}
	if s.state.Dataset == nil {
		return ErrNoDataset
	}
	s.state.Workflow = domain.RunConfiguring
	s.state.RunID = ""
	return nil
}

// SetTourStep records the current demo tour step for the snapshot.
func (s *Store) SetTourStep(step string) {
	s.mu.Lock()
	s.state.TourStep = step
	s.mu.Unlock()
}
