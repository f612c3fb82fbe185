// Package session coordinates login state and the lifetime of the feed controller.
// A controller is created on login and discarded on logout, nothing survives between sessions.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/umputun/scrollfeed/pkg/feed"
)

// Status of a session
type Status int

// session statuses
const (
	StatusLoggedOut Status = iota
	StatusLoggedIn
)

// String returns status name
func (s Status) String() string {
	if s == StatusLoggedIn {
		return "logged-in"
	}
	return "logged-out"
}

// ControllerMaker makes a fresh feed controller for a new login
type ControllerMaker func() *feed.Controller

// Session holds login status and owns the feed controller while logged in
type Session struct {
	makeCtrl ControllerMaker
	now      func() time.Time

	mu       sync.Mutex
	status   Status
	ctrl     *feed.Controller
	lastSeen time.Time
}

// New makes logged-out session
func New(makeCtrl ControllerMaker) *Session {
	return &Session{makeCtrl: makeCtrl, now: time.Now, lastSeen: time.Now()}
}

// Login switches session to logged-in, creates the feed controller and performs its initial load.
// Login on a logged-in session returns the existing controller without reloading.
func (s *Session) Login(ctx context.Context) *feed.Controller {
	s.mu.Lock()
	s.lastSeen = s.now()
	if s.status == StatusLoggedIn {
		ctrl := s.ctrl
		s.mu.Unlock()
		return ctrl
	}
	s.status = StatusLoggedIn
	ctrl := s.makeCtrl()
	s.ctrl = ctrl
	s.mu.Unlock()

	ctrl.Start(ctx)
	return ctrl
}

// Logout discards the feed controller and its state
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusLoggedOut
	s.ctrl = nil
}

// Status returns current status
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Feed returns controller of a logged-in session
func (s *Session) Feed() (*feed.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
	return s.ctrl, s.ctrl != nil
}

// LastSeen returns time of the last access
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
