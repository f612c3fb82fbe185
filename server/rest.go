package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/umputun/scrollfeed/pkg/domain"
	"github.com/umputun/scrollfeed/pkg/feed"
)

// feedResponse is JSON view of the feed state
type feedResponse struct {
	From      int           `json:"from"`
	Total     int           `json:"total"`
	Items     []domain.Item `json:"items"`
	Phase     string        `json:"phase"`
	Loading   bool          `json:"loading"`
	Exhausted bool          `json:"exhausted"`
	Error     string        `json:"error,omitempty"`
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
	}
	renderJSON(w, r, http.StatusOK, status)
}

// feedStateHandler returns items starting at "from" and the feed state.
// With "load=true" the next batch is requested first, same as a visibility trigger.
func (s *Server) feedStateHandler(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.currentFeed(r)
	if !ok {
		renderError(w, r, fmt.Errorf("not logged in"), http.StatusUnauthorized)
		return
	}

	from, err := fromParam(r)
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("load") == "true" {
		ctrl.OnVisibilityTrigger(r.Context())
	}

	st := ctrl.State()
	items := st.ItemsFrom(from)
	if items == nil {
		items = []domain.Item{}
	}
	renderJSON(w, r, http.StatusOK, feedResponse{
		From:      from,
		Total:     len(st.Items),
		Items:     items,
		Phase:     st.Phase().String(),
		Loading:   st.Loading,
		Exhausted: st.Exhausted,
		Error:     st.LastError,
	})
}

// currentFeed returns feed controller of the request's session
func (s *Server) currentFeed(r *http.Request) (*feed.Controller, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	sess, ok := s.sessions.Get(cookie.Value)
	if !ok {
		return nil, false
	}
	return sess.Feed()
}

// fromParam parses non-negative "from" query parameter, missing means 0
func fromParam(r *http.Request) (int, error) {
	fromStr := r.URL.Query().Get("from")
	if fromStr == "" {
		return 0, nil
	}
	from, err := strconv.Atoi(fromStr)
	if err != nil || from < 0 {
		return 0, fmt.Errorf("invalid from parameter %q", fromStr)
	}
	return from, nil
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderError sends error response as JSON
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, map[string]string{"error": errMsg})
}
