package server

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/umputun/scrollfeed/pkg/domain"
	"github.com/umputun/scrollfeed/pkg/feed"
)

const (
	sessionCookie = "scrollfeed_session"

	// template names
	templateLogin    = "login.html"
	templateFeed     = "feed.html"
	templateFragment = "feed-fragment"
)

// cardView is a single article card, Trigger marks the card observed for visibility
type cardView struct {
	domain.Item
	Index   int
	Trigger bool
	Next    int // "from" value requested when the card is revealed
}

// statusView drives the block below the articles
type statusView struct {
	Total     int
	Loading   bool
	Exhausted bool
	Error     string
	LoadMore  bool // feed goes on but no rendered card is observed
	OOB       bool
}

type feedPage struct {
	Version string
	Cards   []cardView
	Status  statusView
}

type loginPage struct {
	Version string
	Error   string
}

// indexHandler shows the feed for logged-in users and the login form otherwise
func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.currentFeed(r)
	if !ok {
		s.renderLogin(w, http.StatusOK, "")
		return
	}

	st := ctrl.State()
	data := feedPage{
		Version: s.version,
		Cards:   s.cards(st, 0),
		Status:  s.status(st, 0, false),
	}
	if err := s.templates.ExecuteTemplate(w, templateFeed, data); err != nil {
		s.respondWithError(w, http.StatusInternalServerError, "Failed to render page", err)
	}
}

// loginHandler passes credentials to the gate and starts a new session with a fresh feed
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	if !s.gate.Authenticate(r.FormValue("username"), r.FormValue("password")) {
		log.Printf("[INFO] login rejected for %q", r.FormValue("username"))
		s.renderLogin(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	id, _ := s.sessions.Login(r.Context())
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// logoutHandler discards the session and its feed
func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.Logout(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// moreHandler is requested when the observed last card is revealed.
// With peek=true nothing is loaded, used to poll for a fetch started by another request.
func (s *Server) moreHandler(w http.ResponseWriter, r *http.Request) {
	load := func(ctx context.Context, ctrl *feed.Controller) { ctrl.OnVisibilityTrigger(ctx) }
	if r.URL.Query().Get("peek") == "true" {
		load = func(context.Context, *feed.Controller) {}
	}
	s.loadAndRender(w, r, load)
}

// retryHandler repeats the failed load
func (s *Server) retryHandler(w http.ResponseWriter, r *http.Request) {
	s.loadAndRender(w, r, func(ctx context.Context, ctrl *feed.Controller) { ctrl.Retry(ctx) })
}

// loadAndRender runs load and writes cards appended after "from" with out-of-band status update
func (s *Server) loadAndRender(w http.ResponseWriter, r *http.Request, load func(ctx context.Context, ctrl *feed.Controller)) {
	ctrl, ok := s.currentFeed(r)
	if !ok {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	from, err := fromParam(r)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	load(r.Context(), ctrl)

	st := ctrl.State()
	data := feedPage{
		Version: s.version,
		Cards:   s.cards(st, from),
		Status:  s.status(st, from, true),
	}
	if err := s.templates.ExecuteTemplate(w, templateFragment, data); err != nil {
		s.respondWithError(w, http.StatusInternalServerError, "Failed to render articles", err)
	}
}

// cards makes views for items starting at from, the tail card gets the reveal trigger
func (s *Server) cards(st feed.State, from int) []cardView {
	items := st.ItemsFrom(from)
	if len(items) == 0 {
		return nil
	}
	target, bound := st.TailIndex()
	res := make([]cardView, 0, len(items))
	for i, item := range items {
		idx := from + i
		res = append(res, cardView{Item: item, Index: idx, Trigger: bound && target == idx, Next: len(st.Items)})
	}
	return res
}

// status makes the block below the articles. LoadMore is set when the feed goes on
// but no card rendered after from carries the trigger, e.g. after a page with no items.
func (s *Server) status(st feed.State, from int, oob bool) statusView {
	target, bound := st.TailIndex()
	return statusView{
		Total:     len(st.Items),
		Loading:   st.Loading,
		Exhausted: st.Exhausted,
		Error:     st.LastError,
		LoadMore:  !st.Loading && !st.Exhausted && st.LastError == "" && (!bound || target < from),
		OOB:       oob,
	}
}

func (s *Server) renderLogin(w http.ResponseWriter, code int, errMsg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := s.templates.ExecuteTemplate(w, templateLogin, loginPage{Version: s.version, Error: errMsg}); err != nil {
		log.Printf("[WARN] failed to render login page: %v", err)
	}
}

// respondWithError logs the error and sends plain text message to the client
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, err error) {
	if err != nil {
		log.Printf("[ERROR] %s: %v", message, err)
	}
	http.Error(w, message, code)
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
		// sanitize strips markup from source-provided text, output is safe to embed
		"sanitize": func(str string) template.HTML {
			return template.HTML(s.sanitizer.Sanitize(str)) //nolint:gosec // sanitized by bluemonday strict policy
		},
		"nextURL": func(path string, from int) string {
			return fmt.Sprintf("%s?from=%d", path, from)
		},
	}
}
