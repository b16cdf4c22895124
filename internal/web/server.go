// Package web is the control surface where targets are configured and runs
// are started, stopped, and watched.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ErraticFox/atov/internal/attempts"
	"github.com/ErraticFox/atov/internal/auth"
	"github.com/ErraticFox/atov/internal/engine"
	"github.com/ErraticFox/atov/internal/shift"
	"github.com/ErraticFox/atov/internal/store"
)

//go:embed templates/*.html static/*
var fs embed.FS

// History is the slice of the attempt repo the UI reads.
type History interface {
	Recent(ctx context.Context, pt shift.PageType, limit int) ([]attempts.Attempt, error)
}

type Server struct {
	Auth    *auth.Store
	Store   store.Store
	Engines map[shift.PageType]*engine.Engine
	History History // nil when no database is configured
}

type panel struct {
	PageType shift.PageType
	Label    string
	Status   engine.Status
	Attempts []attempts.Attempt
}

type tmplData struct {
	Title  string
	User   string
	Flash  string
	Panels []panel
}

var pageLabels = []struct {
	PT    shift.PageType
	Label string
}{
	{shift.PageVTO, "Voluntary Time Off"},
	{shift.PageVET, "Shift Pickup"},
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/static/", http.FileServer(http.FS(fs)))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)

	mux.Handle("/", s.Auth.RequireAuth(http.HandlerFunc(s.handleHome)))
	mux.Handle("/targets/add", s.Auth.RequireAuth(http.HandlerFunc(s.handleTargetAdd)))
	mux.Handle("/targets/remove", s.Auth.RequireAuth(http.HandlerFunc(s.handleTargetRemove)))
	mux.Handle("/start", s.Auth.RequireAuth(http.HandlerFunc(s.handleStart)))
	mux.Handle("/stop", s.Auth.RequireAuth(http.HandlerFunc(s.handleStop)))
	mux.Handle("/refresh", s.Auth.RequireAuth(http.HandlerFunc(s.handleRefresh)))

	return mux
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	data := tmplData{Title: "Shift Watch", User: user, Flash: r.URL.Query().Get("flash")}

	for _, pl := range pageLabels {
		p := panel{PageType: pl.PT, Label: pl.Label}
		if e, ok := s.Engines[pl.PT]; ok {
			st, err := e.Status(r.Context())
			if err != nil {
				log.Printf("web: status %s: %v", pl.PT, err)
			}
			p.Status = st
		}
		if s.History != nil {
			recent, err := s.History.Recent(r.Context(), pl.PT, 10)
			if err != nil {
				log.Printf("web: history %s: %v", pl.PT, err)
			}
			p.Attempts = recent
		}
		data.Panels = append(data.Panels, p)
	}

	s.render(w, "templates/home.html", data)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, "templates/login.html", tmplData{Title: "Login"})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		username := strings.TrimSpace(r.FormValue("username"))
		if err := s.Auth.Authenticate(r.Context(), username, r.FormValue("password")); err != nil {
			s.render(w, "templates/login.html", tmplData{Title: "Login", Flash: "Invalid username/password"})
			return
		}
		if err := s.Auth.SetSession(w, r, username); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleTargetAdd(w http.ResponseWriter, r *http.Request) {
	pt, ok := s.postPageType(w, r)
	if !ok {
		return
	}

	st, _, err := s.Store.Get(r.Context(), pt)
	if err != nil {
		s.flash(w, r, err.Error())
		return
	}

	// Shift bounds ride along with every target form.
	shiftTime := shift.ShiftTime{
		Start: strings.TrimSpace(r.FormValue("shift_start")),
		End:   strings.TrimSpace(r.FormValue("shift_end")),
	}
	if err := shiftTime.Validate(); err != nil {
		s.flash(w, r, "Shift time: "+err.Error())
		return
	}

	date := strings.TrimSpace(r.FormValue("date"))
	var target shift.Target
	switch r.FormValue("mode") {
	case "full":
		target = shift.FullShiftTarget(date, shiftTime)
	case "any":
		minDur, _ := strconv.ParseFloat(r.FormValue("min_duration"), 64)
		target = shift.Target{Date: date, AcceptAny: true, MinDuration: minDur}
	default:
		target = shift.Target{
			Date:      date,
			StartTime: strings.TrimSpace(r.FormValue("start_time")),
			EndTime:   strings.TrimSpace(r.FormValue("end_time")),
		}
	}
	if err := target.Validate(); err != nil {
		s.flash(w, r, err.Error())
		return
	}

	st.Targets = append(st.Targets, target)
	st.Shift = shiftTime
	if err := s.Store.Set(r.Context(), pt, st); err != nil {
		s.flash(w, r, err.Error())
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleTargetRemove(w http.ResponseWriter, r *http.Request) {
	pt, ok := s.postPageType(w, r)
	if !ok {
		return
	}
	idx, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		http.Error(w, "bad index", http.StatusBadRequest)
		return
	}

	st, _, err := s.Store.Get(r.Context(), pt)
	if err != nil {
		s.flash(w, r, err.Error())
		return
	}
	if idx < 0 || idx >= len(st.Targets) {
		s.flash(w, r, "Target already removed")
		return
	}
	st.Targets = append(st.Targets[:idx:idx], st.Targets[idx+1:]...)
	if err := s.Store.Set(r.Context(), pt, st); err != nil {
		s.flash(w, r, err.Error())
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	pt, ok := s.postPageType(w, r)
	if !ok {
		return
	}
	e, ok := s.Engines[pt]
	if !ok {
		s.flash(w, r, "Automation engine unavailable for this page")
		return
	}

	st, _, err := s.Store.Get(r.Context(), pt)
	if err != nil {
		s.flash(w, r, err.Error())
		return
	}
	cfg := engine.StartConfig{Targets: st.Targets, Shift: st.Shift}
	if err := e.StartRun(r.Context(), cfg); err != nil {
		s.flash(w, r, err.Error())
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	pt, ok := s.postPageType(w, r)
	if !ok {
		return
	}
	e, ok := s.Engines[pt]
	if !ok {
		s.flash(w, r, "Automation engine unavailable for this page")
		return
	}
	if err := e.StopRun(r.Context()); err != nil {
		s.flash(w, r, err.Error())
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	pt, ok := s.postPageType(w, r)
	if !ok {
		return
	}
	e, ok := s.Engines[pt]
	if !ok {
		s.flash(w, r, "Automation engine unavailable for this page")
		return
	}
	if err := e.RefreshNow(r.Context()); err != nil {
		s.flash(w, r, err.Error())
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) postPageType(w http.ResponseWriter, r *http.Request) (shift.PageType, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return "", false
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	pt, err := shift.ParsePageType(r.FormValue("page_type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return pt, true
}

func (s *Server) flash(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/?flash="+template.URLQueryEscaper(msg), http.StatusFound)
}

func (s *Server) render(w http.ResponseWriter, name string, data tmplData) {
	t, err := template.ParseFS(fs, "templates/base.html", name)
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
	}
}

func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	fmt.Printf("listening on %s\n", addr)
	return srv.ListenAndServe()
}
