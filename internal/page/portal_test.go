package page_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ErraticFox/atov/internal/page"
	"github.com/ErraticFox/atov/internal/shift"
)

const vtoPage = `<html><body><ul>
<li class="offer-card" data-accept-token="tok-1">
  <span class="offer-date">Fri, Jan 16</span>
  <span class="offer-time">1:00am - 1:30am</span>
</li>
<li class="offer-card" data-accept-token="tok-2">
  <span class="offer-date">Sat, Jan 17</span>
  <span class="offer-time">3:00am - 5:00am</span>
</li>
</ul></body></html>`

func portalServer(t *testing.T) (*httptest.Server, *map[string]string) {
	t.Helper()
	seen := map[string]string{}
	mux := http.NewServeMux()
	mux.HandleFunc("/voluntary_time_off", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, vtoPage)
	})
	mux.HandleFunc("/voluntary_time_off/accept", func(w http.ResponseWriter, r *http.Request) {
		seen["accept"] = r.FormValue("accept_token")
		fmt.Fprint(w, `<div class="dialog"><button data-confirm-token="conf-9">Confirm</button></div>`)
	})
	mux.HandleFunc("/voluntary_time_off/accept/dialog", func(w http.ResponseWriter, r *http.Request) {
		if seen["confirm"] != "" {
			fmt.Fprint(w, `<div class="accept-result">Your time off was <b>successfully accepted</b>.</div>`)
			return
		}
		fmt.Fprint(w, `<div class="dialog"><button data-confirm-token="conf-9">Confirm</button></div>`)
	})
	mux.HandleFunc("/voluntary_time_off/confirm", func(w http.ResponseWriter, r *http.Request) {
		seen["confirm"] = r.FormValue("confirm_token")
		fmt.Fprint(w, `<div class="accept-result">Your time off was successfully accepted.</div>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestPortalOffers(t *testing.T) {
	srv, _ := portalServer(t)
	p := page.NewPortal(shift.PageVTO, srv.URL, "sess")

	offers, err := p.Offers(context.Background())
	if err != nil {
		t.Fatalf("Offers: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("got %d offers, want 2", len(offers))
	}
	want := shift.Offer{DateLabel: "Fri, Jan 16", TimeRangeLabel: "1:00am - 1:30am", AcceptHandle: "tok-1"}
	if offers[0] != want {
		t.Errorf("first offer = %+v, want %+v", offers[0], want)
	}
	if offers[1].AcceptHandle != "tok-2" {
		t.Errorf("second offer handle = %q, want tok-2", offers[1].AcceptHandle)
	}
}

func TestPortalAcceptFlow(t *testing.T) {
	srv, seen := portalServer(t)
	p := page.NewPortal(shift.PageVTO, srv.URL, "sess")
	ctx := context.Background()

	if err := p.Accept(ctx, "tok-1"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if (*seen)["accept"] != "tok-1" {
		t.Errorf("accept posted token %q, want tok-1", (*seen)["accept"])
	}

	visible, err := p.ConfirmationVisible(ctx)
	if err != nil || !visible {
		t.Fatalf("ConfirmationVisible = (%v, %v), want (true, nil)", visible, err)
	}
	if err := p.Confirm(ctx); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if (*seen)["confirm"] != "conf-9" {
		t.Errorf("confirm posted token %q, want conf-9", (*seen)["confirm"])
	}

	text, err := p.ResultText(ctx)
	if err != nil {
		t.Fatalf("ResultText: %v", err)
	}
	if !strings.Contains(strings.ToLower(text), "successfully accepted") {
		t.Errorf("ResultText = %q, want the success phrase", text)
	}
}

func TestPortalSessionPrompt(t *testing.T) {
	mux := http.NewServeMux()
	extended := false
	mux.HandleFunc("/voluntary_time_off", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><div data-session-prompt="pr-1">Still there?</div></html>`)
	})
	mux.HandleFunc("/session/extend", func(w http.ResponseWriter, r *http.Request) {
		extended = r.FormValue("prompt_token") == "pr-1"
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := page.NewPortal(shift.PageVTO, srv.URL, "")
	ctx := context.Background()
	if err := p.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	visible, err := p.SessionPromptVisible(ctx)
	if err != nil || !visible {
		t.Fatalf("SessionPromptVisible = (%v, %v), want (true, nil)", visible, err)
	}
	if err := p.DismissSessionPrompt(ctx); err != nil {
		t.Fatalf("DismissSessionPrompt: %v", err)
	}
	if !extended {
		t.Error("dismiss did not post the prompt token")
	}
	if visible, _ := p.SessionPromptVisible(ctx); visible {
		t.Error("prompt still visible after dismiss")
	}
}
