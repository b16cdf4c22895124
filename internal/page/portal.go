package page

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ErraticFox/atov/internal/shift"
)

// Paths served by the portal for each page type.
var pagePaths = map[shift.PageType]string{
	shift.PageVTO: "/voluntary_time_off",
	shift.PageVET: "/shifts/schedule/find",
}

// Offer cards and dialog fragments as the portal renders them. All page
// structure knowledge lives in these patterns; keeping them current as the
// portal changes is explicitly out of scope for the rest of the system.
var (
	offerCardRe     = regexp.MustCompile(`(?s)<li[^>]*class="[^"]*offer-card[^"]*"[^>]*data-accept-token="([^"]+)"[^>]*>(.*?)</li>`)
	offerDateRe     = regexp.MustCompile(`(?s)<span[^>]*class="[^"]*offer-date[^"]*"[^>]*>([^<]+)</span>`)
	offerTimeRe     = regexp.MustCompile(`(?s)<span[^>]*class="[^"]*offer-time[^"]*"[^>]*>([^<]+)</span>`)
	confirmTokenRe  = regexp.MustCompile(`data-confirm-token="([^"]+)"`)
	resultTextRe    = regexp.MustCompile(`(?s)<div[^>]*class="[^"]*accept-result[^"]*"[^>]*>(.*?)</div>`)
	sessionPromptRe = regexp.MustCompile(`data-session-prompt="([^"]+)"`)
	tagRe           = regexp.MustCompile(`<[^>]+>`)
)

// Portal talks to the scheduling site over HTTP for a single page type,
// holding the last rendered page as its snapshot the way a loaded tab would.
type Portal struct {
	pageType shift.PageType
	baseURL  string
	session  string // portal session cookie value
	hc       *http.Client

	mu           sync.Mutex
	body         string // current page snapshot
	confirmToken string
	dialog       string // confirmation dialog snapshot, refreshed per query
}

func NewPortal(pageType shift.PageType, baseURL, sessionCookie string) *Portal {
	return &Portal{
		pageType: pageType,
		baseURL:  strings.TrimRight(baseURL, "/"),
		session:  sessionCookie,
		hc:       &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *Portal) Offers(ctx context.Context) ([]shift.Offer, error) {
	body, err := p.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var offers []shift.Offer
	for _, card := range offerCardRe.FindAllStringSubmatch(body, -1) {
		token, inner := card[1], card[2]
		o := shift.Offer{AcceptHandle: token}
		if m := offerDateRe.FindStringSubmatch(inner); m != nil {
			o.DateLabel = strings.TrimSpace(m[1])
		}
		if m := offerTimeRe.FindStringSubmatch(inner); m != nil {
			o.TimeRangeLabel = strings.TrimSpace(m[1])
		}
		offers = append(offers, o)
	}
	return offers, nil
}

func (p *Portal) Reload(ctx context.Context) error {
	body, _, err := p.fetch(ctx, http.MethodGet, pagePaths[p.pageType], nil)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.body = body
	p.confirmToken = ""
	p.dialog = ""
	p.mu.Unlock()
	return nil
}

func (p *Portal) Accept(ctx context.Context, handle string) error {
	form := url.Values{"accept_token": {handle}}
	dialog, status, err := p.fetch(ctx, http.MethodPost, pagePaths[p.pageType]+"/accept", form)
	if err != nil {
		return err
	}
	if status >= 400 {
		return fmt.Errorf("portal: accept rejected (status=%d)", status)
	}
	p.mu.Lock()
	p.dialog = dialog
	p.mu.Unlock()
	return nil
}

func (p *Portal) ConfirmationVisible(ctx context.Context) (bool, error) {
	dialog, err := p.refreshDialog(ctx)
	if err != nil {
		return false, err
	}
	m := confirmTokenRe.FindStringSubmatch(dialog)
	if m == nil {
		return false, nil
	}
	p.mu.Lock()
	p.confirmToken = m[1]
	p.mu.Unlock()
	return true, nil
}

func (p *Portal) Confirm(ctx context.Context) error {
	p.mu.Lock()
	token := p.confirmToken
	p.mu.Unlock()
	if token == "" {
		return fmt.Errorf("portal: no confirmation control present")
	}
	dialog, status, err := p.fetch(ctx, http.MethodPost, pagePaths[p.pageType]+"/confirm", url.Values{"confirm_token": {token}})
	if err != nil {
		return err
	}
	if status >= 400 {
		return fmt.Errorf("portal: confirm rejected (status=%d)", status)
	}
	p.mu.Lock()
	p.dialog = dialog
	p.mu.Unlock()
	return nil
}

func (p *Portal) ResultText(ctx context.Context) (string, error) {
	dialog, err := p.refreshDialog(ctx)
	if err != nil {
		return "", err
	}
	m := resultTextRe.FindStringSubmatch(dialog)
	if m == nil {
		return "", nil
	}
	return strings.TrimSpace(tagRe.ReplaceAllString(m[1], " ")), nil
}

func (p *Portal) SessionPromptVisible(ctx context.Context) (bool, error) {
	p.mu.Lock()
	body := p.body
	p.mu.Unlock()
	return sessionPromptRe.MatchString(body), nil
}

func (p *Portal) DismissSessionPrompt(ctx context.Context) error {
	p.mu.Lock()
	m := sessionPromptRe.FindStringSubmatch(p.body)
	p.mu.Unlock()
	if m == nil {
		return nil
	}
	_, status, err := p.fetch(ctx, http.MethodPost, "/session/extend", url.Values{"prompt_token": {m[1]}})
	if err != nil {
		return err
	}
	if status >= 400 {
		return fmt.Errorf("portal: session extend rejected (status=%d)", status)
	}
	p.mu.Lock()
	p.body = sessionPromptRe.ReplaceAllString(p.body, "")
	p.mu.Unlock()
	return nil
}

// snapshot returns the current page body, loading it on first use.
func (p *Portal) snapshot(ctx context.Context) (string, error) {
	p.mu.Lock()
	body := p.body
	p.mu.Unlock()
	if body != "" {
		return body, nil
	}
	if err := p.Reload(ctx); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.body, nil
}

// refreshDialog re-fetches the confirmation dialog fragment so polling sees
// the portal's current state rather than a stale snapshot.
func (p *Portal) refreshDialog(ctx context.Context) (string, error) {
	dialog, status, err := p.fetch(ctx, http.MethodGet, pagePaths[p.pageType]+"/accept/dialog", nil)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		// No dialog open.
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.dialog, nil
	}
	p.mu.Lock()
	p.dialog = dialog
	p.mu.Unlock()
	return dialog, nil
}

func (p *Portal) fetch(ctx context.Context, method, path string, form url.Values) (string, int, error) {
	var body io.Reader
	if form != nil {
		body = bytes.NewBufferString(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return "", 0, err
	}
	req.Header.Add("user-agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36")
	req.Header.Add("cache-control", "no-cache")
	if form != nil {
		req.Header.Add("content-type", "application/x-www-form-urlencoded")
	}
	if p.session != "" {
		req.AddCookie(&http.Cookie{Name: "atoz-session", Value: p.session})
	}

	res, err := p.hc.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("portal: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return "", res.StatusCode, err
	}
	return string(b), res.StatusCode, nil
}
