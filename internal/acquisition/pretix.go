package acquisition

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/nkraemer/slotgrab/internal/domain"
)

// SiteCredentials is the login and voucher used against the ticketing site.
// They belong to the acquisition configuration and are handed into each
// attempt's session, never held in shared state.
type SiteCredentials struct {
	Email    string
	Password string
	Voucher  string
}

// SiteAcquirer completes a pretix-style checkout over plain HTTP. Each
// attempt gets its own session (client + cookie jar), so concurrent attempts
// cannot observe each other's login or cart state.
type SiteAcquirer struct {
	creds   SiteCredentials
	timeout time.Duration
}

func NewSiteAcquirer(creds SiteCredentials, timeout time.Duration) *SiteAcquirer {
	return &SiteAcquirer{creds: creds, timeout: timeout}
}

func (a *SiteAcquirer) AcquireSlot(ctx context.Context, venue *domain.Venue, booking *domain.Booking) (string, error) {
	session, err := a.newSession()
	if err != nil {
		return "", &Error{Reason: "create site session", Err: err}
	}

	switch venue.Type {
	case domain.VenueTypeSwimming:
		return a.checkout(ctx, session, venue, booking, true)
	case domain.VenueTypeBouldering:
		// Bouldering gyms sell plain sessions: no voucher step.
		return a.checkout(ctx, session, venue, booking, false)
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedVenueType, venue.Type)
	}
}

// session is the per-attempt context object: one client, one cookie jar.
type session struct {
	client *http.Client
}

func (a *SiteAcquirer) newSession() (*session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &session{client: &http.Client{Jar: jar, Timeout: a.timeout}}, nil
}

// checkout walks the site's purchase sequence: pick the slot for the event
// instant, optionally redeem the voucher, add to cart, log in, confirm. The
// confirmation code comes out of the final order URL.
func (a *SiteAcquirer) checkout(ctx context.Context, s *session, venue *domain.Venue, booking *domain.Booking, withVoucher bool) (string, error) {
	base, err := url.Parse(venue.BaseURL)
	if err != nil {
		return "", &Error{Reason: "parse venue url", Err: err}
	}

	if err := s.selectSlot(ctx, base, booking.EventAt); err != nil {
		return "", err
	}
	if withVoucher {
		if err := s.postForm(ctx, base, "/redeem", url.Values{"voucher": {a.creds.Voucher}}, "redeem voucher"); err != nil {
			return "", err
		}
	}
	if err := s.postForm(ctx, base, "/cart/add", url.Values{
		"subevent": {slotSelector(booking.EventAt)},
	}, "add slot to cart"); err != nil {
		return "", err
	}
	if err := s.postForm(ctx, base, "/checkout/customer/", url.Values{
		"login-email":    {a.creds.Email},
		"login-password": {a.creds.Password},
	}, "site login"); err != nil {
		return "", err
	}

	finalURL, err := s.confirm(ctx, base)
	if err != nil {
		return "", err
	}

	code, ok := confirmationCode(finalURL)
	if !ok {
		return "", &Error{Reason: fmt.Sprintf("no order code in checkout url %s", finalURL)}
	}
	return code, nil
}

func (s *session) selectSlot(ctx context.Context, base *url.URL, eventAt time.Time) error {
	slotURL := *base
	slotURL.RawQuery = url.Values{"date": {slotSelector(eventAt)}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, slotURL.String(), nil)
	if err != nil {
		return &Error{Reason: "build slot request", Err: err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return &Error{Reason: "load event page", Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &Error{Reason: fmt.Sprintf("slot not available, status %d", resp.StatusCode)}
	}
	return nil
}

func (s *session) postForm(ctx context.Context, base *url.URL, path string, form url.Values, step string) error {
	stepURL := base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, stepURL.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return &Error{Reason: step, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return &Error{Reason: step, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return &Error{Reason: fmt.Sprintf("%s: status %d", step, resp.StatusCode)}
	}
	return nil
}

func (s *session) confirm(ctx context.Context, base *url.URL) (string, error) {
	confirmURL := base.JoinPath("/checkout/confirm/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, confirmURL.String(), strings.NewReader(url.Values{"confirm": {"1"}}.Encode()))
	if err != nil {
		return "", &Error{Reason: "confirm checkout", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &Error{Reason: "confirm checkout", Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return "", &Error{Reason: fmt.Sprintf("confirm checkout: status %d", resp.StatusCode)}
	}
	// The site redirects to /<organizer>/<event>/order/<CODE>/<secret>/ on
	// success; the client followed the redirect, so the final URL has it.
	return resp.Request.URL.String(), nil
}

// slotSelector renders the instant the way the site keys its slot elements.
func slotSelector(eventAt time.Time) string {
	return eventAt.UTC().Format("2006-01-02T15:04:05+00:00")
}

// confirmationCode extracts the order code from the final checkout URL,
// the path segment following "order".
func confirmationCode(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg == "order" && i+1 < len(segments) && segments[i+1] != "" {
			return segments[i+1], true
		}
	}
	return "", false
}

var _ Acquirer = (*SiteAcquirer)(nil)
