package acquisition

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nkraemer/slotgrab/internal/domain"
	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConfirmationCode(t *testing.T) {
	testCases := []struct {
		name   string
		url    string
		want   string
		wantOK bool
	}{
		{
			name:   "order url with secret and query",
			url:    "https://pretix.eu/Baeder/74/order/WMHPW/pddi5nhiweavfy3r/?thanks=1",
			want:   "WMHPW",
			wantOK: true,
		},
		{
			name:   "order url without trailing segments",
			url:    "https://pretix.eu/Baeder/74/order/ABC12",
			want:   "ABC12",
			wantOK: true,
		},
		{
			name:   "no order segment",
			url:    "https://pretix.eu/Baeder/74/checkout/customer/",
			wantOK: false,
		},
		{
			name:   "order is the last segment",
			url:    "https://pretix.eu/Baeder/74/order/",
			wantOK: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := confirmationCode(tc.url)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSlotSelector(t *testing.T) {
	eventAt := time.Date(2022, 3, 7, 19, 15, 0, 0, time.UTC)
	assert.Equal(t, "2022-03-07T19:15:00+00:00", slotSelector(eventAt))
}

func TestSiteAcquirer_UnknownVenueTypeFailsClosed(t *testing.T) {
	acquirer := NewSiteAcquirer(SiteCredentials{}, time.Second)
	venue := &domain.Venue{Type: domain.VenueType("ICE_SKATING"), BaseURL: "https://example.org"}

	_, err := acquirer.AcquireSlot(context.Background(), venue, &domain.Booking{})

	assert.ErrorIs(t, err, domain.ErrUnsupportedVenueType)
}

func TestSiteAcquirer_SwimmingCheckoutHappyPath(t *testing.T) {
	var voucherSeen, loginSeen bool

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /redeem", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		voucherSeen = r.PostFormValue("voucher") == "urbansportsclub"
	})
	mux.HandleFunc("POST /cart/add", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /checkout/customer/", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		loginSeen = r.PostFormValue("login-email") == "swimmer@example.org"
	})
	mux.HandleFunc("POST /checkout/confirm/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/order/WMHPW/secret/?thanks=1", http.StatusSeeOther)
	})
	mux.HandleFunc("GET /order/WMHPW/secret/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	acquirer := NewSiteAcquirer(SiteCredentials{
		Email:    "swimmer@example.org",
		Password: "secret",
		Voucher:  "urbansportsclub",
	}, 5*time.Second)

	venue := &domain.Venue{Type: domain.VenueTypeSwimming, BaseURL: server.URL}
	booking := &domain.Booking{EventAt: time.Date(2022, 3, 15, 19, 0, 0, 0, time.UTC)}

	code, err := acquirer.AcquireSlot(context.Background(), venue, booking)

	assert.NoError(t, err)
	assert.Equal(t, "WMHPW", code)
	assert.True(t, voucherSeen)
	assert.True(t, loginSeen)
}

func TestSiteAcquirer_BoulderingSkipsVoucher(t *testing.T) {
	var voucherCalled bool

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /redeem", func(w http.ResponseWriter, r *http.Request) {
		voucherCalled = true
	})
	mux.HandleFunc("POST /cart/add", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("POST /checkout/customer/", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("POST /checkout/confirm/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/order/BLDRX/secret/", http.StatusSeeOther)
	})
	mux.HandleFunc("GET /order/BLDRX/secret/", func(w http.ResponseWriter, r *http.Request) {})

	server := httptest.NewServer(mux)
	defer server.Close()

	acquirer := NewSiteAcquirer(SiteCredentials{Email: "a@b.c", Password: "p"}, 5*time.Second)
	venue := &domain.Venue{Type: domain.VenueTypeBouldering, BaseURL: server.URL}
	booking := &domain.Booking{EventAt: time.Date(2022, 4, 4, 18, 0, 0, 0, time.UTC)}

	code, err := acquirer.AcquireSlot(context.Background(), venue, booking)

	assert.NoError(t, err)
	assert.Equal(t, "BLDRX", code)
	assert.False(t, voucherCalled)
}

func TestSiteAcquirer_SlotGoneReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	acquirer := NewSiteAcquirer(SiteCredentials{}, 5*time.Second)
	venue := &domain.Venue{Type: domain.VenueTypeSwimming, BaseURL: server.URL}

	_, err := acquirer.AcquireSlot(context.Background(), venue, &domain.Booking{EventAt: time.Now()})

	var acqErr *Error
	assert.ErrorAs(t, err, &acqErr)
	assert.Contains(t, acqErr.Reason, "slot not available")
}
