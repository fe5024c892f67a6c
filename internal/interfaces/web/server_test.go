package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"

	"github.com/example/onereserve/internal/application/usecases"
	"github.com/example/onereserve/internal/domain/booking"
	"github.com/example/onereserve/internal/infrastructure/memory"
)

const (
	svcID      = "svc-1"
	merchantID = "m-1"
)

// monday is the fixed "now" for every test; 2025-03-04 is the next day.
var monday = time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)

func init() { gin.SetMode(gin.TestMode) }

func newStore() *memory.Store {
	s := memory.New()
	s.AddMerchant(booking.Merchant{ID: merchantID, Name: "Cut & Co", ContactEmail: "owner@cut.test"})
	s.AddMerchant(booking.Merchant{ID: "m-2", Name: "Other"})
	s.AddService(booking.Service{ID: svcID, MerchantID: merchantID, Name: "Haircut", DurationMinutes: 30})
	s.AddService(booking.Service{ID: "svc-2", MerchantID: "m-2", Name: "Shave"})
	for _, hm := range []string{"10:00", "09:00"} {
		s.AddTemplate(booking.SlotTemplate{ServiceID: svcID, Weekday: time.Tuesday, StartTime: hm})
		s.AddTemplate(booking.SlotTemplate{ServiceID: "svc-2", Weekday: time.Tuesday, StartTime: hm})
	}
	return s
}

func newServer(store *memory.Store, templates booking.TemplateStore) *Server {
	if templates == nil {
		templates = store
	}
	slots := usecases.SlotResolver{Templates: templates, Location: time.UTC}
	guard := usecases.ReservationGuard{
		Directory: store,
		Slots:     slots,
		Ledger:    store,
		Location:  time.UTC,
		Now:       func() time.Time { return monday },
	}
	return &Server{
		Slots:        slots,
		Availability: usecases.AvailabilityCalculator{Slots: slots, Ledger: store, Location: time.UTC},
		Guard:        guard,
		Calendar:     usecases.CalendarExport{Reservations: store, Directory: store, Location: time.UTC},
		Merchant:     usecases.MerchantService{Accounts: store, Reservations: store, Guard: guard},
		Sessions: NewSessionManager(
			securecookie.GenerateRandomKey(32),
			securecookie.GenerateRandomKey(16),
			false,
		),
		Health:             store,
		Location:           time.UTC,
		DefaultHorizonDays: 30,
		StoreTimeout:       time.Second,
		RatePerMinute:      6000,
		RateBurst:          1000,
		Now:                func() time.Time { return monday },
	}
}

func do(t *testing.T, h http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, status, rec.Body.String())
	}
	got := decode[map[string]string](t, rec)["error"]
	if !strings.Contains(got, msg) {
		t.Fatalf("error = %q, want it to contain %q", got, msg)
	}
}

func TestDates(t *testing.T) {
	h := newServer(newStore(), nil).Routes()

	expectError(t, do(t, h, "GET", "/api/slots/dates", nil), http.StatusBadRequest, "Missing service_id")

	cases := []struct {
		days string
		want []string
	}{
		{"0", []string{}},
		{"2", []string{"2025-03-04"}},
		{"8", []string{"2025-03-04"}},
		{"9", []string{"2025-03-04", "2025-03-11"}},
		{"abc", []string{"2025-03-04", "2025-03-11", "2025-03-18", "2025-03-25", "2025-04-01"}},
	}
	for _, tc := range cases {
		rec := do(t, h, "GET", "/api/slots/dates?service_id="+svcID+"&days="+tc.days, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("days=%s status = %d", tc.days, rec.Code)
		}
		got := decode[map[string][]string](t, rec)["dates"]
		if strings.Join(got, ",") != strings.Join(tc.want, ",") || got == nil {
			t.Fatalf("days=%s dates = %v, want %v", tc.days, got, tc.want)
		}
	}
}

func TestDatesOverflowingDaysClamp(t *testing.T) {
	h := newServer(newStore(), nil).Routes()
	dates := func(days string) string {
		rec := do(t, h, "GET", "/api/slots/dates?service_id="+svcID+"&days="+days, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("days=%s status = %d", days, rec.Code)
		}
		return rec.Body.String()
	}

	full := dates("90")
	if n := strings.Count(full, "2025-"); n != 13 {
		t.Fatalf("90 days gave %d Tuesdays, want 13: %s", n, full)
	}
	for _, days := range []string{"91", "99999999999999999999", "+99999999999999999999"} {
		if got := dates(days); got != full {
			t.Errorf("days=%s = %s, want the 90 day horizon", days, got)
		}
	}
	for _, days := range []string{"-1", "-99999999999999999999"} {
		if got := dates(days); got != `{"dates":[]}` {
			t.Errorf("days=%s = %s, want the 1 day horizon", days, got)
		}
	}
}

func TestParseDays(t *testing.T) {
	cases := map[string]int{
		"":                      30,
		" 7 ":                   7,
		"abc":                   30,
		"1.5":                   30,
		"0":                     1,
		"500":                   90,
		"99999999999999999999":  90,
		"-99999999999999999999": 1,
	}
	for raw, want := range cases {
		if got := parseDays(raw, 30); got != want {
			t.Errorf("parseDays(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestDatesUnknownServiceIsEmpty(t *testing.T) {
	h := newServer(newStore(), nil).Routes()
	rec := do(t, h, "GET", "/api/slots/dates?service_id=nope", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != `{"dates":[]}` {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestTimesAndBooking(t *testing.T) {
	h := newServer(newStore(), nil).Routes()

	expectError(t, do(t, h, "GET", "/api/slots/times?service_id="+svcID, nil), http.StatusBadRequest, "Missing")
	expectError(t, do(t, h, "GET", "/api/slots/times?service_id="+svcID+"&date=2025-02-30", nil), http.StatusBadRequest, "Invalid date")

	rec := do(t, h, "GET", "/api/slots/times?service_id="+svcID+"&date=2025-03-04", nil)
	if got := decode[map[string][]string](t, rec)["times"]; strings.Join(got, ",") != "09:00,10:00" {
		t.Fatalf("times = %v", got)
	}

	body := map[string]string{
		"customer_name":  " Ada ",
		"customer_email": "ada@example.test",
		"service_id":     svcID,
		"date":           "2025-03-04",
		"time":           "09:00",
	}
	rec = do(t, h, "POST", "/api/book", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("book status = %d %s", rec.Code, rec.Body.String())
	}
	if id := decode[map[string]string](t, rec)["reservation_id"]; id == "" {
		t.Fatal("missing reservation_id")
	}

	expectError(t, do(t, h, "POST", "/api/book", body), http.StatusConflict, "Time already booked")

	rec = do(t, h, "GET", "/api/slots/times?service_id="+svcID+"&date=2025-03-04", nil)
	if got := decode[map[string][]string](t, rec)["times"]; strings.Join(got, ",") != "10:00" {
		t.Fatalf("times after booking = %v", got)
	}
}

func TestBookRejections(t *testing.T) {
	h := newServer(newStore(), nil).Routes()
	valid := func() map[string]string {
		return map[string]string{
			"customer_name":  "Ada",
			"customer_email": "ada@example.test",
			"service_id":     svcID,
			"date":           "2025-03-04",
			"time":           "09:00",
		}
	}

	expectError(t, do(t, h, "POST", "/api/book", "{not json"), http.StatusBadRequest, "Invalid payload")

	b := valid()
	b["customer_name"] = "  "
	expectError(t, do(t, h, "POST", "/api/book", b), http.StatusBadRequest, "customer_name")

	b = valid()
	b["time"] = "9:00"
	expectError(t, do(t, h, "POST", "/api/book", b), http.StatusBadRequest, "time")

	b = valid()
	b["service_id"] = "ghost"
	expectError(t, do(t, h, "POST", "/api/book", b), http.StatusNotFound, "Service not found")

	b = valid()
	b["time"] = "11:00"
	expectError(t, do(t, h, "POST", "/api/book", b), http.StatusConflict, "Slot not available")

	b = valid()
	b["date"] = "2025-03-05"
	expectError(t, do(t, h, "POST", "/api/book", b), http.StatusConflict, "Slot not available")
}

type brokenTemplates struct{}

func (brokenTemplates) ListTemplates(ctx context.Context, serviceID string, weekday *time.Weekday) ([]booking.SlotTemplate, error) {
	return nil, errors.New("connection reset by peer")
}

func TestStoreFailureNamesStep(t *testing.T) {
	h := newServer(newStore(), brokenTemplates{}).Routes()

	rec := do(t, h, "POST", "/api/book", map[string]string{
		"customer_name":  "Ada",
		"customer_email": "ada@example.test",
		"service_id":     svcID,
		"date":           "2025-03-04",
		"time":           "09:00",
	})
	expectError(t, rec, http.StatusInternalServerError, "DB error (slot lookup)")
	if strings.Contains(rec.Body.String(), "connection reset") {
		t.Fatalf("driver text leaked: %s", rec.Body.String())
	}

	expectError(t, do(t, h, "GET", "/api/slots/times?service_id="+svcID+"&date=2025-03-04", nil),
		http.StatusInternalServerError, "DB error (slots)")
	expectError(t, do(t, h, "GET", "/api/slots/dates?service_id="+svcID, nil),
		http.StatusInternalServerError, "DB error (slots)")
}

func TestICS(t *testing.T) {
	store := newStore()
	h := newServer(store, nil).Routes()
	rec := do(t, h, "POST", "/api/book", map[string]string{
		"customer_name": "Ada", "customer_email": "ada@example.test",
		"service_id": svcID, "date": "2025-03-04", "time": "10:00",
	})
	id := decode[map[string]string](t, rec)["reservation_id"]

	rec = do(t, h, "GET", "/api/booking/ics?id="+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Fatalf("content-type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "DTSTART:20250304T100000Z") {
		t.Fatalf("body = %s", rec.Body.String())
	}

	expectError(t, do(t, h, "GET", "/api/booking/ics", nil), http.StatusBadRequest, "Missing id")
	expectError(t, do(t, h, "GET", "/api/booking/ics?id=nope", nil), http.StatusNotFound, "Reservation not found")
}

func TestHealthz(t *testing.T) {
	h := newServer(newStore(), nil).Routes()
	rec := do(t, h, "GET", "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	s := newServer(newStore(), nil)
	s.RatePerMinute = 1
	s.RateBurst = 1
	h := s.Routes()

	if rec := do(t, h, "GET", "/api/slots/dates?service_id="+svcID, nil); rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}
	expectError(t, do(t, h, "GET", "/api/slots/dates?service_id="+svcID, nil), http.StatusTooManyRequests, "Rate limit")
}

func fromPeer(h http.Handler, peer, forwardedFor string) int {
	req := httptest.NewRequest("GET", "/api/slots/dates?service_id="+svcID, nil)
	req.RemoteAddr = peer
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	s := newServer(newStore(), nil)
	s.RatePerMinute = 1
	s.RateBurst = 1
	h := s.Routes()

	allowed := 0
	for i := range 20 {
		code := fromPeer(h, "203.0.113.9:4000", fmt.Sprintf("198.51.100.%d", i+1))
		switch code {
		case http.StatusOK:
			allowed++
		case http.StatusTooManyRequests:
		default:
			t.Fatalf("request %d status = %d", i, code)
		}
	}
	if allowed != 1 {
		t.Fatalf("allowed = %d of 20, want 1", allowed)
	}
}

func TestRateLimitHonoursTrustedProxy(t *testing.T) {
	s := newServer(newStore(), nil)
	s.RatePerMinute = 1
	s.RateBurst = 1
	s.TrustedProxies = []string{"10.0.0.0/8"}
	h := s.Routes()

	for _, client := range []string{"198.51.100.1", "198.51.100.2"} {
		if code := fromPeer(h, "10.1.2.3:4000", client); code != http.StatusOK {
			t.Fatalf("client %s status = %d", client, code)
		}
	}
	if code := fromPeer(h, "10.1.2.3:4000", "198.51.100.1"); code != http.StatusTooManyRequests {
		t.Fatalf("repeat client status = %d, want 429", code)
	}
}
