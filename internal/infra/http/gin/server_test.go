package ginserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gin "github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"rentalspot/internal/app/commands"
	"rentalspot/internal/app/dto"
	availabilityapp "rentalspot/internal/app/handlers/availability"
	calendarapp "rentalspot/internal/app/handlers/calendar"
	holdapp "rentalspot/internal/app/handlers/holds"
	quoteapp "rentalspot/internal/app/handlers/quotes"
	"rentalspot/internal/app/middleware"
	appoutbox "rentalspot/internal/app/outbox"
	"rentalspot/internal/app/queries"
	"rentalspot/internal/app/services/calendars"
	"rentalspot/internal/app/services/holds"
	"rentalspot/internal/app/services/quoting"
	"rentalspot/internal/domain/availability"
	"rentalspot/internal/domain/pricing"
	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/money"
	"rentalspot/internal/infra/obs"
	"rentalspot/internal/infra/storage/memory"
)

const testCronToken = "cron-secret"

type testServer struct {
	router *gin.Engine
	box    *memory.Outbox
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rules := memory.NewRuleRepository()
	rules.SaveConfig(property.Config{
		ID:                    "villa-1",
		Currency:              "EUR",
		BasePricePerNight:     money.Must("100", "EUR"),
		BaseOccupancy:         2,
		ExtraGuestFeePerNight: money.Must("10", "EUR"),
		MaxGuests:             4,
		CleaningFee:           money.Must("30", "EUR"),
		MinimumStay:           1,
		Weekend:               property.WeekendPricing{Multiplier: decimal.NewFromInt(1)},
	})
	box := memory.NewOutbox()
	sink := appoutbox.Sink{Box: box, Encoder: appoutbox.JSONEventEncoder{}, Logger: logger}
	ledger := &availability.Ledger{Store: memory.NewAvailabilityStore(), Events: sink}
	engine := &quoting.Engine{Rules: rules, Availability: ledger, Builder: pricing.NewBuilder(pricing.DefaultOptions())}
	manager := &holds.Manager{Ledger: ledger, Quotes: engine, Events: sink, Logger: logger}
	rebuilder := &calendars.Rebuilder{Rules: rules, Properties: rules, Calendars: memory.NewCalendarRepository(), Builder: pricing.NewBuilder(pricing.DefaultOptions())}

	cmdBus := commands.NewInMemoryBus()
	commands.RegisterHandler(cmdBus, holdapp.PlaceHoldCommand{}.Key(), &holdapp.PlaceHoldHandler{Holds: manager})
	commands.RegisterHandler(cmdBus, holdapp.ReleaseHoldCommand{}.Key(), &holdapp.ReleaseHoldHandler{Holds: manager})
	commands.RegisterHandler(cmdBus, holdapp.SweepHoldsCommand{}.Key(), &holdapp.SweepHoldsHandler{Holds: manager})
	commands.RegisterHandler(cmdBus, calendarapp.RebuildAllCalendarsCommand{}.Key(), &calendarapp.RebuildAllCalendarsHandler{Calendars: rebuilder})
	qBus := queries.NewInMemoryBus()
	queries.RegisterHandler(qBus, quoteapp.GetQuoteQuery{}.Key(), &quoteapp.GetQuoteHandler{Quotes: engine})
	queries.RegisterHandler(qBus, availabilityapp.GetMonthQuery{}.Key(), &availabilityapp.GetMonthHandler{Ledger: ledger})

	cmds := middleware.ChainCommands(cmdBus,
		middleware.Authorization(middleware.TokenAuthorizer{Token: testCronToken}),
		middleware.Validation(),
		middleware.Idempotency(memory.NewIdempotencyStore(0), nil, logger),
		middleware.OutboxFlush(box, logger),
	)
	qs := middleware.ChainQueries(qBus, middleware.QueryValidation())

	router := NewRouter(obs.Middleware{Logger: logger}, obs.HealthHandlers{}, Handlers{
		Quote:        QuoteHandler{Queries: qs},
		Availability: AvailabilityHandler{Queries: qs},
		Hold:         HoldHandler{Commands: cmds},
		Internal:     InternalHandler{Commands: cmds},
	})
	return testServer{router: router, box: box}
}

func (s testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestQuoteEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/api/v1/properties/villa-1/quote?check_in=2030-06-03&check_out=2030-06-05&guests=2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	var q dto.Quote
	if err := json.Unmarshal(rec.Body.Bytes(), &q); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if q.Nights != 2 || q.Total != "230.00" || q.Currency != "EUR" {
		t.Errorf("quote: got nights=%d total=%s currency=%s", q.Nights, q.Total, q.Currency)
	}
	if len(q.PriceSources) != 2 || q.PriceSources[0] != "base" || q.PriceSources[1] != "base" {
		t.Errorf("price sources: got %v, want [base base]", q.PriceSources)
	}
}

func TestQuoteStatusMapping(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name string
		path string
		want int
	}{
		{"unknown property", "/api/v1/properties/nowhere/quote?check_in=2030-06-03&check_out=2030-06-05", http.StatusNotFound},
		{"too many guests", "/api/v1/properties/villa-1/quote?check_in=2030-06-03&check_out=2030-06-05&guests=9", http.StatusUnprocessableEntity},
		{"bad date", "/api/v1/properties/villa-1/quote?check_in=06/03/2030&check_out=2030-06-05", http.StatusBadRequest},
		{"inverted range", "/api/v1/properties/villa-1/quote?check_in=2030-06-05&check_out=2030-06-03", http.StatusBadRequest},
		{"guests not a number", "/api/v1/properties/villa-1/quote?check_in=2030-06-03&check_out=2030-06-05&guests=two", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(http.MethodGet, tc.path, "", nil)
			if rec.Code != tc.want {
				t.Errorf("status: got %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestPlaceHoldConflictAndReplay(t *testing.T) {
	s := newTestServer(t)
	body := `{"check_in":"2030-06-03","check_out":"2030-06-06","booking_ref":"ref-a","contact":"a@example.com"}`
	key := map[string]string{"Idempotency-Key": "place-1"}

	first := s.do(http.MethodPost, "/api/v1/properties/villa-1/holds", body, key)
	if first.Code != http.StatusCreated {
		t.Fatalf("place: got %d, want 201 (%s)", first.Code, first.Body.String())
	}
	var hold dto.Hold
	if err := json.Unmarshal(first.Body.Bytes(), &hold); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(hold.HoldID, "ref-a@2030-06-03..2030-06-06~") {
		t.Errorf("hold id: got %s", hold.HoldID)
	}
	if len(s.box.Pending()) == 0 {
		t.Errorf("expected hold event in outbox")
	}

	replay := s.do(http.MethodPost, "/api/v1/properties/villa-1/holds", body, key)
	if replay.Code != http.StatusCreated || replay.Body.String() != first.Body.String() {
		t.Errorf("replay: got %d %s, want %s", replay.Code, replay.Body.String(), first.Body.String())
	}

	other := `{"check_in":"2030-06-05","check_out":"2030-06-08","booking_ref":"ref-b"}`
	conflict := s.do(http.MethodPost, "/api/v1/properties/villa-1/holds", other, nil)
	if conflict.Code != http.StatusConflict {
		t.Fatalf("conflict: got %d, want 409 (%s)", conflict.Code, conflict.Body.String())
	}
	var body409 struct {
		Error  string   `json:"error"`
		Nights []string `json:"nights"`
	}
	_ = json.Unmarshal(conflict.Body.Bytes(), &body409)
	if body409.Error != "conflict" || len(body409.Nights) != 1 || body409.Nights[0] != "2030-06-05" {
		t.Errorf("conflict body: got %+v", body409)
	}

	missingRef := s.do(http.MethodPost, "/api/v1/properties/villa-1/holds", `{"check_in":"2030-07-01","check_out":"2030-07-02"}`, nil)
	if missingRef.Code != http.StatusBadRequest {
		t.Errorf("missing ref: got %d, want 400", missingRef.Code)
	}
}

func TestReleaseHoldFreesNights(t *testing.T) {
	s := newTestServer(t)
	body := `{"check_in":"2030-06-03","check_out":"2030-06-05","booking_ref":"ref-a"}`
	placed := s.do(http.MethodPost, "/api/v1/properties/villa-1/holds", body, nil)
	if placed.Code != http.StatusCreated {
		t.Fatalf("place: got %d", placed.Code)
	}
	var hold dto.Hold
	if err := json.Unmarshal(placed.Body.Bytes(), &hold); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec := s.do(http.MethodDelete, "/api/v1/properties/villa-1/holds/ref-a@2030-06-03..2030-06-05", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("id without placement: got %d, want 400", rec.Code)
	}
	rec := s.do(http.MethodDelete, "/api/v1/properties/villa-1/holds/"+hold.HoldID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("release: got %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	other := `{"check_in":"2030-06-03","check_out":"2030-06-05","booking_ref":"ref-b"}`
	if rec := s.do(http.MethodPost, "/api/v1/properties/villa-1/holds", other, nil); rec.Code != http.StatusCreated {
		t.Errorf("place after release: got %d, want 201", rec.Code)
	}
}

func TestInternalSweepRequiresToken(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(http.MethodPost, "/api/v1/internal/holds/sweep", "", nil); rec.Code != http.StatusForbidden {
		t.Errorf("no token: got %d, want 403", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/api/v1/internal/holds/sweep", "", map[string]string{cronTokenHeader: "wrong"}); rec.Code != http.StatusForbidden {
		t.Errorf("wrong token: got %d, want 403", rec.Code)
	}
	rec := s.do(http.MethodPost, "/api/v1/internal/holds/sweep", "", map[string]string{cronTokenHeader: testCronToken})
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: got %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
}

func TestInternalRebuildAllCalendars(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(http.MethodPost, "/api/v1/internal/calendar/rebuild?months=2", "", nil); rec.Code != http.StatusForbidden {
		t.Errorf("no token: got %d, want 403", rec.Code)
	}
	token := map[string]string{cronTokenHeader: testCronToken}
	if rec := s.do(http.MethodPost, "/api/v1/internal/calendar/rebuild?months=many", "", token); rec.Code != http.StatusBadRequest {
		t.Errorf("bad months: got %d, want 400", rec.Code)
	}
	rec := s.do(http.MethodPost, "/api/v1/internal/calendar/rebuild?from=2030-06&months=2", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("rebuild: got %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	var result dto.RebuildAllResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Properties) != 1 || result.Properties[0].PropertyID != "villa-1" {
		t.Fatalf("properties: got %+v", result.Properties)
	}
	if months := result.Properties[0].Months; len(months) != 2 || months[0] != "2030-06" || months[1] != "2030-07" {
		t.Errorf("months: got %v", months)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/livez", "/readyz"} {
		if rec := s.do(http.MethodGet, path, "", nil); rec.Code != http.StatusOK {
			t.Errorf("%s: got %d, want 200", path, rec.Code)
		}
	}
}
