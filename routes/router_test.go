package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"contesthub/config"
	"contesthub/logger"
	"contesthub/models"
	"contesthub/payments/stub"
	"contesthub/realtime"
	"contesthub/services"
	"contesthub/testutil"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	t        *testing.T
	db       *gorm.DB
	router   *gin.Engine
	stub     *stub.Provider
	tokens   *services.TokenService
	identity *services.IdentityVerifier
	svc      *services.Services
	hub      *realtime.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		ClientURL:       "http://client.test",
		PublicURL:       "http://api.test",
		PaymentCurrency: "bdt",
		MinEntryFee:     decimal.NewFromInt(100),
		PopularLimit:    5,
		CacheTTL:        time.Minute,
		RateLimit:       config.DefaultRateLimitConfig,
	}
	db := testutil.NewDB(t)
	log := logger.Discard()
	provider := stub.New("test-secret", cfg.PublicURL)
	hub := realtime.NewHub(log)
	svc := services.New(services.Deps{
		DB:       db,
		Notifier: hub,
		Payments: provider,
		Log:      log,
		Settings: services.SettingsFromConfig(cfg),
	})
	tokens := services.NewTokenService([]byte("jwt-secret"), time.Hour, nil)
	identity := services.NewIdentityVerifier("identity-secret", 5*time.Minute, nil)

	return &testEnv{
		t:        t,
		db:       db,
		stub:     provider,
		tokens:   tokens,
		identity: identity,
		svc:      svc,
		hub:      hub,
		router: NewRouter(Deps{
			Config:   cfg,
			Services: svc,
			Tokens:   tokens,
			Identity: identity,
			Hub:      hub,
			Stub:     provider,
			Log:      log,
		}),
	}
}

func (e *testEnv) token(email string) string {
	e.t.Helper()
	signed, _, err := e.tokens.Issue(email)
	require.NoError(e.t, err)
	return signed
}

// tokenRequest builds a /jwt body carrying a fresh identity proof for email
func (e *testEnv) tokenRequest(email string) map[string]any {
	now := time.Now()
	return map[string]any{"email": email, "issuedAt": now.Unix(), "signature": e.identity.Sign(email, now)}
}

func (e *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	return decode[map[string]any](t, w)["message"].(string)
}

func contestBody(fee any) map[string]any {
	return map[string]any{
		"name":            "Logo Sprint",
		"image":           "https://img.test/logo.png",
		"description":     "Design a logo",
		"entryFee":        fee,
		"prizeMoney":      5000,
		"taskInstruction": "Share a link to your design",
		"contestType":     "Design",
		"deadline":        "2030-06-01",
		"creatorName":     "Casey",
	}
}

func TestContestLifecycleOverHTTP(t *testing.T) {
	e := newTestEnv(t)
	testutil.SeedUser(t, e.db, "admin@test.dev", models.RoleAdmin)
	creator, admin, ann := e.token("creator@test.dev"), e.token("admin@test.dev"), e.token("ann@test.dev")

	w := e.do(http.MethodPost, "/api/contests", contestBody(150), "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/api/contests", contestBody(50), creator)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Entry fee must be a number ≥ ৳100", message(t, w))

	w = e.do(http.MethodPost, "/api/contests", contestBody("lots"), creator)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Entry fee must be a number ≥ ৳100", message(t, w))

	w = e.do(http.MethodPost, "/api/contests", contestBody("150"), creator)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	contest := decode[models.Contest](t, w)
	assert.Equal(t, models.ContestPending, contest.Status)
	assert.Equal(t, "creator@test.dev", contest.CreatorEmail)

	w = e.do(http.MethodGet, "/all-contests", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.Contest](t, w))

	w = e.do(http.MethodPatch, "/api/contests/"+contest.ID, map[string]any{"name": "Logo Marathon"}, ann)
	require.Equal(t, http.StatusForbidden, w.Code)
	w = e.do(http.MethodPatch, "/api/contests/"+contest.ID, map[string]any{"name": "Logo Marathon"}, creator)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logo Marathon", decode[models.Contest](t, w).Name)

	w = e.do(http.MethodPatch, "/admin/contests/"+contest.ID+"/status", map[string]any{"status": "Confirmed"}, creator)
	require.Equal(t, http.StatusForbidden, w.Code)
	w = e.do(http.MethodPatch, "/admin/contests/"+contest.ID+"/status", map[string]any{"status": "Confirmed"}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(http.MethodPatch, "/admin/contests/"+contest.ID+"/status", map[string]any{"status": "Rejected"}, admin)
	require.Equal(t, http.StatusConflict, w.Code)

	w = e.do(http.MethodPatch, "/api/contests/"+contest.ID, map[string]any{"name": "Too Late"}, creator)
	require.Equal(t, http.StatusConflict, w.Code)
	w = e.do(http.MethodDelete, "/creator/contests/"+contest.ID, nil, creator)
	require.Equal(t, http.StatusConflict, w.Code)

	w = e.do(http.MethodGet, "/all-contests?search=DESIGN", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Contest](t, w), 1)

	w = e.do(http.MethodGet, "/contests/slug/logo-marathon", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, contest.ID, decode[models.Contest](t, w).ID)

	w = e.do(http.MethodGet, "/contests/missing", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Contest not found", message(t, w))
}

func TestPaidRegistrationSubmissionAndWinner(t *testing.T) {
	e := newTestEnv(t)
	contest := testutil.SeedContest(t, e.db, models.Contest{Name: "Photo Walk", EntryFee: decimal.NewFromInt(200)})
	creator, ann, bob := e.token("creator@test.dev"), e.token("ann@test.dev"), e.token("bob@test.dev")

	w := e.do(http.MethodPost, "/save-user", map[string]any{"email": "ann@test.dev", "name": "Ann", "photo": "ann.png"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	checkoutBody := map[string]any{"contestId": contest.ID, "userEmail": "ann@test.dev", "userName": "Ann", "userPhoto": "ann.png"}
	w = e.do(http.MethodPost, "/create-checkout-session", checkoutBody, bob)
	require.Equal(t, http.StatusForbidden, w.Code, "cannot pay on behalf of someone else")

	w = e.do(http.MethodPost, "/create-checkout-session", checkoutBody, ann)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	checkout := decode[map[string]string](t, w)
	checkoutURL, err := url.Parse(checkout["url"])
	require.NoError(t, err)

	page := httptest.NewRecorder()
	e.router.ServeHTTP(page, httptest.NewRequest(http.MethodGet, checkoutURL.RequestURI(), nil))
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "200.00 bdt")

	w = e.do(http.MethodPost, "/payment-success", map[string]any{"sessionId": checkout["sessionId"]}, "")
	require.Equal(t, http.StatusBadRequest, w.Code, "not paid yet")

	complete := httptest.NewRecorder()
	e.router.ServeHTTP(complete, httptest.NewRequest(http.MethodPost, strings.Replace(checkoutURL.RequestURI(), "?sig=", "/complete?sig=", 1), nil))
	require.Equal(t, http.StatusSeeOther, complete.Code)
	success, err := url.Parse(complete.Header().Get("Location"))
	require.NoError(t, err)
	sessionID := success.Query().Get("session_id")
	assert.Equal(t, checkout["sessionId"], sessionID)

	w = e.do(http.MethodPost, "/payment-success", map[string]any{"sessionId": sessionID}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = e.do(http.MethodPost, "/payment-success", map[string]any{"sessionId": sessionID}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["duplicate"])

	w = e.do(http.MethodGet, "/contests/"+contest.ID, nil, "")
	assert.Equal(t, 1, decode[models.Contest](t, w).Participants)

	w = e.do(http.MethodGet, "/registrations/check?contestId="+contest.ID+"&email=ann@test.dev", nil, "")
	assert.JSONEq(t, `{"registered":true}`, w.Body.String())

	w = e.do(http.MethodPost, "/submit-task", map[string]any{"contestId": contest.ID, "userEmail": "bob@test.dev", "taskLink": "https://drive.test/bob"}, bob)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Not registered for this contest", message(t, w))

	submit := map[string]any{"contestId": contest.ID, "userEmail": "ann@test.dev", "taskLink": "https://drive.test/ann"}
	w = e.do(http.MethodPost, "/submit-task", submit, ann)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = e.do(http.MethodPost, "/submit-task", submit, ann)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Already submitted", message(t, w))

	w = e.do(http.MethodGet, "/submissions/check?contestId="+contest.ID+"&email=ann@test.dev", nil, "")
	assert.JSONEq(t, `{"submitted":true}`, w.Body.String())

	w = e.do(http.MethodGet, "/participates/creator@test.dev", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	participants := decode[[]map[string]any](t, w)
	require.Len(t, participants, 1)
	assert.Equal(t, "Photo Walk", participants[0]["contestName"])
	assert.Equal(t, "https://drive.test/ann", participants[0]["taskLink"])

	w = e.do(http.MethodGet, "/participates/creator@test.dev/export", nil, ann)
	require.Equal(t, http.StatusForbidden, w.Code)
	w = e.do(http.MethodGet, "/participates/creator@test.dev/export", nil, creator)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")

	winner := map[string]any{"contestId": contest.ID, "winnerEmail": "ann@test.dev"}
	w = e.do(http.MethodPost, "/api/contests/declare-winner", winner, ann)
	require.Equal(t, http.StatusForbidden, w.Code)
	w = e.do(http.MethodPost, "/api/contests/declare-winner", winner, creator)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = e.do(http.MethodPost, "/api/contests/declare-winner", winner, creator)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Winner already declared", message(t, w))

	w = e.do(http.MethodPost, "/register", map[string]any{"contestId": contest.ID, "userEmail": "bob@test.dev"}, bob)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Winner already declared", message(t, w))

	w = e.do(http.MethodGet, "/winning-contests/ann@test.dev", nil, "")
	assert.Len(t, decode[[]models.Contest](t, w), 1)

	w = e.do(http.MethodGet, "/participated-contests/ann@test.dev", nil, "")
	participated := decode[[]map[string]any](t, w)
	require.Len(t, participated, 1)
	assert.Equal(t, "Paid", participated[0]["paymentStatus"])
	assert.Equal(t, false, participated[0]["contestEnded"])

	w = e.do(http.MethodGet, "/registrations/ann@test.dev", nil, "")
	assert.Len(t, decode[[]models.Registration](t, w), 1)
	w = e.do(http.MethodGet, "/my-contests/creator@test.dev", nil, "")
	assert.Len(t, decode[[]models.Contest](t, w), 1)
}

func TestDirectRegistrationRules(t *testing.T) {
	e := newTestEnv(t)
	ended := testutil.SeedContest(t, e.db, models.Contest{Deadline: time.Now().UTC().Add(-time.Hour)})
	open := testutil.SeedContest(t, e.db, models.Contest{})
	ann := e.token("ann@test.dev")

	w := e.do(http.MethodPost, "/register", map[string]any{"contestId": ended.ID, "userEmail": "ann@test.dev"}, ann)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Contest has ended", message(t, w))

	body := map[string]any{"contestId": open.ID, "userEmail": "ann@test.dev", "userName": "Ann"}
	w = e.do(http.MethodPost, "/register", body, ann)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = e.do(http.MethodPost, "/register", body, ann)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Already registered", message(t, w))

	w = e.do(http.MethodPost, "/register", map[string]any{"contestId": "missing", "userEmail": "ann@test.dev"}, ann)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserAndAdminRoutes(t *testing.T) {
	e := newTestEnv(t)
	testutil.SeedUser(t, e.db, "admin@test.dev", models.RoleAdmin)
	admin := e.token("admin@test.dev")

	w := e.do(http.MethodGet, "/user-role/nobody@test.dev", nil, "")
	assert.JSONEq(t, `{"role":"User"}`, w.Body.String())

	w = e.do(http.MethodPost, "/jwt", e.tokenRequest("nobody@test.dev"), "")
	require.Equal(t, http.StatusNotFound, w.Code, "tokens are only issued to saved users")

	w = e.do(http.MethodPost, "/save-user", map[string]any{"email": "ann@test.dev", "name": "Ann"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	user := decode[models.User](t, w)

	w = e.do(http.MethodPost, "/jwt", e.tokenRequest("ann@test.dev"), "")
	require.Equal(t, http.StatusOK, w.Code)
	ann := decode[map[string]any](t, w)["token"].(string)

	w = e.do(http.MethodGet, "/admin/users", nil, ann)
	require.Equal(t, http.StatusForbidden, w.Code)
	w = e.do(http.MethodGet, "/admin/users", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.User](t, w), 2)

	w = e.do(http.MethodPatch, "/admin/users/"+user.ID+"/role", map[string]any{"role": "Creator"}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(http.MethodGet, "/user-role/ann@test.dev", nil, "")
	assert.JSONEq(t, `{"role":"Creator"}`, w.Body.String())

	pending := testutil.SeedContest(t, e.db, models.Contest{Status: models.ContestPending})
	w = e.do(http.MethodGet, "/admin/contests", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Contest](t, w), 1)
	w = e.do(http.MethodDelete, "/admin/contests/"+pending.ID, nil, admin)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodPost, "/admin/contests/reconcile", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"adjusted":[]}`, w.Body.String())

	w = e.do(http.MethodDelete, "/admin/users/"+user.ID, nil, admin)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/ping", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = e.do(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "contesthub_http_requests_total")
}

func TestContestWebSocketReceivesParticipantEvents(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.hub.Run(ctx)

	contest := testutil.SeedContest(t, e.db, models.Contest{})
	srv := httptest.NewServer(e.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/contests/" + contest.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return e.hub.Subscribers(contest.ID) == 1 }, time.Second, 10*time.Millisecond)

	_, err = e.svc.Registrations.RegisterDirect(context.Background(), contest.ID, services.Participant{Email: "ann@test.dev"})
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt realtime.ContestEvent
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, realtime.EventParticipants, evt.Type)
	assert.Equal(t, 1, evt.Participants)

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/contests/missing", nil)
	assert.Error(t, err, "unknown contest is refused before the upgrade")
}

func TestTokenIssuingRequiresIdentityProof(t *testing.T) {
	e := newTestEnv(t)
	testutil.SeedUser(t, e.db, "admin@test.dev", models.RoleAdmin)
	now := time.Now()

	requests := map[string]map[string]any{
		"no proof":    {"email": "admin@test.dev"},
		"forged":      {"email": "admin@test.dev", "issuedAt": now.Unix(), "signature": "deadbeef"},
		"other email": {"email": "admin@test.dev", "issuedAt": now.Unix(), "signature": e.identity.Sign("ann@test.dev", now)},
		"stale":       {"email": "admin@test.dev", "issuedAt": now.Add(-time.Hour).Unix(), "signature": e.identity.Sign("admin@test.dev", now.Add(-time.Hour))},
		"wrong key":   {"email": "admin@test.dev", "issuedAt": now.Unix(), "signature": services.NewIdentityVerifier("other", time.Minute, nil).Sign("admin@test.dev", now)},
	}
	for name, body := range requests {
		w := e.do(http.MethodPost, "/jwt", body, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
		assert.NotContains(t, w.Body.String(), "token\":", name)
	}

	w := e.do(http.MethodPost, "/jwt", e.tokenRequest("Admin@Test.dev"), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	admin := decode[map[string]any](t, w)["token"].(string)
	w = e.do(http.MethodGet, "/admin/users", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTokenIssuingDisabledWithoutSecret(t *testing.T) {
	e := newTestEnv(t)
	testutil.SeedUser(t, e.db, "admin@test.dev", models.RoleAdmin)
	unset := services.NewIdentityVerifier("", time.Minute, nil)
	e.router = NewRouter(Deps{
		Config:   &config.Config{RateLimit: config.DefaultRateLimitConfig},
		Services: e.svc,
		Tokens:   e.tokens,
		Identity: unset,
		Hub:      e.hub,
		Log:      logger.Discard(),
	})

	now := time.Now()
	w := e.do(http.MethodPost, "/jwt", map[string]any{"email": "admin@test.dev", "issuedAt": now.Unix(), "signature": unset.Sign("admin@test.dev", now)}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, services.ErrMsgIdentityDisabled, message(t, w))
}
