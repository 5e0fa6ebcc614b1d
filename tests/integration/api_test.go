package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "bandpay/internal/adapter/http/handler"
	redisStorage "bandpay/internal/adapter/storage/redis"
	"bandpay/internal/scanfeed"
	"bandpay/internal/service"
	"bandpay/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds a full application stack over in-memory repos and miniredis.
// This exercises the real HTTP layer, middleware, handlers, services, and the
// Redis idempotency cache end-to-end.

type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
	hub    *scanfeed.Hub
	txRepo *inMemoryTransactionRepo
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)

	// Core services with real implementations
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 12*time.Hour, "test-issuer")

	// In-memory repos
	userRepo := newInMemoryUserRepo()
	sellerRepo := newInMemorySellerRepo()
	txRepo := newInMemoryTransactionRepo()
	idempotencyRepo := newInMemoryIdempotencyRepo()
	transactor := newInMemoryTransactor()

	log := logger.New("debug", false)

	// Business services
	registrySvc := service.NewRegistryService(userRepo, hashSvc, "NKM", 7, 5, log)
	paymentSvc := service.NewPaymentService(txRepo, userRepo, idempotencyRepo, idempotencyCache, hashSvc, transactor, log)
	sellerSvc := service.NewSellerService(sellerRepo, hashSvc, tokenSvc, log)
	reportingSvc := service.NewReportingService(userRepo, txRepo, time.UTC)

	hub := scanfeed.NewHub(log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		RegistrySvc:  registrySvc,
		PaymentSvc:   paymentSvc,
		SellerSvc:    sellerSvc,
		ReportingSvc: reportingSvc,
		TokenSvc:     tokenSvc,
		ScanHub:      hub,
		Logger:       log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server: server,
		redis:  mr,
		hub:    hub,
		txRepo: txRepo,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
	a.hub.Close()
}

func (a *testApp) postJSON(t *testing.T, path string, body any) (*http.Response, map[string]interface{}) {
	t.Helper()
	raw, _ := json.Marshal(body)
	resp, err := http.Post(a.server.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, _ = io.ReadAll(resp.Body)
	var parsed map[string]interface{}
	_ = json.Unmarshal(raw, &parsed)
	return resp, parsed
}

// --- Helpers ---

func registerBand(t *testing.T, app *testApp, name, phone, pin string) string {
	t.Helper()
	resp, body := app.postJSON(t, "/api/users/create/", map[string]string{
		"name": name, "phone": phone, "pin": pin,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "register response: %v", body)
	data := body["data"].(map[string]interface{})
	return data["band_id"].(string)
}

func fundBand(t *testing.T, app *testApp, bandID string, amount int64) {
	t.Helper()
	resp, body := app.postJSON(t, "/api/fund/", map[string]interface{}{
		"band_id": bandID, "amount": amount,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "fund response: %v", body)
}

func sellerToken(t *testing.T, app *testApp, phone, pin string) string {
	t.Helper()
	resp, _ := app.postJSON(t, "/api/sellers/register/", map[string]string{
		"name": "Ravi Kumar", "business_name": "Chai Point", "phone": phone, "pin": pin,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp2, body := app.postJSON(t, "/api/sellers/login/", map[string]string{
		"phone": phone, "pin": pin,
	})
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	data := body["data"].(map[string]interface{})
	return data["token"].(string)
}

func payWithToken(t *testing.T, app *testApp, token string, payload map[string]interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	raw, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/payment/", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, _ = io.ReadAll(resp.Body)
	var parsed map[string]interface{}
	_ = json.Unmarshal(raw, &parsed)
	return resp, parsed
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_RegisterFundPay(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	bandID := registerBand(t, app, "Asha Rao", "9876543210", "4821")
	fundBand(t, app, bandID, 10000)

	token := sellerToken(t, app, "9000000001", "1111")

	resp, body := payWithToken(t, app, token, map[string]interface{}{
		"band_id":      bandID,
		"amount":       int64(3500),
		"pin":          "4821",
		"reference_id": "POS-001",
		"description":  "Masala dosa",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "payment response: %v", body)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(6500), data["new_balance"])

	txn := data["transaction"].(map[string]interface{})
	assert.Equal(t, "DEBIT", txn["direction"])
	assert.Equal(t, float64(3500), txn["amount"])

	// Balance visible through the admin lookup too
	respGet, err := http.Get(app.server.URL + "/api/users/" + bandID + "/")
	require.NoError(t, err)
	defer respGet.Body.Close()
	var getBody map[string]interface{}
	require.NoError(t, json.NewDecoder(respGet.Body).Decode(&getBody))
	userData := getBody["data"].(map[string]interface{})
	assert.Equal(t, float64(6500), userData["balance"])

	// The ledger is the auditable source of truth: folding the band's
	// entries must reproduce the running balance exactly.
	sum, err := app.txRepo.SumByBand(context.Background(), bandID)
	require.NoError(t, err)
	assert.EqualValues(t, 6500, sum)
}

func TestIntegration_PaymentIdempotentReplay(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	bandID := registerBand(t, app, "Asha Rao", "9876543210", "4821")
	fundBand(t, app, bandID, 10000)
	token := sellerToken(t, app, "9000000001", "1111")

	payload := map[string]interface{}{
		"band_id":      bandID,
		"amount":       int64(3500),
		"pin":          "4821",
		"reference_id": "POS-REPLAY",
	}

	resp1, body1 := payWithToken(t, app, token, payload)
	require.Equal(t, http.StatusCreated, resp1.StatusCode)

	// Same reference id again: replayed result, no second debit
	resp2, body2 := payWithToken(t, app, token, payload)
	require.Equal(t, http.StatusCreated, resp2.StatusCode)

	data1 := body1["data"].(map[string]interface{})
	data2 := body2["data"].(map[string]interface{})
	assert.Equal(t, data1["new_balance"], data2["new_balance"])

	// Replay survives a cache flush: the DB idempotency log backs it up
	app.redis.FlushAll()
	resp3, body3 := payWithToken(t, app, token, payload)
	require.Equal(t, http.StatusCreated, resp3.StatusCode)
	data3 := body3["data"].(map[string]interface{})
	assert.Equal(t, float64(6500), data3["new_balance"])
}

func TestIntegration_PaymentInsufficientFunds(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	bandID := registerBand(t, app, "Asha Rao", "9876543210", "4821")
	fundBand(t, app, bandID, 1000)
	token := sellerToken(t, app, "9000000001", "1111")

	resp, body := payWithToken(t, app, token, map[string]interface{}{
		"band_id":      bandID,
		"amount":       int64(5000),
		"pin":          "4821",
		"reference_id": "POS-OVER",
	})
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "PAY_001", body["error_code"])
}

func TestIntegration_PaymentWrongPin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	bandID := registerBand(t, app, "Asha Rao", "9876543210", "4821")
	fundBand(t, app, bandID, 10000)
	token := sellerToken(t, app, "9000000001", "1111")

	resp, body := payWithToken(t, app, token, map[string]interface{}{
		"band_id":      bandID,
		"amount":       int64(100),
		"pin":          "0000",
		"reference_id": "POS-PIN",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "PAY_004", body["error_code"])
}

func TestIntegration_BlockedBandRejectsPaymentAndFund(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	bandID := registerBand(t, app, "Asha Rao", "9876543210", "4821")
	fundBand(t, app, bandID, 10000)
	token := sellerToken(t, app, "9000000001", "1111")

	// Block (toggle)
	resp, body := app.postJSON(t, "/api/block/", map[string]interface{}{"band_id": bandID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["is_blocked"])

	respPay, payBody := payWithToken(t, app, token, map[string]interface{}{
		"band_id":      bandID,
		"amount":       int64(100),
		"pin":          "4821",
		"reference_id": "POS-BLOCKED",
	})
	assert.Equal(t, http.StatusForbidden, respPay.StatusCode)
	assert.Equal(t, "PAY_003", payBody["error_code"])

	// Top-ups are rejected too while blocked
	respFund, _ := app.postJSON(t, "/api/fund/", map[string]interface{}{
		"band_id": bandID, "amount": int64(500),
	})
	assert.Equal(t, http.StatusForbidden, respFund.StatusCode)

	// Unblock restores service
	resp2, _ := app.postJSON(t, "/api/block/", map[string]interface{}{
		"band_id": bandID, "blocked": false,
	})
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	respPay2, _ := payWithToken(t, app, token, map[string]interface{}{
		"band_id":      bandID,
		"amount":       int64(100),
		"pin":          "4821",
		"reference_id": "POS-UNBLOCKED",
	})
	assert.Equal(t, http.StatusCreated, respPay2.StatusCode)
}

func TestIntegration_DuplicatePhoneRejected(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerBand(t, app, "Asha Rao", "9876543210", "4821")

	resp, body := app.postJSON(t, "/api/users/create/", map[string]string{
		"name": "Someone Else", "phone": "9876543210", "pin": "9999",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "REG_001", body["error_code"])
}

func TestIntegration_DeleteBandIsTerminal(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	bandID := registerBand(t, app, "Asha Rao", "9876543210", "4821")

	resp, _ := app.postJSON(t, "/api/users/delete/", map[string]string{"band_id": bandID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Lookup now misses
	respGet, err := http.Get(app.server.URL + "/api/users/" + bandID + "/")
	require.NoError(t, err)
	respGet.Body.Close()
	assert.Equal(t, http.StatusNotFound, respGet.StatusCode)

	// The id is tombstoned: explicit re-registration of it is refused
	resp2, body2 := app.postJSON(t, "/api/users/create/", map[string]string{
		"name": "New Holder", "phone": "9123456789", "pin": "1234", "band_id": bandID,
	})
	assert.Equal(t, http.StatusConflict, resp2.StatusCode)
	assert.Equal(t, "REG_004", body2["error_code"])
}

func TestIntegration_PaymentRequiresSellerSession(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Post(app.server.URL+"/api/payment/", "application/json", bytes.NewReader([]byte("{}")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_SellerMe(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := sellerToken(t, app, "9000000001", "1111")

	req, _ := http.NewRequest(http.MethodGet, app.server.URL+"/api/sellers/me/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Chai Point", data["business_name"])
}

func TestIntegration_SellerLoginWrongPin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	sellerToken(t, app, "9000000001", "1111")

	resp, body := app.postJSON(t, "/api/sellers/login/", map[string]string{
		"phone": "9000000001", "pin": "2222",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_001", body["error_code"])
}

func TestIntegration_Stats(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	bandID := registerBand(t, app, "Asha Rao", "9876543210", "4821")
	fundBand(t, app, bandID, 10000)
	token := sellerToken(t, app, "9000000001", "1111")

	for i := 0; i < 3; i++ {
		resp, _ := payWithToken(t, app, token, map[string]interface{}{
			"band_id":      bandID,
			"amount":       int64(1000),
			"pin":          "4821",
			"reference_id": fmt.Sprintf("POS-STAT-%d", i),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, err := http.Get(app.server.URL + "/api/stats/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["totalUsers"])
	assert.Equal(t, float64(7000), data["totalBalance"])
	// Fund + 3 payments all happened today
	assert.Equal(t, float64(4), data["todayTransactions"])
	assert.Equal(t, float64(13000), data["todayVolume"])
}

func TestIntegration_ScanFeed(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	events, cancel := app.hub.Subscribe()
	defer cancel()

	resp, body := app.postJSON(t, "/api/scan/", map[string]string{"band_id": "nkm-ab12cd3"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["accepted"])

	select {
	case ev := <-events:
		assert.Equal(t, "NKM-AB12CD3", ev.BandID)
	case <-time.After(time.Second):
		t.Fatal("expected a scan event")
	}
}
