package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/slotswap/swap_backend/internal/controller"
	"github.com/slotswap/swap_backend/internal/service"
	"github.com/slotswap/swap_backend/internal/service/servicetest"
)

// api — тестовый клиент поверх полного роутера с in-memory хранилищами
type api struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := servicetest.NewDB()
	stores := db.Stores()
	logger := zap.NewNop()

	auth := service.NewAuthService(stores.Users, "test-secret", time.Hour, logger)
	slots := service.NewSlotService(stores.Slots, stores.Users, logger)
	swaps := service.NewSwapService(db.TxRunner(), stores, logger)

	router := controller.NewRouter(controller.RouterConfig{
		Auth:   auth,
		Slots:  slots,
		Swaps:  swaps,
		Logger: logger,
	})

	return &api{t: t, router: router}
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

// signup регистрирует пользователя и возвращает токен и id
func (a *api) signup(name, email string) (string, int64) {
	a.t.Helper()

	rec := a.do(http.MethodPost, "/api/auth/signup", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "secret",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	decode(a.t, rec, &resp)
	return resp.Token, resp.User.ID
}

// createSlot создаёт слот и возвращает его id
func (a *api) createSlot(token, title string, startHour int, status string) int64 {
	a.t.Helper()

	start := time.Date(2026, 9, 1, startHour, 0, 0, 0, time.UTC)
	rec := a.do(http.MethodPost, "/api/slots", token, gin.H{
		"title":     title,
		"startTime": start.Format(time.RFC3339),
		"endTime":   start.Add(time.Hour).Format(time.RFC3339),
		"status":    status,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	var slot struct {
		ID int64 `json:"id"`
	}
	decode(a.t, rec, &slot)
	return slot.ID
}

type slotView struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Owner  *struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"owner"`
}

type swapView struct {
	ID            int64     `json:"id"`
	Status        string    `json:"status"`
	RequesterSlot *slotView `json:"requesterSlot"`
	ResponderSlot *slotView `json:"responderSlot"`
	Requester     *struct {
		Name string `json:"name"`
	} `json:"requester"`
}

func TestHealthcheck(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodGet, "/healthcheck", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/api/slots", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodGet, "/api/slots", "bogus-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignupValidationAndDuplicate(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/api/auth/signup", "", gin.H{"name": "Alice"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	a.signup("Alice", "alice@example.com")
	rec = a.do(http.MethodPost, "/api/auth/signup", "", gin.H{
		"name":     "Alice Again",
		"email":    "alice@example.com",
		"password": "secret",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginFlow(t *testing.T) {
	a := newAPI(t)
	a.signup("Alice", "alice@example.com")

	rec := a.do(http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "secret",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSlotLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)
	token, _ := a.signup("Alice", "alice@example.com")

	slotID := a.createSlot(token, "math lesson", 10, "")

	// По умолчанию BUSY
	rec := a.do(http.MethodGet, "/api/slots", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []slotView
	decode(t, rec, &listed)
	require.Len(t, listed, 1)
	require.Equal(t, "BUSY", listed[0].Status)

	// Публикация в маркетплейс через PATCH
	rec = a.do(http.MethodPatch, fmt.Sprintf("/api/slots/%d", slotID), token, gin.H{"status": "SWAPPABLE"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var patched slotView
	decode(t, rec, &patched)
	require.Equal(t, "SWAPPABLE", patched.Status)

	// SWAP_PENDING руками не выставить
	rec = a.do(http.MethodPatch, fmt.Sprintf("/api/slots/%d", slotID), token, gin.H{"status": "SWAP_PENDING"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPatch, "/api/slots/abc", token, gin.H{"title": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarketplaceShowsOnlyForeignSwappable(t *testing.T) {
	a := newAPI(t)
	aliceToken, _ := a.signup("Alice", "alice@example.com")
	bobToken, bobID := a.signup("Bob", "bob@example.com")

	a.createSlot(aliceToken, "mine swappable", 9, "SWAPPABLE")
	a.createSlot(bobToken, "bob busy", 11, "")
	a.createSlot(bobToken, "bob open", 13, "SWAPPABLE")

	rec := a.do(http.MethodGet, "/api/marketplace", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var market []slotView
	decode(t, rec, &market)
	require.Len(t, market, 1)
	require.Equal(t, "bob open", market[0].Title)
	require.NotNil(t, market[0].Owner)
	require.Equal(t, bobID, market[0].Owner.ID)
	require.Equal(t, "Bob", market[0].Owner.Name)
}

func TestSwapFlowOverHTTP(t *testing.T) {
	a := newAPI(t)
	aliceToken, _ := a.signup("Alice", "alice@example.com")
	bobToken, _ := a.signup("Bob", "bob@example.com")

	aliceSlot := a.createSlot(aliceToken, "alice slot", 10, "SWAPPABLE")
	bobSlot := a.createSlot(bobToken, "bob slot", 14, "SWAPPABLE")

	// Alice предлагает обмен
	rec := a.do(http.MethodPost, "/api/swap-requests", aliceToken, gin.H{
		"mySlotId":    aliceSlot,
		"theirSlotId": bobSlot,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var proposed swapView
	decode(t, rec, &proposed)
	require.Equal(t, "PENDING", proposed.Status)
	require.Equal(t, "SWAP_PENDING", proposed.RequesterSlot.Status)
	require.Equal(t, "SWAP_PENDING", proposed.ResponderSlot.Status)

	// Направление обязательно
	rec = a.do(http.MethodGet, "/api/swap-requests", bobToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Bob видит входящий запрос
	rec = a.do(http.MethodGet, "/api/swap-requests?direction=incoming", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var incoming []swapView
	decode(t, rec, &incoming)
	require.Len(t, incoming, 1)
	require.Equal(t, proposed.ID, incoming[0].ID)
	require.Equal(t, "Alice", incoming[0].Requester.Name)

	// Alice ответить не может
	rec = a.do(http.MethodPost, fmt.Sprintf("/api/swap-requests/%d/respond", proposed.ID), aliceToken, gin.H{"action": "accept"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Bob принимает — владельцы меняются, слоты закрываются
	rec = a.do(http.MethodPost, fmt.Sprintf("/api/swap-requests/%d/respond", proposed.ID), bobToken, gin.H{"action": "accept"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var accepted swapView
	decode(t, rec, &accepted)
	require.Equal(t, "ACCEPTED", accepted.Status)
	require.Equal(t, "BUSY", accepted.RequesterSlot.Status)
	require.Equal(t, "BUSY", accepted.ResponderSlot.Status)

	// Слот Alice теперь в списке Bob и наоборот
	rec = a.do(http.MethodGet, "/api/slots", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var bobSlots []slotView
	decode(t, rec, &bobSlots)
	require.Len(t, bobSlots, 1)
	require.Equal(t, aliceSlot, bobSlots[0].ID)

	rec = a.do(http.MethodGet, "/api/slots", aliceToken, nil)
	var aliceSlots []slotView
	decode(t, rec, &aliceSlots)
	require.Len(t, aliceSlots, 1)
	require.Equal(t, bobSlot, aliceSlots[0].ID)

	// Повторный ответ — конфликт
	rec = a.do(http.MethodPost, fmt.Sprintf("/api/swap-requests/%d/respond", proposed.ID), bobToken, gin.H{"action": "reject"})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestSwapRejectOverHTTP(t *testing.T) {
	a := newAPI(t)
	aliceToken, _ := a.signup("Alice", "alice@example.com")
	bobToken, _ := a.signup("Bob", "bob@example.com")

	aliceSlot := a.createSlot(aliceToken, "alice slot", 10, "SWAPPABLE")
	bobSlot := a.createSlot(bobToken, "bob slot", 14, "SWAPPABLE")

	rec := a.do(http.MethodPost, "/api/swap-requests", aliceToken, gin.H{
		"mySlotId":    aliceSlot,
		"theirSlotId": bobSlot,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var proposed swapView
	decode(t, rec, &proposed)

	rec = a.do(http.MethodPost, fmt.Sprintf("/api/swap-requests/%d/respond", proposed.ID), bobToken, gin.H{"action": "reject"})
	require.Equal(t, http.StatusOK, rec.Code)
	var rejected swapView
	decode(t, rec, &rejected)
	require.Equal(t, "REJECTED", rejected.Status)
	require.Equal(t, "SWAPPABLE", rejected.RequesterSlot.Status)
	require.Equal(t, "SWAPPABLE", rejected.ResponderSlot.Status)

	// Владельцы не менялись
	rec = a.do(http.MethodGet, "/api/slots", aliceToken, nil)
	var aliceSlots []slotView
	decode(t, rec, &aliceSlots)
	require.Len(t, aliceSlots, 1)
	require.Equal(t, aliceSlot, aliceSlots[0].ID)

	// Непонятное действие — ошибка валидации
	rec = a.do(http.MethodPost, fmt.Sprintf("/api/swap-requests/%d/respond", proposed.ID), bobToken, gin.H{"action": "maybe"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProposeForeignSlotOverHTTP(t *testing.T) {
	a := newAPI(t)
	aliceToken, _ := a.signup("Alice", "alice@example.com")
	bobToken, _ := a.signup("Bob", "bob@example.com")
	carolToken, _ := a.signup("Carol", "carol@example.com")

	aliceSlot := a.createSlot(aliceToken, "alice slot", 10, "SWAPPABLE")
	bobSlot := a.createSlot(bobToken, "bob slot", 14, "SWAPPABLE")

	rec := a.do(http.MethodPost, "/api/swap-requests", carolToken, gin.H{
		"mySlotId":    aliceSlot,
		"theirSlotId": bobSlot,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodPost, "/api/swap-requests", aliceToken, gin.H{
		"mySlotId":    aliceSlot,
		"theirSlotId": 9999,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}
