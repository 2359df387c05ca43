package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/tarotgarden/internal/handlers/testutil"
	"github.com/charlesng35/tarotgarden/internal/models"
)

func decodeBare(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func seedAccount(t *testing.T, env *testutil.Env, userID string) {
	t.Helper()

	env.CreateUser(userID, userID+"@example.com")
	env.GrantPremium(userID)
	require.NoError(t, env.DB.Create(&models.Reading{UserID: userID, Spread: "one_card"}).Error)
	require.NoError(t, env.DB.Create(&models.JournalEntry{UserID: userID, Title: "오늘"}).Error)
	require.NoError(t, env.DB.Create(&models.DailyCard{UserID: userID, Date: "2024-05-20", Card: "the_sun"}).Error)
	require.NoError(t, env.DB.Create(&models.Profile{UserID: userID}).Error)
}

func countRows(t *testing.T, env *testutil.Env, model any, userColumn, userID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.DB.Model(model).Where(userColumn+" = ?", userID).Count(&n).Error)
	return n
}

func TestDeleteAccountRemovesEverything(t *testing.T) {
	env := testutil.NewEnv(t)
	seedAccount(t, env, readerA)

	const otherReader = "99999999-8888-4777-8666-555555555555"
	seedAccount(t, env, otherReader)

	w := env.Request(http.MethodDelete, "/api/account", nil, env.Token(readerA))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, map[string]any{"success": true}, decodeBare(t, w))

	for _, model := range []any{&models.Reading{}, &models.JournalEntry{}, &models.DailyCard{}, &models.Subscription{}, &models.Profile{}} {
		require.Zero(t, countRows(t, env, model, "user_id", readerA))
		require.Equal(t, int64(1), countRows(t, env, model, "user_id", otherReader))
	}
	require.Zero(t, countRows(t, env, &models.User{}, "id", readerA))
	require.Equal(t, int64(1), countRows(t, env, &models.User{}, "id", otherReader))
}

func TestDeleteAccountViaPostAlias(t *testing.T) {
	env := testutil.NewEnv(t)
	seedAccount(t, env, readerA)

	w := env.Request(http.MethodPost, "/api/account/delete", nil, env.Token(readerA))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decodeBare(t, w)["success"])
	require.Zero(t, countRows(t, env, &models.User{}, "id", readerA))
}

func TestDeleteAccountWithoutMirroredUser(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodDelete, "/api/account", nil, env.Token(readerA))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, map[string]any{"success": true}, decodeBare(t, w))
}

func TestDeleteAccountRequiresValidToken(t *testing.T) {
	env := testutil.NewEnv(t)
	seedAccount(t, env, readerA)

	for _, header := range []string{"", "Bearer", "Bearer not-a-jwt", "Basic abc"} {
		w := env.RequestWithHeaders(http.MethodDelete, "/api/account", nil, "", map[string]string{"Authorization": header})
		require.Equal(t, http.StatusUnauthorized, w.Code, header)
		require.Equal(t, map[string]any{"error": "Unauthorized"}, decodeBare(t, w))
	}
	require.Equal(t, int64(1), countRows(t, env, &models.User{}, "id", readerA))
}

func TestDeleteAccountOtherMethods(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.Token(readerA)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch} {
		w := env.Request(method, "/api/account", nil, token)
		require.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		require.Equal(t, http.MethodDelete, w.Header().Get("Allow"))
		require.Equal(t, map[string]any{"error": "Method not allowed"}, decodeBare(t, w))
	}

	w := env.Request(http.MethodGet, "/api/account/delete", nil, token)
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.Equal(t, http.MethodPost, w.Header().Get("Allow"))
}
