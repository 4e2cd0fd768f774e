package v1

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spicescript/recipe-service/internal/auth"
	"github.com/spicescript/recipe-service/internal/core/repository"
	logicv1 "github.com/spicescript/recipe-service/internal/logic/v1"
	"github.com/spicescript/recipe-service/internal/router"
	"github.com/spicescript/recipe-service/middleware"
)

const cookieName = "sessionId"

// newTestServer wires the full API stack over temp-dir stores.
func newTestServer(t *testing.T) http.Handler {
	return newTestServerWithLimit(t, 5*1024*1024)
}

func newTestServerWithLimit(t *testing.T, maxImageBytes int64) http.Handler {
	t.Helper()
	dir := t.TempDir()

	users := repository.NewUserRepository(filepath.Join(dir, "users.json"))
	recipes := repository.NewRecipeRepository(filepath.Join(dir, "recipes.json"))
	sessions := repository.NewSessionRepository(filepath.Join(dir, "sessions.json"), time.Hour)

	params := auth.Params{Iterations: 1000, KeyLength: 32}
	authService := logicv1.NewAuthService(users, sessions, params)
	recipeService := logicv1.NewRecipeService(recipes, maxImageBytes)

	authn := &middleware.Authenticator{Sessions: sessions, Users: users, CookieName: cookieName}

	rt := router.New(WriteError)
	NewAuthHandler(authService, CookieSettings{Name: cookieName, MaxAgeMillis: 3600000}).RegisterRoutes(rt, authn)
	NewRecipeHandler(recipeService, filepath.Join(dir, "images"), maxImageBytes).RegisterRoutes(rt, authn)
	return rt
}

func doJSON(h http.Handler, method, target, cookie string, payload any) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	r := httptest.NewRequest(method, target, body)
	r.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		r.Header.Set("Cookie", cookieName+"="+cookie)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// sessionCookie extracts the session id from a Set-Cookie header.
func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	header := w.Header().Get("Set-Cookie")
	require.NotEmpty(t, header)
	pair := strings.SplitN(header, ";", 2)[0]
	_, value, found := strings.Cut(pair, "=")
	require.True(t, found)
	return value
}

func signUp(t *testing.T, h http.Handler, username, email, password string) string {
	t.Helper()
	w := doJSON(h, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username":        username,
		"email":           email,
		"password":        password,
		"confirmPassword": password,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return sessionCookie(t, w)
}

// multipartRecipe builds a multipart body with recipe fields and a JPEG part.
func multipartRecipe(t *testing.T, name string, withImage bool) (string, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"recipeName":  name,
		"description": "A warm soup",
		"ingredients": "water\nsalt",
		"directions":  "boil\nserve",
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if withImage {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="image"; filename="soup.jpg"`)
		hdr.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10})
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return mw.FormDataContentType(), &buf
}

func createRecipe(t *testing.T, h http.Handler, cookie, name string) int {
	t.Helper()
	contentType, body := multipartRecipe(t, name, true)
	r := httptest.NewRequest(http.MethodPost, "/api/recipes", body)
	r.Header.Set("Content-Type", contentType)
	r.Header.Set("Cookie", cookieName+"="+cookie)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	env := decodeEnvelope(t, w)
	recipe := env["data"].(map[string]any)["recipe"].(map[string]any)
	return int(recipe["id"].(float64))
}

func TestEndToEnd(t *testing.T) {
	h := newTestServer(t)

	// Sign up and sign in as alice.
	signUp(t, h, "alice", "alice@example.com", "secret1")

	w := doJSON(h, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email": "alice@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	alice := sessionCookie(t, w)

	// Create a recipe with a valid JPEG.
	id := createRecipe(t, h, alice, "Soup")

	w = doJSON(h, http.MethodGet, fmt.Sprintf("/api/recipes/%d", id), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	recipe := env["data"].(map[string]any)["recipe"].(map[string]any)
	assert.Equal(t, "Soup", recipe["recipeName"])
	assert.Equal(t, "alice", recipe["authorName"])

	// A different signed-in user cannot delete it.
	bob := signUp(t, h, "bob", "bob@example.com", "secret2")
	w = doJSON(h, http.MethodDelete, fmt.Sprintf("/api/recipes/%d", id), bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The author can.
	w = doJSON(h, http.MethodDelete, fmt.Sprintf("/api/recipes/%d", id), alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(h, http.MethodGet, fmt.Sprintf("/api/recipes/%d", id), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSignUp_NeverReturnsPassword(t *testing.T) {
	h := newTestServer(t)

	w := doJSON(h, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "alice", "email": "alice@example.com",
		"password": "secret1", "confirmPassword": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotContains(t, w.Body.String(), "secret1")
}

func TestSignUp_ValidationDetails(t *testing.T) {
	h := newTestServer(t)

	w := doJSON(h, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "al", "email": "bad", "password": "x", "confirmPassword": "y",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decodeEnvelope(t, w)
	assert.Equal(t, false, env["success"])
	errBody := env["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", errBody["code"])
	details := errBody["details"].(map[string]any)
	assert.Contains(t, details, "username")
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
}

func TestSignUp_DuplicateConflict(t *testing.T) {
	h := newTestServer(t)
	signUp(t, h, "alice", "alice@example.com", "secret1")

	w := doJSON(h, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "alice", "email": "other@example.com",
		"password": "secret1", "confirmPassword": "secret1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSignIn_WrongPassword(t *testing.T) {
	h := newTestServer(t)
	signUp(t, h, "alice", "alice@example.com", "secret1")

	w := doJSON(h, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email": "alice@example.com", "password": "nope99",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe(t *testing.T) {
	h := newTestServer(t)
	cookie := signUp(t, h, "alice", "alice@example.com", "secret1")

	w := doJSON(h, http.MethodGet, "/api/auth/me", cookie, nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	user := env["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])

	w = doJSON(h, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignOut_InvalidatesSession(t *testing.T) {
	h := newTestServer(t)
	cookie := signUp(t, h, "alice", "alice@example.com", "secret1")

	w := doJSON(h, http.MethodPost, "/api/auth/signout", cookie, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")

	w = doJSON(h, http.MethodGet, "/api/auth/me", cookie, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRecipe_RequiresAuth(t *testing.T) {
	h := newTestServer(t)
	contentType, body := multipartRecipe(t, "Soup", true)

	r := httptest.NewRequest(http.MethodPost, "/api/recipes", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRecipe_MissingImage(t *testing.T) {
	h := newTestServer(t)
	cookie := signUp(t, h, "alice", "alice@example.com", "secret1")

	contentType, body := multipartRecipe(t, "Soup", false)
	r := httptest.NewRequest(http.MethodPost, "/api/recipes", body)
	r.Header.Set("Content-Type", contentType)
	r.Header.Set("Cookie", cookieName+"="+cookie)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRecipe_OversizedBodyRejected(t *testing.T) {
	h := newTestServerWithLimit(t, 1024)
	cookie := signUp(t, h, "alice", "alice@example.com", "secret1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("recipeName", "Soup"))
	require.NoError(t, mw.WriteField("description", "A warm soup"))
	require.NoError(t, mw.WriteField("ingredients", "water\nsalt"))
	require.NoError(t, mw.WriteField("directions", "boil\nserve"))

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="huge.jpg"`)
	hdr.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	// Far past the image limit plus the framing allowance.
	_, err = part.Write(bytes.Repeat([]byte{0xAB}, 2<<20))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/recipes", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	r.Header.Set("Cookie", cookieName+"="+cookie)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	env := decodeEnvelope(t, w)
	assert.Equal(t, "INVALID_IMAGE", env["error"].(map[string]any)["code"])
}

func TestUnauthorized_Envelope(t *testing.T) {
	h := newTestServer(t)

	w := doJSON(h, http.MethodGet, "/api/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, fmt.Sprint(w.Body.Len()), w.Header().Get("Content-Length"))

	env := decodeEnvelope(t, w)
	assert.Equal(t, false, env["success"])
	errBody := env["error"].(map[string]any)
	assert.Equal(t, "UNAUTHORIZED", errBody["code"])
	assert.Contains(t, errBody["message"], "sign in")
}

func TestCreateRecipe_RejectsJSONBody(t *testing.T) {
	h := newTestServer(t)
	cookie := signUp(t, h, "alice", "alice@example.com", "secret1")

	w := doJSON(h, http.MethodPost, "/api/recipes", cookie, map[string]string{"recipeName": "Soup"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateRecipe_JSONBody(t *testing.T) {
	h := newTestServer(t)
	cookie := signUp(t, h, "alice", "alice@example.com", "secret1")
	id := createRecipe(t, h, cookie, "Soup")

	w := doJSON(h, http.MethodPut, fmt.Sprintf("/api/recipes/%d", id), cookie, map[string]string{
		"recipeName":  "Better Soup",
		"description": "improved",
		"ingredients": "water\nsalt\npepper",
		"directions":  "boil\nseason\nserve",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decodeEnvelope(t, w)
	recipe := env["data"].(map[string]any)["recipe"].(map[string]any)
	assert.Equal(t, "Better Soup", recipe["recipeName"])
}

func TestRecipeList_SearchFilter(t *testing.T) {
	h := newTestServer(t)
	cookie := signUp(t, h, "alice", "alice@example.com", "secret1")
	createRecipe(t, h, cookie, "Soup")
	createRecipe(t, h, cookie, "Chocolate Cake")

	w := doJSON(h, http.MethodGet, "/api/recipes?search=cake", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	recipes := env["data"].(map[string]any)["recipes"].([]any)
	require.Len(t, recipes, 1)
}

func TestUnknownID(t *testing.T) {
	h := newTestServer(t)

	w := doJSON(h, http.MethodGet, "/api/recipes/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Non-numeric ids can never match a stored recipe.
	w = doJSON(h, http.MethodGet, "/api/recipes/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	h := newTestServer(t)

	w := doJSON(h, http.MethodGet, "/api/unknown", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "NOT_FOUND", env["error"].(map[string]any)["code"])
}

func TestGzipResponse(t *testing.T) {
	h := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/api/recipes", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Equal(t, fmt.Sprint(w.Body.Len()), w.Header().Get("Content-Length"))

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Contains(t, string(plain), `"success":true`)
}

func TestUncompressedContentLength(t *testing.T) {
	h := newTestServer(t)

	w := doJSON(h, http.MethodGet, "/api/recipes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, fmt.Sprint(w.Body.Len()), w.Header().Get("Content-Length"))
}
