package router

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-recipe-api/config"
	"github.com/oksasatya/go-recipe-api/internal/container"
	"github.com/oksasatya/go-recipe-api/internal/infrastructure/memory"
	"github.com/oksasatya/go-recipe-api/internal/infrastructure/storage"
	"github.com/oksasatya/go-recipe-api/internal/interface/middleware"
	"github.com/oksasatya/go-recipe-api/pkg/helpers"
	"github.com/oksasatya/go-recipe-api/pkg/validation"
)

type envelope struct {
	Status  int               `json:"status"`
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Meta    json.RawMessage   `json:"meta"`
	Error   map[string]string `json:"error"`
}

type testAPI struct {
	t         *testing.T
	engine    *gin.Engine
	redis     *miniredis.Miniredis
	mediaRoot string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()
	helpers.PasswordCost = bcrypt.MinCost

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	mediaRoot := t.TempDir()
	cfg := &config.Config{
		AppName:             "recipe-api",
		CookieDomain:        "localhost",
		MaxUploadBytes:      1 << 20,
		DebugMetricsEnabled: true,
	}

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetStore(memory.NewStore())
	container.SetRedis(rdb)
	container.SetJWT(helpers.NewJWTManager("access", "refresh", time.Minute, time.Hour))
	container.SetImageStorage(storage.NewLocal(mediaRoot, "/media"))
	container.SetRecipeIndex(nil)
	container.SetRabbitPub(nil)
	container.SetPGPool(nil)
	container.SetES(nil)
	container.SetGCS(nil)

	engine := gin.New()
	engine.Use(middleware.RequestIDMiddleware())
	reg := NewRegistry(engine, container.GetLogger())
	InitModules(reg)
	reg.RegisterAll()

	return &testAPI{t: t, engine: engine, redis: mr, mediaRoot: mediaRoot}
}

func (a *testAPI) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.serve(req)
}

func (a *testAPI) serve(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

// signup registers and logs in a user and returns the access token.
func (a *testAPI) signup(email string) string {
	a.t.Helper()
	w, _ := a.do(http.MethodPost, "/api/user/create", "", map[string]any{"email": email, "password": "password123", "name": "Cook"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	w, env := a.do(http.MethodPost, "/api/user/token", "", map[string]any{"email": email, "password": "password123"})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var tok struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &tok))
	require.NotEmpty(a.t, tok.Token)
	return tok.Token
}

type recipeBody struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	TimeMinutes int    `json:"time_minutes"`
	Price       string `json:"price"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Tags        []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"tags"`
	Ingredients []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"ingredients"`
}

func (a *testAPI) createRecipe(token string, body map[string]any) recipeBody {
	a.t.Helper()
	w, env := a.do(http.MethodPost, "/api/recipe/recipes", token, body)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var rec recipeBody
	require.NoError(a.t, json.Unmarshal(env.Data, &rec))
	return rec
}

func recipePath(id int64) string {
	return "/api/recipe/recipes/" + strconv.FormatInt(id, 10)
}

func TestRoutes_RequireAuthentication(t *testing.T) {
	api := newTestAPI(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/recipe/recipes"},
		{http.MethodPost, "/api/recipe/recipes"},
		{http.MethodGet, "/api/recipe/recipes/1"},
		{http.MethodGet, "/api/recipe/tags"},
		{http.MethodGet, "/api/recipe/ingredients"},
		{http.MethodGet, "/api/user/me"},
	} {
		w, env := api.do(tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
		assert.False(t, env.Success)
	}

	w, _ := api.do(http.MethodGet, "/api/recipe/recipes", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserRoutes_RegisterLoginAndProfile(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("Cook@Example.COM")

	w, env := api.do(http.MethodGet, "/api/user/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "Cook@example.com", me.Email)
	assert.NotContains(t, string(env.Data), "password")

	w, env = api.do(http.MethodPatch, "/api/user/me", token, map[string]any{"name": "Chef"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "Chef", me.Name)

	w, env = api.do(http.MethodPost, "/api/user/create", "", map[string]any{"email": "cook@example.com", "password": "password123"})
	assert.Equal(t, http.StatusCreated, w.Code, "local part is case sensitive")

	w, env = api.do(http.MethodPost, "/api/user/create", "", map[string]any{"email": "Cook@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = api.do(http.MethodPost, "/api/user/create", "", map[string]any{"email": "short@example.com", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "password")

	w, _ = api.do(http.MethodPost, "/api/user/token", "", map[string]any{"email": "Cook@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserRoutes_TokenSetsCookiesAndLogoutEndsSession(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("cook@example.com")

	w, _ := api.do(http.MethodPost, "/api/user/token", "", map[string]any{"email": "cook@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	var access *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "access_token" {
			access = c
		}
	}
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)

	// the second login rotated the session, so the first token is stale
	w, _ = api.do(http.MethodGet, "/api/user/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.AddCookie(access)
	w, _ = api.serve(req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/user/logout", nil)
	req.AddCookie(access)
	w, _ = api.serve(req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.AddCookie(access)
	w, _ = api.serve(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserRoutes_RefreshRotatesTokens(t *testing.T) {
	api := newTestAPI(t)
	api.signup("cook@example.com")

	w, _ := api.do(http.MethodPost, "/api/user/token", "", map[string]any{"email": "cook@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	var refresh *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "refresh_token" {
			refresh = c
		}
	}
	require.NotNil(t, refresh)
	assert.Equal(t, "/api/user", refresh.Path)

	w, _ = api.do(http.MethodPost, "/api/user/refresh", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/user/refresh", nil)
	req.AddCookie(refresh)
	w, env := api.serve(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tok struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tok))

	w, _ = api.do(http.MethodGet, "/api/user/me", tok.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// the old refresh token belonged to the rotated session
	req = httptest.NewRequest(http.MethodPost, "/api/user/refresh", nil)
	req.AddCookie(refresh)
	w, _ = api.serve(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecipeRoutes_CreateWithTagsAndIngredients(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("cook@example.com")

	rec := api.createRecipe(token, map[string]any{
		"title":        "Thai prawn curry",
		"time_minutes": 30,
		"price":        "7.5",
		"description":  "Spicy",
		"tags":         []map[string]string{{"name": "Thai"}, {"name": "Dinner"}},
		"ingredients":  []map[string]string{{"name": "Prawns"}},
	})
	assert.Equal(t, "Thai prawn curry", rec.Title)
	assert.Equal(t, "7.50", rec.Price)
	assert.Equal(t, "Spicy", rec.Description)
	require.Len(t, rec.Tags, 2)
	assert.Equal(t, "Thai", rec.Tags[0].Name)
	require.Len(t, rec.Ingredients, 1)

	again := api.createRecipe(token, map[string]any{
		"title": "Green curry", "time_minutes": 20, "price": 6,
		"tags": []map[string]string{{"name": "Thai"}},
	})
	require.Len(t, again.Tags, 1)
	assert.Equal(t, rec.Tags[0].ID, again.Tags[0].ID)

	w, env := api.do(http.MethodGet, "/api/recipe/tags", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tags []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tags))
	require.Len(t, tags, 2)
	assert.Equal(t, "Thai", tags[0].Name)
	assert.Equal(t, "Dinner", tags[1].Name)
}

func TestRecipeRoutes_ValidationErrors(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("cook@example.com")

	w, env := api.do(http.MethodPost, "/api/recipe/recipes", token, map[string]any{"title": "No price", "time_minutes": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "price")

	w, env = api.do(http.MethodPost, "/api/recipe/recipes", token, map[string]any{
		"title": "Blank tag", "time_minutes": 5, "price": "1.00",
		"tags": []map[string]string{{"name": ""}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "tags[0].name")

	w, _ = api.do(http.MethodPost, "/api/recipe/recipes", token, map[string]any{"title": "Neg", "time_minutes": -1, "price": "1.00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.do(http.MethodGet, "/api/recipe/recipes?tags=1,abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecipeRoutes_ListIsOwnNewestFirstWithoutDetailFields(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signup("alice@example.com")
	bob := api.signup("bob@example.com")

	first := api.createRecipe(alice, map[string]any{"title": "First", "time_minutes": 5, "price": "1.00", "description": "x"})
	second := api.createRecipe(alice, map[string]any{"title": "Second", "time_minutes": 5, "price": "1.00"})
	api.createRecipe(bob, map[string]any{"title": "Bob's", "time_minutes": 5, "price": "1.00"})

	w, env := api.do(http.MethodGet, "/api/recipe/recipes", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.EqualValues(t, second.ID, list[0]["id"])
	assert.EqualValues(t, first.ID, list[1]["id"])
	assert.NotContains(t, list[0], "description")
	assert.NotContains(t, list[0], "image")
	assert.Contains(t, list[0], "tags")
}

func TestRecipeRoutes_FilterByTagsAndIngredients(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("cook@example.com")

	vegan := api.createRecipe(token, map[string]any{"title": "Tofu bowl", "time_minutes": 5, "price": "1.00",
		"tags": []map[string]string{{"name": "Vegan"}}, "ingredients": []map[string]string{{"name": "Tofu"}}})
	quick := api.createRecipe(token, map[string]any{"title": "Omelette", "time_minutes": 5, "price": "1.00",
		"tags": []map[string]string{{"name": "Quick"}}, "ingredients": []map[string]string{{"name": "Egg"}}})
	api.createRecipe(token, map[string]any{"title": "Plain", "time_minutes": 5, "price": "1.00"})

	path := "/api/recipe/recipes?tags=" + strconv.FormatInt(vegan.Tags[0].ID, 10) + "," + strconv.FormatInt(quick.Tags[0].ID, 10)
	w, env := api.do(http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []recipeBody
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 2)

	w, env = api.do(http.MethodGet, path+"&ingredients="+strconv.FormatInt(quick.Ingredients[0].ID, 10), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, quick.ID, list[0].ID)
}

func TestRecipeRoutes_OtherUsersRecipeIsNotFound(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signup("alice@example.com")
	bob := api.signup("bob@example.com")
	rec := api.createRecipe(alice, map[string]any{"title": "Secret", "time_minutes": 5, "price": "1.00"})

	w, _ := api.do(http.MethodGet, recipePath(rec.ID), bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = api.do(http.MethodPatch, recipePath(rec.ID), bob, map[string]any{"title": "Mine"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = api.do(http.MethodPut, recipePath(rec.ID), bob, map[string]any{"title": "Mine", "time_minutes": 1, "price": "1.00"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = api.do(http.MethodDelete, recipePath(rec.ID), bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env := api.do(http.MethodGet, recipePath(rec.ID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got recipeBody
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Secret", got.Title)

	w, _ = api.do(http.MethodGet, "/api/recipe/recipes/abc", alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecipeRoutes_UpdateIgnoresOwnerField(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signup("alice@example.com")
	bob := api.signup("bob@example.com")

	w, env := api.do(http.MethodGet, "/api/user/me", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bobMe struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &bobMe))

	rec := api.createRecipe(alice, map[string]any{"title": "Mine", "time_minutes": 5, "price": "1.00"})
	w, _ = api.do(http.MethodPatch, recipePath(rec.ID), alice, map[string]any{"user": bobMe.ID, "title": "Still mine"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(http.MethodGet, recipePath(rec.ID), bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, env = api.do(http.MethodGet, recipePath(rec.ID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got recipeBody
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Still mine", got.Title)
}

func TestRecipeRoutes_PatchTagsReplaceAndClear(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("cook@example.com")
	rec := api.createRecipe(token, map[string]any{"title": "Pie", "time_minutes": 5, "price": "1.00",
		"tags": []map[string]string{{"name": "Lunch"}}})

	w, env := api.do(http.MethodPatch, recipePath(rec.ID), token, map[string]any{"tags": []map[string]string{{"name": "Dinner"}}})
	require.Equal(t, http.StatusOK, w.Code)
	var got recipeBody
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "Dinner", got.Tags[0].Name)

	w, env = api.do(http.MethodPatch, recipePath(rec.ID), token, map[string]any{"title": "Apple pie"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Len(t, got.Tags, 1)

	w, env = api.do(http.MethodPatch, recipePath(rec.ID), token, map[string]any{"tags": []any{}})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Empty(t, got.Tags)

	w, env = api.do(http.MethodGet, "/api/recipe/tags?assigned_only=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestRecipeRoutes_DeleteReturnsNoContent(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("cook@example.com")
	rec := api.createRecipe(token, map[string]any{"title": "Gone", "time_minutes": 5, "price": "1.00"})

	w, _ := api.do(http.MethodDelete, recipePath(rec.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, w.Body.Len())

	w, _ = api.do(http.MethodGet, recipePath(rec.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func imageUpload(t *testing.T, path, token string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if content != nil {
		fw, err := mw.CreateFormFile("image", "photo.png")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRecipeRoutes_UploadImage(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("cook@example.com")
	bob := api.signup("bob@example.com")
	rec := api.createRecipe(token, map[string]any{"title": "Pictured", "time_minutes": 5, "price": "1.00"})

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	path := recipePath(rec.ID) + "/upload-image"

	w, env := api.serve(imageUpload(t, path, token, img.Bytes()))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got struct {
		Image string `json:"image"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.True(t, strings.HasPrefix(got.Image, "/media/uploads/recipe/"))
	_, err := os.Stat(filepath.Join(api.mediaRoot, strings.TrimPrefix(got.Image, "/media/")))
	assert.NoError(t, err)

	w, env = api.serve(imageUpload(t, path, token, []byte("not an image")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "image")

	w, env = api.serve(imageUpload(t, path, token, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no file was submitted", env.Error["image"])

	w, _ = api.serve(imageUpload(t, path, bob, img.Bytes()))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = api.serve(imageUpload(t, path, bob, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttributeRoutes_RenameDeleteAndScope(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signup("alice@example.com")
	bob := api.signup("bob@example.com")
	rec := api.createRecipe(alice, map[string]any{"title": "Soup", "time_minutes": 5, "price": "1.00",
		"ingredients": []map[string]string{{"name": "Leek"}}})
	ingPath := "/api/recipe/ingredients/" + strconv.FormatInt(rec.Ingredients[0].ID, 10)

	w, _ := api.do(http.MethodPatch, ingPath, bob, map[string]any{"name": "Mine"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = api.do(http.MethodDelete, ingPath, bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, env := api.do(http.MethodGet, "/api/recipe/ingredients", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))

	w, env = api.do(http.MethodPut, ingPath, alice, map[string]any{"name": "Leeks"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":`+strconv.FormatInt(rec.Ingredients[0].ID, 10)+`,"name":"Leeks"}`, string(env.Data))

	w, _ = api.do(http.MethodPatch, ingPath, alice, map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.do(http.MethodDelete, ingPath, alice, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = api.do(http.MethodGet, "/api/recipe/tags?assigned_only=yes", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDebugVars(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("cook@example.com")
	api.createRecipe(token, map[string]any{"title": "Counted", "time_minutes": 5, "price": "1.00"})

	w, _ := api.do(http.MethodGet, "/api/debug/vars", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "recipes_created")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestUnknownRoutesAnswerWithEnvelope(t *testing.T) {
	api := newTestAPI(t)

	w, env := api.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "not found", env.Message)

	w, env = api.do(http.MethodDelete, "/api/user/create", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.False(t, env.Success)

	w, _ = api.do(http.MethodGet, "/elsewhere", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, w.Body.Len())
}

func TestHealthReportsBackingServices(t *testing.T) {
	api := newTestAPI(t)

	w, env := api.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var status map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, map[string]string{"redis": "ok"}, status)

	api.redis.SetError("LOADING")
	w, env = api.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, env.Error["redis"], "LOADING")
}
