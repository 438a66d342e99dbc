package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/refexsite/internal/db"
	"github.com/refexsite/internal/stock"
	"github.com/refexsite/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
	cookie string
}

type stubQuotes struct{}

func (stubQuotes) Fetch(_ context.Context, exchange, symbol string) (stock.Quote, error) {
	if exchange == stock.ExchangeNSE {
		return stock.Quote{}, errors.New("nse offline")
	}
	return stock.Quote{Exchange: exchange, Symbol: symbol, Price: 412.35}, nil
}

type stubDownloader struct{}

func (stubDownloader) Download(context.Context, stock.HistoryRequest) ([]byte, error) {
	return []byte("Date,Close Price\n05-Mar-2024,100.5\n"), nil
}

func setupHandlerTest(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	if _, err := db.SetUserPassword(gdb, "admin", "s3cret"); err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}

	stockSvc := stock.NewService(gdb, stock.Options{
		BSECode:    "532884",
		NSESymbol:  "REFEX",
		Downloader: stubDownloader{},
		Quotes:     stubQuotes{},
	})
	api := NewAPI(gdb, Options{
		Store:          storage.NewLocalStore(t.TempDir(), "/uploads"),
		Stock:          stockSvc,
		UploadMaxBytes: 1 << 20,
	})

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	auth := AuthRequired()
	r.POST("/api/auth/login", api.Login)
	r.POST("/api/auth/logout", api.Logout)
	r.GET("/api/auth/me", api.Me)
	api.RegisterContentRoutes(r.Group("/api/cms"), auth)
	r.POST("/api/upload/image", auth, api.UploadImage)
	r.POST("/api/upload/pdf", auth, api.UploadPDF)
	r.GET("/api/admin/settings", auth, api.GetSystemSettings)
	r.PUT("/api/admin/settings", auth, api.UpdateSystemSettings)
	r.GET("/api/stock/quote", api.GetStockQuote)
	r.GET("/api/stock/quotes", api.GetStockQuotes)
	r.GET("/api/stock/history", api.GetStockHistory)
	r.POST("/api/stock/history/refresh", auth, api.RefreshStockHistory)
	r.POST("/api/stock/history/import", auth, api.ImportStockHistory)
	r.GET("/healthz", api.HealthCheck)

	return &testServer{engine: r, db: gdb}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req)
}

func (s *testServer) send(req *http.Request) *httptest.ResponseRecorder {
	if s.cookie != "" {
		req.Header.Set("Cookie", s.cookie)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/login", `{"username":"admin","password":"s3cret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	s.cookie = strings.Split(rec.Header().Get("Set-Cookie"), ";")[0]
	if s.cookie == "" {
		t.Fatal("expected a session cookie")
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

func TestAuthFlow(t *testing.T) {
	s := setupHandlerTest(t)

	if rec := s.do(t, http.MethodGet, "/api/auth/me", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before login, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/auth/login", `{"username":"admin","password":"wrong"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rec.Code)
	}

	s.login(t)
	rec := s.do(t, http.MethodGet, "/api/auth/me", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"username":"admin"`) {
		t.Fatalf("unexpected me response %d %s", rec.Code, rec.Body.String())
	}
}

func TestCollectionRoutes(t *testing.T) {
	s := setupHandlerTest(t)

	if rec := s.do(t, http.MethodPost, "/api/cms/home/awards", `{"title":"x"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected mutations to require a session, got %d", rec.Code)
	}

	s.login(t)
	var ids []uint
	for _, body := range []string{`{"title":"Best CSR"}`, `{"title":"Green","isActive":false}`, `{"title":"Safety"}`} {
		rec := s.do(t, http.MethodPost, "/api/cms/home/awards", body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create award: %d %s", rec.Code, rec.Body.String())
		}
		ids = append(ids, decode[db.Award](t, rec).ID)
	}

	rec := s.do(t, http.MethodPut, fmt.Sprintf("/api/cms/home/awards/%d", ids[0]), `{"year":"2024"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update award: %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[db.Award](t, rec); got.Title != "Best CSR" || got.Year != "2024" {
		t.Fatalf("expected partial update, got %+v", got)
	}

	rec = s.do(t, http.MethodPut, "/api/cms/home/awards/reorder", fmt.Sprintf(`{"ids":[%d,%d,%d]}`, ids[2], ids[1], ids[0]))
	if rec.Code != http.StatusOK {
		t.Fatalf("reorder: %d %s", rec.Code, rec.Body.String())
	}

	s.cookie = ""
	public := decode[[]db.Award](t, s.do(t, http.MethodGet, "/api/cms/home/awards?all=true", ""))
	if len(public) != 2 || public[0].Title != "Safety" || public[1].Title != "Best CSR" {
		t.Fatalf("expected active awards in new order, got %+v", public)
	}
	if rec := s.do(t, http.MethodGet, fmt.Sprintf("/api/cms/home/awards/%d", ids[1]), ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected inactive award hidden from public, got %d", rec.Code)
	}

	s.login(t)
	all := decode[[]db.Award](t, s.do(t, http.MethodGet, "/api/cms/home/awards?all=true", ""))
	if len(all) != 3 {
		t.Fatalf("expected admin to see all awards, got %d", len(all))
	}

	if rec := s.do(t, http.MethodDelete, fmt.Sprintf("/api/cms/home/awards/%d", ids[0]), ""); rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodDelete, fmt.Sprintf("/api/cms/home/awards/%d", ids[0]), ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on repeated delete, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPut, "/api/cms/home/awards/abc", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/cms/home/awards", `{"title":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", rec.Code)
	}
}

func TestSingletonRoutes(t *testing.T) {
	s := setupHandlerTest(t)

	rec := s.do(t, http.MethodGet, "/api/cms/layout/footer", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing footer, got %d", rec.Code)
	}
	if body := decode[map[string]string](t, rec); body["error"] == "" {
		t.Fatalf("expected error message, got %v", body)
	}

	s.login(t)
	rec = s.do(t, http.MethodPut, "/api/cms/layout/footer", `{"email":"info@refex.co.in","socials":[{"name":"linkedin"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert footer: %d %s", rec.Code, rec.Body.String())
	}
	first := decode[db.FooterContent](t, rec)

	rec = s.do(t, http.MethodPost, "/api/cms/layout/footer", `{"phone":"+91 44 4340 5900"}`)
	second := decode[db.FooterContent](t, rec)
	if second.ID != first.ID || second.Email != "info@refex.co.in" || second.Phone == "" {
		t.Fatalf("expected upsert onto the same row, got %+v", second)
	}

	s.cookie = ""
	got := decode[db.FooterContent](t, s.do(t, http.MethodGet, "/api/cms/layout/footer", ""))
	if got.ID != first.ID || !strings.Contains(string(got.Socials), "linkedin") {
		t.Fatalf("unexpected footer %+v", got)
	}
}

func TestPressReleaseDetailRendersMarkdown(t *testing.T) {
	s := setupHandlerTest(t)
	s.login(t)

	rec := s.do(t, http.MethodPost, "/api/cms/newsroom/press-releases", `{"title":"Q4 results","content":"**Record** revenue"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create press release: %d %s", rec.Code, rec.Body.String())
	}
	id := decode[db.PressRelease](t, rec).ID

	s.cookie = ""
	body := decode[map[string]any](t, s.do(t, http.MethodGet, fmt.Sprintf("/api/cms/newsroom/press-releases/%d", id), ""))
	if body["title"] != "Q4 results" || !strings.Contains(body["html"].(string), "<strong>Record</strong>") {
		t.Fatalf("unexpected detail %v", body)
	}
}

func TestPageRoutes(t *testing.T) {
	s := setupHandlerTest(t)

	if rec := s.do(t, http.MethodGet, "/api/cms/pages/privacy-policy", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	s.login(t)
	if rec := s.do(t, http.MethodPut, "/api/cms/pages/privacy-policy", `{"content":"  "}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty content, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPut, "/api/cms/pages/privacy-policy", `{"content":"# Privacy\n\nWe respect it."}`); rec.Code != http.StatusOK {
		t.Fatalf("save page: %d %s", rec.Code, rec.Body.String())
	}

	body := decode[map[string]map[string]string](t, s.do(t, http.MethodGet, "/api/cms/pages/privacy-policy", ""))
	if body["page"]["title"] != "Privacy Policy" || !strings.Contains(body["page"]["html"], "<h1") {
		t.Fatalf("unexpected page %v", body)
	}
}

func TestSettingsRoutes(t *testing.T) {
	s := setupHandlerTest(t)
	s.login(t)

	rec := s.do(t, http.MethodPut, "/api/admin/settings", `{"siteName":"Refex","stockApiKey":"abc"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update settings: %d %s", rec.Code, rec.Body.String())
	}
	body := decode[map[string]map[string]string](t, s.do(t, http.MethodGet, "/api/admin/settings", ""))
	if body["settings"]["siteName"] != "Refex" || body["settings"]["stockApiKey"] != "abc" {
		t.Fatalf("unexpected settings %v", body)
	}
}

func multipartRequest(t *testing.T, path, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename)}
	header["Content-Type"] = []string{contentType}
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write(data)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadRoutes(t *testing.T) {
	s := setupHandlerTest(t)
	s.login(t)

	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.White)
	var pngData bytes.Buffer
	if err := png.Encode(&pngData, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	rec := s.send(multipartRequest(t, "/api/upload/image", "image", "hero.PNG", "image/png", pngData.Bytes()))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload image: %d %s", rec.Code, rec.Body.String())
	}
	body := decode[map[string]any](t, rec)
	if !strings.HasPrefix(body["url"].(string), "/uploads/images/") || body["width"].(float64) != 3 || body["height"].(float64) != 2 {
		t.Fatalf("unexpected upload response %v", body)
	}

	rec = s.send(multipartRequest(t, "/api/upload/image", "image", "notes.txt", "text/plain", []byte("hi")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected non-image to be rejected, got %d", rec.Code)
	}

	rec = s.send(multipartRequest(t, "/api/upload/pdf", "pdf", "report.pdf", "application/pdf", []byte("%PDF-1.7 body")))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/uploads/pdfs/") {
		t.Fatalf("upload pdf: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.send(multipartRequest(t, "/api/upload/pdf", "pdf", "fake.pdf", "application/pdf", []byte("not a pdf")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected fake pdf to be rejected, got %d", rec.Code)
	}

	big := make([]byte, (1<<20)+10)
	copy(big, "%PDF-")
	rec = s.send(multipartRequest(t, "/api/upload/pdf", "pdf", "big.pdf", "application/pdf", big))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversized upload, got %d", rec.Code)
	}
}

func TestStockRoutes(t *testing.T) {
	s := setupHandlerTest(t)

	rec := s.do(t, http.MethodGet, "/api/stock/quote?exchange=bse", "")
	body := decode[map[string]any](t, rec)
	if rec.Code != http.StatusOK || body["status"] != true {
		t.Fatalf("unexpected quote response %d %v", rec.Code, body)
	}

	rec = s.do(t, http.MethodGet, "/api/stock/quote?exchange=NSE", "")
	body = decode[map[string]any](t, rec)
	if rec.Code != http.StatusBadGateway || body["status"] != false || body["msg"] == "" {
		t.Fatalf("expected stock failure envelope, got %d %v", rec.Code, body)
	}

	rec = s.do(t, http.MethodGet, "/api/stock/quotes", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "nse offline") {
		t.Fatalf("expected partial quotes, got %d %s", rec.Code, rec.Body.String())
	}

	if rec := s.do(t, http.MethodGet, "/api/stock/history?from=yesterday", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rec.Code)
	}

	s.login(t)
	rec = s.do(t, http.MethodPost, "/api/stock/history/refresh", `{"from":"2024-03-01","to":"2024-03-31"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", rec.Code, rec.Body.String())
	}
	rec = s.send(multipartRequest(t, "/api/stock/history/import", "file", "history.csv", "text/csv", []byte("Date,Close\n06-Mar-2024,101\n")))
	if rec.Code != http.StatusOK {
		t.Fatalf("import: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/stock/history?from=2024-03-01&to=2024-03-31", "")
	history := decode[struct {
		Status bool            `json:"status"`
		Data   []db.StockPrice `json:"data"`
	}](t, rec)
	if !history.Status || len(history.Data) != 2 || history.Data[0].Close != 100.5 {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestHealthCheck(t *testing.T) {
	s := setupHandlerTest(t)
	rec := s.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"database":"up"`) {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}
}

func TestUploadsStoreValidatedExtension(t *testing.T) {
	s := setupHandlerTest(t)
	s.login(t)

	rec := s.send(multipartRequest(t, "/api/upload/pdf", "pdf", "report.html", "application/pdf", []byte("%PDF-1.7\n<script>alert(1)</script>")))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload pdf: %d %s", rec.Code, rec.Body.String())
	}
	body := decode[map[string]any](t, rec)
	if url := body["url"].(string); !strings.HasSuffix(url, ".pdf") {
		t.Fatalf("expected stored pdf to end in .pdf, got %q", url)
	}

	var pngData bytes.Buffer
	if err := png.Encode(&pngData, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	rec = s.send(multipartRequest(t, "/api/upload/image", "image", "banner.html", "image/png", pngData.Bytes()))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload image: %d %s", rec.Code, rec.Body.String())
	}
	body = decode[map[string]any](t, rec)
	if url := body["url"].(string); !strings.HasSuffix(url, ".png") {
		t.Fatalf("expected stored image to end in .png, got %q", url)
	}

	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)
	rec = s.send(multipartRequest(t, "/api/upload/image", "image", "logo.svg", "image/svg+xml", svg))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected svg upload to be rejected, got %d", rec.Code)
	}
}

func TestReorderUnknownIDIsNotFound(t *testing.T) {
	s := setupHandlerTest(t)
	s.login(t)

	rec := s.do(t, http.MethodPost, "/api/cms/home/awards", `{"title":"Best CSR"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create award: %d %s", rec.Code, rec.Body.String())
	}
	created := decode[db.Award](t, rec)

	rec = s.do(t, http.MethodPut, "/api/cms/home/awards/reorder", fmt.Sprintf(`{"ids":[%d,4242]}`, created.ID))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for stale reorder, got %d %s", rec.Code, rec.Body.String())
	}
}
