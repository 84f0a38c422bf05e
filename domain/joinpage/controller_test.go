package joinpage

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/akeren/mandarin-waitlist/config/router"
	"github.com/akeren/mandarin-waitlist/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type JoinPageTestSuite struct {
	suite.Suite
	dir    string
	router *router.RouterService
}

func (s *JoinPageTestSuite) SetupTest() {
	s.T().Setenv("METRICS_ENABLED", "false")
	s.dir = s.T().TempDir()

	s.writeFile("trip-join.html", "<html><body>Join trip</body></html>")
	s.writeFile(".well-known/apple-app-site-association", `{"applinks":{"details":[]}}`)
	s.writeFile(".well-known/assetlinks.json", `[{"relation":["delegate_permission/common.handle_all_urls"]}]`)
	s.writeFile("assets/app.js", "console.log('join')")
	s.writeFile("root-only.txt", "outside assets")

	logger := log.NewLoggerWithJSONOutput()
	s.router = router.CreateRouterService(logger, nil, &router.RouterConfig{
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})

	fixed := time.Date(2026, 3, 4, 5, 6, 7, 891_000_000, time.FixedZone("ULAT", 8*3600))
	s.router.MountController(NewJoinPageController(Config{
		Dir: s.dir,
		Now: func() time.Time { return fixed },
	}, logger))
}

func (s *JoinPageTestSuite) writeFile(rel, content string) {
	path := filepath.Join(s.dir, rel)
	s.Require().NoError(os.MkdirAll(filepath.Dir(path), 0o755))
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
}

func (s *JoinPageTestSuite) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func (s *JoinPageTestSuite) TestJoinServesPageForAnyTrip() {
	for _, path := range []string{"/join/abc123", "/join/another-trip"} {
		w := s.get(path)

		s.Equal(http.StatusOK, w.Code, path)
		s.Contains(w.Header().Get("Content-Type"), "text/html")
		s.Contains(w.Body.String(), "Join trip")
	}
}

func (s *JoinPageTestSuite) TestJoinMissingFileReturns404() {
	s.Require().NoError(os.Remove(filepath.Join(s.dir, "trip-join.html")))

	w := s.get("/join/abc123")

	s.Equal(http.StatusNotFound, w.Code)
	s.Contains(w.Body.String(), "Join page not found")
}

func (s *JoinPageTestSuite) TestHealth() {
	w := s.get("/health")
	s.Require().Equal(http.StatusOK, w.Code)

	var body HealthResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))

	s.Equal("ok", body.Status)
	s.Equal("join-page", body.Service)
	s.Equal("2026-03-03T21:06:07.891Z", body.TS)
}

func (s *JoinPageTestSuite) TestWellKnownFilesAreJSON() {
	for _, name := range []string{"apple-app-site-association", "assetlinks.json"} {
		w := s.get("/.well-known/" + name)

		s.Equal(http.StatusOK, w.Code, name)
		s.Equal("application/json", w.Header().Get("Content-Type"), name)
		s.True(json.Valid(w.Body.Bytes()), name)
	}
}

func (s *JoinPageTestSuite) TestWellKnownRejectsOtherNames() {
	s.writeFile(".well-known/security.txt", "contact")

	s.Equal(http.StatusNotFound, s.get("/.well-known/security.txt").Code)
}

func (s *JoinPageTestSuite) TestAssets() {
	w := s.get("/assets/app.js")
	s.Equal(http.StatusOK, w.Code)
	s.Equal("console.log('join')", w.Body.String())

	s.Equal(http.StatusNotFound, s.get("/assets/missing.js").Code)
	s.Equal(http.StatusNotFound, s.get("/assets/").Code)
	s.NotContains(s.get("/assets/../root-only.txt").Body.String(), "outside assets")
}

func (s *JoinPageTestSuite) TestSiteRootServesLinkedFiles() {
	s.writeFile("img/mandarin.svg", "<svg/>")
	s.writeFile("index.html", "<html>landing</html>")

	w := s.get("/img/mandarin.svg")
	s.Equal(http.StatusOK, w.Code)
	s.Equal("<svg/>", w.Body.String())
	s.Contains(w.Header().Get("Content-Type"), "image/svg+xml")

	s.Equal("outside assets", s.get("/root-only.txt").Body.String())
	s.Contains(s.get("/").Body.String(), "landing")
}

func (s *JoinPageTestSuite) TestSiteRootRefusesHiddenAndMissing() {
	s.writeFile(".env", "SECRET=1")
	s.writeFile(".git/config", "[core]")
	s.writeFile("img/.cache/x.png", "hidden")

	for _, path := range []string{"/.env", "/.git/config", "/img/.cache/x.png", "/missing.png", "/img/"} {
		w := s.get(path)

		s.Equal(http.StatusNotFound, w.Code, path)
		s.Contains(w.Header().Get("Content-Type"), "application/json", path)
	}

	post := httptest.NewRecorder()
	s.router.GetEngine().ServeHTTP(post, httptest.NewRequest(http.MethodPost, "/root-only.txt", nil))
	s.Equal(http.StatusNotFound, post.Code)
}

func TestJoinPageSuite(t *testing.T) {
	suite.Run(t, new(JoinPageTestSuite))
}

func TestDefaults(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "false")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trip-join.html"), []byte("page"), 0o644))

	logger := log.NewLoggerWithJSONOutput()
	rs := router.CreateRouterService(logger, nil, &router.RouterConfig{
		RateLimitRequests: 10,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    time.Second,
	})
	rs.MountController(NewJoinPageController(Config{Dir: dir}, logger))

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/join/x", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "page", w.Body.String())
}
