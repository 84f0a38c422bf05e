package joinpage

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/akeren/mandarin-waitlist/config/router"
	"github.com/akeren/mandarin-waitlist/internal/log"
	"github.com/akeren/mandarin-waitlist/pkg/constants"
	apperrors "github.com/akeren/mandarin-waitlist/pkg/errors"
)

const serviceName = "join-page"

var (
	errResourceNotFound = apperrors.NewNotFoundError("Resource not found", nil)
	errAssetNotFound    = apperrors.NewNotFoundError("Asset not found", nil)
)

// Deep-link association files. Both are JSON regardless of extension.
var wellKnownFiles = map[string]bool{
	"apple-app-site-association": true,
	"assetlinks.json":            true,
}

type Config struct {
	// Dir is the directory holding the page, .well-known/ and assets/.
	Dir string
	// File is the page served for every trip id.
	File string
	Now  func() time.Time
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	TS      string `json:"ts"`
}

type JoinPageController struct {
	cfg    Config
	logger *log.Logger
	assets http.FileSystem
	site   http.FileSystem
}

func NewJoinPageController(cfg Config, logger *log.Logger) *router.RESTController {
	if cfg.File == "" {
		cfg.File = "trip-join.html"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ctrl := &JoinPageController{
		cfg:    cfg,
		logger: logger,
		assets: http.Dir(filepath.Join(cfg.Dir, "assets")),
		site:   http.Dir(cfg.Dir),
	}

	return router.NewRESTController(
		"JoinPageController",
		"/",
		func(rs *router.RouterService, c *router.RESTController) {
			rs.AddRawGetHandler(c, nil, "join/:tripId", ctrl.joinPage)
			rs.AddRawGetHandler(c, nil, "health", ctrl.health)
			rs.AddRawGetHandler(c, nil, ".well-known/:file", ctrl.wellKnown)
			rs.AddRawGetHandler(c, nil, "assets/*filepath", ctrl.asset)
			rs.SetFallbackHandler(c, nil, ctrl.siteFile)
		},
	)
}

// The trip id is resolved client-side; every id gets the same page.
func (ctrl *JoinPageController) joinPage(c *router.RequestContext) {
	page := filepath.Join(ctrl.cfg.Dir, ctrl.cfg.File)

	info, err := os.Stat(page)
	switch {
	case errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()):
		router.GetLogger(c).Error("Join page file missing", "path", page)
		abort(c, apperrors.NewNotFoundError("Join page not found", err))
		return
	case err != nil:
		router.GetLogger(c).Error("Failed to stat join page", "path", page, "error", err)
		abort(c, apperrors.NewInternalServerError("Join page unavailable", err))
		return
	}

	c.File(page)
}

func (ctrl *JoinPageController) health(c *router.RequestContext) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: serviceName,
		TS:      ctrl.cfg.Now().UTC().Format(constants.ISO8601MillisFormat),
	})
}

func (ctrl *JoinPageController) wellKnown(c *router.RequestContext) {
	name := c.Param("file")
	if !wellKnownFiles[name] {
		abort(c, errResourceNotFound)
		return
	}

	body, err := os.ReadFile(filepath.Join(ctrl.cfg.Dir, ".well-known", name))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			router.GetLogger(c).Error("Failed to read well-known file", "file", name, "error", err)
		}
		abort(c, errResourceNotFound)
		return
	}

	c.Data(http.StatusOK, "application/json", body)
}

func (ctrl *JoinPageController) asset(c *router.RequestContext) {
	if !serveFile(c, ctrl.assets, c.Param("filepath"), false) {
		abort(c, errAssetNotFound)
	}
}

// siteFile serves any other file under Dir, such as images the page links
// to. Dotfiles are ignored and a directory answers with its index.html.
func (ctrl *JoinPageController) siteFile(c *router.RequestContext) {
	name := c.Request.URL.Path
	if hasDotSegment(name) || !serveFile(c, ctrl.site, name, true) {
		abort(c, errResourceNotFound)
	}
}

// serveFile writes name from root and reports whether it did. Directories
// are never listed.
func serveFile(c *router.RequestContext, root http.FileSystem, name string, index bool) bool {
	f, err := root.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false
	}
	if info.IsDir() {
		if !index {
			return false
		}
		return serveFile(c, root, path.Join(name, "index.html"), false)
	}

	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
	return true
}

func hasDotSegment(name string) bool {
	for _, segment := range strings.Split(name, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}

func abort(c *router.RequestContext, err error) {
	result := router.AppErrorResult(err)
	c.AbortWithStatusJSON(result.StatusCode, result.ToJSON())
}
