package static

import (
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/freekieb7/phantom/cache"
	"github.com/freekieb7/phantom/config"
	"github.com/freekieb7/phantom/filesystem"
	"github.com/freekieb7/phantom/http"
)

// HomeCacheKey is the cache slot holding the home resource.
const HomeCacheKey = "home"

// Asset content types, first match wins. Image extensions match in any case.
var assetTypes = []struct {
	pattern *regexp.Regexp
	header  func(config.Headers) http.Header
}{
	{regexp.MustCompile(`\.css$`), func(h config.Headers) http.Header { return h.CSS }},
	{regexp.MustCompile(`\.js$`), func(h config.Headers) http.Header { return h.JS }},
	{regexp.MustCompile(`(?i)\.png$`), func(h config.Headers) http.Header { return h.PNG }},
	{regexp.MustCompile(`(?i)\.jpe?g$`), func(h config.Headers) http.Header { return h.JPG }},
	{regexp.MustCompile(`(?i)\.gif$`), func(h config.Headers) http.Header { return h.GIF }},
}

// Server serves files below the document root. The home resource is served
// from the cache when caching is enabled.
type Server struct {
	docRoot    string
	indexFile  string
	homeMarker string
	cacheHome  bool
	headers    config.Headers

	fs     filesystem.Filesystem
	cache  cache.Store
	logger *slog.Logger
}

func NewServer(cfg config.Config, fs filesystem.Filesystem, store cache.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		store = cache.NewMemoryStore()
	}

	return &Server{
		docRoot:    strings.TrimSuffix(cfg.DocRoot, "/"),
		indexFile:  cfg.IndexFile,
		homeMarker: cfg.HomeMarker,
		cacheHome:  cfg.CacheIndexFile,
		headers:    cfg.Headers,
		fs:         fs,
		cache:      store,
		logger:     logger,
	}
}

// Filename maps a decoded URL path below the document root. The path is
// cleaned first so that dot segments cannot leave the root; a trailing slash
// is kept.
func (s *Server) Filename(urlPath string) string {
	cleaned := path.Clean("/" + urlPath)
	if strings.HasSuffix(urlPath, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return s.docRoot + cleaned
}

// IsHome reports whether filename is the public entry point of the document root.
func (s *Server) IsHome(filename string) bool {
	return strings.HasSuffix(filename, s.homeMarker)
}

// Serve fills res for urlPath. target is the request target as sent, used in
// the not found message.
func (s *Server) Serve(res *http.Response, urlPath, target string) {
	filename := s.Filename(urlPath)

	exists, err := s.fs.FileExists(filename)
	if err != nil {
		s.serverError(res, err)
		return
	}

	switch {
	case !exists:
		s.notFound(res, target)
	case s.IsHome(filename):
		s.serveHome(res, filename)
	default:
		s.serveAsset(res, filename)
	}
}

func (s *Server) notFound(res *http.Response, target string) {
	res.Header = s.headers.Default.Clone()
	res.WithStatus(http.StatusNotFound).WithText("404 resource not found [" + target + "]")
}

func (s *Server) serverError(res *http.Response, err error) {
	s.logger.Error("static resource read failed", "error", err)

	res.Header = s.headers.Default.Clone()
	res.WithStatus(http.StatusInternalServerError).WithText(err.Error() + "\n")
}

func (s *Server) serveHome(res *http.Response, dir string) {
	if s.cacheHome {
		if cached := s.cache.Get(HomeCacheKey, nil); cached != nil {
			s.logger.Debug("serving home resource from cache")
			s.writeHome(res, cached)
			return
		}
	}

	content, err := s.fs.ReadFile(dir + s.indexFile)
	if err != nil {
		s.serverError(res, err)
		return
	}

	if s.cacheHome {
		s.logger.Debug("storing home resource in cache", "bytes", len(content))
		s.cache.Put(HomeCacheKey, content)
	}

	s.writeHome(res, content)
}

func (s *Server) writeHome(res *http.Response, content []byte) {
	header := s.headers.Default.Clone()
	header.Set("Content-Type", http.ContentTypeHTML)

	res.WithStatus(http.StatusOK).WithHeader(header).WithBody(content)
}

func (s *Server) serveAsset(res *http.Response, filename string) {
	content, err := s.fs.ReadFile(filename)
	if err != nil {
		s.serverError(res, err)
		return
	}

	header := s.headers.Default
	for _, assetType := range assetTypes {
		if assetType.pattern.MatchString(filename) {
			header = assetType.header(s.headers)
			break
		}
	}

	res.WithStatus(http.StatusOK).WithHeader(header.Clone()).WithBody(content)
}
