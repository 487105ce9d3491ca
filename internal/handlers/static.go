package handlers

import (
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// serveStatic delivers the dashboard from the www directory. Assets are
// shipped pre-compressed; a ".gz" sibling is preferred and served with
// Content-Encoding while the MIME type follows the original extension.
// Unknown extensionless paths fall back to the root index so client-side
// routing keeps working after a reload.
func (h *Handler) serveStatic(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.Header("Allow", "GET, HEAD")
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
		return
	}

	reqPath := c.Request.URL.Path

	// Unmatched /api paths are API misses, not dashboard routes.
	if reqPath == "/api" || strings.HasPrefix(reqPath, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if strings.Contains(reqPath, "..") {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	if reqPath == "/" {
		reqPath = "/index.html"
	}

	clean := path.Clean("/" + reqPath)
	full := filepath.Join(h.wwwDir, filepath.FromSlash(clean))

	if h.tryServeFile(c, full, clean) {
		return
	}

	// SPA fallback: only page-looking paths get the index; asset misses
	// stay hard 404s so broken references surface in the browser.
	ext := path.Ext(clean)
	if ext == "" || ext == ".html" {
		if h.tryServeFile(c, filepath.Join(h.wwwDir, "index.html"), "/index.html") {
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

// tryServeFile serves full (preferring a precompressed sibling) and
// reports whether the response was written. Read failures on an existing
// file write a 500 and still report true.
func (h *Handler) tryServeFile(c *gin.Context, full, urlPath string) bool {
	if gz := full + ".gz"; fileExists(gz) {
		body, err := os.ReadFile(gz)
		if err != nil {
			h.staticReadError(c, gz, err)
			return true
		}
		c.Header("Content-Encoding", "gzip")
		c.Data(http.StatusOK, mimeFor(urlPath), body)
		return true
	}

	if fileExists(full) {
		body, err := os.ReadFile(full)
		if err != nil {
			h.staticReadError(c, full, err)
			return true
		}
		c.Data(http.StatusOK, mimeFor(urlPath), body)
		return true
	}
	return false
}

func (h *Handler) staticReadError(c *gin.Context, name string, err error) {
	if h.log != nil {
		h.log.Errorw("static_read_failed", "file", name, "err", err)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
}

func fileExists(name string) bool {
	info, err := os.Stat(name)
	return err == nil && info.Mode().IsRegular()
}

// mimeFor maps the original (uncompressed) extension to a content type.
func mimeFor(urlPath string) string {
	if t := mime.TypeByExtension(path.Ext(urlPath)); t != "" {
		return t
	}
	return "application/octet-stream"
}
