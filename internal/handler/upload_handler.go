package handler

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
)

const (
	imageFolder = "images"
	pdfFolder   = "pdfs"
)

// imageFormats maps image.DecodeConfig format names to the stored
// extension and content type. Anything else, SVG included, is refused.
var imageFormats = map[string]struct{ ext, contentType string }{
	"png":  {".png", "image/png"},
	"jpeg": {".jpg", "image/jpeg"},
	"gif":  {".gif", "image/gif"},
	"webp": {".webp", "image/webp"},
}

// UploadImage stores a raster image from the "image" form field and reports
// its URL and pixel size. The stored extension comes from the decoded
// format, never from the client filename.
func (a *API) UploadImage(c *gin.Context) {
	file, ok := a.formFile(c, "image", "no image uploaded")
	if !ok {
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(c, http.StatusBadRequest, "only image files are allowed")
		return
	}

	data, ok := readUpload(c, file)
	if !ok {
		return
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		respondError(c, http.StatusBadRequest, "unrecognised image data")
		return
	}
	kind, known := imageFormats[format]
	if !known {
		respondError(c, http.StatusBadRequest, "unsupported image format")
		return
	}

	url, ok := a.saveUpload(c, imageFolder, storedName(file.Filename, kind.ext), kind.contentType, data)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":      url,
		"filename": filepath.Base(url),
		"size":     len(data),
		"width":    cfg.Width,
		"height":   cfg.Height,
	})
}

// UploadPDF stores a PDF from the "pdf" form field, always with a .pdf
// extension.
func (a *API) UploadPDF(c *gin.Context) {
	file, ok := a.formFile(c, "pdf", "no pdf uploaded")
	if !ok {
		return
	}

	contentType := file.Header.Get("Content-Type")
	if contentType != "application/pdf" && !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		respondError(c, http.StatusBadRequest, "only pdf files are allowed")
		return
	}

	data, ok := readUpload(c, file)
	if !ok {
		return
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		respondError(c, http.StatusBadRequest, "file is not a pdf document")
		return
	}

	url, ok := a.saveUpload(c, pdfFolder, storedName(file.Filename, ".pdf"), "application/pdf", data)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":      url,
		"filename": filepath.Base(url),
		"size":     len(data),
	})
}

func (a *API) formFile(c *gin.Context, field, missing string) (*multipart.FileHeader, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.uploadMaxBytes+1<<20)
	file, err := c.FormFile(field)
	if err != nil {
		respondError(c, http.StatusBadRequest, missing)
		return nil, false
	}
	if file.Size > a.uploadMaxBytes {
		respondError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d MB", a.uploadMaxBytes>>20))
		return nil, false
	}
	return file, true
}

func readUpload(c *gin.Context, file *multipart.FileHeader) ([]byte, bool) {
	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read upload")
		return nil, false
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read upload")
		return nil, false
	}
	return data, true
}

// storedName swaps the client extension for ext so the static file server
// picks the content type from what was validated.
func storedName(filename, ext string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return base + ext
}

func (a *API) saveUpload(c *gin.Context, folder, filename, contentType string, data []byte) (string, bool) {
	if a.store == nil {
		respondError(c, http.StatusInternalServerError, "upload storage is not configured")
		return "", false
	}
	url, err := a.store.Save(c.Request.Context(), folder, filename, contentType, bytes.NewReader(data))
	if err != nil {
		a.logger.Error("save upload failed", zap.String("folder", folder), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to save file")
		return "", false
	}
	return url, true
}
