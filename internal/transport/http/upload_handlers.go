package http

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// multipartOverhead is allowed on top of the file size for boundaries and headers.
const multipartOverhead = 1 << 20

// UploadHandlers stores files that chat messages later reference by URL.
type UploadHandlers struct {
	dir      string
	maxBytes int64
	log      *zerolog.Logger
}

// NewUploadHandlers creates upload handlers writing into dir.
func NewUploadHandlers(dir string, maxBytes int64, logger *zerolog.Logger) *UploadHandlers {
	return &UploadHandlers{dir: dir, maxBytes: maxBytes, log: logger}
}

// UploadResponse describes a stored file. FilePath is what clients put in a message's file url.
type UploadResponse struct {
	FilePath  string `json:"filePath"`
	Name      string `json:"name"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
}

// Upload handles a single-file multipart upload.
// POST /upload
func (h *UploadHandlers) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file too large"})
			return
		}
		h.log.Debug().Err(err).Msg("upload without file")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No file uploaded."})
		return
	}
	if fh.Size > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file too large"})
		return
	}

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		h.log.Error().Err(err).Str("dir", h.dir).Msg("create upload dir")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	stored := storedFileName(fh.Filename, time.Now())
	if err := c.SaveUploadedFile(fh, filepath.Join(h.dir, stored)); err != nil {
		h.log.Error().Err(err).Str("file", stored).Msg("save upload")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(fh.Filename))
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	h.log.Info().Str("file", stored).Int64("size", fh.Size).Msg("file uploaded")
	c.JSON(http.StatusOK, UploadResponse{
		FilePath:  "/uploads/" + stored,
		Name:      fh.Filename,
		MimeType:  mimeType,
		SizeBytes: fh.Size,
	})
}

// storedFileName builds a collision-free on-disk name that keeps the original base name readable.
func storedFileName(original string, now time.Time) string {
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), uuid.NewString()[:8], sanitizeFileName(original))
}

func sanitizeFileName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	cleaned = strings.TrimLeft(cleaned, ".")
	if cleaned == "" {
		return "file"
	}
	return cleaned
}
