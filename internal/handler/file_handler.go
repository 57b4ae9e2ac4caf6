package handler

import (
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/studyforge/studyforge/internal/pkg/errcode"
	"github.com/studyforge/studyforge/internal/pkg/response"
	"github.com/studyforge/studyforge/internal/service"
)

type FileHandler struct {
	files *service.FileService
}

func NewFileHandler(files *service.FileService) *FileHandler {
	return &FileHandler{files: files}
}

// Upload ingests one multipart document under the form field "file".
func (h *FileHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file field is required")
		return
	}
	src, err := header.Open()
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "open upload failed")
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "read upload failed")
		return
	}
	result, err := h.files.Upload(c.Request.Context(), header.Filename, data)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *FileHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	files, err := h.files.List(c.Request.Context(), offset, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"files": files})
}

func (h *FileHandler) Get(c *gin.Context) {
	file, err := h.files.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, file)
}

func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.files.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// Download streams the original upload by file id with an attachment
// disposition.
func (h *FileHandler) Download(c *gin.Context) {
	file, err := h.files.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	rc, err := h.files.OpenRaw(c.Request.Context(), file.StorageKey)
	if err != nil {
		handleError(c, err)
		return
	}
	defer rc.Close()
	contentType := mime.TypeByExtension(filepath.Ext(file.StorageKey))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Status(200)
	_, _ = io.Copy(c.Writer, rc)
}

// Raw streams stored bytes by filestore key; generated diagram images
// are served through here.
func (h *FileHandler) Raw(c *gin.Context) {
	key := c.Param("key")
	rc, err := h.files.OpenRaw(c.Request.Context(), key)
	if err != nil {
		handleError(c, err)
		return
	}
	defer rc.Close()
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(200)
	_, _ = io.Copy(c.Writer, rc)
}
