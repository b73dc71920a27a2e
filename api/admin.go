package api

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/lifemap/memorymap/errors"
	"github.com/lifemap/memorymap/memory"
	"github.com/lifemap/memorymap/server"
)

func (h *Handlers) uploadVoice(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		server.RespondWithError(c, formFileError(err))
		return
	}
	defer file.Close()
	if err := h.checkFileSize(header); err != nil {
		server.RespondWithError(c, err)
		return
	}

	rec, err := h.Voice.Upload(c.Request.Context(), memory.UploadVoiceInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
		Metadata:    c.PostForm("metadata"),
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, gin.H{"success": true, "record": rec})
}

func (h *Handlers) listVoice(c *gin.Context) {
	limit, err := limitParam(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	list, err := h.Voice.List(c.Request.Context(), limit)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"records": list, "total": len(list)})
}

func (h *Handlers) getVoice(c *gin.Context) {
	rec, err := h.Voice.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, rec)
}

// analyzeVoice accepts the id as ?id= or as a form or JSON field.
func (h *Handlers) analyzeVoice(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		id = c.PostForm("id")
	}
	if id == "" && c.ContentType() == "application/json" {
		var body struct {
			ID string `json:"id"`
		}
		_ = bindJSON(c, &body)
		id = body.ID
	}
	if id == "" {
		server.RespondWithError(c, apperrors.MissingField("id"))
		return
	}
	rec, err := h.Voice.Analyze(c.Request.Context(), id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondAccepted(c, gin.H{"success": true, "message": "analysis started", "record": rec})
}

func (h *Handlers) uploadPhoto(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		server.RespondWithError(c, formFileError(err))
		return
	}
	defer file.Close()
	if err := h.checkFileSize(header); err != nil {
		server.RespondWithError(c, err)
		return
	}

	out, err := h.Photos.Upload(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, out)
}

// formFileError maps a failed multipart read: an oversized body stays a
// 413, anything else means the file field is missing.
func formFileError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return apperrors.MissingField("file")
}

// checkFileSize rejects a multipart file above MaxFileSize.
func (h *Handlers) checkFileSize(header *multipart.FileHeader) error {
	if h.MaxFileSize > 0 && header.Size > h.MaxFileSize {
		return apperrors.PayloadTooLarge(h.MaxFileSize)
	}
	return nil
}
