package api

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/lifemap/memorymap/errors"
	"github.com/lifemap/memorymap/server"
	"github.com/lifemap/memorymap/transcription"
	"github.com/lifemap/memorymap/util"
)

func (h *Handlers) transcribe(c *gin.Context) {
	if h.Transcriber == nil {
		unavailable(c, "transcription")
		return
	}
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

	req := transcription.Request{
		Audio:        file,
		Filename:     header.Filename,
		Model:        c.PostForm("model"),
		Debug:        util.ParseFormBool(c.PostForm("debug")),
		Fast:         util.ParseFormBool(c.PostForm("fast")),
		TargetScript: c.PostForm("target_script"),
		Language:     c.PostForm("language"),
	}
	if req.BeamSize, err = formInt(c, "beam_size"); err != nil {
		server.RespondWithError(c, err)
		return
	}
	if req.Threads, err = formInt(c, "threads"); err != nil {
		server.RespondWithError(c, err)
		return
	}

	res, err := h.Transcriber.Transcribe(c.Request.Context(), req)
	if err != nil {
		server.RespondWithError(c, transcription.AppError(err))
		return
	}
	server.RespondOK(c, res)
}

// formInt reads an optional non-negative integer field.
func formInt(c *gin.Context, field string) (int, error) {
	v, ok, err := util.ParseFormInt(c.PostForm(field))
	if err != nil || (ok && v < 0) {
		return 0, apperrors.InvalidInput(field, field+" must be a non-negative integer")
	}
	return v, nil
}
