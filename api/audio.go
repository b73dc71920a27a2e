package api

import (
	"github.com/gin-gonic/gin"

	"github.com/lifemap/memorymap/memory"
	"github.com/lifemap/memorymap/server"
)

func (h *Handlers) createAudio(c *gin.Context) {
	var in memory.CreateAudioInput
	if err := bindJSON(c, &in); err != nil {
		server.RespondWithError(c, err)
		return
	}
	rec, err := h.Audio.Create(c.Request.Context(), in)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, rec)
}

func (h *Handlers) listAudio(c *gin.Context) {
	limit, err := limitParam(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	list, err := h.Audio.List(c.Request.Context(), limit)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, list)
}

func (h *Handlers) getAudio(c *gin.Context) {
	rec, err := h.Audio.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, rec)
}

func (h *Handlers) deleteAudio(c *gin.Context) {
	if err := h.Audio.Delete(c.Request.Context(), c.Param("id")); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"deleted": true, "id": c.Param("id")})
}
