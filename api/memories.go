package api

import (
	"github.com/gin-gonic/gin"

	"github.com/lifemap/memorymap/memory"
	"github.com/lifemap/memorymap/server"
)

func (h *Handlers) createMemory(c *gin.Context) {
	var in memory.CreateMemoryInput
	if err := bindJSON(c, &in); err != nil {
		server.RespondWithError(c, err)
		return
	}
	m, err := h.Memories.Create(c.Request.Context(), in)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, m)
}

func (h *Handlers) listMemories(c *gin.Context) {
	limit, err := limitParam(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	list, err := h.Memories.List(c.Request.Context(), limit)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, list)
}

func (h *Handlers) getMemory(c *gin.Context) {
	m, err := h.Memories.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, m)
}

func (h *Handlers) updateMemory(c *gin.Context) {
	var in memory.UpdateMemoryInput
	if err := bindJSON(c, &in); err != nil {
		server.RespondWithError(c, err)
		return
	}
	m, err := h.Memories.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, m)
}

func (h *Handlers) deleteMemory(c *gin.Context) {
	if err := h.Memories.Delete(c.Request.Context(), c.Param("id")); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"deleted": true, "id": c.Param("id")})
}
