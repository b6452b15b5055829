package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListFavorites handles GET /api/v1/favorites
func (h *Handlers) ListFavorites(c *gin.Context) {
	items, err := h.favorites.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"favorites": items,
		"count":     len(items),
	})
}

// AddFavorite handles PUT /api/v1/favorites/:id
func (h *Handlers) AddFavorite(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	fav, err := h.favorites.Add(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, fav)
}

// RemoveFavorite handles DELETE /api/v1/favorites/:id
func (h *Handlers) RemoveFavorite(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	if err := h.favorites.Remove(c.Request.Context(), currentUserID(c), id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
