package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MyButtermilk/Scriber-sub000/internal/api/v1/dto"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/provider"
)

// ProviderHandler exposes the routing view of the provider fleet.
type ProviderHandler struct {
	router *provider.Router
}

func NewProviderHandler(router *provider.Router) *ProviderHandler {
	return &ProviderHandler{router: router}
}

// List returns the current candidate chain, default provider first.
func (h *ProviderHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Code: 0, Data: h.router.Candidates()})
}

// Health returns the circuit state of every provider the router has seen.
func (h *ProviderHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Code: 0, Data: dto.FromSnapshots(h.router.Health())})
}
