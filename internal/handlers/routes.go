package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts every storefront route on router.
func (h *Handlers) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/live", h.Live)
	router.GET("/version", h.Version)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:id", h.GetProduct)
		v1.GET("/categories", h.ListCategories)
		v1.POST("/freight/quote", h.QuoteFreight)

		v1.POST("/auth/login", h.Login)
		v1.POST("/auth/logout", h.Logout)
		v1.GET("/auth/me", h.Me)
		v1.PATCH("/auth/profile", h.UpdateProfile)

		v1.POST("/payments/webhook", h.PaymentWebhook)
	}

	authed := v1.Group("", h.RequireAuth())
	{
		authed.GET("/cart", h.GetCart)
		authed.POST("/cart/items", h.AddCartItem)
		authed.PUT("/cart/items/:id", h.UpdateCartItem)
		authed.DELETE("/cart/items/:id", h.RemoveCartItem)
		authed.DELETE("/cart", h.ClearCart)

		authed.GET("/favorites", h.ListFavorites)
		authed.PUT("/favorites/:id", h.AddFavorite)
		authed.DELETE("/favorites/:id", h.RemoveFavorite)

		authed.POST("/checkout", h.StartCheckout)
		authed.GET("/checkout/:id", h.GetCheckout)
		authed.PUT("/checkout/:id/freight", h.UpdateCheckoutFreight)
		authed.POST("/checkout/:id/submit", h.SubmitCheckout)
		authed.DELETE("/checkout/:id", h.CancelCheckout)

		authed.GET("/orders", h.ListOrders)
		authed.GET("/orders/:id", h.GetOrder)
	}
}
