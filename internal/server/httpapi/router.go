package httpapi

import "github.com/gin-gonic/gin"

// NewRouter wires the API routes. Auth and ping are public; everything else
// requires a valid access token.
func NewRouter(h *Handlers, verifier tokenVerifier) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	{
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)
		api.POST("/auth/refresh", h.refresh)
		api.GET("/ping", h.ping)
	}

	protected := api.Group("/")
	protected.Use(authRequired(verifier))
	{
		protected.GET("/entries", h.listEntries)
		protected.PUT("/entries/:id", h.upsertEntry)
		protected.GET("/entries/:id", h.getEntry)
		protected.DELETE("/entries/:id", h.deleteEntry)

		protected.POST("/files/presign-put", h.presignPut)
		protected.GET("/files/presign-get", h.presignGet)
	}

	return router
}
