package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes registers auth and profile routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", handler.SignUp)
		authGroup.POST("/login", handler.Login)
		authGroup.POST("/provider", handler.ProviderLogin)
	}

	r.POST("/user/profile", handler.UpdateProfile)
}
