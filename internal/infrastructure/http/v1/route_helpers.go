package v1

import (
	"github.com/gin-gonic/gin"

	"opserp/internal/core/security"
	"opserp/internal/infrastructure/http/v1/handlers"
	"opserp/internal/infrastructure/http/v1/middleware"
)

// Permission checks happen in the domain services; only routes that bypass
// them carry a RequirePermission guard.

func registerRequestRoutes(group *gin.RouterGroup, h *handlers.RequestHandler) {
	requests := group.Group("/requests")
	requests.GET("", h.List)
	requests.POST("", h.Create)
	requests.GET("/:id", h.Get)
	requests.DELETE("/:id", h.Delete)
	requests.POST("/:id/approve", h.Approve)
	requests.POST("/:id/reject", h.Reject)
	requests.POST("/:id/advance", h.Advance)
	requests.GET("/:id/evaluation", h.Evaluate)
	if h.HasHistory() {
		requests.GET("/:id/history", middleware.RequirePermission(security.PermRequestView), h.History)
	}
}

func registerStockRoutes(group *gin.RouterGroup, h *handlers.StockHandler) {
	items := group.Group("/stock/items")
	items.GET("", h.ListItems)
	items.POST("", h.CreateItem)
	items.GET("/:id", h.GetItem)
	items.PUT("/:id", h.UpdateItem)
	items.GET("/:id/allocations", h.ListAllocations)
	items.POST("/:id/allocations", h.Allocate)

	group.DELETE("/stock/allocations/:id", h.Release)
}

func registerAccessRoutes(group *gin.RouterGroup, h *handlers.AccessHandler) {
	group.GET("/me", h.Me)
	group.GET("/me/pages", h.MyPages)

	group.GET("/permissions", h.ListPermissions)
	group.POST("/permissions", h.DefinePermission)
	group.GET("/pages", h.ListPages)
	group.POST("/pages", h.DefinePage)

	group.GET("/roles", h.ListRoles)
	group.GET("/roles/:name", h.GetRole)
	group.PUT("/roles/:name", h.DefineRole)
	group.DELETE("/roles/:name", h.DeleteRole)

	group.PUT("/actors", h.UpsertActor)
}
