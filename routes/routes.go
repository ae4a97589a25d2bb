package routes

import (
	"event-finance-api/controllers"
	"event-finance-api/middleware"
	"event-finance-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", controllers.Login)
			public.POST("/refresh", controllers.RefreshToken)

			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Event Finance API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Events
			events := protected.Group("/events")
			{
				events.GET("", controllers.GetEvents)
				events.GET("/:id", controllers.GetEvent)
				events.POST("", middleware.RequireRole(models.RoleAdmin, models.RoleEventManager), controllers.CreateEvent)
				events.PUT("/:id", middleware.RequireRole(models.RoleAdmin, models.RoleEventManager), controllers.UpdateEvent)
				events.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), controllers.DeleteEvent)

				// Budget items
				events.GET("/:id/budget-items", controllers.GetBudgetItems)
				events.POST("/:id/budget-items", middleware.RequireRole(models.RoleAdmin, models.RoleEventManager), controllers.CreateBudgetItem)
				events.PUT("/:id/budget-items/:item_id", middleware.RequireRole(models.RoleAdmin, models.RoleEventManager), controllers.UpdateBudgetItem)
				events.DELETE("/:id/budget-items/:item_id", middleware.RequireRole(models.RoleAdmin, models.RoleEventManager), controllers.DeleteBudgetItem)

				// Vendor assignment and metrics
				events.POST("/:id/vendors", middleware.RequireRole(models.RoleAdmin, models.RoleEventManager), controllers.AssignVendorToEvent)
				events.GET("/:id/metrics", controllers.GetEventMetricsEndpoint)
			}

			// Expenses
			expenses := protected.Group("/expenses")
			{
				expenses.GET("", controllers.GetExpenses)
				expenses.GET("/:id", controllers.GetExpense)
				expenses.POST("", controllers.CreateExpense)
				expenses.PUT("/:id", controllers.UpdateExpense)
				expenses.DELETE("/:id", controllers.DeleteExpense)

				// Two-tier approval: managers record the first sign-off,
				// admins finalize. Role checks inside the service decide
				// tiering; the route gate keeps viewers/finance out early.
				expenses.POST("/:id/approve", middleware.RequireRole(models.RoleAdmin, models.RoleEventManager), controllers.ApproveExpense)
				expenses.POST("/:id/reject", middleware.RequireRole(models.RoleAdmin, models.RoleEventManager), controllers.RejectExpense)
			}

			// Vendors
			vendors := protected.Group("/vendors")
			{
				vendors.GET("", controllers.GetVendors)
				vendors.GET("/:id", controllers.GetVendor)
				vendors.GET("/:id/metrics", controllers.GetVendorMetricsEndpoint)
				vendors.POST("", middleware.RequireRole(models.RoleAdmin, models.RoleEventManager), controllers.CreateVendor)
				vendors.PUT("/:id", middleware.RequireRole(models.RoleAdmin, models.RoleEventManager), controllers.UpdateVendor)
				vendors.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), controllers.DeleteVendor)
			}

			// Users (admin only)
			users := protected.Group("/users")
			users.Use(middleware.RequireRole(models.RoleAdmin))
			{
				users.GET("", controllers.GetUsers)
				users.POST("", controllers.CreateUser)
				users.PUT("/:id", controllers.UpdateUser)
				users.DELETE("/:id", controllers.DeleteUser)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.GET("/unread-count", controllers.GetUnreadCount)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			}

			// Dashboard metrics
			protected.GET("/dashboard", controllers.GetDashboardMetrics)
			protected.POST("/metrics/recompute", middleware.RequireRole(models.RoleAdmin), controllers.RecomputeAllMetricsEndpoint)

			// Reports (finance and up)
			reports := protected.Group("/reports")
			reports.Use(middleware.RequireRole(models.RoleAdmin, models.RoleEventManager, models.RoleFinance))
			{
				reports.GET("/events/:id/expenses.csv", controllers.ExportEventExpensesCSV)
				reports.GET("/events/:id/budget.csv", controllers.ExportEventBudgetCSV)
			}

			// Activity log (admin only)
			protected.GET("/activity", middleware.RequireRole(models.RoleAdmin), controllers.GetActivityLog)
		}
	}
}
