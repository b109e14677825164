package router

import (
	"carteira/api"
	"carteira/config"
	_ "carteira/docs"
	"carteira/middleware"
	"carteira/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS())

	clock := service.SystemClock(cfg.Location())
	projection := service.NewProjectionService(db, clock, cfg.Projection.DiscretionaryCategories)
	payoff := service.NewPayoffService(db, projection)
	jwt := middleware.NewJWTManager(&cfg.JWT)

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		authHandler := api.NewAuthHandler(cfg, db, jwt)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", middleware.LoginRateLimit(cfg.RateLimit.LoginAttempts, cfg.LoginWindow()), authHandler.Login)
		}

		// 类别（无需登录）
		v1.GET("/categories", api.NewCategoryHandler(cfg, db).List)

		authorized := v1.Group("")
		authorized.Use(jwt.Auth())
		{
			authorized.GET("/auth/profile", authHandler.GetProfile)
			authorized.PUT("/auth/password", authHandler.ChangePassword)
			authorized.PUT("/auth/income", authHandler.UpdateIncome)
			authorized.DELETE("/auth/account", authHandler.DeleteAccount)

			expenseHandler := api.NewExpenseHandler(cfg, db, clock)
			expenses := authorized.Group("/expenses")
			{
				expenses.POST("", expenseHandler.Create)
				expenses.GET("", expenseHandler.List)
				expenses.GET("/:id", expenseHandler.Get)
				expenses.PUT("/:id", expenseHandler.Update)
				expenses.PATCH("/:id/pay", expenseHandler.Pay)
				expenses.DELETE("/:id", expenseHandler.Delete)
			}

			installmentHandler := api.NewInstallmentHandler(cfg, db)
			installments := authorized.Group("/installments")
			{
				installments.POST("", installmentHandler.Create)
				installments.GET("", installmentHandler.List)
				installments.GET("/:id", installmentHandler.Get)
				installments.PUT("/:id", installmentHandler.Update)
				installments.POST("/:id/replicate", installmentHandler.Replicate)
				installments.DELETE("/:id", installmentHandler.Delete)
			}

			debtHandler := api.NewDebtHandler(cfg, db, payoff)
			debts := authorized.Group("/debts")
			{
				debts.POST("", debtHandler.Create)
				debts.GET("", debtHandler.List)
				debts.GET("/:id", debtHandler.Get)
				debts.PUT("/:id", debtHandler.Update)
				debts.DELETE("/:id", debtHandler.Delete)
				debts.GET("/:id/payoff", debtHandler.Payoff)
			}

			goalHandler := api.NewGoalHandler(cfg, db, payoff)
			goals := authorized.Group("/goals")
			{
				goals.POST("", goalHandler.Create)
				goals.GET("", goalHandler.List)
				goals.GET("/:id", goalHandler.Get)
				goals.PUT("/:id", goalHandler.Update)
				goals.DELETE("/:id", goalHandler.Delete)
				goals.GET("/:id/payoff", goalHandler.Payoff)
			}

			incomeHandler := api.NewExtraIncomeHandler(cfg, db)
			incomes := authorized.Group("/extra-incomes")
			{
				incomes.POST("", incomeHandler.Create)
				incomes.GET("", incomeHandler.List)
				incomes.GET("/:id", incomeHandler.Get)
				incomes.PUT("/:id", incomeHandler.Update)
				incomes.DELETE("/:id", incomeHandler.Delete)
			}

			dashboardHandler := api.NewDashboardHandler(cfg, db, projection, payoff)
			dashboard := authorized.Group("/dashboard")
			{
				dashboard.GET("/projection", dashboardHandler.Projection)
				dashboard.POST("/projection/email", dashboardHandler.EmailProjection)
				dashboard.GET("/home", dashboardHandler.Home)
			}

			exportHandler := api.NewExportHandler(cfg, db)
			export := authorized.Group("/export")
			{
				export.GET("/csv", exportHandler.ExportCSV)
				export.GET("/json", exportHandler.ExportJSON)
				export.GET("/excel", exportHandler.ExportExcel)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}
