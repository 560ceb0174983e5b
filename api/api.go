package api

import (
	"net/http"

	"github.com/bookbank/bookbank"
	"github.com/bookbank/bookbank/api/middleware"
	"github.com/bookbank/bookbank/config"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Api struct {
	bookbank  *bookbank.Bookbank
	router    *gin.Engine
	secretKey string
}

func (a Api) Router() *gin.Engine {
	router := a.router

	authed := router.Group("/", middleware.IdentityMiddleware(a.secretKey))

	authed.POST("/accounts", a.OpenAccount)
	authed.GET("/accounts/me", a.GetAccount)

	authed.POST("/transactions/deposit", a.Deposit)
	authed.POST("/transactions/withdraw", a.Withdraw)
	authed.POST("/transactions/loan-request", a.RequestLoan)
	authed.GET("/transactions/loans", a.ListLoans)
	authed.POST("/transactions/loans/:loan_id", a.RepayLoan)
	authed.GET("/transactions/money-transfer", a.TransferForm)
	authed.POST("/transactions/money-transfer", a.Transfer)
	authed.GET("/transactions/report", a.Report)

	return a.router
}

func NewAPI(b *bookbank.Bookbank) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.EnableTelemetry {
		r.Use(otelgin.Middleware(conf.ProjectName))
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, "server running...")
	})

	return &Api{bookbank: b, router: r, secretKey: conf.Server.SecretKey}
}
