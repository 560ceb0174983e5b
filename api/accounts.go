package api

import (
	"net/http"

	model2 "github.com/bookbank/bookbank/api/model"
	"github.com/bookbank/bookbank/api/middleware"
	"github.com/bookbank/bookbank/model"
	"github.com/gin-gonic/gin"
)

func (a Api) OpenAccount(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req model2.OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		respondWithError(c, err)
		return
	}

	account, err := a.bookbank.OpenAccount(c.Request.Context(), caller, model.AccountType(req.AccountType))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, account)
}

func (a Api) GetAccount(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	account, err := a.bookbank.GetAccount(c.Request.Context(), caller)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}
