package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/bookbank/bookbank"
	model2 "github.com/bookbank/bookbank/api/model"
	"github.com/bookbank/bookbank/api/middleware"
	"github.com/bookbank/bookbank/model"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type amountOperation func(ctx context.Context, caller model.Caller, amount decimal.Decimal) (*bookbank.Result, error)

func (a Api) Deposit(c *gin.Context) {
	a.handleAmount(c, a.bookbank.Deposit)
}

func (a Api) Withdraw(c *gin.Context) {
	a.handleAmount(c, a.bookbank.Withdraw)
}

func (a Api) RequestLoan(c *gin.Context) {
	a.handleAmount(c, a.bookbank.RequestLoan)
}

func (a Api) handleAmount(c *gin.Context, op amountOperation) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req model2.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		respondWithError(c, err)
		return
	}

	resp, err := op(c.Request.Context(), caller, *req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (a Api) ListLoans(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	loans, err := a.bookbank.ListLoans(c.Request.Context(), caller)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loans": loans})
}

func (a Api) RepayLoan(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	loanID, err := strconv.ParseInt(c.Param("loan_id"), 10, 64)
	if err != nil || loanID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "loan_id must be a positive number"})
		return
	}

	resp, err := a.bookbank.RepayLoan(c.Request.Context(), caller, loanID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// TransferForm describes the money transfer inputs for clients that render the form.
func (a Api) TransferForm(c *gin.Context) {
	c.JSON(http.StatusOK, model2.TransferForm(bookbank.MinTransferAmount))
}

func (a Api) Transfer(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req model2.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		respondWithError(c, err)
		return
	}

	resp, err := a.bookbank.Transfer(c.Request.Context(), caller, req.RecipientAccountNo(), *req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Report streams the caller's report. The summary is written first and the
// entries follow as they are read from the ledger, so a failure after the
// first page is reported in the "error" field of an otherwise 200 response.
func (a Api) Report(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	dateRange, err := bookbank.ParseDateRange(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	report, err := a.bookbank.Report(ctx, caller, dateRange)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := json.Marshal(report.Summary)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Type", "application/json; charset=utf-8")
	c.Status(http.StatusOK)
	w := c.Writer
	_, _ = w.WriteString(`{"summary":`)
	_, _ = w.Write(summary)
	_, _ = w.WriteString(`,"transactions":[`)

	var iterErr error
	first := true
	for txn, err := range report.Entries(ctx) {
		if err != nil {
			iterErr = err
			break
		}
		entry, err := txn.ToJSON()
		if err != nil {
			iterErr = err
			break
		}
		if !first {
			_, _ = w.WriteString(",")
		}
		first = false
		_, _ = w.Write(entry)
		w.Flush()
	}
	_, _ = w.WriteString("]")

	if iterErr != nil {
		logrus.WithField("account_no", report.Summary.AccountNo).Errorf("report stream interrupted: %v", iterErr)
		msg, _ := json.Marshal("Report could not be completed. Please try again later.")
		_, _ = w.WriteString(`,"error":`)
		_, _ = w.Write(msg)
	}
	_, _ = w.WriteString("}")
}
