package api

import (
	"errors"
	"net/http"

	"github.com/bookbank/bookbank"
	alerts "github.com/bookbank/bookbank/internal/notification"
	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
)

var (
	badRequestErrors = []error{bookbank.ErrLoanLimitExceeded}
	notFoundErrors   = []error{bookbank.ErrRecipientNotFound, bookbank.ErrAccountNotFound, bookbank.ErrLoanNotFound}
	conflictErrors   = []error{
		bookbank.ErrInsufficientFunds,
		bookbank.ErrInsufficientFundsForLoanRepayment,
		bookbank.ErrLoanNotApproved,
		bookbank.ErrLoanAlreadyPaid,
		bookbank.ErrAccountExists,
	}
)

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondWithError writes the response for an error returned by the service.
// Field errors are keyed by field name; every other known error carries its
// message under "error".
func respondWithError(c *gin.Context, err error) {
	var validationErr *bookbank.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{validationErr.Field: validationErr.Message}})
		return
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": fieldErrs})
		return
	}

	switch {
	case matchesAny(err, badRequestErrors):
		c.JSON(http.StatusBadRequest, gin.H{"error": domainMessage(err, badRequestErrors)})
	case matchesAny(err, notFoundErrors):
		c.JSON(http.StatusNotFound, gin.H{"error": domainMessage(err, notFoundErrors)})
	case matchesAny(err, conflictErrors):
		c.JSON(http.StatusConflict, gin.H{"error": domainMessage(err, conflictErrors)})
	default:
		logrus.WithField("path", c.FullPath()).Error(err)
		alerts.NotifyError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again later."})
	}
}

// domainMessage returns the sentinel's own message, without the operation prefix.
func domainMessage(err error, targets []error) string {
	for _, target := range targets {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}
