package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	actordomain "github.com/smallbiznis/fyxed/internal/actor/domain"
	analyticsdomain "github.com/smallbiznis/fyxed/internal/analytics/domain"
	auditdomain "github.com/smallbiznis/fyxed/internal/audit/domain"
	authdomain "github.com/smallbiznis/fyxed/internal/auth/domain"
	"github.com/smallbiznis/fyxed/internal/authorization"
	callbillingdomain "github.com/smallbiznis/fyxed/internal/callbilling/domain"
	commissiondomain "github.com/smallbiznis/fyxed/internal/commission/domain"
	creditdomain "github.com/smallbiznis/fyxed/internal/credit/domain"
	earningsdomain "github.com/smallbiznis/fyxed/internal/earnings/domain"
	invoicedomain "github.com/smallbiznis/fyxed/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/fyxed/internal/payment/domain"
	payoutdomain "github.com/smallbiznis/fyxed/internal/payout/domain"
	pipelinedomain "github.com/smallbiznis/fyxed/internal/pipeline/domain"
	saledomain "github.com/smallbiznis/fyxed/internal/sale/domain"
	sharesettingsdomain "github.com/smallbiznis/fyxed/internal/sharesettings/domain"
	"github.com/smallbiznis/fyxed/pkg/db"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

const (
	kindInvalidArgument    = "invalid_argument"
	kindValidation         = "validation_error"
	kindUnauthorized       = "unauthorized"
	kindForbidden          = "forbidden"
	kindNotFound           = "not_found"
	kindConflict           = "conflict"
	kindTooManyRequests    = "too_many_requests"
	kindServiceUnavailable = "service_unavailable"
	kindInternal           = "internal_error"
)

var unauthorizedErrors = []error{
	ErrUnauthorized,
	authdomain.ErrInvalidCredentials,
	authdomain.ErrInvalidToken,
	authdomain.ErrTokenExpired,
	authorization.ErrUnauthenticated,
	actordomain.ErrInvalidCredentials,
	actordomain.ErrInvalidOrganization,
	sharesettingsdomain.ErrInvalidOrganization,
	saledomain.ErrInvalidOrganization,
	pipelinedomain.ErrInvalidOrganization,
	analyticsdomain.ErrInvalidOrganization,
	earningsdomain.ErrInvalidOrganization,
	payoutdomain.ErrInvalidOrganization,
	invoicedomain.ErrInvalidOrganization,
	creditdomain.ErrInvalidOrganization,
	callbillingdomain.ErrInvalidOrganization,
	auditdomain.ErrInvalidOrganization,
}

var forbiddenErrors = []error{
	ErrForbidden,
	authorization.ErrForbidden,
	saledomain.ErrForbidden,
	pipelinedomain.ErrForbidden,
	earningsdomain.ErrForbidden,
	invoicedomain.ErrForbidden,
	creditdomain.ErrForbidden,
	callbillingdomain.ErrForbidden,
}

var notFoundErrors = []error{
	ErrNotFound,
	actordomain.ErrNotFound,
	actordomain.ErrSponsorNotFound,
	saledomain.ErrNotFound,
	pipelinedomain.ErrNotFound,
	pipelinedomain.ErrChecklistItemNotFound,
	earningsdomain.ErrNotFound,
	payoutdomain.ErrNotFound,
	invoicedomain.ErrNotFound,
	callbillingdomain.ErrNotFound,
	commissiondomain.ErrSellerNotFound,
	gorm.ErrRecordNotFound,
}

var conflictErrors = []error{
	ErrConflict,
	actordomain.ErrEmailTaken,
	saledomain.ErrInvalidStatusTransition,
	pipelinedomain.ErrInvalidStatusTransition,
	payoutdomain.ErrAlreadyPaid,
	invoicedomain.ErrInvalidStatusTransition,
	callbillingdomain.ErrDuplicateCall,
}

// Malformed input that never reached domain rules.
var invalidArgumentErrors = []error{
	ErrInvalidRequest,
	pagination.ErrInvalidPageToken,
	actordomain.ErrInvalidID,
	saledomain.ErrInvalidID,
	pipelinedomain.ErrInvalidID,
	earningsdomain.ErrInvalidID,
	payoutdomain.ErrInvalidID,
	invoicedomain.ErrInvalidID,
	callbillingdomain.ErrInvalidID,
	auditdomain.ErrInvalidActorID,
	paymentdomain.ErrInvalidSignature,
	paymentdomain.ErrInvalidPayload,
	commissiondomain.ErrNegativeAmount,
	saledomain.ErrInvalidAmount,
	actordomain.ErrSelfSponsor,
	pipelinedomain.ErrInvalidPhase,
	pipelinedomain.ErrInvalidStatus,
	pipelinedomain.ErrInvalidGoal,
	pipelinedomain.ErrInvalidContactMethod,
	pipelinedomain.ErrInvalidContactOutcome,
	pipelinedomain.ErrInvalidDealResult,
}

var validationErrors = []error{
	actordomain.ErrInvalidName,
	actordomain.ErrInvalidEmail,
	actordomain.ErrInvalidRole,
	sharesettingsdomain.ErrShareOutOfRange,
	sharesettingsdomain.ErrShareSumExceeded,
	saledomain.ErrInvalidSeller,
	saledomain.ErrInvalidStatus,
	saledomain.ErrInvalidSource,
	pipelinedomain.ErrInvalidName,
	pipelinedomain.ErrInvalidPriority,
	pipelinedomain.ErrInvalidDealValue,
	pipelinedomain.ErrInvalidChecklistLabel,
	analyticsdomain.ErrInvalidOwner,
	analyticsdomain.ErrInvalidTimeRange,
	earningsdomain.ErrInvalidTimeRange,
	payoutdomain.ErrInvalidMonth,
	payoutdomain.ErrInvalidStatus,
	invoicedomain.ErrInvalidSeller,
	invoicedomain.ErrInvalidCustomer,
	invoicedomain.ErrInvalidLines,
	invoicedomain.ErrInvalidStatus,
	creditdomain.ErrInvalidActor,
	creditdomain.ErrInvalidAmount,
	creditdomain.ErrInvalidType,
	callbillingdomain.ErrInvalidActor,
	callbillingdomain.ErrInvalidExternalID,
	callbillingdomain.ErrInvalidStatus,
	callbillingdomain.ErrInvalidCallWindow,
	callbillingdomain.ErrInvalidRate,
	auditdomain.ErrInvalidTimeRange,
	auditdomain.ErrInvalidAction,
	paymentdomain.ErrInvalidMetadata,
}

var unavailableErrors = []error{
	ErrServiceUnavailable,
	authdomain.ErrSecretNotSet,
	paymentdomain.ErrInvalidConfig,
	callbillingdomain.ErrCallsAPIDisabled,
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		if status == http.StatusTooManyRequests {
			if retry := c.Writer.Header().Get("Retry-After"); retry == "" {
				c.Header("Retry-After", "60")
			}
		}
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return ErrInvalidRequest
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{Type: kindInternal, Message: "internal server error"}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    kindValidation,
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch kind := classifyError(err); kind {
	case kindValidation:
		code := err.Error()
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    kindValidation,
			Message: "validation error",
			Errors: []ValidationError{
				{Field: validationErrorField(code), Code: code, Message: validationErrorMessage(code)},
			},
		}
	case kindInvalidArgument:
		return http.StatusBadRequest, errorPayload{Type: kind, Message: invalidArgumentMessage(err)}
	case kindUnauthorized:
		return http.StatusUnauthorized, errorPayload{Type: kind, Message: "unauthorized"}
	case kindForbidden:
		return http.StatusForbidden, errorPayload{Type: kind, Message: "forbidden"}
	case kindNotFound:
		return http.StatusNotFound, errorPayload{Type: kind, Message: "not found"}
	case kindConflict:
		return http.StatusConflict, errorPayload{Type: kind, Message: conflictMessage(err)}
	case kindTooManyRequests:
		return http.StatusTooManyRequests, errorPayload{Type: kind, Message: "too many requests"}
	case kindServiceUnavailable:
		return http.StatusServiceUnavailable, errorPayload{Type: kind, Message: "service unavailable"}
	default:
		return http.StatusInternalServerError, errorPayload{Type: kindInternal, Message: "internal server error"}
	}
}

func classifyError(err error) string {
	switch {
	case err == nil:
		return kindInternal
	case asValidationErrors(err) != nil, isAny(err, validationErrors):
		return kindValidation
	case isAny(err, invalidArgumentErrors):
		return kindInvalidArgument
	case isAny(err, unauthorizedErrors):
		return kindUnauthorized
	case isAny(err, forbiddenErrors):
		return kindForbidden
	case isAny(err, notFoundErrors):
		return kindNotFound
	case isAny(err, conflictErrors), db.IsDuplicateKeyErr(err):
		return kindConflict
	case errors.Is(err, ErrTooManyRequests):
		return kindTooManyRequests
	case isAny(err, unavailableErrors):
		return kindServiceUnavailable
	default:
		return kindInternal
	}
}

// classifyErrorForLog feeds the request logger's error_type field.
func classifyErrorForLog(err error) string {
	return classifyError(err)
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func invalidArgumentMessage(err error) string {
	switch {
	case errors.Is(err, pagination.ErrInvalidPageToken):
		return "invalid page token"
	case errors.Is(err, paymentdomain.ErrInvalidSignature):
		return "invalid signature"
	case errors.Is(err, paymentdomain.ErrInvalidPayload):
		return "invalid payload"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid request"
	case errors.Is(err, actordomain.ErrSelfSponsor):
		return "an actor cannot sponsor themselves"
	}
	for _, target := range invalidArgumentErrors {
		if errors.Is(err, target) {
			return strings.ReplaceAll(target.Error(), "_", " ")
		}
	}
	return "invalid argument"
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, saledomain.ErrInvalidStatusTransition),
		errors.Is(err, pipelinedomain.ErrInvalidStatusTransition),
		errors.Is(err, invoicedomain.ErrInvalidStatusTransition):
		return "invalid status transition"
	case errors.Is(err, payoutdomain.ErrAlreadyPaid):
		return "already paid"
	default:
		return "conflict"
	}
}

func validationErrorField(code string) string {
	switch code {
	case sharesettingsdomain.ErrShareOutOfRange.Error(), sharesettingsdomain.ErrShareSumExceeded.Error():
		return "shares"
	case paymentdomain.ErrInvalidMetadata.Error():
		return "metadata"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case sharesettingsdomain.ErrShareOutOfRange.Error():
		return "each share must be between 0 and 1"
	case sharesettingsdomain.ErrShareSumExceeded.Error():
		return "combined seller, leader and sponsor shares must not exceed 1"
	default:
		return "invalid value"
	}
}
