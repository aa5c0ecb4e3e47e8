package common

import (
	"errors"
	"fmt"
)

//
// Base Types
//

type ErrorCode string

type BaseError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"cause"`
	Details map[string]interface{} `json:"details"`
}

func (e *BaseError) Unwrap() error {
	return e.Cause
}

func (e *BaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BaseError) CodeChain() string {
	if e.Cause != nil {
		var be *BaseError
		if errors.As(e.Cause, &be) {
			return fmt.Sprintf("%s <- %s", e.Code, be.CodeChain())
		}
	}
	return string(e.Code)
}

type StandardError interface {
	error
	Base() *BaseError
}

func (e *BaseError) Base() *BaseError {
	return e
}

func HasErrorCode(err error, codes ...ErrorCode) bool {
	for err != nil {
		if se, ok := err.(StandardError); ok {
			if base := se.Base(); base != nil {
				for _, code := range codes {
					if base.Code == code {
						return true
					}
				}
			}
		}
		err = errors.Unwrap(err)
	}
	return false
}

//
// Configuration
//

const ErrCodeInvalidConfig ErrorCode = "ErrInvalidConfig"

type ErrInvalidConfig struct{ BaseError }

func NewErrInvalidConfig(field, reason string) error {
	return &ErrInvalidConfig{
		BaseError{
			Code:    ErrCodeInvalidConfig,
			Message: reason,
			Details: map[string]interface{}{
				"field": field,
			},
		},
	}
}

const ErrCodeInvalidFilterExpression ErrorCode = "ErrInvalidFilterExpression"

type ErrInvalidFilterExpression struct{ BaseError }

func NewErrInvalidFilterExpression(expr string, cause error) error {
	return &ErrInvalidFilterExpression{
		BaseError{
			Code:    ErrCodeInvalidFilterExpression,
			Message: "difference filter expression does not compile",
			Cause:   cause,
			Details: map[string]interface{}{
				"expression": expr,
			},
		},
	}
}

//
// Transport
//

const ErrCodeResponseStatusCode ErrorCode = "ErrResponseStatusCode"

type ErrResponseStatusCode struct{ BaseError }

func NewErrResponseStatusCode(statusCode int, host string) error {
	return &ErrResponseStatusCode{
		BaseError{
			Code:    ErrCodeResponseStatusCode,
			Message: fmt.Sprintf("unexpected http status code %d", statusCode),
			Details: map[string]interface{}{
				"statusCode": statusCode,
				"host":       host,
			},
		},
	}
}

const ErrCodeMalformedResponse ErrorCode = "ErrMalformedResponse"

type ErrMalformedResponse struct{ BaseError }

func NewErrMalformedResponse(cause error, host string) error {
	return &ErrMalformedResponse{
		BaseError{
			Code:    ErrCodeMalformedResponse,
			Message: "response body is not valid json",
			Cause:   cause,
			Details: map[string]interface{}{
				"host": host,
			},
		},
	}
}

//
// Keys
//

const ErrCodeFetchKeys ErrorCode = "ErrFetchKeys"

type ErrFetchKeys struct{ BaseError }

func NewErrFetchKeys(cause error, method string) error {
	return &ErrFetchKeys{
		BaseError{
			Code:    ErrCodeFetchKeys,
			Message: "cannot fetch verification keys",
			Cause:   cause,
			Details: map[string]interface{}{
				"method": method,
			},
		},
	}
}

//
// Proof Validation
//

const ErrCodeMissingResponseField ErrorCode = "ErrMissingResponseField"

type ErrMissingResponseField struct{ BaseError }

func NewErrMissingResponseField(field string) error {
	return &ErrMissingResponseField{
		BaseError{
			Code:    ErrCodeMissingResponseField,
			Message: "cannot extract field from response",
			Details: map[string]interface{}{
				"field": field,
			},
		},
	}
}

const ErrCodeAccountNotFound ErrorCode = "ErrAccountNotFound"

type ErrAccountNotFound struct{ BaseError }

func NewErrAccountNotFound(pubkey string) error {
	return &ErrAccountNotFound{
		BaseError{
			Code:    ErrCodeAccountNotFound,
			Message: "account does not exist on chain",
			Details: map[string]interface{}{
				"pubkey": pubkey,
			},
		},
	}
}

const ErrCodeInvalidPubkey ErrorCode = "ErrInvalidPubkey"

type ErrInvalidPubkey struct{ BaseError }

func NewErrInvalidPubkey(value string, cause error) error {
	return &ErrInvalidPubkey{
		BaseError{
			Code:    ErrCodeInvalidPubkey,
			Message: "value is not a valid base58 pubkey",
			Cause:   cause,
			Details: map[string]interface{}{
				"value": value,
			},
		},
	}
}

const ErrCodeInvalidTreeAccount ErrorCode = "ErrInvalidTreeAccount"

type ErrInvalidTreeAccount struct{ BaseError }

func NewErrInvalidTreeAccount(reason string, details map[string]interface{}) error {
	return &ErrInvalidTreeAccount{
		BaseError{
			Code:    ErrCodeInvalidTreeAccount,
			Message: reason,
			Details: details,
		},
	}
}

const ErrCodeLeafIndexOutOfRange ErrorCode = "ErrLeafIndexOutOfRange"

type ErrLeafIndexOutOfRange struct{ BaseError }

func NewErrLeafIndexOutOfRange(leafIndex uint32, maxDepth uint32) error {
	return &ErrLeafIndexOutOfRange{
		BaseError{
			Code:    ErrCodeLeafIndexOutOfRange,
			Message: "leaf index does not fit into tree",
			Details: map[string]interface{}{
				"leafIndex": leafIndex,
				"maxDepth":  maxDepth,
			},
		},
	}
}
