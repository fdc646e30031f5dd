// Package errors provides structured error handling with stable,
// machine-matchable error codes.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Authorization errors
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeGrantInvalid Code = "OPERATOR_GRANT_INVALID"
	CodeGrantExpired Code = "OPERATOR_GRANT_EXPIRED"

	// Registry errors
	CodeGroupUnknown       Code = "GROUP_UNKNOWN"
	CodeGroupInvalidTier   Code = "GROUP_INVALID_TIER"
	CodeCollectionNotFound Code = "COLLECTION_NOT_FOUND"
	CodeRewardOutOfRange   Code = "COLLECTION_REWARD_OUT_OF_RANGE"

	// Allocation errors
	CodeCapacityExhausted  Code = "CAPACITY_EXHAUSTED"
	CodeTierNotEligible    Code = "TIER_NOT_ELIGIBLE"
	CodeQuotaExceeded      Code = "QUOTA_EXCEEDED"
	CodeMembershipUnknown  Code = "MEMBERSHIP_UNKNOWN"
	CodeNotMembershipOwner Code = "MEMBERSHIP_NOT_OWNER"

	// Funds errors
	CodeAmountMismatch Code = "AMOUNT_MISMATCH"
	CodeTransferFailed Code = "TRANSFER_FAILED"

	// Ledger errors
	CodeTokenExists      Code = "TOKEN_EXISTS"
	CodeTokenNotFound    Code = "TOKEN_NOT_FOUND"
	CodeNotOwner         Code = "TOKEN_NOT_OWNER"
	CodeIndexOutOfRange  Code = "INDEX_OUT_OF_RANGE"
	CodeRecipientInvalid Code = "RECIPIENT_INVALID"

	// Coordinator errors
	CodeSelectionFailed Code = "SELECTION_FAILED"
	CodeCountInvalid    Code = "MINT_COUNT_INVALID"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeGroupInvalidTier,
		CodeRewardOutOfRange,
		CodeAmountMismatch,
		CodeCountInvalid,
		CodeRecipientInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeCapacityExhausted,
		CodeTierNotEligible,
		CodeQuotaExceeded:
		return codes.FailedPrecondition

	// NotFound - referenced entity absent
	case CodeGroupUnknown,
		CodeCollectionNotFound,
		CodeMembershipUnknown,
		CodeTokenNotFound:
		return codes.NotFound

	// AlreadyExists
	case CodeTokenExists:
		return codes.AlreadyExists

	// PermissionDenied - caller lacks required role/relationship
	case CodeUnauthorized,
		CodeGrantInvalid,
		CodeGrantExpired,
		CodeNotMembershipOwner,
		CodeNotOwner:
		return codes.PermissionDenied

	// OutOfRange
	case CodeIndexOutOfRange:
		return codes.OutOfRange

	// Aborted - external collaborator failures abort the whole operation
	case CodeTransferFailed,
		CodeSelectionFailed:
		return codes.Aborted

	default:
		return codes.Internal
	}
}
