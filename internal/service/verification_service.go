package service

import (
	"context"

	"intercom/internal/dto"
)

// VerificationService decides whether a secret submitted at an intercom
// grants access. Every call produces exactly one audit row, success or not.
// The returned result never leaks which tier almost matched.
type VerificationService interface {
	Verify(ctx context.Context, req dto.VerifyRequest) (dto.VerifyResult, error)
}
