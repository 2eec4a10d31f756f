package impl

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"intercom/internal/domain"
	"intercom/internal/dto"
	"intercom/internal/observability/metrics"
	"intercom/internal/service"
	"intercom/internal/store"
)

// Narrow store contracts so tests can swap in-memory fakes; the concrete
// GORM stores satisfy them directly.

type intercomDirectory interface {
	GetIntercom(ctx context.Context, id domain.IntercomID) (*domain.Intercom, error)
}

type credentialReader interface {
	GetActiveMasterPin(ctx context.Context, intercomID domain.IntercomID) (*domain.MasterPin, error)
	GetActiveUserPins(ctx context.Context, intercomID domain.IntercomID) ([]domain.UserPin, error)
	GetActiveTemporaryPins(ctx context.Context, intercomID domain.IntercomID) ([]domain.TemporaryPin, error)
	GetTemporaryPin(ctx context.Context, id domain.CredentialID) (*domain.TemporaryPin, error)
	GetApplicableAccessCodes(ctx context.Context, buildingID domain.BuildingID, intercomID domain.IntercomID) ([]domain.AccessCode, error)
}

type usageLedger interface {
	ConsumeTemporaryPin(ctx context.Context, pinID domain.CredentialID, expectedUses int, at time.Time, ip, deviceInfo string) (bool, error)
	ConsumeSingleUseCode(ctx context.Context, codeID domain.CredentialID) (bool, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry *domain.AccessLog) error
}

// attempt carries one submission through the tier chain.
type attempt struct {
	intercom   *domain.Intercom
	secret     string
	ip         string
	deviceInfo string
	now        time.Time
}

type matchOutcome struct {
	matched         bool
	credentialType  domain.CredentialType
	credentialRefID *domain.CredentialID
	userID          *domain.UserID
}

// tierMatcher is one credential tier. Matchers report "no match" for
// anything that should let the chain keep going (wrong secret, expired,
// exhausted, lost race) and reserve errors for storage failures.
type tierMatcher interface {
	tryMatch(ctx context.Context, att *attempt) (matchOutcome, error)
}

type VerificationServiceImpl struct {
	directory intercomDirectory
	audit     auditRecorder
	tiers     []tierMatcher
	now       func() time.Time
}

func NewVerificationServiceImpl(st *store.Store, hasher service.HashingService) *VerificationServiceImpl {
	return newVerificationService(st.Directory(), st.Credentials(), st.Usage(), st.AccessLogs(), hasher)
}

func newVerificationService(dir intercomDirectory, creds credentialReader, usage usageLedger, audit auditRecorder, hasher service.HashingService) *VerificationServiceImpl {
	return &VerificationServiceImpl{
		directory: dir,
		audit:     audit,
		// Fixed precedence: master, then user, then temporary, then access
		// code. First match wins; stateful tiers consume on match.
		tiers: []tierMatcher{
			masterTier{creds: creds, hasher: hasher},
			userTier{creds: creds, hasher: hasher},
			temporaryTier{creds: creds, usage: usage, hasher: hasher},
			accessCodeTier{creds: creds, usage: usage, hasher: hasher},
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

var _ service.VerificationService = (*VerificationServiceImpl)(nil)

// Verify evaluates the tier chain and writes exactly one audit row per call,
// including unknown-intercom and internal-error paths. Failures returned to
// the device are uniform; the detailed cause lands only in the audit trail.
func (s *VerificationServiceImpl) Verify(ctx context.Context, req dto.VerifyRequest) (dto.VerifyResult, error) {
	started := s.now()
	defer func() {
		metrics.VerifyDurationSeconds.WithLabelValues().Observe(time.Since(started).Seconds())
	}()

	ic, err := s.directory.GetIntercom(ctx, req.IntercomID)
	if err != nil {
		reason := domain.ReasonStorageError
		if errors.Is(err, store.ErrRecordNotFound) {
			reason = domain.ReasonUnknownIntercom
		} else {
			slog.Error("intercom lookup failed", "error", err, "intercom_id", req.IntercomID)
		}
		return s.finish(ctx, req, matchOutcome{}, reason), nil
	}

	att := &attempt{
		intercom:   ic,
		secret:     req.Secret,
		ip:         req.IP,
		deviceInfo: req.DeviceInfo,
		now:        s.now(),
	}

	var out matchOutcome
	reason := domain.ReasonNoMatchingCredential
	for _, tier := range s.tiers {
		o, err := tier.tryMatch(ctx, att)
		if err != nil {
			// Fail closed: deny, but still log the attempt below.
			slog.Error("tier evaluation failed", "error", err, "intercom_id", ic.ID)
			out = matchOutcome{}
			reason = domain.ReasonStorageError
			break
		}
		if o.matched {
			out = o
			reason = ""
			break
		}
	}

	return s.finish(ctx, req, out, reason), nil
}

// finish writes the single audit row and shapes the caller-visible result.
// A would-be success whose audit write fails is degraded to a denial: no
// granted response without a durable log entry.
func (s *VerificationServiceImpl) finish(ctx context.Context, req dto.VerifyRequest, out matchOutcome, reason string) dto.VerifyResult {
	ctype := out.credentialType
	if !out.matched {
		ctype = domain.CredentialTypeNone
	}
	entry := &domain.AccessLog{
		IntercomID:      req.IntercomID,
		UserID:          out.userID,
		CredentialType:  ctype,
		CredentialRefID: out.credentialRefID,
		IsSuccess:       out.matched,
		Reason:          reason,
		OccurredAt:      s.now(),
		IPAddress:       req.IP,
		DeviceInfo:      req.DeviceInfo,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		slog.Error("audit write failed", "error", err, "intercom_id", req.IntercomID)
		if out.matched {
			out = matchOutcome{}
			ctype = domain.CredentialTypeNone
		}
	}

	result := "denied"
	if out.matched {
		result = "granted"
	}
	metrics.VerifyAttemptsTotal.WithLabelValues(result, string(ctype)).Inc()

	if !out.matched {
		return dto.VerifyResult{Granted: false, CredentialType: domain.CredentialTypeNone, Reason: dto.DeniedReason}
	}
	return dto.VerifyResult{
		Granted:         true,
		CredentialType:  out.credentialType,
		CredentialRefID: out.credentialRefID,
		UserID:          out.userID,
	}
}

// --- tier 1: master pin ---

type masterTier struct {
	creds  credentialReader
	hasher service.HashingService
}

func (t masterTier) tryMatch(ctx context.Context, att *attempt) (matchOutcome, error) {
	pin, err := t.creds.GetActiveMasterPin(ctx, att.intercom.ID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return matchOutcome{}, nil
		}
		return matchOutcome{}, err
	}
	ok, err := t.hasher.Verify(att.secret, pin.PinHash)
	if err != nil || !ok {
		return matchOutcome{}, err
	}
	return matchOutcome{
		matched:         true,
		credentialType:  domain.CredentialTypeMaster,
		credentialRefID: &pin.ID,
	}, nil
}

// --- tier 2: user pins ---

type userTier struct {
	creds  credentialReader
	hasher service.HashingService
}

// tryMatch compares against every active user pin on the intercom: the
// submitted secret must match some authorized user, not a specific one.
func (t userTier) tryMatch(ctx context.Context, att *attempt) (matchOutcome, error) {
	pins, err := t.creds.GetActiveUserPins(ctx, att.intercom.ID)
	if err != nil {
		return matchOutcome{}, err
	}
	for i := range pins {
		pin := &pins[i]
		ok, err := t.hasher.Verify(att.secret, pin.PinHash)
		if err != nil {
			return matchOutcome{}, err
		}
		if !ok {
			continue
		}
		return matchOutcome{
			matched:         true,
			credentialType:  domain.CredentialTypeUser,
			credentialRefID: &pin.ID,
			userID:          &pin.UserID,
		}, nil
	}
	return matchOutcome{}, nil
}

// --- tier 3: temporary pins ---

type temporaryTier struct {
	creds  credentialReader
	usage  usageLedger
	hasher service.HashingService
}

func (t temporaryTier) tryMatch(ctx context.Context, att *attempt) (matchOutcome, error) {
	pins, err := t.creds.GetActiveTemporaryPins(ctx, att.intercom.ID)
	if err != nil {
		return matchOutcome{}, err
	}
	for i := range pins {
		pin := &pins[i]
		ok, err := t.hasher.Verify(att.secret, pin.PinHash)
		if err != nil {
			return matchOutcome{}, err
		}
		if !ok {
			continue
		}
		consumed, err := t.consume(ctx, att, pin)
		if err != nil {
			return matchOutcome{}, err
		}
		if !consumed {
			// Expired or exhausted pins are non-matches, not failures:
			// another valid tier or pin may still apply.
			continue
		}
		return matchOutcome{
			matched:         true,
			credentialType:  domain.CredentialTypeTemporary,
			credentialRefID: &pin.ID,
		}, nil
	}
	return matchOutcome{}, nil
}

// consume commits one use via compare-and-swap. A lost race gets exactly one
// re-fetch and retry; a second collision is treated as exhaustion so
// verification latency stays bounded.
func (t temporaryTier) consume(ctx context.Context, att *attempt, pin *domain.TemporaryPin) (bool, error) {
	if pin.Exhausted(att.now) {
		return false, nil
	}
	ok, err := t.usage.ConsumeTemporaryPin(ctx, pin.ID, pin.UsesCount, att.now, att.ip, att.deviceInfo)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	metrics.UsageConflictsTotal.WithLabelValues("temporary_pin").Inc()
	fresh, err := t.creds.GetTemporaryPin(ctx, pin.ID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if !fresh.IsActive || fresh.Exhausted(att.now) {
		return false, nil
	}
	return t.usage.ConsumeTemporaryPin(ctx, fresh.ID, fresh.UsesCount, att.now, att.ip, att.deviceInfo)
}

// --- tier 4: access codes ---

type accessCodeTier struct {
	creds  credentialReader
	usage  usageLedger
	hasher service.HashingService
}

func (t accessCodeTier) tryMatch(ctx context.Context, att *attempt) (matchOutcome, error) {
	codes, err := t.creds.GetApplicableAccessCodes(ctx, att.intercom.BuildingID, att.intercom.ID)
	if err != nil {
		return matchOutcome{}, err
	}
	for i := range codes {
		code := &codes[i]
		ok, err := t.hasher.Verify(att.secret, code.CodeHash)
		if err != nil {
			return matchOutcome{}, err
		}
		if !ok || !code.IsActive || code.Expired(att.now) {
			continue
		}
		if code.IsSingleUse {
			// Deactivation is the consumption step; exactly one concurrent
			// submission wins the conditional update.
			won, err := t.usage.ConsumeSingleUseCode(ctx, code.ID)
			if err != nil {
				return matchOutcome{}, err
			}
			if !won {
				metrics.UsageConflictsTotal.WithLabelValues("access_code").Inc()
				continue
			}
		}
		return matchOutcome{
			matched:         true,
			credentialType:  domain.CredentialTypeAccessCode,
			credentialRefID: &code.ID,
		}, nil
	}
	return matchOutcome{}, nil
}
