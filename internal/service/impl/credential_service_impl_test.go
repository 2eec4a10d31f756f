package impl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"intercom/internal/domain"
	"intercom/internal/dto"
	"intercom/internal/store"
)

// mgmtStore is an in-memory double for the management write path.
type mgmtStore struct {
	buildings map[domain.BuildingID]*domain.Building
	intercoms map[domain.IntercomID]*domain.Intercom
	masters   []*domain.MasterPin
	userPins  []*domain.UserPin
	tempPins  map[domain.CredentialID]*domain.TemporaryPin
	codes     map[domain.CredentialID]*domain.AccessCode
	logs      []domain.AccessLog

	supersedeUserPinErr error
}

func newMgmtStore() *mgmtStore {
	return &mgmtStore{
		buildings: make(map[domain.BuildingID]*domain.Building),
		intercoms: make(map[domain.IntercomID]*domain.Intercom),
		tempPins:  make(map[domain.CredentialID]*domain.TemporaryPin),
		codes:     make(map[domain.CredentialID]*domain.AccessCode),
	}
}

func (m *mgmtStore) GetBuilding(_ context.Context, id domain.BuildingID) (*domain.Building, error) {
	b, ok := m.buildings[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return b, nil
}

func (m *mgmtStore) GetIntercom(_ context.Context, id domain.IntercomID) (*domain.Intercom, error) {
	ic, ok := m.intercoms[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return ic, nil
}

func (m *mgmtStore) SupersedeMasterPin(_ context.Context, pin *domain.MasterPin) error {
	for _, p := range m.masters {
		if p.IntercomID == pin.IntercomID {
			p.IsActive = false
		}
	}
	pin.ID = uuid.New()
	pin.IsActive = true
	pin.CreatedAt = time.Now().UTC()
	m.masters = append(m.masters, pin)
	return nil
}

func (m *mgmtStore) SupersedeUserPin(_ context.Context, pin *domain.UserPin) error {
	if m.supersedeUserPinErr != nil {
		return m.supersedeUserPinErr
	}
	for _, p := range m.userPins {
		if p.IntercomID == pin.IntercomID && p.UserID == pin.UserID {
			p.IsActive = false
		}
	}
	pin.ID = uuid.New()
	pin.IsActive = true
	m.userPins = append(m.userPins, pin)
	return nil
}

func (m *mgmtStore) DeactivateUserPin(_ context.Context, intercomID domain.IntercomID, userID domain.UserID) error {
	for _, p := range m.userPins {
		if p.IntercomID == intercomID && p.UserID == userID && p.IsActive {
			p.IsActive = false
			return nil
		}
	}
	return store.ErrRecordNotFound
}

func (m *mgmtStore) CreateTemporaryPin(_ context.Context, pin *domain.TemporaryPin) error {
	pin.ID = uuid.New()
	pin.IsActive = true
	m.tempPins[pin.ID] = pin
	return nil
}

func (m *mgmtStore) GetTemporaryPin(_ context.Context, id domain.CredentialID) (*domain.TemporaryPin, error) {
	p, ok := m.tempPins[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return p, nil
}

func (m *mgmtStore) DeactivateTemporaryPin(_ context.Context, id domain.CredentialID) error {
	p, ok := m.tempPins[id]
	if !ok || !p.IsActive {
		return store.ErrRecordNotFound
	}
	p.IsActive = false
	return nil
}

func (m *mgmtStore) CreateAccessCode(_ context.Context, code *domain.AccessCode) error {
	code.ID = uuid.New()
	code.IsActive = true
	m.codes[code.ID] = code
	return nil
}

func (m *mgmtStore) GetAccessCode(_ context.Context, id domain.CredentialID) (*domain.AccessCode, error) {
	c, ok := m.codes[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return c, nil
}

func (m *mgmtStore) UpdateAccessCode(_ context.Context, id domain.CredentialID, fields map[string]any) error {
	c, ok := m.codes[id]
	if !ok {
		return store.ErrRecordNotFound
	}
	if v, ok := fields["expires_at"]; ok {
		t := v.(time.Time)
		c.ExpiresAt = &t
	}
	if v, ok := fields["is_single_use"]; ok {
		c.IsSingleUse = v.(bool)
	}
	return nil
}

func (m *mgmtStore) DeactivateAccessCode(_ context.Context, id domain.CredentialID) error {
	c, ok := m.codes[id]
	if !ok {
		return store.ErrRecordNotFound
	}
	c.IsActive = false
	return nil
}

func (m *mgmtStore) DeleteAccessCode(_ context.Context, id domain.CredentialID) error {
	if _, ok := m.codes[id]; !ok {
		return store.ErrRecordNotFound
	}
	delete(m.codes, id)
	return nil
}

func (m *mgmtStore) ListAccessCodes(_ context.Context, q dto.AccessCodeQuery) ([]domain.AccessCode, int64, error) {
	var out []domain.AccessCode
	for _, c := range m.codes {
		if q.BuildingID != nil && c.BuildingID != *q.BuildingID {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (m *mgmtStore) List(_ context.Context, q dto.AccessLogQuery) ([]domain.AccessLog, int64, error) {
	var out []domain.AccessLog
	for _, l := range m.logs {
		if q.IntercomID != nil && l.IntercomID != *q.IntercomID {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

// --- helpers ---

func newMgmtService(ms *mgmtStore) *CredentialServiceImpl {
	return &CredentialServiceImpl{creds: ms, directory: ms, logs: ms, hasher: stubHasher{}}
}

func (m *mgmtStore) addBuilding() *domain.Building {
	b := &domain.Building{ID: uuid.New(), Name: "Rivergate"}
	m.buildings[b.ID] = b
	return b
}

func (m *mgmtStore) addIntercom(buildingID domain.BuildingID) *domain.Intercom {
	ic := &domain.Intercom{ID: uuid.New(), BuildingID: buildingID, Name: "lobby"}
	m.intercoms[ic.ID] = ic
	return ic
}

func admin() domain.Actor {
	return domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin}
}

func staffOf(buildings ...domain.BuildingID) domain.Actor {
	return domain.Actor{UserID: uuid.New(), Role: domain.RoleStaff, BuildingIDs: buildings}
}

func resident() domain.Actor {
	return domain.Actor{UserID: uuid.New(), Role: domain.RoleResident}
}

// --- master pins ---

func TestSetMasterPinSupersedes(t *testing.T) {
	ms := newMgmtStore()
	svc := newMgmtService(ms)
	b := ms.addBuilding()
	ic := ms.addIntercom(b.ID)
	staff := staffOf(b.ID)

	first, err := svc.SetMasterPin(context.Background(), ic.ID, dto.SetMasterPinRequest{Secret: "1234"}, staff)
	if err != nil {
		t.Fatalf("first set: %v", err)
	}
	second, err := svc.SetMasterPin(context.Background(), ic.ID, dto.SetMasterPinRequest{Secret: "5678"}, staff)
	if err != nil {
		t.Fatalf("second set: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("rotation must insert a new row")
	}
	if len(ms.masters) != 2 {
		t.Fatalf("expected 2 rows (history kept), got %d", len(ms.masters))
	}
	var active int
	for _, p := range ms.masters {
		if p.IsActive {
			active++
			if p.PinHash != "h:5678" {
				t.Fatal("the newest pin must be the active one")
			}
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly one active master pin, got %d", active)
	}
}

func TestSetMasterPinAuthorization(t *testing.T) {
	ms := newMgmtStore()
	svc := newMgmtService(ms)
	b := ms.addBuilding()
	other := ms.addBuilding()
	ic := ms.addIntercom(b.ID)

	for name, actor := range map[string]domain.Actor{
		"resident":    resident(),
		"other staff": staffOf(other.ID),
	} {
		_, err := svc.SetMasterPin(context.Background(), ic.ID, dto.SetMasterPinRequest{Secret: "1234"}, actor)
		if !errors.Is(err, domain.ErrNotAllowed) {
			t.Fatalf("%s: expected ErrNotAllowed, got %v", name, err)
		}
	}

	if _, err := svc.SetMasterPin(context.Background(), ic.ID, dto.SetMasterPinRequest{Secret: "1234"}, admin()); err != nil {
		t.Fatalf("admin: %v", err)
	}
}

func TestSetMasterPinEmptySecret(t *testing.T) {
	ms := newMgmtStore()
	svc := newMgmtService(ms)
	b := ms.addBuilding()
	ic := ms.addIntercom(b.ID)

	_, err := svc.SetMasterPin(context.Background(), ic.ID, dto.SetMasterPinRequest{}, staffOf(b.ID))
	if !errors.Is(err, domain.ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

// --- user pins ---

func TestSetUserPinSelfOrManager(t *testing.T) {
	ms := newMgmtStore()
	svc := newMgmtService(ms)
	b := ms.addBuilding()
	ic := ms.addIntercom(b.ID)

	owner := resident()
	if _, err := svc.SetUserPin(context.Background(), ic.ID, owner.UserID, dto.SetUserPinRequest{Secret: "1111"}, owner); err != nil {
		t.Fatalf("self: %v", err)
	}

	stranger := resident()
	if _, err := svc.SetUserPin(context.Background(), ic.ID, owner.UserID, dto.SetUserPinRequest{Secret: "2222"}, stranger); !errors.Is(err, domain.ErrNotAllowed) {
		t.Fatalf("stranger: expected ErrNotAllowed, got %v", err)
	}

	if _, err := svc.SetUserPin(context.Background(), ic.ID, owner.UserID, dto.SetUserPinRequest{Secret: "3333"}, staffOf(b.ID)); err != nil {
		t.Fatalf("staff: %v", err)
	}
}

func TestSetUserPinDuplicateSurfaces(t *testing.T) {
	ms := newMgmtStore()
	svc := newMgmtService(ms)
	b := ms.addBuilding()
	ic := ms.addIntercom(b.ID)
	ms.supersedeUserPinErr = store.ErrDuplicateCredential

	owner := resident()
	_, err := svc.SetUserPin(context.Background(), ic.ID, owner.UserID, dto.SetUserPinRequest{Secret: "1111"}, owner)
	if !errors.Is(err, store.ErrDuplicateCredential) {
		t.Fatalf("expected duplicate error to surface, got %v", err)
	}
}

func TestRevokeUserPin(t *testing.T) {
	ms := newMgmtStore()
	svc := newMgmtService(ms)
	b := ms.addBuilding()
	ic := ms.addIntercom(b.ID)

	owner := resident()
	if _, err := svc.SetUserPin(context.Background(), ic.ID, owner.UserID, dto.SetUserPinRequest{Secret: "1111"}, owner); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := svc.RevokeUserPin(context.Background(), ic.ID, owner.UserID, owner); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := svc.RevokeUserPin(context.Background(), ic.ID, owner.UserID, owner); !errors.Is(err, domain.ErrCredentialNotFound) {
		t.Fatalf("second revoke: expected ErrCredentialNotFound, got %v", err)
	}
}

// --- temporary pins ---

func TestCreateTemporaryPinValidation(t *testing.T) {
	ms := newMgmtStore()
	svc := newMgmtService(ms)
	b := ms.addBuilding()
	ic := ms.addIntercom(b.ID)
	actor := resident()
	future := time.Now().Add(time.Hour)

	cases := []struct {
		name string
		req  dto.CreateTemporaryPinRequest
		want error
	}{
		{"empty secret", dto.CreateTemporaryPinRequest{ExpiresAt: future, MaxUses: 1}, domain.ErrEmptySecret},
		{"past expiry", dto.CreateTemporaryPinRequest{Secret: "1234", ExpiresAt: time.Now().Add(-time.Hour), MaxUses: 1}, domain.ErrInvalidExpiry},
		{"zero max uses", dto.CreateTemporaryPinRequest{Secret: "1234", ExpiresAt: future}, domain.ErrInvalidMaxUses},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateTemporaryPin(context.Background(), ic.ID, tc.req, actor); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	resp, err := svc.CreateTemporaryPin(context.Background(), ic.ID, dto.CreateTemporaryPinRequest{Secret: "1234", ExpiresAt: future, MaxUses: 3}, actor)
	if err != nil {
		t.Fatalf("valid request: %v", err)
	}
	if resp.CreatedBy != actor.UserID || resp.MaxUses != 3 || !resp.IsActive {
		t.Fatal("response does not reflect the created pin")
	}
}

func TestRevokeTemporaryPinScope(t *testing.T) {
	ms := newMgmtStore()
	svc := newMgmtService(ms)
	b := ms.addBuilding()
	ic := ms.addIntercom(b.ID)
	creator := resident()

	create := func() domain.CredentialID {
		resp, err := svc.CreateTemporaryPin(context.Background(), ic.ID, dto.CreateTemporaryPinRequest{
			Secret: "9999", ExpiresAt: time.Now().Add(time.Hour), MaxUses: 1,
		}, creator)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return resp.ID
	}

	if err := svc.RevokeTemporaryPin(context.Background(), create(), resident()); !errors.Is(err, domain.ErrNotAllowed) {
		t.Fatalf("stranger: expected ErrNotAllowed, got %v", err)
	}
	if err := svc.RevokeTemporaryPin(context.Background(), create(), creator); err != nil {
		t.Fatalf("creator: %v", err)
	}
	if err := svc.RevokeTemporaryPin(context.Background(), create(), staffOf(b.ID)); err != nil {
		t.Fatalf("building staff: %v", err)
	}
	if err := svc.RevokeTemporaryPin(context.Background(), uuid.New(), creator); !errors.Is(err, domain.ErrCredentialNotFound) {
		t.Fatalf("missing pin: expected ErrCredentialNotFound, got %v", err)
	}
}

// --- access codes ---

func TestCreateAccessCodeIntercomMustBelongToBuilding(t *testing.T) {
	ms := newMgmtStore()
	svc := newMgmtService(ms)
	b := ms.addBuilding()
	other := ms.addBuilding()
	foreign := ms.addIntercom(other.ID)

	_, err := svc.CreateAccessCode(context.Background(), dto.CreateAccessCodeRequest{
		BuildingID: b.ID,
		IntercomID: &foreign.ID,
		Secret:     "4321",
	}, admin())
	if !errors.Is(err, domain.ErrIntercomNotFound) {
		t.Fatalf("expected ErrIntercomNotFound, got %v", err)
	}
}

func TestAccessCodeManagementScope(t *testing.T) {
	ms := newMgmtStore()
	svc := newMgmtService(ms)
	b := ms.addBuilding()
	creator := resident()

	create := func() domain.CredentialID {
		resp, err := svc.CreateAccessCode(context.Background(), dto.CreateAccessCodeRequest{
			BuildingID: b.ID, Secret: "2468",
		}, creator)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return resp.ID
	}

	if err := svc.DeactivateAccessCode(context.Background(), create(), resident()); !errors.Is(err, domain.ErrNotAllowed) {
		t.Fatalf("stranger: expected ErrNotAllowed, got %v", err)
	}
	for name, actor := range map[string]domain.Actor{
		"creator":        creator,
		"building staff": staffOf(b.ID),
		"admin":          admin(),
	} {
		if err := svc.DeactivateAccessCode(context.Background(), create(), actor); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}

	id := create()
	if err := svc.DeleteAccessCode(context.Background(), id, creator); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteAccessCode(context.Background(), id, creator); !errors.Is(err, domain.ErrCredentialNotFound) {
		t.Fatalf("deleted code: expected ErrCredentialNotFound, got %v", err)
	}
}

func TestUpdateAccessCode(t *testing.T) {
	ms := newMgmtStore()
	svc := newMgmtService(ms)
	b := ms.addBuilding()
	creator := resident()

	resp, err := svc.CreateAccessCode(context.Background(), dto.CreateAccessCodeRequest{
		BuildingID: b.ID, Secret: "2468",
	}, creator)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	past := time.Now().Add(-time.Hour)
	if _, err := svc.UpdateAccessCode(context.Background(), resp.ID, dto.UpdateAccessCodeRequest{ExpiresAt: &past}, creator); !errors.Is(err, domain.ErrInvalidExpiry) {
		t.Fatalf("past expiry: expected ErrInvalidExpiry, got %v", err)
	}

	future := time.Now().Add(time.Hour)
	single := true
	updated, err := svc.UpdateAccessCode(context.Background(), resp.ID, dto.UpdateAccessCodeRequest{ExpiresAt: &future, IsSingleUse: &single}, creator)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ExpiresAt == nil || !updated.ExpiresAt.Equal(future) || !updated.IsSingleUse {
		t.Fatal("update not applied")
	}
}

// --- listing ---

func TestListAccessCodesAuthorization(t *testing.T) {
	ms := newMgmtStore()
	svc := newMgmtService(ms)
	b := ms.addBuilding()
	other := ms.addBuilding()
	ctx := context.Background()

	if _, err := svc.ListAccessCodes(ctx, dto.AccessCodeQuery{BuildingID: &b.ID}, resident()); !errors.Is(err, domain.ErrNotAllowed) {
		t.Fatalf("resident: expected ErrNotAllowed, got %v", err)
	}
	if _, err := svc.ListAccessCodes(ctx, dto.AccessCodeQuery{}, staffOf(b.ID)); !errors.Is(err, domain.ErrNotAllowed) {
		t.Fatalf("staff without filter: expected ErrNotAllowed, got %v", err)
	}
	if _, err := svc.ListAccessCodes(ctx, dto.AccessCodeQuery{BuildingID: &other.ID}, staffOf(b.ID)); !errors.Is(err, domain.ErrNotAllowed) {
		t.Fatalf("staff outside building: expected ErrNotAllowed, got %v", err)
	}
	if _, err := svc.ListAccessCodes(ctx, dto.AccessCodeQuery{BuildingID: &b.ID}, staffOf(b.ID)); err != nil {
		t.Fatalf("staff in building: %v", err)
	}

	page, err := svc.ListAccessCodes(ctx, dto.AccessCodeQuery{PageSize: 500}, admin())
	if err != nil {
		t.Fatalf("admin: %v", err)
	}
	if page.Page != 1 || page.PageSize != maxPageSize {
		t.Fatalf("expected clamped paging (1, %d), got (%d, %d)", maxPageSize, page.Page, page.PageSize)
	}
}

func TestListAccessLogsStaffScope(t *testing.T) {
	ms := newMgmtStore()
	svc := newMgmtService(ms)
	b := ms.addBuilding()
	other := ms.addBuilding()
	ic := ms.addIntercom(b.ID)
	foreign := ms.addIntercom(other.ID)
	ms.logs = append(ms.logs, domain.AccessLog{ID: uuid.New(), IntercomID: ic.ID, IsSuccess: true, OccurredAt: time.Now()})
	ctx := context.Background()
	staff := staffOf(b.ID)

	if _, err := svc.ListAccessLogs(ctx, dto.AccessLogQuery{}, staff); !errors.Is(err, domain.ErrNotAllowed) {
		t.Fatalf("staff without intercom filter: expected ErrNotAllowed, got %v", err)
	}
	if _, err := svc.ListAccessLogs(ctx, dto.AccessLogQuery{IntercomID: &foreign.ID}, staff); !errors.Is(err, domain.ErrNotAllowed) {
		t.Fatalf("staff on foreign intercom: expected ErrNotAllowed, got %v", err)
	}
	if _, err := svc.ListAccessLogs(ctx, dto.AccessLogQuery{IntercomID: &ic.ID}, resident()); !errors.Is(err, domain.ErrNotAllowed) {
		t.Fatalf("resident: expected ErrNotAllowed, got %v", err)
	}

	page, err := svc.ListAccessLogs(ctx, dto.AccessLogQuery{IntercomID: &ic.ID}, staff)
	if err != nil {
		t.Fatalf("staff in building: %v", err)
	}
	if len(page.Items) != 1 || page.Total != 1 {
		t.Fatalf("expected the one seeded row, got %d items (total %d)", len(page.Items), page.Total)
	}

	if _, err := svc.ListAccessLogs(ctx, dto.AccessLogQuery{}, admin()); err != nil {
		t.Fatalf("admin unfiltered: %v", err)
	}
}
