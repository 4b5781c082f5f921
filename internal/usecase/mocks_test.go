package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	db "github.com/azizikri/pawclub-functions/db/gen"
	"github.com/azizikri/pawclub-functions/internal/domain"
	"github.com/azizikri/pawclub-functions/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type call struct {
	name   string
	access repository.Access
}

type storedNotification struct {
	db.InsertNotificationParams
	CreatedAt time.Time
}

// memStore is an in-memory Store. Methods mirror the SQL in db/gen closely
// enough for use case tests; transactions are not rolled back.
type memStore struct {
	mu      sync.Mutex
	current repository.Access
	calls   []call
	now     func() time.Time

	failOn map[string]error

	users          map[uuid.UUID]db.User
	roles          map[uuid.UUID]map[string]bool
	profiles       map[uuid.UUID]db.Profile
	memberships    map[uuid.UUID]db.Membership
	businesses     map[uuid.UUID]db.Business
	offers         map[uuid.UUID]db.Offer
	pets           []db.Pet
	redemptions    []db.Redemption
	birthdayOffers map[uuid.UUID]db.SentBirthdayOffer
	notifications  []storedNotification
	events         []db.InsertAnalyticsEventParams
	verifyTokens   map[string]db.EmailVerificationToken
	resetTokens    []db.InsertPasswordResetTokenParams
}

func newMemStore() *memStore {
	return &memStore{
		now:            time.Now,
		failOn:         map[string]error{},
		users:          map[uuid.UUID]db.User{},
		roles:          map[uuid.UUID]map[string]bool{},
		profiles:       map[uuid.UUID]db.Profile{},
		memberships:    map[uuid.UUID]db.Membership{},
		businesses:     map[uuid.UUID]db.Business{},
		offers:         map[uuid.UUID]db.Offer{},
		birthdayOffers: map[uuid.UUID]db.SentBirthdayOffer{},
		verifyTokens:   map[string]db.EmailVerificationToken{},
	}
}

func (m *memStore) ExecTx(ctx context.Context, access repository.Access, fn func(repository.Querier) error) error {
	if !access.Privileged() && access.UserID() == uuid.Nil {
		return repository.ErrNoAccess
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = access
	return fn(m)
}

func (m *memStore) record(name string) error {
	m.calls = append(m.calls, call{name: name, access: m.current})
	return m.failOn[name]
}

func (m *memStore) accessFor(name string) []repository.Access {
	var out []repository.Access
	for _, c := range m.calls {
		if c.name == name {
			out = append(out, c.access)
		}
	}
	return out
}

func (m *memStore) notificationsOfType(userID uuid.UUID, typ string) int {
	n := 0
	for _, row := range m.notifications {
		if row.UserID == userID && row.Type == typ {
			n++
		}
	}
	return n
}

func (m *memStore) GetBusinessForOwner(ctx context.Context, arg db.GetBusinessForOwnerParams) (db.Business, error) {
	if err := m.record("GetBusinessForOwner"); err != nil {
		return db.Business{}, err
	}
	b, ok := m.businesses[arg.ID]
	if !ok || b.OwnerID != arg.OwnerID {
		return db.Business{}, pgx.ErrNoRows
	}
	return b, nil
}

func (m *memStore) GetOffer(ctx context.Context, id uuid.UUID) (db.Offer, error) {
	if err := m.record("GetOffer"); err != nil {
		return db.Offer{}, err
	}
	o, ok := m.offers[id]
	if !ok {
		return db.Offer{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *memStore) ListPetNamesByMembership(ctx context.Context, membershipID uuid.UUID) ([]string, error) {
	if err := m.record("ListPetNamesByMembership"); err != nil {
		return nil, err
	}
	var names []string
	for _, p := range m.pets {
		if p.MembershipID == membershipID {
			names = append(names, p.PetName)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *memStore) RedemptionExists(ctx context.Context, arg db.RedemptionExistsParams) (bool, error) {
	if err := m.record("RedemptionExists"); err != nil {
		return false, err
	}
	for _, r := range m.redemptions {
		if r.MembershipID == arg.MembershipID && r.OfferID == arg.OfferID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertRedemption(ctx context.Context, arg db.InsertRedemptionParams) (db.Redemption, error) {
	if err := m.record("InsertRedemption"); err != nil {
		return db.Redemption{}, err
	}
	for _, r := range m.redemptions {
		if r.MembershipID == arg.MembershipID && r.OfferID == arg.OfferID {
			return db.Redemption{}, pgx.ErrNoRows
		}
	}
	row := db.Redemption{
		ID:               uuid.New(),
		MembershipID:     arg.MembershipID,
		OfferID:          arg.OfferID,
		BusinessID:       arg.BusinessID,
		RedeemedByUserID: arg.RedeemedByUserID,
		RedeemedAt:       m.now(),
	}
	m.redemptions = append(m.redemptions, row)
	return row, nil
}

func (m *memStore) GetBirthdayOffer(ctx context.Context, id uuid.UUID) (db.SentBirthdayOffer, error) {
	if err := m.record("GetBirthdayOffer"); err != nil {
		return db.SentBirthdayOffer{}, err
	}
	o, ok := m.birthdayOffers[id]
	if !ok {
		return db.SentBirthdayOffer{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *memStore) MarkBirthdayOfferRedeemed(ctx context.Context, arg db.MarkBirthdayOfferRedeemedParams) (db.SentBirthdayOffer, error) {
	if err := m.record("MarkBirthdayOfferRedeemed"); err != nil {
		return db.SentBirthdayOffer{}, err
	}
	o, ok := m.birthdayOffers[arg.ID]
	if !ok || o.RedeemedAt != nil {
		return db.SentBirthdayOffer{}, pgx.ErrNoRows
	}
	now := m.now()
	businessID := arg.BusinessID
	o.RedeemedAt = &now
	o.RedeemedByBusinessID = &businessID
	m.birthdayOffers[arg.ID] = o
	return o, nil
}

func (m *memStore) GetMembership(ctx context.Context, id uuid.UUID) (db.Membership, error) {
	if err := m.record("GetMembership"); err != nil {
		return db.Membership{}, err
	}
	ms, ok := m.memberships[id]
	if !ok {
		return db.Membership{}, pgx.ErrNoRows
	}
	return ms, nil
}

func (m *memStore) sortedMemberships() []db.Membership {
	out := make([]db.Membership, 0, len(m.memberships))
	for _, ms := range m.memberships {
		out = append(out, ms)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func page[T any](items []T, limit, offset int32) []T {
	if int(offset) >= len(items) {
		return nil
	}
	end := int(offset + limit)
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func (m *memStore) ListExpiredMemberships(ctx context.Context, arg db.ListExpiredMembershipsParams) ([]db.Membership, error) {
	if err := m.record("ListExpiredMemberships"); err != nil {
		return nil, err
	}
	var matched []db.Membership
	for _, ms := range m.sortedMemberships() {
		if ms.IsActive && ms.ExpiresAt != nil && ms.ExpiresAt.Before(arg.Cutoff) {
			matched = append(matched, ms)
		}
	}
	return page(matched, arg.Limit, arg.Offset), nil
}

func (m *memStore) DeactivateMemberships(ctx context.Context, ids []string) (int64, error) {
	if err := m.record("DeactivateMemberships"); err != nil {
		return 0, err
	}
	var n int64
	for _, raw := range ids {
		id := uuid.MustParse(raw)
		ms, ok := m.memberships[id]
		if ok && ms.IsActive {
			ms.IsActive = false
			m.memberships[id] = ms
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListAnniversaryMemberships(ctx context.Context, arg db.ListAnniversaryMembershipsParams) ([]db.Membership, error) {
	if err := m.record("ListAnniversaryMemberships"); err != nil {
		return nil, err
	}
	var matched []db.Membership
	for _, ms := range m.sortedMemberships() {
		if ms.IsActive && onDay(ms.StartedAt.UTC(), arg.Month, arg.Day, arg.LeapDay) && ms.StartedAt.Before(arg.Before) {
			matched = append(matched, ms)
		}
	}
	return page(matched, arg.Limit, arg.Offset), nil
}

func (m *memStore) ListBirthdayPets(ctx context.Context, arg db.ListBirthdayPetsParams) ([]db.Pet, error) {
	if err := m.record("ListBirthdayPets"); err != nil {
		return nil, err
	}
	var matched []db.Pet
	for _, p := range m.pets {
		if p.Birthday != nil && onDay(*p.Birthday, arg.Month, arg.Day, arg.LeapDay) {
			matched = append(matched, p)
		}
	}
	return page(matched, arg.Limit, arg.Offset), nil
}

func onDay(t time.Time, month, day int32, leapDay bool) bool {
	m, d := int32(t.Month()), int32(t.Day())
	return (m == month && d == day) || (leapDay && m == 2 && d == 29)
}

func (m *memStore) GetProfile(ctx context.Context, id uuid.UUID) (db.Profile, error) {
	if err := m.record("GetProfile"); err != nil {
		return db.Profile{}, err
	}
	p, ok := m.profiles[id]
	if !ok {
		return db.Profile{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *memStore) SetEmailVerified(ctx context.Context, id uuid.UUID) (int64, error) {
	if err := m.record("SetEmailVerified"); err != nil {
		return 0, err
	}
	p, ok := m.profiles[id]
	if !ok {
		return 0, nil
	}
	p.EmailVerified = true
	m.profiles[id] = p
	return 1, nil
}

func (m *memStore) HasRole(ctx context.Context, arg db.HasRoleParams) (bool, error) {
	if err := m.record("HasRole"); err != nil {
		return false, err
	}
	return m.roles[arg.UserID][arg.Role], nil
}

func (m *memStore) ListUserIDsByRole(ctx context.Context, role string) ([]uuid.UUID, error) {
	if err := m.record("ListUserIDsByRole"); err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for id, roles := range m.roles {
		if roles[role] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memStore) ListUsers(ctx context.Context, arg db.ListUsersParams) ([]db.User, error) {
	if err := m.record("ListUsers"); err != nil {
		return nil, err
	}
	all := make([]db.User, 0, len(m.users))
	for _, u := range m.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	return page(all, arg.Limit, arg.Offset), nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (db.User, error) {
	if err := m.record("GetUserByEmail"); err != nil {
		return db.User{}, err
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return db.User{}, pgx.ErrNoRows
}

func (m *memStore) DeleteUser(ctx context.Context, id uuid.UUID) (int64, error) {
	if err := m.record("DeleteUser"); err != nil {
		return 0, err
	}
	if _, ok := m.users[id]; !ok {
		return 0, nil
	}
	delete(m.users, id)
	delete(m.roles, id)
	delete(m.profiles, id)
	return 1, nil
}

func (m *memStore) GetPendingVerificationToken(ctx context.Context, token string) (db.EmailVerificationToken, error) {
	if err := m.record("GetPendingVerificationToken"); err != nil {
		return db.EmailVerificationToken{}, err
	}
	t, ok := m.verifyTokens[token]
	if !ok || t.VerifiedAt != nil {
		return db.EmailVerificationToken{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *memStore) ConsumeVerificationToken(ctx context.Context, arg db.ConsumeVerificationTokenParams) (int64, error) {
	if err := m.record("ConsumeVerificationToken"); err != nil {
		return 0, err
	}
	for key, t := range m.verifyTokens {
		if t.ID == arg.ID && t.VerifiedAt == nil && t.ExpiresAt.After(arg.Now) {
			now := arg.Now
			t.VerifiedAt = &now
			m.verifyTokens[key] = t
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memStore) InsertVerificationToken(ctx context.Context, arg db.InsertVerificationTokenParams) error {
	if err := m.record("InsertVerificationToken"); err != nil {
		return err
	}
	m.verifyTokens[arg.Token] = db.EmailVerificationToken{
		ID:        uuid.New(),
		UserID:    arg.UserID,
		Email:     arg.Email,
		Token:     arg.Token,
		ExpiresAt: arg.ExpiresAt,
	}
	return nil
}

func (m *memStore) InsertPasswordResetToken(ctx context.Context, arg db.InsertPasswordResetTokenParams) error {
	if err := m.record("InsertPasswordResetToken"); err != nil {
		return err
	}
	m.resetTokens = append(m.resetTokens, arg)
	return nil
}

func (m *memStore) InsertNotifications(ctx context.Context, args []db.InsertNotificationParams) error {
	if err := m.record("InsertNotifications"); err != nil {
		return err
	}
	for _, arg := range args {
		m.notifications = append(m.notifications, storedNotification{InsertNotificationParams: arg, CreatedAt: m.now()})
	}
	return nil
}

func (m *memStore) NotificationSentSince(ctx context.Context, arg db.NotificationSentSinceParams) (bool, error) {
	if err := m.record("NotificationSentSince"); err != nil {
		return false, err
	}
	for _, n := range m.notifications {
		if n.UserID == arg.UserID && n.Type == arg.Type && n.Data["ref_id"] == arg.RefID && !n.CreatedAt.Before(arg.Since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertAnalyticsEvent(ctx context.Context, arg db.InsertAnalyticsEventParams) error {
	if err := m.record("InsertAnalyticsEvent"); err != nil {
		return err
	}
	m.events = append(m.events, arg)
	return nil
}

// recordingDispatcher captures tasks and optionally runs them inline.
type recordingDispatcher struct {
	mu     sync.Mutex
	tasks  []domain.Task
	runner *TaskRunner
	err    error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, task domain.Task) error {
	d.mu.Lock()
	d.tasks = append(d.tasks, task)
	d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	if d.runner != nil {
		return d.runner.Run(ctx, task)
	}
	return nil
}

func (d *recordingDispatcher) ofKind(kind domain.TaskKind) []domain.Task {
	var out []domain.Task
	for _, t := range d.tasks {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

type recordingMailer struct {
	sent []domain.Email
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg domain.Email) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

var errBoom = errors.New("boom")

func ptr[T any](v T) *T {
	return &v
}
