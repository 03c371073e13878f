package usecase_test

import (
	"context"
	"time"

	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/repository"
)

// Hand-rolled fakes with overridable func fields. Methods a test does not
// configure return zero values, so each test only wires what it exercises.

type fakeUserRepo struct {
	create                 func(ctx context.Context, user *domain.User) (*domain.User, error)
	findByID               func(ctx context.Context, id int64) (*domain.User, error)
	findByEmail            func(ctx context.Context, email string) (*domain.User, error)
	list                   func(ctx context.Context) ([]*domain.User, error)
	updateRole             func(ctx context.Context, id int64, role domain.RoleID) error
	setActive              func(ctx context.Context, id int64, active bool) error
	touchLastLogin         func(ctx context.Context, id int64, at time.Time) error
	countAdmins            func(ctx context.Context) (int, error)
	listNotifiableManagers func(ctx context.Context) ([]*domain.User, error)
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if r.create == nil {
		return user, nil
	}
	return r.create(ctx, user)
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	if r.findByID == nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findByID(ctx, id)
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if r.findByEmail == nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findByEmail(ctx, email)
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	if r.list == nil {
		return nil, nil
	}
	return r.list(ctx)
}

func (r *fakeUserRepo) UpdateRole(ctx context.Context, id int64, role domain.RoleID) error {
	if r.updateRole == nil {
		return nil
	}
	return r.updateRole(ctx, id, role)
}

func (r *fakeUserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	if r.setActive == nil {
		return nil
	}
	return r.setActive(ctx, id, active)
}

func (r *fakeUserRepo) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	if r.touchLastLogin == nil {
		return nil
	}
	return r.touchLastLogin(ctx, id, at)
}

func (r *fakeUserRepo) CountAdmins(ctx context.Context) (int, error) {
	if r.countAdmins == nil {
		return 0, nil
	}
	return r.countAdmins(ctx)
}

func (r *fakeUserRepo) ListNotifiableManagers(ctx context.Context) ([]*domain.User, error) {
	if r.listNotifiableManagers == nil {
		return nil, nil
	}
	return r.listNotifiableManagers(ctx)
}

type fakeAuthRepo struct {
	createMagicLink    func(ctx context.Context, link *domain.MagicLink) (*domain.MagicLink, error)
	findMagicLink      func(ctx context.Context, token string) (*domain.MagicLink, error)
	markMagicLinkUsed  func(ctx context.Context, id int64, usedAt time.Time, authTokenID int64) error
	createAuthToken    func(ctx context.Context, token *domain.AuthToken) (*domain.AuthToken, error)
	findAuthToken      func(ctx context.Context, token string) (*domain.AuthToken, error)
	findAuthTokenByID  func(ctx context.Context, id int64) (*domain.AuthToken, error)
	touchAuthToken     func(ctx context.Context, id int64, at time.Time) error
	revokeAuthToken    func(ctx context.Context, token string) error
	revokeUserTokens   func(ctx context.Context, userID int64) error
	enforceTokenLimit  func(ctx context.Context, userID int64, keep int) error
	deleteExpired      func(ctx context.Context, cutoff time.Time) (int64, error)
	deleteExpiredLinks func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (r *fakeAuthRepo) CreateMagicLink(ctx context.Context, link *domain.MagicLink) (*domain.MagicLink, error) {
	if r.createMagicLink == nil {
		link.ID = 1
		return link, nil
	}
	return r.createMagicLink(ctx, link)
}

func (r *fakeAuthRepo) FindMagicLink(ctx context.Context, token string) (*domain.MagicLink, error) {
	if r.findMagicLink == nil {
		return nil, domain.ErrMagicLinkInvalid
	}
	return r.findMagicLink(ctx, token)
}

func (r *fakeAuthRepo) MarkMagicLinkUsed(ctx context.Context, id int64, usedAt time.Time, authTokenID int64) error {
	if r.markMagicLinkUsed == nil {
		return nil
	}
	return r.markMagicLinkUsed(ctx, id, usedAt, authTokenID)
}

func (r *fakeAuthRepo) CreateAuthToken(ctx context.Context, token *domain.AuthToken) (*domain.AuthToken, error) {
	if r.createAuthToken == nil {
		token.ID = 1
		return token, nil
	}
	return r.createAuthToken(ctx, token)
}

func (r *fakeAuthRepo) FindAuthToken(ctx context.Context, token string) (*domain.AuthToken, error) {
	if r.findAuthToken == nil {
		return nil, domain.ErrTokenInvalid
	}
	return r.findAuthToken(ctx, token)
}

func (r *fakeAuthRepo) FindAuthTokenByID(ctx context.Context, id int64) (*domain.AuthToken, error) {
	if r.findAuthTokenByID == nil {
		return nil, domain.ErrTokenInvalid
	}
	return r.findAuthTokenByID(ctx, id)
}

func (r *fakeAuthRepo) TouchAuthToken(ctx context.Context, id int64, at time.Time) error {
	if r.touchAuthToken == nil {
		return nil
	}
	return r.touchAuthToken(ctx, id, at)
}

func (r *fakeAuthRepo) RevokeAuthToken(ctx context.Context, token string) error {
	if r.revokeAuthToken == nil {
		return nil
	}
	return r.revokeAuthToken(ctx, token)
}

func (r *fakeAuthRepo) RevokeUserTokens(ctx context.Context, userID int64) error {
	if r.revokeUserTokens == nil {
		return nil
	}
	return r.revokeUserTokens(ctx, userID)
}

func (r *fakeAuthRepo) EnforceTokenLimit(ctx context.Context, userID int64, keep int) error {
	if r.enforceTokenLimit == nil {
		return nil
	}
	return r.enforceTokenLimit(ctx, userID, keep)
}

func (r *fakeAuthRepo) DeleteExpiredTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.deleteExpired == nil {
		return 0, nil
	}
	return r.deleteExpired(ctx, cutoff)
}

func (r *fakeAuthRepo) DeleteExpiredMagicLinks(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.deleteExpiredLinks == nil {
		return 0, nil
	}
	return r.deleteExpiredLinks(ctx, cutoff)
}

type fakeTypeRepo struct {
	list              func(ctx context.Context, includeInactive bool) ([]*domain.EquipmentType, error)
	getByID           func(ctx context.Context, id int64) (*domain.EquipmentType, error)
	create            func(ctx context.Context, t *domain.EquipmentType) (*domain.EquipmentType, error)
	update            func(ctx context.Context, t *domain.EquipmentType) error
	delete_           func(ctx context.Context, id int64) error
	listUsers         func(ctx context.Context, typeID int64) ([]*domain.TypeAccess, error)
	grant             func(ctx context.Context, typeID, userID int64, grantedBy *int64) error
	revoke            func(ctx context.Context, typeID, userID int64) error
	grantAllActive    func(ctx context.Context, userID int64) error
	accessibleTypeIDs func(ctx context.Context, userID int64) ([]int64, error)
}

func (r *fakeTypeRepo) List(ctx context.Context, includeInactive bool) ([]*domain.EquipmentType, error) {
	if r.list == nil {
		return nil, nil
	}
	return r.list(ctx, includeInactive)
}

func (r *fakeTypeRepo) GetByID(ctx context.Context, id int64) (*domain.EquipmentType, error) {
	if r.getByID == nil {
		return nil, domain.ErrEquipmentTypeNotFound
	}
	return r.getByID(ctx, id)
}

func (r *fakeTypeRepo) Create(ctx context.Context, t *domain.EquipmentType) (*domain.EquipmentType, error) {
	if r.create == nil {
		return t, nil
	}
	return r.create(ctx, t)
}

func (r *fakeTypeRepo) Update(ctx context.Context, t *domain.EquipmentType) error {
	if r.update == nil {
		return nil
	}
	return r.update(ctx, t)
}

func (r *fakeTypeRepo) Delete(ctx context.Context, id int64) error {
	if r.delete_ == nil {
		return nil
	}
	return r.delete_(ctx, id)
}

func (r *fakeTypeRepo) ListUsers(ctx context.Context, typeID int64) ([]*domain.TypeAccess, error) {
	if r.listUsers == nil {
		return nil, nil
	}
	return r.listUsers(ctx, typeID)
}

func (r *fakeTypeRepo) Grant(ctx context.Context, typeID, userID int64, grantedBy *int64) error {
	if r.grant == nil {
		return nil
	}
	return r.grant(ctx, typeID, userID, grantedBy)
}

func (r *fakeTypeRepo) Revoke(ctx context.Context, typeID, userID int64) error {
	if r.revoke == nil {
		return nil
	}
	return r.revoke(ctx, typeID, userID)
}

func (r *fakeTypeRepo) GrantAllActive(ctx context.Context, userID int64) error {
	if r.grantAllActive == nil {
		return nil
	}
	return r.grantAllActive(ctx, userID)
}

func (r *fakeTypeRepo) AccessibleTypeIDs(ctx context.Context, userID int64) ([]int64, error) {
	if r.accessibleTypeIDs == nil {
		return nil, nil
	}
	return r.accessibleTypeIDs(ctx, userID)
}

type fakeBookingRepo struct {
	create                func(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	getByID               func(ctx context.Context, id int64) (*domain.Booking, error)
	update                func(ctx context.Context, b *domain.Booking) error
	setStatus             func(ctx context.Context, id int64, status domain.BookingStatus) error
	list                  func(ctx context.Context, input repository.ListBookingsInput) ([]*domain.Booking, error)
	listOverlappingDates  func(ctx context.Context, equipmentID int64, startDate, endDate time.Time, excludeID int64) ([]*domain.Booking, error)
	countCreatedBetween   func(ctx context.Context, userID int64, from, to time.Time) (int, error)
	listStartingOn        func(ctx context.Context, day time.Time) ([]*domain.Booking, error)
	listForEquipmentRange func(ctx context.Context, equipmentID int64, from, to time.Time) ([]*domain.Booking, error)
}

func (r *fakeBookingRepo) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	if r.create == nil {
		b.ID = 1
		return b, nil
	}
	return r.create(ctx, b)
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	if r.getByID == nil {
		return nil, domain.ErrBookingNotFound
	}
	return r.getByID(ctx, id)
}

func (r *fakeBookingRepo) Update(ctx context.Context, b *domain.Booking) error {
	if r.update == nil {
		return nil
	}
	return r.update(ctx, b)
}

func (r *fakeBookingRepo) SetStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	if r.setStatus == nil {
		return nil
	}
	return r.setStatus(ctx, id, status)
}

func (r *fakeBookingRepo) List(ctx context.Context, input repository.ListBookingsInput) ([]*domain.Booking, error) {
	if r.list == nil {
		return nil, nil
	}
	return r.list(ctx, input)
}

func (r *fakeBookingRepo) ListOverlappingDates(ctx context.Context, equipmentID int64, startDate, endDate time.Time, excludeID int64) ([]*domain.Booking, error) {
	if r.listOverlappingDates == nil {
		return nil, nil
	}
	return r.listOverlappingDates(ctx, equipmentID, startDate, endDate, excludeID)
}

func (r *fakeBookingRepo) CountCreatedBetween(ctx context.Context, userID int64, from, to time.Time) (int, error) {
	if r.countCreatedBetween == nil {
		return 0, nil
	}
	return r.countCreatedBetween(ctx, userID, from, to)
}

func (r *fakeBookingRepo) ListStartingOn(ctx context.Context, day time.Time) ([]*domain.Booking, error) {
	if r.listStartingOn == nil {
		return nil, nil
	}
	return r.listStartingOn(ctx, day)
}

func (r *fakeBookingRepo) ListForEquipmentRange(ctx context.Context, equipmentID int64, from, to time.Time) ([]*domain.Booking, error) {
	if r.listForEquipmentRange == nil {
		return nil, nil
	}
	return r.listForEquipmentRange(ctx, equipmentID, from, to)
}

type fakeEquipmentRepo struct {
	list                  func(ctx context.Context, input repository.ListEquipmentInput) ([]*domain.Equipment, error)
	getByID               func(ctx context.Context, id int64) (*domain.Equipment, error)
	create                func(ctx context.Context, e *domain.Equipment) (*domain.Equipment, error)
	update                func(ctx context.Context, e *domain.Equipment) error
	delete_               func(ctx context.Context, id int64) error
	deactivate            func(ctx context.Context, id int64) error
	hasActiveBookings     func(ctx context.Context, id int64) (bool, error)
	listByCalibrationDate func(ctx context.Context, day time.Time) ([]*domain.Equipment, error)
	listManagers          func(ctx context.Context, equipmentID int64) ([]*domain.ManagerAssignment, error)
	managerUsers          func(ctx context.Context, equipmentID int64) ([]*domain.User, error)
	assignManager         func(ctx context.Context, equipmentID, managerID int64, assignedBy *int64) error
	removeManager         func(ctx context.Context, equipmentID, managerID int64) error
	isManagedBy           func(ctx context.Context, equipmentID, userID int64) (bool, error)
	listManagedBy         func(ctx context.Context, managerID int64) ([]*domain.Equipment, error)
	controlledTypeIDs     func(ctx context.Context, managerID int64) ([]int64, error)
}

func (r *fakeEquipmentRepo) List(ctx context.Context, input repository.ListEquipmentInput) ([]*domain.Equipment, error) {
	if r.list == nil {
		return nil, nil
	}
	return r.list(ctx, input)
}

func (r *fakeEquipmentRepo) GetByID(ctx context.Context, id int64) (*domain.Equipment, error) {
	if r.getByID == nil {
		return nil, domain.ErrEquipmentNotFound
	}
	return r.getByID(ctx, id)
}

func (r *fakeEquipmentRepo) Create(ctx context.Context, e *domain.Equipment) (*domain.Equipment, error) {
	if r.create == nil {
		return e, nil
	}
	return r.create(ctx, e)
}

func (r *fakeEquipmentRepo) Update(ctx context.Context, e *domain.Equipment) error {
	if r.update == nil {
		return nil
	}
	return r.update(ctx, e)
}

func (r *fakeEquipmentRepo) Delete(ctx context.Context, id int64) error {
	if r.delete_ == nil {
		return nil
	}
	return r.delete_(ctx, id)
}

func (r *fakeEquipmentRepo) Deactivate(ctx context.Context, id int64) error {
	if r.deactivate == nil {
		return nil
	}
	return r.deactivate(ctx, id)
}

func (r *fakeEquipmentRepo) HasActiveBookings(ctx context.Context, id int64) (bool, error) {
	if r.hasActiveBookings == nil {
		return false, nil
	}
	return r.hasActiveBookings(ctx, id)
}

func (r *fakeEquipmentRepo) ListByCalibrationDate(ctx context.Context, day time.Time) ([]*domain.Equipment, error) {
	if r.listByCalibrationDate == nil {
		return nil, nil
	}
	return r.listByCalibrationDate(ctx, day)
}

func (r *fakeEquipmentRepo) ListManagers(ctx context.Context, equipmentID int64) ([]*domain.ManagerAssignment, error) {
	if r.listManagers == nil {
		return nil, nil
	}
	return r.listManagers(ctx, equipmentID)
}

func (r *fakeEquipmentRepo) ManagerUsers(ctx context.Context, equipmentID int64) ([]*domain.User, error) {
	if r.managerUsers == nil {
		return nil, nil
	}
	return r.managerUsers(ctx, equipmentID)
}

func (r *fakeEquipmentRepo) AssignManager(ctx context.Context, equipmentID, managerID int64, assignedBy *int64) error {
	if r.assignManager == nil {
		return nil
	}
	return r.assignManager(ctx, equipmentID, managerID, assignedBy)
}

func (r *fakeEquipmentRepo) RemoveManager(ctx context.Context, equipmentID, managerID int64) error {
	if r.removeManager == nil {
		return nil
	}
	return r.removeManager(ctx, equipmentID, managerID)
}

func (r *fakeEquipmentRepo) IsManagedBy(ctx context.Context, equipmentID, userID int64) (bool, error) {
	if r.isManagedBy == nil {
		return false, nil
	}
	return r.isManagedBy(ctx, equipmentID, userID)
}

func (r *fakeEquipmentRepo) ListManagedBy(ctx context.Context, managerID int64) ([]*domain.Equipment, error) {
	if r.listManagedBy == nil {
		return nil, nil
	}
	return r.listManagedBy(ctx, managerID)
}

func (r *fakeEquipmentRepo) ControlledTypeIDs(ctx context.Context, managerID int64) ([]int64, error) {
	if r.controlledTypeIDs == nil {
		return nil, nil
	}
	return r.controlledTypeIDs(ctx, managerID)
}

type fakeNotificationRepo struct {
	enqueue        func(ctx context.Context, n *domain.NotificationLog) (bool, error)
	listDue        func(ctx context.Context, now time.Time, limit int) ([]*domain.NotificationLog, error)
	markSent       func(ctx context.Context, id int64, at time.Time) error
	markFailed     func(ctx context.Context, id int64, errMsg string) error
	markSkipped    func(ctx context.Context, id int64, reason string) error
	defer_         func(ctx context.Context, id int64, until time.Time) error
	deleteTerminal func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (r *fakeNotificationRepo) Enqueue(ctx context.Context, n *domain.NotificationLog) (bool, error) {
	if r.enqueue == nil {
		return true, nil
	}
	return r.enqueue(ctx, n)
}

func (r *fakeNotificationRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.NotificationLog, error) {
	if r.listDue == nil {
		return nil, nil
	}
	return r.listDue(ctx, now, limit)
}

func (r *fakeNotificationRepo) MarkSent(ctx context.Context, id int64, at time.Time) error {
	if r.markSent == nil {
		return nil
	}
	return r.markSent(ctx, id, at)
}

func (r *fakeNotificationRepo) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	if r.markFailed == nil {
		return nil
	}
	return r.markFailed(ctx, id, errMsg)
}

func (r *fakeNotificationRepo) MarkSkipped(ctx context.Context, id int64, reason string) error {
	if r.markSkipped == nil {
		return nil
	}
	return r.markSkipped(ctx, id, reason)
}

func (r *fakeNotificationRepo) Defer(ctx context.Context, id int64, until time.Time) error {
	if r.defer_ == nil {
		return nil
	}
	return r.defer_(ctx, id, until)
}

func (r *fakeNotificationRepo) DeleteTerminal(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.deleteTerminal == nil {
		return 0, nil
	}
	return r.deleteTerminal(ctx, cutoff)
}

type fakeEmailSender struct {
	send func(ctx context.Context, to, subject, body string) error
}

func (s *fakeEmailSender) Send(ctx context.Context, to, subject, body string) error {
	if s.send == nil {
		return nil
	}
	return s.send(ctx, to, subject, body)
}
