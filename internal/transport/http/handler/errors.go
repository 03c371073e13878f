package handler

const (
	errInternalServer   = "Internal server error"
	errInvalidID        = "Invalid id"
	errUserNotFound     = "User not found"
	errEquipmentMissing = "Equipment not found"
	errTypeMissing      = "Equipment type not found"
	errBookingMissing   = "Booking not found"
	errForbidden        = "Forbidden"
	errUnauthorized     = "Unauthorized"
)
