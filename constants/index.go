package constants

// Roles
const (
	ROLE_ADMIN     = "ADMIN"
	ROLE_ORGANIZER = "ORGANIZER"
)

// Event status
const (
	EVENT_DRAFT     = "DRAFT"
	EVENT_PUBLISHED = "PUBLISHED"
	EVENT_CANCELLED = "CANCELLED"
	EVENT_COMPLETED = "COMPLETED"
)

// Registration status
const (
	REGISTRATION_PENDING    = "PENDING"
	REGISTRATION_CONFIRMED  = "CONFIRMED"
	REGISTRATION_WAITLISTED = "WAITLISTED"
	REGISTRATION_CANCELLED  = "CANCELLED"
)

// Payment status
const (
	PAYMENT_PENDING = "PENDING"
	PAYMENT_SUCCESS = "SUCCESS"
	PAYMENT_FAILED  = "FAILED"
	PAYMENT_REVIEW  = "REVIEW"
)

// Waitlist entry status
const (
	WAITLIST_WAITING   = "WAITING"
	WAITLIST_NOTIFIED  = "NOTIFIED"
	WAITLIST_CONVERTED = "CONVERTED"
	WAITLIST_EXPIRED   = "EXPIRED"
)

// Badge scan types
const (
	SCAN_CHECKIN  = "checkin"
	SCAN_CHECKOUT = "checkout"
)

// Ticket types
var TICKET_TYPES = []string{"REGULAR", "VIP", "STUDENT"}

// Response messages
const (
	MISSING_LOGIN_INPUT      = "MISSING_LOGIN_INPUT"
	INVALID_USERNAME         = "INVALID_USERNAME"
	INVALID_PASSWORD         = "INVALID_PASSWORD"
	ACCOUNT_NOT_ACTIVE       = "ACCOUNT_NOT_ACTIVE"
	ERROR_INTERNAL_ERROR     = "INTERNAL_ERROR"
	DATA_INPUT_IS_NOT_NUMBER = "DATA_INPUT_IS_NOT_NUMBER"
	EVENT_NOT_FOUND          = "EVENT_NOT_FOUND"
	EVENT_NOT_PUBLISHED      = "EVENT_NOT_PUBLISHED"
	REGISTRATION_CLOSED      = "REGISTRATION_CLOSED"
	ALREADY_REGISTERED       = "ALREADY_REGISTERED"
	REGISTRATION_NOT_FOUND   = "REGISTRATION_NOT_FOUND"
	PAYMENT_NOT_FOUND        = "PAYMENT_NOT_FOUND"
	BADGE_NOT_FOUND          = "BADGE_NOT_FOUND"
	INVALID_BADGE            = "INVALID_BADGE"
	NOT_CONFIRMED            = "NOT_CONFIRMED"
	DUPLICATE_SCAN           = "DUPLICATE_SCAN"
)
