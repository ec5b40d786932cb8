package dto

import (
	"time"

	"github.com/wb-go/wbf/ginext"

	"felicity/internal/model"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	EventNotFound        = "EVENT_NOT_FOUND"
	RegistrationNotFound = "REGISTRATION_NOT_FOUND"
	OrganizerNotFound    = "ORGANIZER_NOT_FOUND"
	ParticipantNotFound  = "PARTICIPANT_NOT_FOUND"
	ResetNotFound        = "RESET_NOT_FOUND"

	RegistrationClosed    = "REGISTRATION_CLOSED"
	DeadlinePassed        = "DEADLINE_PASSED"
	CapacityReached       = "CAPACITY_REACHED"
	NotEligible           = "NOT_ELIGIBLE"
	RegistrationDuplicate = "REGISTRATION_DUPLICATE"
	InvalidAmount         = "INVALID_AMOUNT"
	OutOfStock            = "OUT_OF_STOCK"
	PaymentNotPending     = "PAYMENT_NOT_PENDING"

	WrongEvent      = "WRONG_EVENT"
	AlreadyAdmitted = "ALREADY_ADMITTED"
	TicketCancelled = "TICKET_CANCELLED"

	EditForbidden       = "EDIT_FORBIDDEN"
	FormLocked          = "FORM_LOCKED"
	DeadlineNotExtended = "DEADLINE_NOT_EXTENDED"
	LimitNotRaised      = "LIMIT_NOT_RAISED"
	BadTransition       = "BAD_TRANSITION"
	PublishIncomplete   = "PUBLISH_INCOMPLETE"

	Unauthorized       = "UNAUTHORIZED"
	Forbidden          = "FORBIDDEN"
	InvalidCredentials = "INVALID_CREDENTIALS"
	AccountSuspended   = "ACCOUNT_SUSPENDED"
	EmailExists        = "EMAIL_EXISTS"
)

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

// Auth surface.

type SignupRequest struct {
	FName           string                `json:"fName" validate:"required,max=100"`
	LName           string                `json:"lName" validate:"required,max=100"`
	Email           string                `json:"email" validate:"required,email"`
	Password        string                `json:"password" validate:"required,min=8"`
	ParticipantType model.ParticipantType `json:"participantType" validate:"required,oneof=IIITH Non-IIITH"`
	Organization    string                `json:"organization"`
	Contact         string                `json:"contact"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=participant organizer admin"`
}

type TokenResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type RoleResponse struct {
	Role string `json:"role"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// Organizer event surface.

type CreateDraftRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	Desc string `json:"desc"`
}

// EditEventRequest uses pointers so that absent fields stay distinguishable
// from explicit zero values; which of them actually apply depends on the
// event's current status.
type EditEventRequest struct {
	Name                 *string            `json:"name"`
	Desc                 *string            `json:"desc"`
	EventType            *model.EventType   `json:"eventType" validate:"omitempty,oneof=Normal Merchandise"`
	Eligibility          *model.Eligibility `json:"eligibility" validate:"omitempty,oneof=IIITH Non-IIITH Both"`
	RegistrationDeadline *time.Time         `json:"registrationDeadline"`
	EventStartDate       *time.Time         `json:"eventStartDate"`
	EventEndDate         *time.Time         `json:"eventEndDate"`
	RegistrationLimit    *int               `json:"registrationLimit" validate:"omitempty,gt=0"`
	EventTags            *[]string          `json:"eventTags"`
	Price                *int               `json:"price" validate:"omitempty,gte=0"`
	StockQuantity        *int               `json:"stockQuantity" validate:"omitempty,gte=0"`
	PurchaseLimit        *int               `json:"purchaseLimit" validate:"omitempty,gt=0"`
	Variants             *[]model.Variant   `json:"variants"`
	CustomForm           *[]model.FormField `json:"customForm"`
	Status               *model.EventStatus `json:"status" validate:"omitempty,oneof=Draft Published Ongoing Closed Completed"`
}

type ScanTicketRequest struct {
	TicketID string `json:"ticketId" validate:"required"`
}

// Participant registration surface.

type RegisterRequest struct {
	FormResponses []model.FormResponse `json:"formResponses"`
	Amount        int                  `json:"amount" validate:"omitempty,gte=1"`
}

type RegisterResponse struct {
	Message        string `json:"message"`
	TicketID       string `json:"ticketID"`
	RegistrationID string `json:"registrationId"`
}

// RegistrationFormView is what a prospective registrant may see before
// committing: the form plus, for merchandise, the purchase constraints.
type RegistrationFormView struct {
	Name          string            `json:"name"`
	Price         int               `json:"price"`
	Form          []model.FormField `json:"form"`
	Variants      []model.Variant   `json:"variants,omitempty"`
	StockQuantity *int              `json:"stockQuantity,omitempty"`
	PurchaseLimit *int              `json:"purchaseLimit,omitempty"`
}

type ProfileUpdateRequest struct {
	FName        *string   `json:"fName"`
	LName        *string   `json:"lName"`
	Email        *string   `json:"email" validate:"omitempty,email"`
	Contact      *string   `json:"contact"`
	Organization *string   `json:"organization"`
	Interests    *[]string `json:"interests"`
	Following    *[]string `json:"following"`
}

type OrganizerProfileUpdateRequest struct {
	Desc     *string `json:"desc"`
	Category *string `json:"category"`
	Contact  *string `json:"contact"`
	Discord  *string `json:"discord"`
}

// Admin surface.

type AddOrganizerRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Desc     string `json:"desc"`
	Category string `json:"category"`
}

type ResetRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type ResetDecisionRequest struct {
	ID       string            `json:"id" validate:"required"`
	Status   model.ResetStatus `json:"status" validate:"required,oneof=Approved Rejected"`
	Comments string            `json:"comments"`
}

// TicketNotification is the queue message the consumer worker turns into a
// confirmation email with an inline QR code.
type TicketNotification struct {
	Email          string     `json:"email"`
	EventName      string     `json:"event_name"`
	EventStartDate *time.Time `json:"event_start_date,omitempty"`
	EventEndDate   *time.Time `json:"event_end_date,omitempty"`
	TicketID       string     `json:"ticket_id"`
}

func ErrorResponse(c *ginext.Context, status int, code, desc string) {
	c.JSON(status, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func BadResponseError(c *ginext.Context, code, desc string) {
	ErrorResponse(c, 400, code, desc)
}

func UnauthorizedError(c *ginext.Context, desc string) {
	ErrorResponse(c, 401, Unauthorized, desc)
}

func ForbiddenError(c *ginext.Context, code, desc string) {
	ErrorResponse(c, 403, code, desc)
}

func NotFoundError(c *ginext.Context, code, desc string) {
	ErrorResponse(c, 404, code, desc)
}

func InternalServerError(c *ginext.Context) {
	ErrorResponse(c, 500, ServiceUnavailable, InternalError)
}

func FieldBadFormatError(c *ginext.Context, fieldName string) {
	BadResponseError(c, FieldBadFormat, "Field '"+fieldName+"' has bad format")
}

func EventNotFoundError(c *ginext.Context) {
	NotFoundError(c, EventNotFound, "Event not found")
}

func RegistrationNotFoundError(c *ginext.Context) {
	NotFoundError(c, RegistrationNotFound, "Registration not found")
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
