package model

import (
	"fmt"
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Role is the closed set of principals the API serves. Request handling
// dispatches on it, so free-form strings are rejected at the door.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
	RoleAdmin       Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleParticipant, RoleOrganizer, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type EventStatus string

const (
	StatusDraft     EventStatus = "Draft"
	StatusPublished EventStatus = "Published"
	StatusOngoing   EventStatus = "Ongoing"
	StatusClosed    EventStatus = "Closed"
	StatusCompleted EventStatus = "Completed"
)

// Terminal reports whether no further lifecycle transitions exist.
func (s EventStatus) Terminal() bool {
	return s == StatusClosed || s == StatusCompleted
}

type EventType string

const (
	EventNormal      EventType = "Normal"
	EventMerchandise EventType = "Merchandise"
)

type ParticipantType string

const (
	ParticipantIIITH    ParticipantType = "IIITH"
	ParticipantNonIIITH ParticipantType = "Non-IIITH"
)

type Eligibility string

const (
	EligibilityIIITH    Eligibility = "IIITH"
	EligibilityNonIIITH Eligibility = "Non-IIITH"
	EligibilityBoth     Eligibility = "Both"
)

// Admits reports whether a participant of the given type may register.
// An unset eligibility admits everyone.
func (e Eligibility) Admits(pt ParticipantType) bool {
	return e == "" || e == EligibilityBoth || string(e) == string(pt)
}

type RegistrationStatus string

const (
	RegPending    RegistrationStatus = "Pending"
	RegRegistered RegistrationStatus = "Registered"
	RegCancelled  RegistrationStatus = "Cancelled"
	RegAttended   RegistrationStatus = "Attended"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
	PaymentFailed    PaymentStatus = "Failed"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldDropdown FieldType = "dropdown"
)

// FormField is one entry of an event's custom registration form.
type FormField struct {
	Label     string    `bson:"label" json:"label"`
	FieldType FieldType `bson:"fieldType" json:"fieldType"`
	Options   []string  `bson:"options,omitempty" json:"options,omitempty"`
	Required  bool      `bson:"required" json:"required"`
	Order     int       `bson:"order" json:"order"`
}

// Variant is a merchandise option axis, e.g. size -> [S, M, L].
type Variant struct {
	Name    string   `bson:"name" json:"name"`
	Options []string `bson:"options,omitempty" json:"options,omitempty"`
}

type Event struct {
	ID                   bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name                 string          `bson:"name" json:"name"`
	Desc                 string          `bson:"desc,omitempty" json:"desc,omitempty"`
	EventType            EventType       `bson:"eventType,omitempty" json:"eventType,omitempty"`
	Eligibility          Eligibility     `bson:"eligibility,omitempty" json:"eligibility,omitempty"`
	RegistrationDeadline *time.Time      `bson:"registrationDeadline,omitempty" json:"registrationDeadline,omitempty"`
	EventStartDate       *time.Time      `bson:"eventStartDate,omitempty" json:"eventStartDate,omitempty"`
	EventEndDate         *time.Time      `bson:"eventEndDate,omitempty" json:"eventEndDate,omitempty"`
	RegistrationLimit    int             `bson:"registrationLimit,omitempty" json:"registrationLimit,omitempty"`
	Organizer            bson.ObjectID   `bson:"organizer" json:"organizer"`
	EventTags            []string        `bson:"eventTags,omitempty" json:"eventTags,omitempty"`
	RegistrationList     []bson.ObjectID `bson:"registrationList" json:"registrationList"`
	Price                int             `bson:"price" json:"price"`
	Status               EventStatus     `bson:"status" json:"status"`
	CustomForm           []FormField     `bson:"customForm,omitempty" json:"customForm,omitempty"`
	StockQuantity        int             `bson:"stockQuantity" json:"stockQuantity"`
	PurchaseLimit        int             `bson:"purchaseLimit,omitempty" json:"purchaseLimit,omitempty"`
	Variants             []Variant       `bson:"variants,omitempty" json:"variants,omitempty"`
	Visits               int             `bson:"visits" json:"visits"`
	CreatedAt            time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// FormResponse mirrors one custom-form field answer at submission time.
type FormResponse struct {
	QuestionLabel string `bson:"questionLabel" json:"questionLabel"`
	Answer        any    `bson:"answer" json:"answer"`
}

type Merchandise struct {
	Amount       int    `bson:"amount" json:"amount"`
	PaymentProof string `bson:"paymentProof" json:"paymentProof"`
}

type Registration struct {
	ID                 bson.ObjectID      `bson:"_id,omitempty" json:"id"`
	Participant        bson.ObjectID      `bson:"participant" json:"participant"`
	Event              bson.ObjectID      `bson:"event" json:"event"`
	TicketID           string             `bson:"ticketID" json:"ticketID"`
	FormResponses      []FormResponse     `bson:"formResponses,omitempty" json:"formResponses,omitempty"`
	RegistrationStatus RegistrationStatus `bson:"registrationStatus" json:"registrationStatus"`
	Payment            PaymentStatus      `bson:"payment" json:"payment"`
	Merchandise        Merchandise        `bson:"merchandise" json:"merchandise"`
	AttendanceDate     *time.Time         `bson:"attendanceDate,omitempty" json:"attendanceDate,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type Participant struct {
	ID              bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	FName           string          `bson:"fName" json:"fName"`
	LName           string          `bson:"lName" json:"lName"`
	Email           string          `bson:"email" json:"email"`
	Password        string          `bson:"password" json:"-"`
	ParticipantType ParticipantType `bson:"participantType" json:"participantType"`
	Organization    string          `bson:"organization,omitempty" json:"organization,omitempty"`
	Contact         string          `bson:"contact,omitempty" json:"contact,omitempty"`
	Interests       []string        `bson:"interests,omitempty" json:"interests,omitempty"`
	Following       []bson.ObjectID `bson:"following" json:"following"`
	Role            Role            `bson:"role" json:"role"`
	CreatedAt       time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time       `bson:"updatedAt" json:"updatedAt"`
}

type Organizer struct {
	ID        bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string          `bson:"name" json:"name"`
	Email     string          `bson:"email" json:"email"`
	Password  string          `bson:"password" json:"-"`
	Desc      string          `bson:"desc,omitempty" json:"desc,omitempty"`
	Role      Role            `bson:"role" json:"role"`
	Valid     bool            `bson:"valid" json:"valid"`
	Category  string          `bson:"category" json:"category"`
	Contact   string          `bson:"contact,omitempty" json:"contact,omitempty"`
	Discord   string          `bson:"discord,omitempty" json:"discord,omitempty"`
	Followers []bson.ObjectID `bson:"followers" json:"followers"`
	CreatedAt time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time       `bson:"updatedAt" json:"updatedAt"`
}

type Admin struct {
	ID       bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Username string        `bson:"username" json:"username"`
	Password string        `bson:"password" json:"-"`
	Role     Role          `bson:"role" json:"role"`
}

type ResetStatus string

const (
	ResetPending  ResetStatus = "Pending"
	ResetApproved ResetStatus = "Approved"
	ResetRejected ResetStatus = "Rejected"
)

// PasswordReset is an organizer's request for a new password, decided by an admin.
type PasswordReset struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Organizer bson.ObjectID `bson:"organizer" json:"organizer"`
	Reason    string        `bson:"reason" json:"reason"`
	Status    ResetStatus   `bson:"status" json:"status"`
	Comments  string        `bson:"comments" json:"comments"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}

type MessageType string

const (
	MsgMessage      MessageType = "message"
	MsgQuestion     MessageType = "question"
	MsgAnnouncement MessageType = "announcement"
	MsgResponse     MessageType = "response"
)

type MessageStatus string

const (
	MsgNormal  MessageStatus = "normal"
	MsgDeleted MessageStatus = "deleted"
	MsgPinned  MessageStatus = "pinned"
)

// Message is one entry of an event's chat/announcement/Q&A thread.
type Message struct {
	ID                  bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	EventID             bson.ObjectID   `bson:"eventId" json:"eventId"`
	MessageType         MessageType     `bson:"messageType" json:"messageType"`
	SenderID            string          `bson:"senderId,omitempty" json:"senderId,omitempty"`
	OrganizerID         bson.ObjectID   `bson:"organizerId,omitempty" json:"organizerId,omitempty"`
	Content             string          `bson:"content,omitempty" json:"content,omitempty"`
	ReferencedBy        []bson.ObjectID `bson:"referencedBy" json:"referencedBy"`
	ReferencedMessageID bson.ObjectID   `bson:"referencedMessageId,omitempty" json:"referencedMessageId,omitempty"`
	Status              MessageStatus   `bson:"status" json:"status"`
	SenderName          string          `bson:"senderName,omitempty" json:"senderName,omitempty"`
	CreatedAt           time.Time       `bson:"createdAt" json:"createdAt"`
}

// NewTicketID mints a ticket identifier in the historical
// FELICITY-<event>-<epochMillis>-<rand> format. Uniqueness is backed by a
// unique index on the registrations collection, not by the format alone.
func NewTicketID(eventID bson.ObjectID, now time.Time) string {
	return fmt.Sprintf("FELICITY-%s-%d-%d", eventID.Hex(), now.UnixMilli(), rand.Intn(1000))
}
