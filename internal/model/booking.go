package model

import "time"

// ServiceType tags which listing table a booking references.
type ServiceType string

const (
    ServiceHostel ServiceType = "hostel"
    ServiceMess   ServiceType = "mess"
    ServiceGym    ServiceType = "gym"
)

// ServiceTypes lists every known service type in display order.
var ServiceTypes = []ServiceType{ServiceHostel, ServiceMess, ServiceGym}

// Valid reports whether s is one of the three known service types.
func (s ServiceType) Valid() bool {
    switch s {
    case ServiceHostel, ServiceMess, ServiceGym:
        return true
    }
    return false
}

// Label returns the human readable name used on owner dashboards.
func (s ServiceType) Label() string {
    switch s {
    case ServiceHostel:
        return "Hostel Room"
    case ServiceMess:
        return "Mess Subscription"
    case ServiceGym:
        return "Gym Membership"
    }
    return string(s)
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
    StatusPending   BookingStatus = "pending"
    StatusAccepted  BookingStatus = "accepted"
    StatusRejected  BookingStatus = "rejected"
    StatusCancelled BookingStatus = "cancelled"
)

// transitions holds the allowed moves out of each status. Terminal
// statuses map to an empty slice.
var transitions = map[BookingStatus][]BookingStatus{
    StatusPending:   {StatusAccepted, StatusRejected, StatusCancelled},
    StatusAccepted:  {},
    StatusRejected:  {},
    StatusCancelled: {},
}

// Valid reports whether s is a recognised status.
func (s BookingStatus) Valid() bool {
    _, ok := transitions[s]
    return ok
}

// CanTransitionTo reports whether moving from s to target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
    for _, t := range transitions[s] {
        if t == target {
            return true
        }
    }
    return false
}

// IsTerminal reports whether no further transition is defined from s.
func (s BookingStatus) IsTerminal() bool {
    return len(transitions[s]) == 0
}

// PaymentStatus records whether a booking has been settled. It is
// independent of BookingStatus.
type PaymentStatus string

const (
    PaymentUnpaid PaymentStatus = "unpaid"
    PaymentPaid   PaymentStatus = "paid"
)

// BookingDetails carries the type specific fields of a booking request.
// Which of them are required depends on the booking's ServiceType.
//
// Fields:
//  CheckInDate            – hostel move-in date.
//  StartDate              – mess subscription start date.
//  Duration               – free text label such as "3 months" or "1 year".
//  AdditionalRequirements – optional note from the student.
type BookingDetails struct {
    CheckInDate            *time.Time `json:"checkInDate,omitempty"`
    StartDate              *time.Time `json:"startDate,omitempty"`
    Duration               string     `json:"duration,omitempty"`
    AdditionalRequirements string     `json:"additionalRequirements,omitempty"`
}

// Booking is a student's request against a hostel, mess or gym listing.
// Student, Owner, ServiceType and ServiceID never change after creation.
//
// Fields:
//  ID            – opaque identifier generated at creation.
//  StudentID     – identity that requested the booking.
//  OwnerID       – owner of the listing at creation time.
//  ServiceType   – hostel, mess or gym.
//  ServiceID     – listing id inside the table selected by ServiceType.
//  Details       – type specific booking details.
//  Status        – lifecycle state (pending, accepted, rejected, cancelled).
//  PaymentStatus – unpaid or paid.
//  CreatedAt     – creation timestamp (UTC).
//  UpdatedAt     – refreshed on every mutation (UTC).
type Booking struct {
    ID            string         `json:"id"`
    StudentID     string         `json:"student"`
    OwnerID       string         `json:"owner"`
    ServiceType   ServiceType    `json:"serviceType"`
    ServiceID     string         `json:"serviceId"`
    Details       BookingDetails `json:"bookingDetails"`
    Status        BookingStatus  `json:"status"`
    PaymentStatus PaymentStatus  `json:"paymentStatus"`
    CreatedAt     time.Time      `json:"createdAt"`
    UpdatedAt     time.Time      `json:"updatedAt"`
}

// Ref returns the polymorphic listing reference of the booking.
func (b Booking) Ref() ListingRef {
    return ListingRef{Type: b.ServiceType, ID: b.ServiceID}
}

// BookingView is a booking decorated at read time with a snapshot of its
// listing and, on owner views, a summary of the requesting student. Both
// decorations are nil when the referenced record no longer exists.
type BookingView struct {
    Booking
    Listing *ListingSnapshot `json:"listing"`
    Student *UserSummary     `json:"studentInfo,omitempty"`
}
