package model

// ListingRef is the tagged reference from a booking to a listing. Type
// selects the listing table and ID the row inside it.
type ListingRef struct {
    Type ServiceType
    ID   string
}

// ListingSnapshot is the read-only view of a hostel, mess or gym record
// that the booking core needs. Price is the monthly price in whole
// currency units.
type ListingSnapshot struct {
    ID        string      `json:"id"`
    OwnerID   string      `json:"owner"`
    Type      ServiceType `json:"type"`
    TypeLabel string      `json:"typeLabel"`
    Name      string      `json:"name"`
    Price     int64       `json:"price"`
    Capacity  int         `json:"capacity"`
    Images    []string    `json:"images"`
    Address   string      `json:"address"`
}
