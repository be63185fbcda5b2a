package model

import "time"

// RevenueSnapshot is the derived revenue report for one owner. It is
// recomputed on every request and never persisted.
type RevenueSnapshot struct {
    OwnerID            string                `json:"owner"`
    TotalRevenue       int64                 `json:"totalRevenue"`
    PaidBookingsCount  int                   `json:"paidBookingsCount"`
    ServiceTypeRevenue map[ServiceType]int64 `json:"serviceTypeRevenue"`
    MonthlyData        []MonthlyRevenue      `json:"monthlyData"`
    RecentTransactions []RevenueTransaction  `json:"recentTransactions"`
    GeneratedAt        time.Time             `json:"generatedAt"`
}

// MonthlyRevenue is the revenue bucket of one calendar month. Month is
// formatted as YYYY-MM and Label as "Jan 2025".
type MonthlyRevenue struct {
    Month   string `json:"month"`
    Label   string `json:"label"`
    Revenue int64  `json:"revenue"`
}

// RevenueTransaction is one accepted and paid booking annotated with the
// amount it contributes to the report.
type RevenueTransaction struct {
    ID               string       `json:"id"`
    Amount           int64        `json:"amount"`
    MonthlyPrice     int64        `json:"monthlyPrice"`
    Duration         int          `json:"duration"`
    OriginalDuration string       `json:"originalDuration"`
    ServiceName      string       `json:"serviceName"`
    ServiceType      ServiceType  `json:"serviceType"`
    Student          *UserSummary `json:"student"`
    Date             time.Time    `json:"date"`
}
