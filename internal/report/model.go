package report

import (
	"time"

	"github.com/gofrs/uuid"
)

// DayBucket is one calendar day of the trailing report window. Date is a
// month/day display label and repeats across years.
type DayBucket struct {
	Date       string  `json:"date"`
	Orders     int     `json:"orders"`
	Revenue    float64 `json:"revenue"`
	Deliveries int     `json:"deliveries"`
	Services   int     `json:"services"`
}

// OrderRecord is the slice of an order the aggregator reads.
type OrderRecord struct {
	ID          uuid.UUID
	TotalAmount float64
	Type        string
	CreatedAt   time.Time
}

type RecentOrder struct {
	ID          uuid.UUID  `json:"id"`
	UserID      *uuid.UUID `json:"user_id"`
	TotalAmount float64    `json:"total_amount"`
	StoreID     *uuid.UUID `json:"store_id"`
	WorkerID    *uuid.UUID `json:"worker_id"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

type ProductSale struct {
	Name    string  `json:"name"`
	Sales   int64   `json:"sales"`
	Revenue float64 `json:"revenue"`
}

type Stats struct {
	TotalOrders  int     `json:"totalOrders"`
	TotalRevenue float64 `json:"totalRevenue"`
}

type Report struct {
	ReportData   []DayBucket   `json:"reportData"`
	RecentOrders []RecentOrder `json:"recentOrders"`
	ProductSales []ProductSale `json:"productSales"`
	Stats        Stats         `json:"stats"`
}

type AdminStats struct {
	TotalUsers     int     `json:"totalUsers"`
	AdminUsers     int     `json:"adminUsers"`
	OperationUsers int     `json:"operationUsers"`
	ActiveUsers    int     `json:"activeUsers"`
	TotalOrders    int     `json:"totalOrders"`
	TotalRevenue   float64 `json:"totalRevenue"`
	TotalStores    int     `json:"totalStores"`
}
