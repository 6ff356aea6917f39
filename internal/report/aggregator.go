// Package report derives read-only dashboard statistics from raw orders.
// Nothing here is persisted.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
	"github.com/vasiliy-maslov/marketplace-ops/internal/identity"
)

const DefaultDays = 7

// MaxDays bounds the trailing window a caller may request.
const MaxDays = 366

// BuildDailyReport buckets orders into the trailing days calendar dates of
// loc ending today, oldest first.
func BuildDailyReport(orders []OrderRecord, now time.Time, days int, loc *time.Location) []DayBucket {
	if days <= 0 {
		return []DayBucket{}
	}
	if loc == nil {
		loc = time.Local
	}

	y, m, d := now.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)

	buckets := make([]DayBucket, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, i-(days-1))
		buckets[i] = DayBucket{Date: fmt.Sprintf("%d/%d", day.Month(), day.Day())}
		index[day.Format(time.DateOnly)] = i
	}

	for _, o := range orders {
		i, ok := index[o.CreatedAt.In(loc).Format(time.DateOnly)]
		if !ok {
			continue
		}
		b := &buckets[i]
		b.Orders++
		b.Revenue += o.TotalAmount
		switch o.Type {
		case "delivery":
			b.Deliveries++
		case "service":
			b.Services++
		}
	}
	return buckets
}

func summarize(orders []OrderRecord) Stats {
	stats := Stats{TotalOrders: len(orders)}
	for _, o := range orders {
		stats.TotalRevenue += o.TotalAmount
	}
	return stats
}

type Aggregator interface {
	Build(ctx context.Context, days int) (*Report, error)
	AdminStats(ctx context.Context) (*AdminStats, error)
}

type aggregator struct {
	repo     Repository
	accounts identity.Provider
	loc      *time.Location
	now      func() time.Time
}

func NewAggregator(repo Repository, accounts identity.Provider, loc *time.Location) Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &aggregator{repo: repo, accounts: accounts, loc: loc, now: time.Now}
}

// Build runs its three queries independently. A failed query leaves its
// section empty; the daily series then still has one zero bucket per day.
func (a *aggregator) Build(ctx context.Context, days int) (*Report, error) {
	if days == 0 {
		days = DefaultDays
	}
	if days < 0 || days > MaxDays {
		return nil, apperr.Validation(fmt.Sprintf("days must be between 1 and %d", MaxDays))
	}

	orders, err := a.repo.OrderRecords(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("report: order scan failed, daily series degraded")
		orders = nil
	}

	recent, err := a.repo.RecentOrders(ctx, RecentOrdersLimit)
	if err != nil {
		log.Warn().Err(err).Msg("report: recent orders query failed, section degraded")
		recent = make([]RecentOrder, 0)
	}

	sales, err := a.repo.ProductSales(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("report: product sales query failed, section degraded")
		sales = make([]ProductSale, 0)
	}

	return &Report{
		ReportData:   BuildDailyReport(orders, a.now(), days, a.loc),
		RecentOrders: recent,
		ProductSales: sales,
		Stats:        summarize(orders),
	}, nil
}

// AdminStats needs the account list; order and store figures are
// best-effort and fall back to zero.
func (a *aggregator) AdminStats(ctx context.Context) (*AdminStats, error) {
	users, err := a.accounts.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	stats := &AdminStats{TotalUsers: len(users)}
	for _, u := range users {
		switch u.Role {
		case identity.RoleAdmin:
			stats.AdminUsers++
		case identity.RoleOperation:
			stats.OperationUsers++
		}
		if !u.Disabled {
			stats.ActiveUsers++
		}
	}

	if orders, err := a.repo.OrderRecords(ctx); err != nil {
		log.Warn().Err(err).Msg("report: order totals unavailable for admin stats")
	} else {
		totals := summarize(orders)
		stats.TotalOrders, stats.TotalRevenue = totals.TotalOrders, totals.TotalRevenue
	}

	if count, err := a.repo.CountStores(ctx); err != nil {
		log.Warn().Err(err).Msg("report: store count unavailable for admin stats")
	} else {
		stats.TotalStores = count
	}

	return stats, nil
}
