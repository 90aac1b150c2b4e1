package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/ethnic_shop/internal/models"
)

const (
	defaultStatsDays = 7
	maxStatsDays     = 366
	dayLayout        = "2006-01-02"
)

type DayStat struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
	Sales int64  `json:"sales"`
}

type Stats struct {
	TotalOrders int64 `json:"total_orders"`
	// TotalRevenue is the gross sum over every order, cancelled included.
	TotalRevenue     int64            `json:"total_revenue"`
	CollectedRevenue int64            `json:"collected_revenue"`
	StatusCounts     map[string]int64 `json:"status_counts"`
	PerDay           []DayStat        `json:"per_day"`
	WindowDays       int              `json:"window_days"`
}

// Stats aggregates order totals. PerDay lists every day of the trailing
// window, today included, oldest first.
func (s *OrderService) Stats(ctx context.Context, actor models.Actor, days int) (*Stats, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	if days <= 0 {
		days = s.StatsDays
	}
	if days <= 0 {
		days = defaultStatsDays
	}
	if days > maxStatsDays {
		return nil, fmt.Errorf("%w: window must be at most %d days", ErrValidation, maxStatsDays)
	}

	totals, err := s.Repo.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: totals: %v", ErrUpstream, err)
	}
	counts, err := s.Repo.StatusCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: status counts: %v", ErrUpstream, err)
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(days - 1))

	rows, err := s.Repo.CreatedSince(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("%w: daily rows: %v", ErrUpstream, err)
	}

	perDay := make([]DayStat, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i).Format(dayLayout)
		perDay[i] = DayStat{Date: d}
		index[d] = i
	}
	for _, r := range rows {
		if i, ok := index[r.CreatedAt.UTC().Format(dayLayout)]; ok {
			perDay[i].Count++
			perDay[i].Sales += r.GrandTotal
		}
	}

	statusCounts := make(map[string]int64, len(models.OrderStatuses))
	for _, st := range models.OrderStatuses {
		statusCounts[string(st)] = counts[st]
	}

	return &Stats{
		TotalOrders:      totals.TotalOrders,
		TotalRevenue:     totals.GrossRevenue,
		CollectedRevenue: totals.CollectedRevenue,
		StatusCounts:     statusCounts,
		PerDay:           perDay,
		WindowDays:       days,
	}, nil
}

type ExportRow struct {
	Order      models.Order
	OwnerName  string
	OwnerEmail string
}

// ExportRows returns every order with its owner's name and email resolved.
func (s *OrderService) ExportRows(ctx context.Context, actor models.Actor) ([]ExportRow, error) {
	orders, _, err := s.ListAll(ctx, actor, 0, 0)
	if err != nil {
		return nil, err
	}

	owners := map[uuid.UUID]models.User{}
	if s.Users != nil && len(orders) > 0 {
		seen := map[uuid.UUID]struct{}{}
		ids := make([]uuid.UUID, 0, len(orders))
		for _, o := range orders {
			if _, ok := seen[o.OwnerID]; !ok {
				seen[o.OwnerID] = struct{}{}
				ids = append(ids, o.OwnerID)
			}
		}
		owners, err = s.Users.UsersByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve owners: %v", ErrUpstream, err)
		}
	}

	out := make([]ExportRow, 0, len(orders))
	for _, o := range orders {
		u := owners[o.OwnerID]
		out = append(out, ExportRow{Order: o, OwnerName: u.Name, OwnerEmail: u.Email})
	}
	return out, nil
}
