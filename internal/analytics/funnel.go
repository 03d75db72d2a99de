// Package analytics aggregates current-status counts into pipeline funnels.
// It only reads what the lifecycle engine guarantees: an accurate, queryable
// current status per entity.
package analytics

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"huntboard/tracker-service/internal/lifecycle"
)

// Stats is the per-status entity count for one owner.
type Stats struct {
	Counts map[lifecycle.Status]int `json:"counts"`
	Total  int                      `json:"total"`
}

// RecruiterFunnel summarizes the recruiter pipeline.
type RecruiterFunnel struct {
	Contacted           int    `json:"contacted"`
	ActiveConversations int    `json:"activeConversations"`
	Offers              int    `json:"offers"`
	SuccessRate         string `json:"successRate"`
}

// VacancyFunnel summarizes the application pipeline.
type VacancyFunnel struct {
	Tracked     int    `json:"tracked"`
	Applied     int    `json:"applied"`
	Interviews  int    `json:"interviews"`
	Offers      int    `json:"offers"`
	SuccessRate string `json:"successRate"`
}

// Service reads status counts from PostgreSQL and derives funnels.
type Service struct {
	pool *pgxpool.Pool
}

// NewService returns an analytics service backed by pool.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

func tableFor(kind lifecycle.Kind) string {
	if kind == lifecycle.KindRecruiter {
		return "recruiters"
	}
	return "vacancies"
}

// StatusCounts returns the owner's entity counts per status. Statuses with no
// entities are present with a zero count.
func (s *Service) StatusCounts(ctx context.Context, kind lifecycle.Kind, ownerID int64) (Stats, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT status::text, COUNT(*) FROM %s WHERE user_id = $1 GROUP BY status`, tableFor(kind)),
		ownerID)
	if err != nil {
		return Stats{}, fmt.Errorf("count %s statuses: %w", kind, err)
	}
	defer rows.Close()

	stats := Stats{Counts: make(map[lifecycle.Status]int)}
	for _, st := range lifecycle.RegistryFor(kind).Statuses() {
		stats.Counts[st] = 0
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return Stats{}, fmt.Errorf("scan status count: %w", err)
		}
		stats.Counts[lifecycle.Status(status)] = n
		stats.Total += n
	}
	return stats, rows.Err()
}

// GlobalStatusCounts returns entity counts per status across all owners,
// used to refresh the per-status gauges.
func (s *Service) GlobalStatusCounts(ctx context.Context, kind lifecycle.Kind) (map[lifecycle.Status]int, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT status::text, COUNT(*) FROM %s GROUP BY status`, tableFor(kind)))
	if err != nil {
		return nil, fmt.Errorf("count %s statuses: %w", kind, err)
	}
	defer rows.Close()

	counts := make(map[lifecycle.Status]int)
	for _, st := range lifecycle.RegistryFor(kind).Statuses() {
		counts[st] = 0
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[lifecycle.Status(status)] = n
	}
	return counts, rows.Err()
}

// BuildRecruiterFunnel derives the recruiter funnel from status counts.
// Contacted counts everyone still in conversation; successRate is the share
// of all tracked recruiters that produced an offer.
func BuildRecruiterFunnel(stats Stats) RecruiterFunnel {
	c := stats.Counts
	return RecruiterFunnel{
		Contacted:           c[lifecycle.RecruiterContacting] + c[lifecycle.RecruiterWaiting] + c[lifecycle.RecruiterInProcess],
		ActiveConversations: c[lifecycle.RecruiterInProcess],
		Offers:              c[lifecycle.RecruiterGotOffer],
		SuccessRate:         rate(c[lifecycle.RecruiterGotOffer], stats.Total),
	}
}

// BuildVacancyFunnel derives the application funnel from status counts.
// Applied counts every vacancy with an application out the door.
func BuildVacancyFunnel(stats Stats) VacancyFunnel {
	c := stats.Counts
	applied := c[lifecycle.VacancyApplied] + c[lifecycle.VacancyViewed] + c[lifecycle.VacancyNoResponse] +
		c[lifecycle.VacancyInvited] + c[lifecycle.VacancyOffer] + c[lifecycle.VacancyRejected]
	return VacancyFunnel{
		Tracked:     stats.Total,
		Applied:     applied,
		Interviews:  c[lifecycle.VacancyInvited],
		Offers:      c[lifecycle.VacancyOffer],
		SuccessRate: rate(c[lifecycle.VacancyOffer], stats.Total),
	}
}

func rate(part, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(total)*100)
}
