// internal/stats/aggregator.go
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"helper-admin.kz/internal/backend"
	"helper-admin.kz/internal/metrics"
	"helper-admin.kz/internal/models"
)

// Aggregator считает статистику по полным выборкам таблиц.
// Ошибка любого из запросов аннулирует весь результат.
type Aggregator struct {
	client        backend.Client
	loc           *time.Location
	defaultMonths int
	metrics       *metrics.Metrics
}

func NewAggregator(client backend.Client, loc *time.Location, defaultMonths int, m *metrics.Metrics) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	if defaultMonths <= 0 {
		defaultMonths = DefaultMonths
	}
	return &Aggregator{client: client, loc: loc, defaultMonths: defaultMonths, metrics: m}
}

func fetch[T any](ctx context.Context, client backend.Client, table string, build func(*backend.Query) *backend.Query) ([]T, error) {
	q := client.Table(table)
	if build != nil {
		q = build(q)
	}
	rows, err := q.Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("выборка %s: %w", table, err)
	}
	items, err := backend.Decode[T](rows)
	if err != nil {
		return nil, fmt.Errorf("разбор %s: %w", table, err)
	}
	return items, nil
}

func completedOnly(q *backend.Query) *backend.Query {
	return q.Eq("status", string(models.PaymentStatusCompleted))
}

// Snapshot параллельно загружает пользователей, мастеров, заказы, завершённые платежи и категории.
// Результат собирается только после завершения всех запросов; при любой ошибке - nil.
func (a *Aggregator) Snapshot(ctx context.Context) (*Snapshot, error) {
	if a.client == nil {
		return &Snapshot{}, nil
	}
	var s Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.Users, err = fetch[models.User](gctx, a.client, "users", nil)
		return err
	})
	g.Go(func() (err error) {
		s.Masters, err = fetch[models.Master](gctx, a.client, "masters", nil)
		return err
	})
	g.Go(func() (err error) {
		s.Orders, err = fetch[models.Order](gctx, a.client, "orders", nil)
		return err
	})
	g.Go(func() (err error) {
		s.Payments, err = fetch[models.Payment](gctx, a.client, "payments", completedOnly)
		return err
	})
	g.Go(func() (err error) {
		s.Categories, err = fetch[models.Category](gctx, a.client, "categories", nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Dashboard возвращает показатели главной страницы или nil, если хотя бы один запрос не удался.
func (a *Aggregator) Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error) {
	start := time.Now()
	s, err := a.Snapshot(ctx)
	a.metrics.ObserveAggregation("dashboard", time.Since(start), err)
	if err != nil {
		slog.Error("Статистика не посчитана: ошибка одного из запросов", "kind", "dashboard", "error", err)
		return nil, err
	}
	st := ComputeDashboard(*s, now, a.loc)
	return &st, nil
}

// MonthlyRevenue - выручка по месяцам за последние months месяцев.
func (a *Aggregator) MonthlyRevenue(ctx context.Context, months int, now time.Time) ([]MonthlyRow, error) {
	if months <= 0 {
		months = a.defaultMonths
	}
	start := time.Now()
	var (
		payments []models.Payment
		err      error
	)
	if a.client != nil {
		payments, err = fetch[models.Payment](ctx, a.client, "payments", completedOnly)
	}
	a.metrics.ObserveAggregation("monthly", time.Since(start), err)
	if err != nil {
		slog.Error("Помесячная статистика не посчитана", "kind", "monthly", "error", err)
		return nil, err
	}
	return BucketMonthly(payments, months, now, a.loc), nil
}

// Overview - всё для главной страницы из одного снимка данных.
type Overview struct {
	Stats      DashboardStats   `json:"stats"`
	Monthly    []MonthlyRow     `json:"monthly"`
	TopMasters []MasterEarnings `json:"top_masters"`
	Categories []CategoryStat   `json:"categories"`
}

func (a *Aggregator) Overview(ctx context.Context, now time.Time) (*Overview, error) {
	start := time.Now()
	s, err := a.Snapshot(ctx)
	a.metrics.ObserveAggregation("overview", time.Since(start), err)
	if err != nil {
		slog.Error("Обзор не посчитан: ошибка одного из запросов", "kind", "overview", "error", err)
		return nil, err
	}
	return &Overview{
		Stats:      ComputeDashboard(*s, now, a.loc),
		Monthly:    BucketMonthly(s.Payments, a.defaultMonths, now, a.loc),
		TopMasters: TopMasters(s.Masters, 5),
		Categories: CategoryBreakdown(s.Categories, s.Orders),
	}, nil
}
