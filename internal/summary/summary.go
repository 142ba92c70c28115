// Package summary derives budget, category and trend figures from a trip.
// Every figure is recomputed on demand from the snapshot it is given and is
// expressed in the trip's main currency.
package summary

import (
	"cmp"
	"math"
	"slices"
	"time"

	"viaggi/internal/core"
)

// Converter converts amounts between currencies without failing.
type Converter interface {
	Convert(amount float64, from, to string) float64
}

const (
	lowBudgetPct      = 25.0
	budgetWarningPct  = 75.0
	budgetExceededPct = 100.0
	trendDayKeyLayout = "2006-01-02"
)

type Engine struct {
	conv Converter
	loc  *time.Location
}

// New returns an Engine bucketing days in loc; nil means time.Local.
func New(conv Converter, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{conv: conv, loc: loc}
}

func (e *Engine) spent(t core.Trip, x core.Expense) float64 {
	return e.conv.Convert(x.Amount, x.Currency, t.MainCurrency)
}

func (e *Engine) totalSpent(t core.Trip) float64 {
	var sum float64
	for _, x := range t.Expenses {
		sum += e.spent(t, x)
	}
	return sum
}

func pct(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

// Totals. remaining goes negative once the budget is exceeded.
func (e *Engine) Totals(t core.Trip) core.Totals {
	spent := e.totalSpent(t)
	remaining := t.TotalBudget - spent
	out := core.Totals{
		Currency:     t.MainCurrency,
		TotalBudget:  t.TotalBudget,
		TotalSpent:   spent,
		Remaining:    remaining,
		ProgressPct:  pct(spent, t.TotalBudget),
		RemainingPct: pct(remaining, t.TotalBudget),
	}
	switch {
	case out.RemainingPct <= 0:
		out.Health = core.HealthExhausted
	case out.RemainingPct < lowBudgetPct:
		out.Health = core.HealthLow
	default:
		out.Health = core.HealthOK
	}
	return out
}

// DailyAverage returns the burn rate and the number of days it is spread
// over. now is clamped into the trip dates and at least one day counts.
func (e *Engine) DailyAverage(t core.Trip, now time.Time) (float64, int) {
	clamped := now
	if clamped.Before(t.StartDate) {
		clamped = t.StartDate
	}
	if clamped.After(t.EndDate) {
		clamped = t.EndDate
	}
	days := int(math.Ceil(clamped.Sub(t.StartDate).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return e.totalSpent(t) / float64(days), days
}

func categoryIcon(cats []core.Category, name string) (string, bool) {
	for _, c := range cats {
		if c.Name == name {
			return c.Icon, true
		}
	}
	return core.DefaultCategoryIcon, false
}

// CategoryBreakdown groups spending by category name, largest first.
func (e *Engine) CategoryBreakdown(t core.Trip, cats []core.Category) []core.CategorySpend {
	out := []core.CategorySpend{}
	idx := map[string]int{}
	var total float64
	for _, x := range t.Expenses {
		v := e.spent(t, x)
		total += v
		i, ok := idx[x.Category]
		if !ok {
			icon, found := categoryIcon(cats, x.Category)
			i = len(out)
			idx[x.Category] = i
			out = append(out, core.CategorySpend{Name: x.Category, Icon: icon, Stale: !found})
		}
		out[i].Amount += v
	}
	for i := range out {
		out[i].Pct = pct(out[i].Amount, total)
	}
	slices.SortStableFunc(out, func(a, b core.CategorySpend) int {
		return cmp.Compare(b.Amount, a.Amount)
	})
	return out
}

// BudgetTracking compares each declared category budget with its spending,
// most consumed first.
func (e *Engine) BudgetTracking(t core.Trip, cats []core.Category) []core.BudgetUsage {
	out := make([]core.BudgetUsage, 0, len(t.CategoryBudgets))
	for _, b := range t.CategoryBudgets {
		var spent float64
		for _, x := range t.Expenses {
			if x.Category == b.CategoryName {
				spent += e.spent(t, x)
			}
		}
		icon, _ := categoryIcon(cats, b.CategoryName)
		u := core.BudgetUsage{
			CategoryName: b.CategoryName,
			Icon:         icon,
			Budget:       b.Amount,
			Spent:        spent,
			Pct:          pct(spent, b.Amount),
		}
		switch {
		case u.Pct >= budgetExceededPct:
			u.Status = core.StatusOver
		case u.Pct >= budgetWarningPct:
			u.Status = core.StatusWarning
		default:
			u.Status = core.StatusNormal
		}
		out = append(out, u)
	}
	slices.SortStableFunc(out, func(a, b core.BudgetUsage) int {
		return cmp.Compare(b.Pct, a.Pct)
	})
	return out
}

func (e *Engine) calendarDay(t time.Time) time.Time {
	l := t.In(e.loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, e.loc)
}

// Trend builds the cumulative spending curve from the first trip day up to
// today or the last trip day, whichever comes first. Expenses dated outside
// that window are not plotted.
func (e *Engine) Trend(t core.Trip, today time.Time) core.Trend {
	first := e.calendarDay(t.StartDate)
	last := e.calendarDay(t.EndDate)
	if d := e.calendarDay(today); d.Before(last) {
		last = d
	}

	byDay := map[string]float64{}
	for _, x := range t.Expenses {
		byDay[e.calendarDay(x.Date).Format(trendDayKeyLayout)] += e.spent(t, x)
	}

	points := []core.TrendPoint{}
	var cumulative float64
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		spent := byDay[d.Format(trendDayKeyLayout)]
		cumulative += spent
		points = append(points, core.TrendPoint{Date: d, Spent: spent, Cumulative: cumulative})
	}

	ideal := t.TotalBudget / float64(max(1, len(points)))
	for i := range points {
		points[i].IdealCumulative = ideal * float64(i+1)
	}
	return core.Trend{Points: points, IdealDailyBurn: ideal}
}

// SortedExpenses returns the trip's expenses, most recent first.
func SortedExpenses(t core.Trip) []core.Expense {
	out := slices.Clone(t.Expenses)
	if out == nil {
		out = []core.Expense{}
	}
	slices.SortStableFunc(out, func(a, b core.Expense) int {
		return b.Date.Compare(a.Date)
	})
	return out
}

// Dashboard computes every figure for one trip at instant now.
func (e *Engine) Dashboard(t core.Trip, cats []core.Category, now time.Time) core.Dashboard {
	avg, days := e.DailyAverage(t, now)
	return core.Dashboard{
		TripID:       t.ID,
		Totals:       e.Totals(t),
		DailyAverage: avg,
		DaysElapsed:  days,
		Categories:   e.CategoryBreakdown(t, cats),
		Budgets:      e.BudgetTracking(t, cats),
		Trend:        e.Trend(t, now),
		Expenses:     SortedExpenses(t),
	}
}

// Overview summarises every trip of the account.
func (e *Engine) Overview(a *core.Account) []core.TripOverview {
	if a == nil {
		return nil
	}
	out := make([]core.TripOverview, 0, len(a.Trips))
	for _, t := range a.Trips {
		out = append(out, core.TripOverview{
			TripID:       t.ID,
			Name:         t.Name,
			StartDate:    t.StartDate,
			EndDate:      t.EndDate,
			ExpenseCount: len(t.Expenses),
			Totals:       e.Totals(t),
		})
	}
	return out
}
