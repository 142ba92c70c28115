package core

import "time"

// BudgetHealth classifies how much of the trip budget is left.
type BudgetHealth string

const (
	HealthOK        BudgetHealth = "ok"
	HealthLow       BudgetHealth = "low"       // less than 25% remaining
	HealthExhausted BudgetHealth = "exhausted" // nothing remaining
)

// BudgetStatus classifies spending against one category budget.
type BudgetStatus string

const (
	StatusNormal  BudgetStatus = "normal"
	StatusWarning BudgetStatus = "warning"
	StatusOver    BudgetStatus = "over"
)

// Totals holds trip-level figures in the trip's main currency.
type Totals struct {
	Currency     string       `json:"currency"`
	TotalBudget  float64      `json:"totalBudget"`
	TotalSpent   float64      `json:"totalSpent"`
	Remaining    float64      `json:"remaining"`
	ProgressPct  float64      `json:"progressPct"`
	RemainingPct float64      `json:"remainingPct"`
	Health       BudgetHealth `json:"health"`
}

// CategorySpend is an amount aggregated by category name.
type CategorySpend struct {
	Name   string  `json:"name"`
	Icon   string  `json:"icon"`
	Amount float64 `json:"amount"`
	Pct    float64 `json:"pct"`
	// Stale reports that no category with this name exists anymore.
	Stale bool `json:"stale,omitempty"`
}

// BudgetUsage compares one category budget with what was actually spent.
type BudgetUsage struct {
	CategoryName string       `json:"categoryName"`
	Icon         string       `json:"icon"`
	Budget       float64      `json:"budget"`
	Spent        float64      `json:"spent"`
	Pct          float64      `json:"pct"`
	Status       BudgetStatus `json:"status"`
}

// TrendPoint is one calendar day of the cumulative spending curve.
type TrendPoint struct {
	Date            time.Time `json:"date"`
	Spent           float64   `json:"spent"`
	Cumulative      float64   `json:"cumulative"`
	IdealCumulative float64   `json:"idealCumulative"`
}

type Trend struct {
	Points         []TrendPoint `json:"points"`
	IdealDailyBurn float64      `json:"idealDailyBurn"`
}

// Dashboard bundles every derived figure for one trip.
type Dashboard struct {
	TripID       string          `json:"tripId"`
	Totals       Totals          `json:"totals"`
	DailyAverage float64         `json:"dailyAverage"`
	DaysElapsed  int             `json:"daysElapsed"`
	Categories   []CategorySpend `json:"categories"`
	Budgets      []BudgetUsage   `json:"budgets"`
	Trend        Trend           `json:"trend"`
	Expenses     []Expense       `json:"expenses"`
}

// TripOverview is a compact per-trip summary for trip selectors.
type TripOverview struct {
	TripID       string    `json:"tripId"`
	Name         string    `json:"name"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	ExpenseCount int       `json:"expenseCount"`
	Totals       Totals    `json:"totals"`
}
