package payment

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status sets used by the dashboard. They include the raw Portuguese tokens
// because rows written before normalization still carry them.
var (
	receivedStatuses = map[string]bool{"RECEIVED": true, "CONFIRMED": true, "PAGO": true}
	pendingStatuses  = map[string]bool{"PENDING": true, "PENDENTE": true, "OVERDUE": true}
)

var monthLabels = [12]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

const recentLimit = 5

// Summary holds the dashboard KPIs for a set of payments.
type Summary struct {
	PaymentCount       int             `json:"payment_count"`
	TotalBilled        decimal.Decimal `json:"total_billed"`
	TotalReceived      decimal.Decimal `json:"total_received"`
	TotalPending       decimal.Decimal `json:"total_pending"`
	ConversionRate     float64         `json:"conversion_rate"`
	DispatchedCount    int             `json:"dispatched_count"`
	RecoveredValue     decimal.Decimal `json:"recovered_value"`
	AvgConversionHours *int64          `json:"avg_conversion_hours"`
	Monthly            []MonthTotal    `json:"monthly"`
	Recent             []RecentPayment `json:"recent"`
}

// MonthTotal is the billed value due in one month of the current year.
type MonthTotal struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// RecentPayment is a compact row for the "recent payments" card.
type RecentPayment struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Contact string          `json:"contact"`
	Amount  decimal.Decimal `json:"amount"`
}

// IsReceived reports whether the payment counts as paid on the dashboard.
func (p *Payment) IsReceived() bool {
	return receivedStatuses[strings.ToUpper(string(p.Status))]
}

// IsPending reports whether the payment counts as outstanding on the dashboard.
func (p *Payment) IsPending() bool {
	return pendingStatuses[strings.ToUpper(string(p.Status))]
}

// Summarize computes dashboard KPIs. payments must be ordered newest first;
// now selects the year of the monthly overview.
func Summarize(payments []Payment, now time.Time) Summary {
	s := Summary{
		PaymentCount: len(payments),
		Monthly:      make([]MonthTotal, len(monthLabels)),
		Recent:       []RecentPayment{},
	}
	for i, label := range monthLabels {
		s.Monthly[i] = MonthTotal{Month: label}
	}

	var (
		received  int
		convSum   float64
		convCount int
		year      = now.Year()
	)

	for i := range payments {
		p := &payments[i]
		s.TotalBilled = s.TotalBilled.Add(p.Value)

		if p.IsReceived() {
			received++
			s.TotalReceived = s.TotalReceived.Add(p.Value)
		}
		if p.IsPending() {
			s.TotalPending = s.TotalPending.Add(p.Value)
		}
		if p.MessageSent {
			s.DispatchedCount++
			if p.IsReceived() {
				s.RecoveredValue = s.RecoveredValue.Add(p.Value)
			}
		}
		if p.ConversionTimeHours != nil && *p.ConversionTimeHours > 0 {
			convSum += *p.ConversionTimeHours
			convCount++
		}
		if due, ok := dueMonth(p.DueDate); ok && due.Year() == year {
			m := &s.Monthly[due.Month()-1]
			m.Total = m.Total.Add(p.Value)
		}
		if i < recentLimit {
			contact := "-"
			if p.CustomerPhone != nil && *p.CustomerPhone != "" {
				contact = *p.CustomerPhone
			}
			s.Recent = append(s.Recent, RecentPayment{
				ID:      p.ID,
				Name:    p.CustomerName,
				Contact: contact,
				Amount:  p.Value,
			})
		}
	}

	if len(payments) > 0 {
		rate := float64(received) / float64(len(payments)) * 100
		s.ConversionRate = math.Round(rate*10) / 10
	}
	if convCount > 0 {
		avg := int64(math.Round(convSum / float64(convCount)))
		s.AvgConversionHours = &avg
	}
	return s
}

func dueMonth(due string) (time.Time, bool) {
	if len(due) < len(time.DateOnly) {
		return time.Time{}, false
	}
	t, err := time.Parse(time.DateOnly, due[:len(time.DateOnly)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
