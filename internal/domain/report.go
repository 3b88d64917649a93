package domain

import (
	"fmt"
	"sort"
	"time"
)

// TopSeller is one row of the daily best sellers table
type TopSeller struct {
	ItemID   string `json:"itemId"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// DailySummary is the deterministic digest of one day of completed sales
type DailySummary struct {
	Date             string           `json:"date"`
	Transactions     int              `json:"transactions"`
	Revenue          Money            `json:"revenue"`
	CashTotal        Money            `json:"cashTotal"`
	CreditTotal      Money            `json:"creditTotal"`
	CreditByCustomer map[string]Money `json:"creditByCustomer"`
	TopSellers       []TopSeller      `json:"topSellers"`
	GrossMargin      int64            `json:"grossMarginCents"`
	GeneratedAt      time.Time        `json:"generatedAt"`
}

// DayBounds returns [start of day, start of next day) in loc
func DayBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	d := day.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// Summarize aggregates completed orders of one day. topN <= 0 keeps every item.
// An order priced in another currency fails the whole summary.
func Summarize(date string, orders []*Order, topN int, now time.Time) (*DailySummary, error) {
	s := &DailySummary{
		Date:             date,
		Revenue:          ZeroMoney(DefaultCurrency),
		CashTotal:        ZeroMoney(DefaultCurrency),
		CreditTotal:      ZeroMoney(DefaultCurrency),
		CreditByCustomer: map[string]Money{},
		TopSellers:       []TopSeller{},
		GeneratedAt:      now,
	}

	sold := map[string]*TopSeller{}
	for _, o := range orders {
		if o.Status != OrderStatusCompleted {
			continue
		}
		if err := s.add(o); err != nil {
			return nil, fmt.Errorf("order %s: %w", o.ID, err)
		}

		for _, l := range o.LineItems {
			s.GrossMargin += l.Margin()
			ts, ok := sold[l.ItemID]
			if !ok {
				ts = &TopSeller{ItemID: l.ItemID, Name: l.Name}
				sold[l.ItemID] = ts
			}
			ts.Quantity += l.Quantity
		}
	}

	for _, ts := range sold {
		s.TopSellers = append(s.TopSellers, *ts)
	}
	sort.Slice(s.TopSellers, func(i, j int) bool {
		a, b := s.TopSellers[i], s.TopSellers[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ItemID < b.ItemID
	})
	if topN > 0 && len(s.TopSellers) > topN {
		s.TopSellers = s.TopSellers[:topN]
	}
	return s, nil
}

// add books one completed order into the running totals
func (s *DailySummary) add(o *Order) error {
	revenue, err := s.Revenue.Add(o.Price)
	if err != nil {
		return err
	}

	if o.PaymentMethod == PaymentCredit {
		credit, err := s.CreditTotal.Add(o.Price)
		if err != nil {
			return err
		}
		customer, err := s.CreditByCustomer[o.CustomerName].Add(o.Price)
		if err != nil {
			return err
		}
		s.CreditTotal = credit
		s.CreditByCustomer[o.CustomerName] = customer
	} else {
		cash, err := s.CashTotal.Add(o.Price)
		if err != nil {
			return err
		}
		s.CashTotal = cash
	}

	s.Revenue = revenue
	s.Transactions++
	return nil
}
