package ledger

import "time"

// Filter selects entries within a month.
type Filter string

const (
	FilterAll           Filter = "all"
	FilterFood          Filter = "food"
	FilterEntertainment Filter = "entertainment"
	FilterShopping      Filter = "shopping"
	FilterUPI           Filter = "upi"
	FilterDebit         Filter = "debit"
	FilterCredit        Filter = "credit"
	FilterCard          Filter = "card"
	FilterBills         Filter = "bills"
)

// FilterInfo describes a filter for the frontend's filter cards.
type FilterInfo struct {
	ID    Filter `json:"id"`
	Label string `json:"label"`
}

type filterDef struct {
	info  FilterInfo
	match func(Entry) bool
}

func byCategory(c Category) func(Entry) bool {
	return func(e Entry) bool { return e.Category == c }
}

var filterDefs = []filterDef{
	{FilterInfo{FilterAll, "All Transactions"}, func(Entry) bool { return true }},
	{FilterInfo{FilterFood, "Food"}, byCategory(CategoryFood)},
	{FilterInfo{FilterEntertainment, "Entertainment"}, byCategory(CategoryEntertainment)},
	{FilterInfo{FilterShopping, "Shopping"}, byCategory(CategoryShopping)},
	{FilterInfo{FilterUPI, "UPI"}, func(e Entry) bool { return e.PaymentMode == PaymentUPI }},
	{FilterInfo{FilterDebit, "All Debit"}, func(e Entry) bool { return e.Type.IsDebitLike() }},
	{FilterInfo{FilterCredit, "All Credit"}, func(e Entry) bool { return e.Type == TxCredit }},
	{FilterInfo{FilterCard, "Card Payments"}, func(e Entry) bool { return e.PaymentMode == PaymentCard }},
	{FilterInfo{FilterBills, "Bills"}, byCategory(CategoryBillsUtilities)},
}

// Filters lists the available filters in display order.
func Filters() []FilterInfo {
	out := make([]FilterInfo, len(filterDefs))
	for i, f := range filterDefs {
		out[i] = f.info
	}
	return out
}

// ParseFilter resolves a filter id; the empty string means all.
func ParseFilter(s string) (Filter, bool) {
	if s == "" {
		return FilterAll, true
	}
	for _, f := range filterDefs {
		if string(f.info.ID) == s {
			return f.info.ID, true
		}
	}
	return "", false
}

// Filter returns the bucket's entries selected by f, in input order.
// Unknown filters select everything.
func (b MonthBucket) Filter(f Filter) []Entry {
	for _, def := range filterDefs {
		if def.info.ID != f {
			continue
		}
		out := make([]Entry, 0, len(b.AllTransactions))
		for _, e := range b.AllTransactions {
			if def.match(e) {
				out = append(out, e)
			}
		}
		return out
	}
	return b.AllTransactions
}

// FindMonth returns the bucket with the given key.
func FindMonth(buckets []MonthBucket, key string) (*MonthBucket, bool) {
	for i := range buckets {
		if buckets[i].MonthKey == key {
			return &buckets[i], true
		}
	}
	return nil, false
}

// MonthRef is a month selector entry.
type MonthRef struct {
	MonthKey string `json:"monthKey"`
	Label    string `json:"label"`
}

// MonthView is the data behind the monthly expense page: the selected
// month's summary plus the entries picked by the active filter.
type MonthView struct {
	MonthKey     string       `json:"monthKey"`
	Label        string       `json:"label"`
	Filter       Filter       `json:"filter"`
	Months       []MonthRef   `json:"months"`
	Filters      []FilterInfo `json:"filters"`
	Summary      *MonthBucket `json:"summary"`
	Transactions []Entry      `json:"transactions"`
}

// EffectiveMonthKey picks the explicit selection, else the most recent
// bucket, else the current month.
func EffectiveMonthKey(selected string, buckets []MonthBucket, now time.Time, loc *time.Location) string {
	if selected != "" {
		return selected
	}
	if len(buckets) > 0 {
		return buckets[0].MonthKey
	}
	return CurrentMonthKey(now, loc)
}

// BuildMonthView assembles the view for the selected month. A month with no
// bucket yields a nil summary and no transactions.
func BuildMonthView(buckets []MonthBucket, selected string, f Filter, now time.Time, loc *time.Location) MonthView {
	key := EffectiveMonthKey(selected, buckets, now, loc)

	months := make([]MonthRef, len(buckets))
	for i, b := range buckets {
		months[i] = MonthRef{MonthKey: b.MonthKey, Label: b.Label}
	}

	view := MonthView{
		MonthKey:     key,
		Label:        FormatMonthLabel(key),
		Filter:       f,
		Months:       months,
		Filters:      Filters(),
		Transactions: []Entry{},
	}
	if b, ok := FindMonth(buckets, key); ok {
		view.Summary = b
		view.Transactions = b.Filter(f)
	}
	return view
}
