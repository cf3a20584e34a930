package ledger

import (
	"math"
	"sort"
	"time"

	"github.com/regexflow/ledger-bfa-go/internal/domain"
)

type options struct {
	loc *time.Location
}

// Option configures GroupByMonth.
type Option func(*options)

// WithLocation buckets timestamps by calendar month in loc. Timestamps
// without a zone are read as local to loc. Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// NewEntry copies rec and attaches the derived tags.
func NewEntry(rec domain.SMSRecord) Entry {
	ef := rec.ExtractedFields
	e := Entry{
		SMSRecord:     rec,
		Type:          TxUnknown,
		Category:      CategoryOther,
		PaymentMode:   PaymentOther,
		DisplayFields: []DisplayField{},
	}
	if ef == nil {
		return e
	}

	text := ef.Text()
	if text == "" {
		text = rec.SMSText
	}
	e.Amount = ParseAmount(ef.Amount)
	e.Type = classify(ef, rec.SMSText)
	e.Category = InferCategory(ef.Merchant, text)
	e.PaymentMode = InferPaymentMode(ef)
	e.AmountSign = e.Type.AmountSign()
	e.DisplayFields = DisplayFields(ef.Fields)
	return e
}

func newMonthBucket(key string) *MonthBucket {
	return &MonthBucket{
		MonthKey:        key,
		Label:           FormatMonthLabel(key),
		ByCategory:      map[Category]float64{},
		ByPaymentMode:   map[PaymentMode]float64{},
		DebitedList:     []Entry{},
		CreditedList:    []Entry{},
		UPIList:         []Entry{},
		CardList:        []Entry{},
		AllTransactions: []Entry{},
	}
}

func (b *MonthBucket) add(e Entry) {
	b.AllTransactions = append(b.AllTransactions, e)

	switch {
	case e.Type == TxCredit:
		b.TotalCredited = addFinite(b.TotalCredited, e.Amount)
		b.CreditedList = append(b.CreditedList, e)
	case e.Type.IsDebitLike():
		b.TotalDebited = addFinite(b.TotalDebited, e.Amount)
		b.DebitedList = append(b.DebitedList, e)
	}
	if net := b.TotalCredited - b.TotalDebited; !math.IsInf(net, 0) {
		b.Net = net
	}

	b.ByCategory[e.Category] = addFinite(b.ByCategory[e.Category], e.Amount)
	b.ByPaymentMode[e.PaymentMode] = addFinite(b.ByPaymentMode[e.PaymentMode], e.Amount)

	switch e.PaymentMode {
	case PaymentUPI:
		b.UPIList = append(b.UPIList, e)
	case PaymentCard:
		b.CardList = append(b.CardList, e)
	}
}

// addFinite returns total+amount, or total unchanged when the sum would
// overflow. Totals must stay JSON-encodable.
func addFinite(total, amount float64) float64 {
	sum := total + amount
	if math.IsInf(sum, 0) || math.IsNaN(sum) {
		return total
	}
	return sum
}

// GroupByMonth buckets matched records by calendar month, most recent first.
// Records without a match, without extracted fields or without a readable
// date are skipped.
func GroupByMonth(records []domain.SMSRecord, opts ...Option) []MonthBucket {
	o := options{loc: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}

	byMonth := make(map[string]*MonthBucket)
	for _, rec := range records {
		if !rec.HasMatch || rec.ExtractedFields == nil {
			continue
		}
		key, _, ok := MonthKey(rec.CreatedAt.String(), rec.ExtractedFields.Date, o.loc)
		if !ok {
			continue
		}
		b, seen := byMonth[key]
		if !seen {
			b = newMonthBucket(key)
			byMonth[key] = b
		}
		b.add(NewEntry(rec))
	}

	out := make([]MonthBucket, 0, len(byMonth))
	for _, b := range byMonth {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonthKey > out[j].MonthKey })
	return out
}
