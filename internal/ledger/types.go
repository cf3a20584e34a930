// Package ledger turns matched SMS records into ledger entries and monthly
// summaries: transaction type classification, spending categories, payment
// modes and month bucketing.
//
// Everything in this package is pure. Functions never return errors and
// never mutate their inputs, so they are safe for concurrent use.
package ledger

import (
	"encoding/json"

	"github.com/regexflow/ledger-bfa-go/internal/domain"
)

// TxType is the semantic kind of a transaction. The zero value means the
// type could not be determined and is serialised as null.
type TxType string

const (
	TxUnknown TxType = ""
	TxDebit   TxType = "DEBIT"
	TxCredit  TxType = "CREDIT"
	TxLoan    TxType = "LOAN"
	TxService TxType = "SERVICE"
)

// ParseTxType returns the known type matching s exactly.
func ParseTxType(s string) (TxType, bool) {
	switch t := TxType(s); t {
	case TxDebit, TxCredit, TxLoan, TxService:
		return t, true
	}
	return TxUnknown, false
}

// IsDebitLike reports whether the type counts towards the debited total.
func (t TxType) IsDebitLike() bool {
	return t == TxDebit || t == TxLoan || t == TxService
}

// AmountSign is the sign shown next to an amount of this type.
func (t TxType) AmountSign() string {
	switch {
	case t == TxCredit:
		return "+"
	case t.IsDebitLike():
		return "-"
	}
	return ""
}

func (t TxType) MarshalJSON() ([]byte, error) {
	if t == TxUnknown {
		return []byte("null"), nil
	}
	return json.Marshal(string(t))
}

// Category is a spending category.
type Category string

const (
	CategoryFood           Category = "FOOD"
	CategoryTransport      Category = "TRANSPORT"
	CategoryEntertainment  Category = "ENTERTAINMENT"
	CategoryShopping       Category = "SHOPPING"
	CategoryBillsUtilities Category = "BILLS_UTILITIES"
	CategoryLoanEMI        Category = "LOAN_EMI"
	CategorySubscription   Category = "SUBSCRIPTION"
	CategoryTransfer       Category = "TRANSFER"
	CategoryHealth         Category = "HEALTH"
	CategoryTravel         Category = "TRAVEL"
	CategoryInvestment     Category = "INVESTMENT"
	CategoryOther          Category = "OTHER"
)

// PaymentMode is the channel a transaction went through.
type PaymentMode string

const (
	PaymentUPI        PaymentMode = "UPI"
	PaymentCard       PaymentMode = "CARD"
	PaymentNetBanking PaymentMode = "NET_BANKING"
	PaymentCash       PaymentMode = "CASH"
	PaymentCheque     PaymentMode = "CHEQUE"
	PaymentOther      PaymentMode = "OTHER"
)

// Entry is a shallow copy of an SMS record plus the tags derived from it.
// The embedded record is flattened in JSON so the frontend sees the record
// fields next to the underscore-prefixed tags.
type Entry struct {
	domain.SMSRecord

	Amount        float64        `json:"_amount"`
	Type          TxType         `json:"_type"`
	Category      Category       `json:"_category"`
	PaymentMode   PaymentMode    `json:"_paymentMode"`
	AmountSign    string         `json:"_amountSign"`
	DisplayFields []DisplayField `json:"_displayFields"`
}

// MonthBucket accumulates the entries of one calendar month.
type MonthBucket struct {
	MonthKey      string                  `json:"monthKey"`
	Label         string                  `json:"label"`
	TotalCredited float64                 `json:"totalCredited"`
	TotalDebited  float64                 `json:"totalDebited"`
	Net           float64                 `json:"net"`
	ByCategory    map[Category]float64    `json:"byCategory"`
	ByPaymentMode map[PaymentMode]float64 `json:"byPaymentMode"`

	DebitedList     []Entry `json:"debitedList"`
	CreditedList    []Entry `json:"creditedList"`
	UPIList         []Entry `json:"upiList"`
	CardList        []Entry `json:"cardList"`
	AllTransactions []Entry `json:"allTransactions"`
}
