package ledger

import (
	"sort"
	"strings"
	"unicode"

	"github.com/regexflow/ledger-bfa-go/internal/domain"
)

// DisplayField is one labelled extracted value.
type DisplayField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

var fieldLabels = map[string]string{
	"bankAcId":        "Bank A/C ID",
	"sBank":           "Sender Bank",
	"rBank":           "Receiver Bank",
	"sAcType":         "Sender A/C Type",
	"sAcId":           "Sender A/C ID",
	"txnNote":         "Transaction Note",
	"paymentType":     "Payment Mode",
	"availLimit":      "Available Limit",
	"creditLimit":     "Credit Limit",
	"billerAcId":      "Biller A/C ID",
	"billId":          "Bill ID",
	"billDate":        "Bill Date",
	"billPeriod":      "Bill Period",
	"dueDate":         "Due Date",
	"minAmtDue":       "Min Amount Due",
	"totAmtDue":       "Total Amount Due",
	"principalAmount": "Principal Amount",
	"maturityDate":    "Maturity Date",
	"maturityAmount":  "Maturity Amount",
	"rateOfInterest":  "Rate of Interest",
	"mfNav":           "MF NAV",
	"mfUnits":         "MF Units",
	"mfArn":           "MF ARN",
	"mfBalUnits":      "MF Balance Units",
	"mfSchemeBal":     "MF Scheme Balance",
	"amountPaid":      "Amount Paid",
	"offerAmount":     "Offer Amount",
	"minPurchaseAmt":  "Min Purchase Amount",
	"amountNegative":  "Amount Negative",
	"balanceNegative": "Balance Negative",
	"smsText":         "SMS Text",
}

// Shown in dedicated slots, not in the field list.
var headlineFields = map[string]bool{"amount": true, "date": true, "merchant": true, "balance": true}

var displayOrder = func() map[string]int {
	keys := []string{
		"paymentType", "txnNote", "bankAcId", "senderName", "receiverName",
		"sBank", "rBank", "sAcType", "sAcId", "city", "availLimit", "creditLimit",
		"billerAcId", "billId", "billDate", "billPeriod", "dueDate", "minAmtDue", "totAmtDue",
		"principalAmount", "frequency", "maturityDate", "maturityAmount", "rateOfInterest",
		"mfNav", "mfUnits", "mfArn", "mfBalUnits", "mfSchemeBal",
		"amountPaid", "offerAmount", "minPurchaseAmt",
	}
	m := make(map[string]int, len(keys))
	for i, k := range keys {
		m[k] = i
	}
	return m
}()

// FieldLabel turns a capture name into a human label: "txnNote" becomes
// "Transaction Note", "senderName" becomes "Sender Name".
func FieldLabel(key string) string {
	if l, ok := fieldLabels[key]; ok {
		return l
	}
	var b strings.Builder
	for i, r := range key {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// DisplayFields returns the non-empty captures in display order: known
// fields first in their fixed order, the rest by label.
func DisplayFields(fields domain.Fields) []DisplayField {
	out := make([]DisplayField, 0, len(fields))
	for k, v := range fields {
		if strings.TrimSpace(v) == "" || headlineFields[k] {
			continue
		}
		out = append(out, DisplayField{Key: k, Label: FieldLabel(k), Value: v})
	}

	sort.Slice(out, func(i, j int) bool {
		oi, iKnown := displayOrder[out[i].Key]
		oj, jKnown := displayOrder[out[j].Key]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown:
			return true
		case jKnown:
			return false
		}
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Key < out[j].Key
	})
	return out
}
