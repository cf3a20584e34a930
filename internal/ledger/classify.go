package ledger

import (
	"strings"

	"github.com/regexflow/ledger-bfa-go/internal/domain"
)

// Rule is one step of the classification precedence. Match receives the
// extracted fields and the lower-cased SMS text.
type Rule struct {
	Name  string
	Match func(ef *domain.ExtractedFields, text string) (TxType, bool)
}

var (
	loanKeywords    = []string{"loan", "emi", "installment", "repayment", "disbursed", "sanctioned"}
	serviceKeywords = []string{"service", "bill", "recharge", "subscription", "payment due", "invoice"}
	debitKeywords   = []string{"debited", "withdrawn", "spent", "paid", "deducted"}
	creditKeywords  = []string{"credited", "received", "deposited", "added"}
)

// classificationRules is evaluated top to bottom; the first match wins.
var classificationRules = []Rule{
	{Name: "smsType", Match: func(ef *domain.ExtractedFields, _ string) (TxType, bool) {
		return ParseTxType(ef.SMSType)
	}},
	{Name: "transactionType", Match: func(ef *domain.ExtractedFields, _ string) (TxType, bool) {
		return ParseTxType(ef.TransactionType)
	}},
	{Name: "amountNegative", Match: func(ef *domain.ExtractedFields, _ string) (TxType, bool) {
		return TxDebit, ef.Fields.AmountNegative() != ""
	}},
	keywordRule("loanKeywords", TxLoan, loanKeywords),
	keywordRule("serviceKeywords", TxService, serviceKeywords),
	keywordRule("debitKeywords", TxDebit, debitKeywords),
	keywordRule("creditKeywords", TxCredit, creditKeywords),
}

func keywordRule(name string, result TxType, keywords []string) Rule {
	return Rule{Name: name, Match: func(_ *domain.ExtractedFields, text string) (TxType, bool) {
		return result, containsAny(text, keywords)
	}}
}

// ClassificationRules returns the rules in precedence order.
func ClassificationRules() []Rule {
	out := make([]Rule, len(classificationRules))
	copy(out, classificationRules)
	return out
}

// Classify derives the transaction type from the extracted fields.
// It returns TxUnknown when no rule matches or ef is nil.
func Classify(ef *domain.ExtractedFields) TxType {
	return classify(ef, "")
}

// classify is Classify with a last-resort SMS text, used when the extracted
// fields carry no copy of the message body.
func classify(ef *domain.ExtractedFields, fallbackText string) TxType {
	if ef == nil {
		return TxUnknown
	}
	text := ef.Text()
	if text == "" {
		text = fallbackText
	}
	text = strings.ToLower(text)

	for _, r := range classificationRules {
		if t, ok := r.Match(ef, text); ok {
			return t
		}
	}
	return TxUnknown
}

func containsAny(s string, keywords []string) bool {
	if s == "" {
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
