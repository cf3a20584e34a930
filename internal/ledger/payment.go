package ledger

import (
	"strings"

	"github.com/regexflow/ledger-bfa-go/internal/domain"
)

var paymentModeKeywords = []struct {
	mode     PaymentMode
	keywords []string
}{
	{PaymentUPI, []string{"UPI", "BHARATPE", "PHONEPE", "GPAY"}},
	{PaymentCard, []string{"CREDIT", "CARD"}},
	{PaymentNetBanking, []string{"NET", "BANKING", "NEFT", "IMPS"}},
	{PaymentCash, []string{"CASH"}},
	{PaymentCheque, []string{"CHEQUE"}},
}

// InferPaymentMode reads the first non-empty of paymentType, txnNote and
// transactionType and matches it against the payment mode keywords.
func InferPaymentMode(ef *domain.ExtractedFields) PaymentMode {
	if ef == nil {
		return PaymentOther
	}
	source := firstNonEmpty(ef.Fields.PaymentType(), ef.Fields.TxnNote(), ef.TransactionType)
	source = strings.ToUpper(source)

	for _, m := range paymentModeKeywords {
		if containsAny(source, m.keywords) {
			return m.mode
		}
	}
	return PaymentOther
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
