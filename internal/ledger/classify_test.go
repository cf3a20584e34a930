package ledger_test

import (
	"testing"

	"github.com/regexflow/ledger-bfa-go/internal/domain"
	"github.com/regexflow/ledger-bfa-go/internal/ledger"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		ef   *domain.ExtractedFields
		want ledger.TxType
	}{
		{"nil fields", nil, ledger.TxUnknown},
		{"empty fields", &domain.ExtractedFields{}, ledger.TxUnknown},
		{"smsType wins", &domain.ExtractedFields{SMSType: "CREDIT", TransactionType: "DEBIT"}, ledger.TxCredit},
		{"smsType loan", &domain.ExtractedFields{SMSType: "LOAN"}, ledger.TxLoan},
		{"smsType is case sensitive", &domain.ExtractedFields{SMSType: "credit", TransactionType: "SERVICE"}, ledger.TxService},
		{"transactionType", &domain.ExtractedFields{TransactionType: "DEBIT"}, ledger.TxDebit},
		{"unknown transactionType falls through", &domain.ExtractedFields{
			TransactionType: "UPI_CREDIT",
			Fields:          domain.Fields{"smsText": "Rs 100 credited to a/c"},
		}, ledger.TxCredit},
		{"amountNegative", &domain.ExtractedFields{
			Fields: domain.Fields{"amountNegative": "-", "smsText": "Rs 100 credited"},
		}, ledger.TxDebit},
		{"empty amountNegative is ignored", &domain.ExtractedFields{
			Fields: domain.Fields{"amountNegative": "", "smsText": "salary credited"},
		}, ledger.TxCredit},
		{"loan beats debit keywords", &domain.ExtractedFields{
			Fields: domain.Fields{"smsText": "EMI of Rs 5000 debited for loan a/c"},
		}, ledger.TxLoan},
		{"sanctioned is a loan keyword", &domain.ExtractedFields{
			Fields: domain.Fields{"smsText": "Your credit line is SANCTIONED"},
		}, ledger.TxLoan},
		{"service before debit", &domain.ExtractedFields{
			Fields: domain.Fields{"smsText": "Electricity bill paid"},
		}, ledger.TxService},
		{"payment due", &domain.ExtractedFields{
			Fields: domain.Fields{"smsText": "Payment due on 05-02"},
		}, ledger.TxService},
		{"debit before credit", &domain.ExtractedFields{
			Fields: domain.Fields{"smsText": "Rs 200 withdrawn, Rs 10 credited as cashback"},
		}, ledger.TxDebit},
		{"credit", &domain.ExtractedFields{
			Fields: domain.Fields{"smsText": "INR 1,000 deposited in your account"},
		}, ledger.TxCredit},
		{"top-level smsText", &domain.ExtractedFields{SMSText: "Rs 50 spent at store"}, ledger.TxDebit},
		{"fields smsText preferred over top-level", &domain.ExtractedFields{
			SMSText: "Rs 50 spent",
			Fields:  domain.Fields{"smsText": "Rs 50 received"},
		}, ledger.TxCredit},
		{"no signal", &domain.ExtractedFields{Fields: domain.Fields{"smsText": "hello"}}, ledger.TxUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ledger.Classify(tt.ef); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	ef := &domain.ExtractedFields{Fields: domain.Fields{"smsText": "Rs 10 paid via UPI"}}

	first := ledger.Classify(ef)
	second := ledger.Classify(ef)
	if first != second {
		t.Errorf("expected stable result, got %q then %q", first, second)
	}
	if ef.Fields["smsText"] != "Rs 10 paid via UPI" {
		t.Error("input was mutated")
	}
}

func TestClassify_AmountNegativeWithoutExplicitType(t *testing.T) {
	texts := []string{"", "credited", "loan disbursed", "bill", "anything"}
	for _, text := range texts {
		ef := &domain.ExtractedFields{Fields: domain.Fields{"amountNegative": "-", "smsText": text}}
		if got := ledger.Classify(ef); got != ledger.TxDebit {
			t.Errorf("text %q: expected DEBIT, got %q", text, got)
		}
	}
}

func TestClassificationRules_Order(t *testing.T) {
	want := []string{
		"smsType", "transactionType", "amountNegative",
		"loanKeywords", "serviceKeywords", "debitKeywords", "creditKeywords",
	}
	rules := ledger.ClassificationRules()
	if len(rules) != len(want) {
		t.Fatalf("expected %d rules, got %d", len(want), len(rules))
	}
	for i, r := range rules {
		if r.Name != want[i] {
			t.Errorf("rule %d: expected %q, got %q", i, want[i], r.Name)
		}
	}
}

func TestClassificationRules_Isolated(t *testing.T) {
	rules := map[string]ledger.Rule{}
	for _, r := range ledger.ClassificationRules() {
		rules[r.Name] = r
	}
	ef := &domain.ExtractedFields{}

	if _, ok := rules["loanKeywords"].Match(ef, "paid"); ok {
		t.Error("loan rule should not match 'paid'")
	}
	if got, ok := rules["debitKeywords"].Match(ef, "amount deducted"); !ok || got != ledger.TxDebit {
		t.Errorf("expected DEBIT match, got %q/%v", got, ok)
	}
	if _, ok := rules["smsType"].Match(&domain.ExtractedFields{SMSType: "REFUND"}, ""); ok {
		t.Error("unknown smsType should not match")
	}
}

func TestTxType_MarshalJSON(t *testing.T) {
	b, err := ledger.TxUnknown.MarshalJSON()
	if err != nil || string(b) != "null" {
		t.Errorf("expected null, got %s (%v)", b, err)
	}
	b, err = ledger.TxLoan.MarshalJSON()
	if err != nil || string(b) != `"LOAN"` {
		t.Errorf(`expected "LOAN", got %s (%v)`, b, err)
	}
}
