package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ============================================================
// SMS history (as returned by RegexFlow GET /sms/history)
// ============================================================

// SMSRecord is one submitted SMS together with the outcome of the
// server-side template match.
type SMSRecord struct {
	SMSID                       *int64           `json:"smsId,omitempty"`
	SMSText                     string           `json:"smsText,omitempty"`
	HasMatch                    bool             `json:"hasMatch"`
	MatchedTemplateID           *int64           `json:"matchedTemplateId,omitempty"`
	MatchedTemplateSenderHeader string           `json:"matchedTemplateSenderHeader,omitempty"`
	ExtractedFields             *ExtractedFields `json:"extractedFields"`
	Message                     string           `json:"message,omitempty"`
	CreatedAt                   Timestamp        `json:"createdAt"`
}

// ExtractedFields holds the values captured by the matched regex template.
type ExtractedFields struct {
	SMSType         string `json:"smsType,omitempty"`
	TransactionType string `json:"transactionType,omitempty"`
	Amount          string `json:"amount,omitempty"`
	Date            string `json:"date,omitempty"`
	Merchant        string `json:"merchant,omitempty"`
	Balance         string `json:"balance,omitempty"`
	SMSText         string `json:"smsText,omitempty"`
	Fields          Fields `json:"fields,omitempty"`
}

// Well-known keys of the named-capture map.
const (
	FieldAmountNegative = "amountNegative"
	FieldPaymentType    = "paymentType"
	FieldTxnNote        = "txnNote"
	FieldSMSText        = "smsText"
)

// Fields is the open-ended map of named captures. Templates may add new
// capture names at any time, so it is never narrowed to a struct.
type Fields map[string]string

// Get is nil-safe.
func (f Fields) Get(key string) string {
	if f == nil {
		return ""
	}
	return f[key]
}

func (f Fields) AmountNegative() string { return f.Get(FieldAmountNegative) }
func (f Fields) PaymentType() string    { return f.Get(FieldPaymentType) }
func (f Fields) TxnNote() string        { return f.Get(FieldTxnNote) }
func (f Fields) SMSText() string        { return f.Get(FieldSMSText) }

// Text returns the SMS body carried by the extracted fields, preferring the
// captured smsText over the top-level copy.
func (e *ExtractedFields) Text() string {
	if e == nil {
		return ""
	}
	if t := e.Fields.SMSText(); t != "" {
		return t
	}
	return e.SMSText
}

// ============================================================
// Timestamp
// ============================================================

// Timestamp keeps createdAt in textual form. The backend serialises
// LocalDateTime either as an ISO string or, depending on the Jackson setup,
// as an array of components; epoch milliseconds are accepted too. Every form
// is normalised to a string here and interpreted later, when the month
// bucket's time zone is known.
type Timestamp string

const localDateTimeLayout = "2006-01-02T15:04:05.999999999"

// UnmarshalJSON accepts a string, a number (epoch millis), an array
// [y, m, d, h, mi, s, nanos] or null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Timestamp(strings.TrimSpace(s))
		return nil
	case '[':
		var parts []int64
		if err := json.Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("timestamp array: %w", err)
		}
		*t = timestampFromParts(parts)
		return nil
	default:
		var ms json.Number
		if err := json.Unmarshal(data, &ms); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		n, err := ms.Int64()
		if err != nil {
			f, ferr := ms.Float64()
			if ferr != nil {
				return fmt.Errorf("timestamp millis: %w", err)
			}
			n = int64(f)
		}
		*t = Timestamp(time.UnixMilli(n).UTC().Format(time.RFC3339Nano))
		return nil
	}
}

// MarshalJSON writes the empty timestamp as null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(t))
}

func (t Timestamp) String() string { return string(t) }

func timestampFromParts(parts []int64) Timestamp {
	if len(parts) < 3 {
		return ""
	}
	at := func(i int) int {
		if i < len(parts) {
			return int(parts[i])
		}
		return 0
	}
	if at(1) < 1 || at(1) > 12 || at(2) < 1 || at(2) > 31 {
		return ""
	}
	ts := time.Date(at(0), time.Month(at(1)), at(2), at(3), at(4), at(5), at(6), time.UTC)
	return Timestamp(ts.Format(localDateTimeLayout))
}

// ============================================================
// Session forwarded to RegexFlow
// ============================================================

// Session carries the caller's RegexFlow credentials. The BFA never
// inspects them; they are forwarded verbatim upstream.
type Session struct {
	Cookie        string
	Authorization string
	CorrelationID string
}

// Empty reports whether no credential was supplied.
func (s Session) Empty() bool {
	return s.Cookie == "" && s.Authorization == ""
}
