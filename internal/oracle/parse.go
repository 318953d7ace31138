package oracle

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dvloznov/finance-vault/internal/domain"
)

// ParseError reports that one chunk's oracle output failed schema
// validation. It is scoped to the chunk and never aborts the remaining
// chunks.
type ParseError struct {
	Chunk  int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("oracle: chunk %d output failed validation: %s", e.Chunk, e.Reason)
}

// parseCandidates validates raw oracle output for one chunk and converts it
// into candidates. The output is untrusted: it gets fence-stripped, decoded
// into generic JSON and walked field by field. Records missing a merchant or
// amount, or echoing the prompt's example record, are dropped and counted.
func parseCandidates(raw string, chunk int) (candidates []domain.Candidate, dropped int, err error) {
	clean := cleanModelJSON(raw)
	if clean == "" {
		return nil, 0, &ParseError{Chunk: chunk, Reason: "empty output"}
	}

	var decoded interface{}
	if jsonErr := json.Unmarshal([]byte(clean), &decoded); jsonErr != nil {
		return nil, 0, &ParseError{Chunk: chunk, Reason: fmt.Sprintf("invalid JSON: %v", jsonErr)}
	}

	records, ok := recordList(decoded)
	if !ok {
		return nil, 0, &ParseError{Chunk: chunk, Reason: fmt.Sprintf("unexpected top-level %T", decoded)}
	}

	for _, item := range records {
		obj, ok := item.(map[string]interface{})
		if !ok {
			dropped++
			continue
		}
		c := domain.Candidate{
			Date:          stringField(obj, "date"),
			Merchant:      stringField(obj, "merchant"),
			Amount:        amountField(obj),
			TxnType:       stringField(obj, "txn_type"),
			PaymentMethod: stringField(obj, "payment_method"),
			TransactionID: stringField(obj, "transaction_id"),
			Notes:         stringField(obj, "notes"),
			Chunk:         chunk,
		}
		if !plausible(c) {
			dropped++
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, dropped, nil
}

// recordList accepts the shapes models actually produce: a top-level array,
// an object wrapping a "transactions" array, or a single record object.
func recordList(decoded interface{}) ([]interface{}, bool) {
	switch v := decoded.(type) {
	case []interface{}:
		return v, true
	case map[string]interface{}:
		if inner, ok := v["transactions"]; ok {
			list, ok := inner.([]interface{})
			return list, ok
		}
		return []interface{}{v}, true
	default:
		return nil, false
	}
}

func plausible(c domain.Candidate) bool {
	if strings.TrimSpace(c.Merchant) == "" || strings.TrimSpace(c.Amount) == "" {
		return false
	}
	if strings.Contains(strings.ToUpper(c.Merchant), "EXAMPLE_MERCHANT") {
		return false
	}
	return true
}

func stringField(m map[string]interface{}, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// amountField tolerates models that emit the amount as a JSON number instead
// of the requested string.
func amountField(m map[string]interface{}) string {
	v, ok := m["amount"]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}
