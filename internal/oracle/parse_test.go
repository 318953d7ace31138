package oracle

import (
	"errors"
	"testing"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain array", `[{"a":1}]`, `[{"a":1}]`},
		{"json fence", "```json\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"bare fence", "```\n[]\n```", `[]`},
		{"prose around array", "Here you go:\n[{\"a\":1}]\nHope that helps!", `[{"a":1}]`},
		{"object wrapper", `{"transactions": []}`, `{"transactions": []}`},
		{"prose around object", "Sure: {\"transactions\": [1]} done", `{"transactions": [1]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseCandidatesArray(t *testing.T) {
	raw := `[
		{"date":"2024-01-02","merchant":"Uber","amount":"-12.50","txn_type":"DEBIT","payment_method":"UPI","transaction_id":"REF1","notes":"trip"},
		{"date":"2024-01-03","merchant":"Salary","amount":1500.00,"txn_type":"CREDIT","payment_method":null,"transaction_id":null,"notes":""}
	]`
	candidates, dropped, err := parseCandidates(raw, 4)
	if err != nil {
		t.Fatalf("parseCandidates: %v", err)
	}
	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if candidates[0].TransactionID != "REF1" || candidates[0].Chunk != 4 {
		t.Errorf("candidate 0 = %+v", candidates[0])
	}
	// JSON-number amounts are tolerated and rendered back to strings.
	if candidates[1].Amount != "1500" {
		t.Errorf("numeric amount = %q, want %q", candidates[1].Amount, "1500")
	}
}

func TestParseCandidatesWrappedObject(t *testing.T) {
	raw := `{"transactions":[{"date":"2024-01-02","merchant":"Zomato","amount":"-8.00"}]}`
	candidates, _, err := parseCandidates(raw, 0)
	if err != nil {
		t.Fatalf("parseCandidates: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Merchant != "Zomato" {
		t.Errorf("candidates = %+v", candidates)
	}
}

func TestParseCandidatesFilters(t *testing.T) {
	raw := `[
		{"date":"2024-01-02","merchant":"EXAMPLE_MERCHANT_ONLY","amount":"-1.00"},
		{"date":"2024-01-02","merchant":"","amount":"-1.00"},
		{"date":"2024-01-02","merchant":"No Amount"},
		{"date":"2024-01-02","merchant":"Kept","amount":"-1.00"}
	]`
	candidates, dropped, err := parseCandidates(raw, 0)
	if err != nil {
		t.Fatalf("parseCandidates: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Merchant != "Kept" {
		t.Errorf("candidates = %+v", candidates)
	}
	if dropped != 3 {
		t.Errorf("dropped = %d, want 3", dropped)
	}
}

func TestParseCandidatesMalformed(t *testing.T) {
	for _, raw := range []string{"", "not json at all", `"just a string"`, "42"} {
		_, _, err := parseCandidates(raw, 7)
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("parseCandidates(%q): got %v, want *ParseError", raw, err)
			continue
		}
		if parseErr.Chunk != 7 {
			t.Errorf("ParseError.Chunk = %d, want 7", parseErr.Chunk)
		}
	}
}

func TestParseCandidatesEmptyList(t *testing.T) {
	candidates, dropped, err := parseCandidates("[]", 0)
	if err != nil {
		t.Fatalf("parseCandidates: %v", err)
	}
	if len(candidates) != 0 || dropped != 0 {
		t.Errorf("empty list gave %d candidates, %d dropped", len(candidates), dropped)
	}
}
