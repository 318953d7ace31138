package domain

// Candidate is an unvalidated transaction extracted from oracle output,
// prior to normalization. All fields are raw strings as the oracle
// produced them; the Normalizer decides what survives.
type Candidate struct {
	Date          string
	Merchant      string
	Amount        string
	TxnType       string // "DEBIT"/"CREDIT" when the source reports it
	PaymentMethod string
	TransactionID string // source-provided identifier, empty if absent
	Notes         string
	Chunk         int // index of the chunk the candidate came from
}
