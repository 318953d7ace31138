package oracle

import (
	"fmt"
	"strings"

	"github.com/dvloznov/finance-vault/internal/domain"
)

// exampleMerchant marks the sample record in the extraction prompt. Output
// echoing it is a hallucination and gets filtered.
const exampleMerchant = "EXAMPLE_MERCHANT_ONLY"

// Hints carries the contextual information a chunk cannot re-derive on its
// own, since chunks are processed independently.
type Hints struct {
	SourceType domain.SourceType
	Instrument domain.PaymentMethod
}

func (h Hints) contextLine() string {
	var b strings.Builder
	if h.SourceType == domain.SourceCSV {
		b.WriteString("The input is raw CSV rows with a repeated header line.")
	} else {
		b.WriteString("The input is unstructured text from a PDF bank statement.")
	}
	if h.Instrument != "" && h.Instrument != domain.PaymentUnknown {
		fmt.Fprintf(&b, " The statement's payment instrument is %q; use it as the default payment_method.", h.Instrument)
	}
	return b.String()
}

// extractionPrompt builds the per-chunk extraction instruction.
func extractionPrompt(chunkText string, hints Hints) string {
	var b strings.Builder

	b.WriteString("You are a strict financial data parser. Extract transactions from the input below.\n")
	b.WriteString(hints.contextLine())
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Only extract data explicitly present in the input. Do NOT invent transactions.\n")
	b.WriteString("- If the input is only headers, footers or empty, return an empty list: [].\n")
	b.WriteString("- \"date\": string as written in the input.\n")
	b.WriteString("- \"merchant\": the clean counterparty name. Remove cities, \"POS\" and \"Value Date\" noise.\n")
	b.WriteString("- \"amount\": string exactly as written, including sign, parentheses or DR/CR markers.\n")
	b.WriteString("- \"txn_type\": \"DEBIT\" for spending, \"CREDIT\" for refunds/income, or null if unclear.\n")
	b.WriteString("- \"payment_method\": one of \"Credit Card\", \"Debit Card\", \"UPI\", \"Bank Transfer\", \"Cash\", \"Unknown\".\n")
	b.WriteString("- \"transaction_id\": the source reference (Ref No, Txn ID), or null if absent.\n")
	b.WriteString("- \"notes\": remaining narration text, or \"\" if none.\n")
	b.WriteString("\nReturn ONLY a valid raw JSON array of objects.\n")
	b.WriteString("Do NOT wrap the response in code fences or Markdown.\n")
	b.WriteString("\nExample output shape (format only, never this data):\n")
	fmt.Fprintf(&b, `[{"date":"2025-12-31","merchant":"%s","amount":"-100.00","txn_type":"DEBIT","payment_method":"Unknown","transaction_id":"REF123","notes":""}]`, exampleMerchant)
	b.WriteString("\n\nInput:\n")
	b.WriteString(chunkText)
	return b.String()
}

// strictRetryPrompt reformulates the instruction after a parse failure. It
// leads with the output contract, since that is what the model got wrong.
func strictRetryPrompt(chunkText string, hints Hints) string {
	var b strings.Builder
	b.WriteString("Your previous output was not valid JSON. Respond again.\n")
	b.WriteString("OUTPUT CONTRACT (violating it fails the task):\n")
	b.WriteString("- The response MUST begin with \"[\" and end with \"]\".\n")
	b.WriteString("- No Markdown, no code fences, no commentary, no trailing commas.\n")
	b.WriteString("- Each element MUST have exactly these keys: date, merchant, amount, txn_type, payment_method, transaction_id, notes.\n")
	b.WriteString("- Use JSON null for unknown txn_type/transaction_id; use \"\" for empty notes.\n")
	b.WriteString("- If no transactions are present, respond with [].\n\n")
	b.WriteString(hints.contextLine())
	b.WriteString("\n\nInput:\n")
	b.WriteString(chunkText)
	return b.String()
}

// instrumentPrompt asks the oracle to classify the statement's payment
// instrument from the document's leading text.
func instrumentPrompt(headText string) string {
	const limit = 2000
	if len(headText) > limit {
		headText = headText[:limit]
	}
	var b strings.Builder
	b.WriteString("Analyze the header text of this financial document.\n")
	b.WriteString("Identify the payment instrument or account type.\n\n")
	b.WriteString("Return ONLY one of the following exact strings:\n")
	b.WriteString("- \"Credit Card\"\n- \"Debit Card\"\n- \"UPI\"\n- \"Bank Transfer\"\n- \"Unknown\"\n\n")
	b.WriteString("Text:\n")
	b.WriteString(headText)
	return b.String()
}
