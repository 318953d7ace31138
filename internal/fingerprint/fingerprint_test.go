package fingerprint

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestSumDeterministic(t *testing.T) {
	data := []byte("statement body")
	if Sum(data) != Sum(append([]byte(nil), data...)) {
		t.Error("identical bytes produced different fingerprints")
	}
}

func TestSumSensitiveToSingleByte(t *testing.T) {
	a := Sum([]byte("statement body"))
	b := Sum([]byte("statement bodz"))
	if a == b {
		t.Error("single-byte difference produced identical fingerprints")
	}
}

func TestSumKnownVector(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Sum([]byte("abc")); got != want {
		t.Errorf("Sum(abc) = %s, want %s", got, want)
	}
}

func TestSumReaderMatchesSum(t *testing.T) {
	data := []byte("chunked content read through a reader")
	got, err := SumReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("SumReader: %v", err)
	}
	if got != Sum(data) {
		t.Errorf("SumReader = %s, want %s", got, Sum(data))
	}
}

func TestSumFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statement.csv")
	data := []byte("date,merchant,amount\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := SumFile(path)
	if err != nil {
		t.Fatalf("SumFile: %v", err)
	}
	if got != Sum(data) {
		t.Errorf("SumFile = %s, want %s", got, Sum(data))
	}
}
