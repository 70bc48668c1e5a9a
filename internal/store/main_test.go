package store

import (
	"os"
	"testing"

	"github.com/shopspring/decimal"
)

// TestMain matches the server binary, which sends amounts as JSON numbers.
func TestMain(m *testing.M) {
	decimal.MarshalJSONWithoutQuotes = true
	os.Exit(m.Run())
}
