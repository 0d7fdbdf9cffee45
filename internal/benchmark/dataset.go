package benchmark

import (
	"math/rand"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/record"
)

var (
	accountTypes  = []string{"Individual", "IRA", "Corporate", "Trust", "Joint"}
	securityTypes = []string{"Stock", "Bond", "ETF", "Mutual Fund", "Option", "Cash"}
	symbols       = []string{"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA", "META", "NFLX", "NVDA", "JPM", "BAC"}
)

// SearchFields are the text fields every benchmark indexes and searches.
var SearchFields = []string{
	"accountNumber",
	"accountName",
	"symbol",
	"securityDescription",
	"securityType",
}

// NumericFields carry the random amounts used by filter benchmarks.
var NumericFields = []string{"portfolioValue", "totalCash", "marketValue", "numberOfShares", "price"}

// GenerateDataset builds n synthetic holdings. Text fields cycle through a
// fixed vocabulary by position; numeric fields come from a rand source
// seeded with seed, so the same (n, seed) always yields the same records.
func GenerateDataset(n int, seed int64) []record.Record {
	rng := rand.New(rand.NewSource(seed))
	out := make([]record.Record, n)
	for i := range out {
		symbol := symbols[i%len(symbols)]
		if i%100 == 0 {
			symbol += ".TO"
		}
		secType := securityTypes[i%len(securityTypes)]
		out[i] = record.Record{
			"accountNumber":       "ACC" + strconv.Itoa(i+100000)[1:],
			"accountName":         accountTypes[i%len(accountTypes)] + " Account " + strconv.Itoa(i+1),
			"symbol":              symbol,
			"securityDescription": "Test Security " + strconv.Itoa(i+1) + " - " + secType,
			"securityType":        secType,
			"portfolioValue":      rng.Float64()*1_000_000 + 1000,
			"totalCash":           rng.Float64() * 50_000,
			"marketValue":         rng.Float64()*100_000 + 100,
			"numberOfShares":      rng.Float64()*1000 + 1,
			"price":               rng.Float64()*500 + 10,
		}
	}
	return out
}
