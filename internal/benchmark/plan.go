package benchmark

import "fmt"

// Case is one RunBenchmark invocation.
type Case struct {
	Name       string     `json:"name" yaml:"name"`
	Queries    []string   `json:"queries" yaml:"queries"`
	DataSize   int        `json:"data_size" yaml:"data_size"`
	Iterations int        `json:"iterations" yaml:"iterations"`
	Complexity Complexity `json:"complexity" yaml:"complexity"`
}

type Plan struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Cases       []Case `json:"cases" yaml:"cases"`
}

var (
	SimpleQueries  = []string{"AAPL", "IRA", "Stock", "123", "Test"}
	MediumQueries  = []string{"AAPL Individual", "Corporate Account", "Mutual Fund", "Bond ETF", "Test Security"}
	ComplexQueries = []string{
		"Individual Account with Stock",
		"IRA Account AAPL Test Security",
		"Corporate Bond Mutual Fund",
		"Joint Trust Account with ETF",
		"Cash Option in Individual Account",
	}

	DefaultDataSizes = []int{100, 1000, 5000, 10000}
)

const stressIterations = 1000

// DefaultPlan sweeps simple, medium and complex queries (50, 30 and 20
// iterations) over each of DefaultDataSizes no larger than maxSize, then
// adds a stress test cycling every query over maxSize records.
func DefaultPlan(maxSize int) Plan {
	plan := Plan{
		Name:        "Comprehensive Search Performance Benchmark",
		Description: "Search latency across data sizes and query complexities",
	}
	for _, size := range DefaultDataSizes {
		if size > maxSize {
			continue
		}
		plan.Cases = append(plan.Cases,
			Case{fmt.Sprintf("Simple Queries - %d records", size), SimpleQueries, size, 50, Simple},
			Case{fmt.Sprintf("Medium Queries - %d records", size), MediumQueries, size, 30, Medium},
			Case{fmt.Sprintf("Complex Queries - %d records", size), ComplexQueries, size, 20, Complex},
		)
	}
	if maxSize > 0 {
		all := make([]string, 0, len(SimpleQueries)+len(MediumQueries)+len(ComplexQueries))
		all = append(all, SimpleQueries...)
		all = append(all, MediumQueries...)
		all = append(all, ComplexQueries...)
		plan.Cases = append(plan.Cases, Case{
			Name:       fmt.Sprintf("Stress Test - %d iterations", stressIterations),
			Queries:    all,
			DataSize:   maxSize,
			Iterations: stressIterations,
			Complexity: Complex,
		})
	}
	return plan
}
