package main

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"math/rand"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
)

// BenchmarkConfig holds benchmark configuration
type BenchmarkConfig struct {
	BaseURL          string
	Duration         time.Duration
	ForecastWorkers  int
	DecomposeWorkers int
	Length           int    // observations per synthetic series
	Period           int    // seasonal period of the synthetic series
	Distinct         int    // distinct series per worker; fewer means more cache hits
	Methods          string // forwarded as the methods field
	Horizon          int
	OutputDir        string
	HTTPClient       *http.Client // Shared HTTP client for connection pooling
}

// Metrics holds latencies and counters for one operation
type Metrics struct {
	Latencies  []float64
	Errors     int64
	Success    int64
	FirstError string
	mu         sync.Mutex
}

func (m *Metrics) record(latency time.Duration, err error) {
	if err != nil {
		if atomic.AddInt64(&m.Errors, 1) == 1 {
			m.mu.Lock()
			m.FirstError = err.Error()
			m.mu.Unlock()
		}
		return
	}
	atomic.AddInt64(&m.Success, 1)
	m.mu.Lock()
	m.Latencies = append(m.Latencies, float64(latency.Microseconds())/1000)
	m.mu.Unlock()
}

// Result represents benchmark results
type Result struct {
	Operation  string
	TotalOps   int64
	SuccessOps int64
	ErrorOps   int64
	Duration   time.Duration
	Throughput float64 // ops/sec
	AvgLatency float64 // ms
	MinLatency float64 // ms
	MaxLatency float64 // ms
	P50Latency float64 // ms
	P95Latency float64 // ms
	P99Latency float64 // ms
	ErrorMsg   string  // First error message
}

func main() {
	config := BenchmarkConfig{}

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Load test the forecast and decompose endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(config)
		},
	}
	cmd.Flags().StringVar(&config.BaseURL, "url", "http://127.0.0.1:8050", "Base URL of the API")
	cmd.Flags().DurationVar(&config.Duration, "duration", 60*time.Second, "Benchmark duration")
	cmd.Flags().IntVar(&config.ForecastWorkers, "forecast-workers", 8, "Number of concurrent forecast workers")
	cmd.Flags().IntVar(&config.DecomposeWorkers, "decompose-workers", 2, "Number of concurrent decompose workers")
	cmd.Flags().IntVar(&config.Length, "length", 144, "Observations per synthetic series")
	cmd.Flags().IntVar(&config.Period, "period", 12, "Seasonal period of the synthetic series")
	cmd.Flags().IntVar(&config.Distinct, "distinct", 32, "Distinct series per worker")
	cmd.Flags().StringVar(&config.Methods, "methods", "", "Methods to request (default: server defaults)")
	cmd.Flags().IntVar(&config.Horizon, "horizon", 24, "Forecast horizon")
	cmd.Flags().StringVar(&config.OutputDir, "out", "benchmark_results", "Directory for the result file")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(config BenchmarkConfig) error {
	if config.Length < 2*config.Period || config.Distinct < 1 {
		return fmt.Errorf("length must cover two periods and distinct must be positive")
	}

	// Create shared HTTP client with connection pooling
	config.HTTPClient = &http.Client{
		Timeout: 2 * time.Minute,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	fmt.Printf("=== seriesdash Benchmark Tool ===\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  URL: %s\n", config.BaseURL)
	fmt.Printf("  Duration: %s\n", config.Duration)
	fmt.Printf("  Forecast Workers: %d\n", config.ForecastWorkers)
	fmt.Printf("  Decompose Workers: %d\n", config.DecomposeWorkers)
	fmt.Printf("  Series: %d observations, period %d, %d distinct per worker\n", config.Length, config.Period, config.Distinct)
	fmt.Printf("  Horizon: %d\n", config.Horizon)
	fmt.Printf("\n")

	forecastMetrics, decomposeMetrics := runBenchmark(config)

	forecastResult := calculateResult("Forecast", forecastMetrics.Latencies, forecastMetrics.Success, forecastMetrics.Errors, config.Duration, forecastMetrics.FirstError)
	decomposeResult := calculateResult("Decompose", decomposeMetrics.Latencies, decomposeMetrics.Success, decomposeMetrics.Errors, config.Duration, decomposeMetrics.FirstError)

	fmt.Printf("\n=== Benchmark Results ===\n\n")
	displayResult(forecastResult)
	fmt.Println()
	displayResult(decomposeResult)

	return saveResults(config, forecastResult, decomposeResult)
}

func runBenchmark(config BenchmarkConfig) (*Metrics, *Metrics) {
	forecastMetrics, decomposeMetrics := &Metrics{}, &Metrics{}
	stopCh := make(chan struct{})
	var wg sync.WaitGroup

	startTime := time.Now()
	for i := 0; i < config.ForecastWorkers; i++ {
		wg.Add(1)
		go worker(i, config, "/v1/forecast", forecastMetrics, stopCh, &wg)
	}
	for i := 0; i < config.DecomposeWorkers; i++ {
		wg.Add(1)
		go worker(config.ForecastWorkers+i, config, "/v1/decompose", decomposeMetrics, stopCh, &wg)
	}

	done := make(chan struct{})
	go progressReporter(forecastMetrics, decomposeMetrics, config.Duration, startTime, done)

	time.Sleep(config.Duration)
	close(stopCh)
	wg.Wait()
	close(done)

	return forecastMetrics, decomposeMetrics
}

func worker(id int, config BenchmarkConfig, path string, metrics *Metrics, stopCh chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	rng := rand.New(rand.NewSource(int64(id) + 1))
	series := make([][]byte, config.Distinct)
	for i := range series {
		series[i] = generateSeries(rng, config.Length, config.Period)
	}

	fields := map[string]string{
		"start_date":      "2000-01-01",
		"seasonal_period": strconv.Itoa(config.Period),
	}
	if path == "/v1/forecast" {
		fields["horizon"] = strconv.Itoa(config.Horizon)
		if config.Methods != "" {
			fields["methods"] = config.Methods
		}
	}

	for n := 0; ; n++ {
		select {
		case <-stopCh:
			return
		default:
		}
		start := time.Now()
		err := postSeries(config, path, series[n%len(series)], fields)
		metrics.record(time.Since(start), err)
	}
}

func progressReporter(forecastMetrics, decomposeMetrics *Metrics, duration time.Duration, startTime time.Time, done chan struct{}) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			elapsed := time.Since(startTime)
			fmt.Printf("[%5.1f%%] forecasts: %d ok / %d err, decompositions: %d ok / %d err\n",
				math.Min(100, elapsed.Seconds()/duration.Seconds()*100),
				atomic.LoadInt64(&forecastMetrics.Success), atomic.LoadInt64(&forecastMetrics.Errors),
				atomic.LoadInt64(&decomposeMetrics.Success), atomic.LoadInt64(&decomposeMetrics.Errors))
		}
	}
}

// generateSeries returns a CSV body: trend plus seasonality plus noise.
func generateSeries(rng *rand.Rand, length, period int) []byte {
	var buf bytes.Buffer
	level := 100 + rng.Float64()*900
	slope := rng.Float64() * 2
	amplitude := level * (0.05 + rng.Float64()*0.2)
	for i := 0; i < length; i++ {
		season := amplitude * math.Sin(2*math.Pi*float64(i%period)/float64(period))
		v := level + slope*float64(i) + season + rng.NormFloat64()*amplitude*0.1
		buf.WriteString(strconv.FormatFloat(v, 'f', 3, 64))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func postSeries(config BenchmarkConfig, path string, csv []byte, fields map[string]string) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "series.csv")
	if err != nil {
		return err
	}
	if _, err := part.Write(csv); err != nil {
		return err
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, config.BaseURL+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Connection", "keep-alive")

	resp, err := config.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	// Read and discard body to reuse connection
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

func calculateResult(operation string, latencies []float64, success, errors int64, duration time.Duration, errorMsg string) Result {
	if len(latencies) == 0 {
		return Result{
			Operation: operation,
			TotalOps:  success + errors,
			ErrorOps:  errors,
			ErrorMsg:  errorMsg,
		}
	}

	// Sort for percentiles
	sort.Float64s(latencies)

	result := Result{
		Operation:  operation,
		TotalOps:   success + errors,
		SuccessOps: success,
		ErrorOps:   errors,
		Duration:   duration,
		Throughput: float64(success) / duration.Seconds(),
		MinLatency: latencies[0],
		MaxLatency: latencies[len(latencies)-1],
		P50Latency: percentile(latencies, 50),
		P95Latency: percentile(latencies, 95),
		P99Latency: percentile(latencies, 99),
		ErrorMsg:   errorMsg,
	}

	var sum float64
	for _, lat := range latencies {
		sum += lat
	}
	result.AvgLatency = sum / float64(len(latencies))

	return result
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(math.Ceil(float64(len(sorted))*p/100.0)) - 1
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func share(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func writeResult(w io.Writer, r Result) {
	_, _ = fmt.Fprintf(w, "=== %s Operations ===\n", r.Operation)
	_, _ = fmt.Fprintf(w, "Total Operations: %d\n", r.TotalOps)
	_, _ = fmt.Fprintf(w, "Success:          %d (%.2f%%)\n", r.SuccessOps, share(r.SuccessOps, r.TotalOps))
	_, _ = fmt.Fprintf(w, "Errors:           %d (%.2f%%)\n", r.ErrorOps, share(r.ErrorOps, r.TotalOps))
	_, _ = fmt.Fprintf(w, "Duration:         %s\n", r.Duration)
	_, _ = fmt.Fprintf(w, "Throughput:       %.2f ops/sec\n", r.Throughput)
	if r.ErrorOps > 0 && len(r.ErrorMsg) > 0 {
		_, _ = fmt.Fprintf(w, "First Error:      %s\n", r.ErrorMsg)
	}
	_, _ = fmt.Fprintf(w, "\nLatency (ms):\n")
	_, _ = fmt.Fprintf(w, "  Min:  %.2f\n", r.MinLatency)
	_, _ = fmt.Fprintf(w, "  Avg:  %.2f\n", r.AvgLatency)
	_, _ = fmt.Fprintf(w, "  P50:  %.2f\n", r.P50Latency)
	_, _ = fmt.Fprintf(w, "  P95:  %.2f\n", r.P95Latency)
	_, _ = fmt.Fprintf(w, "  P99:  %.2f\n", r.P99Latency)
	_, _ = fmt.Fprintf(w, "  Max:  %.2f\n", r.MaxLatency)
}

func displayResult(r Result) {
	writeResult(os.Stdout, r)
}

func saveResults(config BenchmarkConfig, forecastResult, decomposeResult Result) error {
	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create result directory: %w", err)
	}
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(config.OutputDir, fmt.Sprintf("api_benchmark_%s.txt", timestamp))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create result file: %w", err)
	}
	defer func() { _ = f.Close() }()

	_, _ = fmt.Fprintf(f, "=== seriesdash API Benchmark Results ===\n")
	_, _ = fmt.Fprintf(f, "Date: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(f, "Configuration:\n")
	_, _ = fmt.Fprintf(f, "  URL: %s\n", config.BaseURL)
	_, _ = fmt.Fprintf(f, "  Duration: %s\n", config.Duration)
	_, _ = fmt.Fprintf(f, "  Forecast Workers: %d\n", config.ForecastWorkers)
	_, _ = fmt.Fprintf(f, "  Decompose Workers: %d\n", config.DecomposeWorkers)
	_, _ = fmt.Fprintf(f, "  Length: %d\n", config.Length)
	_, _ = fmt.Fprintf(f, "  Period: %d\n", config.Period)
	_, _ = fmt.Fprintf(f, "  Distinct: %d\n", config.Distinct)
	_, _ = fmt.Fprintf(f, "  Horizon: %d\n", config.Horizon)
	_, _ = fmt.Fprintf(f, "\n")

	writeResult(f, forecastResult)
	_, _ = fmt.Fprintf(f, "\n")
	writeResult(f, decomposeResult)

	fmt.Printf("\nResults saved to: %s\n", filename)
	return nil
}
