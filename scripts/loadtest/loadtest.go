// Loadtest is a concurrent HTTP load testing tool that measures throughput
// and latency percentiles against the broadcast gateway's start-charging
// endpoint.
//
// Usage:
//
//	go run ./scripts/loadtest -url http://localhost:8080/api/v1/broadcast/start-charging -concurrency 10 -requests 1000
//	go run ./scripts/loadtest -url http://localhost:8080/api/v1/broadcast/start-charging -concurrency 50 -requests 5000 -csv results.csv -out summary.json
//
// Features:
//   - Concurrent workers for high throughput testing
//   - Win/no-win tallying parsed from the broadcast Report JSON body
//   - CSV output with per-request details
//   - Latency percentiles (p50, p90, p95, p99) printed to stdout
//   - JSON summary of totals, win count, duration and throughput (no percentiles)
//
// Adapted from the original load-balancer loadtest.go: the per-backend
// distribution table (driven by an X-Backend-Server response header that
// has no equivalent here) is replaced with a won/lost tally driven by the
// "success" field of each broadcast Report.
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type broadcastReport struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	RespondingPartner string `json:"responding_partner"`
	TotalTimeMs       int64  `json:"total_time_ms"`
}

func main() {
	var (
		url         = flag.String("url", "http://localhost:8080/api/v1/broadcast/start-charging", "Target URL")
		concurrency = flag.Int("concurrency", 10, "Number of concurrent workers")
		requests    = flag.Int("requests", 100, "Total number of requests to send")
		timeoutSec  = flag.Int("timeout", 10, "Per-request timeout in seconds")
	)

	outJSON := flag.String("out", "", "Write JSON summary to this file (optional)")
	outCSV := flag.String("csv", "", "Write per-request CSV to this file (optional)")
	verbose := flag.Bool("v", false, "Verbose per-request logging to stdout")
	flag.Parse()

	client := &http.Client{Timeout: time.Duration(*timeoutSec) * time.Second}

	jobs := make(chan int)
	var wg sync.WaitGroup

	var total int32
	var success int32
	var failure int32
	var won int32

	wonBy := make(map[string]int32)
	var wonByMu sync.Mutex

	var allLatencies []time.Duration
	var latMu sync.Mutex

	statusCodes := make(map[int]int32)
	var statusMu sync.Mutex

	var csvFile *os.File
	var csvWriter *csv.Writer
	var csvMu sync.Mutex
	if *outCSV != "" {
		f, err := os.Create(*outCSV)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create csv file: %v\n", err)
			os.Exit(1)
		}
		csvFile = f
		csvWriter = csv.NewWriter(f)
		csvWriter.Write([]string{"idx", "timestamp", "status", "won", "responding_partner", "duration_ms"})
	}

	testStart := time.Now()

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range jobs {
				atomic.AddInt32(&total, 1)
				start := time.Now()

				uid := fmt.Sprintf("loadtest-uid-%d-%d", workerID, idx)
				payload, _ := json.Marshal(map[string]string{"uid": uid})

				req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(payload))
				if err != nil {
					atomic.AddInt32(&failure, 1)
					continue
				}
				req.Header.Set("Content-Type", "application/json")

				resp, err := client.Do(req)
				dur := time.Since(start)

				latMu.Lock()
				allLatencies = append(allLatencies, dur)
				latMu.Unlock()

				if err != nil {
					atomic.AddInt32(&failure, 1)
					if *verbose {
						fmt.Printf("[%d] idx=%d error=%v\n", workerID, idx, err)
					}
					continue
				}

				statusMu.Lock()
				statusCodes[resp.StatusCode]++
				statusMu.Unlock()

				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()

				var report broadcastReport
				_ = json.Unmarshal(body, &report)

				if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
					atomic.AddInt32(&success, 1)
				} else {
					atomic.AddInt32(&failure, 1)
				}

				if report.Success {
					atomic.AddInt32(&won, 1)
					wonByMu.Lock()
					wonBy[report.RespondingPartner]++
					wonByMu.Unlock()
				}

				if csvWriter != nil {
					csvMu.Lock()
					csvWriter.Write([]string{
						fmt.Sprintf("%d", idx),
						time.Now().Format(time.RFC3339Nano),
						fmt.Sprintf("%d", resp.StatusCode),
						fmt.Sprintf("%t", report.Success),
						report.RespondingPartner,
						fmt.Sprintf("%.3f", float64(dur.Microseconds())/1000.0),
					})
					csvMu.Unlock()
				}

				if *verbose {
					fmt.Printf("[%d] idx=%d status=%d won=%t partner=%s dur=%v\n",
						workerID, idx, resp.StatusCode, report.Success, report.RespondingPartner, dur)
				}
			}
		}(i)
	}

	go func() {
		for i := 0; i < *requests; i++ {
			jobs <- i
		}
		close(jobs)
	}()

	wg.Wait()
	testEnd := time.Now()

	if csvWriter != nil {
		csvWriter.Flush()
		csvFile.Close()
	}

	totalDuration := testEnd.Sub(testStart)
	throughput := float64(total) / totalDuration.Seconds()

	fmt.Println("--- Broadcast Load Test Summary ---")
	fmt.Printf("Target: %s\n", *url)
	fmt.Printf("Requests: %d  Concurrency: %d\n", *requests, *concurrency)
	fmt.Printf("Total sent: %d  HTTP success: %d  HTTP failure: %d\n", total, success, failure)
	fmt.Printf("Broadcast won: %d (%.1f%%)\n", won, 100*float64(won)/float64(total))
	fmt.Printf("Duration: %v  Throughput: %.2f req/s\n", totalDuration, throughput)

	fmt.Println("\nStatus codes:")
	statusMu.Lock()
	var scKeys []int
	for k := range statusCodes {
		scKeys = append(scKeys, k)
	}
	sort.Ints(scKeys)
	for _, k := range scKeys {
		fmt.Printf("  %d -> %d\n", k, statusCodes[k])
	}
	statusMu.Unlock()

	fmt.Println("\nWins by responding partner:")
	wonByMu.Lock()
	var partnerKeys []string
	for k := range wonBy {
		partnerKeys = append(partnerKeys, k)
	}
	sort.Strings(partnerKeys)
	for _, k := range partnerKeys {
		label := k
		if label == "" {
			label = "(none)"
		}
		fmt.Printf("  %s -> %d\n", label, wonBy[k])
	}
	wonByMu.Unlock()

	if len(allLatencies) > 0 {
		tmp := make([]time.Duration, len(allLatencies))
		copy(tmp, allLatencies)
		sort.Slice(tmp, func(i, j int) bool { return tmp[i] < tmp[j] })
		var sum time.Duration
		for _, d := range tmp {
			sum += d
		}
		avg := sum / time.Duration(len(tmp))
		p := func(pct float64) time.Duration {
			idx := int(float64(len(tmp)-1) * pct)
			return tmp[idx]
		}
		fmt.Println("\nOverall latencies:")
		fmt.Printf("  samples=%d min=%v avg=%v max=%v p50=%v p90=%v p95=%v p99=%v\n",
			len(tmp), tmp[0], avg, tmp[len(tmp)-1], p(0.50), p(0.90), p(0.95), p(0.99))
	}

	fmt.Printf("\nGOMAXPROCS=%d  NumGoroutine=%d\n", runtime.GOMAXPROCS(0), runtime.NumGoroutine())

	if *outJSON != "" {
		report := map[string]interface{}{
			"target":         *url,
			"requests":       *requests,
			"concurrency":    *concurrency,
			"total_sent":     total,
			"http_success":   success,
			"http_failure":   failure,
			"broadcast_won":  won,
			"duration_ms":    totalDuration.Milliseconds(),
			"throughput_rps": throughput,
		}

		f, err := os.Create(*outJSON)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create json file: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		enc.Encode(report)
		f.Close()
		fmt.Printf("\nWrote JSON summary to %s\n", *outJSON)
	}

	if failure > 0 {
		os.Exit(2)
	}
}
