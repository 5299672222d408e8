// README: Smoke cases: environment, public API, booking flow, admin guard, concurrency and load.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	statusPass    = "PASS"
	statusFail    = "FAIL"
	statusPending = "PENDING"
	statusSkip    = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client

	// sessionID is shared by the booking flow cases, which run in order.
	sessionID string
	orderID   string
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{cfg: cfg, httpc: &http.Client{Timeout: 20 * time.Second}}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
			defer db.Close()
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
		defer r.redis.Close()
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	return []TestCase{
		{Name: "Env: Postgres connect", Run: pingPostgres},
		{Name: "Env: Redis connect", Run: pingRedis},
		{Name: "Migration: tables exist", Run: tablesExist},

		expect("API: health", http.MethodGet, "/health", nil, statusOK...),
		expect("Catalog: list products", http.MethodGet, "/api/products", nil, statusOK...),
		expect("Catalog: list cities", http.MethodGet, "/api/cities", nil, statusOK...),
		expect("Orders: unknown order -> 404", http.MethodGet, "/api/orders/does-not-exist", nil, http.StatusNotFound),
		expect("Mobile: missing fields -> 400", http.MethodPost, "/api/payments/mobile/pay", map[string]any{}, http.StatusBadRequest),
		expect("Mobile: unknown status -> 404", http.MethodGet, "/api/payments/mobile/status/UNKNOWN_TXN", nil, http.StatusNotFound),
		expect("Mobile: callback always 200", http.MethodPost, "/api/payments/mobile/callback",
			map[string]any{"code": "1", "transactionid": "UNKNOWN_TXN"}, http.StatusOK),
		expect("Admin: queries without token -> 401", http.MethodGet, "/api/admin/queries", nil, http.StatusUnauthorized),

		{Name: "Booking: create session", Run: createSession},
		{Name: "Booking: validate without address -> 400", Run: func(ctx context.Context, r *Runner) Result {
			return r.sessionCall(ctx, http.MethodPost, "/validate-address", nil, http.StatusBadRequest)
		}},
		{Name: "Booking: set customer", Run: func(ctx context.Context, r *Runner) Result {
			return r.sessionCall(ctx, http.MethodPut, "/customer", map[string]any{
				"name": "Smoke Test", "email": "smoke@example.com", "phone": "704-555-0100",
				"event_date": time.Now().AddDate(0, 0, 14).Format("2006-01-02"),
			}, http.StatusOK)
		}},
		{Name: "Booking: delivery address validation", Run: func(ctx context.Context, r *Runner) Result {
			if res := r.sessionCall(ctx, http.MethodPut, "/delivery-method", map[string]any{"delivery_method": "delivery"}, http.StatusOK); res.Status != statusPass {
				return res
			}
			if res := r.sessionCall(ctx, http.MethodPut, "/address", map[string]any{
				"street": "600 E 4th St", "state": "NC", "zipcode": "28202",
			}, http.StatusOK); res.Status != statusPass {
				return res
			}
			return r.sessionCall(ctx, http.MethodPost, "/validate-address", nil, http.StatusOK)
		}},
		{Name: "Booking: concurrent validations settle", Run: concurrentValidate},
		{Name: "Booking: checkout", Run: checkout},
		{Name: "Booking: second checkout -> 409", Run: func(ctx context.Context, r *Runner) Result {
			return r.sessionCall(ctx, http.MethodPost, "/checkout", nil, http.StatusConflict)
		}},
		{Name: "Payments: card intent for new order", Run: cardIntent},
		{Name: "Admin: client queries", Run: adminQueries},

		{Name: "Load: list products throughput", Run: func(ctx context.Context, r *Runner) Result {
			return perfLoad(ctx, r, http.MethodGet, "/api/products")
		}},
	}
}

var statusOK = []int{http.StatusOK}

func pingPostgres(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusSkip, Note: "dsn not set"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.db.Ping(ctx); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return Result{Status: statusPass}
}

func pingRedis(ctx context.Context, r *Runner) Result {
	if r.redis == nil {
		return Result{Status: statusSkip, Note: "redis not set"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return Result{Status: statusPass}
}

var createTableRe = regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)

func tablesExist(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusSkip, Note: "dsn not set"}
	}
	files, err := filepath.Glob(filepath.Join(r.cfg.MigrationsDir, "*.up.sql"))
	if err != nil || len(files) == 0 {
		return Result{Status: statusFail, Note: "no migrations found"}
	}
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		for _, m := range createTableRe.FindAllStringSubmatch(string(b), -1) {
			var exists bool
			err := r.db.QueryRow(ctx,
				"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)", m[1],
			).Scan(&exists)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			if !exists {
				return Result{Status: statusFail, Note: "missing table: " + m[1]}
			}
		}
	}
	return Result{Status: statusPass}
}

func expect(name, method, path string, body any, okStatuses ...int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			code, _, latency, err := r.do(ctx, method, path, body, "")
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return judge(code, latency, okStatuses)
		},
	}
}

func createSession(ctx context.Context, r *Runner) Result {
	code, raw, latency, err := r.do(ctx, http.MethodPost, "/api/sessions", nil, "")
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if code != http.StatusCreated {
		return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d", code)}
	}
	var v struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &v); err != nil || v.ID == "" {
		return Result{Status: statusFail, Note: "no session id in response"}
	}
	r.sessionID = v.ID
	return Result{Status: statusPass, Latency: latency, Note: "session=" + v.ID}
}

func (r *Runner) sessionCall(ctx context.Context, method, suffix string, body any, okStatuses ...int) Result {
	if r.sessionID == "" {
		return Result{Status: statusSkip, Note: "no session"}
	}
	code, _, latency, err := r.do(ctx, method, "/api/sessions/"+r.sessionID+suffix, body, "")
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return judge(code, latency, okStatuses)
}

// concurrentValidate fires validations at one session. Each must end as 200 or a
// 409 superseded; nothing else is acceptable.
func concurrentValidate(ctx context.Context, r *Runner) Result {
	if r.sessionID == "" {
		return Result{Status: statusSkip, Note: "no session"}
	}
	var (
		wg                 sync.WaitGroup
		mu                 sync.Mutex
		ok, superseded, bad int
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, _, _, err := r.do(ctx, http.MethodPost, "/api/sessions/"+r.sessionID+"/validate-address", nil, "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				bad++
			case code == http.StatusOK:
				ok++
			case code == http.StatusConflict:
				superseded++
			default:
				bad++
			}
		}()
	}
	wg.Wait()
	note := fmt.Sprintf("ok=%d superseded=%d other=%d", ok, superseded, bad)
	if bad > 0 || ok == 0 {
		return Result{Status: statusFail, Note: note}
	}
	return Result{Status: statusPass, Note: note}
}

func checkout(ctx context.Context, r *Runner) Result {
	if r.sessionID == "" {
		return Result{Status: statusSkip, Note: "no session"}
	}
	code, raw, latency, err := r.do(ctx, http.MethodPost, "/api/sessions/"+r.sessionID+"/checkout", nil, "")
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if code != http.StatusCreated {
		return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d %s", code, truncate(raw))}
	}
	var o struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	_ = json.Unmarshal(raw, &o)
	if o.Status != "pending" {
		return Result{Status: statusFail, Note: "order status " + o.Status}
	}
	r.orderID = o.ID
	return Result{Status: statusPass, Latency: latency, Note: "order=" + o.ID}
}

func cardIntent(ctx context.Context, r *Runner) Result {
	if r.orderID == "" {
		return Result{Status: statusSkip, Note: "no order"}
	}
	code, _, latency, err := r.do(ctx, http.MethodPost, "/api/payments/card/intent", map[string]any{"order_id": r.orderID}, "")
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if code == http.StatusServiceUnavailable {
		return Result{Status: statusPending, Latency: latency, Note: "card payments not configured"}
	}
	return judge(code, latency, statusOK)
}

func adminQueries(ctx context.Context, r *Runner) Result {
	if r.cfg.AdminToken == "" {
		return Result{Status: statusSkip, Note: "admin token not set"}
	}
	code, _, latency, err := r.do(ctx, http.MethodGet, "/api/admin/queries?limit=5", nil, r.cfg.AdminToken)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return judge(code, latency, statusOK)
}

func perfLoad(ctx context.Context, r *Runner, method, path string) Result {
	end := time.Now().Add(r.cfg.Duration)
	var (
		count, errCount int64
		mu              sync.Mutex
		wg              sync.WaitGroup
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				code, _, _, err := r.do(ctx, method, path, nil, "")
				mu.Lock()
				if err != nil || code >= 500 {
					errCount++
				} else {
					count++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func (r *Runner) do(ctx context.Context, method, path string, body any, token string) (int, []byte, time.Duration, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, 0, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return resp.StatusCode, raw, time.Since(start), nil
}

func judge(code int, latency time.Duration, okStatuses []int) Result {
	note := fmt.Sprintf("status=%d", code)
	for _, s := range okStatuses {
		if s == code {
			return Result{Status: statusPass, Latency: latency, Note: note}
		}
	}
	if code == http.StatusNotImplemented {
		return Result{Status: statusPending, Latency: latency, Note: note}
	}
	return Result{Status: statusFail, Latency: latency, Note: note}
}

func truncate(b []byte) string {
	if len(b) > 200 {
		return string(b[:200]) + "..."
	}
	return string(b)
}
