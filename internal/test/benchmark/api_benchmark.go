package benchmark

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"
)

// APIBenchmark 并发压测已启动的接口服务
type APIBenchmark struct {
	BaseURL     string
	Concurrency int
	Requests    int
	AuthToken   string
	Client      *http.Client
}

// BenchmarkResult 定义基准测试结果
type BenchmarkResult struct {
	URL            string        `json:"url"`
	Method         string        `json:"method"`
	Concurrency    int           `json:"concurrency"`
	TotalRequests  int           `json:"total_requests"`
	SuccessCount   int           `json:"success_count"`
	FailureCount   int           `json:"failure_count"`
	TotalTime      time.Duration `json:"total_time"`
	AverageTime    time.Duration `json:"average_time"`
	MinTime        time.Duration `json:"min_time"`
	MaxTime        time.Duration `json:"max_time"`
	P95Time        time.Duration `json:"p95_time"`
	RequestsPerSec float64       `json:"requests_per_sec"`
	StatusCodes    map[int]int   `json:"status_codes"`
	Errors         []string      `json:"errors"`
}

// RequestResult 定义单个请求的结果
type RequestResult struct {
	Duration   time.Duration
	StatusCode int
	Error      error
}

// apiEnvelope 接口统一响应
type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewAPIBenchmark 创建新的API基准测试实例
func NewAPIBenchmark(baseURL string, concurrency, requests int, authToken string) *APIBenchmark {
	if concurrency < 1 {
		concurrency = 1
	}
	return &APIBenchmark{
		BaseURL:     baseURL,
		Concurrency: concurrency,
		Requests:    requests,
		AuthToken:   authToken,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login 登录并返回令牌
func (b *APIBenchmark) Login(username, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}
	resp, err := b.Client.Post(b.BaseURL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("解析登录响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("登录失败: %d %s", resp.StatusCode, env.Message)
	}

	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", err
	}
	return data.Token, nil
}

// GetJSON 单次 GET 并把 data 字段解到 out
func (b *APIBenchmark) GetJSON(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, b.BaseURL+path, nil)
	if err != nil {
		return err
	}
	b.authorize(req)
	resp, err := b.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %d %s", path, resp.StatusCode, env.Message)
	}
	return json.Unmarshal(env.Data, out)
}

// RunGET 执行GET请求的基准测试
func (b *APIBenchmark) RunGET(path string) *BenchmarkResult {
	return b.runTest(http.MethodGet, b.BaseURL+path, nil)
}

// RunPOST 执行POST请求的基准测试
func (b *APIBenchmark) RunPOST(path string, payload interface{}) *BenchmarkResult {
	return b.runJSON(http.MethodPost, path, payload)
}

// RunPUT 执行PUT请求的基准测试
func (b *APIBenchmark) RunPUT(path string, payload interface{}) *BenchmarkResult {
	return b.runJSON(http.MethodPut, path, payload)
}

func (b *APIBenchmark) runJSON(method, path string, payload interface{}) *BenchmarkResult {
	url := b.BaseURL + path
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return &BenchmarkResult{
			URL:    url,
			Method: method,
			Errors: []string{fmt.Sprintf("JSON编码错误: %v", err)},
		}
	}
	return b.runTest(method, url, jsonData)
}

func (b *APIBenchmark) authorize(req *http.Request) {
	if b.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+b.AuthToken)
	}
}

// do 发送一个请求并丢弃响应体
func (b *APIBenchmark) do(method, url string, payload []byte) RequestResult {
	start := time.Now()
	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		return RequestResult{Error: err}
	}
	req.Header.Set("Content-Type", "application/json")
	b.authorize(req)

	resp, err := b.Client.Do(req)
	if err != nil {
		return RequestResult{Error: err}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return RequestResult{Duration: time.Since(start), StatusCode: resp.StatusCode}
}

// runTest 固定数量的工作协程分摊全部请求
func (b *APIBenchmark) runTest(method, url string, payload []byte) *BenchmarkResult {
	jobs := make(chan struct{}, b.Requests)
	results := make(chan RequestResult, b.Requests)
	for i := 0; i < b.Requests; i++ {
		jobs <- struct{}{}
	}
	close(jobs)

	startTime := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < b.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				results <- b.do(method, url, payload)
			}
		}()
	}
	wg.Wait()
	close(results)
	totalElapsed := time.Since(startTime)

	result := &BenchmarkResult{
		URL:           url,
		Method:        method,
		Concurrency:   b.Concurrency,
		TotalRequests: b.Requests,
		TotalTime:     totalElapsed,
		StatusCodes:   make(map[int]int),
	}

	durations := make([]time.Duration, 0, b.Requests)
	var totalTime time.Duration
	for r := range results {
		if r.Error != nil {
			result.FailureCount++
			result.Errors = append(result.Errors, r.Error.Error())
			continue
		}
		durations = append(durations, r.Duration)
		totalTime += r.Duration
		result.StatusCodes[r.StatusCode]++
		if r.StatusCode >= 200 && r.StatusCode < 300 {
			result.SuccessCount++
		} else {
			result.FailureCount++
		}
	}

	if len(durations) > 0 {
		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
		result.MinTime = durations[0]
		result.MaxTime = durations[len(durations)-1]
		result.P95Time = durations[(len(durations)*95-1)/100]
		result.AverageTime = totalTime / time.Duration(len(durations))
	}
	if totalElapsed > 0 {
		result.RequestsPerSec = float64(b.Requests) / totalElapsed.Seconds()
	}
	return result
}

// SuccessRate 成功率（百分比）
func (r *BenchmarkResult) SuccessRate() float64 {
	if r.TotalRequests == 0 {
		return 0
	}
	return float64(r.SuccessCount) / float64(r.TotalRequests) * 100
}

// PrintResult 输出基准测试结果
func (r *BenchmarkResult) PrintResult(w io.Writer) {
	fmt.Fprintf(w, "基准测试结果: %s %s\n", r.Method, r.URL)
	fmt.Fprintf(w, "并发数: %d  总请求数: %d  成功: %d  失败: %d\n", r.Concurrency, r.TotalRequests, r.SuccessCount, r.FailureCount)
	fmt.Fprintf(w, "总耗时: %s  平均: %s  最小: %s  P95: %s  最大: %s\n", r.TotalTime, r.AverageTime, r.MinTime, r.P95Time, r.MaxTime)
	fmt.Fprintf(w, "每秒请求数: %.2f\n", r.RequestsPerSec)

	codes := make([]int, 0, len(r.StatusCodes))
	for code := range r.StatusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "  %d: %d\n", code, r.StatusCodes[code])
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "错误信息 (最多显示5个):\n")
		for i, err := range r.Errors {
			if i >= 5 {
				fmt.Fprintf(w, "  ... 还有 %d 个错误\n", len(r.Errors)-5)
				break
			}
			fmt.Fprintf(w, "  %s\n", err)
		}
	}
}
