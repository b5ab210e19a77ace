// Package estat fetches Japan trade statistics from the e-Stat REST API.
package estat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"droneflow/internal/model"
)

const (
	defaultBaseURL         = "https://api.e-stat.go.jp/rest/3.0/app/json/"
	defaultMetaPath        = "getMetaInfo"
	defaultDataPath        = "getStatsData"
	defaultStatsIDExport   = "0003425293"
	defaultStatsIDImport   = "0003425294"
	defaultLang            = "J"
	defaultLimit           = 100000
	defaultTimeoutSeconds  = 60
	defaultUserAgent       = "droneflow/0.1"
	defaultRateLimitPerSec = 2
	defaultRateLimitBurst  = 2
)

// defaultHSCodes lists every nine-digit code under the 8806 family present
// in the customs tables.
var defaultHSCodes = []string{
	"880610000",
	"880621000",
	"880622000",
	"880623000",
	"880624000",
	"880629000",
	"880630000",
	"880640000",
	"880650000",
	"880660000",
	"880690000",
	"880691000",
	"880692000",
	"880693000",
	"880694000",
	"880699000",
}

var ErrNoRecords = errors.New("estat: no records found")

type Config struct {
	BaseURL         string
	MetaPath        string
	DataPath        string
	AppID           string
	StatsIDExport   string
	StatsIDImport   string
	Lang            string
	HSCodes         []string
	Limit           int
	Timeout         time.Duration
	UserAgent       string
	RateLimitPerSec int
	RateLimitBurst  int
}

// Meta holds the class metadata needed to decode data cells: area code
// names and the mapping from the month/variable class codes to their
// (month, variable) meaning.
type Meta struct {
	AreaNames map[string]string
	Cells     map[string]CellKind
}

// CellKind describes a month/variable class code such as "1月_数量1".
type CellKind struct {
	Month    int
	Variable model.Variable
}

type Client struct {
	config  Config
	client  *http.Client
	limiter *rateLimiter

	mu   sync.Mutex
	meta *Meta
}

func New() (*Client, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg)
}

func NewWithConfig(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/"
	if strings.TrimSpace(cfg.MetaPath) == "" {
		cfg.MetaPath = defaultMetaPath
	}
	if strings.TrimSpace(cfg.DataPath) == "" {
		cfg.DataPath = defaultDataPath
	}
	if strings.TrimSpace(cfg.AppID) == "" {
		return nil, errors.New("estat: app id is required (ESTAT_APP_ID)")
	}
	if strings.TrimSpace(cfg.StatsIDExport) == "" {
		cfg.StatsIDExport = defaultStatsIDExport
	}
	if strings.TrimSpace(cfg.StatsIDImport) == "" {
		cfg.StatsIDImport = defaultStatsIDImport
	}
	if strings.TrimSpace(cfg.Lang) == "" {
		cfg.Lang = defaultLang
	}
	if len(cfg.HSCodes) == 0 {
		cfg.HSCodes = defaultHSCodes
	}
	if cfg.Limit <= 0 {
		cfg.Limit = defaultLimit
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeoutSeconds * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.RateLimitPerSec <= 0 {
		cfg.RateLimitPerSec = defaultRateLimitPerSec
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = defaultRateLimitBurst
	}

	return &Client{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: newRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst),
	}, nil
}

func ConfigFromEnv() (Config, error) {
	cfg := Config{
		BaseURL:       getenv("ESTAT_BASE_URL", defaultBaseURL),
		MetaPath:      getenv("ESTAT_META_PATH", defaultMetaPath),
		DataPath:      getenv("ESTAT_DATA_PATH", defaultDataPath),
		AppID:         strings.TrimSpace(os.Getenv("ESTAT_APP_ID")),
		StatsIDExport: getenv("ESTAT_STATS_ID_EXPORT", defaultStatsIDExport),
		StatsIDImport: getenv("ESTAT_STATS_ID_IMPORT", defaultStatsIDImport),
		Lang:          getenv("ESTAT_LANG", defaultLang),
		UserAgent:     getenv("ESTAT_USER_AGENT", defaultUserAgent),
	}

	if codes := strings.TrimSpace(os.Getenv("ESTAT_HS_CODES")); codes != "" {
		cfg.HSCodes = splitList(codes)
	}
	cfg.Limit = getenvInt("ESTAT_LIMIT", defaultLimit)
	cfg.Timeout = time.Duration(getenvInt("ESTAT_TIMEOUT_SECONDS", defaultTimeoutSeconds)) * time.Second
	cfg.RateLimitPerSec = getenvInt("ESTAT_RATE_LIMIT_PER_SEC", defaultRateLimitPerSec)
	cfg.RateLimitBurst = getenvInt("ESTAT_RATE_LIMIT_BURST", defaultRateLimitBurst)

	return cfg, nil
}

func (c *Client) Name() string {
	return "estat"
}

// FetchMeta retrieves and caches the class metadata for the export table.
// The area and month/variable classes are identical across the flow tables.
func (c *Client) FetchMeta(ctx context.Context) (*Meta, error) {
	c.mu.Lock()
	if c.meta != nil {
		meta := c.meta
		c.mu.Unlock()
		return meta, nil
	}
	c.mu.Unlock()

	params := url.Values{}
	params.Set("statsDataId", c.config.StatsIDExport)
	params.Set("lang", c.config.Lang)

	body, err := c.doRequest(ctx, c.config.BaseURL+c.config.MetaPath, params)
	if err != nil {
		return nil, err
	}
	meta, err := parseMeta(body)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.meta = meta
	c.mu.Unlock()
	return meta, nil
}

// FetchYear returns the raw variable-level cells for one flow and calendar
// year. Cells whose month/variable class is not in the metadata (annual
// totals and the like) are not returned.
func (c *Client) FetchYear(ctx context.Context, flow model.Flow, year int) ([]model.RawRecord, error) {
	meta, err := c.FetchMeta(ctx)
	if err != nil {
		return nil, err
	}

	cellCodes := make([]string, 0, len(meta.Cells))
	for code := range meta.Cells {
		cellCodes = append(cellCodes, code)
	}

	params := url.Values{}
	params.Set("statsDataId", c.statsID(flow))
	params.Set("lang", c.config.Lang)
	params.Set("cdTime", fmt.Sprintf("%04d000000", year))
	params.Set("cdCat01", strings.Join(c.config.HSCodes, ","))
	params.Set("cdCat02", strings.Join(cellCodes, ","))
	params.Set("limit", strconv.Itoa(c.config.Limit))

	body, err := c.doRequest(ctx, c.config.BaseURL+c.config.DataPath, params)
	if err != nil {
		return nil, err
	}

	records, err := parseValues(body, meta)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

// FetchRange fetches every year in order and concatenates the results.
// A year with no records is skipped; the call fails only when all years
// are empty or a request errors.
func (c *Client) FetchRange(ctx context.Context, flow model.Flow, years []int) ([]model.RawRecord, error) {
	records := make([]model.RawRecord, 0)
	for _, year := range years {
		fetched, err := c.FetchYear(ctx, flow, year)
		if err != nil {
			if errors.Is(err, ErrNoRecords) {
				continue
			}
			return nil, err
		}
		records = append(records, fetched...)
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

func (c *Client) statsID(flow model.Flow) string {
	switch flow {
	case model.FlowImport:
		return c.config.StatsIDImport
	default:
		return c.config.StatsIDExport
	}
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	query := url.Values{}
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	query.Set("appId", c.config.AppID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("estat: request failed (%s): %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func parseMeta(body []byte) (*Meta, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	root, ok := payload.(map[string]any)
	if !ok {
		return nil, errors.New("estat: unexpected metadata response type")
	}
	inner, err := dig(root, "GET_META_INFO")
	if err != nil {
		return nil, err
	}
	if err := checkResultStatus(inner); err != nil {
		return nil, err
	}
	classInf, err := dig(inner, "METADATA_INF", "CLASS_INF")
	if err != nil {
		return nil, err
	}
	classObjs := asList(classInf["CLASS_OBJ"])
	if len(classObjs) == 0 {
		return nil, errors.New("estat: metadata has no class objects")
	}

	meta := &Meta{
		AreaNames: make(map[string]string),
		Cells:     make(map[string]CellKind),
	}
	var haveArea, haveCells bool
	for _, raw := range classObjs {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, _ := getString(obj, "@id")
		switch id {
		case "area":
			for code, name := range classEntries(obj) {
				meta.AreaNames[code] = name
			}
			haveArea = len(meta.AreaNames) > 0
		case "cat02":
			for code, name := range classEntries(obj) {
				if kind, ok := parseCellKind(name); ok {
					meta.Cells[code] = kind
				}
			}
			haveCells = len(meta.Cells) > 0
		}
	}

	if !haveArea {
		return nil, errors.New("estat: metadata class \"area\" not found")
	}
	if !haveCells {
		return nil, errors.New("estat: metadata class \"cat02\" has no monthly cells")
	}
	return meta, nil
}

// classEntries flattens a CLASS_OBJ's CLASS member, which is an object for
// a single entry and an array otherwise, into code→name pairs.
func classEntries(obj map[string]any) map[string]string {
	entries := make(map[string]string)
	for _, raw := range asList(obj["CLASS"]) {
		class, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		code, _ := getString(class, "@code")
		name, _ := getString(class, "@name")
		if code == "" || name == "" {
			continue
		}
		entries[code] = name
	}
	return entries
}

// parseCellKind decodes month/variable class names such as "1月_数量1"
// (units), "1月_数量2" (kilograms) and "1月_金額" (thousand yen). Names
// of any other shape, e.g. annual totals, are not monthly cells.
func parseCellKind(name string) (CellKind, bool) {
	monthPart, kindPart, ok := strings.Cut(name, "_")
	if !ok || !strings.Contains(monthPart, "月") {
		return CellKind{}, false
	}
	month, err := strconv.Atoi(strings.TrimSuffix(monthPart, "月"))
	if err != nil || month < 1 || month > 12 {
		return CellKind{}, false
	}

	var variable model.Variable
	switch kindPart {
	case "数量1":
		variable = model.VarUnits
	case "数量2":
		variable = model.VarKilograms
	case "金額":
		variable = model.VarThousandYen
	default:
		return CellKind{}, false
	}
	return CellKind{Month: month, Variable: variable}, true
}

func parseValues(body []byte, meta *Meta) ([]model.RawRecord, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	root, ok := payload.(map[string]any)
	if !ok {
		return nil, errors.New("estat: unexpected data response type")
	}
	inner, err := dig(root, "GET_STATS_DATA")
	if err != nil {
		return nil, err
	}
	if err := checkResultStatus(inner); err != nil {
		return nil, err
	}
	dataInf, err := dig(inner, "STATISTICAL_DATA", "DATA_INF")
	if err != nil {
		return nil, err
	}

	records := make([]model.RawRecord, 0)
	for _, raw := range asList(dataInf["VALUE"]) {
		cell, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		cat02, _ := getString(cell, "@cat02")
		kind, ok := meta.Cells[cat02]
		if !ok {
			continue
		}
		timeCode, _ := getString(cell, "@time")
		if len(timeCode) < 4 {
			continue
		}
		year, err := strconv.Atoi(timeCode[:4])
		if err != nil {
			continue
		}
		hs, _ := getString(cell, "@cat01")
		areaCode, _ := getString(cell, "@area")
		value, _ := getString(cell, "$")
		if value == "" {
			value, _ = getString(cell, "#text")
		}

		records = append(records, model.RawRecord{
			Year:     year,
			Month:    kind.Month,
			HSCode:   hs,
			AreaCode: areaCode,
			AreaName: meta.AreaNames[areaCode],
			Variable: kind.Variable,
			Value:    value,
		})
	}
	return records, nil
}

// checkResultStatus validates the RESULT envelope every e-Stat response
// carries; a non-zero status is an API-level failure even on HTTP 200.
func checkResultStatus(payload map[string]any) error {
	result, err := dig(payload, "RESULT")
	if err != nil {
		return errors.New("estat: response missing RESULT envelope")
	}
	status, ok := getString(result, "STATUS")
	if !ok {
		return errors.New("estat: response missing RESULT.STATUS")
	}
	if status != "0" {
		message, _ := getString(result, "ERROR_MSG")
		return fmt.Errorf("estat: api error status=%s: %s", status, message)
	}
	return nil
}

func dig(payload map[string]any, keys ...string) (map[string]any, error) {
	current := payload
	for _, key := range keys {
		next, ok := current[key].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("estat: response missing %q", key)
		}
		current = next
	}
	return current, nil
}

func asList(value any) []any {
	switch typed := value.(type) {
	case []any:
		return typed
	case map[string]any:
		return []any{typed}
	default:
		return nil
	}
}

func getString(row map[string]any, key string) (string, bool) {
	value, ok := row[key]
	if !ok {
		return "", false
	}
	switch typed := value.(type) {
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return "", false
		}
		return trimmed, true
	case json.Number:
		return typed.String(), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case int:
		return strconv.Itoa(typed), true
	default:
		return "", false
	}
}

type rateLimiter struct {
	tokens chan struct{}
}

func newRateLimiter(ratePerSec, burst int) *rateLimiter {
	if ratePerSec <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}

	limiter := &rateLimiter{
		tokens: make(chan struct{}, burst),
	}
	for i := 0; i < burst; i++ {
		limiter.tokens <- struct{}{}
	}

	interval := time.Second / time.Duration(ratePerSec)
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			select {
			case limiter.tokens <- struct{}{}:
			default:
			}
		}
	}()

	return limiter
}

func (l *rateLimiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.tokens:
		return nil
	}
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
