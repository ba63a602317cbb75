package partner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sunyuchen88/guomaojiance/pkg/config"
	"github.com/sunyuchen88/guomaojiance/pkg/errors"
	"github.com/sunyuchen88/guomaojiance/pkg/logger"
)

// Client talks to the partner system over its signed form-POST protocol.
type Client struct {
	cfg  config.PartnerConfig
	http *http.Client
	logg *logger.Logger

	now   func() time.Time
	nonce func() string
}

func NewClient(cfg config.PartnerConfig, logg *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: timeout},
		logg:  logg,
		now:   time.Now,
		nonce: Nonce,
	}
}

// FetchPending pulls inspection records created inside the given window.
// Timestamps use the partner's "2006-01-02 15:04:05" layout.
func (c *Client) FetchPending(ctx context.Context, windowStart, windowEnd string, limit int) (*PendingList, error) {
	biz := map[string]any{
		"start_time": windowStart,
		"end_time":   windowEnd,
		"limit":      limit,
	}

	resp, err := c.post(ctx, c.cfg.FetchPath, biz)
	if err != nil {
		return nil, err
	}
	if resp.Status != statusOK {
		return nil, errors.New(errors.CodePartner, resp.Message)
	}

	list, total, err := decodePendingData(resp.Data)
	if err != nil {
		return nil, errors.Wrap(errors.CodeMalformed, err, "decoding fetch payload")
	}

	if c.logg != nil {
		c.logg.Info(c.logg.WithFields(ctx, map[string]any{
			"fetched": len(list),
			"total":   total,
		}), "fetched pending records from partner")
	}

	return &PendingList{List: list, Total: total}, nil
}

// SubmitResults delivers finished inspection results. A non-OK partner
// status is a terminal rejection carrying the partner's own message.
func (c *Client) SubmitResults(ctx context.Context, batch SubmitBatch) (*Ack, error) {
	if batch.CheckNum == 0 {
		batch.CheckNum = len(batch.Goods)
	}

	resp, err := c.post(ctx, c.cfg.SubmitPath, batch)
	if err != nil {
		return nil, err
	}
	if resp.Status != statusOK {
		return nil, errors.New(errors.CodePartner, resp.Message)
	}

	return &Ack{Message: resp.Message}, nil
}

type rawResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) post(ctx context.Context, path string, biz any) (*rawResponse, error) {
	bizJSON, err := json.Marshal(biz)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "encoding biz payload")
	}

	timestamp := c.now().Unix()
	nonce := c.nonce()

	form := url.Values{}
	form.Set("app_id", c.cfg.AppID)
	form.Set("time", strconv.FormatInt(timestamp, 10))
	form.Set("random_str", nonce)
	form.Set("biz", string(bizJSON))
	form.Set("sign", Sign(c.cfg.AppID, timestamp, nonce, c.cfg.Secret))

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "building partner request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.CodeTransport, err, "partner request failed")
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.CodeTransport, err, "reading partner response")
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, errors.New(errors.CodeTransport,
			fmt.Sprintf("partner returned http %d", httpResp.StatusCode))
	}

	var resp rawResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(errors.CodeMalformed, err, "decoding partner response")
	}
	return &resp, nil
}

// decodePendingData accepts both documented shapes of the fetch data
// field: an object with list/count, or a bare array.
func decodePendingData(data json.RawMessage) ([]CheckObject, int, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, 0, nil
	}

	var wrapped struct {
		List  []CheckObject `json:"list"`
		Count *int          `json:"count"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		total := len(wrapped.List)
		if wrapped.Count != nil {
			total = *wrapped.Count
		}
		return wrapped.List, total, nil
	}

	var bare []CheckObject
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, 0, err
	}
	return bare, len(bare), nil
}
