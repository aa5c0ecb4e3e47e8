package clients

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/das-tools/dascheck/common"
	"github.com/das-tools/dascheck/util"
	"github.com/rs/zerolog"
)

// HttpJsonRpcClient posts JSON-RPC bodies to a host and decodes the reply
// into an untyped JSON value. A non-200 status is returned as a status error
// without reading the body; a 200 body that is not valid JSON is a decode
// error.
type HttpJsonRpcClient struct {
	logger     *zerolog.Logger
	httpClient *http.Client
}

func NewHttpJsonRpcClient(logger *zerolog.Logger) *HttpJsonRpcClient {
	client := &HttpJsonRpcClient{
		logger: logger,
	}

	if util.IsTest() {
		client.httpClient = &http.Client{}
	} else {
		client.httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        128,
				MaxIdleConnsPerHost: 32,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return client
}

func (c *HttpJsonRpcClient) SendRequest(ctx context.Context, url string, body []byte) (interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, common.NewErrResponseStatusCode(resp.StatusCode, url)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result interface{}
	if err := common.SonicCfg.Unmarshal(respBody, &result); err != nil {
		return nil, common.NewErrMalformedResponse(err, url)
	}

	return result, nil
}
