package clients

import (
	"context"
	"encoding/base64"

	"github.com/das-tools/dascheck/common"
	"github.com/rs/zerolog"
)

// ChainReader reads raw account bytes from the chain RPC endpoint.
type ChainReader interface {
	AccountData(ctx context.Context, pubkey string) ([]byte, error)
}

type accountInfoParams struct {
	Encoding   string `json:"encoding"`
	Commitment string `json:"commitment"`
}

// RpcChainReader fetches accounts over the standard getAccountInfo call at
// the "processed" commitment level, so proof validation always sees the
// freshest tree state the node can serve.
type RpcChainReader struct {
	logger   *zerolog.Logger
	endpoint string
	client   *HttpJsonRpcClient
}

func NewRpcChainReader(logger *zerolog.Logger, endpoint string, client *HttpJsonRpcClient) *RpcChainReader {
	return &RpcChainReader{
		logger:   logger,
		endpoint: endpoint,
		client:   client,
	}
}

func (r *RpcChainReader) AccountData(ctx context.Context, pubkey string) ([]byte, error) {
	body, err := common.NewBody("getAccountInfo", []interface{}{
		pubkey,
		accountInfoParams{Encoding: "base64", Commitment: "processed"},
	}).Marshal()
	if err != nil {
		return nil, err
	}

	resp, err := r.client.SendRequest(ctx, r.endpoint, body)
	if err != nil {
		return nil, err
	}

	value := common.JsonField(resp, "result", "value")
	if value == nil {
		return nil, common.NewErrAccountNotFound(pubkey)
	}

	// Account data arrives as ["<base64>", "base64"].
	data, ok := common.JsonField(value, "data").([]interface{})
	if !ok || len(data) == 0 {
		return nil, common.NewErrMissingResponseField("value.data")
	}
	encoded, ok := data[0].(string)
	if !ok {
		return nil, common.NewErrMissingResponseField("value.data[0]")
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, common.NewErrMalformedResponse(err, r.endpoint)
	}

	return raw, nil
}
