package common

import (
	"github.com/rs/zerolog"
)

// Method names of the DAS API surface under test. Each one is also the key
// of its block in the keys file and of its row in the final report.
const (
	MethodGetAsset                    = "getAsset"
	MethodGetAssetProof               = "getAssetProof"
	MethodGetAssetsByOwner            = "getAssetsByOwner"
	MethodGetAssetsByAuthority        = "getAssetsByAuthority"
	MethodGetAssetsByGroup            = "getAssetsByGroup"
	MethodGetAssetsByCreator          = "getAssetsByCreator"
	MethodGetTokenAccountsByOwner     = "getTokenAccountsByOwner"
	MethodGetTokenAccountsByMint      = "getTokenAccountsByMint"
	MethodGetTokenAccountsByOwnerMint = "getTokenAccountsByOwnerAndMint"
	MethodGetSignaturesForAsset       = "getSignaturesForAsset"
)

// Body is a single JSON-RPC request body. It is never mutated after
// construction; every retry reuses the same serialized bytes.
type Body struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

func NewBody(method string, params interface{}) *Body {
	return &Body{
		JSONRPC: "2.0",
		ID:      0,
		Method:  method,
		Params:  params,
	}
}

func (b *Body) Marshal() ([]byte, error) {
	return SonicCfg.Marshal(b)
}

func (b *Body) MarshalZerologObject(e *zerolog.Event) {
	e.Str("method", b.Method).Interface("params", b.Params).Interface("id", b.ID)
}
