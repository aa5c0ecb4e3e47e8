package checker

import (
	"context"

	"github.com/das-tools/dascheck/common"
	"github.com/das-tools/dascheck/compression"
	"github.com/mr-tron/base58"
	"golang.org/x/sync/errgroup"
)

// checkProofValid validates a getAssetProof response cryptographically: the
// proof it carries, completed from the on-chain canopy, must hash the
// claimed leaf up to the tree's current root. The leaf's index comes from a
// fresh reference-host asset lookup; the tree account is read at the
// "processed" commitment level so validation reflects the current slot.
func (c *DiffChecker) checkProofValid(ctx context.Context, assetID string, response interface{}) (bool, error) {
	treeID, err := common.JsonString(response, "result", "tree_id")
	if err != nil {
		return false, err
	}
	leafStr, err := common.JsonString(response, "result", "leaf")
	if err != nil {
		return false, err
	}
	leaf, err := decodeNode(leafStr)
	if err != nil {
		return false, err
	}

	assetBody, err := common.NewBody(common.MethodGetAsset, common.GetAssetParams{ID: assetID}).Marshal()
	if err != nil {
		return false, err
	}

	var (
		assetResponse interface{}
		accountData   []byte
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		assetResponse, err = c.api.SendRequest(gctx, c.referenceHost, assetBody)
		return err
	})
	g.Go(func() error {
		var err error
		accountData, err = c.chain.AccountData(gctx, treeID)
		return err
	})
	if err := g.Wait(); err != nil {
		return false, err
	}

	leafID, err := common.JsonUint64(assetResponse, "result", "compression", "leaf_id")
	if err != nil {
		return false, err
	}
	leafIndex := uint32(leafID)

	header, treeBytes, canopyBytes, err := compression.SplitAccount(accountData)
	if err != nil {
		return false, err
	}

	proofValues, err := common.JsonArray(response, "result", "proof")
	if err != nil {
		return false, err
	}
	proof := make([]compression.Node, 0, len(proofValues))
	for _, v := range proofValues {
		s, ok := v.(string)
		if !ok {
			continue
		}
		node, err := decodeNode(s)
		if err != nil {
			continue
		}
		proof = append(proof, node)
	}

	proof, err = compression.FillProofFromCanopy(canopyBytes, header.MaxDepth, leafIndex, proof)
	if err != nil {
		return false, err
	}

	tree, err := compression.ParseTree(header, treeBytes)
	if err != nil {
		return false, err
	}

	return tree.CheckValidProof(leaf, proof, leafIndex)
}

func decodeNode(value string) (compression.Node, error) {
	var node compression.Node
	raw, err := base58.Decode(value)
	if err != nil {
		return node, common.NewErrInvalidPubkey(value, err)
	}
	if len(raw) != compression.NodeSize {
		return node, common.NewErrInvalidPubkey(value, nil)
	}
	copy(node[:], raw)
	return node, nil
}
