package checker

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/das-tools/dascheck/clients"
	"github.com/das-tools/dascheck/common"
	"github.com/das-tools/dascheck/compression"
	"github.com/h2non/gock"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	referenceHost = "http://reference.localhost"
	testingHost   = "http://testing.localhost"
)

type fakeKeysFetcher struct {
	keys  map[string][]string
	pairs []OwnerMintPair
	err   error
}

func (f *fakeKeysFetcher) readKeys(method string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.keys[method], nil
}

func (f *fakeKeysFetcher) AssetKeys() ([]string, error) {
	return f.readKeys(common.MethodGetAsset)
}

func (f *fakeKeysFetcher) AssetProofKeys() ([]string, error) {
	return f.readKeys(common.MethodGetAssetProof)
}

func (f *fakeKeysFetcher) OwnerKeys() ([]string, error) {
	return f.readKeys(common.MethodGetAssetsByOwner)
}

func (f *fakeKeysFetcher) AuthorityKeys() ([]string, error) {
	return f.readKeys(common.MethodGetAssetsByAuthority)
}

func (f *fakeKeysFetcher) CreatorKeys() ([]string, error) {
	return f.readKeys(common.MethodGetAssetsByCreator)
}

func (f *fakeKeysFetcher) GroupKeys() ([]string, error) {
	return f.readKeys(common.MethodGetAssetsByGroup)
}

func (f *fakeKeysFetcher) TokenOwnerKeys() ([]string, error) {
	return f.readKeys(common.MethodGetTokenAccountsByOwner)
}

func (f *fakeKeysFetcher) TokenMintKeys() ([]string, error) {
	return f.readKeys(common.MethodGetTokenAccountsByMint)
}

func (f *fakeKeysFetcher) TokenOwnerMintKeys() ([]OwnerMintPair, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pairs, nil
}

func (f *fakeKeysFetcher) SignatureAssetKeys() ([]string, error) {
	return f.readKeys(common.MethodGetSignaturesForAsset)
}

type fakeChainReader struct {
	data []byte
	err  error
}

func (f *fakeChainReader) AccountData(ctx context.Context, pubkey string) ([]byte, error) {
	return f.data, f.err
}

func newTestConfig() *common.Config {
	return &common.Config{
		ReferenceHost:   referenceHost,
		TestingHost:     testingHost,
		TestRetries:     2,
		RequestInterval: "1ms",
	}
}

func newTestChecker(t *testing.T, cfg *common.Config, chain *fakeChainReader, keysFetcher KeysFetcher) *DiffChecker {
	t.Helper()
	logger := zerolog.Nop()
	api := clients.NewHttpJsonRpcClient(&logger)
	if chain == nil {
		chain = &fakeChainReader{}
	}
	checker, err := New(&logger, cfg, api, chain, keysFetcher)
	require.NoError(t, err)
	return checker
}

func TestCheckGetAssetMatchingResponses(t *testing.T) {
	defer gock.Off()

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"result":  map[string]interface{}{"id": "asset1", "burnt": false},
		"id":      0,
	}
	gock.New(referenceHost).Post("").Times(1).Reply(200).JSON(response)
	gock.New(testingHost).Post("").Times(1).Reply(200).JSON(response)

	keysFetcher := &fakeKeysFetcher{keys: map[string][]string{
		common.MethodGetAsset: {"asset1"},
	}}
	checker := newTestChecker(t, newTestConfig(), nil, keysFetcher)

	require.NoError(t, checker.CheckGetAsset(context.Background()))

	snapshot := checker.Results().Snapshot()
	assert.Equal(t, TestingResult{TotalTests: 1, FailedTests: 0}, snapshot[common.MethodGetAsset])
	assert.True(t, gock.IsDone())
}

func TestCheckRetriesOnPersistentDifference(t *testing.T) {
	defer gock.Off()

	cfg := newTestConfig()
	cfg.TestRetries = 3

	gock.New(referenceHost).Post("").Times(3).Reply(200).
		JSON(map[string]interface{}{"result": map[string]interface{}{"burnt": false}})
	gock.New(testingHost).Post("").Times(3).Reply(200).
		JSON(map[string]interface{}{"result": map[string]interface{}{"burnt": true}})

	keysFetcher := &fakeKeysFetcher{keys: map[string][]string{
		common.MethodGetAsset: {"asset1"},
	}}
	checker := newTestChecker(t, cfg, nil, keysFetcher)

	require.NoError(t, checker.CheckGetAsset(context.Background()))

	snapshot := checker.Results().Snapshot()
	assert.Equal(t, TestingResult{TotalTests: 1, FailedTests: 1}, snapshot[common.MethodGetAsset])
	// Every mocked attempt was consumed, so the run retried exactly
	// testRetries times before giving up.
	assert.True(t, gock.IsDone())
}

func TestCheckRecoversAfterTransientDifference(t *testing.T) {
	defer gock.Off()

	cfg := newTestConfig()
	cfg.TestRetries = 3

	agreed := map[string]interface{}{"result": map[string]interface{}{"burnt": false}}
	gock.New(referenceHost).Post("").Times(2).Reply(200).JSON(agreed)
	gock.New(testingHost).Post("").Times(1).Reply(200).
		JSON(map[string]interface{}{"result": map[string]interface{}{"burnt": true}})
	gock.New(testingHost).Post("").Times(1).Reply(200).JSON(agreed)

	keysFetcher := &fakeKeysFetcher{keys: map[string][]string{
		common.MethodGetAsset: {"asset1"},
	}}
	checker := newTestChecker(t, cfg, nil, keysFetcher)

	require.NoError(t, checker.CheckGetAsset(context.Background()))

	snapshot := checker.Results().Snapshot()
	assert.Equal(t, TestingResult{TotalTests: 1, FailedTests: 0}, snapshot[common.MethodGetAsset])
	assert.True(t, gock.IsDone())
}

func TestCheckSkipsOnTransportFailure(t *testing.T) {
	defer gock.Off()

	gock.New(referenceHost).Post("").Times(1).Reply(200).
		JSON(map[string]interface{}{"result": map[string]interface{}{"burnt": false}})
	gock.New(testingHost).Post("").Times(1).Reply(503)

	keysFetcher := &fakeKeysFetcher{keys: map[string][]string{
		common.MethodGetAsset: {"asset1"},
	}}
	checker := newTestChecker(t, newTestConfig(), nil, keysFetcher)

	require.NoError(t, checker.CheckGetAsset(context.Background()))

	// The attempt is counted but neither failed nor retried.
	snapshot := checker.Results().Snapshot()
	assert.Equal(t, TestingResult{TotalTests: 1, FailedTests: 0}, snapshot[common.MethodGetAsset])
	assert.True(t, gock.IsDone())
}

func TestCheckFiltersSuppressKnownDifference(t *testing.T) {
	defer gock.Off()

	gock.New(referenceHost).Post("").Times(1).Reply(200).
		JSON(map[string]interface{}{"result": map[string]interface{}{
			"burnt":    false,
			"metadata": map[string]interface{}{"token_standard": "NonFungible"},
		}})
	gock.New(testingHost).Post("").Times(1).Reply(200).
		JSON(map[string]interface{}{"result": map[string]interface{}{
			"burnt":    false,
			"metadata": map[string]interface{}{},
		}})

	cfg := newTestConfig()
	cfg.DifferenceFilters = []string{
		`json atom at path "\..*?\.token_standard" is missing from rhs`,
	}

	keysFetcher := &fakeKeysFetcher{keys: map[string][]string{
		common.MethodGetAsset: {"asset1"},
	}}
	checker := newTestChecker(t, cfg, nil, keysFetcher)

	require.NoError(t, checker.CheckGetAsset(context.Background()))

	snapshot := checker.Results().Snapshot()
	assert.Equal(t, TestingResult{TotalTests: 1, FailedTests: 0}, snapshot[common.MethodGetAsset])
	assert.True(t, gock.IsDone())
}

func TestCheckCancelledContextSendsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	keysFetcher := &fakeKeysFetcher{keys: map[string][]string{
		common.MethodGetAsset: {"asset1", "asset2"},
	}}
	checker := newTestChecker(t, newTestConfig(), nil, keysFetcher)

	require.NoError(t, checker.CheckGetAsset(ctx))
	assert.Empty(t, checker.Results().Snapshot())
}

func TestCheckKeysFetcherError(t *testing.T) {
	keysFetcher := &fakeKeysFetcher{err: errors.New("file gone")}
	checker := newTestChecker(t, newTestConfig(), nil, keysFetcher)

	err := checker.CheckGetAsset(context.Background())
	assert.True(t, common.HasErrorCode(err, common.ErrCodeFetchKeys))
}

func TestInvalidFilterExpressionRejected(t *testing.T) {
	cfg := newTestConfig()
	cfg.DifferenceFilters = []string{"(unclosed"}

	logger := zerolog.Nop()
	_, err := New(&logger, cfg, clients.NewHttpJsonRpcClient(&logger), &fakeChainReader{}, &fakeKeysFetcher{})
	assert.True(t, common.HasErrorCode(err, common.ErrCodeInvalidFilterExpression))
}

//
// Proof validation path
//

// proofFixture is a four-leaf tree account with no canopy, the proof for
// leaf 2 and the account bytes serialized the way the chain returns them.
type proofFixture struct {
	account []byte
	leaf    compression.Node
	proof   []compression.Node
}

func buildProofFixture() *proofFixture {
	nodeValue := func(b byte) compression.Node {
		var n compression.Node
		n[0] = b
		return n
	}

	leaves := []compression.Node{nodeValue(1), nodeValue(2), nodeValue(3), nodeValue(4)}
	h01 := compression.RecomputeRoot(leaves[0], []compression.Node{leaves[1]}, 0)
	h23 := compression.RecomputeRoot(leaves[2], []compression.Node{leaves[3]}, 0)
	root := compression.RecomputeRoot(h01, []compression.Node{h23}, 0)

	const maxDepth = 2
	changeLogSize := compression.NodeSize + compression.NodeSize*maxDepth + 8
	pathSize := compression.NodeSize*maxDepth + compression.NodeSize + 8

	account := make([]byte, compression.HeaderSize+24+changeLogSize+pathSize)
	account[0] = 1 // concurrent merkle tree account
	account[1] = 1
	binary.LittleEndian.PutUint32(account[2:6], 1) // maxBufferSize
	binary.LittleEndian.PutUint32(account[6:10], maxDepth)

	body := account[compression.HeaderSize:]
	binary.LittleEndian.PutUint64(body[0:8], 1)  // sequence number
	binary.LittleEndian.PutUint64(body[8:16], 0) // active index
	binary.LittleEndian.PutUint64(body[16:24], 1)

	// One changelog entry recording the current root along leaf 0's path.
	copy(body[24:], root[:])
	copy(body[24+compression.NodeSize:], leaves[0][:])
	copy(body[24+2*compression.NodeSize:], h01[:])

	return &proofFixture{
		account: account,
		leaf:    leaves[2],
		proof:   []compression.Node{leaves[3], h01},
	}
}

func (p *proofFixture) proofResponse() map[string]interface{} {
	proof := make([]interface{}, len(p.proof))
	for i, node := range p.proof {
		proof[i] = base58.Encode(node[:])
	}
	return map[string]interface{}{
		"jsonrpc": "2.0",
		"result": map[string]interface{}{
			"tree_id": base58.Encode(make([]byte, 32)),
			"leaf":    base58.Encode(p.leaf[:]),
			"proof":   proof,
			"root":    "ignored-by-validation",
		},
		"id": 0,
	}
}

func assetResponseWithLeafID(leafID int) map[string]interface{} {
	return map[string]interface{}{
		"jsonrpc": "2.0",
		"result": map[string]interface{}{
			"compression": map[string]interface{}{"leaf_id": leafID},
		},
		"id": 0,
	}
}

func TestCheckGetAssetProofValid(t *testing.T) {
	defer gock.Off()

	fixture := buildProofFixture()
	response := fixture.proofResponse()

	gock.New(referenceHost).Post("").BodyString(`"method":"getAssetProof"`).
		Times(1).Reply(200).JSON(response)
	gock.New(testingHost).Post("").BodyString(`"method":"getAssetProof"`).
		Times(1).Reply(200).JSON(response)
	gock.New(referenceHost).Post("").BodyString(`"method":"getAsset"`).
		Times(1).Reply(200).JSON(assetResponseWithLeafID(2))

	keysFetcher := &fakeKeysFetcher{keys: map[string][]string{
		common.MethodGetAssetProof: {"asset1"},
	}}
	chain := &fakeChainReader{data: fixture.account}
	checker := newTestChecker(t, newTestConfig(), chain, keysFetcher)

	require.NoError(t, checker.CheckGetAssetProof(context.Background()))

	snapshot := checker.Results().Snapshot()
	assert.Equal(t, TestingResult{TotalTests: 1, FailedTests: 0}, snapshot[common.MethodGetAssetProof])
	assert.True(t, gock.IsDone())
}

func TestCheckGetAssetProofInvalidLeafFails(t *testing.T) {
	defer gock.Off()

	fixture := buildProofFixture()
	response := fixture.proofResponse()
	// The hosts agree on a leaf value that does not hash up to the root.
	response["result"].(map[string]interface{})["leaf"] = base58.Encode(make([]byte, 32))

	gock.New(referenceHost).Post("").BodyString(`"method":"getAssetProof"`).
		Times(1).Reply(200).JSON(response)
	gock.New(testingHost).Post("").BodyString(`"method":"getAssetProof"`).
		Times(1).Reply(200).JSON(response)
	gock.New(referenceHost).Post("").BodyString(`"method":"getAsset"`).
		Times(1).Reply(200).JSON(assetResponseWithLeafID(2))

	keysFetcher := &fakeKeysFetcher{keys: map[string][]string{
		common.MethodGetAssetProof: {"asset1"},
	}}
	chain := &fakeChainReader{data: fixture.account}
	checker := newTestChecker(t, newTestConfig(), chain, keysFetcher)

	require.NoError(t, checker.CheckGetAssetProof(context.Background()))

	snapshot := checker.Results().Snapshot()
	assert.Equal(t, TestingResult{TotalTests: 1, FailedTests: 1}, snapshot[common.MethodGetAssetProof])
	assert.True(t, gock.IsDone())
}

func TestCheckGetAssetProofSkippedOnTransportFailure(t *testing.T) {
	defer gock.Off()

	fixture := buildProofFixture()

	gock.New(referenceHost).Post("").Times(1).Reply(200).JSON(fixture.proofResponse())
	gock.New(testingHost).Post("").Times(1).Reply(503)

	keysFetcher := &fakeKeysFetcher{keys: map[string][]string{
		common.MethodGetAssetProof: {"asset1"},
	}}
	chain := &fakeChainReader{data: fixture.account}
	checker := newTestChecker(t, newTestConfig(), chain, keysFetcher)

	require.NoError(t, checker.CheckGetAssetProof(context.Background()))

	// No testing response was obtained, so there is nothing to validate:
	// the attempt is counted but not failed.
	snapshot := checker.Results().Snapshot()
	assert.Equal(t, TestingResult{TotalTests: 1, FailedTests: 0}, snapshot[common.MethodGetAssetProof])
	assert.True(t, gock.IsDone())
}

func TestCheckGetAssetProofChainErrorFails(t *testing.T) {
	defer gock.Off()

	fixture := buildProofFixture()
	response := fixture.proofResponse()

	gock.New(referenceHost).Post("").BodyString(`"method":"getAssetProof"`).
		Times(1).Reply(200).JSON(response)
	gock.New(testingHost).Post("").BodyString(`"method":"getAssetProof"`).
		Times(1).Reply(200).JSON(response)
	gock.New(referenceHost).Post("").BodyString(`"method":"getAsset"`).
		Times(1).Reply(200).JSON(assetResponseWithLeafID(2))

	keysFetcher := &fakeKeysFetcher{keys: map[string][]string{
		common.MethodGetAssetProof: {"asset1"},
	}}
	chain := &fakeChainReader{err: common.NewErrAccountNotFound("tree")}
	checker := newTestChecker(t, newTestConfig(), chain, keysFetcher)

	require.NoError(t, checker.CheckGetAssetProof(context.Background()))

	// An unverifiable proof counts as a failure.
	snapshot := checker.Results().Snapshot()
	assert.Equal(t, TestingResult{TotalTests: 1, FailedTests: 1}, snapshot[common.MethodGetAssetProof])
}
