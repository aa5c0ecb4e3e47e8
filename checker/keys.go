package checker

// OwnerMintPair identifies one token account by its owner and mint.
type OwnerMintPair struct {
	Owner string
	Mint  string
}

// KeysFetcher supplies the identifiers to verify, one accessor per method
// category. The production implementation reads the keys file; tests
// substitute fixed lists.
type KeysFetcher interface {
	AssetKeys() ([]string, error)
	AssetProofKeys() ([]string, error)
	OwnerKeys() ([]string, error)
	AuthorityKeys() ([]string, error)
	CreatorKeys() ([]string, error)
	GroupKeys() ([]string, error)
	TokenOwnerKeys() ([]string, error)
	TokenMintKeys() ([]string, error)
	TokenOwnerMintKeys() ([]OwnerMintPair, error)
	SignatureAssetKeys() ([]string, error)
}
