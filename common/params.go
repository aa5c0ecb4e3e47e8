package common

type AssetSortBy string

const (
	AssetSortByCreated      AssetSortBy = "created"
	AssetSortByUpdated      AssetSortBy = "updated"
	AssetSortByRecentAction AssetSortBy = "recent_action"
	AssetSortByNone         AssetSortBy = "none"
)

type AssetSortDirection string

const (
	AssetSortAsc  AssetSortDirection = "asc"
	AssetSortDesc AssetSortDirection = "desc"
)

type AssetSorting struct {
	SortBy        AssetSortBy         `json:"sortBy"`
	SortDirection *AssetSortDirection `json:"sortDirection,omitempty"`
}

type GetAssetParams struct {
	ID string `json:"id"`
}

type GetAssetProofParams struct {
	ID string `json:"id"`
}

type GetAssetsByOwnerParams struct {
	OwnerAddress string        `json:"ownerAddress"`
	SortBy       *AssetSorting `json:"sortBy,omitempty"`
	Limit        *uint32       `json:"limit,omitempty"`
	Page         *uint32       `json:"page,omitempty"`
	Before       *string       `json:"before,omitempty"`
	After        *string       `json:"after,omitempty"`
}

type GetAssetsByAuthorityParams struct {
	AuthorityAddress string        `json:"authorityAddress"`
	SortBy           *AssetSorting `json:"sortBy,omitempty"`
	Limit            *uint32       `json:"limit,omitempty"`
	Page             *uint32       `json:"page,omitempty"`
	Before           *string       `json:"before,omitempty"`
	After            *string       `json:"after,omitempty"`
}

type GetAssetsByCreatorParams struct {
	CreatorAddress string        `json:"creatorAddress"`
	OnlyVerified   *bool         `json:"onlyVerified,omitempty"`
	SortBy         *AssetSorting `json:"sortBy,omitempty"`
	Limit          *uint32       `json:"limit,omitempty"`
	Page           *uint32       `json:"page,omitempty"`
	Before         *string       `json:"before,omitempty"`
	After          *string       `json:"after,omitempty"`
}

type GetAssetsByGroupParams struct {
	GroupKey   string        `json:"groupKey"`
	GroupValue string        `json:"groupValue"`
	SortBy     *AssetSorting `json:"sortBy,omitempty"`
	Limit      *uint32       `json:"limit,omitempty"`
	Page       *uint32       `json:"page,omitempty"`
	Before     *string       `json:"before,omitempty"`
	After      *string       `json:"after,omitempty"`
}

type GetTokenAccountsParams struct {
	Owner *string `json:"owner,omitempty"`
	Mint  *string `json:"mint,omitempty"`
	Limit *uint32 `json:"limit,omitempty"`
	Page  *uint32 `json:"page,omitempty"`
}

type GetSignaturesForAssetParams struct {
	ID     string  `json:"id"`
	Limit  *uint32 `json:"limit,omitempty"`
	Page   *uint32 `json:"page,omitempty"`
	Before *string `json:"before,omitempty"`
	After  *string `json:"after,omitempty"`
}
