// Package keys reads the verification key file.
//
// The format is plain text: a line ending in ':' opens a method-category
// block; following non-empty lines hold comma-separated identifiers for that
// block. The owner-and-mint category encodes each pair as "(owner;mint)".
package keys

import (
	"bufio"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/das-tools/dascheck/checker"
	"github.com/das-tools/dascheck/common"
	"github.com/spf13/afero"
)

type FileKeysFetcher struct {
	keysMap map[string][]string

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewFileKeysFetcher(fs afero.Fs, path string) (*FileKeysFetcher, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	keysMap := make(map[string][]string)
	currentKey := ""

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasSuffix(line, ":") {
			currentKey = strings.TrimSuffix(line, ":")
			continue
		}
		if currentKey == "" || line == "" {
			continue
		}
		for _, token := range strings.Split(line, ",") {
			if token == "" {
				continue
			}
			keysMap[currentKey] = append(keysMap[currentKey], token)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &FileKeysFetcher{
		keysMap: keysMap,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

func (f *FileKeysFetcher) readKeys(method string) ([]string, error) {
	keys := f.keysMap[method]
	out := make([]string, len(keys))
	copy(out, keys)
	return out, nil
}

func (f *FileKeysFetcher) AssetKeys() ([]string, error) {
	return f.readKeys(common.MethodGetAsset)
}

func (f *FileKeysFetcher) AssetProofKeys() ([]string, error) {
	return f.readKeys(common.MethodGetAssetProof)
}

func (f *FileKeysFetcher) OwnerKeys() ([]string, error) {
	return f.readKeys(common.MethodGetAssetsByOwner)
}

func (f *FileKeysFetcher) AuthorityKeys() ([]string, error) {
	return f.readKeys(common.MethodGetAssetsByAuthority)
}

func (f *FileKeysFetcher) CreatorKeys() ([]string, error) {
	return f.readKeys(common.MethodGetAssetsByCreator)
}

func (f *FileKeysFetcher) GroupKeys() ([]string, error) {
	return f.readKeys(common.MethodGetAssetsByGroup)
}

func (f *FileKeysFetcher) TokenOwnerKeys() ([]string, error) {
	return f.readKeys(common.MethodGetTokenAccountsByOwner)
}

func (f *FileKeysFetcher) TokenMintKeys() ([]string, error) {
	return f.readKeys(common.MethodGetTokenAccountsByMint)
}

func (f *FileKeysFetcher) TokenOwnerMintKeys() ([]checker.OwnerMintPair, error) {
	tokens, _ := f.readKeys(common.MethodGetTokenAccountsByOwnerMint)
	pairs := make([]checker.OwnerMintPair, 0, len(tokens))
	for _, token := range tokens {
		pair, ok := ParsePair(token)
		if !ok {
			continue
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

func (f *FileKeysFetcher) SignatureAssetKeys() ([]string, error) {
	return f.readKeys(common.MethodGetSignaturesForAsset)
}

// ParsePair decodes a "(owner;mint)" token.
func ParsePair(token string) (checker.OwnerMintPair, bool) {
	if !strings.HasPrefix(token, "(") || !strings.HasSuffix(token, ")") {
		return checker.OwnerMintPair{}, false
	}
	parts := strings.SplitN(token[1:len(token)-1], ";", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return checker.OwnerMintPair{}, false
	}
	return checker.OwnerMintPair{Owner: parts[0], Mint: parts[1]}, true
}

// RandomCommand draws a random (method, key) pair for the load generator.
func (f *FileKeysFetcher) RandomCommand() (string, string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var methods []string
	for method, keys := range f.keysMap {
		if len(keys) > 0 {
			methods = append(methods, method)
		}
	}
	if len(methods) == 0 {
		return "", "", false
	}

	method := methods[f.rnd.Intn(len(methods))]
	keys := f.keysMap[method]
	return method, keys[f.rnd.Intn(len(keys))], true
}
