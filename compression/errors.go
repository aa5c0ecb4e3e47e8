package compression

import (
	"github.com/das-tools/dascheck/common"
)

func errShortBuffer(region string, want, got int) error {
	return common.NewErrInvalidTreeAccount("account data too short", map[string]interface{}{
		"region": region,
		"want":   want,
		"got":    got,
	})
}

func errHeader(reason string, h *TreeHeader) error {
	return common.NewErrInvalidTreeAccount(reason, map[string]interface{}{
		"accountType":   h.AccountType,
		"maxDepth":      h.MaxDepth,
		"maxBufferSize": h.MaxBufferSize,
	})
}

func errCanopy(reason string, size int) error {
	return common.NewErrInvalidTreeAccount(reason, map[string]interface{}{
		"canopyBytes": size,
	})
}
