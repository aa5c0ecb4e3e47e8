package common

import (
	"github.com/bytedance/sonic"
)

var SonicCfg sonic.API

func init() {
	SonicCfg = sonic.Config{
		CopyString:       false,
		EscapeHTML:       false,
		SortMapKeys:      false,
		CompactMarshaler: true,
	}.Froze()
}
