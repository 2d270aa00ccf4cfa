package event

import (
	"fmt"
	"strconv"
	"strings"
)

// Number 宽容解析的 int64。上游对数值字段时而给 JSON 数字、
// 时而给数字字符串，两种形式都必须解析成功。
type Number int64

func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// 偶见浮点形式的整数
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("parse number %q: %w", s, err)
		}
		v = int64(f)
	}

	*n = Number(v)
	return nil
}

// Int64 返回原生类型
func (n Number) Int64() int64 { return int64(n) }

// Uint64 负数钳到 0
func (n Number) Uint64() uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}
