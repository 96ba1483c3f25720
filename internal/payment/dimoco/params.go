package dimoco

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ParamLocation 参数传输位置
type ParamLocation int

const (
	// LocationBody 表单/请求体参数，参与签名
	LocationBody ParamLocation = iota
	// LocationPath URL 路径参数，不参与签名
	LocationPath
)

// Param 单个请求参数
type Param struct {
	Name     string
	Value    string
	Location ParamLocation
}

// Params 按插入顺序保存的请求参数
type Params struct {
	items []Param
}

// Add 追加表单参数
func (p *Params) Add(name, value string) {
	p.items = append(p.items, Param{Name: name, Value: value, Location: LocationBody})
}

// AddOptional 值非空时追加表单参数
func (p *Params) AddOptional(name, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	p.Add(name, value)
}

// AddPath 追加路径参数
func (p *Params) AddPath(name, value string) {
	p.items = append(p.items, Param{Name: name, Value: value, Location: LocationPath})
}

// Get 返回第一个同名表单参数的值
func (p *Params) Get(name string) (string, bool) {
	for _, item := range p.items {
		if item.Location == LocationBody && item.Name == name {
			return item.Value, true
		}
	}
	return "", false
}

// Len 参数个数
func (p *Params) Len() int {
	return len(p.items)
}

// Items 返回参数副本
func (p *Params) Items() []Param {
	out := make([]Param, len(p.items))
	copy(out, p.items)
	return out
}

// Form 转换为待发送的表单
func (p *Params) Form() url.Values {
	values := url.Values{}
	for _, item := range p.items {
		if item.Location != LocationBody {
			continue
		}
		values.Add(item.Name, item.Value)
	}
	return values
}

// LogLines 以 "name: value" 逐行输出表单参数，用于请求日志
func (p *Params) LogLines() string {
	lines := make([]string, 0, len(p.items))
	for _, item := range p.items {
		if item.Location != LocationBody {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", item.Name, item.Value))
	}
	return strings.Join(lines, "\n")
}

// CanonicalPayload 生成签名原文：表单参数按名称升序排列后直接拼接参数值
func CanonicalPayload(params *Params) (string, error) {
	if params == nil {
		return "", nil
	}
	selected := make([]Param, 0, len(params.items))
	seen := make(map[string]struct{}, len(params.items))
	for _, item := range params.items {
		if item.Location != LocationBody || item.Name == ParamDigest {
			continue
		}
		if _, ok := seen[item.Name]; ok {
			return "", fmt.Errorf("%w: %s", ErrDuplicateParameter, item.Name)
		}
		seen[item.Name] = struct{}{}
		selected = append(selected, item)
	}
	sort.Slice(selected, func(i, j int) bool {
		return selected[i].Name < selected[j].Name
	})
	var builder strings.Builder
	for _, item := range selected {
		builder.WriteString(item.Value)
	}
	return builder.String(), nil
}
