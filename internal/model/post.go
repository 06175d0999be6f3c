package model

import "encoding/json"

// 帖子 hash 的标准字段
const (
	FieldTitle       = "title"
	FieldDescription = "description"
)

// Post 帖子原始记录（store 中 hash 的一份拷贝）
type Post struct {
	ID     string
	Fields map[string]string
}

// NewPost 拷贝字段构造记录，调用方后续修改 fields 不影响 Post
func NewPost(id string, fields map[string]string) *Post {
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return &Post{ID: id, Fields: cp}
}

// Field 返回字段值；ok=false 表示字段不存在（区别于空字符串）
func (p *Post) Field(name string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.Fields[name]
	return v, ok
}

func (p *Post) Title() (string, bool)       { return p.Field(FieldTitle) }
func (p *Post) Description() (string, bool) { return p.Field(FieldDescription) }

// MarshalJSON 按原始字段输出
func (p *Post) MarshalJSON() ([]byte, error) {
	if p.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.Fields)
}

// PostSummary 列表页使用的摘要
type PostSummary struct {
	ID string `json:"id"`
	// nil 表示记录缺少 title 字段
	Title *string `json:"title,omitempty"`
	// Missing 标记索引中存在但记录已不存在的条目
	Missing bool `json:"-"`
}

// Summarize 由记录生成摘要；post 为 nil 时生成占位摘要
func Summarize(id string, post *Post) PostSummary {
	if post == nil {
		return PostSummary{ID: id, Missing: true}
	}
	s := PostSummary{ID: id}
	if title, ok := post.Title(); ok {
		s.Title = &title
	}
	return s
}

// CountMissing 统计占位摘要数量
func CountMissing(items []PostSummary) int {
	n := 0
	for _, it := range items {
		if it.Missing {
			n++
		}
	}
	return n
}
