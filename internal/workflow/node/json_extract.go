package node

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoRecords 模型输出中无法恢复出任何记录容器
var ErrNoRecords = errors.New("no record container found in model output")

// StripCodeFences 去除模型常见的 ``` / ```json 包裹
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// 去掉语言标记（json / jsonl 等）
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{[") {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// RecordSet 从模型输出中切分出的候选记录
type RecordSet struct {
	// Records 每条候选记录的原始 JSON，可能含语法错误的行（JSON Lines 模式）
	Records []json.RawMessage
	// Fields 容器对象的其它顶层字段
	Fields map[string]json.RawMessage
	// Truncated 容器在解析中途遇到语法错误，Records 仅含此前的完整记录
	Truncated bool
}

// ExtractRecords 按以下顺序切分候选记录：
//  1. {"<key>": [...], ...} 容器对象，可出现在任意位置
//  2. 裸数组 [...]，取最早可解码的一个
//  3. JSON Lines：每个以 { 开头、以 } 结尾的行是一条记录
//
// 前言中的 [JSON]、[1] 之类方括号不会遮住其后的容器对象。
// 三者都无法识别时返回 ErrNoRecords。
func ExtractRecords(s, key string) (*RecordSet, error) {
	raw := StripCodeFences(s)
	if raw == "" {
		return nil, ErrNoRecords
	}

	var array *RecordSet
	for _, start := range containerStarts(raw) {
		set, ok := decodeContainer(raw[start:], key)
		if !ok {
			continue
		}
		if raw[start] == '{' {
			return set, nil
		}
		if array == nil {
			array = set
		}
	}
	if array != nil {
		return array, nil
	}
	if set, ok := splitLines(raw); ok {
		return set, nil
	}
	return nil, ErrNoRecords
}

// containerStarts 返回可能的容器起点：每个 {，以及最早的 [ 和位于行首的 [。
// 行内其它 [ 多为记录内部字段，不作为裸数组起点。
func containerStarts(raw string) []int {
	var starts []int
	firstBracket := true
	lineStart := true
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '{':
			starts = append(starts, i)
			firstBracket = false
			lineStart = false
		case '[':
			if firstBracket || lineStart {
				starts = append(starts, i)
			}
			firstBracket = false
			lineStart = false
		case '\n':
			lineStart = true
		case ' ', '\t', '\r':
		default:
			lineStart = false
		}
	}
	return starts
}

func decodeContainer(data, key string) (*RecordSet, bool) {
	dec := json.NewDecoder(strings.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, false
	}

	switch delim {
	case '[':
		records, truncated := decodeElements(dec)
		if len(records) == 0 && truncated {
			return nil, false
		}
		return &RecordSet{Records: records, Fields: map[string]json.RawMessage{}, Truncated: truncated}, true
	case '{':
		return decodeObject(dec, key)
	default:
		return nil, false
	}
}

func decodeObject(dec *json.Decoder, key string) (*RecordSet, bool) {
	set := &RecordSet{Fields: make(map[string]json.RawMessage)}
	found := false

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			set.Truncated = true
			break
		}
		name, _ := tok.(string)

		if name != key {
			var v json.RawMessage
			if err := dec.Decode(&v); err != nil {
				set.Truncated = true
				break
			}
			set.Fields[name] = v
			continue
		}

		t, err := dec.Token()
		if err != nil {
			set.Truncated = true
			break
		}
		if d, ok := t.(json.Delim); !ok || d != '[' {
			return nil, false
		}
		found = true
		records, truncated := decodeElements(dec)
		set.Records = records
		if truncated {
			set.Truncated = true
			break
		}
	}

	if !found {
		return nil, false
	}
	return set, true
}

// decodeElements 逐个解码数组元素，遇到语法错误时返回已解码的前缀
func decodeElements(dec *json.Decoder) ([]json.RawMessage, bool) {
	var out []json.RawMessage
	for dec.More() {
		var r json.RawMessage
		if err := dec.Decode(&r); err != nil {
			return out, true
		}
		out = append(out, r)
	}
	if _, err := dec.Token(); err != nil {
		return out, true
	}
	return out, false
}

func splitLines(raw string) (*RecordSet, bool) {
	set := &RecordSet{Fields: map[string]json.RawMessage{}}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(strings.TrimSpace(line), ",")
		if strings.HasPrefix(line, "{") && strings.HasSuffix(line, "}") {
			set.Records = append(set.Records, json.RawMessage(line))
		}
	}
	if len(set.Records) == 0 {
		return nil, false
	}
	return set, true
}
