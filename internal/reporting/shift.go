package reporting

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidShift 无法识别的班次标识
var ErrInvalidShift = errors.New("无效的班次")

// Shift 班次（早/午/夜），封闭枚举
type Shift uint8

const (
	Morning Shift = iota
	Afternoon
	Night
)

// AllShifts 按固定顺序列出全部班次
var AllShifts = [...]Shift{Morning, Afternoon, Night}

// String 返回班次长名称（morning/afternoon/night）
func (s Shift) String() string {
	switch s {
	case Morning:
		return "morning"
	case Afternoon:
		return "afternoon"
	case Night:
		return "night"
	default:
		return fmt.Sprintf("shift(%d)", uint8(s))
	}
}

// Code 返回表单使用的单字母编码（M/A/N）
func (s Shift) Code() string {
	switch s {
	case Morning:
		return "M"
	case Afternoon:
		return "A"
	case Night:
		return "N"
	default:
		return ""
	}
}

// Valid 判断是否为已知班次
func (s Shift) Valid() bool {
	return s <= Night
}

// ParseShift 解析班次，同时接受长名称与 M/A/N 编码，大小写不敏感
func ParseShift(v string) (Shift, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "morning", "m":
		return Morning, nil
	case "afternoon", "a":
		return Afternoon, nil
	case "night", "n":
		return Night, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidShift, v)
}

// MarshalJSON 以长名称编码
func (s Shift) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidShift, uint8(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON 接受长名称或 M/A/N
func (s *Shift) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseShift(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ── ShiftSet ──

// ShiftSet 班次集合，3 位位图
type ShiftSet uint8

// NewShiftSet 由若干班次构造集合，重复项自动合并
func NewShiftSet(shifts ...Shift) ShiftSet {
	var set ShiftSet
	for _, s := range shifts {
		set = set.Add(s)
	}
	return set
}

// ParseShiftSet 由名称列表构造集合
func ParseShiftSet(names []string) (ShiftSet, error) {
	var set ShiftSet
	for _, n := range names {
		s, err := ParseShift(n)
		if err != nil {
			return 0, err
		}
		set = set.Add(s)
	}
	return set, nil
}

// FullShiftSet 三个班次全部要求
func FullShiftSet() ShiftSet {
	return NewShiftSet(Morning, Afternoon, Night)
}

func (set ShiftSet) Has(s Shift) bool {
	if !s.Valid() {
		return false
	}
	return set&(1<<s) != 0
}

func (set ShiftSet) Add(s Shift) ShiftSet {
	if !s.Valid() {
		return set
	}
	return set | 1<<s
}

func (set ShiftSet) Remove(s Shift) ShiftSet {
	if !s.Valid() {
		return set
	}
	return set &^ (1 << s)
}

func (set ShiftSet) IsEmpty() bool {
	return set&FullShiftSet() == 0
}

func (set ShiftSet) Len() int {
	n := 0
	for _, s := range AllShifts {
		if set.Has(s) {
			n++
		}
	}
	return n
}

// Shifts 按早/午/夜顺序返回集合内的班次
func (set ShiftSet) Shifts() []Shift {
	out := make([]Shift, 0, 3)
	for _, s := range AllShifts {
		if set.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

// Names 返回长名称列表
func (set ShiftSet) Names() []string {
	out := make([]string, 0, 3)
	for _, s := range set.Shifts() {
		out = append(out, s.String())
	}
	return out
}

// Codes 返回 M/A/N 编码列表（提交表单的可选班次）
func (set ShiftSet) Codes() []string {
	out := make([]string, 0, 3)
	for _, s := range set.Shifts() {
		out = append(out, s.Code())
	}
	return out
}

func (set ShiftSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(set.Names())
}

func (set *ShiftSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	parsed, err := ParseShiftSet(names)
	if err != nil {
		return err
	}
	*set = parsed
	return nil
}
