package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"sims/backend/internal/dto"
	"sims/backend/internal/model"
)

// DefaultMaxDepth 先修链遍历深度上限默认值
const DefaultMaxDepth = 50

// CourseCodeLookup 先修图解析所需的只读访问（按 code 索引查找）
type CourseCodeLookup interface {
	GetByCode(ctx context.Context, code string) (*model.Course, error)
}

// PrerequisiteGraph 课程代码 → 直接先修课程代码。
// 每个访问过的代码都是键；未登记、被截断或闭合环路的节点值为空列表。
type PrerequisiteGraph map[string][]string

// ═══════════════════════════════════════════════════════════
// 图构建
// ═══════════════════════════════════════════════════════════

// graphBuilder 一次解析请求的遍历上下文
type graphBuilder struct {
	lookup    CourseCodeLookup
	maxDepth  int
	adjacency PrerequisiteGraph
	visited   map[string]bool
	onStack   map[string]bool
}

// BuildPrerequisiteGraph 从 startCode 出发解析先修关系的传递闭包。
// 环路与深度上限只会截断分支，不会返回错误；仅存储访问失败时返回 error。
func BuildPrerequisiteGraph(ctx context.Context, lookup CourseCodeLookup, startCode string, maxDepth int) (PrerequisiteGraph, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	b := &graphBuilder{
		lookup:    lookup,
		maxDepth:  maxDepth,
		adjacency: make(PrerequisiteGraph),
		visited:   make(map[string]bool),
		onStack:   make(map[string]bool),
	}
	if err := b.resolve(ctx, startCode, 0); err != nil {
		return nil, err
	}
	return b.adjacency, nil
}

func (b *graphBuilder) resolve(ctx context.Context, code string, depth int) error {
	if b.visited[code] {
		return nil
	}
	// 超过深度上限或回到当前路径上的节点：记为叶子，不再展开
	if depth > b.maxDepth || b.onStack[code] {
		b.markLeaf(code)
		return nil
	}

	b.onStack[code] = true

	prereqs, err := b.prerequisitesOf(ctx, code)
	if err != nil {
		return err
	}
	b.adjacency[code] = prereqs

	for _, next := range prereqs {
		if err := b.resolve(ctx, next, depth+1); err != nil {
			return err
		}
	}

	delete(b.onStack, code)
	b.visited[code] = true
	return nil
}

// markLeaf 回边指向的节点已记录了自己的先修列表，保留原值
func (b *graphBuilder) markLeaf(code string) {
	if _, ok := b.adjacency[code]; !ok {
		b.adjacency[code] = []string{}
	}
	b.visited[code] = true
}

// prerequisitesOf 未登记的代码或格式异常的 prerequisites 字段均视为无先修
func (b *graphBuilder) prerequisitesOf(ctx context.Context, code string) ([]string, error) {
	course, err := b.lookup.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("查询课程 %q 失败: %w", code, err)
	}
	codes, ok := course.PrerequisiteCodes()
	if !ok {
		return []string{}, nil
	}
	return codes, nil
}

// ═══════════════════════════════════════════════════════════
// 先修链校验
// ═══════════════════════════════════════════════════════════

// ChainValidation 先修链校验结果（结构化结果，不作为 error 返回）
type ChainValidation struct {
	Status string   // dto.ChainStatusValid | dto.ChainStatusCycle | dto.ChainStatusDepthExceeded
	Cycle  []string // 首尾相同的环路代码序列
	Reason string
}

// Valid 校验是否通过
func (v ChainValidation) Valid() bool { return v.Status == dto.ChainStatusValid }

type chainValidator struct {
	graph     PrerequisiteGraph
	startCode string
	maxDepth  int
	visited   map[string]bool
	onStack   map[string]bool
	path      []string
	outcome   *ChainValidation
}

// ValidatePrerequisiteChain 在已解析的先修图上独立做一次深度优先搜索。
// 进入节点时先检查深度，再检查环路；任一条件触发即终止整个搜索。
func ValidatePrerequisiteChain(graph PrerequisiteGraph, startCode string, maxDepth int) ChainValidation {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	v := &chainValidator{
		graph:     graph,
		startCode: startCode,
		maxDepth:  maxDepth,
		visited:   make(map[string]bool),
		onStack:   make(map[string]bool),
	}
	if v.visit(startCode, 0) {
		return *v.outcome
	}
	return ChainValidation{Status: dto.ChainStatusValid}
}

// visit 返回 true 表示搜索已终止
func (v *chainValidator) visit(code string, depth int) bool {
	if depth > v.maxDepth {
		v.outcome = &ChainValidation{
			Status: dto.ChainStatusDepthExceeded,
			Reason: fmt.Sprintf("先修链深度超过上限 %d（起点课程 %s）", v.maxDepth, v.startCode),
		}
		return true
	}
	if v.onStack[code] {
		v.outcome = &ChainValidation{
			Status: dto.ChainStatusCycle,
			Cycle:  v.cycleThrough(code),
		}
		return true
	}
	if v.visited[code] {
		return false
	}

	v.visited[code] = true
	v.onStack[code] = true
	v.path = append(v.path, code)

	for _, next := range v.graph[code] {
		if v.visit(next, depth+1) {
			return true
		}
	}

	v.path = v.path[:len(v.path)-1]
	delete(v.onStack, code)
	return false
}

// cycleThrough 截取路径中从 code 首次出现到当前节点的部分，并以 code 收尾
func (v *chainValidator) cycleThrough(code string) []string {
	start := 0
	for i, c := range v.path {
		if c == code {
			start = i
			break
		}
	}
	cycle := make([]string, 0, len(v.path)-start+1)
	cycle = append(cycle, v.path[start:]...)
	cycle = append(cycle, code)
	return canonicalCycle(cycle)
}

// canonicalCycle 旋转环路使字典序最小的代码位于首尾。
// 同一个环无论从哪个节点开始查询，报告的序列都相同。
func canonicalCycle(cycle []string) []string {
	if len(cycle) < 2 {
		return cycle
	}
	ring := cycle[:len(cycle)-1]
	first := 0
	for i := range ring {
		if ring[i] < ring[first] {
			first = i
		}
	}
	out := make([]string, 0, len(cycle))
	out = append(out, ring[first:]...)
	out = append(out, ring[:first]...)
	return append(out, out[0])
}
