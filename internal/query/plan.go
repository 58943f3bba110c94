package query

import "fmt"

// Stage is one step of an aggregation plan.
type Stage interface {
	stage()
}

// Filter keeps the rows matching Predicate.
type Filter struct {
	Predicate Predicate
}

// GroupCount groups rows by a field. Each output row has FieldID set to
// the group key and FieldCount set to the number of input rows.
type GroupCount struct {
	By Field
}

// Sort orders rows. Later keys break ties of earlier keys.
type Sort []SortKey

// Limit keeps at most N rows.
type Limit int64

// Join attaches the From document whose identifier equals the row's FieldID.
// Rows without a match are dropped. Row fields win over joined fields.
type Join struct {
	From Collection
}

func (Filter) stage()     {}
func (GroupCount) stage() {}
func (Sort) stage()       {}
func (Limit) stage()      {}
func (Join) stage()       {}

// Plan is an ordered list of stages over a source collection.
type Plan struct {
	Source Collection
	Stages []Stage
}

// NewPlan starts a plan over source.
func NewPlan(source Collection) *Plan {
	return &Plan{Source: source}
}

func (p *Plan) Filter(pred Predicate) *Plan {
	p.Stages = append(p.Stages, Filter{Predicate: pred})
	return p
}

func (p *Plan) GroupCount(by Field) *Plan {
	p.Stages = append(p.Stages, GroupCount{By: by})
	return p
}

func (p *Plan) Sort(keys ...SortKey) *Plan {
	p.Stages = append(p.Stages, Sort(keys))
	return p
}

func (p *Plan) Limit(n int64) *Plan {
	p.Stages = append(p.Stages, Limit(n))
	return p
}

func (p *Plan) Join(from Collection) *Plan {
	p.Stages = append(p.Stages, Join{From: from})
	return p
}

// Validate rejects plans no backend can run.
func (p *Plan) Validate() error {
	if p.Source == "" {
		return fmt.Errorf("query: plan has no source")
	}
	grouped := false
	for i, s := range p.Stages {
		switch st := s.(type) {
		case GroupCount:
			grouped = true
		case Limit:
			if st < 0 {
				return fmt.Errorf("query: stage %d: negative limit", i)
			}
		case Join:
			if !grouped {
				return fmt.Errorf("query: stage %d: join requires a preceding group", i)
			}
		case Filter:
			if st.Predicate == nil {
				return fmt.Errorf("query: stage %d: filter without predicate", i)
			}
		}
	}
	return nil
}
