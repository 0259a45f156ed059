// Package scoring 提供通用加权评分工具
// 排班引擎的优先级评分与替班候选评分共用同一套因子表机制
package scoring

import "github.com/KNOCKYONG/shiftlink-sub002/pkg/model"

// Factor 归一化加权因子：Value 取值 [0,1]，Weight 为占比
type Factor struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Value  float64 `json:"value"`
}

// WeightedSum 计算因子表的加权和，结果落在 [0,1]
// Value 越界时按 [0,1] 截断；权重和为 0 时返回 0
func WeightedSum(factors []Factor) float64 {
	var totalWeight, sum float64
	for _, f := range factors {
		if f.Weight <= 0 {
			continue
		}
		totalWeight += f.Weight
		sum += f.Weight * model.Clamp(f.Value, 0, 1)
	}
	if totalWeight == 0 {
		return 0
	}
	return sum / totalWeight
}

// Adjustment 加减分项：在基准分上按条件累加
type Adjustment struct {
	Name   string  `json:"name"`
	Points float64 `json:"points"`
}

// Additive 基准分加上全部加减分项，再截断到 [lo, hi]
func Additive(base float64, adjustments []Adjustment, lo, hi float64) float64 {
	score := base
	for _, a := range adjustments {
		score += a.Points
	}
	return model.Clamp(score, lo, hi)
}

// Penalty 乘性惩罚：条件成立时按系数缩减
type Penalty struct {
	Name   string
	Factor float64
	Active bool
}

// ApplyPenalties 对评分依次应用生效的乘性惩罚
func ApplyPenalties(score float64, penalties []Penalty) float64 {
	for _, p := range penalties {
		if p.Active {
			score *= p.Factor
		}
	}
	return score
}
