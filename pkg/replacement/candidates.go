package replacement

import (
	"fmt"

	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/scoring"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/validator"
)

// Weights 替班评分权重
type Weights struct {
	SameLevelExperience float64 `yaml:"same_level_experience" json:"same_level_experience"`
	CrossTraining       float64 `yaml:"cross_training" json:"cross_training"`
	Availability        float64 `yaml:"availability" json:"availability"`
	RecentPerformance   float64 `yaml:"recent_performance" json:"recent_performance"`
}

// DefaultWeights 返回默认评分权重
func DefaultWeights() Weights {
	return Weights{
		SameLevelExperience: 0.4,
		CrossTraining:       0.3,
		Availability:        0.2,
		RecentPerformance:   0.1,
	}
}

// 评分惩罚系数
const (
	workloadPenaltyFactor  = 0.8
	fatiguePenaltyFactor   = 0.7
	workloadPenaltyTrigger = 1.2
	fatiguePenaltyTrigger  = 7.0
)

// 资质匹配的组成权重：证书重叠 70%，经验比 30%
const (
	certOverlapWeight = 0.7
	experienceWeight  = 0.3
)

// typeAffinity 各替班类型对经验项的基准系数
var typeAffinity = map[model.ReplacementType]float64{
	model.ReplacementSameLevelSenior:   1.0,
	model.ReplacementUpperLevel:        0.7,
	model.ReplacementCrossTrainedLower: 0.5,
	model.ReplacementExternalFloat:     0.2,
}

// classifyType 按层级比较确定替班类型
// 数字越小层级越高；更低数字即上级替班
func classifyType(absentLevel int, candidate *model.Employee) model.ReplacementType {
	switch {
	case candidate.HierarchyLevel == absentLevel:
		return model.ReplacementSameLevelSenior
	case candidate.HierarchyLevel < absentLevel:
		return model.ReplacementUpperLevel
	case candidate.CrossTrained:
		return model.ReplacementCrossTrainedLower
	default:
		return model.ReplacementExternalFloat
	}
}

// qualificationMatch 计算资质匹配度（0-100）
// 证书重叠率与经验比按固定权重混合；缺勤人无证书时重叠率记满分
func qualificationMatch(absent, candidate *model.Employee) float64 {
	overlap := 1.0
	if absent != nil && len(absent.Certifications) > 0 {
		matched := 0
		for _, cert := range absent.Certifications {
			if candidate.HasCertification(cert) {
				matched++
			}
		}
		overlap = float64(matched) / float64(len(absent.Certifications))
	}

	expRatio := 1.0
	if absent != nil && absent.ExperienceYears > 0 {
		expRatio = model.Clamp(candidate.ExperienceYears/absent.ExperienceYears, 0, 1)
	}

	return (certOverlapWeight*overlap + experienceWeight*expRatio) * 100
}

// availabilityOf 根据既有排班冲突确定候选人在受影响班次上的可用状态
func availabilityOf(detector *validator.Detector, schedule []*model.ShiftAssignment, candidate *model.Employee, shifts []model.AffectedShift) (model.AvailabilityStatus, []string) {
	conflicted := 0
	var messages []string
	for _, shift := range shifts {
		conflicts := detector.ConflictsWith(schedule, candidate.ID, shift.Date, shift.ShiftType)
		if len(conflicts) > 0 {
			conflicted++
			for _, c := range conflicts {
				messages = append(messages, fmt.Sprintf("%s %s: %s", shift.Date, shift.ShiftType, c.Message))
			}
		}
	}
	switch {
	case conflicted == 0:
		return model.AvailabilityAvailable, nil
	case conflicted == len(shifts):
		return model.AvailabilityUnavailable, messages
	default:
		return model.AvailabilityPartial, messages
	}
}

// buildCandidate 计算候选人的类型、资质与综合得分
func buildCandidate(absent *model.Employee, absentLevel int, candidate *model.Employee, weights Weights, availability model.AvailabilityStatus, conflicts []string) *model.ReplacementCandidate {
	rType := classifyType(absentLevel, candidate)
	qual := qualificationMatch(absent, candidate)

	expRatio := model.Clamp(candidate.ExperienceYears/10, 0, 1)
	if absent != nil && absent.ExperienceYears > 0 {
		expRatio = model.Clamp(candidate.ExperienceYears/absent.ExperienceYears, 0, 1)
	}

	crossTraining := qual / 100
	if candidate.CrossTrained {
		crossTraining = 1.0
	}

	score := scoring.WeightedSum([]scoring.Factor{
		{Name: "same_level_experience", Weight: weights.SameLevelExperience, Value: typeAffinity[rType] * (0.5 + 0.5*expRatio)},
		{Name: "cross_training", Weight: weights.CrossTraining, Value: crossTraining},
		{Name: "availability", Weight: weights.Availability, Value: availabilityValue(availability)},
		{Name: "recent_performance", Weight: weights.RecentPerformance, Value: model.Clamp(candidate.Performance, 0, 1)},
	})

	score = scoring.ApplyPenalties(score, []scoring.Penalty{
		{Name: "high_workload", Factor: workloadPenaltyFactor, Active: candidate.ClampedWorkload() > workloadPenaltyTrigger},
		{Name: "high_fatigue", Factor: fatiguePenaltyFactor, Active: candidate.ClampedFatigue() >= fatiguePenaltyTrigger},
	})

	return &model.ReplacementCandidate{
		EmployeeID:         candidate.ID,
		EmployeeName:       candidate.Name,
		HierarchyLevel:     candidate.HierarchyLevel,
		ReplacementType:    rType,
		ReplacementScore:   score,
		AvailabilityStatus: availability,
		QualificationMatch: qual,
		Conflicts:          conflicts,
	}
}

func availabilityValue(status model.AvailabilityStatus) float64 {
	switch status {
	case model.AvailabilityAvailable:
		return 1.0
	case model.AvailabilityPartial:
		return 0.5
	default:
		return 0
	}
}
