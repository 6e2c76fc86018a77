package dispatch

import (
	"sort"
	"strings"

	"github.com/fgeck/clipperhub/internal/models"
)

// Status classifies the outcome of a dispatch.
type Status string

// Dispatch outcomes.
const (
	StatusNone    Status = "none"
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailure Status = "failure"
)

// Summary is a user-facing digest of a result map.
type Summary struct {
	Status    Status   `json:"status"`
	Title     string   `json:"title"`
	Message   string   `json:"message"`
	Succeeded []string `json:"succeeded"`
	Failed    []string `json:"failed"`
}

// Summarize condenses per-destination results into a notification-style summary.
func Summarize(results map[models.DestinationID]models.SendResult) Summary {
	sum := Summary{Succeeded: []string{}, Failed: []string{}}

	for _, id := range orderedKeys(results) {
		result := results[id]
		if result.Success {
			sum.Succeeded = append(sum.Succeeded, string(id))
		} else {
			sum.Failed = append(sum.Failed, string(id)+": "+result.Error)
		}
	}

	switch {
	case len(results) == 0:
		sum.Status = StatusNone
		sum.Title = "配置缺失"
		sum.Message = "请先配置至少一个平台"
	case len(sum.Failed) == 0:
		sum.Status = StatusSuccess
		sum.Title = "发送成功"
		sum.Message = "消息已发送到: " + strings.Join(sum.Succeeded, ", ")
	case len(sum.Succeeded) > 0:
		sum.Status = StatusPartial
		sum.Title = "部分发送成功"
		sum.Message = "成功: " + strings.Join(sum.Succeeded, ", ") + "\n失败: " + strings.Join(sum.Failed, ", ")
	default:
		sum.Status = StatusFailure
		sum.Title = "发送失败"
		sum.Message = strings.Join(sum.Failed, "\n")
	}

	return sum
}

func orderedKeys(results map[models.DestinationID]models.SendResult) []models.DestinationID {
	rank := make(map[models.DestinationID]int, len(models.AllDestinations))
	for i, id := range models.AllDestinations {
		rank[id] = i
	}

	keys := make([]models.DestinationID, 0, len(results))
	for id := range results {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iKnown := rank[keys[i]]
		rj, jKnown := rank[keys[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown != jKnown:
			return iKnown
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}
