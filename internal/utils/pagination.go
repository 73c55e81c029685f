// internal/utils/pagination.go
package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/watch4deal/admin-backend/internal/projection"
)

type PaginationParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type PaginationResult struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
	Data       interface{} `json:"data"`
}

func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	return PaginationParams{Page: page, Limit: limit}
}

// PaginateEntries pages a projection view. The slice is already a stable
// snapshot, so offsets stay consistent between snapshots.
func PaginateEntries(entries []projection.Entry, params PaginationParams) PaginationResult {
	total := int64(len(entries))
	totalPages := int(math.Ceil(float64(total) / float64(params.Limit)))

	start := (params.Page - 1) * params.Limit
	if start > len(entries) {
		start = len(entries)
	}
	end := start + params.Limit
	if end > len(entries) {
		end = len(entries)
	}

	return PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		Data:       entries[start:end],
	}
}
