package server

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/nobelmap/internal/model"
)

// LaureateView is a record as served to the map, with the names of its
// co-laureates resolved
type LaureateView struct {
	model.Laureate
	Category        string `json:"category,omitempty"`
	CategoryKey     string `json:"category_key,omitempty"`
	CoLaureateNames string `json:"co_laureate_names"`
}

// CategoryView describes one category
type CategoryView struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

const allCategories = "all"

func (s *Server) dataset(c *gin.Context) (model.Dataset, bool) {
	ds, err := s.provider.Dataset()
	if err != nil {
		abortWithError(c, http.StatusServiceUnavailable, "Dataset not available", err)
		return nil, false
	}
	return ds, true
}

func (s *Server) laureates(c *gin.Context) {
	category := c.Param("category")
	if category != allCategories && !model.IsCategory(category) {
		abortWithError(c, http.StatusNotFound, "Category not found")
		return
	}

	ds, ok := s.dataset(c)
	if !ok {
		return
	}

	if category == allCategories {
		views := make([]LaureateView, 0, ds.Count())
		for _, key := range model.Categories {
			for _, v := range categoryViews(ds[key]) {
				v.Category = key
				views = append(views, v)
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"category":  "All Categories",
			"laureates": views,
		})
		return
	}

	label, _ := model.CategoryLabel(category)
	c.JSON(http.StatusOK, gin.H{
		"category":  label,
		"laureates": categoryViews(ds[category]),
	})
}

// table serves every record flattened and sorted by prize year, newest first
func (s *Server) table(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}

	views := make([]LaureateView, 0, ds.Count())
	for _, key := range model.Categories {
		label, _ := model.CategoryLabel(key)
		for _, v := range categoryViews(ds[key]) {
			v.Category = label
			v.CategoryKey = key
			views = append(views, v)
		}
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].PrizeYear > views[j].PrizeYear
	})

	c.JSON(http.StatusOK, gin.H{
		"count":     len(views),
		"laureates": views,
	})
}

func (s *Server) categories(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}

	out := make([]CategoryView, 0, len(model.Categories))
	for _, key := range model.Categories {
		label, _ := model.CategoryLabel(key)
		out = append(out, CategoryView{Key: key, Label: label, Count: len(ds[key])})
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

func (s *Server) reload(c *gin.Context) {
	ds, err := s.provider.Reload()
	if err != nil {
		abortWithError(c, http.StatusServiceUnavailable, "Dataset not available", err)
		return
	}
	s.logger.Infof("reloaded %d records from %s", ds.Count(), s.provider.Path())
	c.JSON(http.StatusOK, gin.H{
		"status":  "reloaded",
		"records": ds.Count(),
	})
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *Server) readyz(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"records": ds.Count(),
	})
}

// categoryViews copies list into views. Co-laureates are looked up within
// the same category; "-" marks a sole winner.
func categoryViews(list []model.Laureate) []LaureateView {
	names := make(map[string]string, len(list))
	for _, l := range list {
		names[l.ID] = l.Name
	}

	views := make([]LaureateView, 0, len(list))
	for _, l := range list {
		var co []string
		for _, id := range l.SharedWith {
			if name, ok := names[id]; ok {
				co = append(co, name)
			}
		}
		coNames := "-"
		if len(co) > 0 {
			coNames = strings.Join(co, ", ")
		}
		views = append(views, LaureateView{Laureate: l, CoLaureateNames: coNames})
	}
	return views
}
