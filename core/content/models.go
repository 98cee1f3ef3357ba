package content

import (
	"net/url"
	"sort"
	"strconv"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/olympia/core"
)

// Article kinds
const (
	KindNews = "news"
	KindPage = "page"
)

var AllKinds = []string{KindNews, KindPage}

type GalleryImage struct {
	ImageURL string `json:"imageUrl" validate:"required,url"`
	Caption  string `json:"caption,omitempty"`
	Order    int    `json:"order" validate:"min=0"`
}

type Article struct {
	ID            string         `json:"id"`
	Kind          string         `json:"kind"`
	Slug          string         `json:"slug"`
	Title         string         `json:"title"`
	Summary       string         `json:"summary,omitempty"`
	Body          string         `json:"body"` // HTML
	PhotoURL      string         `json:"photoUrl,omitempty"`
	GalleryImages []GalleryImage `json:"galleryImages"`
	IsPublished   bool           `json:"isPublished"`
	PublishedAt   *time.Time     `json:"publishedAt,omitempty"` // UTC
	CreatedAt     time.Time      `json:"createdAt"`             // UTC
	UpdatedAt     time.Time      `json:"updatedAt"`             // UTC
}

// Gallery returns the gallery images sorted by their display order.
func (a Article) Gallery() []GalleryImage {
	return sortedGallery(a.GalleryImages)
}

// NewArticle contains information needed to create or replace an Article.
type NewArticle struct {
	Kind          string         `json:"kind" validate:"required,oneof=news page"`
	Slug          string         `json:"slug,omitempty" validate:"omitempty,slug"`
	Title         string         `json:"title" validate:"notblank,max=200"`
	Summary       string         `json:"summary,omitempty" validate:"max=500"`
	Body          string         `json:"body" validate:"notblank"`
	PhotoURL      string         `json:"photoUrl,omitempty" validate:"omitempty,url"`
	GalleryImages []GalleryImage `json:"galleryImages" validate:"dive"`
	IsPublished   bool           `json:"isPublished"`
}

func (na *NewArticle) Clean() {
	na.Kind = core.CleanString(na.Kind, true /* lower */)
	na.Slug = core.CleanString(na.Slug, true /* lower */)
	na.Title = core.CleanString(na.Title)
	na.Summary = core.CleanString(na.Summary)
	na.PhotoURL = core.CleanString(na.PhotoURL)
	for i := range na.GalleryImages {
		na.GalleryImages[i].ImageURL = core.CleanString(na.GalleryImages[i].ImageURL)
		na.GalleryImages[i].Caption = core.CleanString(na.GalleryImages[i].Caption)
	}
	na.GalleryImages = sortedGallery(na.GalleryImages)
}

func (na *NewArticle) Validate(validate *validator.Validate, translator ut.Translator) error {
	na.Clean()
	return core.ValidateStruct(validate, translator, na)
}

// QueryFilter filters the article list; the zero value lists every published article.
type QueryFilter struct {
	Kind       string
	Search     string
	WithDrafts bool
	Orderings  []core.Ordering
	Page       int
}

// Values renders the filter as query parameters, in wire format.
func (qf *QueryFilter) Values() url.Values {
	v := make(url.Values)
	if qf.Kind != "" {
		v.Set("kind", qf.Kind)
	}
	if s := core.CleanString(qf.Search); s != "" {
		v.Set("search", s)
	}
	if qf.WithDrafts {
		v.Set("with_drafts", "true")
	}
	if len(qf.Orderings) > 0 {
		v.Set(core.OrderingParam, core.JoinOrderings(qf.Orderings))
	}
	if qf.Page > 0 {
		v.Set("page", strconv.Itoa(qf.Page))
	}
	return v
}

// Page is a page of articles as returned by the list endpoint.
type Page struct {
	Count    int       `json:"count"`
	Next     string    `json:"next,omitempty"`
	Previous string    `json:"previous,omitempty"`
	Results  []Article `json:"results"`
}

func sortedGallery(imgs []GalleryImage) []GalleryImage {
	if imgs == nil {
		return nil
	}
	sorted := make([]GalleryImage, len(imgs))
	copy(sorted, imgs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	return sorted
}
