package api

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"github.com/trezcool/olympia/core/content"
)

const articlesPath = "/articles"

func (c *Client) ListArticles(ctx context.Context, filter content.QueryFilter) (content.Page, error) {
	var page content.Page
	err := c.Get(ctx, articlesPath, filter.Values(), &page)
	return page, errors.Wrap(err, "listing articles")
}

// GetArticle gets an article by ID or slug.
func (c *Client) GetArticle(ctx context.Context, idOrSlug string) (content.Article, error) {
	var article content.Article
	err := c.Get(ctx, articlesPath+"/"+url.PathEscape(idOrSlug), nil, &article)
	return article, errors.Wrap(err, "getting article")
}

func (c *Client) CreateArticle(ctx context.Context, na content.NewArticle) (content.Article, error) {
	if err := na.Validate(c.validate, c.translator); err != nil {
		return content.Article{}, err
	}
	var article content.Article
	err := c.Post(ctx, articlesPath, na, &article)
	return article, errors.Wrap(err, "creating article")
}

func (c *Client) UpdateArticle(ctx context.Context, id string, na content.NewArticle) (content.Article, error) {
	if err := na.Validate(c.validate, c.translator); err != nil {
		return content.Article{}, err
	}
	var article content.Article
	err := c.Put(ctx, articlesPath+"/"+url.PathEscape(id), na, &article)
	return article, errors.Wrap(err, "updating article")
}
