package api

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/trezcool/olympia/core/candidate"
)

const (
	candidatesPath = "/candidates"
	photoField     = "photo"
)

func candidatePath(id string, sub ...string) string {
	p := candidatesPath + "/" + url.PathEscape(id)
	for _, s := range sub {
		p += "/" + s
	}
	return p
}

// RegisterCandidate validates nc, then registers a new candidate.
func (c *Client) RegisterCandidate(ctx context.Context, nc candidate.NewCandidate) (candidate.Candidate, error) {
	if err := nc.Validate(c.validate, c.translator); err != nil {
		return candidate.Candidate{}, err
	}
	var cand candidate.Candidate
	err := c.Post(ctx, candidatesPath, nc, &cand)
	return cand, errors.Wrap(err, "registering candidate")
}

func (c *Client) GetCandidate(ctx context.Context, id string) (candidate.Candidate, error) {
	var cand candidate.Candidate
	err := c.Get(ctx, candidatePath(id), nil, &cand)
	return cand, errors.Wrap(err, "getting candidate")
}

func (c *Client) ListCandidates(ctx context.Context, filter candidate.QueryFilter) (candidate.Page, error) {
	var page candidate.Page
	err := c.Get(ctx, candidatesPath, filter.Values(), &page)
	return page, errors.Wrap(err, "listing candidates")
}

// UpdateCandidate validates uc, then patches the candidate's non-empty fields.
func (c *Client) UpdateCandidate(ctx context.Context, id string, uc candidate.UpdateCandidate) (candidate.Candidate, error) {
	if err := uc.Validate(c.validate, c.translator); err != nil {
		return candidate.Candidate{}, err
	}
	var cand candidate.Candidate
	err := c.Do(ctx, http.MethodPatch, candidatePath(id), nil, uc, &cand)
	return cand, errors.Wrap(err, "updating candidate")
}

// UploadCandidatePhoto replaces the candidate's photo; the file is sent untouched.
func (c *Client) UploadCandidatePhoto(ctx context.Context, id, filename string, photo io.Reader) (candidate.Candidate, error) {
	form := new(Multipart).AddFile(photoField, filename, photo)
	var cand candidate.Candidate
	err := c.Upload(ctx, candidatePath(id, "photo"), form, &cand)
	return cand, errors.Wrap(err, "uploading candidate photo")
}
